package core

// TaskFilter narrows a task listing before visibility scoping is applied.
type TaskFilter struct {
	Status    *TaskStatus `json:"status"`
	ProjectID *int64      `json:"project_id"`
	Deleted   bool        `json:"deleted"`
}

// ListTasksFilter is the caller-facing filter: TaskFilter plus pagination,
// which the service applies after visibility scoping.
type ListTasksFilter struct {
	TaskFilter
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
