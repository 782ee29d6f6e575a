package rest

type CreateTaskIn struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	OwnerID     int64   `json:"owner_id"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	MembersID   []int64 `json:"members_id,omitempty"`
	Priority    int     `json:"priority"`
	DueDate     string  `json:"due_date"`
	Status      *string `json:"status,omitempty"`
	ParentID    *int64  `json:"parent_task_id,omitempty"`
	ProjectID   *int64  `json:"project_id,omitempty"`

	IsRecurring        bool   `json:"is_recurring,omitempty"`
	RecurrenceType     string `json:"recurrence_type,omitempty"`
	RecurrenceInterval int    `json:"recurrence_interval,omitempty"`
	RecurrenceEnd      string `json:"recurrence_end_date,omitempty"`
}

type PatchTaskIn struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Priority      *int    `json:"priority,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	Status        *string `json:"status,omitempty"`        // unassigned|ongoing|under_review|completed
	AssigneeID    *int64  `json:"assignee_id,omitempty"`   // 0 removes the assignee
	OwnerID       *int64  `json:"owner_id,omitempty"`
	AddMembers    []int64 `json:"add_members,omitempty"`
	RemoveMembers []int64 `json:"remove_members,omitempty"`
}

type CreateProjectIn struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OwnerID     int64   `json:"owner_id"`
	Members     []int64 `json:"members,omitempty"`
}

type AddMemberIn struct {
	UserID int64 `json:"user_id"`
}

type CommentIn struct {
	Body string `json:"body"`
}
