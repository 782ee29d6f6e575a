package core

import (
	"context"
	"time"
)

// DB is the persistence contract the engine runs against. Single-row writes
// are assumed to apply fully or not at all; nothing here spans rows
// transactionally, and the engine never relies on it doing so.
type DB interface {
	Ping(ctx context.Context) error

	// users
	GetUser(ctx context.Context, id int64) (User, error)
	GetUsers(ctx context.Context, ids []int64) ([]User, error)

	// tasks
	InsertTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error) // returns soft-deleted rows too
	UpdateTask(ctx context.Context, t Task) (Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]Task, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]Task, error)
	SoftDeleteTasks(ctx context.Context, ids []int64, deletedBy int64, deletedAt time.Time) error
	RestoreTask(ctx context.Context, id int64) (Task, error)

	// projects
	InsertProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	UpdateProject(ctx context.Context, p Project) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	// comments
	InsertComment(ctx context.Context, c Comment) (Comment, error)

	// activity log
	InsertActivities(ctx context.Context, entries []ActivityEntry) error
	ListActivity(ctx context.Context, taskID int64, limit, offset int) ([]ActivityRecord, error)

	// notifications
	GetNotificationPrefs(ctx context.Context, userID int64) (NotificationPrefs, error)
	InsertNotification(ctx context.Context, n Notification) error

	// reminder sweep: non-deleted, non-completed tasks due in [from, to]
	ListDueBetween(ctx context.Context, from, to string) ([]Task, error)
}
