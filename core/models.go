package core

import "time"

type TaskStatus string

const (
	StatusUnassigned  TaskStatus = "unassigned"
	StatusOngoing     TaskStatus = "ongoing"
	StatusUnderReview TaskStatus = "under_review"
	StatusCompleted   TaskStatus = "completed"
)

type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurCustom  RecurrenceType = "custom"
)

// Access levels. Anything at LevelAdmin or above sees everything when
// enumerating collections.
const (
	LevelWorker   = 0
	LevelManager  = 1
	LevelDirector = 2
	LevelAdmin    = 3
)

// DateLayout is the wire and storage format for due dates. Due dates travel
// as strings: recurrence treats an unparseable stored date as "do not spawn"
// rather than failing the completion.
const DateLayout = "2006-01-02"

type User struct {
	ID           int64  `db:"id" json:"id"`
	DisplayName  string `db:"display_name" json:"display_name"`
	Email        string `db:"email" json:"email"`
	AccessLevel  int    `db:"access_level" json:"access_level"`
	TeamID       *int64 `db:"team_id" json:"team_id,omitempty"`
	DepartmentID *int64 `db:"department_id" json:"department_id,omitempty"`
}

type Task struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      TaskStatus `db:"status" json:"status"`
	Priority    int        `db:"priority" json:"priority"` // 1..10
	DueDate     string     `db:"due_date" json:"due_date"` // YYYY-MM-DD
	OwnerID     int64      `db:"owner_id" json:"owner_id"`
	AssigneeID  *int64     `db:"assignee_id" json:"assignee_id,omitempty"`
	MemberIDs   []int64    `db:"-" json:"members_id"` // owner is never in here
	ParentID    *int64     `db:"parent_task_id" json:"parent_task_id,omitempty"`
	ProjectID   *int64     `db:"project_id" json:"project_id,omitempty"`

	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedBy *int64     `db:"deleted_by" json:"deleted_by,omitempty"`

	IsRecurring        bool           `db:"is_recurring" json:"is_recurring"`
	RecurrenceType     RecurrenceType `db:"recurrence_type" json:"recurrence_type,omitempty"`
	RecurrenceInterval int            `db:"recurrence_interval" json:"recurrence_interval,omitempty"`
	RecurrenceEnd      string         `db:"recurrence_end" json:"recurrence_end_date,omitempty"` // YYYY-MM-DD, empty = open-ended
	ParentRecurringID  *int64         `db:"parent_recurring_task_id" json:"parent_recurring_task_id,omitempty"`
	NextDueDate        string         `db:"next_due_date" json:"next_due_date,omitempty"` // informational

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Assigned reports whether the task currently has an assignee.
func (t Task) Assigned() bool { return t.AssigneeID != nil }

type Project struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	MemberIDs   []int64   `db:"-" json:"members"` // always contains the owner
	TaskIDs     []int64   `db:"-" json:"tasks"`   // denormalized index, best-effort
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Comment struct {
	ID        int64     `db:"id" json:"id"`
	TaskID    int64     `db:"task_id" json:"task_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationPrefs is a per-user opt-in record consulted by the dispatch
// step, never by the core itself.
type NotificationPrefs struct {
	UserID int64 `db:"user_id" json:"user_id"`
	InApp  bool  `db:"in_app" json:"in_app"`
	Email  bool  `db:"email" json:"email"`
}

// Notification is a delivered in-app notification row.
type Notification struct {
	ID          int64     `db:"id" json:"id"`
	RecipientID int64     `db:"recipient_id" json:"recipient_id"`
	TaskID      int64     `db:"task_id" json:"task_id,omitempty"`
	Event       string    `db:"event" json:"event"`
	Message     string    `db:"message" json:"message"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func isValidStatus(st TaskStatus) bool {
	switch st {
	case StatusUnassigned, StatusOngoing, StatusUnderReview, StatusCompleted:
		return true
	default:
		return false
	}
}

func isValidRecurrence(rt RecurrenceType) bool {
	switch rt {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurCustom:
		return true
	default:
		return false
	}
}
