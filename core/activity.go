package core

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActivityType string

const (
	ActivityTaskCreated   ActivityType = "TASK_CREATED"
	ActivityTaskDeleted   ActivityType = "TASK_DELETED"
	ActivityTaskRestored  ActivityType = "TASK_RESTORED"
	ActivityStatusChanged ActivityType = "STATUS_CHANGED"
	ActivityFieldEdited   ActivityType = "FIELD_EDITED"
	ActivityReassigned    ActivityType = "REASSIGNED"
	ActivityCommentAdded  ActivityType = "COMMENT_ADDED"
)

// Metadata is a tagged union keyed by activity type; each variant carries
// only what its summary line needs.
type Metadata interface {
	isMetadata()
}

type CreatedMeta struct {
	RecurringInstance bool `json:"recurring_instance,omitempty"`
}

type StatusChange struct {
	From TaskStatus `json:"from_status"`
	To   TaskStatus `json:"to_status"`
}

type FieldEdit struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Reassignment keeps user ids machine-readable while the names, resolved at
// emit time, only feed the summary line.
type Reassignment struct {
	FromID   *int64 `json:"from_assignee"`
	ToID     *int64 `json:"to_assignee"`
	FromName string `json:"-"`
	ToName   string `json:"-"`
}

type CommentMeta struct {
	Preview string `json:"preview,omitempty"`
}

func (CreatedMeta) isMetadata()  {}
func (StatusChange) isMetadata() {}
func (FieldEdit) isMetadata()    {}
func (Reassignment) isMetadata() {}
func (CommentMeta) isMetadata()  {}

// ActivityEntry is an emit-side audit record; the store serializes Metadata.
type ActivityEntry struct {
	ID        string
	TaskID    int64
	AuthorID  int64
	Type      ActivityType
	Metadata  Metadata
	Summary   string
	CreatedAt time.Time
}

// ActivityRecord is the stored form returned by activity listings.
type ActivityRecord struct {
	ID        string          `db:"id" json:"id"`
	TaskID    int64           `db:"task_id" json:"task_id"`
	AuthorID  int64           `db:"author_id" json:"author_id"`
	Type      ActivityType    `db:"type" json:"type"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata"`
	Summary   string          `db:"summary" json:"summary"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// MarshalMetadata serializes an entry's metadata for storage; nil metadata
// becomes an empty object.
func MarshalMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Summarize renders the default human-readable line for an activity entry.
// Callers may override it with their own summary; this is the fallback.
func Summarize(t ActivityType, m Metadata) string {
	switch t {
	case ActivityStatusChanged:
		sc, ok := m.(StatusChange)
		if !ok {
			return fmt.Sprintf("Status changed: %s → %s", "unknown", "unknown")
		}
		return fmt.Sprintf("Status changed: %s → %s", orUnknown(string(sc.From)), orUnknown(string(sc.To)))
	case ActivityFieldEdited:
		fe, ok := m.(FieldEdit)
		if !ok {
			return "Edited field"
		}
		return fmt.Sprintf("Edited %s: %s → %s", fe.Field, orDash(fe.From), orDash(fe.To))
	case ActivityCommentAdded:
		cm, ok := m.(CommentMeta)
		if !ok || cm.Preview == "" {
			return "Comment added"
		}
		return fmt.Sprintf("Comment: %s", cm.Preview)
	case ActivityReassigned:
		ra, ok := m.(Reassignment)
		if !ok {
			return fmt.Sprintf("Reassigned: %s → %s", "Unassigned", "Unassigned")
		}
		return fmt.Sprintf("Reassigned: %s → %s", assigneeLabel(ra.FromID, ra.FromName), assigneeLabel(ra.ToID, ra.ToName))
	case ActivityTaskCreated:
		return "Task created"
	case ActivityTaskDeleted:
		return "Task deleted"
	case ActivityTaskRestored:
		return "Task restored"
	default:
		return "Activity"
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func assigneeLabel(id *int64, name string) string {
	if id == nil {
		return "Unassigned"
	}
	if name != "" {
		return name
	}
	return fmt.Sprintf("%d", *id)
}
