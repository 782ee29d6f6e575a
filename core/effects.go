package core

import (
	"time"

	"github.com/google/uuid"
)

type NotificationEvent string

const (
	NotifyAssigned      NotificationEvent = "assigned"
	NotifyUnassigned    NotificationEvent = "unassigned"
	NotifyStatusChanged NotificationEvent = "status_changed"
	NotifyMentioned     NotificationEvent = "mentioned"
	NotifyMemberAdded   NotificationEvent = "member_added"
	NotifyDueSoon       NotificationEvent = "due_soon"
)

// NotificationIntent names who should hear about what. The core only builds
// these; delivery (and per-recipient opt-in gating) happens in the dispatch
// step and can fail without the mutation ever noticing.
type NotificationIntent struct {
	Event      NotificationEvent
	TaskID     int64
	ActorID    int64
	Recipients []int64
	Message    string
}

// Effects carries the side-effect intents of one mutation. The caller hands
// them to the dispatcher after the primary write has succeeded; nothing in
// here can abort or roll back that write.
type Effects struct {
	Activities    []ActivityEntry
	Notifications []NotificationIntent
}

func (e *Effects) addActivity(taskID, authorID int64, typ ActivityType, meta Metadata, at time.Time) {
	e.Activities = append(e.Activities, ActivityEntry{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Type:      typ,
		Metadata:  meta,
		Summary:   Summarize(typ, meta),
		CreatedAt: at,
	})
}

func (e *Effects) addNotification(event NotificationEvent, taskID, actorID int64, recipients []int64, message string) {
	recipients = withoutID(recipients, actorID)
	if len(recipients) == 0 {
		return
	}
	e.Notifications = append(e.Notifications, NotificationIntent{
		Event:      event,
		TaskID:     taskID,
		ActorID:    actorID,
		Recipients: recipients,
		Message:    message,
	})
}

func withoutID(ids []int64, drop int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == drop {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
