package core

import (
	"context"
	"time"
)

// nextDueDate computes the due date of the next instance after one
// recurrence step from the given date. ok=false means the recurrence
// settings cannot produce a step (unsupported type, custom with a
// non-positive interval).
func nextDueDate(due time.Time, rt RecurrenceType, interval int) (time.Time, bool) {
	switch rt {
	case RecurDaily:
		return due.AddDate(0, 0, interval), true
	case RecurWeekly:
		return due.AddDate(0, 0, interval*7), true
	case RecurMonthly:
		return addMonthsClamped(due, interval), true
	case RecurCustom:
		if interval < 1 {
			return time.Time{}, false
		}
		return due.AddDate(0, 0, interval), true
	default:
		// "yearly" and friends are not implemented
		return time.Time{}, false
	}
}

// addMonthsClamped adds months while clamping the day-of-month to the last
// valid day of the target month, so Jan 31 + 1 month lands on Feb 28/29
// instead of rolling over into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// planNextInstance decides whether completing the given recurring task
// spawns a new instance and, if so, builds the unsaved row. A nil result
// with nil error means the spawn is suppressed.
func planNextInstance(src Task) *Task {
	due, err := time.Parse(DateLayout, src.DueDate)
	if err != nil {
		return nil
	}

	next, ok := nextDueDate(due, src.RecurrenceType, src.RecurrenceInterval)
	if !ok {
		return nil
	}

	if src.RecurrenceEnd != "" {
		if end, err := time.Parse(DateLayout, src.RecurrenceEnd); err == nil && !next.Before(end) {
			return nil
		}
	}

	origin := src.ID
	if src.ParentRecurringID != nil {
		origin = *src.ParentRecurringID
	}

	inst := Task{
		Title:       src.Title,
		Description: src.Description,
		// the original needed an assignee to reach completed
		Status:             StatusOngoing,
		Priority:           src.Priority,
		DueDate:            next.Format(DateLayout),
		OwnerID:            src.OwnerID,
		AssigneeID:         cloneID(src.AssigneeID),
		MemberIDs:          append([]int64(nil), src.MemberIDs...),
		ProjectID:          cloneID(src.ProjectID),
		IsRecurring:        true,
		RecurrenceType:     src.RecurrenceType,
		RecurrenceInterval: src.RecurrenceInterval,
		RecurrenceEnd:      src.RecurrenceEnd,
		ParentRecurringID:  &origin,
	}

	if after, ok := nextDueDate(next, src.RecurrenceType, src.RecurrenceInterval); ok {
		inst.NextDueDate = after.Format(DateLayout)
	}

	return &inst
}

// spawnRecurring inserts the next instance of a just-completed recurring
// task and clones its direct, non-deleted subtasks under it. Earlier writes
// stand even when a later one fails; there is no cross-row transaction to
// roll back.
func (s *Service) spawnRecurring(ctx context.Context, completed Task, actorID int64, now time.Time, eff *Effects) error {
	plan := planNextInstance(completed)
	if plan == nil {
		return nil
	}

	inst, err := s.db.InsertTask(ctx, *plan)
	if err != nil {
		return err
	}

	children, err := s.db.ChildrenOf(ctx, completed.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.IsDeleted {
			continue
		}
		clone := Task{
			Title:       child.Title,
			Description: child.Description,
			Status:      StatusUnassigned,
			Priority:    child.Priority,
			DueDate:     plan.DueDate,
			OwnerID:     child.OwnerID,
			AssigneeID:  cloneID(child.AssigneeID),
			MemberIDs:   append([]int64(nil), child.MemberIDs...),
			ParentID:    &inst.ID,
			ProjectID:   cloneID(child.ProjectID),
		}
		if clone.AssigneeID != nil {
			clone.Status = StatusOngoing
		}
		if _, err := s.db.InsertTask(ctx, clone); err != nil {
			return err
		}
	}

	if inst.ProjectID != nil {
		s.appendProjectTask(ctx, *inst.ProjectID, inst.ID)
	}

	eff.addActivity(inst.ID, actorID, ActivityTaskCreated, CreatedMeta{RecurringInstance: true}, now)
	return nil
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
