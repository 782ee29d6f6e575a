package core_test

import (
	"context"
	"testing"

	"task-tracker/core"
)

func recurringIn(ownerID, assigneeID int64, due string, rt core.RecurrenceType, interval int) core.CreateTaskIn {
	in := baseTaskIn(ownerID)
	in.Title = "weekly report"
	in.DueDate = due
	in.AssigneeID = &assigneeID
	in.IsRecurring = true
	in.RecurrenceType = rt
	in.RecurrenceInterval = interval
	return in
}

func complete(t *testing.T, svc *core.Service, actorID, taskID int64) core.Effects {
	t.Helper()

	_, eff, err := svc.PatchTask(context.Background(), actorID, taskID, core.TaskPatch{
		Status: statusPtr(core.StatusCompleted),
	})
	if err != nil {
		t.Fatalf("completing task %d: %v", taskID, err)
	}
	return eff
}

// spawnedInstances returns tasks created by the recurrence engine, newest last.
func spawnedInstances(t *testing.T, db *fakeDB, exclude int64) []core.Task {
	t.Helper()

	rows, err := db.ListTasks(context.Background(), core.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	var out []core.Task
	for _, row := range rows {
		if row.ID != exclude && row.ParentRecurringID != nil {
			out = append(out, row)
		}
	}
	return out
}

func TestRecurrence_NextDueDates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		due      string
		rt       core.RecurrenceType
		interval int
		want     string
	}{
		{"daily", "2025-06-01", core.RecurDaily, 1, "2025-06-02"},
		{"daily stride", "2025-06-01", core.RecurDaily, 3, "2025-06-04"},
		{"weekly", "2025-06-01", core.RecurWeekly, 2, "2025-06-15"},
		{"monthly", "2025-03-15", core.RecurMonthly, 1, "2025-04-15"},
		{"monthly clamps", "2025-01-31", core.RecurMonthly, 1, "2025-02-28"},
		{"monthly clamps leap", "2024-01-31", core.RecurMonthly, 1, "2024-02-29"},
		{"custom", "2025-06-01", core.RecurCustom, 10, "2025-06-11"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, svc := newServiceWithFakeDB()
			owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
			worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

			task := mustCreateTask(t, svc, owner.ID, recurringIn(owner.ID, worker.ID, tc.due, tc.rt, tc.interval))
			complete(t, svc, owner.ID, task.ID)

			got := spawnedInstances(t, db, task.ID)
			if len(got) != 1 {
				t.Fatalf("expected one spawned instance, got %d", len(got))
			}
			inst := got[0]
			if inst.DueDate != tc.want {
				t.Fatalf("expected due %s, got %s", tc.want, inst.DueDate)
			}
			if inst.Status != core.StatusOngoing {
				t.Fatalf("expected ongoing instance, got %s", inst.Status)
			}
			if inst.AssigneeID == nil || *inst.AssigneeID != worker.ID {
				t.Fatalf("expected assignee carried over, got %v", inst.AssigneeID)
			}
			if inst.ParentRecurringID == nil || *inst.ParentRecurringID != task.ID {
				t.Fatalf("expected origin %d, got %v", task.ID, inst.ParentRecurringID)
			}
		})
	}
}

func TestRecurrence_InstanceCarriesNextDueDate(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	task := mustCreateTask(t, svc, owner.ID, recurringIn(owner.ID, worker.ID, "2025-06-01", core.RecurDaily, 1))
	eff := complete(t, svc, owner.ID, task.ID)

	inst := spawnedInstances(t, db, task.ID)[0]
	if inst.NextDueDate != "2025-06-03" {
		t.Fatalf("expected next_due_date 2025-06-03, got %q", inst.NextDueDate)
	}

	var sawRecurringCreated bool
	for _, e := range eff.Activities {
		if e.Type != core.ActivityTaskCreated {
			continue
		}
		meta, ok := e.Metadata.(core.CreatedMeta)
		if ok && meta.RecurringInstance {
			sawRecurringCreated = true
		}
	}
	if !sawRecurringCreated {
		t.Fatalf("expected a TASK_CREATED entry flagged as a recurring instance, got %v", eff.Activities)
	}
}

func TestRecurrence_OriginStaysOnChain(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	root := mustCreateTask(t, svc, owner.ID, recurringIn(owner.ID, worker.ID, "2025-06-01", core.RecurDaily, 1))
	complete(t, svc, owner.ID, root.ID)

	first := spawnedInstances(t, db, root.ID)[0]
	complete(t, svc, owner.ID, first.ID)

	all := spawnedInstances(t, db, root.ID)
	if len(all) != 2 {
		t.Fatalf("expected two spawned instances, got %d", len(all))
	}
	for _, inst := range all {
		if *inst.ParentRecurringID != root.ID {
			t.Fatalf("instance %d: expected origin %d, got %d", inst.ID, root.ID, *inst.ParentRecurringID)
		}
	}
}

func TestRecurrence_EndDateSuppresses(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	in := recurringIn(owner.ID, worker.ID, "2025-06-01", core.RecurDaily, 1)
	in.RecurrenceEnd = "2025-06-02" // next lands exactly on the boundary
	task := mustCreateTask(t, svc, owner.ID, in)

	complete(t, svc, owner.ID, task.ID)
	if got := spawnedInstances(t, db, task.ID); len(got) != 0 {
		t.Fatalf("expected no instance past the end date, got %v", got)
	}

	done, err := db.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask returned error: %v", err)
	}
	if done.Status != core.StatusCompleted {
		t.Fatalf("completion must stand, got %s", done.Status)
	}
}

func TestRecurrence_CustomZeroIntervalSuppresses(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	task := mustCreateTask(t, svc, owner.ID, recurringIn(owner.ID, worker.ID, "2025-06-01", core.RecurCustom, 0))

	complete(t, svc, owner.ID, task.ID)
	if got := spawnedInstances(t, db, task.ID); len(got) != 0 {
		t.Fatalf("custom recurrence without a stride must not spawn, got %v", got)
	}
}

func TestRecurrence_UnknownTypeSuppresses(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	// rows written before a type was retired can still carry it
	seeded, err := db.InsertTask(context.Background(), core.Task{
		Title:              "legacy",
		Status:             core.StatusOngoing,
		Priority:           5,
		DueDate:            "2025-06-01",
		OwnerID:            owner.ID,
		AssigneeID:         &worker.ID,
		IsRecurring:        true,
		RecurrenceType:     core.RecurrenceType("yearly"),
		RecurrenceInterval: 1,
	})
	if err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}

	complete(t, svc, owner.ID, seeded.ID)
	if got := spawnedInstances(t, db, seeded.ID); len(got) != 0 {
		t.Fatalf("unknown recurrence type must not spawn, got %v", got)
	}
}

func TestRecurrence_UnparseableDueDateSuppresses(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	seeded, err := db.InsertTask(context.Background(), core.Task{
		Title:              "corrupt date",
		Status:             core.StatusOngoing,
		Priority:           5,
		DueDate:            "next tuesday",
		OwnerID:            owner.ID,
		AssigneeID:         &worker.ID,
		IsRecurring:        true,
		RecurrenceType:     core.RecurDaily,
		RecurrenceInterval: 1,
	})
	if err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}

	complete(t, svc, owner.ID, seeded.ID)
	if got := spawnedInstances(t, db, seeded.ID); len(got) != 0 {
		t.Fatalf("unparseable due date must not spawn, got %v", got)
	}
}

func TestRecurrence_ClonesSubtasks(t *testing.T) {
	t.Parallel()

	db, svc := newServiceWithFakeDB()
	owner := mustUser(t, db, 1, "olga", core.LevelManager, nil, nil)
	worker := mustUser(t, db, 2, "umar", core.LevelWorker, nil, nil)

	root := mustCreateTask(t, svc, owner.ID, recurringIn(owner.ID, worker.ID, "2025-06-01", core.RecurDaily, 1))

	assigned := subtaskIn(owner.ID, root.ID)
	assigned.Title = "gather numbers"
	assigned.AssigneeID = &worker.ID
	mustCreateTask(t, svc, owner.ID, assigned)

	plain := subtaskIn(owner.ID, root.ID)
	plain.Title = "write summary"
	mustCreateTask(t, svc, owner.ID, plain)

	gone := mustCreateTask(t, svc, owner.ID, subtaskIn(owner.ID, root.ID))
	if _, err := svc.DeleteTask(context.Background(), owner.ID, gone.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}

	complete(t, svc, owner.ID, root.ID)

	inst := spawnedInstances(t, db, root.ID)[0]
	children, err := db.ChildrenOf(context.Background(), inst.ID)
	if err != nil {
		t.Fatalf("ChildrenOf returned error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected two cloned subtasks, got %d", len(children))
	}

	byTitle := map[string]core.Task{}
	for _, c := range children {
		byTitle[c.Title] = c
	}

	got, ok := byTitle["gather numbers"]
	if !ok || got.Status != core.StatusOngoing || got.AssigneeID == nil || *got.AssigneeID != worker.ID {
		t.Fatalf("assigned subtask cloned wrong: %+v", got)
	}
	plainGot, ok := byTitle["write summary"]
	if !ok || plainGot.Status != core.StatusUnassigned || plainGot.AssigneeID != nil {
		t.Fatalf("unassigned subtask cloned wrong: %+v", plainGot)
	}
	for _, c := range children {
		if c.DueDate != inst.DueDate {
			t.Fatalf("clone %q: expected due %s, got %s", c.Title, inst.DueDate, c.DueDate)
		}
	}
}
