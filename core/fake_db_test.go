package core_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"task-tracker/core"
)

type fakeDB struct {
	mu sync.RWMutex

	nextTaskID    int64
	nextProjectID int64
	nextCommentID int64

	users    map[int64]core.User
	tasks    map[int64]core.Task
	projects map[int64]core.Project
	comments map[int64]core.Comment
	prefs    map[int64]core.NotificationPrefs

	activities    []core.ActivityEntry
	notifications []core.Notification
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		nextTaskID:    1,
		nextProjectID: 1,
		nextCommentID: 1,
		users:         make(map[int64]core.User),
		tasks:         make(map[int64]core.Task),
		projects:      make(map[int64]core.Project),
		comments:      make(map[int64]core.Comment),
		prefs:         make(map[int64]core.NotificationPrefs),
	}
}

func cloneTask(t core.Task) core.Task {
	out := t
	out.AssigneeID = cloneInt64(t.AssigneeID)
	out.ParentID = cloneInt64(t.ParentID)
	out.ProjectID = cloneInt64(t.ProjectID)
	out.DeletedBy = cloneInt64(t.DeletedBy)
	out.ParentRecurringID = cloneInt64(t.ParentRecurringID)
	out.MemberIDs = append([]int64(nil), t.MemberIDs...)
	if t.DeletedAt != nil {
		at := *t.DeletedAt
		out.DeletedAt = &at
	}
	return out
}

func cloneProject(p core.Project) core.Project {
	out := p
	out.MemberIDs = append([]int64(nil), p.MemberIDs...)
	out.TaskIDs = append([]int64(nil), p.TaskIDs...)
	return out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func (db *fakeDB) addUser(u core.User) core.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
	return u
}

func (db *fakeDB) Ping(context.Context) error {
	return nil
}

func (db *fakeDB) GetUser(_ context.Context, id int64) (core.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (db *fakeDB) GetUsers(_ context.Context, ids []int64) ([]core.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]core.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := db.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (db *fakeDB) InsertTask(_ context.Context, t core.Task) (core.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return core.Task{}, core.ErrInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	t.ID = db.nextTaskID
	db.nextTaskID++

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (db *fakeDB) GetTask(_ context.Context, id int64) (core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tasks[id]
	if !ok {
		return core.Task{}, core.ErrNotFound
	}
	return cloneTask(t), nil
}

func (db *fakeDB) UpdateTask(_ context.Context, t core.Task) (core.Task, error) {
	if t.ID <= 0 || strings.TrimSpace(t.Title) == "" {
		return core.Task{}, core.ErrInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	current, ok := db.tasks[t.ID]
	if !ok {
		return core.Task{}, core.ErrNotFound
	}

	// mirror the SQL update: delete markers and recurrence settings stay
	t.CreatedAt = current.CreatedAt
	t.IsDeleted = current.IsDeleted
	t.DeletedAt = current.DeletedAt
	t.DeletedBy = current.DeletedBy
	t.IsRecurring = current.IsRecurring
	t.RecurrenceType = current.RecurrenceType
	t.RecurrenceInterval = current.RecurrenceInterval
	t.RecurrenceEnd = current.RecurrenceEnd
	t.ParentRecurringID = current.ParentRecurringID
	t.UpdatedAt = time.Now()

	db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (db *fakeDB) ListTasks(_ context.Context, f core.TaskFilter) ([]core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]core.Task, 0, len(db.tasks))
	for _, t := range db.tasks {
		if t.IsDeleted != f.Deleted {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.ProjectID != nil {
			if t.ProjectID == nil || *t.ProjectID != *f.ProjectID {
				continue
			}
		}
		out = append(out, cloneTask(t))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *fakeDB) ChildrenOf(_ context.Context, parentID int64) ([]core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []core.Task
	for _, t := range db.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *fakeDB) SoftDeleteTasks(_ context.Context, ids []int64, deletedBy int64, deletedAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range ids {
		t, ok := db.tasks[id]
		if !ok {
			continue
		}
		t.IsDeleted = true
		at := deletedAt
		by := deletedBy
		t.DeletedAt = &at
		t.DeletedBy = &by
		db.tasks[id] = t
	}
	return nil
}

func (db *fakeDB) RestoreTask(_ context.Context, id int64) (core.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tasks[id]
	if !ok {
		return core.Task{}, core.ErrNotFound
	}
	t.IsDeleted = false
	t.DeletedAt = nil
	t.DeletedBy = nil
	db.tasks[id] = t
	return cloneTask(t), nil
}

func (db *fakeDB) ListDueBetween(_ context.Context, from, to string) ([]core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []core.Task
	for _, t := range db.tasks {
		if t.IsDeleted || t.Status == core.StatusCompleted {
			continue
		}
		if t.DueDate >= from && t.DueDate <= to {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *fakeDB) InsertProject(_ context.Context, p core.Project) (core.Project, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p.ID = db.nextProjectID
	db.nextProjectID++
	p.CreatedAt = time.Now()

	db.projects[p.ID] = cloneProject(p)
	return cloneProject(p), nil
}

func (db *fakeDB) GetProject(_ context.Context, id int64) (core.Project, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, ok := db.projects[id]
	if !ok {
		return core.Project{}, core.ErrNotFound
	}
	return cloneProject(p), nil
}

func (db *fakeDB) UpdateProject(_ context.Context, p core.Project) (core.Project, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	current, ok := db.projects[p.ID]
	if !ok {
		return core.Project{}, core.ErrNotFound
	}
	p.CreatedAt = current.CreatedAt
	db.projects[p.ID] = cloneProject(p)
	return cloneProject(p), nil
}

func (db *fakeDB) ListProjects(context.Context) ([]core.Project, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]core.Project, 0, len(db.projects))
	for _, p := range db.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *fakeDB) InsertComment(_ context.Context, c core.Comment) (core.Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.tasks[c.TaskID]; !ok {
		return core.Comment{}, core.ErrNotFound
	}

	c.ID = db.nextCommentID
	db.nextCommentID++
	c.CreatedAt = time.Now()

	db.comments[c.ID] = c
	return c, nil
}

func (db *fakeDB) InsertActivities(_ context.Context, entries []core.ActivityEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.activities = append(db.activities, entries...)
	return nil
}

func (db *fakeDB) ListActivity(_ context.Context, taskID int64, limit, offset int) ([]core.ActivityRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	var out []core.ActivityRecord
	for _, e := range db.activities {
		if e.TaskID != taskID {
			continue
		}
		meta, err := core.MarshalMetadata(e.Metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, core.ActivityRecord{
			ID:        e.ID,
			TaskID:    e.TaskID,
			AuthorID:  e.AuthorID,
			Type:      e.Type,
			Metadata:  meta,
			Summary:   e.Summary,
			CreatedAt: e.CreatedAt,
		})
	}

	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (db *fakeDB) GetNotificationPrefs(_ context.Context, userID int64) (core.NotificationPrefs, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, ok := db.prefs[userID]
	if !ok {
		return core.NotificationPrefs{}, core.ErrNotFound
	}
	return p, nil
}

func (db *fakeDB) InsertNotification(_ context.Context, n core.Notification) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.notifications = append(db.notifications, n)
	return nil
}
