package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Service struct {
	db DB
}

func NewService(db DB) *Service {
	return &Service{
		db: db,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Participants are everyone attached to a task: owner, assignee, members.
func Participants(t Task) []int64 {
	out := []int64{t.OwnerID}
	if t.AssigneeID != nil {
		out = append(out, *t.AssigneeID)
	}
	return append(out, t.MemberIDs...)
}

// Tasks

type CreateTaskIn struct {
	Title       string
	Description string
	OwnerID     int64
	AssigneeID  *int64
	MemberIDs   []int64
	Priority    int
	DueDate     string
	Status      *TaskStatus
	ParentID    *int64
	ProjectID   *int64

	IsRecurring        bool
	RecurrenceType     RecurrenceType
	RecurrenceInterval int
	RecurrenceEnd      string
}

// TaskPatch follows the zero-clears convention: AssigneeID pointing at 0
// removes the assignee.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *int
	DueDate       *string
	Status        *TaskStatus
	AssigneeID    *int64
	OwnerID       *int64
	AddMembers    []int64
	RemoveMembers []int64
}

func (p TaskPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && p.Status == nil && p.AssigneeID == nil &&
		p.OwnerID == nil && len(p.AddMembers) == 0 && len(p.RemoveMembers) == 0
}

func (s *Service) CreateTask(ctx context.Context, actorID int64, in CreateTaskIn) (Task, Effects, error) {
	var eff Effects

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.OwnerID <= 0 {
		return Task{}, eff, ErrInvalidArgs
	}
	if in.Priority < 1 || in.Priority > 10 {
		return Task{}, eff, ErrInvalidArgs
	}
	if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
		return Task{}, eff, ErrInvalidArgs
	}
	if in.Status != nil && !isValidStatus(*in.Status) {
		return Task{}, eff, ErrInvalidArgs
	}
	if in.IsRecurring {
		if !isValidRecurrence(in.RecurrenceType) {
			return Task{}, eff, ErrInvalidArgs
		}
		if in.RecurrenceInterval < 1 && in.RecurrenceType != RecurCustom {
			return Task{}, eff, ErrInvalidArgs
		}
		if in.RecurrenceInterval < 0 {
			return Task{}, eff, ErrInvalidArgs
		}
		if in.RecurrenceEnd != "" {
			if _, err := time.Parse(DateLayout, in.RecurrenceEnd); err != nil {
				return Task{}, eff, ErrInvalidArgs
			}
		}
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Task{}, eff, err
	}
	owner, err := s.db.GetUser(ctx, in.OwnerID)
	if err != nil {
		return Task{}, eff, err
	}
	if !CanCreateFor(actor, owner) {
		return Task{}, eff, ErrForbidden
	}

	var assignee *User
	if in.AssigneeID != nil {
		if *in.AssigneeID <= 0 {
			return Task{}, eff, ErrInvalidArgs
		}
		u, err := s.db.GetUser(ctx, *in.AssigneeID)
		if err != nil {
			return Task{}, eff, err
		}
		if !CanAssign(actor, u) {
			return Task{}, eff, ErrForbidden
		}
		assignee = &u
	}

	members := dedupeIDs(in.MemberIDs, in.OwnerID)
	if len(members) > 0 {
		found, err := s.db.GetUsers(ctx, members)
		if err != nil {
			return Task{}, eff, err
		}
		if len(found) != len(members) {
			return Task{}, eff, ErrNotFound
		}
	}

	if in.ParentID != nil {
		parent, err := s.db.GetTask(ctx, *in.ParentID)
		if err != nil {
			return Task{}, eff, err
		}
		if parent.IsDeleted {
			return Task{}, eff, ErrNotFound
		}
	}
	if in.ProjectID != nil {
		if _, err := s.db.GetProject(ctx, *in.ProjectID); err != nil {
			return Task{}, eff, err
		}
	}

	status := StatusUnassigned
	if assignee != nil {
		status = StatusOngoing
		if in.Status != nil {
			if *in.Status == StatusUnassigned {
				return Task{}, eff, ErrConflict
			}
			status = *in.Status
		}
	} else if in.Status != nil && *in.Status != StatusUnassigned {
		return Task{}, eff, ErrConflict
	}

	t := Task{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		OwnerID:     owner.ID,
		MemberIDs:   members,
		ParentID:    in.ParentID,
		ProjectID:   in.ProjectID,

		IsRecurring:        in.IsRecurring,
		RecurrenceType:     in.RecurrenceType,
		RecurrenceInterval: in.RecurrenceInterval,
		RecurrenceEnd:      in.RecurrenceEnd,
	}
	if assignee != nil {
		t.AssigneeID = &assignee.ID
	}

	created, err := s.db.InsertTask(ctx, t)
	if err != nil {
		return Task{}, eff, err
	}

	if created.ProjectID != nil {
		s.appendProjectTask(ctx, *created.ProjectID, created.ID)
	}

	now := time.Now().UTC()
	eff.addActivity(created.ID, actorID, ActivityTaskCreated, CreatedMeta{}, now)
	if assignee != nil {
		eff.addActivity(created.ID, actorID, ActivityReassigned, Reassignment{
			ToID:   &assignee.ID,
			ToName: assignee.DisplayName,
		}, now)
		eff.addNotification(NotifyAssigned, created.ID, actorID, []int64{assignee.ID},
			fmt.Sprintf("You were assigned to %q", created.Title))
	}

	return created, eff, nil
}

func (s *Service) GetTask(ctx context.Context, actorID, id int64) (Task, error) {
	if id <= 0 {
		return Task{}, ErrInvalidArgs
	}
	t, err := s.db.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.IsDeleted {
		return Task{}, ErrNotFound
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Task{}, err
	}
	owner, err := s.db.GetUser(ctx, t.OwnerID)
	if err != nil {
		return Task{}, err
	}
	if !CanView(actor, owner, t.MemberIDs) {
		return Task{}, ErrForbidden
	}
	return t, nil
}

func (s *Service) ListTasks(ctx context.Context, actorID int64, f ListTasksFilter) ([]Task, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, ErrInvalidArgs
	}
	if f.Status != nil && !isValidStatus(*f.Status) {
		return nil, ErrInvalidArgs
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.ListTasks(ctx, f.TaskFilter)
	if err != nil {
		return nil, err
	}

	owners, err := s.ownersOf(ctx, rows)
	if err != nil {
		return nil, err
	}

	visible := make([]Task, 0, len(rows))
	for _, t := range rows {
		owner, ok := owners[t.OwnerID]
		if !ok {
			continue
		}
		if InListingScope(actor, owner) {
			visible = append(visible, t)
		}
	}

	return paginate(visible, f.Limit, f.Offset), nil
}

// ListDeletedTasks enumerates soft-deleted tasks within the actor's scope,
// the surface a restore starts from.
func (s *Service) ListDeletedTasks(ctx context.Context, actorID int64, limit, offset int) ([]Task, error) {
	return s.ListTasks(ctx, actorID, ListTasksFilter{
		TaskFilter: TaskFilter{Deleted: true},
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *Service) PatchTask(ctx context.Context, actorID, id int64, p TaskPatch) (Task, Effects, error) {
	var eff Effects

	if id <= 0 || p.empty() {
		return Task{}, eff, ErrInvalidArgs
	}

	cur, err := s.db.GetTask(ctx, id)
	if err != nil {
		return Task{}, eff, err
	}
	if cur.IsDeleted {
		return Task{}, eff, ErrNotFound
	}
	old := cur
	old.MemberIDs = append([]int64(nil), cur.MemberIDs...)

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Task{}, eff, err
	}
	owner, err := s.db.GetUser(ctx, cur.OwnerID)
	if err != nil {
		return Task{}, eff, err
	}
	if !CanEditFields(actor, owner, cur.MemberIDs) {
		return Task{}, eff, ErrForbidden
	}

	// priority first: strict ownership beats every other grant
	if p.Priority != nil {
		if !CanEditPriority(actor, cur.OwnerID) {
			return Task{}, eff, ErrForbidden
		}
		if *p.Priority < 1 || *p.Priority > 10 {
			return Task{}, eff, ErrInvalidArgs
		}
		cur.Priority = *p.Priority
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Task{}, eff, ErrInvalidArgs
		}
		cur.Title = title
	}
	if p.Description != nil {
		cur.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueDate != nil {
		if _, err := time.Parse(DateLayout, *p.DueDate); err != nil {
			return Task{}, eff, ErrInvalidArgs
		}
		cur.DueDate = *p.DueDate
	}

	// owner reassignment: actor must be the new owner or outrank them
	var newOwner *User
	if p.OwnerID != nil {
		if *p.OwnerID <= 0 {
			return Task{}, eff, ErrInvalidArgs
		}
		if *p.OwnerID != cur.OwnerID {
			u, err := s.db.GetUser(ctx, *p.OwnerID)
			if err != nil {
				return Task{}, eff, err
			}
			if !CanCreateFor(actor, u) {
				return Task{}, eff, ErrForbidden
			}
			newOwner = &u
			cur.OwnerID = u.ID
			cur.MemberIDs = removeID(cur.MemberIDs, u.ID)
		}
	}

	if len(p.AddMembers) > 0 {
		add := dedupeIDs(p.AddMembers, cur.OwnerID)
		found, err := s.db.GetUsers(ctx, add)
		if err != nil {
			return Task{}, eff, err
		}
		if len(found) != len(add) {
			return Task{}, eff, ErrNotFound
		}
		for _, m := range add {
			if !containsID(cur.MemberIDs, m) {
				cur.MemberIDs = append(cur.MemberIDs, m)
			}
		}
	}
	for _, m := range p.RemoveMembers {
		cur.MemberIDs = removeID(cur.MemberIDs, m)
	}

	if p.Status != nil && !isValidStatus(*p.Status) {
		return Task{}, eff, ErrInvalidArgs
	}

	explicitStatus := p.Status
	var newAssignee *User
	if p.AssigneeID != nil {
		switch {
		case *p.AssigneeID < 0:
			return Task{}, eff, ErrInvalidArgs
		case *p.AssigneeID == 0:
			// removing the assignee force-resets status; pairing the
			// removal with any other status is contradictory
			if explicitStatus != nil && *explicitStatus != StatusUnassigned {
				return Task{}, eff, ErrConflict
			}
			cur.AssigneeID = nil
			cur.Status = StatusUnassigned
			explicitStatus = nil
		default:
			if explicitStatus != nil && *explicitStatus == StatusUnassigned {
				return Task{}, eff, ErrConflict
			}
			u, err := s.db.GetUser(ctx, *p.AssigneeID)
			if err != nil {
				return Task{}, eff, err
			}
			if !CanAssign(actor, u) {
				return Task{}, eff, ErrForbidden
			}
			newAssignee = &u
			wasUnassigned := cur.AssigneeID == nil
			cur.AssigneeID = &u.ID
			if wasUnassigned {
				// auto-promote unless the caller picked a status themselves
				cur.Status = StatusOngoing
				if explicitStatus != nil {
					cur.Status = *explicitStatus
				}
				explicitStatus = nil
			}
		}
	}
	if explicitStatus != nil {
		if *explicitStatus == StatusUnassigned {
			if cur.AssigneeID != nil {
				return Task{}, eff, ErrConflict
			}
		} else if cur.AssigneeID == nil {
			return Task{}, eff, ErrConflict
		}
		cur.Status = *explicitStatus
	}

	now := time.Now().UTC()
	cur.UpdatedAt = now

	updated, err := s.db.UpdateTask(ctx, cur)
	if err != nil {
		return Task{}, eff, err
	}

	s.recordTaskDiff(ctx, actorID, old, updated, newOwner, newAssignee, now, &eff)

	if len(p.AddMembers) > 0 {
		added := diffAdded(old.MemberIDs, updated.MemberIDs)
		eff.addNotification(NotifyMemberAdded, updated.ID, actorID, added,
			fmt.Sprintf("You were added to %q", updated.Title))
	}

	if updated.Status == StatusCompleted && old.Status != StatusCompleted && updated.IsRecurring {
		if err := s.spawnRecurring(ctx, updated, actorID, now, &eff); err != nil {
			// the completion itself already stands; no rollback
			return updated, eff, err
		}
	}

	return updated, eff, nil
}

// recordTaskDiff emits one activity entry per changed field plus the
// specialized status/assignee entries and their notification intents.
func (s *Service) recordTaskDiff(ctx context.Context, actorID int64, old, now Task, newOwner, newAssignee *User, at time.Time, eff *Effects) {
	if old.Title != now.Title {
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{Field: "title", From: old.Title, To: now.Title}, at)
	}
	if old.Description != now.Description {
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{Field: "description", From: old.Description, To: now.Description}, at)
	}
	if old.DueDate != now.DueDate {
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{Field: "due_date", From: old.DueDate, To: now.DueDate}, at)
	}
	if old.Priority != now.Priority {
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{
			Field: "priority",
			From:  strconv.Itoa(old.Priority),
			To:    strconv.Itoa(now.Priority),
		}, at)
	}
	if old.OwnerID != now.OwnerID {
		toName := strconv.FormatInt(now.OwnerID, 10)
		if newOwner != nil {
			toName = newOwner.DisplayName
		}
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{
			Field: "owner",
			From:  strconv.FormatInt(old.OwnerID, 10),
			To:    toName,
		}, at)
	}
	if !equalIDs(old.MemberIDs, now.MemberIDs) {
		eff.addActivity(now.ID, actorID, ActivityFieldEdited, FieldEdit{
			Field: "members",
			From:  joinIDs(old.MemberIDs),
			To:    joinIDs(now.MemberIDs),
		}, at)
	}

	if !sameAssignee(old.AssigneeID, now.AssigneeID) {
		ra := Reassignment{FromID: cloneID(old.AssigneeID), ToID: cloneID(now.AssigneeID)}
		if old.AssigneeID != nil {
			if u, err := s.db.GetUser(ctx, *old.AssigneeID); err == nil {
				ra.FromName = u.DisplayName
			}
		}
		if newAssignee != nil {
			ra.ToName = newAssignee.DisplayName
		}
		eff.addActivity(now.ID, actorID, ActivityReassigned, ra, at)

		if now.AssigneeID != nil {
			eff.addNotification(NotifyAssigned, now.ID, actorID, []int64{*now.AssigneeID},
				fmt.Sprintf("You were assigned to %q", now.Title))
		}
		if old.AssigneeID != nil {
			eff.addNotification(NotifyUnassigned, now.ID, actorID, []int64{*old.AssigneeID},
				fmt.Sprintf("You were unassigned from %q", now.Title))
		}
	}

	if old.Status != now.Status {
		eff.addActivity(now.ID, actorID, ActivityStatusChanged, StatusChange{From: old.Status, To: now.Status}, at)
		eff.addNotification(NotifyStatusChanged, now.ID, actorID, Participants(now),
			fmt.Sprintf("%q moved to %s", now.Title, now.Status))
	}
}

// DeleteTask soft-deletes a task and every descendant as one batch with a
// shared timestamp. Owner only; outranking does not help here.
func (s *Service) DeleteTask(ctx context.Context, actorID, id int64) (Effects, error) {
	var eff Effects

	if id <= 0 {
		return eff, ErrInvalidArgs
	}
	t, err := s.db.GetTask(ctx, id)
	if err != nil {
		return eff, err
	}
	if t.IsDeleted {
		return eff, ErrConflict
	}
	if actorID != t.OwnerID {
		return eff, ErrForbidden
	}

	ids, err := s.descendantIDs(ctx, t)
	if err != nil {
		return eff, err
	}

	now := time.Now().UTC()
	if err := s.db.SoftDeleteTasks(ctx, ids, actorID, now); err != nil {
		return eff, err
	}

	for _, taskID := range ids {
		eff.addActivity(taskID, actorID, ActivityTaskDeleted, nil, now)
	}
	return eff, nil
}

// descendantIDs walks parent_task_id edges breadth-first. The visited set
// keeps a corrupt cycle from hanging the walk.
func (s *Service) descendantIDs(ctx context.Context, root Task) ([]int64, error) {
	visited := map[int64]struct{}{root.ID: {}}
	order := []int64{root.ID}

	queue := []int64{root.ID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children, err := s.db.ChildrenOf(ctx, parent)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, ok := visited[child.ID]; ok {
				continue
			}
			visited[child.ID] = struct{}{}
			queue = append(queue, child.ID)
			if child.IsDeleted {
				// stays out of the batch so its original deletion stamp
				// survives, but its subtree still gets walked
				continue
			}
			order = append(order, child.ID)
		}
	}
	return order, nil
}

// RestoreTask flips is_deleted back on the single target task. Descendants
// deleted by the cascade stay deleted; the asymmetry is intentional.
func (s *Service) RestoreTask(ctx context.Context, actorID, id int64) (Task, Effects, error) {
	var eff Effects

	if id <= 0 {
		return Task{}, eff, ErrInvalidArgs
	}
	t, err := s.db.GetTask(ctx, id)
	if err != nil {
		return Task{}, eff, err
	}
	if !t.IsDeleted {
		return Task{}, eff, ErrConflict
	}
	if actorID != t.OwnerID && (t.DeletedBy == nil || *t.DeletedBy != actorID) {
		return Task{}, eff, ErrForbidden
	}

	restored, err := s.db.RestoreTask(ctx, id)
	if err != nil {
		return Task{}, eff, err
	}

	eff.addActivity(restored.ID, actorID, ActivityTaskRestored, nil, time.Now().UTC())
	return restored, eff, nil
}

// Comments

func (s *Service) AddComment(ctx context.Context, actorID, taskID int64, body string) (Comment, Effects, error) {
	var eff Effects

	body = strings.TrimSpace(body)
	if taskID <= 0 || body == "" {
		return Comment{}, eff, ErrInvalidArgs
	}

	t, err := s.GetTask(ctx, actorID, taskID)
	if err != nil {
		return Comment{}, eff, err
	}

	c, err := s.db.InsertComment(ctx, Comment{TaskID: t.ID, AuthorID: actorID, Body: body})
	if err != nil {
		return Comment{}, eff, err
	}

	now := time.Now().UTC()
	eff.addActivity(t.ID, actorID, ActivityCommentAdded, CommentMeta{Preview: preview(body, 80)}, now)

	if mentioned := parseMentions(body); len(mentioned) > 0 {
		found, err := s.db.GetUsers(ctx, mentioned)
		if err == nil && len(found) > 0 {
			ids := make([]int64, 0, len(found))
			for _, u := range found {
				ids = append(ids, u.ID)
			}
			eff.addNotification(NotifyMentioned, t.ID, actorID, ids,
				fmt.Sprintf("You were mentioned on %q", t.Title))
		}
	}

	return c, eff, nil
}

// parseMentions pulls @<user-id> tokens out of a comment body.
func parseMentions(body string) []int64 {
	var out []int64
	for _, tok := range strings.Fields(body) {
		if !strings.HasPrefix(tok, "@") {
			continue
		}
		digits := strings.TrimFunc(tok[1:], func(r rune) bool { return r < '0' || r > '9' })
		if digits == "" {
			continue
		}
		id, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Activity feed

func (s *Service) ListActivity(ctx context.Context, actorID, taskID int64, limit, offset int) ([]ActivityRecord, error) {
	if taskID <= 0 || limit < 0 || offset < 0 {
		return nil, ErrInvalidArgs
	}
	if _, err := s.GetTask(ctx, actorID, taskID); err != nil {
		return nil, err
	}
	return s.db.ListActivity(ctx, taskID, limit, offset)
}

// Projects

type CreateProjectIn struct {
	Name        string
	Description string
	OwnerID     int64
	MemberIDs   []int64
}

func (s *Service) CreateProject(ctx context.Context, actorID int64, in CreateProjectIn) (Project, Effects, error) {
	var eff Effects

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.OwnerID <= 0 {
		return Project{}, eff, ErrInvalidArgs
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Project{}, eff, err
	}
	owner, err := s.db.GetUser(ctx, in.OwnerID)
	if err != nil {
		return Project{}, eff, err
	}
	if !CanCreateFor(actor, owner) {
		return Project{}, eff, ErrForbidden
	}

	// the owner is always a member
	members := dedupeIDs(append([]int64{in.OwnerID}, in.MemberIDs...), 0)
	extra := removeID(append([]int64(nil), members...), in.OwnerID)
	if len(extra) > 0 {
		found, err := s.db.GetUsers(ctx, extra)
		if err != nil {
			return Project{}, eff, err
		}
		if len(found) != len(extra) {
			return Project{}, eff, ErrNotFound
		}
	}

	p, err := s.db.InsertProject(ctx, Project{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     in.OwnerID,
		MemberIDs:   members,
	})
	if err != nil {
		return Project{}, eff, err
	}

	added := removeID(append([]int64(nil), members...), in.OwnerID)
	eff.addNotification(NotifyMemberAdded, 0, actorID, added,
		fmt.Sprintf("You were added to project %q", p.Name))

	return p, eff, nil
}

func (s *Service) GetProject(ctx context.Context, actorID, id int64) (Project, error) {
	if id <= 0 {
		return Project{}, ErrInvalidArgs
	}
	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Project{}, err
	}
	owner, err := s.db.GetUser(ctx, p.OwnerID)
	if err != nil {
		return Project{}, err
	}
	if !CanView(actor, owner, p.MemberIDs) {
		return Project{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context, actorID int64) ([]Project, error) {
	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]int64, 0, len(rows))
	for _, p := range rows {
		if !containsID(ownerIDs, p.OwnerID) {
			ownerIDs = append(ownerIDs, p.OwnerID)
		}
	}
	owners := make(map[int64]User, len(ownerIDs))
	if len(ownerIDs) > 0 {
		found, err := s.db.GetUsers(ctx, ownerIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			owners[u.ID] = u
		}
	}

	out := make([]Project, 0, len(rows))
	for _, p := range rows {
		owner, ok := owners[p.OwnerID]
		if !ok {
			continue
		}
		if InListingScope(actor, owner) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) AddProjectMember(ctx context.Context, actorID, projectID, userID int64) (Project, Effects, error) {
	var eff Effects

	if projectID <= 0 || userID <= 0 {
		return Project{}, eff, ErrInvalidArgs
	}
	p, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return Project{}, eff, err
	}

	actor, err := s.db.GetUser(ctx, actorID)
	if err != nil {
		return Project{}, eff, err
	}
	owner, err := s.db.GetUser(ctx, p.OwnerID)
	if err != nil {
		return Project{}, eff, err
	}
	if actor.ID != p.OwnerID && !Outranks(actor, owner) {
		return Project{}, eff, ErrForbidden
	}

	if containsID(p.MemberIDs, userID) {
		return Project{}, eff, ErrConflict
	}
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return Project{}, eff, err
	}

	p.MemberIDs = append(p.MemberIDs, userID)
	updated, err := s.db.UpdateProject(ctx, p)
	if err != nil {
		return Project{}, eff, err
	}

	eff.addNotification(NotifyMemberAdded, 0, actorID, []int64{userID},
		fmt.Sprintf("You were added to project %q", updated.Name))

	return updated, eff, nil
}

// appendProjectTask maintains the project's denormalized task index. It is
// best-effort: a failure here never fails the task write that preceded it.
func (s *Service) appendProjectTask(ctx context.Context, projectID, taskID int64) {
	p, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return
	}
	if containsID(p.TaskIDs, taskID) {
		return
	}
	p.TaskIDs = append(p.TaskIDs, taskID)
	_, _ = s.db.UpdateProject(ctx, p)
}

// helpers

func (s *Service) ownersOf(ctx context.Context, tasks []Task) (map[int64]User, error) {
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		if !containsID(ids, t.OwnerID) {
			ids = append(ids, t.OwnerID)
		}
	}
	out := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.db.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func paginate(tasks []Task, limit, offset int) []Task {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset >= len(tasks) {
		return []Task{}
	}
	tasks = tasks[offset:]
	if limit < len(tasks) {
		tasks = tasks[:limit]
	}
	return tasks
}

// dedupeIDs drops duplicates, non-positive ids, and the excluded id.
func dedupeIDs(ids []int64, exclude int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || id == exclude || containsID(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func removeID(ids []int64, drop int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func diffAdded(before, after []int64) []int64 {
	var out []int64
	for _, id := range after {
		if !containsID(before, id) {
			out = append(out, id)
		}
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
