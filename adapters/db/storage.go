package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"task-tracker/core"
)

type DB struct {
	log  *slog.Logger
	conn *sqlx.DB
}

func New(log *slog.Logger, address string) (*DB, error) {
	conn, err := sqlx.Connect("pgx", address)
	if err != nil {
		log.Error("connection problem", "address", address, "error", err)
		return nil, err
	}
	return &DB{log: log, conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users

func (db *DB) GetUser(ctx context.Context, id int64) (core.User, error) {
	const q = `SELECT id, display_name, email, access_level, team_id, department_id FROM users WHERE id = $1`

	var u core.User
	if err := db.conn.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (db *DB) GetUsers(ctx context.Context, ids []int64) ([]core.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(`SELECT id, display_name, email, access_level, team_id, department_id FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}

	var out []core.User
	if err := db.conn.SelectContext(ctx, &out, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	return out, nil
}

// Tasks

const taskColumns = `id, title, description, status, priority, due_date, owner_id, assignee_id,
	parent_task_id, project_id, is_deleted, deleted_at, deleted_by,
	is_recurring, recurrence_type, recurrence_interval, recurrence_end,
	parent_recurring_task_id, next_due_date, created_at, updated_at`

func (db *DB) InsertTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		INSERT INTO tasks(title, description, status, priority, due_date, owner_id, assignee_id,
			parent_task_id, project_id, is_recurring, recurrence_type, recurrence_interval,
			recurrence_end, parent_recurring_task_id, next_due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + taskColumns + `;
	`

	var out core.Task
	err := db.conn.GetContext(ctx, &out, q,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.OwnerID, t.AssigneeID,
		t.ParentID, t.ProjectID, t.IsRecurring, string(t.RecurrenceType), t.RecurrenceInterval,
		t.RecurrenceEnd, t.ParentRecurringID, t.NextDueDate)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Task{}, core.ErrNotFound
		}
		if isCheckViolation(err) {
			return core.Task{}, core.ErrInvalidArgs
		}
		return core.Task{}, fmt.Errorf("insert task: %w", err)
	}

	if err := db.replaceTaskMembers(ctx, out.ID, t.MemberIDs); err != nil {
		return core.Task{}, err
	}
	out.MemberIDs = append([]int64(nil), t.MemberIDs...)
	return out, nil
}

func (db *DB) GetTask(ctx context.Context, id int64) (core.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var t core.Task
	if err := db.conn.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrNotFound
		}
		return core.Task{}, fmt.Errorf("get task: %w", err)
	}

	members, err := db.taskMembers(ctx, []int64{t.ID})
	if err != nil {
		return core.Task{}, err
	}
	t.MemberIDs = members[t.ID]
	return t, nil
}

func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		UPDATE tasks
		SET title = $2,
		    description = $3,
		    status = $4,
		    priority = $5,
		    due_date = $6,
		    owner_id = $7,
		    assignee_id = $8,
		    next_due_date = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + taskColumns + `;
	`

	var out core.Task
	err := db.conn.GetContext(ctx, &out, q,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		t.OwnerID, t.AssigneeID, t.NextDueDate)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Task{}, core.ErrNotFound
		}
		if isCheckViolation(err) {
			return core.Task{}, core.ErrInvalidArgs
		}
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrNotFound
		}
		return core.Task{}, fmt.Errorf("update task: %w", err)
	}

	if err := db.replaceTaskMembers(ctx, out.ID, t.MemberIDs); err != nil {
		return core.Task{}, err
	}
	out.MemberIDs = append([]int64(nil), t.MemberIDs...)
	return out, nil
}

func (db *DB) ListTasks(ctx context.Context, f core.TaskFilter) ([]core.Task, error) {
	var (
		sb   strings.Builder
		args []any
		n    = 1
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE is_deleted = $1`)
	args = append(args, f.Deleted)
	n++

	if f.Status != nil {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", n))
		args = append(args, *f.Status)
		n++
	}
	if f.ProjectID != nil {
		sb.WriteString(fmt.Sprintf(" AND project_id = $%d", n))
		args = append(args, *f.ProjectID)
		n++
	}
	sb.WriteString(" ORDER BY created_at DESC")

	var out []core.Task
	if err := db.conn.SelectContext(ctx, &out, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return db.attachMembers(ctx, out)
}

func (db *DB) ChildrenOf(ctx context.Context, parentID int64) ([]core.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_task_id = $1 ORDER BY id`

	var out []core.Task
	if err := db.conn.SelectContext(ctx, &out, q, parentID); err != nil {
		return nil, fmt.Errorf("children of task: %w", err)
	}
	return db.attachMembers(ctx, out)
}

func (db *DB) SoftDeleteTasks(ctx context.Context, ids []int64, deletedBy int64, deletedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	q, args, err := sqlx.In(`UPDATE tasks SET is_deleted = true, deleted_at = ?, deleted_by = ? WHERE id IN (?)`,
		deletedAt, deletedBy, ids)
	if err != nil {
		return fmt.Errorf("build soft delete query: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), args...); err != nil {
		return fmt.Errorf("soft delete tasks: %w", err)
	}
	return nil
}

func (db *DB) RestoreTask(ctx context.Context, id int64) (core.Task, error) {
	q := `
		UPDATE tasks
		SET is_deleted = false, deleted_at = NULL, deleted_by = NULL, updated_at = now()
		WHERE id = $1
		RETURNING ` + taskColumns + `;
	`

	var t core.Task
	if err := db.conn.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrNotFound
		}
		return core.Task{}, fmt.Errorf("restore task: %w", err)
	}

	members, err := db.taskMembers(ctx, []int64{t.ID})
	if err != nil {
		return core.Task{}, err
	}
	t.MemberIDs = members[t.ID]
	return t, nil
}

func (db *DB) ListDueBetween(ctx context.Context, from, to string) ([]core.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks
		WHERE is_deleted = false AND status <> $1 AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date`

	var out []core.Task
	if err := db.conn.SelectContext(ctx, &out, q, core.StatusCompleted, from, to); err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return db.attachMembers(ctx, out)
}

func (db *DB) replaceTaskMembers(ctx context.Context, taskID int64, memberIDs []int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM task_members WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear task members: %w", err)
	}
	for _, uid := range memberIDs {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO task_members(task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, taskID, uid); err != nil {
			if isForeignKeyViolation(err) {
				return core.ErrNotFound
			}
			return fmt.Errorf("insert task member: %w", err)
		}
	}
	return nil
}

type memberRow struct {
	TaskID int64 `db:"task_id"`
	UserID int64 `db:"user_id"`
}

func (db *DB) taskMembers(ctx context.Context, taskIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	q, args, err := sqlx.In(`SELECT task_id, user_id FROM task_members WHERE task_id IN (?) ORDER BY user_id`, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("build members query: %w", err)
	}

	var rows []memberRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("task members: %w", err)
	}
	for _, r := range rows {
		out[r.TaskID] = append(out[r.TaskID], r.UserID)
	}
	return out, nil
}

func (db *DB) attachMembers(ctx context.Context, tasks []core.Task) ([]core.Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	members, err := db.taskMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].MemberIDs = members[tasks[i].ID]
	}
	return tasks, nil
}

// Projects

func (db *DB) InsertProject(ctx context.Context, p core.Project) (core.Project, error) {
	const q = `
		INSERT INTO projects(name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, owner_id, created_at;
	`

	var out core.Project
	if err := db.conn.GetContext(ctx, &out, q, p.Name, p.Description, p.OwnerID); err != nil {
		if isForeignKeyViolation(err) {
			return core.Project{}, core.ErrNotFound
		}
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}

	if err := db.replaceProjectMembers(ctx, out.ID, p.MemberIDs); err != nil {
		return core.Project{}, err
	}
	out.MemberIDs = append([]int64(nil), p.MemberIDs...)
	return out, nil
}

func (db *DB) GetProject(ctx context.Context, id int64) (core.Project, error) {
	const q = `SELECT id, name, description, owner_id, created_at FROM projects WHERE id = $1`

	var p core.Project
	if err := db.conn.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Project{}, core.ErrNotFound
		}
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	return db.loadProjectRefs(ctx, p)
}

func (db *DB) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	const q = `
		UPDATE projects
		SET name = $2, description = $3, owner_id = $4
		WHERE id = $1
		RETURNING id, name, description, owner_id, created_at;
	`

	var out core.Project
	if err := db.conn.GetContext(ctx, &out, q, p.ID, p.Name, p.Description, p.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Project{}, core.ErrNotFound
		}
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}

	if err := db.replaceProjectMembers(ctx, out.ID, p.MemberIDs); err != nil {
		return core.Project{}, err
	}
	if err := db.replaceProjectTasks(ctx, out.ID, p.TaskIDs); err != nil {
		return core.Project{}, err
	}
	out.MemberIDs = append([]int64(nil), p.MemberIDs...)
	out.TaskIDs = append([]int64(nil), p.TaskIDs...)
	return out, nil
}

func (db *DB) ListProjects(ctx context.Context) ([]core.Project, error) {
	const q = `SELECT id, name, description, owner_id, created_at FROM projects ORDER BY created_at DESC`

	var rows []core.Project
	if err := db.conn.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]core.Project, 0, len(rows))
	for _, p := range rows {
		loaded, err := db.loadProjectRefs(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

func (db *DB) loadProjectRefs(ctx context.Context, p core.Project) (core.Project, error) {
	if err := db.conn.SelectContext(ctx, &p.MemberIDs,
		`SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY user_id`, p.ID); err != nil {
		return core.Project{}, fmt.Errorf("project members: %w", err)
	}
	if err := db.conn.SelectContext(ctx, &p.TaskIDs,
		`SELECT task_id FROM project_tasks WHERE project_id = $1 ORDER BY added_at, task_id`, p.ID); err != nil {
		return core.Project{}, fmt.Errorf("project tasks: %w", err)
	}
	return p, nil
}

func (db *DB) replaceProjectMembers(ctx context.Context, projectID int64, memberIDs []int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear project members: %w", err)
	}
	for _, uid := range memberIDs {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO project_members(project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, projectID, uid); err != nil {
			if isForeignKeyViolation(err) {
				return core.ErrNotFound
			}
			return fmt.Errorf("insert project member: %w", err)
		}
	}
	return nil
}

func (db *DB) replaceProjectTasks(ctx context.Context, projectID int64, taskIDs []int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM project_tasks WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear project tasks: %w", err)
	}
	for _, tid := range taskIDs {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO project_tasks(project_id, task_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, projectID, tid); err != nil {
			return fmt.Errorf("insert project task: %w", err)
		}
	}
	return nil
}

// Comments

func (db *DB) InsertComment(ctx context.Context, c core.Comment) (core.Comment, error) {
	const q = `
		INSERT INTO comments(task_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, task_id, author_id, body, created_at;
	`

	var out core.Comment
	if err := db.conn.GetContext(ctx, &out, q, c.TaskID, c.AuthorID, c.Body); err != nil {
		if isForeignKeyViolation(err) {
			return core.Comment{}, core.ErrNotFound
		}
		return core.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return out, nil
}

// Activity log

func (db *DB) InsertActivities(ctx context.Context, entries []core.ActivityEntry) error {
	const q = `
		INSERT INTO activities(id, task_id, author_id, type, metadata, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	for _, e := range entries {
		meta, err := core.MarshalMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		if _, err := db.conn.ExecContext(ctx, q, e.ID, e.TaskID, e.AuthorID, string(e.Type), meta, e.Summary, e.CreatedAt); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
	}
	return nil
}

func (db *DB) ListActivity(ctx context.Context, taskID int64, limit, offset int) ([]core.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, task_id, author_id, type, metadata, summary, created_at
		FROM activities
		WHERE task_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3;
	`

	var out []core.ActivityRecord
	if err := db.conn.SelectContext(ctx, &out, q, taskID, limit, offset); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return out, nil
}

// Notifications

func (db *DB) GetNotificationPrefs(ctx context.Context, userID int64) (core.NotificationPrefs, error) {
	const q = `SELECT user_id, in_app, email FROM notification_prefs WHERE user_id = $1`

	var p core.NotificationPrefs
	if err := db.conn.GetContext(ctx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotificationPrefs{}, core.ErrNotFound
		}
		return core.NotificationPrefs{}, fmt.Errorf("get notification prefs: %w", err)
	}
	return p, nil
}

func (db *DB) InsertNotification(ctx context.Context, n core.Notification) error {
	const q = `INSERT INTO notifications(recipient_id, task_id, event, message) VALUES ($1, $2, $3, $4)`

	if _, err := db.conn.ExecContext(ctx, q, n.RecipientID, n.TaskID, n.Event, n.Message); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// pg helpers

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}
