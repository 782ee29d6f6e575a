package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"task-tracker/adapters/rest"
	"task-tracker/core"
	"task-tracker/pkg/res"
)

func parseStatus(s string) (core.TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unassigned":
		return core.StatusUnassigned, true
	case "ongoing":
		return core.StatusOngoing, true
	case "under_review":
		return core.StatusUnderReview, true
	case "completed":
		return core.StatusCompleted, true
	default:
		return "", false
	}
}

func NewCreateTaskHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}

		var in rest.CreateTaskIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		coreIn := core.CreateTaskIn{
			Title:              in.Title,
			Description:        in.Description,
			OwnerID:            in.OwnerID,
			AssigneeID:         in.AssigneeID,
			MemberIDs:          in.MembersID,
			Priority:           in.Priority,
			DueDate:            in.DueDate,
			ParentID:           in.ParentID,
			ProjectID:          in.ProjectID,
			IsRecurring:        in.IsRecurring,
			RecurrenceType:     core.RecurrenceType(in.RecurrenceType),
			RecurrenceInterval: in.RecurrenceInterval,
			RecurrenceEnd:      in.RecurrenceEnd,
		}
		if in.Status != nil {
			st, ok := parseStatus(*in.Status)
			if !ok {
				res.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			coreIn.Status = &st
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, eff, err := svc.CreateTask(ctx, actor, coreIn)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, t, http.StatusCreated)
	}
}

func NewGetTaskHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.GetTask(ctx, actor, id)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewListTasksHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		var f core.ListTasksFilter

		if s := q.Get("status"); s != "" {
			st, ok := parseStatus(s)
			if !ok {
				res.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			f.Status = &st
		}
		if v := q.Get("project_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				res.Error(w, "invalid project_id", http.StatusBadRequest)
				return
			}
			f.ProjectID = &id
		}

		limit, offset, ok := pageParams(r, w)
		if !ok {
			return
		}
		f.Limit = limit
		f.Offset = offset

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListTasks(ctx, actor, f)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, map[string]any{"tasks": items}, http.StatusOK)
	}
}

func NewListDeletedTasksHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}

		limit, offset, ok := pageParams(r, w)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListDeletedTasks(ctx, actor, limit, offset)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, map[string]any{"tasks": items}, http.StatusOK)
	}
}

func NewPatchTaskHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in rest.PatchTaskIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p := core.TaskPatch{
			Title:         in.Title,
			Description:   in.Description,
			Priority:      in.Priority,
			DueDate:       in.DueDate,
			AssigneeID:    in.AssigneeID,
			OwnerID:       in.OwnerID,
			AddMembers:    in.AddMembers,
			RemoveMembers: in.RemoveMembers,
		}
		if in.Status != nil {
			st, ok := parseStatus(*in.Status)
			if !ok {
				res.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			p.Status = &st
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, eff, err := svc.PatchTask(ctx, actor, id, p)
		if err != nil {
			// effects produced before the failure still get dispatched:
			// the writes they describe already happened
			dispatchAsync(d, eff)
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, t, http.StatusOK)
	}
}

func NewDeleteTaskHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		eff, err := svc.DeleteTask(ctx, actor, id)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, map[string]any{"ok": true}, http.StatusOK)
	}
}

func NewRestoreTaskHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, eff, err := svc.RestoreTask(ctx, actor, id)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, t, http.StatusOK)
	}
}

func NewAddCommentHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in rest.CommentIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		c, eff, err := svc.AddComment(ctx, actor, id, in.Body)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, c, http.StatusCreated)
	}
}

func NewListActivityHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		limit, offset, ok := pageParams(r, w)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListActivity(ctx, actor, id, limit, offset)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, map[string]any{"activity": items}, http.StatusOK)
	}
}
