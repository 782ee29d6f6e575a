package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"task-tracker/core"
	"task-tracker/pkg/res"
)

// Dispatcher executes mutation side effects; failures stay on its side of
// the fence.
type Dispatcher interface {
	Run(ctx context.Context, eff core.Effects)
}

func Register(mux *http.ServeMux, log *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) {
	// ping
	mux.Handle("GET /api/ping", NewPingHandler(log, svc, timeout))

	// tasks
	mux.Handle("POST /api/tasks", NewCreateTaskHandler(log, svc, d, timeout))
	mux.Handle("GET /api/tasks", NewListTasksHandler(log, svc, timeout))
	mux.Handle("GET /api/tasks/deleted", NewListDeletedTasksHandler(log, svc, timeout))
	mux.Handle("GET /api/tasks/{id}", NewGetTaskHandler(log, svc, timeout))
	mux.Handle("PATCH /api/tasks/{id}", NewPatchTaskHandler(log, svc, d, timeout))
	mux.Handle("DELETE /api/tasks/{id}", NewDeleteTaskHandler(log, svc, d, timeout))
	mux.Handle("POST /api/tasks/{id}/restore", NewRestoreTaskHandler(log, svc, d, timeout))
	mux.Handle("POST /api/tasks/{id}/comments", NewAddCommentHandler(log, svc, d, timeout))
	mux.Handle("GET /api/tasks/{id}/activity", NewListActivityHandler(log, svc, timeout))

	// projects
	mux.Handle("POST /api/projects", NewCreateProjectHandler(log, svc, d, timeout))
	mux.Handle("GET /api/projects", NewListProjectsHandler(log, svc, timeout))
	mux.Handle("GET /api/projects/{id}", NewGetProjectHandler(log, svc, timeout))
	mux.Handle("POST /api/projects/{id}/members", NewAddProjectMemberHandler(log, svc, d, timeout))
}

// actorID reads the acting user from the X-User-ID header. Authentication
// itself lives in front of this service.
func actorID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request, w http.ResponseWriter) (limit, offset int, ok bool) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			res.Error(w, "invalid limit", http.StatusBadRequest)
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			res.Error(w, "invalid offset", http.StatusBadRequest)
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// dispatchAsync fires the effects of a finished mutation without tying them
// to the request lifetime.
func dispatchAsync(d Dispatcher, eff core.Effects) {
	if len(eff.Activities) == 0 && len(eff.Notifications) == 0 {
		return
	}
	go d.Run(context.Background(), eff)
}
