package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"task-tracker/adapters/rest"
	"task-tracker/core"
	"task-tracker/pkg/res"
)

func NewCreateProjectHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}

		var in rest.CreateProjectIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		p, eff, err := svc.CreateProject(ctx, actor, core.CreateProjectIn{
			Name:        in.Name,
			Description: in.Description,
			OwnerID:     in.OwnerID,
			MemberIDs:   in.Members,
		})
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, p, http.StatusCreated)
	}
}

func NewGetProjectHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
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

		p, err := svc.GetProject(ctx, actor, id)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, p, http.StatusOK)
	}
}

func NewListProjectsHandler(_ *slog.Logger, svc *core.Service, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			res.Error(w, "missing acting user", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListProjects(ctx, actor)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		res.Json(w, map[string]any{"projects": items}, http.StatusOK)
	}
}

func NewAddProjectMemberHandler(_ *slog.Logger, svc *core.Service, d Dispatcher, timeout time.Duration) http.HandlerFunc {
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

		var in rest.AddMemberIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		p, eff, err := svc.AddProjectMember(ctx, actor, id, in.UserID)
		if err != nil {
			rest.WriteErr(w, err)
			return
		}
		dispatchAsync(d, eff)
		res.Json(w, p, http.StatusOK)
	}
}
