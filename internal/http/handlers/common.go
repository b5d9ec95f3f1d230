package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/navigation"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/session"
	"github.com/agrilinkchain/agrilink/internal/signup"
)

// View is the payload of every dashboard response: the shell plus the page itself.
type View struct {
	Shell navigation.Shell `json:"shell"`
	Page  any              `json:"page"`
}

// portal carries what every role handler needs to talk to the backend for the signed-in actor.
type portal struct {
	client remote.Client
	log    *zap.Logger
}

func (p portal) env(rec session.Record) dataview.Env {
	return dataview.Env{Collections: p.client.Scoped(rec.AccessToken), Log: p.log}
}

// mustSession returns the session attached by the session middleware. Role routes always run behind RequireRole.
func mustSession(r *http.Request) session.Record {
	rec, _ := middleware.SessionFrom(r.Context())
	return rec
}

// render wraps page in the role's shell and writes it with the page's notices.
func (p portal) render(w http.ResponseWriter, r *http.Request, path, displayName string, page any, notices []models.Notice) {
	rec := mustSession(r)
	if displayName == "" {
		displayName = rec.Actor.Metadata["full_name"]
	}
	shell, err := navigation.Build(rec.Actor.Role(), path, displayName)
	if err != nil {
		p.log.Error("build shell", zap.String("path", path), zap.Error(err))
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", View{Shell: shell, Page: page}, notices...)
}

// fail writes err with a status derived from its kind.
func (p portal) fail(w http.ResponseWriter, r *http.Request, err error, notices ...models.Notice) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		p.log.Warn("request failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respond.Error(w, status, err.Error(), notices...)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrInvalidInput),
		errors.Is(err, dashboard.ErrUnknownTab),
		errors.Is(err, remote.ErrWeakPassword),
		errors.Is(err, remote.ErrInvalidQuery),
		errors.Is(err, signup.ErrRoleRequired),
		errors.Is(err, signup.ErrRoleNotAllowed),
		errors.Is(err, signup.ErrPasswordMismatch),
		errors.Is(err, signup.ErrInvalidFields):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrInvalidCredentials),
		errors.Is(err, remote.ErrNoSession),
		errors.Is(err, dataview.ErrUnscoped):
		return http.StatusUnauthorized
	case errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, remote.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, signup.ErrBusy):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
