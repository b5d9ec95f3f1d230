package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// AdminHandler serves the admin portal.
type AdminHandler struct {
	portal
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(client remote.Client, log *zap.Logger) *AdminHandler {
	return &AdminHandler{portal{client: client, log: log}}
}

// Register attaches admin routes to the router behind the admin role check.
func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(models.Admin))
		r.Get("/", h.handleOverview)
		r.Get("/users", h.handleUsers)
		r.Post("/users/{id}/verification", h.handleToggleVerification)
	})
}

// verificationRequest carries the flag as the admin currently sees it.
type verificationRequest struct {
	Verified bool   `json:"verified"`
	Tab      string `json:"tab"`
	Search   string `json:"q"`
}

func (h *AdminHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.LoadAdminOverview(r.Context(), h.env(rec), rec.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/admin", "", page, page.Notices)
}

func (h *AdminHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	q := r.URL.Query()
	page, err := dashboard.AdminUsers(r.Context(), h.env(rec), rec.Actor, q.Get("tab"), q.Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/admin/users", "", page, page.Notices)
}

func (h *AdminHandler) handleToggleVerification(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := mustSession(r)
	page, err := dashboard.ToggleVerification(r.Context(), h.env(rec), rec.Actor,
		chi.URLParam(r, "id"), req.Verified, req.Tab, req.Search)
	if err != nil {
		var notices []models.Notice
		if page != nil {
			notices = page.Notices
		}
		h.fail(w, r, err, notices...)
		return
	}
	h.render(w, r, "/admin/users", "", page, page.Notices)
}
