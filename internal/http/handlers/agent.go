package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// AgentHandler serves the agent portal.
type AgentHandler struct {
	portal
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(client remote.Client, log *zap.Logger) *AgentHandler {
	return &AgentHandler{portal{client: client, log: log}}
}

// Register attaches agent routes to the router behind the agent role check.
func (h *AgentHandler) Register(r chi.Router) {
	r.Route("/api/agent", func(r chi.Router) {
		r.Use(middleware.RequireRole(models.Agent))
		r.Get("/", h.handleOverview)
	})
}

func (h *AgentHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page := dashboard.LoadAgentOverview(r.Context(), h.env(rec), rec.Actor)
	h.render(w, r, "/agent", "", page, page.Onboarded.Notices)
}
