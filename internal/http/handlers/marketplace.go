package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// MarketplaceHandler serves the public marketplace. Anonymous visitors read with an unscoped client.
type MarketplaceHandler struct {
	portal
}

// NewMarketplaceHandler constructs the handler.
func NewMarketplaceHandler(client remote.Client, log *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{portal{client: client, log: log}}
}

// Register attaches the public marketplace routes.
func (h *MarketplaceHandler) Register(r chi.Router) {
	r.Get("/api/marketplace", h.handleList)
	r.Post("/api/marketplace/{id}/buy", h.handleBuy)
}

func (h *MarketplaceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rec, _ := middleware.SessionFrom(r.Context())
	env := dataview.Env{Collections: h.client.Scoped(rec.AccessToken), Log: h.log}
	page := dashboard.Marketplace(r.Context(), env, rec.Actor, r.URL.Query().Get("q"))
	respond.JSON(w, http.StatusOK, "ok", page, page.Notices...)
}

func (h *MarketplaceHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	_, signedIn := middleware.SessionFrom(r.Context())
	out := dashboard.Buy(signedIn, chi.URLParam(r, "id"))
	respond.JSON(w, http.StatusOK, "ok", out, out.Notice)
}
