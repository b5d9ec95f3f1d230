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

// BuyerHandler serves the buyer portal.
type BuyerHandler struct {
	portal
}

// NewBuyerHandler constructs the handler.
func NewBuyerHandler(client remote.Client, log *zap.Logger) *BuyerHandler {
	return &BuyerHandler{portal{client: client, log: log}}
}

// Register attaches buyer routes to the router behind the buyer role check.
func (h *BuyerHandler) Register(r chi.Router) {
	r.Route("/api/buyer", func(r chi.Router) {
		r.Use(middleware.RequireRole(models.Buyer))
		r.Get("/", h.handleOverview)
		r.Get("/marketplace", h.handleMarketplace)
		r.Get("/orders", h.handleOrders)
		r.Get("/reviews", h.handleReviews)
		h.mountAccount(r, "/buyer")
	})
}

func (h *BuyerHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.LoadBuyerOverview(r.Context(), h.env(rec), rec.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := ""
	if page.Profile != nil {
		name = page.Profile.FullName
	}
	h.render(w, r, "/buyer", name, page, page.Notices)
}

func (h *BuyerHandler) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page := dashboard.Marketplace(r.Context(), h.env(rec), rec.Actor, r.URL.Query().Get("q"))
	h.render(w, r, "/buyer/marketplace", "", page, page.Notices)
}

func (h *BuyerHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.BuyerOrders(r.Context(), h.env(rec), rec.Actor, r.URL.Query().Get("tab"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/buyer/orders", "", page, page.Notices)
}

func (h *BuyerHandler) handleReviews(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page := dashboard.BuyerReviews(r.Context(), h.env(rec), rec.Actor)
	h.render(w, r, "/buyer/reviews", "", page, page.Notices)
}
