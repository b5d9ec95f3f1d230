package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// FarmerHandler serves the farmer portal.
type FarmerHandler struct {
	portal
}

// NewFarmerHandler constructs the handler.
func NewFarmerHandler(client remote.Client, log *zap.Logger) *FarmerHandler {
	return &FarmerHandler{portal{client: client, log: log}}
}

// Register attaches farmer routes to the router behind the farmer role check.
func (h *FarmerHandler) Register(r chi.Router) {
	r.Route("/api/farmer", func(r chi.Router) {
		r.Use(middleware.RequireRole(models.Farmer))
		r.Get("/", h.handleOverview)
		r.Get("/listings", h.handleListings)
		r.Post("/listings", h.handleCreateListing)
		r.Get("/orders", h.handleOrders)
		r.Get("/earnings", h.handleEarnings)
		r.Get("/reviews", h.handleReviews)
		h.mountAccount(r, "/farmer")
	})
}

func (h *FarmerHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.LoadFarmerOverview(r.Context(), h.env(rec), rec.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := ""
	if page.Profile != nil {
		name = page.Profile.FullName
	}
	h.render(w, r, "/farmer", name, page, page.Notices)
}

func (h *FarmerHandler) handleListings(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page := dashboard.FarmerListings(r.Context(), h.env(rec), rec.Actor)
	h.render(w, r, "/farmer/listings", "", page, page.Notices)
}

func (h *FarmerHandler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req dto.ListingRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := mustSession(r)
	listing, err := dashboard.CreateListing(r.Context(), h.env(rec), rec.Actor, req)
	if err != nil {
		h.fail(w, r, err, models.Alert("Error creating listing", err.Error()))
		return
	}
	respond.JSON(w, http.StatusCreated, "listing created", listing,
		models.Info("Listing created", "Your product is now on the marketplace."))
}

func (h *FarmerHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.FarmerOrders(r.Context(), h.env(rec), rec.Actor, r.URL.Query().Get("tab"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/farmer/orders", "", page, page.Notices)
}

func (h *FarmerHandler) handleEarnings(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.LoadEarnings(r.Context(), h.env(rec), rec.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/farmer/earnings", "", page, collect(page.Notices, page.Transactions.Notices))
}

func (h *FarmerHandler) handleReviews(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r)
	page, err := dashboard.LoadFarmerReviews(r.Context(), h.env(rec), rec.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "/farmer/reviews", "", page, collect(page.Notices, page.Reviews.Notices))
}

func collect(sets ...[]models.Notice) []models.Notice {
	var out []models.Notice
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}
