package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// FarmerOverview is the farmer portal landing page.
type FarmerOverview struct {
	Profile        *models.Profile `json:"profile"`
	Listings       int             `json:"listings"`
	ActiveOrders   int             `json:"active_orders"`
	CompletedSales int             `json:"completed_sales"`
	TotalEarnings  float64         `json:"total_earnings"`
	Notices        []models.Notice `json:"notices,omitempty"`
}

// LoadFarmerOverview reads the farmer's profile, listings, and orders concurrently.
// It returns ctx.Err() when the request is cancelled before the reads finish.
func LoadFarmerOverview(ctx context.Context, env dataview.Env, actor remote.Actor) (*FarmerOverview, error) {
	var (
		profile  *dataview.Page[models.Profile]
		listings *dataview.Page[models.Listing]
		orders   *dataview.Page[models.Order]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = dataview.Open(gctx, env, actor, ownProfileView())
		return gctx.Err()
	})
	g.Go(func() error {
		listings = dataview.Open(gctx, env, actor, ownListingsView())
		return gctx.Err()
	})
	g.Go(func() error {
		orders = dataview.Open(gctx, env, actor, ordersView("farmer_id"))
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &FarmerOverview{
		Profile:        first(profile),
		Listings:       len(listings.Rows),
		ActiveOrders:   models.CountStatus(orders.Rows, models.OrderPending),
		CompletedSales: models.CountStatus(orders.Rows, models.OrderCompleted),
	}
	if out.Profile != nil {
		out.TotalEarnings = out.Profile.TotalEarnings
	}
	out.Notices = collectNotices(profile.Notices, listings.Notices, orders.Notices)
	return out, nil
}

// FarmerListings lists the farmer's own listings.
func FarmerListings(ctx context.Context, env dataview.Env, actor remote.Actor) *dataview.Page[models.Listing] {
	return dataview.Open(ctx, env, actor, ownListingsView())
}

// CreateListing validates req and inserts it as a listing owned by actor.
func CreateListing(ctx context.Context, env dataview.Env, actor remote.Actor, req dto.ListingRequest) (models.Listing, error) {
	if actor.ID == "" {
		return models.Listing{}, dataview.ErrUnscoped
	}
	if err := dto.Validate(req); err != nil {
		return models.Listing{}, err
	}
	rec := remote.Record{
		"title":       strings.TrimSpace(req.Title),
		"description": strings.TrimSpace(req.Description),
		"price":       req.Price,
		"unit":        strings.TrimSpace(req.Unit),
		"quantity":    req.Quantity,
		"category":    strings.TrimSpace(req.Category),
		"farmer_id":   actor.ID,
	}
	if req.ImageURL != "" {
		rec["image_url"] = req.ImageURL
	}
	created, err := env.Collections.Insert(ctx, remote.Listings, rec)
	if err != nil {
		logger(env).Warn("listing insert failed", zap.String("actor", actor.ID), zap.Error(err))
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return remote.Decode[models.Listing](created)
}

// Earnings summarizes a farmer's income.
type Earnings struct {
	TotalEarnings     float64                      `json:"total_earnings"`
	PendingPayout     float64                      `json:"pending_payout"`
	ActiveOrdersValue float64                      `json:"active_orders_value"`
	CompletedSales    int                          `json:"completed_sales"`
	Transactions      *dataview.Page[models.Order] `json:"transactions"`
	Notices           []models.Notice              `json:"notices,omitempty"`
}

// LoadEarnings reads the farmer's total earnings and order history.
// It returns ctx.Err() when the request is cancelled before the reads finish.
func LoadEarnings(ctx context.Context, env dataview.Env, actor remote.Actor) (*Earnings, error) {
	var (
		profile *dataview.Page[models.Profile]
		orders  *dataview.Page[models.Order]
	)
	view := ownProfileView()
	view.Columns = []string{"id", "total_earnings"}
	view.ErrorTitle = "Error fetching earnings"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = dataview.Open(gctx, env, actor, view)
		return gctx.Err()
	})
	g.Go(func() error {
		tx := ordersView("farmer_id")
		tx.EmptyMessage = "No transactions found"
		tx.ErrorTitle = "Error fetching earnings"
		orders = dataview.Open(gctx, env, actor, tx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pending := models.SumAmounts(orders.Rows, models.OrderPending)
	out := &Earnings{
		PendingPayout:     pending,
		ActiveOrdersValue: pending,
		CompletedSales:    models.CountStatus(orders.Rows, models.OrderCompleted),
		Transactions:      orders,
		Notices:           collectNotices(profile.Notices),
	}
	if p := first(profile); p != nil {
		out.TotalEarnings = p.TotalEarnings
	}
	return out, nil
}

// FarmerReviews is the reputation page of a farmer.
type FarmerReviews struct {
	CreditScore   int                           `json:"credit_score"`
	AverageRating float64                       `json:"average_rating"`
	Reviews       *dataview.Page[models.Review] `json:"reviews"`
	Notices       []models.Notice               `json:"notices,omitempty"`
}

// LoadFarmerReviews reads the farmer's credit score and the reviews left by buyers.
// It returns ctx.Err() when the request is cancelled before the reads finish.
func LoadFarmerReviews(ctx context.Context, env dataview.Env, actor remote.Actor) (*FarmerReviews, error) {
	var (
		profile *dataview.Page[models.Profile]
		reviews *dataview.Page[models.Review]
	)
	view := ownProfileView()
	view.Columns = []string{"id", "credit_score"}
	view.ErrorTitle = "Error fetching reviews"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = dataview.Open(gctx, env, actor, view)
		return gctx.Err()
	})
	g.Go(func() error {
		reviews = dataview.Open(gctx, env, actor, farmerReviewsView())
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &FarmerReviews{
		AverageRating: models.AverageRating(reviews.Rows),
		Reviews:       reviews,
		Notices:       collectNotices(profile.Notices),
	}
	if p := first(profile); p != nil {
		out.CreditScore = p.CreditScore
	}
	return out, nil
}

func collectNotices(sets ...[]models.Notice) []models.Notice {
	var out []models.Notice
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}

func logger(env dataview.Env) *zap.Logger {
	if env.Log == nil {
		return zap.NewNop()
	}
	return env.Log
}

func now() time.Time {
	return time.Now().UTC()
}
