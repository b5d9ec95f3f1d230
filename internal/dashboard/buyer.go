package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// BuyerOverview is the buyer portal landing page.
type BuyerOverview struct {
	Profile         *models.Profile `json:"profile"`
	ActiveOrders    int             `json:"active_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalSpend      float64         `json:"total_spend"`
	Notices         []models.Notice `json:"notices,omitempty"`
}

// LoadBuyerOverview reads the buyer's profile and orders concurrently.
// It returns ctx.Err() when the request is cancelled before the reads finish.
func LoadBuyerOverview(ctx context.Context, env dataview.Env, actor remote.Actor) (*BuyerOverview, error) {
	var (
		profile *dataview.Page[models.Profile]
		orders  *dataview.Page[models.Order]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = dataview.Open(gctx, env, actor, ownProfileView())
		return gctx.Err()
	})
	g.Go(func() error {
		orders = dataview.Open(gctx, env, actor, ordersView("buyer_id"))
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BuyerOverview{
		Profile:         first(profile),
		ActiveOrders:    models.CountStatus(orders.Rows, models.OrderPending),
		CompletedOrders: models.CountStatus(orders.Rows, models.OrderCompleted),
		TotalSpend:      models.SumAmounts(orders.Rows, models.OrderCompleted),
		Notices:         collectNotices(profile.Notices, orders.Notices),
	}, nil
}

// BuyerReviews lists the reviews the buyer has left, with each farmer's name.
func BuyerReviews(ctx context.Context, env dataview.Env, actor remote.Actor) *dataview.Page[models.Review] {
	return dataview.Open(ctx, env, actor, buyerReviewsView())
}
