package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// ErrUnknownTab is returned for a tab the page does not offer.
var ErrUnknownTab = errors.New("unknown tab")

// Order tabs. A tab shows the orders whose status equals its name.
var (
	FarmerOrderTabs = []string{"pending", "active", "completed", "cancelled"}
	BuyerOrderTabs  = []string{"active", "completed", "cancelled"}
)

// OrdersPage is one tab of an order list.
type OrdersPage struct {
	Tab  string   `json:"tab"`
	Tabs []string `json:"tabs"`
	*dataview.Page[models.Order]
}

// FarmerOrders lists the farmer's incoming orders for tab; an empty tab selects the first one.
func FarmerOrders(ctx context.Context, env dataview.Env, actor remote.Actor, tab string) (*OrdersPage, error) {
	return ordersTab(ctx, env, actor, "farmer_id", FarmerOrderTabs, tab,
		"Orders will appear here when buyers purchase your products.")
}

// BuyerOrders lists the buyer's purchases for tab; an empty tab selects the first one.
func BuyerOrders(ctx context.Context, env dataview.Env, actor remote.Actor, tab string) (*OrdersPage, error) {
	return ordersTab(ctx, env, actor, "buyer_id", BuyerOrderTabs, tab,
		"Your orders will appear here once you start purchasing.")
}

func ordersTab(ctx context.Context, env dataview.Env, actor remote.Actor, owner string, tabs []string, tab, hint string) (*OrdersPage, error) {
	if tab == "" {
		tab = tabs[0]
	}
	if !contains(tabs, tab) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	page := dataview.Open(ctx, env, actor, ordersView(owner))
	filtered := page.Filter(func(o models.Order) bool { return o.Status == tab },
		fmt.Sprintf("No %s orders. %s", tab, hint))
	return &OrdersPage{Tab: tab, Tabs: tabs, Page: filtered}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
