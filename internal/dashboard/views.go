// Package dashboard assembles the role dashboards from scoped data views.
package dashboard

import (
	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

func owned(column string) func(remote.Actor) []remote.Filter {
	return func(a remote.Actor) []remote.Filter {
		return []remote.Filter{remote.Eq(column, a.ID)}
	}
}

func profileKey(p models.Profile) string { return p.ID }
func listingKey(l models.Listing) string { return l.ID }
func orderKey(o models.Order) string { return o.ID }
func reviewKey(r models.Review) string { return r.ID }
func notificationKey(n models.Notification) string { return n.ID }

var counterpartFields = []string{"full_name", "avatar_url"}

func ownProfileView() dataview.View[models.Profile] {
	return dataview.View[models.Profile]{
		Name:       "profile",
		Collection: remote.Profiles,
		Scope:      owned("id"),
		Key:        profileKey,
	}
}

func ownListingsView() dataview.View[models.Listing] {
	return dataview.View[models.Listing]{
		Name:         "listings",
		Collection:   remote.Listings,
		Scope:        owned("farmer_id"),
		Key:          listingKey,
		EmptyMessage: "No listings yet",
	}
}

func ordersView(column string) dataview.View[models.Order] {
	return dataview.View[models.Order]{
		Name:       "orders",
		Collection: remote.Orders,
		Scope:      owned(column),
		Key:        orderKey,
	}
}

func farmerReviewsView() dataview.View[models.Review] {
	return dataview.View[models.Review]{
		Name:         "reviews",
		Collection:   remote.Reviews,
		Scope:        owned("farmer_id"),
		Expand:       []remote.Expansion{{Alias: "buyer", Column: "buyer_id", Fields: counterpartFields}},
		Key:          reviewKey,
		EmptyMessage: "No reviews yet",
	}
}

func buyerReviewsView() dataview.View[models.Review] {
	return dataview.View[models.Review]{
		Name:         "reviews",
		Collection:   remote.Reviews,
		Scope:        owned("buyer_id"),
		Expand:       []remote.Expansion{{Alias: "farmer", Column: "farmer_id", Fields: counterpartFields}},
		Key:          reviewKey,
		EmptyMessage: "No reviews yet",
	}
}

func notificationsView() dataview.View[models.Notification] {
	return dataview.View[models.Notification]{
		Name:         "notifications",
		Collection:   remote.Notifications,
		Scope:        owned("user_id"),
		Key:          notificationKey,
		Refresh:      dataview.PatchLocal,
		EmptyMessage: "No notifications yet",
	}
}

func allProfilesView() dataview.View[models.Profile] {
	return dataview.View[models.Profile]{
		Name:       "users",
		Collection: remote.Profiles,
		Key:        profileKey,
		Refresh:    dataview.Refetch,
	}
}

func allOrdersView() dataview.View[models.Order] {
	return dataview.View[models.Order]{
		Name:       "orders",
		Collection: remote.Orders,
		Columns:    []string{"id", "status", "amount", "created_at"},
		Key:        orderKey,
	}
}

func onboardedView(code string) dataview.View[models.Profile] {
	return dataview.View[models.Profile]{
		Name:       "onboarded farmers",
		Collection: remote.Profiles,
		Scope: func(remote.Actor) []remote.Filter {
			return []remote.Filter{remote.Eq("referred_by", code)}
		},
		Key:          profileKey,
		EmptyMessage: "No farmers onboarded yet",
	}
}

func marketplaceView() dataview.View[models.Listing] {
	return dataview.View[models.Listing]{
		Name:       "listings",
		Collection: remote.Listings,
		Expand: []remote.Expansion{
			{Alias: "farmer", Column: "farmer_id", Fields: []string{"full_name", "location"}},
		},
		Key:      listingKey,
		Fallback: fallbackListings,
	}
}

// first returns the first row of page, or nil.
func first[T any](page *dataview.Page[T]) *T {
	if len(page.Rows) == 0 {
		return nil
	}
	row := page.Rows[0]
	return &row
}
