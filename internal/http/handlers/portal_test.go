package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/navigation"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/remote/memory"
)

// viewOf decodes a View with a typed page.
type viewOf[T any] struct {
	Shell navigation.Shell `json:"shell"`
	Page  T                `json:"page"`
}

func activePath(shell navigation.Shell) string {
	for _, e := range shell.Nav {
		if e.Active {
			return e.Path
		}
	}
	return ""
}

func TestRoleRoutesAreIsolated(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer", "full_name": "Musa Bello"})
	signUp(t, client, "ada@example.com", remote.Metadata{"role": "buyer"})

	status, body := call[any](t, browser(t), http.MethodGet, srv.URL+"/api/farmer", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, []string{"Authentication Required"}, noticeTitles(body.Notices))

	buyerBrowser := signIn(t, srv, "ada@example.com")
	status, _ = call[any](t, buyerBrowser, http.MethodGet, srv.URL+"/api/farmer", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call[any](t, buyerBrowser, http.MethodGet, srv.URL+"/api/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, status)

	farmerBrowser := signIn(t, srv, "musa@example.com")
	status, view := call[viewOf[dashboard.FarmerOverview]](t, farmerBrowser, http.MethodGet, srv.URL+"/api/farmer", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Farmer Portal", view.Data.Shell.Portal)
	assert.Equal(t, "Musa Bello", view.Data.Shell.DisplayName)
	assert.Equal(t, "M", view.Data.Shell.Initial)
	assert.Equal(t, "/farmer", activePath(view.Data.Shell))
	assert.Len(t, view.Data.Shell.Nav, 7)
}

func TestFarmerListingsLifecycle(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer"})
	c := signIn(t, srv, "musa@example.com")

	status, empty := call[viewOf[dataview.Page[models.Listing]]](t, c, http.MethodGet, srv.URL+"/api/farmer/listings", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dataview.Empty, empty.Data.Page.State)
	assert.Equal(t, "No listings yet", empty.Data.Page.EmptyMessage)
	assert.Equal(t, "/farmer/listings", activePath(empty.Data.Shell))

	status, bad := call[any](t, c, http.MethodPost, srv.URL+"/api/farmer/listings", map[string]any{
		"title": "Tomatoes", "category": "Vegetables", "price": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, bad.Message, "price")

	status, created := call[models.Listing](t, c, http.MethodPost, srv.URL+"/api/farmer/listings", map[string]any{
		"title": "Tomatoes", "category": "Vegetables", "price": 1200, "unit": "basket", "quantity": 40,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Tomatoes", created.Data.Title)

	_, listed := call[viewOf[dataview.Page[models.Listing]]](t, c, http.MethodGet, srv.URL+"/api/farmer/listings", nil)
	assert.Equal(t, dataview.Loaded, listed.Data.Page.State)
	require.Len(t, listed.Data.Page.Rows, 1)
	assert.Equal(t, created.Data.ID, listed.Data.Page.Rows[0].ID)
}

func TestFarmerOrdersRejectsUnknownTab(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer"})
	c := signIn(t, srv, "musa@example.com")

	status, _ := call[any](t, c, http.MethodGet, srv.URL+"/api/farmer/orders?tab=refunded", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, view := call[viewOf[dashboard.OrdersPage]](t, c, http.MethodGet, srv.URL+"/api/farmer/orders", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", view.Data.Page.Tab)
	assert.Equal(t, dashboard.FarmerOrderTabs, view.Data.Page.Tabs)
}

func TestProfileSaveRoundTrip(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "ada@example.com", remote.Metadata{"role": "buyer"})
	c := signIn(t, srv, "ada@example.com")

	status, saved := call[viewOf[dashboard.ProfilePage]](t, c, http.MethodPut, srv.URL+"/api/buyer/profile", map[string]string{
		"full_name": "Ada Obi", "phone": "+2348000000000", "location": "Enugu", "bio": "Bulk buyer",
	})
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, saved.Data.Page.Profile)
	assert.Equal(t, "Ada Obi", saved.Data.Page.Profile.FullName)
	assert.Equal(t, "Ada Obi", saved.Data.Shell.DisplayName)
	assert.Contains(t, noticeTitles(saved.Notices), "Profile updated!")
	assert.Equal(t, models.Buyer, saved.Data.Page.Profile.Role)
}

func TestNotificationsMarkAllRead(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	actor := signUp(t, client, "ada@example.com", remote.Metadata{"role": "buyer"})
	require.NoError(t, client.Seed(remote.Notifications,
		remote.Record{"user_id": actor.ID, "type": "order", "title": "Order shipped", "message": "On its way", "read": false},
		remote.Record{"user_id": actor.ID, "type": "payment", "title": "Paid", "message": "Payment received", "read": false},
		remote.Record{"user_id": "someone-else", "type": "order", "title": "Other", "message": "Not yours", "read": false},
	))
	c := signIn(t, srv, "ada@example.com")

	status, before := call[viewOf[notificationsPage]](t, c, http.MethodGet, srv.URL+"/api/buyer/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, before.Data.Page.Unread)

	status, after := call[viewOf[notificationsPage]](t, c, http.MethodPost, srv.URL+"/api/buyer/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, after.Data.Page.Unread)
	assert.Equal(t, "/buyer/notifications", activePath(after.Data.Shell))

	status, _ = call[any](t, c, http.MethodPost, srv.URL+"/api/buyer/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminToggleVerification(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "root@example.com", remote.Metadata{"role": "admin"})
	farmer := signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer", "full_name": "Musa Bello"})
	signUp(t, client, "ada@example.com", remote.Metadata{"role": "buyer"})
	c := signIn(t, srv, "root@example.com")

	status, users := call[viewOf[dashboard.UsersPage]](t, c, http.MethodGet, srv.URL+"/api/admin/users?tab=farmers", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, users.Data.Page.Rows, 1)
	assert.False(t, users.Data.Page.Rows[0].Verified)

	status, toggled := call[viewOf[dashboard.UsersPage]](t, c, http.MethodPost,
		srv.URL+"/api/admin/users/"+farmer.ID+"/verification",
		map[string]any{"verified": false, "tab": "farmers"})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, toggled.Data.Page.Rows, 1)
	assert.True(t, toggled.Data.Page.Rows[0].Verified)
	require.Len(t, toggled.Notices, 1)
	assert.Equal(t, "User verified successfully.", toggled.Notices[0].Description)

	status, _ = call[any](t, c, http.MethodPost, srv.URL+"/api/admin/users/nobody/verification",
		map[string]any{"verified": true})
	assert.Equal(t, http.StatusNotFound, status)

	_, search := call[viewOf[dashboard.UsersPage]](t, c, http.MethodGet, srv.URL+"/api/admin/users?tab=buyers&q=ADA@", nil)
	require.Len(t, search.Data.Page.Rows, 1)
	assert.Equal(t, "ada@example.com", search.Data.Page.Rows[0].Email)
}

func TestAgentOverviewCountsReferrals(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	signUp(t, client, "kemi@example.com", remote.Metadata{"role": "agent", "referral_code": "AGT12345"})
	signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer", "referred_by": "AGT12345"})
	signUp(t, client, "bola@example.com", remote.Metadata{"role": "farmer", "referred_by": "OTHER000"})
	c := signIn(t, srv, "kemi@example.com")

	status, view := call[viewOf[dashboard.AgentOverview]](t, c, http.MethodGet, srv.URL+"/api/agent", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AGT12345", view.Data.Page.ReferralCode)
	assert.Equal(t, 1, view.Data.Page.Total)
	assert.Equal(t, 1, view.Data.Page.Pending)
	assert.Equal(t, "Agent Portal", view.Data.Shell.Portal)
}

func TestMarketplaceIsPublic(t *testing.T) {
	client := memory.New()
	srv := newTestAPI(t, client)
	farmer := signUp(t, client, "musa@example.com", remote.Metadata{"role": "farmer", "full_name": "Musa Bello"})
	require.NoError(t, client.Seed(remote.Listings,
		remote.Record{"title": "Fresh Tomatoes", "category": "Vegetables", "price": 1200.0, "farmer_id": farmer.ID},
		remote.Record{"title": "Yam Tubers", "category": "Tubers", "price": 800.0, "farmer_id": farmer.ID},
	))

	status, list := call[dataview.Page[models.Listing]](t, browser(t), http.MethodGet, srv.URL+"/api/marketplace?q=vegeTABLES", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Data.Rows, 1)
	assert.Equal(t, "Fresh Tomatoes", list.Data.Rows[0].Title)
	require.NotNil(t, list.Data.Rows[0].Farmer)
	assert.Equal(t, "Musa Bello", list.Data.Rows[0].Farmer.FullName)

	_, none := call[dataview.Page[models.Listing]](t, browser(t), http.MethodGet, srv.URL+"/api/marketplace?q=cocoa", nil)
	assert.Empty(t, none.Data.Rows)
	assert.Equal(t, dashboard.NoMatchesMessage, none.Data.EmptyMessage)

	status, buy := call[dashboard.BuyOutcome](t, browser(t), http.MethodPost, srv.URL+"/api/marketplace/abc/buy", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dashboard.BuyerSignUpPath, buy.Data.Redirect)
	assert.Equal(t, "Authentication Required", buy.Data.Notice.Title)

	signUp(t, client, "ada@example.com", remote.Metadata{"role": "buyer"})
	_, buy = call[dashboard.BuyOutcome](t, signIn(t, srv, "ada@example.com"), http.MethodPost, srv.URL+"/api/marketplace/abc/buy", nil)
	assert.Empty(t, buy.Data.Redirect)
	assert.Equal(t, "Redirecting to checkout...", buy.Data.Notice.Description)
}

func TestHealth(t *testing.T) {
	srv := newTestAPI(t, memory.New())
	status, body := call[map[string]any](t, browser(t), http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "memory", body.Data["backend"])
}
