package navigation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/models"
)

func TestMenusCoverEveryRole(t *testing.T) {
	want := map[models.Role][]string{
		models.Farmer: {"Overview", "My Listings", "My Orders", "Earnings", "Reviews", "Profile", "Notifications"},
		models.Buyer:  {"Overview", "Marketplace", "My Orders", "Payments", "Reviews", "Profile", "Notifications"},
		models.Admin:  {"Overview", "Users", "Listings", "Orders", "Transactions", "Analytics", "Audit Logs"},
		models.Agent:  {"Overview", "Farmers", "Performance", "Settings"},
	}
	for role, labels := range want {
		items, err := Menu(role)
		require.NoError(t, err)
		var got []string
		for _, item := range items {
			got = append(got, item.Label)
			assert.True(t, Permitted(role, item.Path), "%s should reach %s", role, item.Path)
		}
		if diff := cmp.Diff(labels, got); diff != "" {
			t.Errorf("%s menu mismatch (-want +got):\n%s", role, diff)
		}
	}
}

func TestBuildMarksSingleActiveEntry(t *testing.T) {
	shell, err := Build(models.Farmer, "/farmer/orders", "musa abubakar")
	require.NoError(t, err)

	assert.Equal(t, "Farmer Portal", shell.Portal)
	assert.Equal(t, "musa abubakar", shell.DisplayName)
	assert.Equal(t, "M", shell.Initial)
	assert.Equal(t, "/", shell.SignOut)

	var active []string
	for _, e := range shell.Nav {
		if e.Active {
			active = append(active, e.Path)
		}
	}
	assert.Equal(t, []string{"/farmer/orders"}, active)
}

func TestBuildDefaults(t *testing.T) {
	shell, err := Build(models.Agent, "/elsewhere", "  ")
	require.NoError(t, err)

	assert.Equal(t, "User", shell.DisplayName)
	assert.Equal(t, "U", shell.Initial)
	for _, e := range shell.Nav {
		assert.False(t, e.Active)
	}
}

func TestUnknownRole(t *testing.T) {
	_, err := Build("guest", "/", "")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = Home("")
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.False(t, Permitted("guest", "/"))
}

func TestPermittedKeepsRolesApart(t *testing.T) {
	assert.True(t, Permitted(models.Admin, "/admin/users"))
	assert.False(t, Permitted(models.Buyer, "/admin/users"))
	assert.False(t, Permitted(models.Farmer, "/farmers"))
	assert.False(t, Permitted(models.Agent, "/admin"))
}

func TestMenuReturnsCopy(t *testing.T) {
	items, err := Menu(models.Buyer)
	require.NoError(t, err)
	items[0].Label = "changed"

	again, err := Menu(models.Buyer)
	require.NoError(t, err)
	assert.Equal(t, "Overview", again[0].Label)
}
