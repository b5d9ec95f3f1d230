package dashboard

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// AdminOverview is the platform summary shown to admins.
type AdminOverview struct {
	Farmers             int             `json:"farmers"`
	Buyers              int             `json:"buyers"`
	Agents              int             `json:"agents"`
	PendingVerification int             `json:"pending_verification"`
	Orders              int             `json:"orders"`
	Revenue             float64         `json:"revenue"`
	Notices             []models.Notice `json:"notices,omitempty"`
}

// LoadAdminOverview reads every profile and order concurrently.
// It returns ctx.Err() when the request is cancelled before the reads finish.
func LoadAdminOverview(ctx context.Context, env dataview.Env, actor remote.Actor) (*AdminOverview, error) {
	var (
		users  *dataview.Page[models.Profile]
		orders *dataview.Page[models.Order]
	)
	view := allProfilesView()
	view.Columns = []string{"id", "role", "verified", "created_at"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users = dataview.Open(gctx, env, actor, view)
		return gctx.Err()
	})
	g.Go(func() error {
		orders = dataview.Open(gctx, env, actor, allOrdersView())
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &AdminOverview{
		Orders:  len(orders.Rows),
		Revenue: models.SumAmounts(orders.Rows, models.OrderCompleted),
		Notices: collectNotices(users.Notices, orders.Notices),
	}
	for _, u := range users.Rows {
		switch u.Role {
		case models.Farmer:
			out.Farmers++
		case models.Buyer:
			out.Buyers++
		case models.Agent:
			out.Agents++
		}
		if !u.Verified {
			out.PendingVerification++
		}
	}
	return out, nil
}

// UserTabs are the tabs of the admin user list.
var UserTabs = []string{"farmers", "buyers", "agents", "pending"}

// UsersPage is one tab of the admin user list.
type UsersPage struct {
	Tab    string   `json:"tab"`
	Tabs   []string `json:"tabs"`
	Search string   `json:"search,omitempty"`
	*dataview.Page[models.Profile]
}

// AdminUsers lists every profile in tab matching search.
func AdminUsers(ctx context.Context, env dataview.Env, actor remote.Actor, tab, search string) (*UsersPage, error) {
	page, err := usersPage(env, actor, tab, search)
	if err != nil {
		return nil, err
	}
	page.Page.Reload(ctx)
	page.narrow()
	return page, nil
}

// ToggleVerification flips a user's verified flag from current, then re-reads the whole user list.
func ToggleVerification(ctx context.Context, env dataview.Env, actor remote.Actor, userID string, current bool, tab, search string) (*UsersPage, error) {
	page, err := usersPage(env, actor, tab, search)
	if err != nil {
		return nil, err
	}
	next := !current
	fail := models.Alert("Error", "Failed to update verification status.")
	if err := page.Page.Mutate(ctx, userID, remote.Record{"verified": next}, fail); err != nil {
		page.narrow()
		return page, err
	}
	status := "unverified"
	if next {
		status = "verified"
	}
	page.Page.Notify(models.Info("Success", fmt.Sprintf("User %s successfully.", status)))
	page.narrow()
	return page, nil
}

func usersPage(env dataview.Env, actor remote.Actor, tab, search string) (*UsersPage, error) {
	if tab == "" {
		tab = UserTabs[0]
	}
	if !contains(UserTabs, tab) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	return &UsersPage{
		Tab:    tab,
		Tabs:   UserTabs,
		Search: strings.TrimSpace(search),
		Page:   dataview.Attach(env, actor, allProfilesView()),
	}, nil
}

func (u *UsersPage) narrow() {
	term := strings.ToLower(u.Search)
	empty := fmt.Sprintf("No %s found", u.Tab)
	u.Page = u.Page.Filter(func(p models.Profile) bool {
		return inTab(p, u.Tab) && matchesUser(p, term)
	}, empty)
}

func inTab(p models.Profile, tab string) bool {
	if tab == "pending" {
		return !p.Verified
	}
	return string(p.Role)+"s" == tab
}

// matchesUser reports whether term occurs in the name or email. An empty term matches everyone.
func matchesUser(p models.Profile, term string) bool {
	return strings.Contains(strings.ToLower(p.FullName), term) ||
		strings.Contains(strings.ToLower(p.Email), term)
}
