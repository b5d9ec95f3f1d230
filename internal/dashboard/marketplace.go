package dashboard

import (
	"context"
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

const (
	// NoMatchesMessage is shown when a marketplace search finds nothing.
	NoMatchesMessage = "No matching listings found"
	// BuyerSignUpPath is where an anonymous buyer is sent to register.
	BuyerSignUpPath = "/signup?role=buyer"
)

//go:embed marketplace_fallback.yaml
var fallbackYAML []byte

// fallbackListing mirrors models.Listing with yaml tags for the embedded dataset.
type fallbackListing struct {
	ID       string  `yaml:"id"`
	Title    string  `yaml:"title"`
	Price    float64 `yaml:"price"`
	Unit     string  `yaml:"unit"`
	Quantity float64 `yaml:"quantity"`
	Category string  `yaml:"category"`
	ImageURL string  `yaml:"image_url"`
	Farmer   struct {
		FullName string `yaml:"full_name"`
		Location string `yaml:"location"`
	} `yaml:"farmer"`
}

var staticListings = mustDecodeFallback(fallbackYAML)

func mustDecodeFallback(raw []byte) []models.Listing {
	var decoded []fallbackListing
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		panic("dashboard: decode marketplace fallback: " + err.Error())
	}
	out := make([]models.Listing, len(decoded))
	for i, l := range decoded {
		out[i] = models.Listing{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.Price,
			Unit:     l.Unit,
			Quantity: l.Quantity,
			Category: l.Category,
			ImageURL: l.ImageURL,
			Farmer:   &models.Counterpart{FullName: l.Farmer.FullName, Location: l.Farmer.Location},
		}
	}
	return out
}

func fallbackListings() []models.Listing {
	out := make([]models.Listing, len(staticListings))
	for i, l := range staticListings {
		farmer := *l.Farmer
		l.Farmer = &farmer
		out[i] = l
	}
	return out
}

// Marketplace lists every listing with its farmer, narrowed by a case-insensitive search over title or category.
// A failed read falls back to the built-in catalogue.
func Marketplace(ctx context.Context, env dataview.Env, actor remote.Actor, search string) *dataview.Page[models.Listing] {
	page := dataview.Open(ctx, env, actor, marketplaceView())
	term := strings.ToLower(strings.TrimSpace(search))
	filtered := page.Filter(func(l models.Listing) bool {
		return strings.Contains(strings.ToLower(l.Title), term) ||
			strings.Contains(strings.ToLower(l.Category), term)
	}, NoMatchesMessage)
	if filtered.State == dataview.Fallback && len(filtered.Rows) == 0 {
		filtered.EmptyMessage = NoMatchesMessage
	}
	return filtered
}

// BuyOutcome is what happens when an actor presses Buy Now.
type BuyOutcome struct {
	ListingID string        `json:"listing_id"`
	Redirect  string        `json:"redirect,omitempty"`
	Notice    models.Notice `json:"notice"`
}

// Buy starts a purchase. Anonymous actors are sent to buyer registration; checkout itself is not implemented.
func Buy(signedIn bool, listingID string) BuyOutcome {
	if !signedIn {
		return BuyOutcome{
			ListingID: listingID,
			Redirect:  BuyerSignUpPath,
			Notice:    models.Info("Authentication Required", "Please sign up or log in to buy products."),
		}
	}
	return BuyOutcome{ListingID: listingID, Notice: models.Info("Success", "Redirecting to checkout...")}
}
