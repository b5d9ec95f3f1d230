// Package remote defines the contract of the hosted backend that owns identities and collections.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrilinkchain/agrilink/internal/models"
)

var (
	// ErrNotFound indicates a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidCredentials is returned by SignIn for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWeakPassword is returned by SignUp when the password is below the backend minimum.
	ErrWeakPassword = errors.New("password is too weak")
	// ErrNoSession means the access token is missing, expired, or revoked.
	ErrNoSession = errors.New("no active session")
	// ErrUnknownCollection means the backend has no such table.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidQuery rejects filters, columns, or expansions the backend cannot serve.
	ErrInvalidQuery = errors.New("invalid query")
)

// Collection names.
const (
	Profiles      = "profiles"
	Listings      = "listings"
	Orders        = "orders"
	Reviews       = "reviews"
	Notifications = "notifications"
)

// MinPasswordLength is the shortest password the backends accept.
const MinPasswordLength = 6

// Metadata is the free-form bag attached to an identity at sign-up.
type Metadata map[string]string

// Actor is an authenticated identity.
type Actor struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Role reads the role tag from identity metadata. Unknown or missing roles yield "".
func (a Actor) Role() models.Role {
	r, err := models.ParseRole(a.Metadata["role"])
	if err != nil {
		return ""
	}
	return r
}

// ReferralCode is set for agents only.
func (a Actor) ReferralCode() string {
	return a.Metadata["referral_code"]
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Actor       Actor     `json:"actor"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Record is one row of a collection as returned by the backend.
type Record map[string]any

// ID returns the primary key of the record as a string.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Filter restricts a read to rows whose Column equals Value.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Expansion pulls Fields of the Target row referenced by Column into the result under Alias.
type Expansion struct {
	Alias  string
	Column string
	Target string
	Fields []string
}

// Order sorts a read by Column.
type Order struct {
	Column     string
	Descending bool
}

// NewestFirst orders by creation time, latest first.
var NewestFirst = &Order{Column: "created_at", Descending: true}

// Query describes a read against one collection.
type Query struct {
	Collection string
	Columns    []string
	Filters    []Filter
	Expand     []Expansion
	Order      *Order
}

// Validate rejects queries no backend could serve.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidQuery)
	}
	for _, f := range q.Filters {
		if f.Column == "" {
			return fmt.Errorf("%w: filter column is required", ErrInvalidQuery)
		}
	}
	for _, e := range q.Expand {
		if e.Alias == "" || e.Column == "" || len(e.Fields) == 0 {
			return fmt.Errorf("%w: expansion needs alias, column and fields", ErrInvalidQuery)
		}
	}
	return nil
}

// Identity is the sign-in/sign-up surface of the backend.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string, meta Metadata) (Actor, error)
	CurrentSession(ctx context.Context, accessToken string) (Session, error)
	CurrentActor(ctx context.Context, accessToken string) (Actor, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Collections is the row-level read/write surface of the backend.
type Collections interface {
	Read(ctx context.Context, q Query) ([]Record, error)
	Update(ctx context.Context, collection, id string, patch Record) error
	Upsert(ctx context.Context, collection string, rec Record) error
	Insert(ctx context.Context, collection string, rec Record) (Record, error)
}

// Client is the full backend: identity plus collections acting with the caller's credentials.
type Client interface {
	Identity
	Scoped(accessToken string) Collections
}

// Decode converts a record into a typed model through its JSON form.
func Decode[T any](rec Record) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
