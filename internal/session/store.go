package session

import (
	"context"
	"errors"
	"time"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Record binds a session cookie id to the remote credentials it stands for.
type Record struct {
	ID          string       `json:"id"`
	AccessToken string       `json:"access_token"`
	Actor       remote.Actor `json:"actor"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store persists session records between requests.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
