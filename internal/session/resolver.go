// Package session resolves who the current actor is and where they land after signing in.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// Redirect maps a role tag to its post sign-in destination. Anything but farmer, buyer, or admin lands on "/".
func Redirect(role models.Role) string {
	switch role {
	case models.Farmer, models.Buyer, models.Admin:
		return "/" + string(role)
	default:
		return "/"
	}
}

// SignInResult is a freshly established session and where to send the actor.
type SignInResult struct {
	Session  Record
	Redirect string
}

// Resolver turns credentials into sessions and sessions back into actors.
type Resolver struct {
	identity remote.Identity
	store    Store
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewResolver builds a resolver. ttl caps how long a local session lives.
func NewResolver(identity remote.Identity, store Store, ttl time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{identity: identity, store: store, ttl: ttl, log: log, now: time.Now}
}

// SignIn authenticates against the remote identity and stores a local session.
func (r *Resolver) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	remoteSession, err := r.identity.SignIn(ctx, email, password)
	if err != nil {
		return SignInResult{}, fmt.Errorf("sign in: %w", err)
	}

	expires := r.now().Add(r.ttl)
	if !remoteSession.ExpiresAt.IsZero() && remoteSession.ExpiresAt.Before(expires) {
		expires = remoteSession.ExpiresAt
	}
	rec := Record{
		ID:          uuid.NewString(),
		AccessToken: remoteSession.AccessToken,
		Actor:       remoteSession.Actor,
		ExpiresAt:   expires,
	}
	if err := r.store.Save(ctx, rec); err != nil {
		return SignInResult{}, fmt.Errorf("store session: %w", err)
	}

	r.log.Info("signed in",
		zap.String("actor", rec.Actor.ID),
		zap.String("role", string(rec.Actor.Role())))
	return SignInResult{Session: rec, Redirect: Redirect(rec.Actor.Role())}, nil
}

// Current returns the session behind id, or remote.ErrNoSession.
// The remote session is checked on every call; one revoked or expired remotely drops the local record.
func (r *Resolver) Current(ctx context.Context, id string) (Record, error) {
	rec, err := r.local(ctx, id)
	if err != nil {
		return Record{}, err
	}

	remoteSession, err := r.identity.CurrentSession(ctx, rec.AccessToken)
	if errors.Is(err, remote.ErrNoSession) {
		if err := r.store.Delete(ctx, id); err != nil {
			r.log.Warn("drop revoked session", zap.String("actor", rec.Actor.ID), zap.Error(err))
		}
		return Record{}, remote.ErrNoSession
	}
	if err != nil {
		return Record{}, fmt.Errorf("current session: %w", err)
	}
	rec.Actor = remoteSession.Actor
	return rec, nil
}

func (r *Resolver) local(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, remote.ErrNoSession
	}
	rec, err := r.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Record{}, remote.ErrNoSession
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// SignOut revokes the remote session and forgets the local one. Unknown ids are a no-op.
func (r *Resolver) SignOut(ctx context.Context, id string) error {
	rec, err := r.local(ctx, id)
	if errors.Is(err, remote.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	remoteErr := r.identity.SignOut(ctx, rec.AccessToken)
	if errors.Is(remoteErr, remote.ErrNoSession) {
		remoteErr = nil
	}
	if remoteErr != nil {
		r.log.Warn("remote sign out failed", zap.String("actor", rec.Actor.ID), zap.Error(remoteErr))
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if remoteErr != nil {
		return fmt.Errorf("sign out: %w", remoteErr)
	}
	return nil
}
