package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

// SignUp creates the identity and its profile row in one transaction.
func (s *Store) SignUp(ctx context.Context, email, password string, meta remote.Metadata) (remote.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return remote.Actor{}, fmt.Errorf("%w: email is required", remote.ErrInvalidQuery)
	}
	if len(password) < remote.MinPasswordLength {
		return remote.Actor{}, remote.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return remote.Actor{}, fmt.Errorf("hash password: %w", err)
	}
	if meta == nil {
		meta = remote.Metadata{}
	}
	actor := remote.Actor{ID: uuid.NewString(), Email: email, Metadata: meta}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return remote.Actor{}, fmt.Errorf("begin sign-up: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUser = `
		INSERT INTO auth_users (id, email, password_hash, raw_user_meta_data)
		VALUES ($1, $2, $3, $4);`
	if _, err := tx.Exec(ctx, insertUser, actor.ID, email, string(hash), map[string]string(meta)); err != nil {
		return remote.Actor{}, translate(err)
	}

	const insertProfile = `
		INSERT INTO profiles (id, email, full_name, role, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''));`
	if _, err := tx.Exec(ctx, insertProfile, actor.ID, email, meta["full_name"], meta["role"], meta["referral_code"], meta["referred_by"]); err != nil {
		return remote.Actor{}, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return remote.Actor{}, fmt.Errorf("commit sign-up: %w", err)
	}
	return actor, nil
}

// SignIn verifies the password, opens a session row, and returns a signed access token.
func (s *Store) SignIn(ctx context.Context, email, password string) (remote.Session, error) {
	const query = `
		SELECT id, email, password_hash, raw_user_meta_data
		FROM auth_users
		WHERE email = $1;`
	var (
		actor remote.Actor
		hash  string
	)
	err := s.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).
		Scan(&actor.ID, &actor.Email, &hash, &actor.Metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return remote.Session{}, remote.ErrInvalidCredentials
		}
		return remote.Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return remote.Session{}, remote.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.Generate(actor.ID, actor.Email, actor.Metadata["role"], sessionID)
	if err != nil {
		return remote.Session{}, err
	}
	const insertSession = `INSERT INTO auth_sessions (id, user_id, expires_at) VALUES ($1, $2, $3);`
	if _, err := s.pool.Exec(ctx, insertSession, sessionID, actor.ID, expiresAt); err != nil {
		return remote.Session{}, fmt.Errorf("open session: %w", err)
	}

	return remote.Session{AccessToken: token, ExpiresAt: expiresAt, Actor: actor}, nil
}

// CurrentSession verifies the token and checks that its session is neither revoked nor expired.
func (s *Store) CurrentSession(ctx context.Context, token string) (remote.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return remote.Session{}, remote.ErrNoSession
	}
	const query = `
		SELECT u.id, u.email, u.raw_user_meta_data, s.expires_at
		FROM auth_sessions s
		JOIN auth_users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.revoked_at IS NULL AND s.expires_at > NOW();`
	var (
		actor     remote.Actor
		expiresAt time.Time
	)
	err = s.pool.QueryRow(ctx, query, claims.SessionID).Scan(&actor.ID, &actor.Email, &actor.Metadata, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return remote.Session{}, remote.ErrNoSession
		}
		return remote.Session{}, fmt.Errorf("load session: %w", err)
	}
	return remote.Session{AccessToken: token, ExpiresAt: expiresAt, Actor: actor}, nil
}

// CurrentActor returns the actor behind a live token.
func (s *Store) CurrentActor(ctx context.Context, token string) (remote.Actor, error) {
	session, err := s.CurrentSession(ctx, token)
	if err != nil {
		return remote.Actor{}, err
	}
	return session.Actor, nil
}

// SignOut revokes the session behind token.
func (s *Store) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return remote.ErrNoSession
	}
	tag, err := s.pool.Exec(ctx, `UPDATE auth_sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL;`, claims.SessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return remote.ErrNoSession
	}
	return nil
}
