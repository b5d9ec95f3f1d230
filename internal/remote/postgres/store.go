// Package postgres is a self-hosted backend that keeps identities and collections in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilinkchain/agrilink/internal/auth"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// Ensure Store satisfies the remote.Client interface at compile time.
var _ remote.Client = (*Store)(nil)

// Store provides Postgres-backed identities and collections.
type Store struct {
	pool   *pgxpool.Pool
	tokens *auth.TokenManager
}

// New connects to the database. Call Migrate before first use of a fresh database.
func New(ctx context.Context, databaseURL string, tokens *auth.TokenManager) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, tokens: tokens}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the identity tables and the application collections.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS auth_users (
			id UUID PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			raw_user_meta_data JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS auth_sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES auth_users(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY REFERENCES auth_users(id) ON DELETE CASCADE,
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL CHECK (role IN ('farmer', 'buyer', 'admin', 'agent')),
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			referral_code TEXT,
			referred_by TEXT,
			total_earnings NUMERIC(24,2) NOT NULL DEFAULT 0,
			credit_score INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS profiles_referred_by_idx ON profiles (referred_by);`,
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(14,2) NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			quantity NUMERIC(14,2) NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			farmer_id UUID NOT NULL REFERENCES profiles(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS listings_farmer_idx ON listings (farmer_id);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			buyer_id UUID NOT NULL REFERENCES profiles(id),
			farmer_id UUID NOT NULL REFERENCES profiles(id),
			listing_id UUID REFERENCES listings(id),
			amount NUMERIC(24,2) NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS orders_buyer_idx ON orders (buyer_id);`,
		`CREATE INDEX IF NOT EXISTS orders_farmer_idx ON orders (farmer_id);`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY,
			rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			buyer_id UUID NOT NULL REFERENCES profiles(id),
			farmer_id UUID NOT NULL REFERENCES profiles(id),
			order_id UUID REFERENCES orders(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS reviews_farmer_idx ON reviews (farmer_id);`,
		`CREATE INDEX IF NOT EXISTS reviews_buyer_idx ON reviews (buyer_id);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES profiles(id),
			type TEXT NOT NULL DEFAULT 'other',
			title TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Scoped returns the collections surface. Row ownership is enforced by the callers' scope filters.
func (s *Store) Scoped(string) remote.Collections {
	return s
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return remote.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return remote.ErrAlreadyExists
		case "42P01":
			return remote.ErrUnknownCollection
		case "22P02", "23502", "23503", "23514":
			return fmt.Errorf("%w: %s", remote.ErrInvalidQuery, pgErr.Message)
		}
	}
	return err
}
