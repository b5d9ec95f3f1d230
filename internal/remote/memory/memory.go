// Package memory is an in-process backend used for local development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

// Ensure Client satisfies the remote.Client interface at compile time.
var _ remote.Client = (*Client)(nil)

type user struct {
	actor remote.Actor
	hash  []byte
}

// Client keeps identities, sessions, and collections in memory.
type Client struct {
	mu       sync.RWMutex
	users    map[string]*user
	sessions map[string]remote.Session
	rows     map[string][]remote.Record
	now      func() time.Time
	ttl      time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSessionTTL sets how long issued sessions stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New creates an empty backend.
func New(opts ...Option) *Client {
	c := &Client{
		users:    make(map[string]*user),
		sessions: make(map[string]remote.Session),
		rows:     make(map[string][]remote.Record),
		now:      time.Now,
		ttl:      time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed appends records to a collection, filling id and created_at when absent.
func (c *Client) Seed(collection string, recs ...remote.Record) error {
	for _, rec := range recs {
		if _, err := c.Insert(context.Background(), collection, rec); err != nil {
			return fmt.Errorf("seed %s: %w", collection, err)
		}
	}
	return nil
}

// SignUp creates an identity and its profile row.
func (c *Client) SignUp(_ context.Context, email, password string, meta remote.Metadata) (remote.Actor, error) {
	email = normalizeEmail(email)
	if email == "" {
		return remote.Actor{}, fmt.Errorf("%w: email is required", remote.ErrInvalidQuery)
	}
	if len(password) < remote.MinPasswordLength {
		return remote.Actor{}, remote.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return remote.Actor{}, fmt.Errorf("hash password: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.users[email]; exists {
		return remote.Actor{}, remote.ErrAlreadyExists
	}
	actor := remote.Actor{ID: uuid.NewString(), Email: email, Metadata: copyMetadata(meta)}
	c.users[email] = &user{actor: actor, hash: hash}
	c.rows[remote.Profiles] = append(c.rows[remote.Profiles], profileFromSignUp(actor, c.now()))
	return actor, nil
}

// SignIn verifies the password and issues a session.
func (c *Client) SignIn(_ context.Context, email, password string) (remote.Session, error) {
	c.mu.RLock()
	u, ok := c.users[normalizeEmail(email)]
	c.mu.RUnlock()
	if !ok {
		return remote.Session{}, remote.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return remote.Session{}, remote.ErrInvalidCredentials
	}

	session := remote.Session{
		AccessToken: uuid.NewString(),
		ExpiresAt:   c.now().Add(c.ttl),
		Actor:       u.actor,
	}
	c.mu.Lock()
	c.sessions[session.AccessToken] = session
	c.mu.Unlock()
	return session, nil
}

// CurrentSession returns the live session for token.
func (c *Client) CurrentSession(_ context.Context, token string) (remote.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[token]
	if !ok {
		return remote.Session{}, remote.ErrNoSession
	}
	if session.Expired(c.now()) {
		delete(c.sessions, token)
		return remote.Session{}, remote.ErrNoSession
	}
	return session, nil
}

// CurrentActor returns the actor behind token.
func (c *Client) CurrentActor(ctx context.Context, token string) (remote.Actor, error) {
	session, err := c.CurrentSession(ctx, token)
	if err != nil {
		return remote.Actor{}, err
	}
	return session.Actor, nil
}

// SignOut revokes token.
func (c *Client) SignOut(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[token]; !ok {
		return remote.ErrNoSession
	}
	delete(c.sessions, token)
	return nil
}

// Scoped returns the collections surface. The in-memory backend does not enforce row ownership.
func (c *Client) Scoped(string) remote.Collections {
	return c
}

// Read returns matching rows with expansions applied.
func (c *Client) Read(_ context.Context, q remote.Query) ([]remote.Record, error) {
	if err := remote.CheckQuery(q); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []remote.Record
	for _, row := range c.rows[q.Collection] {
		if !matches(row, q.Filters) {
			continue
		}
		rec := project(row, q.Columns)
		for _, e := range q.Expand {
			rec[e.Alias] = c.expand(row, e)
		}
		out = append(out, rec)
	}
	if q.Order != nil {
		sortRecords(out, *q.Order)
	}
	return out, nil
}

// Update patches the row with the given id.
func (c *Client) Update(_ context.Context, collection, id string, patch remote.Record) error {
	if err := remote.CheckRecord(collection, patch); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.rows[collection] {
		if row.ID() == id {
			for k, v := range patch {
				if k == "id" {
					continue
				}
				row[k] = v
			}
			return nil
		}
	}
	return remote.ErrNotFound
}

// Upsert inserts rec or merges it into the row sharing its id.
func (c *Client) Upsert(ctx context.Context, collection string, rec remote.Record) error {
	if err := remote.CheckRecord(collection, rec); err != nil {
		return err
	}
	if rec.ID() == "" {
		return fmt.Errorf("%w: upsert requires an id", remote.ErrInvalidQuery)
	}
	err := c.Update(ctx, collection, rec.ID(), rec)
	if !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	_, err = c.Insert(ctx, collection, rec)
	return err
}

// Insert appends rec, assigning id and created_at when missing.
func (c *Client) Insert(_ context.Context, collection string, rec remote.Record) (remote.Record, error) {
	if err := remote.CheckRecord(collection, rec); err != nil {
		return nil, err
	}
	row := clone(rec)
	if row.ID() == "" {
		row["id"] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = c.now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.rows[collection] {
		if existing.ID() == row.ID() {
			return nil, remote.ErrAlreadyExists
		}
	}
	c.rows[collection] = append(c.rows[collection], row)
	return clone(row), nil
}

func (c *Client) expand(row remote.Record, e remote.Expansion) any {
	ref, ok := row[e.Column]
	if !ok || ref == nil {
		return nil
	}
	for _, target := range c.rows[e.TargetOrDefault()] {
		if equal(target["id"], ref) {
			return map[string]any(project(target, e.Fields))
		}
	}
	return nil
}

func profileFromSignUp(actor remote.Actor, now time.Time) remote.Record {
	rec := remote.Record{
		"id":             actor.ID,
		"email":          actor.Email,
		"full_name":      actor.Metadata["full_name"],
		"role":           actor.Metadata["role"],
		"verified":       false,
		"total_earnings": float64(0),
		"credit_score":   0,
		"created_at":     now.UTC(),
	}
	if code := actor.Metadata["referral_code"]; code != "" {
		rec["referral_code"] = code
	}
	if code := actor.Metadata["referred_by"]; code != "" {
		rec["referred_by"] = code
	}
	return rec
}

func matches(row remote.Record, filters []remote.Filter) bool {
	for _, f := range filters {
		if !equal(row[f.Column], f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func project(row remote.Record, columns []string) remote.Record {
	if len(columns) == 0 {
		return clone(row)
	}
	out := make(remote.Record, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func clone(rec remote.Record) remote.Record {
	out := make(remote.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func sortRecords(recs []remote.Record, order remote.Order) {
	sort.SliceStable(recs, func(i, j int) bool {
		c := compare(recs[i][order.Column], recs[j][order.Column])
		if order.Descending {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func copyMetadata(meta remote.Metadata) remote.Metadata {
	out := make(remote.Metadata, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
