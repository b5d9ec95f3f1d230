// Package supabase talks to a hosted Supabase-compatible backend: GoTrue for identity and
// PostgREST for collections.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

// Ensure Client satisfies the remote.Client interface at compile time.
var _ remote.Client = (*Client)(nil)

// Client is a thin HTTP client for the hosted backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the project at baseURL authenticated with the anon apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the union of GoTrue and PostgREST error bodies.
type apiError struct {
	Status           int    `json:"-"`
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.Status)
}

func (e *apiError) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if s, ok := e.Code.(string); ok {
		return s
	}
	return ""
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u gotrueUser) actor() remote.Actor {
	meta := make(remote.Metadata, len(u.UserMetadata))
	for k, v := range u.UserMetadata {
		if v == nil {
			continue
		}
		meta[k] = fmt.Sprint(v)
	}
	return remote.Actor{ID: u.ID, Email: u.Email, Metadata: meta}
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   int64      `json:"expires_at"`
	User        gotrueUser `json:"user"`
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (remote.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", nil, body, &out)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
			return remote.Session{}, remote.ErrInvalidCredentials
		}
		return remote.Session{}, err
	}
	return remote.Session{
		AccessToken: out.AccessToken,
		ExpiresAt:   expiry(out),
		Actor:       out.User.actor(),
	}, nil
}

// SignUp creates an identity with metadata attached as user_metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, meta remote.Metadata) (remote.Actor, error) {
	body := map[string]any{"email": email, "password": password, "data": meta}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", nil, body, &raw); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.code() == "user_already_exists" || strings.Contains(strings.ToLower(apiErr.text()), "already registered"):
				return remote.Actor{}, remote.ErrAlreadyExists
			case apiErr.code() == "weak_password":
				return remote.Actor{}, remote.ErrWeakPassword
			}
		}
		return remote.Actor{}, err
	}

	// Projects with auto-confirm answer with a session; others answer with the bare user.
	var withSession tokenResponse
	if err := json.Unmarshal(raw, &withSession); err == nil && withSession.User.ID != "" {
		return withSession.User.actor(), nil
	}
	var user gotrueUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return remote.Actor{}, fmt.Errorf("decode sign-up response: %w", err)
	}
	return user.actor(), nil
}

// CurrentActor asks the backend who owns token.
func (c *Client) CurrentActor(ctx context.Context, token string) (remote.Actor, error) {
	if token == "" {
		return remote.Actor{}, remote.ErrNoSession
	}
	var user gotrueUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, nil, &user); err != nil {
		if isStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return remote.Actor{}, remote.ErrNoSession
		}
		return remote.Actor{}, err
	}
	return user.actor(), nil
}

// CurrentSession validates token with the backend and reads its expiry from the exp claim.
func (c *Client) CurrentSession(ctx context.Context, token string) (remote.Session, error) {
	actor, err := c.CurrentActor(ctx, token)
	if err != nil {
		return remote.Session{}, err
	}
	session := remote.Session{AccessToken: token, Actor: actor}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// SignOut revokes token on the backend.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil, nil); err != nil {
		if isStatus(err, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound) {
			return remote.ErrNoSession
		}
		return err
	}
	return nil
}

// Scoped returns collections that act with the caller's access token.
func (c *Client) Scoped(token string) remote.Collections {
	return &collections{client: c, token: token}
}

func (c *Client) do(ctx context.Context, method, path, token string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("apikey", c.apiKey)
	bearer := c.apiKey
	if token != "" {
		bearer = token
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (e *apiError) Error() string {
	if code := e.code(); code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, code, e.text())
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.text())
}

func isStatus(err error, statuses ...int) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

func expiry(t tokenResponse) time.Time {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0)
	}
	if t.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// restPath builds the PostgREST path for a collection with query parameters.
func restPath(collection string, params url.Values) string {
	p := "/rest/v1/" + url.PathEscape(collection)
	if len(params) > 0 {
		p += "?" + params.Encode()
	}
	return p
}
