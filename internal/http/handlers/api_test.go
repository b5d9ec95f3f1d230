package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/session"
)

const testPassword = "harvest-2026"

// envelope mirrors respond.Envelope with a typed payload.
type envelope[T any] struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
	Notices []models.Notice `json:"notices"`
}

// newTestAPI mounts every handler on a chi router backed by client.
func newTestAPI(t *testing.T, client remote.Client) *httptest.Server {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	resolver := session.NewResolver(client, store, time.Hour, log)

	r := chi.NewRouter()
	r.Use(middleware.Session(resolver, log))
	NewHealthHandler(time.Now(), "memory").Register(r)
	NewAuthHandler(client, resolver, log, false).Register(r)
	NewMarketplaceHandler(client, log).Register(r)
	NewFarmerHandler(client, log).Register(r)
	NewBuyerHandler(client, log).Register(r)
	NewAdminHandler(client, log).Register(r)
	NewAgentHandler(client, log).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// browser is an HTTP client that keeps cookies across requests.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func call[T any](t *testing.T, c *http.Client, method, url string, body any) (int, envelope[T]) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// signUp registers an identity directly on the backend and returns it.
func signUp(t *testing.T, client remote.Client, email string, meta remote.Metadata) remote.Actor {
	t.Helper()
	actor, err := client.SignUp(context.Background(), email, testPassword, meta)
	require.NoError(t, err)
	return actor
}

// signIn logs a fresh browser in through the API.
func signIn(t *testing.T, srv *httptest.Server, email string) *http.Client {
	t.Helper()
	c := browser(t)
	status, _ := call[map[string]any](t, c, http.MethodPost, srv.URL+"/api/auth/signin",
		map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, status)
	return c
}

func noticeTitles(notices []models.Notice) []string {
	out := make([]string, len(notices))
	for i, n := range notices {
		out[i] = n.Title
	}
	return out
}
