package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, "anon-key", WithHTTPClient(ts.Client()))
}

func TestSignInReadsRoleMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_at":4102444800,"user":{"id":"u-1","email":"a@b.com","user_metadata":{"role":"farmer"}}}`))
	})

	session, err := c.SignIn(context.Background(), "a@b.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "u-1", session.Actor.ID)
	assert.Equal(t, "farmer", string(session.Actor.Role()))
	assert.Equal(t, int64(4102444800), session.ExpiresAt.Unix())
}

func TestSignInMapsBadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignIn(context.Background(), "a@b.com", "nope")
	assert.ErrorIs(t, err, remote.ErrInvalidCredentials)
}

func TestSignUpSendsMetadata(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"u-9","email":"a@b.com","user_metadata":{"role":"farmer","referred_by":"AGT12345"}}`))
	})

	actor, err := c.SignUp(context.Background(), "a@b.com", "Secret123", remote.Metadata{"role": "farmer", "referred_by": "AGT12345"})
	require.NoError(t, err)
	assert.Equal(t, "u-9", actor.ID)
	assert.Equal(t, map[string]any{"role": "farmer", "referred_by": "AGT12345"}, got["data"])
}

func TestSignUpDuplicate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
	})

	_, err := c.SignUp(context.Background(), "a@b.com", "Secret123", remote.Metadata{"role": "buyer"})
	assert.ErrorIs(t, err, remote.ErrAlreadyExists)
}

func TestReadBuildsPostgrestQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/listings", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*,farmer:farmer_id(full_name,location)", q.Get("select"))
		assert.Equal(t, "eq.f-1", q.Get("farmer_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"l-1","title":"Yam","farmer":{"full_name":"John","location":"Oyo"}}]`))
	})

	recs, err := c.Scoped("user-token").Read(context.Background(), remote.Query{
		Collection: remote.Listings,
		Filters:    []remote.Filter{remote.Eq("farmer_id", "f-1")},
		Expand:     []remote.Expansion{{Alias: "farmer", Column: "farmer_id", Fields: []string{"full_name", "location"}}},
		Order:      remote.NewestFirst,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Yam", recs[0]["title"])
}

func TestReadUnknownCollection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"PGRST205","message":"Could not find the table 'public.listings' in the schema cache"}`))
	})

	_, err := c.Scoped("").Read(context.Background(), remote.Query{Collection: remote.Listings})
	assert.ErrorIs(t, err, remote.ErrUnknownCollection)
}

func TestUpdateByPrimaryKey(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.u-1", r.URL.Query().Get("id"))
		var patch map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, map[string]any{"verified": true}, patch)
		if calls == 1 {
			_, _ = w.Write([]byte(`[{"id":"u-1","verified":true}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	cols := c.Scoped("tok")
	require.NoError(t, cols.Update(context.Background(), remote.Profiles, "u-1", remote.Record{"verified": true}))
	assert.ErrorIs(t, cols.Update(context.Background(), remote.Profiles, "u-1", remote.Record{"verified": true}), remote.ErrNotFound)
}

func TestCurrentActorWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
	})

	_, err := c.CurrentActor(context.Background(), "expired")
	assert.ErrorIs(t, err, remote.ErrNoSession)
	assert.ErrorIs(t, c.SignOut(context.Background(), "expired"), remote.ErrNoSession)
}
