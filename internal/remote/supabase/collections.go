package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

type collections struct {
	client *Client
	token  string
}

// Read issues a PostgREST select, e.g. select=*,farmer:farmer_id(full_name)&farmer_id=eq.X&order=created_at.desc.
func (c *collections) Read(ctx context.Context, q remote.Query) ([]remote.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []remote.Record
	if err := c.client.do(ctx, http.MethodGet, restPath(q.Collection, readParams(q)), c.token, nil, nil, &out); err != nil {
		return nil, mapRestError(err)
	}
	return out, nil
}

// Update patches the row whose id matches.
func (c *collections) Update(ctx context.Context, collection, id string, patch remote.Record) error {
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty patch", remote.ErrInvalidQuery)
	}
	params := url.Values{"id": {"eq." + id}}
	header := http.Header{"Prefer": {"return=representation"}}
	var out []remote.Record
	if err := c.client.do(ctx, http.MethodPatch, restPath(collection, params), c.token, header, patch, &out); err != nil {
		return mapRestError(err)
	}
	if len(out) == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// Upsert merges rec into the row sharing its primary key.
func (c *collections) Upsert(ctx context.Context, collection string, rec remote.Record) error {
	if rec.ID() == "" {
		return fmt.Errorf("%w: upsert requires an id", remote.ErrInvalidQuery)
	}
	header := http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}}
	if err := c.client.do(ctx, http.MethodPost, restPath(collection, nil), c.token, header, rec, nil); err != nil {
		return mapRestError(err)
	}
	return nil
}

// Insert creates rec and returns the stored row.
func (c *collections) Insert(ctx context.Context, collection string, rec remote.Record) (remote.Record, error) {
	header := http.Header{"Prefer": {"return=representation"}}
	var out []remote.Record
	if err := c.client.do(ctx, http.MethodPost, restPath(collection, nil), c.token, header, rec, &out); err != nil {
		return nil, mapRestError(err)
	}
	if len(out) == 0 {
		return rec, nil
	}
	return out[0], nil
}

func readParams(q remote.Query) url.Values {
	params := url.Values{}
	params.Set("select", selectClause(q))
	for _, f := range q.Filters {
		params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	if q.Order != nil {
		dir := "asc"
		if q.Order.Descending {
			dir = "desc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	return params
}

func selectClause(q remote.Query) string {
	parts := []string{"*"}
	if len(q.Columns) > 0 {
		parts = append([]string(nil), q.Columns...)
	}
	for _, e := range q.Expand {
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", e.Alias, e.Column, strings.Join(e.Fields, ",")))
	}
	return strings.Join(parts, ",")
}

func mapRestError(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch code := apiErr.code(); {
	case code == "PGRST205" || code == "42P01":
		return fmt.Errorf("%w: %s", remote.ErrUnknownCollection, apiErr.text())
	case code == "23505" || apiErr.Status == http.StatusConflict:
		return remote.ErrAlreadyExists
	case code == "PGRST116":
		return remote.ErrNotFound
	case strings.HasPrefix(code, "PGRST1") || code == "22P02":
		return fmt.Errorf("%w: %s", remote.ErrInvalidQuery, apiErr.text())
	case apiErr.Status == http.StatusUnauthorized:
		return remote.ErrNoSession
	}
	return err
}
