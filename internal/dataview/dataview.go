// Package dataview runs the fetch-and-render cycle shared by every dashboard page: one scoped read on open,
// an optional single-row write, and a declared refresh strategy afterwards.
package dataview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// ErrUnscoped is returned when an owner-scoped view is opened without an authenticated actor.
var ErrUnscoped = errors.New("view requires an authenticated actor")

// Policy says how a page refreshes its rows after a successful write.
type Policy int

const (
	// Refetch re-reads the whole view.
	Refetch Policy = iota
	// PatchLocal applies the written fields to the local row without reading.
	PatchLocal
)

// State is the outcome of the last read.
type State int

const (
	// Loaded means the read succeeded and returned rows.
	Loaded State = iota
	// Empty means the read succeeded with no rows; the view's empty message is shown.
	Empty
	// Failed means the read errored; rows are empty and a destructive notice says why.
	Failed
	// Fallback means the read errored and the view's static rows are shown instead.
	Fallback
)

var stateNames = map[State]string{
	Loaded:   "loaded",
	Empty:    "empty",
	Failed:   "failed",
	Fallback: "fallback",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown page state %q", text)
}

// Env is what a page needs to talk to the backend on behalf of one actor.
type Env struct {
	Collections remote.Collections
	Log         *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// View declares one page's data: where it lives, whose rows it shows, and how it refreshes.
type View[T any] struct {
	Name       string
	Collection string
	Columns    []string
	// Scope narrows the read to the actor's rows. A nil Scope reads the full collection.
	Scope  func(actor remote.Actor) []remote.Filter
	Expand []remote.Expansion
	// Order defaults to newest first.
	Order   *remote.Order
	Key     func(T) string
	Refresh Policy
	// Fallback supplies static rows when the read fails.
	Fallback     func() []T
	EmptyMessage string
	ErrorTitle   string
}

func (v View[T]) query(actor remote.Actor) (remote.Query, error) {
	q := remote.Query{
		Collection: v.Collection,
		Columns:    v.Columns,
		Expand:     v.Expand,
		Order:      v.Order,
	}
	if q.Order == nil {
		q.Order = remote.NewestFirst
	}
	if v.Scope != nil {
		if actor.ID == "" {
			return remote.Query{}, ErrUnscoped
		}
		q.Filters = v.Scope(actor)
	}
	return q, nil
}

func (v View[T]) errorTitle() string {
	if v.ErrorTitle != "" {
		return v.ErrorTitle
	}
	return "Error fetching " + v.Name
}

// Page is an opened view: its rows, the state of the last read, and notices raised along the way.
type Page[T any] struct {
	Rows         []T             `json:"rows"`
	State        State           `json:"state"`
	EmptyMessage string          `json:"empty_message,omitempty"`
	Notices      []models.Notice `json:"notices,omitempty"`

	err   error
	view  View[T]
	env   Env
	actor remote.Actor
}

// Open performs the view's single read for actor.
func Open[T any](ctx context.Context, env Env, actor remote.Actor, view View[T]) *Page[T] {
	p := &Page[T]{view: view, env: env, actor: actor}
	p.load(ctx)
	return p
}

// Attach returns a page for view without reading it, for handlers that write before they render.
func Attach[T any](env Env, actor remote.Actor, view View[T]) *Page[T] {
	return &Page[T]{Rows: []T{}, State: Empty, view: view, env: env, actor: actor}
}

// Err is the error of the last read, nil unless State is Failed or Fallback.
func (p *Page[T]) Err() error {
	return p.err
}

// Reload repeats the read.
func (p *Page[T]) Reload(ctx context.Context) {
	p.load(ctx)
}

// Notify appends a notice to the page.
func (p *Page[T]) Notify(n models.Notice) {
	p.Notices = append(p.Notices, n)
}

func (p *Page[T]) load(ctx context.Context) {
	rows, err := Fetch(ctx, p.env, p.actor, p.view)
	p.err = err
	switch {
	case err != nil && p.view.Fallback != nil:
		p.Rows = p.view.Fallback()
		p.State = Fallback
	case err != nil:
		p.Rows = []T{}
		p.State = Failed
		p.Notify(models.Alert(p.view.errorTitle(), err.Error()))
	default:
		p.Rows = rows
		p.settle()
	}
}

func (p *Page[T]) settle() {
	if len(p.Rows) == 0 {
		p.State = Empty
		p.EmptyMessage = p.view.EmptyMessage
		return
	}
	p.State = Loaded
	p.EmptyMessage = ""
}

// Filter returns a copy of the page keeping only rows matching keep. The state reflects the filtered rows.
func (p *Page[T]) Filter(keep func(T) bool, emptyMessage string) *Page[T] {
	out := &Page[T]{Rows: []T{}, State: p.State, Notices: p.Notices, err: p.err, view: p.view, env: p.env, actor: p.actor}
	for _, row := range p.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	if p.State == Loaded || p.State == Empty {
		out.view.EmptyMessage = emptyMessage
		out.settle()
	}
	return out
}

// Mutate writes patch to the row with id and then refreshes according to the view's policy.
// On a write error the rows are left untouched and fail is raised, described by the error unless it says otherwise.
func (p *Page[T]) Mutate(ctx context.Context, id string, patch remote.Record, fail models.Notice) error {
	if err := p.env.Collections.Update(ctx, p.view.Collection, id, patch); err != nil {
		p.env.logger().Warn("row update failed",
			zap.String("view", p.view.Name),
			zap.String("collection", p.view.Collection),
			zap.String("actor", p.actor.ID),
			zap.String("row", id),
			zap.Error(err))
		if fail.Description == "" {
			fail.Description = err.Error()
		}
		p.Notify(fail)
		return fmt.Errorf("update %s %s: %w", p.view.Collection, id, err)
	}

	switch p.view.Refresh {
	case PatchLocal:
		return p.patch(id, patch)
	default:
		p.load(ctx)
		return nil
	}
}

func (p *Page[T]) patch(id string, patch remote.Record) error {
	for i, row := range p.Rows {
		if p.view.Key(row) != id {
			continue
		}
		merged, err := apply(row, patch)
		if err != nil {
			return fmt.Errorf("patch %s %s: %w", p.view.Collection, id, err)
		}
		p.Rows[i] = merged
		return nil
	}
	return nil
}

// apply overlays patch onto row through their JSON forms.
func apply[T any](row T, patch remote.Record) (T, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return row, err
	}
	var rec remote.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return row, err
	}
	for k, v := range patch {
		rec[k] = v
	}
	return remote.Decode[T](rec)
}

// Fetch reads the view for actor and decodes every row. Failures are logged.
func Fetch[T any](ctx context.Context, env Env, actor remote.Actor, view View[T]) ([]T, error) {
	rows, err := fetch[T](ctx, env, actor, view)
	if err != nil {
		env.logger().Warn("view read failed",
			zap.String("view", view.Name),
			zap.String("collection", view.Collection),
			zap.String("actor", actor.ID),
			zap.Error(err))
	}
	return rows, err
}

func fetch[T any](ctx context.Context, env Env, actor remote.Actor, view View[T]) ([]T, error) {
	q, err := view.query(actor)
	if err != nil {
		return nil, err
	}
	recs, err := env.Collections.Read(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", view.Collection, err)
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		row, err := remote.Decode[T](rec)
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", view.Collection, rec.ID(), err)
		}
		out = append(out, row)
	}
	return out, nil
}
