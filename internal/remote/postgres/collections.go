package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

// Read runs q and returns each row as a JSON object, expansions nested under their alias.
func (s *Store) Read(ctx context.Context, q remote.Query) ([]remote.Record, error) {
	sql, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (remote.Record, error) {
		var rec map[string]any
		if err := row.Scan(&rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Update patches the row with the given primary key.
func (s *Store) Update(ctx context.Context, collection, id string, patch remote.Record) error {
	sql, args, err := buildUpdate(collection, id, patch)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// Upsert inserts rec or overwrites the given columns of the row sharing its id.
func (s *Store) Upsert(ctx context.Context, collection string, rec remote.Record) error {
	if rec.ID() == "" {
		return fmt.Errorf("%w: upsert requires an id", remote.ErrInvalidQuery)
	}
	sql, args, err := buildInsert(collection, rec, true)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return translate(err)
	}
	return nil
}

// Insert adds rec, minting an id when absent, and returns the stored row.
func (s *Store) Insert(ctx context.Context, collection string, rec remote.Record) (remote.Record, error) {
	row := make(remote.Record, len(rec)+1)
	for k, v := range rec {
		row[k] = v
	}
	if row.ID() == "" {
		row["id"] = uuid.NewString()
	}
	sql, args, err := buildInsert(collection, row, false)
	if err != nil {
		return nil, err
	}
	var stored map[string]any
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&stored); err != nil {
		return nil, translate(err)
	}
	return stored, nil
}

func buildSelect(q remote.Query) (string, []any, error) {
	if err := remote.CheckQuery(q); err != nil {
		return "", nil, err
	}

	var args []any
	row := "to_jsonb(t)"
	if len(q.Columns) > 0 {
		row = jsonObject("t", q.Columns)
	}
	for i, e := range q.Expand {
		alias := fmt.Sprintf("x%d", i)
		args = append(args, e.Alias)
		row += fmt.Sprintf(" || jsonb_build_object($%d::text, (SELECT %s FROM %s %s WHERE %s.id = t.%s))",
			len(args), jsonObject(alias, e.Fields), ident(e.TargetOrDefault()), alias, alias, ident(e.Column))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s t", row, ident(q.Collection))
	for i, f := range q.Filters {
		args = append(args, f.Value)
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "t.%s = $%d", ident(f.Column), len(args))
	}
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY t.%s %s", ident(q.Order.Column), dir)
	}
	return sb.String(), args, nil
}

func buildUpdate(collection, id string, patch remote.Record) (string, []any, error) {
	if err := remote.CheckRecord(collection, patch); err != nil {
		return "", nil, err
	}
	cols := sortedKeys(patch, "id")
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("%w: empty patch", remote.ErrInvalidQuery)
	}

	args := make([]any, 0, len(cols)+1)
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, patch[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(col), len(args)))
	}
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", ident(collection), strings.Join(sets, ", "), len(args))
	return sql, args, nil
}

func buildInsert(collection string, rec remote.Record, upsert bool) (string, []any, error) {
	if err := remote.CheckRecord(collection, rec); err != nil {
		return "", nil, err
	}
	cols := sortedKeys(rec, "")
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("%w: empty record", remote.ErrInvalidQuery)
	}

	args := make([]any, 0, len(cols))
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, rec[col])
		names = append(names, ident(col))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	sql := fmt.Sprintf("INSERT INTO %s AS t (%s) VALUES (%s)", ident(collection), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if upsert {
		var sets []string
		for _, col := range cols {
			if col == "id" {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", ident(col), ident(col)))
		}
		if len(sets) == 0 {
			sql += " ON CONFLICT (id) DO NOTHING"
		} else {
			sql += " ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
		}
		return sql, args, nil
	}
	return sql + " RETURNING to_jsonb(t)", args, nil
}

func jsonObject(alias string, columns []string) string {
	pairs := make([]string, 0, len(columns))
	for _, col := range columns {
		pairs = append(pairs, fmt.Sprintf("'%s', %s.%s", col, alias, ident(col)))
	}
	return "jsonb_build_object(" + strings.Join(pairs, ", ") + ")"
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys(rec remote.Record, skip string) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k != skip {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
