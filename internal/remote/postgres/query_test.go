package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/remote"
)

func TestBuildSelect(t *testing.T) {
	t.Run("scoped with expansion and order", func(t *testing.T) {
		sql, args, err := buildSelect(remote.Query{
			Collection: remote.Reviews,
			Filters:    []remote.Filter{remote.Eq("farmer_id", "f-1")},
			Expand: []remote.Expansion{{
				Alias: "buyer", Column: "buyer_id", Fields: []string{"full_name", "avatar_url"},
			}},
			Order: remote.NewestFirst,
		})
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT to_jsonb(t) || jsonb_build_object($1::text, (SELECT jsonb_build_object('full_name', x0."full_name", 'avatar_url', x0."avatar_url") FROM "profiles" x0 WHERE x0.id = t."buyer_id")) FROM "reviews" t WHERE t."farmer_id" = $2 ORDER BY t."created_at" DESC`,
			sql)
		assert.Equal(t, []any{"buyer", "f-1"}, args)
	})

	t.Run("full table with projection", func(t *testing.T) {
		sql, args, err := buildSelect(remote.Query{Collection: remote.Profiles, Columns: []string{"role", "verified"}})
		require.NoError(t, err)
		assert.Equal(t, `SELECT jsonb_build_object('role', t."role", 'verified', t."verified") FROM "profiles" t`, sql)
		assert.Empty(t, args)
	})

	t.Run("rejects unknown identifiers", func(t *testing.T) {
		_, _, err := buildSelect(remote.Query{Collection: remote.Profiles, Filters: []remote.Filter{remote.Eq("1=1; drop", 1)}})
		assert.ErrorIs(t, err, remote.ErrInvalidQuery)

		_, _, err = buildSelect(remote.Query{Collection: "secrets"})
		assert.ErrorIs(t, err, remote.ErrUnknownCollection)
	})
}

func TestBuildUpdate(t *testing.T) {
	sql, args, err := buildUpdate(remote.Profiles, "u-1", remote.Record{"verified": true})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "profiles" SET "verified" = $1 WHERE id = $2`, sql)
	assert.Equal(t, []any{true, "u-1"}, args)

	_, _, err = buildUpdate(remote.Profiles, "u-1", remote.Record{"id": "u-2"})
	assert.ErrorIs(t, err, remote.ErrInvalidQuery)
}

func TestBuildInsert(t *testing.T) {
	rec := remote.Record{"id": "u-1", "full_name": "Ada", "phone": "+234"}

	sql, args, err := buildInsert(remote.Profiles, rec, true)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "profiles" AS t ("full_name", "id", "phone") VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET "full_name" = EXCLUDED."full_name", "phone" = EXCLUDED."phone"`,
		sql)
	assert.Equal(t, []any{"Ada", "u-1", "+234"}, args)

	sql, _, err = buildInsert(remote.Listings, remote.Record{"id": "l-1", "title": "Yam"}, false)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "listings" AS t ("id", "title") VALUES ($1, $2) RETURNING to_jsonb(t)`, sql)
}
