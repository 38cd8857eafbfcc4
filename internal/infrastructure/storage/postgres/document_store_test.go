package postgres

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/domain/store"
)

func TestSelectQuery_MergesContextTenant(t *testing.T) {
	sql, args, err := selectQuery(store.KindCustomers, "tenant-a", store.Query{"name": "ACME Ltd"}, store.FindOptions{})
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM customers")
	assert.Contains(t, sql, "tenant_id = $1")
	assert.Contains(t, args, "tenant-a")
	assert.Contains(t, sql, "attributes->>")
}

func TestSelectQuery_CallerTenantIDDiscarded(t *testing.T) {
	sql, args, err := selectQuery(store.KindCustomers, "tenant-a",
		store.Query{"tenant_id": "tenant-b"}, store.FindOptions{})
	require.NoError(t, err)

	assert.Contains(t, args, "tenant-a")
	assert.NotContains(t, args, "tenant-b")
	// exactly one tenant predicate
	assert.Equal(t, 1, countOccurrences(sql, "tenant_id = $"))
}

func TestSelectQuery_ProductsFoldQuantityColumn(t *testing.T) {
	sql, _, err := selectQuery(store.KindProducts, "tenant-a", store.Query{"quantity": int64(0)}, store.FindOptions{})
	require.NoError(t, err)

	assert.Contains(t, sql, "jsonb_build_object('quantity', quantity)")
	assert.Contains(t, sql, "quantity = $2")
}

func TestSelectQuery_OrderByWhitelisted(t *testing.T) {
	sql, _, err := selectQuery(store.KindSales, "tenant-a", store.Query{},
		store.FindOptions{OrderBy: "sequential_number", Desc: true, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY sequential_number DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 20")

	// unknown order fields fall back to created_at instead of reaching SQL
	sql, _, err = selectQuery(store.KindSales, "tenant-a", store.Query{},
		store.FindOptions{OrderBy: "1; DROP TABLE sales"})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY created_at")
	assert.NotContains(t, sql, "DROP TABLE")
}

func TestSelectForUpdateQuery_LocksRowWithinTenant(t *testing.T) {
	sql, args, err := selectForUpdateQuery(store.KindSales, "tenant-a", store.Query{"id": "sale-1"})
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM sales")
	assert.Contains(t, sql, "tenant_id = $1")
	assert.Contains(t, sql, "LIMIT 1")
	assert.True(t, strings.HasSuffix(sql, "FOR UPDATE"))
	assert.Contains(t, args, "tenant-a")
}

func TestMatchOneExpr_LimitsToOneRowWithinTenant(t *testing.T) {
	match, err := matchOneExpr(store.KindSales, "tenant-a", store.Query{"status": "pending"})
	require.NoError(t, err)

	sql, args, err := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Delete("sales").
		Where(squirrel.Eq{"tenant_id": "tenant-a"}).
		Where(match).
		ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "id IN (SELECT id FROM sales WHERE")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Equal(t, []any{"tenant-a", "tenant-a", "status", "pending"}, args)
}

func TestConditions_StampedFieldsUseColumns(t *testing.T) {
	conds := conditions(store.KindSales, "tenant-a", store.Query{"sequential_number": "SO-0001"})
	sql, args, err := conds.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "sequential_number = ?")
	assert.Contains(t, args, "SO-0001")
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
