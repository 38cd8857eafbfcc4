package postgres

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/reports"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo runs aggregate queries over the document tables.
type ReportRepo struct {
	txm *TxManager
}

// NewReportRepo creates a report repository on top of the tx manager.
func NewReportRepo(txm *TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

const salesSummarySQL = `
	SELECT COUNT(*) AS sales_count,
	       COALESCE(SUM((attributes->>'total_amount')::numeric), 0) AS revenue
	FROM sales
	WHERE tenant_id = $1
	  AND attributes->>'status' = 'completed'
	  AND created_at >= $2 AND created_at < $3
`

// SalesSummary aggregates completed sales over [from, to).
func (r *ReportRepo) SalesSummary(ctx context.Context, tenantID string, from, to time.Time) (*reports.SalesSummary, error) {
	var count int64
	var revenue decimal.Decimal
	err := r.txm.GetQuerier(ctx).
		QueryRow(ctx, salesSummarySQL, tenantID, from, to).
		Scan(&count, &revenue)
	if err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}

	return &reports.SalesSummary{
		From:       from,
		To:         to,
		SalesCount: count,
		Revenue:    revenue,
	}, nil
}

// StockLevels returns current product quantities, lowest first.
func (r *ReportRepo) StockLevels(ctx context.Context, tenantID string, belowOnly bool, threshold int64) ([]reports.StockLevel, error) {
	sql := `
		SELECT id::text AS product_id,
		       COALESCE(attributes->>'name', '') AS name,
		       quantity
		FROM products
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if belowOnly {
		sql += " AND quantity <= $2"
		args = append(args, threshold)
	}
	sql += " ORDER BY quantity, name"

	var levels []reports.StockLevel
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}
	return levels, nil
}

const topProductsSQL = `
	SELECT line->>'product_id' AS product_id,
	       COALESCE(MAX(p.attributes->>'name'), '') AS name,
	       SUM((line->>'quantity')::bigint) AS sold
	FROM sales s
	CROSS JOIN LATERAL jsonb_array_elements(s.attributes->'lines') AS line
	LEFT JOIN products p
	       ON p.id::text = line->>'product_id' AND p.tenant_id = s.tenant_id
	WHERE s.tenant_id = $1
	  AND s.attributes->>'status' = 'completed'
	  AND s.created_at >= $2 AND s.created_at < $3
	GROUP BY line->>'product_id'
	ORDER BY sold DESC
	LIMIT $4
`

// TopProducts ranks products by quantity sold over [from, to).
func (r *ReportRepo) TopProducts(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]reports.TopProduct, error) {
	var top []reports.TopProduct
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &top, topProductsSQL, tenantID, from, to, limit)
	if err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}
	return top, nil
}
