package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/inventory"
)

var _ inventory.Adjuster = (*InventoryAdjuster)(nil)

// InventoryAdjuster applies stock deltas as a single atomic UPDATE.
// The returned quantity may be negative; callers decide whether that
// is a rejection (sales) or acceptable (never, currently) and roll the
// surrounding transaction back.
type InventoryAdjuster struct {
	txm *TxManager
}

// NewInventoryAdjuster creates an adjuster on top of the tx manager.
func NewInventoryAdjuster(txm *TxManager) *InventoryAdjuster {
	return &InventoryAdjuster{txm: txm}
}

const adjustQuantitySQL = `
	UPDATE products
	SET quantity = quantity + $1, updated_at = now()
	WHERE id = $2 AND tenant_id = $3
	RETURNING quantity
`

// AdjustQuantity adds delta to the product's quantity and returns the
// resulting value. A product the tenant does not own is ProductNotFound.
func (a *InventoryAdjuster) AdjustQuantity(ctx context.Context, productID id.ID, delta int64) (int64, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}

	var quantity int64
	err = a.txm.GetQuerier(ctx).
		QueryRow(ctx, adjustQuantitySQL, delta, productID, tenantID).
		Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewProductNotFound(productID.String())
		}
		return 0, apperror.NewStoreUnavailable(err)
	}
	return quantity, nil
}
