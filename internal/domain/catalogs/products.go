package catalogs

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/store"
	"stockbook/pkg/logger"
)

// ProductService extends the catalog service with stock handling.
type ProductService struct {
	*Service
	inv inventory.Adjuster
	txm tx.Manager
}

// NewProductService creates the products catalog service.
func NewProductService(st store.Store, inv inventory.Adjuster, txm tx.Manager) *ProductService {
	return &ProductService{
		Service: NewService(st, store.KindProducts),
		inv:     inv,
		txm:     txm,
	}
}

// Create persists a new product. Quantity defaults to zero and must not
// start negative.
func (s *ProductService) Create(ctx context.Context, attrs map[string]any) (*store.Document, error) {
	if qty, ok := attrs["quantity"]; ok {
		if toInt64(qty) < 0 {
			return nil, apperror.NewValidation("quantity", "quantity must not be negative")
		}
	}
	return s.Service.Create(ctx, attrs)
}

// Update applies a partial update. A quantity in the update must not be
// negative, same as on create.
func (s *ProductService) Update(ctx context.Context, productID id.ID, update store.Update) (*store.Document, error) {
	if qty, ok := update["quantity"]; ok {
		if toInt64(qty) < 0 {
			return nil, apperror.NewValidation("quantity", "quantity must not be negative")
		}
	}
	return s.Service.Update(ctx, productID, update)
}

// AdjustStock applies a manual stock correction (stocktake, shrinkage).
// The resulting quantity must not be negative; a rejected correction is
// rolled back with the rest of the unit of work, so the transient
// negative value is never observable.
func (s *ProductService) AdjustStock(ctx context.Context, productID id.ID, delta int64) (int64, error) {
	if _, err := tenant.RequireID(ctx); err != nil {
		return 0, err
	}
	if delta == 0 {
		return 0, apperror.NewValidation("delta", "delta must not be zero")
	}

	var remaining int64
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		result, err := s.inv.AdjustQuantity(ctx, productID, delta)
		if err != nil {
			return err
		}
		if result < 0 {
			return apperror.NewInsufficientStock(productID.String(), -delta, result-delta)
		}
		remaining = result
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "stock adjusted", "product_id", productID, "delta", delta, "quantity", remaining)
	return remaining, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
