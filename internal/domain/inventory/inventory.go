// Package inventory defines the atomic stock adjustment contract.
package inventory

import (
	"context"

	"stockbook/internal/core/id"
)

// Adjuster applies tenant-scoped stock quantity changes.
//
// The adjustment must be a single atomic read-modify-write against the
// store (UPDATE ... RETURNING), never a read-then-write in application
// code, so concurrent adjustments for the same product never lose updates.
type Adjuster interface {
	// AdjustQuantity adds delta (negative to decrement) to the product's
	// quantity and returns the resulting value. Fails with
	// ProductNotFound when the tenant owns no such product.
	//
	// A negative result is returned, not rejected: the caller decides
	// whether to roll back the enclosing unit of work.
	AdjustQuantity(ctx context.Context, productID id.ID, delta int64) (int64, error)
}
