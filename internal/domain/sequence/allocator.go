// Package sequence defines the document numbering contract.
//
// Numbers are gap-free and strictly increasing per (tenant, kind),
// starting at 1. Correctness rests on the store's atomic
// increment-and-return primitive, never on an in-process lock: several
// server instances may allocate for the same tenant concurrently.
package sequence

import (
	"context"
	"fmt"

	"stockbook/internal/domain/store"
)

// PadWidth is the minimum digit width of formatted numbers.
// Padding only widens; values beyond 9999 render at full length.
const PadWidth = 4

// Allocator issues the next sequential document number.
type Allocator interface {
	// Next atomically increments the counter for (tenantID, kind) and
	// returns the formatted number. On store failure no number is
	// issued (no partial allocation).
	Next(ctx context.Context, tenantID string, kind store.Kind, prefix string) (string, error)
}

// Format renders a counter value as a prefixed, zero-padded number,
// e.g. 7 -> "SO-0007", 12345 -> "SO-12345".
func Format(prefix string, value int64) string {
	return fmt.Sprintf("%s%0*d", prefix, PadWidth, value)
}
