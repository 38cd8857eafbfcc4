package postgres

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/sequence"
	"stockbook/internal/domain/store"
)

var _ sequence.Allocator = (*SequenceAllocator)(nil)

// querierSource yields the querier for the current context. Satisfied
// by TxManager; tests substitute a fixed querier.
type querierSource interface {
	GetQuerier(ctx context.Context) Querier
}

// SequenceAllocator issues gap-free per (tenant, kind) document numbers
// backed by the sys_sequences table. One atomic upsert-increment per
// number: the row lock serializes concurrent allocators, so no two
// callers ever observe the same value.
type SequenceAllocator struct {
	src querierSource
}

// NewSequenceAllocator creates an allocator on top of the tx manager.
func NewSequenceAllocator(txm *TxManager) *SequenceAllocator {
	return &SequenceAllocator{src: txm}
}

const nextSequenceSQL = `
	INSERT INTO sys_sequences (tenant_id, kind, current_val)
	VALUES ($1, $2, 1)
	ON CONFLICT (tenant_id, kind) DO UPDATE SET current_val = sys_sequences.current_val + 1
	RETURNING current_val
`

// Next increments the counter for (tenantID, kind) and returns the
// formatted number.
func (a *SequenceAllocator) Next(ctx context.Context, tenantID string, kind store.Kind, prefix string) (string, error) {
	if tenantID == "" {
		return "", apperror.NewUnauthenticated("no tenant identity resolved")
	}

	var val int64
	err := a.src.GetQuerier(ctx).QueryRow(ctx, nextSequenceSQL, tenantID, string(kind)).Scan(&val)
	if err != nil {
		return "", apperror.NewStoreUnavailable(err)
	}
	return sequence.Format(prefix, val), nil
}
