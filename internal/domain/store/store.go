// Package store defines the tenant-scoped document store contract.
//
// Every operation resolves the tenant from the request context and merges
// it into the query before touching the backing store; a caller can never
// observe or mutate a document owned by another tenant, even when it
// supplies the document id directly. The implementation lives in
// infrastructure/storage/postgres.
package store

import (
	"context"
	"time"

	"stockbook/internal/core/id"
)

// Kind is the logical document type (maps to one collection/table).
type Kind string

const (
	KindCustomers Kind = "customers"
	KindSuppliers Kind = "suppliers"
	KindProducts  Kind = "products"
	KindInvoices  Kind = "invoices"
	KindPurchases Kind = "purchases"
	KindSales     Kind = "sales"
	KindRefunds   Kind = "refunds"
)

// Kinds lists all document kinds the store serves.
func Kinds() []Kind {
	return []Kind{
		KindCustomers, KindSuppliers, KindProducts,
		KindInvoices, KindPurchases, KindSales, KindRefunds,
	}
}

// sequencePrefixes maps numbered kinds to their human-readable prefix.
// Kinds absent from this map are stored without a sequential number.
var sequencePrefixes = map[Kind]string{
	KindCustomers: "CUST-",
	KindSuppliers: "SUPP-",
	KindProducts:  "PROD-",
	KindInvoices:  "INV-",
	KindPurchases: "PO-",
	KindSales:     "SO-",
}

// SequencePrefix returns the number prefix for a kind and whether the
// kind is numbered at all.
func SequencePrefix(kind Kind) (string, bool) {
	p, ok := sequencePrefixes[kind]
	return p, ok
}

// Document is a tenant-owned record. Kind-specific fields live in
// Attributes; the remaining fields are stamped by the store.
type Document struct {
	ID               id.ID          `json:"id"`
	TenantID         string         `json:"tenantId"`
	SequentialNumber string         `json:"sequentialNumber,omitempty"`
	Attributes       map[string]any `json:"attributes"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Attr returns a named attribute or nil.
func (d *Document) Attr(key string) any {
	if d.Attributes == nil {
		return nil
	}
	return d.Attributes[key]
}

// StringAttr returns a named attribute as string ("" when absent).
func (d *Document) StringAttr(key string) string {
	if s, ok := d.Attr(key).(string); ok {
		return s
	}
	return ""
}

// Draft is the input to Create. When SequentialNumber is empty and the
// kind is numbered, the store allocates one.
type Draft struct {
	SequentialNumber string
	Attributes       map[string]any
}

// Query filters documents by field equality. Keys name either a stamped
// field (id, sequential_number) or an attribute; a caller-supplied
// tenant_id is always discarded in favor of the context tenant.
type Query map[string]any

// Update names the fields to set. id, tenant_id, and sequential_number
// are immutable; updated_at is refreshed on every update.
type Update map[string]any

// FindOptions control ordering and pagination of Find.
type FindOptions struct {
	OrderBy string // field name, stamped or attribute
	Desc    bool
	Offset  uint64
	Limit   uint64
}

// Store is the tenant-scoped document store.
// All operations fail with Unauthenticated, before any store access,
// when the context carries no tenant.
type Store interface {
	// Create stamps tenant, timestamps, and (for numbered kinds) a
	// sequential number, persists the draft, and returns the stored document.
	Create(ctx context.Context, kind Kind, draft Draft) (*Document, error)

	// Find returns all matching documents for the context tenant.
	Find(ctx context.Context, kind Kind, query Query, opts FindOptions) ([]*Document, error)

	// FindOne returns the first match or (nil, nil) when nothing matches.
	FindOne(ctx context.Context, kind Kind, query Query) (*Document, error)

	// FindOneForUpdate is FindOne with the matched row locked until the
	// enclosing unit of work ends. Concurrent callers locking the same
	// document serialize against each other. Only meaningful inside a
	// tx.Manager unit of work.
	FindOneForUpdate(ctx context.Context, kind Kind, query Query) (*Document, error)

	// UpdateOne updates at most one matching document and reports how many matched.
	UpdateOne(ctx context.Context, kind Kind, query Query, update Update) (int64, error)

	// DeleteOne deletes at most one matching document and reports how many were deleted.
	DeleteOne(ctx context.Context, kind Kind, query Query) (int64, error)

	// Count reports how many documents match for the context tenant.
	Count(ctx context.Context, kind Kind, query Query) (int64, error)
}
