// Package storetest provides an in-memory store fake for service tests.
//
// The fake honors the same contracts as the PostgreSQL implementation:
// tenant scoping on every operation, Unauthenticated without a tenant,
// per-tenant gap-free numbering, and all-or-nothing transactions via
// snapshot rollback.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/sequence"
	"stockbook/internal/domain/store"
)

// Fake is an in-memory document store. It implements store.Store,
// sequence.Allocator, inventory.Adjuster, and tx.Manager.
type Fake struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	docs     map[store.Kind][]*store.Document
	counters map[string]int64

	// FailWith, when set, makes every store operation fail with the
	// given error. Used to simulate infrastructure faults.
	FailWith error
}

// New creates an empty fake store.
func New() *Fake {
	return &Fake{
		docs:     make(map[store.Kind][]*store.Document),
		counters: make(map[string]int64),
	}
}

// --- store.Store ---

func (f *Fake) Create(ctx context.Context, kind store.Kind, draft store.Draft) (*store.Document, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if f.FailWith != nil {
		return nil, apperror.NewStoreUnavailable(f.FailWith)
	}

	number := draft.SequentialNumber
	if number == "" {
		if prefix, ok := store.SequencePrefix(kind); ok {
			number, err = f.Next(ctx, tid, kind, prefix)
			if err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	doc := &store.Document{
		ID:               id.New(),
		TenantID:         tid,
		SequentialNumber: number,
		Attributes:       cloneAttrs(draft.Attributes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[kind] = append(f.docs[kind], doc)
	return cloneDoc(doc), nil
}

func (f *Fake) Find(ctx context.Context, kind store.Kind, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if f.FailWith != nil {
		return nil, apperror.NewStoreUnavailable(f.FailWith)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*store.Document
	for _, doc := range f.docs[kind] {
		if doc.TenantID == tid && matches(doc, query) {
			out = append(out, cloneDoc(doc))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		less := out[i].CreatedAt.Before(out[j].CreatedAt)
		if opts.Desc {
			return !less
		}
		return less
	})

	if opts.Offset > 0 {
		if int(opts.Offset) >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && int(opts.Limit) < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *Fake) FindOne(ctx context.Context, kind store.Kind, query store.Query) (*store.Document, error) {
	docs, err := f.Find(ctx, kind, query, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// FindOneForUpdate behaves like FindOne. Row locking comes for free
// here: the fake serializes whole transactions, so a locked read inside
// one unit of work can never interleave with another.
func (f *Fake) FindOneForUpdate(ctx context.Context, kind store.Kind, query store.Query) (*store.Document, error) {
	return f.FindOne(ctx, kind, query)
}

func (f *Fake) UpdateOne(ctx context.Context, kind store.Kind, query store.Query, update store.Update) (int64, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}
	if f.FailWith != nil {
		return 0, apperror.NewStoreUnavailable(f.FailWith)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, doc := range f.docs[kind] {
		if doc.TenantID != tid || !matches(doc, query) {
			continue
		}
		for k, v := range update {
			switch k {
			case "id", "tenant_id", "sequential_number":
				// immutable
			default:
				if doc.Attributes == nil {
					doc.Attributes = make(map[string]any)
				}
				doc.Attributes[k] = v
			}
		}
		doc.UpdatedAt = time.Now().UTC()
		return 1, nil
	}
	return 0, nil
}

func (f *Fake) DeleteOne(ctx context.Context, kind store.Kind, query store.Query) (int64, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}
	if f.FailWith != nil {
		return 0, apperror.NewStoreUnavailable(f.FailWith)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	docs := f.docs[kind]
	for i, doc := range docs {
		if doc.TenantID == tid && matches(doc, query) {
			f.docs[kind] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *Fake) Count(ctx context.Context, kind store.Kind, query store.Query) (int64, error) {
	docs, err := f.Find(ctx, kind, query, store.FindOptions{})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// --- sequence.Allocator ---

func (f *Fake) Next(ctx context.Context, tenantID string, kind store.Kind, prefix string) (string, error) {
	if tenantID == "" {
		return "", apperror.NewUnauthenticated("no tenant identity resolved")
	}
	if f.FailWith != nil {
		return "", apperror.NewStoreUnavailable(f.FailWith)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := tenantID + ":" + string(kind)
	f.counters[key]++
	return sequence.Format(prefix, f.counters[key]), nil
}

// --- inventory.Adjuster ---

func (f *Fake) AdjustQuantity(ctx context.Context, productID id.ID, delta int64) (int64, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}
	if f.FailWith != nil {
		return 0, apperror.NewStoreUnavailable(f.FailWith)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, doc := range f.docs[store.KindProducts] {
		if doc.TenantID != tid || doc.ID != productID {
			continue
		}
		qty := toInt64(doc.Attributes["quantity"]) + delta
		doc.Attributes["quantity"] = qty
		doc.UpdatedAt = time.Now().UTC()
		return qty, nil
	}
	return 0, apperror.NewProductNotFound(productID.String())
}

// --- tx.Manager ---

type txKey struct{}

// RunInTransaction snapshots all state, runs fn, and restores the
// snapshot if fn fails, giving the same all-or-nothing semantics as a
// real database transaction. Transactions are serialized against each
// other; nested calls join the outer transaction.
func (f *Fake) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		f.mu.Lock()
		f.docs = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

// --- test helpers ---

// ProductQuantity reads a product's current stock without tenant checks.
func (f *Fake) ProductQuantity(productID id.ID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs[store.KindProducts] {
		if doc.ID == productID {
			return toInt64(doc.Attributes["quantity"])
		}
	}
	return 0
}

// DocCount reports how many documents of a kind exist across all tenants.
func (f *Fake) DocCount(kind store.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs[kind])
}

func (f *Fake) snapshotLocked() map[store.Kind][]*store.Document {
	snap := make(map[store.Kind][]*store.Document, len(f.docs))
	for kind, docs := range f.docs {
		copies := make([]*store.Document, len(docs))
		for i, d := range docs {
			copies[i] = cloneDoc(d)
		}
		snap[kind] = copies
	}
	return snap
}

func matches(doc *store.Document, query store.Query) bool {
	for k, v := range query {
		switch k {
		case "tenant_id":
			// the context tenant always wins; caller-supplied values are ignored
		case "id":
			if fmt.Sprint(doc.ID) != fmt.Sprint(v) {
				return false
			}
		case "sequential_number":
			if doc.SequentialNumber != fmt.Sprint(v) {
				return false
			}
		default:
			attr, ok := doc.Attributes[k]
			if !ok || fmt.Sprint(attr) != fmt.Sprint(v) {
				return false
			}
		}
	}
	return true
}

func cloneDoc(d *store.Document) *store.Document {
	c := *d
	c.Attributes = cloneAttrs(d.Attributes)
	return &c
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
