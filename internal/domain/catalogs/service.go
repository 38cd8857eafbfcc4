// Package catalogs provides CRUD services for reference documents:
// customers, suppliers, products, and invoices. These kinds are
// structurally identical; one generic service covers them all, with
// product stock handling layered on top in products.go.
package catalogs

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/store"
)

// Service is a tenant-scoped CRUD facade over one document kind.
type Service struct {
	store store.Store
	kind  store.Kind
}

// NewService creates a catalog service for the given kind.
func NewService(st store.Store, kind store.Kind) *Service {
	return &Service{store: st, kind: kind}
}

// Kind returns the document kind this service manages.
func (s *Service) Kind() store.Kind {
	return s.kind
}

// Create persists a new catalog document.
func (s *Service) Create(ctx context.Context, attrs map[string]any) (*store.Document, error) {
	if _, err := tenant.RequireID(ctx); err != nil {
		return nil, err
	}
	if name, _ := attrs["name"].(string); name == "" {
		return nil, apperror.NewValidation("name", "name is required")
	}
	return s.store.Create(ctx, s.kind, store.Draft{Attributes: attrs})
}

// Get returns a document by id or NotFound.
func (s *Service) Get(ctx context.Context, docID id.ID) (*store.Document, error) {
	doc, err := s.store.FindOne(ctx, s.kind, store.Query{"id": docID})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound(string(s.kind), docID.String())
	}
	return doc, nil
}

// List returns documents matching the query.
func (s *Service) List(ctx context.Context, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	return s.store.Find(ctx, s.kind, query, opts)
}

// Count reports how many documents match the query.
func (s *Service) Count(ctx context.Context, query store.Query) (int64, error) {
	return s.store.Count(ctx, s.kind, query)
}

// Update applies a partial update by id.
func (s *Service) Update(ctx context.Context, docID id.ID, update store.Update) (*store.Document, error) {
	matched, err := s.store.UpdateOne(ctx, s.kind, store.Query{"id": docID}, update)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, apperror.NewNotFound(string(s.kind), docID.String())
	}
	return s.Get(ctx, docID)
}

// Delete removes a document by id.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	deleted, err := s.store.DeleteOne(ctx, s.kind, store.Query{"id": docID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperror.NewNotFound(string(s.kind), docID.String())
	}
	return nil
}
