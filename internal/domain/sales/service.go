package sales

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/sequence"
	"stockbook/internal/domain/store"
	"stockbook/pkg/logger"
)

// Service creates sales and applies their inventory effect as one
// atomic unit of work.
type Service struct {
	store store.Store
	seq   sequence.Allocator
	inv   inventory.Adjuster
	txm   tx.Manager
}

// NewService creates a new sales service.
func NewService(st store.Store, seq sequence.Allocator, inv inventory.Adjuster, txm tx.Manager) *Service {
	return &Service{store: st, seq: seq, inv: inv, txm: txm}
}

// Create persists a new sale. When the sale is created already completed,
// every line's product quantity is decremented inside the same
// transaction; if any decrement would drive stock negative the whole
// transaction is rolled back and no sale document exists afterwards.
func (s *Service) Create(ctx context.Context, in Input) (*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = StatusPending
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	prefix, _ := store.SequencePrefix(store.KindSales)
	number, err := s.seq.Next(ctx, tenantID, store.KindSales, prefix)
	if err != nil {
		return nil, err
	}

	attrs := map[string]any{
		"customer_name":  in.CustomerName,
		"lines":          linesAttr(in.Lines),
		"total_amount":   in.TotalAmount.String(),
		"payment_method": in.PaymentMethod,
		"status":         string(in.Status),
	}
	if in.Notes != "" {
		attrs["notes"] = in.Notes
	}

	var doc *store.Document
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		created, err := s.store.Create(ctx, store.KindSales, store.Draft{
			SequentialNumber: number,
			Attributes:       attrs,
		})
		if err != nil {
			return err
		}
		doc = created

		if in.Status != StatusCompleted {
			return nil
		}

		for _, line := range in.Lines {
			remaining, err := s.inv.AdjustQuantity(ctx, line.ProductID, -line.Quantity)
			if err != nil {
				return err
			}
			if remaining < 0 {
				return apperror.NewInsufficientStock(
					line.ProductID.String(), line.Quantity, remaining+line.Quantity)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"number", doc.SequentialNumber,
		"status", in.Status,
		"lines", len(in.Lines),
	)
	return doc, nil
}

// Get returns a sale by id.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*store.Document, error) {
	doc, err := s.store.FindOne(ctx, store.KindSales, store.Query{"id": saleID})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return doc, nil
}

// List returns sales matching the query.
func (s *Service) List(ctx context.Context, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	return s.store.Find(ctx, store.KindSales, query, opts)
}

// UpdateStatus records a status edit. This is a plain field update: it
// never adjusts inventory, regardless of the transition.
func (s *Service) UpdateStatus(ctx context.Context, saleID id.ID, status Status) error {
	if !status.Valid() {
		return apperror.NewValidation("status", "unknown status")
	}
	matched, err := s.store.UpdateOne(ctx, store.KindSales,
		store.Query{"id": saleID},
		store.Update{"status": string(status)},
	)
	if err != nil {
		return err
	}
	if matched == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// Delete removes a sale document. Inventory is not restored; use the
// refunds service for that.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	deleted, err := s.store.DeleteOne(ctx, store.KindSales, store.Query{"id": saleID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}
