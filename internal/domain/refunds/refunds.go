// Package refunds provides refund creation against completed sales.
//
// Inventory restoration lives here, as its own explicitly designed
// operation, instead of being inferred from sale status edits or
// deletions: a refund document is created and the refunded quantities
// are returned to stock in one transaction.
package refunds

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/sales"
	"stockbook/internal/domain/store"
	"stockbook/pkg/logger"
)

// Line is one refunded product position.
type Line struct {
	ProductID id.ID `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// Input is the payload for creating a refund.
type Input struct {
	SaleID id.ID
	Lines  []Line
	Reason string
}

// Validate checks input invariants without store access.
func (in *Input) Validate() error {
	if id.IsNil(in.SaleID) {
		return apperror.NewValidation("saleId", "sale id is required")
	}
	if len(in.Lines) == 0 {
		return apperror.NewValidation("lines", "at least one line is required")
	}
	for i, line := range in.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("lines", "line product id is required").WithDetail("line", i)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("lines", "line quantity must be positive").WithDetail("line", i)
		}
	}
	return nil
}

// Service creates refunds and restores stock atomically.
type Service struct {
	store store.Store
	inv   inventory.Adjuster
	txm   tx.Manager
}

// NewService creates a new refunds service.
func NewService(st store.Store, inv inventory.Adjuster, txm tx.Manager) *Service {
	return &Service{store: st, inv: inv, txm: txm}
}

// Create records a refund against a completed sale. Refunded quantities,
// summed with any earlier refunds of the same sale, must not exceed the
// sold quantities. The cap check, the refund document, and the stock
// restoration all run inside one unit of work holding a lock on the sale
// row, so concurrent refunds of the same sale serialize and the second
// one sees the first one's history.
func (s *Service) Create(ctx context.Context, in Input) (*store.Document, error) {
	if _, err := tenant.RequireID(ctx); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lineAttrs := make([]map[string]any, 0, len(in.Lines))
	for _, line := range in.Lines {
		lineAttrs = append(lineAttrs, map[string]any{
			"product_id": line.ProductID.String(),
			"quantity":   line.Quantity,
		})
	}

	var doc *store.Document
	var saleNumber string
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.store.FindOneForUpdate(ctx, store.KindSales, store.Query{"id": in.SaleID})
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFound("sale", in.SaleID.String())
		}
		if sale.StringAttr("status") != string(sales.StatusCompleted) {
			return apperror.NewConflict("only completed sales can be refunded")
		}
		saleNumber = sale.SequentialNumber

		soldLines, err := sales.LinesFromDocument(sale)
		if err != nil {
			return err
		}
		sold := make(map[id.ID]int64, len(soldLines))
		for _, line := range soldLines {
			sold[line.ProductID] += line.Quantity
		}

		refunded, err := s.refundedSoFar(ctx, in.SaleID)
		if err != nil {
			return err
		}

		for _, line := range in.Lines {
			soldQty, ok := sold[line.ProductID]
			if !ok {
				return apperror.NewProductNotFound(line.ProductID.String()).
					WithDetail("reason", "product not part of the sale")
			}
			if refunded[line.ProductID]+line.Quantity > soldQty {
				return apperror.NewRefundExceedsSale(
					line.ProductID.String(),
					refunded[line.ProductID]+line.Quantity,
					soldQty,
				)
			}
		}

		created, err := s.store.Create(ctx, store.KindRefunds, store.Draft{
			Attributes: map[string]any{
				"sale_id":     in.SaleID.String(),
				"sale_number": sale.SequentialNumber,
				"lines":       lineAttrs,
				"reason":      in.Reason,
			},
		})
		if err != nil {
			return err
		}
		doc = created

		for _, line := range in.Lines {
			if _, err := s.inv.AdjustQuantity(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "refund created",
		"sale_number", saleNumber,
		"lines", len(in.Lines),
	)
	return doc, nil
}

// List returns refunds matching the query.
func (s *Service) List(ctx context.Context, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	return s.store.Find(ctx, store.KindRefunds, query, opts)
}

// refundedSoFar sums previously refunded quantities per product for a sale.
func (s *Service) refundedSoFar(ctx context.Context, saleID id.ID) (map[id.ID]int64, error) {
	docs, err := s.store.Find(ctx, store.KindRefunds,
		store.Query{"sale_id": saleID.String()}, store.FindOptions{})
	if err != nil {
		return nil, err
	}

	totals := make(map[id.ID]int64)
	for _, doc := range docs {
		lines, err := sales.LinesFromDocument(doc)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			totals[line.ProductID] += line.Quantity
		}
	}
	return totals, nil
}
