// Package purchases provides purchase order creation and receiving.
//
// A purchase created with status received increments product stock in
// the same transaction, mirroring the sale-side decrement.
package purchases

import (
	"context"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/sequence"
	"stockbook/internal/domain/store"
	"stockbook/pkg/logger"
)

// Status is the lifecycle state of a purchase.
type Status string

const (
	StatusOrdered  Status = "ordered"
	StatusReceived Status = "received"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOrdered || s == StatusReceived
}

// Line is one purchased product position.
type Line struct {
	ProductID id.ID           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// Input is the payload for creating a purchase.
type Input struct {
	SupplierName string
	Lines        []Line
	TotalAmount  decimal.Decimal
	Status       Status // defaults to ordered
}

// Validate checks input invariants without store access.
func (in *Input) Validate() error {
	if in.SupplierName == "" {
		return apperror.NewValidation("supplierName", "supplier name is required")
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
	if in.TotalAmount.IsNegative() {
		return apperror.NewValidation("totalAmount", "total amount must not be negative")
	}
	if in.Status != "" && !in.Status.Valid() {
		return apperror.NewValidation("status", "unknown status")
	}
	return nil
}

// Service creates purchases and applies stock receipts atomically.
type Service struct {
	store store.Store
	seq   sequence.Allocator
	inv   inventory.Adjuster
	txm   tx.Manager
}

// NewService creates a new purchases service.
func NewService(st store.Store, seq sequence.Allocator, inv inventory.Adjuster, txm tx.Manager) *Service {
	return &Service{store: st, seq: seq, inv: inv, txm: txm}
}

// Create persists a new purchase. When created already received, every
// line's product quantity is incremented inside the same transaction.
func (s *Service) Create(ctx context.Context, in Input) (*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = StatusOrdered
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	prefix, _ := store.SequencePrefix(store.KindPurchases)
	number, err := s.seq.Next(ctx, tenantID, store.KindPurchases, prefix)
	if err != nil {
		return nil, err
	}

	lines := make([]map[string]any, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, map[string]any{
			"product_id": line.ProductID.String(),
			"quantity":   line.Quantity,
			"unit_cost":  line.UnitCost.String(),
		})
	}

	var doc *store.Document
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		created, err := s.store.Create(ctx, store.KindPurchases, store.Draft{
			SequentialNumber: number,
			Attributes: map[string]any{
				"supplier_name": in.SupplierName,
				"lines":         lines,
				"total_amount":  in.TotalAmount.String(),
				"status":        string(in.Status),
			},
		})
		if err != nil {
			return err
		}
		doc = created

		if in.Status != StatusReceived {
			return nil
		}
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

	logger.Info(ctx, "purchase created",
		"number", doc.SequentialNumber,
		"status", in.Status,
	)
	return doc, nil
}

// Receive marks an ordered purchase as received and increments stock for
// all of its lines in one transaction.
func (s *Service) Receive(ctx context.Context, purchaseID id.ID) (*store.Document, error) {
	if _, err := tenant.RequireID(ctx); err != nil {
		return nil, err
	}

	doc, err := s.store.FindOne(ctx, store.KindPurchases, store.Query{"id": purchaseID})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("purchase", purchaseID.String())
	}
	if doc.StringAttr("status") == string(StatusReceived) {
		return nil, apperror.NewConflict("purchase already received")
	}

	lines, err := parseLines(doc)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		matched, err := s.store.UpdateOne(ctx, store.KindPurchases,
			store.Query{"id": purchaseID, "status": string(StatusOrdered)},
			store.Update{"status": string(StatusReceived)},
		)
		if err != nil {
			return err
		}
		if matched == 0 {
			return apperror.NewConflict("purchase already received")
		}
		for _, line := range lines {
			if _, err := s.inv.AdjustQuantity(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase received", "number", doc.SequentialNumber)
	return s.store.FindOne(ctx, store.KindPurchases, store.Query{"id": purchaseID})
}

// Get returns a purchase by id.
func (s *Service) Get(ctx context.Context, purchaseID id.ID) (*store.Document, error) {
	doc, err := s.store.FindOne(ctx, store.KindPurchases, store.Query{"id": purchaseID})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFound("purchase", purchaseID.String())
	}
	return doc, nil
}

// List returns purchases matching the query.
func (s *Service) List(ctx context.Context, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	return s.store.Find(ctx, store.KindPurchases, query, opts)
}

func parseLines(doc *store.Document) ([]Line, error) {
	raw := doc.Attr("lines")
	if raw == nil {
		return nil, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	default:
		return nil, apperror.NewInternal(nil).WithDetail("reason", "malformed purchase lines")
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, apperror.NewInternal(nil).WithDetail("reason", "malformed purchase line")
		}
		pidStr, _ := m["product_id"].(string)
		pid, err := id.Parse(pidStr)
		if err != nil {
			return nil, apperror.NewInternal(err).WithDetail("reason", "malformed purchase line product id")
		}
		var qty int64
		switch n := m["quantity"].(type) {
		case int64:
			qty = n
		case int:
			qty = int64(n)
		case float64:
			qty = int64(n)
		}
		cost, err := decimal.NewFromString(asString(m["unit_cost"]))
		if err != nil {
			cost = decimal.Zero
		}
		lines = append(lines, Line{ProductID: pid, Quantity: qty, UnitCost: cost})
	}
	return lines, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
