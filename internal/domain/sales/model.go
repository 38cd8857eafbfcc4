// Package sales provides the sale creation transaction and sale queries.
package sales

import (
	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/store"
)

// Status is the lifecycle state of a sale.
// pending -> completed | cancelled; both are terminal for automatic
// inventory effects. Status edits after creation never re-trigger
// inventory adjustment; restocking is the refunds service's job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Line is one sold product position.
type Line struct {
	ProductID id.ID           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Input is the payload for creating a sale.
type Input struct {
	CustomerName  string
	Lines         []Line
	TotalAmount   decimal.Decimal
	PaymentMethod string
	Status        Status // defaults to pending
	Notes         string
}

// Validate checks input invariants without store access.
func (in *Input) Validate() error {
	if in.CustomerName == "" {
		return apperror.NewValidation("customerName", "customer name is required")
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
	if in.PaymentMethod == "" {
		return apperror.NewValidation("paymentMethod", "payment method is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return apperror.NewValidation("status", "unknown status")
	}
	return nil
}

// linesAttr converts lines to their stored attribute form.
func linesAttr(lines []Line) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		out = append(out, map[string]any{
			"product_id": line.ProductID.String(),
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice.String(),
		})
	}
	return out
}

// LinesFromDocument parses the stored lines of a sale document.
// Handles both native attribute maps and JSON-decoded forms.
func LinesFromDocument(doc *store.Document) ([]Line, error) {
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
		return nil, apperror.NewInternal(nil).WithDetail("reason", "malformed sale lines")
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, apperror.NewInternal(nil).WithDetail("reason", "malformed sale line")
		}
		pid, err := id.Parse(asString(m["product_id"]))
		if err != nil {
			return nil, apperror.NewInternal(err).WithDetail("reason", "malformed sale line product id")
		}
		price, err := decimal.NewFromString(asString(m["unit_price"]))
		if err != nil {
			price = decimal.Zero
		}
		lines = append(lines, Line{
			ProductID: pid,
			Quantity:  asInt64(m["quantity"]),
			UnitPrice: price,
		})
	}
	return lines, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
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
