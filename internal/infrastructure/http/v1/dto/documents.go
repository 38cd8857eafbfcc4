package dto

import (
	"github.com/shopspring/decimal"
)

// LineRequest is one product position on a sale or purchase.
type LineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest creates a sale document.
type CreateSaleRequest struct {
	CustomerName  string          `json:"customerName" binding:"required"`
	Lines         []LineRequest   `json:"lines" binding:"required"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
}

// UpdateSaleStatusRequest changes a sale's status.
type UpdateSaleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreatePurchaseRequest creates a purchase order.
type CreatePurchaseRequest struct {
	SupplierName string          `json:"supplierName" binding:"required"`
	Lines        []LineRequest   `json:"lines" binding:"required"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       string          `json:"status"`
}

// RefundLineRequest is one refunded product position.
type RefundLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

// CreateRefundRequest creates a refund against a sale.
type CreateRefundRequest struct {
	SaleID string              `json:"saleId" binding:"required"`
	Lines  []RefundLineRequest `json:"lines" binding:"required"`
	Reason string              `json:"reason"`
}

// AdjustStockRequest applies a manual stock correction.
type AdjustStockRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}
