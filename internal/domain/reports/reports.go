// Package reports exposes read-only aggregates over sales and stock.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/tenant"
)

// SalesSummary aggregates completed sales over a period.
type SalesSummary struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	SalesCount int64           `json:"salesCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// StockLevel is the current quantity of one product.
type StockLevel struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// TopProduct ranks a product by quantity sold over a period.
type TopProduct struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Sold      int64  `json:"sold"`
}

// Repository runs the aggregate queries. Implemented by the storage layer.
type Repository interface {
	SalesSummary(ctx context.Context, tenantID string, from, to time.Time) (*SalesSummary, error)
	StockLevels(ctx context.Context, tenantID string, belowOnly bool, threshold int64) ([]StockLevel, error)
	TopProducts(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]TopProduct, error)
}

// Service validates report requests and scopes them to the tenant.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SalesSummary returns revenue and sale counts over [from, to).
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, apperror.NewValidation("to", "period end must be after period start")
	}
	return s.repo.SalesSummary(ctx, tenantID, from, to)
}

// StockLevels returns current product quantities, optionally only those
// at or below the threshold.
func (s *Service) StockLevels(ctx context.Context, belowOnly bool, threshold int64) ([]StockLevel, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if belowOnly && threshold < 0 {
		return nil, apperror.NewValidation("threshold", "threshold must not be negative")
	}
	return s.repo.StockLevels(ctx, tenantID, belowOnly, threshold)
}

// TopProducts returns the best sellers over [from, to).
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, apperror.NewValidation("to", "period end must be after period start")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.TopProducts(ctx, tenantID, from, to, limit)
}
