package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/reports"
)

// ReportsHandler serves read-only aggregates.
type ReportsHandler struct {
	*BaseHandler
	svc *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, svc: svc}
}

// parsePeriod reads from/to query parameters (RFC 3339 or date only).
// Defaults to the last 30 days.
func (h *ReportsHandler) parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := parseTime(raw)
		if err != nil {
			return from, to, apperror.NewValidation("from", "invalid time format")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseTime(raw)
		if err != nil {
			return from, to, apperror.NewValidation("to", "invalid time format")
		}
		to = parsed
	}
	return from, to, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// SalesSummary returns revenue and sale counts over a period.
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	from, to, err := h.parsePeriod(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	summary, err := h.svc.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// StockLevels returns current product quantities.
func (h *ReportsHandler) StockLevels(c *gin.Context) {
	belowOnly := c.Query("threshold") != ""
	threshold := int64(h.ParseIntQuery(c, "threshold", 0))

	levels, err := h.svc.StockLevels(c.Request.Context(), belowOnly, threshold)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, levels)
}

// TopProducts returns best sellers over a period.
func (h *ReportsHandler) TopProducts(c *gin.Context) {
	from, to, err := h.parsePeriod(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	limit := h.ParseIntQuery(c, "limit", 10)

	top, err := h.svc.TopProducts(c.Request.Context(), from, to, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, top)
}
