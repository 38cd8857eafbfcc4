package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/sales"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves sale documents.
type SalesHandler struct {
	*BaseHandler
	svc *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, svc *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, svc: svc}
}

func saleLines(reqLines []dto.LineRequest) ([]sales.Line, error) {
	lines := make([]sales.Line, 0, len(reqLines))
	for i, l := range reqLines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("lines", "invalid product id").WithDetail("line", i)
		}
		lines = append(lines, sales.Line{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return lines, nil
}

// Create records a sale; completed sales decrement stock atomically.
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := saleLines(req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), sales.Input{
		CustomerName:  req.CustomerName,
		Lines:         lines,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        sales.Status(req.Status),
		Notes:         req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, doc)
}

// Get returns one sale by id.
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List returns sales matching the query parameters.
func (h *SalesHandler) List(c *gin.Context) {
	query, opts := listQuery(c)
	docs, err := h.svc.List(c.Request.Context(), query, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: docs, Total: int64(len(docs))})
}

// UpdateStatus changes a sale's status without touching inventory.
func (h *SalesHandler) UpdateStatus(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSaleStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), saleID, sales.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete removes a sale document.
func (h *SalesHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
