package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/refunds"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// RefundsHandler serves refund documents.
type RefundsHandler struct {
	*BaseHandler
	svc *refunds.Service
}

// NewRefundsHandler creates a new refunds handler.
func NewRefundsHandler(base *BaseHandler, svc *refunds.Service) *RefundsHandler {
	return &RefundsHandler{BaseHandler: base, svc: svc}
}

// Create records a refund against a completed sale and restores stock.
func (h *RefundsHandler) Create(c *gin.Context) {
	var req dto.CreateRefundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	saleID, err := id.Parse(req.SaleID)
	if err != nil {
		h.Error(c, apperror.NewValidation("saleId", "invalid sale id"))
		return
	}

	lines := make([]refunds.Line, 0, len(req.Lines))
	for i, l := range req.Lines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("lines", "invalid product id").WithDetail("line", i))
			return
		}
		lines = append(lines, refunds.Line{ProductID: productID, Quantity: l.Quantity})
	}

	doc, err := h.svc.Create(c.Request.Context(), refunds.Input{
		SaleID: saleID,
		Lines:  lines,
		Reason: req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, doc)
}

// List returns refunds matching the query parameters.
func (h *RefundsHandler) List(c *gin.Context) {
	query, opts := listQuery(c)
	docs, err := h.svc.List(c.Request.Context(), query, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: docs, Total: int64(len(docs))})
}
