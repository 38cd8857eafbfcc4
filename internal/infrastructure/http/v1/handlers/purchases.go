package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/purchases"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// PurchasesHandler serves purchase orders.
type PurchasesHandler struct {
	*BaseHandler
	svc *purchases.Service
}

// NewPurchasesHandler creates a new purchases handler.
func NewPurchasesHandler(base *BaseHandler, svc *purchases.Service) *PurchasesHandler {
	return &PurchasesHandler{BaseHandler: base, svc: svc}
}

// Create records a purchase; received purchases increment stock.
func (h *PurchasesHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines := make([]purchases.Line, 0, len(req.Lines))
	for i, l := range req.Lines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("lines", "invalid product id").WithDetail("line", i))
			return
		}
		lines = append(lines, purchases.Line{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitPrice,
		})
	}

	doc, err := h.svc.Create(c.Request.Context(), purchases.Input{
		SupplierName: req.SupplierName,
		Lines:        lines,
		TotalAmount:  req.TotalAmount,
		Status:       purchases.Status(req.Status),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, doc)
}

// Get returns one purchase by id.
func (h *PurchasesHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List returns purchases matching the query parameters.
func (h *PurchasesHandler) List(c *gin.Context) {
	query, opts := listQuery(c)
	docs, err := h.svc.List(c.Request.Context(), query, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: docs, Total: int64(len(docs))})
}

// Receive marks an ordered purchase as received and increments stock.
func (h *PurchasesHandler) Receive(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Receive(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
