package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/catalogs"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ProductHandler extends the catalog handler with stock endpoints.
type ProductHandler struct {
	*CatalogHandler
	products *catalogs.ProductService
}

// NewProductHandler creates the products handler.
func NewProductHandler(base *BaseHandler, products *catalogs.ProductService) *ProductHandler {
	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, products.Service),
		products:       products,
	}
}

// Create persists a new product, validating the initial quantity.
func (h *ProductHandler) Create(c *gin.Context) {
	var attrs map[string]any
	if !h.BindJSON(c, &attrs) {
		return
	}

	doc, err := h.products.Create(c.Request.Context(), attrs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, doc)
}

// Update applies a partial update, validating any quantity change.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var update map[string]any
	if !h.BindJSON(c, &update) {
		return
	}

	doc, err := h.products.Update(c.Request.Context(), productID, update)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// AdjustStock applies a manual stock correction.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quantity, err := h.products.AdjustStock(c.Request.Context(), productID, req.Delta)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"productId": productID.String(), "quantity": quantity})
}
