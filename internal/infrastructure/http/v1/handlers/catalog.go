package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/catalogs"
	"stockbook/internal/domain/store"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves generic CRUD for one catalog kind.
type CatalogHandler struct {
	*BaseHandler
	svc *catalogs.Service
}

// NewCatalogHandler creates a handler for one catalog service.
func NewCatalogHandler(base *BaseHandler, svc *catalogs.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, svc: svc}
}

// paginationParams are reserved query keys, everything else becomes an
// attribute filter.
var paginationParams = map[string]bool{
	"orderBy": true, "desc": true, "offset": true, "limit": true,
}

func listQuery(c *gin.Context) (store.Query, store.FindOptions) {
	query := store.Query{}
	for key, values := range c.Request.URL.Query() {
		if paginationParams[key] || len(values) == 0 {
			continue
		}
		query[key] = values[0]
	}

	var page dto.ListQuery
	_ = c.ShouldBindQuery(&page)
	return query, store.FindOptions{
		OrderBy: page.OrderBy,
		Desc:    page.Desc,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}
}

// Create persists a new catalog document from the request body.
func (h *CatalogHandler) Create(c *gin.Context) {
	var attrs map[string]any
	if !h.BindJSON(c, &attrs) {
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), attrs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedBody(c, doc)
}

// Get returns one document by id.
func (h *CatalogHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List returns documents matching the query parameters.
func (h *CatalogHandler) List(c *gin.Context) {
	query, opts := listQuery(c)

	docs, err := h.svc.List(c.Request.Context(), query, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	total, err := h.svc.Count(c.Request.Context(), query)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: docs, Total: total})
}

// Update applies a partial update by id.
func (h *CatalogHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var update map[string]any
	if !h.BindJSON(c, &update) {
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), docID, update)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete removes a document by id.
func (h *CatalogHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
