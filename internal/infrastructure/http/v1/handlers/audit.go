package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/infrastructure/storage/postgres"
)

// AuditHandler serves entity change history.
type AuditHandler struct {
	*BaseHandler
	svc *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, svc *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, svc: svc}
}

// EntityHistory returns audit entries for one entity, newest first.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	entityType := c.Param("type")
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.svc.EntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
