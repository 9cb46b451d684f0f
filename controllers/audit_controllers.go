package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type AuditController struct {
	Audits *services.AuditService
}

func NewAuditController(audits *services.AuditService) *AuditController {
	return &AuditController{Audits: audits}
}

// GetAuditLogs lists audit entries newest first, with optional
// entity_type, entity_id, action, from and to filters.
func (ac *AuditController) GetAuditLogs(c *gin.Context) {
	filter := services.AuditFilter{
		EntityType: c.Query("entity_type"),
		Action:     c.Query("action"),
	}

	if raw := c.Query("entity_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.EntityID = uint(id)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.Limit = limit
	}

	from, ok := parseTimeQuery(c, "from")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	filter.From = from
	filter.To = to

	logs, err := ac.Audits.List(filter)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Audit logs", logs)
}
