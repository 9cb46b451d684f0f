package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// QrController handles the guest scan flow: scanning a table code
// resolves (and keeps alive) the table session.
type QrController struct {
	Sessions *services.SessionService
}

func NewQrController(sessions *services.SessionService) *QrController {
	return &QrController{Sessions: sessions}
}

// Scan resolves or creates the session for a scanned table code.
func (qc *QrController) Scan(c *gin.Context) {
	tableCode := c.Param("table_code")
	if tableCode == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("table code required"))
		return
	}

	session, err := qc.Sessions.ResolveSession(tableCode)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table session", session)
}

// Validate is the read-only gate used by the guest menu page.
func (qc *QrController) Validate(c *gin.Context) {
	tableCode := c.Param("table_code")
	if tableCode == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("table code required"))
		return
	}

	active, err := qc.Sessions.ValidateActiveSession(tableCode)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session validity", gin.H{"active": active})
}
