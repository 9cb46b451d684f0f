package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// CloseByTable ends a table's open session on behalf of staff. The
// service refuses while active orders exist and stops linked walk-in
// game sessions.
func (sc *SessionController) CloseByTable(c *gin.Context) {
	var req struct {
		TableCode string `json:"table_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.CloseByTable(req.TableCode, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session close result", result)
}
