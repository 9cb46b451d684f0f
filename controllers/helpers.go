package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
)

// statusForError maps the service error taxonomy to HTTP codes.
// Anything unrecognized is a store failure and surfaces as 503.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrStationUnavailable),
		errors.Is(err, services.ErrGameUnavailable):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrQuotaExceeded),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidItems),
		errors.Is(err, services.ErrTerminalStatus),
		errors.Is(err, services.ErrActiveOrders):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// actorFromContext builds the audit actor from what AuthMiddleware put
// on the request context.
func actorFromContext(c *gin.Context) *services.Actor {
	actor := &services.Actor{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			actor.ID = &id
		}
	}
	if v, ok := c.Get("email"); ok {
		actor.Email, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		actor.Role, _ = v.(string)
	}
	return actor
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseTimeQuery parses an optional RFC 3339 query parameter. The
// second return is false when the value is present but unparsable.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
