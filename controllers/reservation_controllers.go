package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

type ReservationController struct {
	Booking *services.BookingService
}

func NewReservationController(booking *services.BookingService) *ReservationController {
	return &ReservationController{Booking: booking}
}

// Create books a future slot on a station. Public endpoint, guarded by
// the reservations rate-limit bucket.
func (rc *ReservationController) Create(c *gin.Context) {
	var req struct {
		StationID     uint   `json:"station_id" binding:"required"`
		GameID        *uint  `json:"game_id"`
		CustomerName  string `json:"customer_name" binding:"required"`
		CustomerPhone string `json:"customer_phone" binding:"required"`
		StartsAt      string `json:"starts_at" binding:"required"`
		EndsAt        string `json:"ends_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}

	reservation, err := rc.Booking.Book(services.BookRequest{
		StationID:     req.StationID,
		GameID:        req.GameID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
	})
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

// List returns reservations on one station overlapping [from, to).
// All three query parameters are required.
func (rc *ReservationController) List(c *gin.Context) {
	stationRaw := c.Query("station_id")
	fromRaw := c.Query("from")
	toRaw := c.Query("to")
	if stationRaw == "" || fromRaw == "" || toRaw == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("station_id, from and to are required"))
		return
	}

	stationID, err := strconv.ParseUint(stationRaw, 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid station id"))
		return
	}
	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidRange)
		return
	}

	reservations, err := rc.Booking.List(uint(stationID), from, to)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservations", reservations)
}

// StartGame begins a walk-in session right now (staff).
func (rc *ReservationController) StartGame(c *gin.Context) {
	var req struct {
		StationID       uint   `json:"station_id" binding:"required"`
		GameID          *uint  `json:"game_id"`
		DurationMinutes int    `json:"duration_minutes"`
		CustomerName    string `json:"customer_name"`
		CustomerPhone   string `json:"customer_phone"`
		TableCode       string `json:"table_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Booking.StartGame(services.StartGameRequest{
		StationID:       req.StationID,
		GameID:          req.GameID,
		DurationMinutes: req.DurationMinutes,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		TableCode:       req.TableCode,
	}, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Game session started", reservation)
}

// StopGame ends a walk-in session and returns the billed amount.
func (rc *ReservationController) StopGame(c *gin.Context) {
	reservationID, ok := parseUintParam(c, "reservation_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid reservation id"))
		return
	}

	result, err := rc.Booking.StopGame(reservationID, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK,
		"Game session stopped, due "+utils.FormatCents(result.AmountCents), result)
}

// Extend pushes a reservation's end time forward.
func (rc *ReservationController) Extend(c *gin.Context) {
	reservationID, ok := parseUintParam(c, "reservation_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid reservation id"))
		return
	}

	var req struct {
		Minutes int `json:"minutes" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Booking.Extend(reservationID, req.Minutes, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation extended", reservation)
}

// Archive cancels a reservation (admin).
func (rc *ReservationController) Archive(c *gin.Context) {
	reservationID, ok := parseUintParam(c, "reservation_id")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid reservation id"))
		return
	}

	archivedAt, err := rc.Booking.Archive(reservationID, actorFromContext(c))
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation archived", gin.H{
		"reservation_id": reservationID,
		"archived_at":    archivedAt,
	})
}

// TopGames returns the most-booked games (admin).
func (rc *ReservationController) TopGames(c *gin.Context) {
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

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	games, err := rc.Booking.TopGames(from, to, limit)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Top games", games)
}
