package services

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// Walk-in placeholders used when staff starts a game without customer
// details.
const (
	WalkInCustomerName  = "Walk-in"
	WalkInCustomerPhone = "N/A"
)

// BookingService owns reservation intervals on stations: conflict
// detection, walk-in game sessions and their time-based billing.
type BookingService struct {
	db           *gorm.DB
	cfg          *config.Config
	sessions     *SessionService
	stationLocks keyMutex
}

func NewBookingService(db *gorm.DB, cfg *config.Config, sessions *SessionService) *BookingService {
	return &BookingService{db: db, cfg: cfg, sessions: sessions}
}

// BookRequest describes a reservation to create. Timestamps are already
// parsed; controllers reject unparsable input before reaching here.
type BookRequest struct {
	StationID      uint
	GameID         *uint
	CustomerName   string
	CustomerPhone  string
	StartsAt       time.Time
	EndsAt         time.Time
	TableSessionID *uint
}

// Book creates a reservation if the station is free for the whole
// half-open interval [StartsAt, EndsAt). The overlap check and the
// insert run inside one transaction under a per-station lock, so two
// concurrent requests for the same station cannot both pass the check.
// Bookings on different stations never block each other.
func (s *BookingService) Book(req BookRequest) (*models.Reservation, error) {
	var station models.GameStation
	err := s.db.First(&station, req.StationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !station.IsActive) {
		return nil, ErrStationUnavailable
	}
	if err != nil {
		return nil, err
	}

	if req.GameID != nil {
		var game models.Game
		err := s.db.First(&game, *req.GameID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !game.IsActive) {
			return nil, ErrGameUnavailable
		}
		if err != nil {
			return nil, err
		}
	}

	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidRange
	}
	duration := req.EndsAt.Sub(req.StartsAt)
	if duration < s.cfg.MinReservation() || duration > s.cfg.MaxReservation() {
		return nil, ErrInvalidRange
	}

	unlock := s.stationLocks.Lock(req.StationID)
	defer unlock()

	reservation := models.Reservation{
		StationID:      req.StationID,
		GameID:         req.GameID,
		TableSessionID: req.TableSessionID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var conflicts int64
		if err := tx.Model(&models.Reservation{}).
			Where("station_id = ? AND deleted_at IS NULL AND starts_at < ? AND ends_at > ?",
				req.StationID, req.EndsAt, req.StartsAt).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrSlotTaken
		}

		dayStart := startOfDay(req.StartsAt)
		dayEnd := dayStart.AddDate(0, 0, 1)
		var phoneCount int64
		if err := tx.Model(&models.Reservation{}).
			Where("customer_phone = ? AND deleted_at IS NULL AND starts_at >= ? AND starts_at < ?",
				req.CustomerPhone, dayStart, dayEnd).
			Count(&phoneCount).Error; err != nil {
			return err
		}
		if phoneCount >= 5 {
			return ErrQuotaExceeded
		}

		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	reservation.Station = station
	return &reservation, nil
}

// List returns non-deleted reservations on the station overlapping
// [from, to), ordered by start time.
func (s *BookingService) List(stationID uint, from, to time.Time) ([]models.Reservation, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	var reservations []models.Reservation
	err := s.db.Preload("Station").Preload("Game").
		Where("station_id = ? AND deleted_at IS NULL AND starts_at < ? AND ends_at > ?",
			stationID, to, from).
		Order("starts_at asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// StartGameRequest starts a walk-in session right now.
type StartGameRequest struct {
	StationID       uint
	GameID          *uint
	DurationMinutes int
	CustomerName    string
	CustomerPhone   string
	TableCode       string
}

// StartGame books [now, now+duration) with walk-in defaults and, when a
// table code is given, links the reservation to that table's session.
// It delegates to Book and therefore inherits every conflict and
// validation rule.
func (s *BookingService) StartGame(req StartGameRequest, actor *Actor) (*models.Reservation, error) {
	minutes := req.DurationMinutes
	if minutes <= 0 {
		minutes = 60
	}
	name := req.CustomerName
	if name == "" {
		name = WalkInCustomerName
	}
	phone := req.CustomerPhone
	if phone == "" {
		phone = WalkInCustomerPhone
	}

	var sessionID *uint
	if req.TableCode != "" {
		session, err := s.sessions.ResolveSession(req.TableCode)
		if err != nil {
			return nil, err
		}
		sessionID = &session.ID
	}

	now := time.Now()
	reservation, err := s.Book(BookRequest{
		StationID:      req.StationID,
		GameID:         req.GameID,
		CustomerName:   name,
		CustomerPhone:  phone,
		StartsAt:       now,
		EndsAt:         now.Add(time.Duration(minutes) * time.Minute),
		TableSessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]interface{}{"station_id": reservation.StationID}
	if reservation.GameID != nil {
		meta["game_id"] = *reservation.GameID
	}
	writeAudit(s.db, actor, models.AuditGameSessionStart, "Reservation", reservation.ID, meta)

	utils.InfoLogger.Printf("Game session %d started on station %d (%d min)",
		reservation.ID, reservation.StationID, minutes)
	return reservation, nil
}

// StopResult is the billing outcome of a stopped walk-in session.
type StopResult struct {
	ID              uint       `json:"id"`
	StoppedAt       *time.Time `json:"stopped_at"`
	DurationMinutes int        `json:"duration_minutes"`
	AmountCents     int64      `json:"amount_cents"`
}

// StopGame archives the reservation at now and bills the elapsed time
// in fixed-size blocks, rounding up: ceil(minutes/block) * block price.
// Elapsed time is floored at one minute.
func (s *BookingService) StopGame(reservationID uint, actor *Actor) (*StopResult, error) {
	var reservation models.Reservation
	err := s.db.First(&reservation, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reservation.DeletedAt != nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	minutes := int(math.Round(now.Sub(reservation.StartsAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	blocks := (minutes + s.cfg.GameBlockMinutes - 1) / s.cfg.GameBlockMinutes
	amount := int64(blocks) * s.cfg.BlockPriceCents()

	// Conditional update so a concurrent stop of the same reservation
	// bills exactly once.
	result := s.db.Model(&models.Reservation{}).
		Where("id = ? AND deleted_at IS NULL", reservationID).
		Update("deleted_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	if reservation.TableSessionID != nil {
		if err := s.sessions.Touch(*reservation.TableSessionID); err != nil {
			utils.ErrorLogger.Errorf("failed to touch session %d on game stop: %v",
				*reservation.TableSessionID, err)
		}
	}

	writeAudit(s.db, actor, models.AuditGameSessionStop, "Reservation", reservation.ID, map[string]interface{}{
		"duration_minutes": minutes,
		"amount_cents":     amount,
	})

	return &StopResult{
		ID:              reservation.ID,
		StoppedAt:       &now,
		DurationMinutes: minutes,
		AmountCents:     amount,
	}, nil
}

// Extend pushes EndsAt forward by the given minutes, re-checking only
// the new tail interval [old EndsAt, new EndsAt) against other
// reservations on the station, and re-validating the total duration
// against the configured maximum.
func (s *BookingService) Extend(reservationID uint, minutes int, actor *Actor) (*models.Reservation, error) {
	if minutes <= 0 {
		return nil, ErrInvalidRange
	}

	// The first read only resolves the station to lock; EndsAt is
	// re-read under the lock so concurrent extends stack instead of
	// computing the new end from the same stale row.
	var current models.Reservation
	err := s.db.First(&current, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	unlock := s.stationLocks.Lock(current.StationID)
	defer unlock()

	var reservation models.Reservation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			return err
		}
		if reservation.DeletedAt != nil {
			return ErrNotFound
		}

		oldEnd := reservation.EndsAt
		newEnd := oldEnd.Add(time.Duration(minutes) * time.Minute)
		if newEnd.Sub(reservation.StartsAt) > s.cfg.MaxReservation() {
			return ErrInvalidRange
		}

		var conflicts int64
		if err := tx.Model(&models.Reservation{}).
			Where("station_id = ? AND deleted_at IS NULL AND id <> ? AND starts_at < ? AND ends_at > ?",
				reservation.StationID, reservation.ID, newEnd, oldEnd).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrSlotTaken
		}
		if err := tx.Model(&models.Reservation{}).
			Where("id = ?", reservation.ID).
			Update("ends_at", newEnd).Error; err != nil {
			return err
		}
		reservation.EndsAt = newEnd
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	writeAudit(s.db, actor, models.AuditReservationExtended, "Reservation", reservation.ID, map[string]interface{}{
		"minutes": minutes,
		"new_end": reservation.EndsAt,
	})

	return &reservation, nil
}

// Archive soft-deletes a reservation (cancellation by staff).
func (s *BookingService) Archive(reservationID uint, actor *Actor) (*time.Time, error) {
	now := time.Now()
	result := s.db.Model(&models.Reservation{}).
		Where("id = ? AND deleted_at IS NULL", reservationID).
		Update("deleted_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	writeAudit(s.db, actor, models.AuditReservationArchived, "Reservation", reservationID, nil)
	return &now, nil
}

// TopGame is one row of the most-booked-games aggregation.
type TopGame struct {
	GameID uint   `json:"game_id"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

// TopGames aggregates active reservations per game, most booked first.
func (s *BookingService) TopGames(from, to *time.Time, limit int) ([]TopGame, error) {
	if limit <= 0 {
		limit = 5
	}

	q := s.db.Model(&models.Reservation{}).
		Select("game_id, COUNT(*) as count").
		Where("deleted_at IS NULL AND game_id IS NOT NULL")
	if from != nil {
		q = q.Where("starts_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("starts_at <= ?", *to)
	}

	var rows []TopGame
	if err := q.Group("game_id").Order("count desc").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.GameID)
	}
	if len(ids) > 0 {
		var games []models.Game
		if err := s.db.Where("id IN ?", ids).Find(&games).Error; err != nil {
			return nil, err
		}
		names := make(map[uint]string, len(games))
		for _, g := range games {
			names[g.ID] = g.Name
		}
		for i := range rows {
			if name, ok := names[rows[i].GameID]; ok {
				rows[i].Name = name
			} else {
				rows[i].Name = "Unknown"
			}
		}
	}
	return rows, nil
}

func startOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
