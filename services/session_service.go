package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// SessionService owns the mapping from a table code to its single open
// session. Every guest-facing action routes through here so that
// LastActivityAt stays fresh.
type SessionService struct {
	db         *gorm.DB
	cfg        *config.Config
	tableLocks keyMutex
}

func NewSessionService(db *gorm.DB, cfg *config.Config) *SessionService {
	return &SessionService{db: db, cfg: cfg}
}

// ResolveSession returns the open session for the table code, creating
// the table and/or a fresh session as needed. A session idle past the
// threshold is closed and replaced. Concurrent scans of the same table
// serialize on a per-table lock; different tables are independent.
func (s *SessionService) ResolveSession(tableCode string) (*models.TableSession, error) {
	unlock := s.tableLocks.Lock(tableCode)
	defer unlock()

	table, err := s.getOrCreateTable(tableCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cutoff := now.Add(-s.cfg.IdleThreshold())

	var session models.TableSession
	err = s.db.Where("table_id = ? AND ended_at IS NULL", table.ID).
		Order("started_at desc").
		First(&session).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if found && session.LastActivityAt.Before(cutoff) {
		if err := s.closeSession(s.db, session.ID, now); err != nil {
			return nil, err
		}
		found = false
	}

	if !found {
		session = models.TableSession{
			TableID:        table.ID,
			SessionKey:     uuid.NewString(),
			StartedAt:      now,
			LastActivityAt: now,
		}
		if err := s.db.Create(&session).Error; err != nil {
			return nil, err
		}
		utils.InfoLogger.Printf("New table session %d opened for table %s", session.ID, tableCode)
	} else {
		if err := s.db.Model(&models.TableSession{}).
			Where("id = ?", session.ID).
			Update("last_activity_at", now).Error; err != nil {
			return nil, err
		}
		session.LastActivityAt = now
	}

	session.Table = *table
	return &session, nil
}

// ValidateActiveSession is the read-side gate for guest menu access. It
// additionally requires the table itself to be active, and closes a
// stale session instead of resurrecting it.
func (s *SessionService) ValidateActiveSession(tableCode string) (bool, error) {
	unlock := s.tableLocks.Lock(tableCode)
	defer unlock()

	var table models.Table
	err := s.db.Where("code = ?", tableCode).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !table.IsActive {
		return false, nil
	}

	var session models.TableSession
	err = s.db.Where("table_id = ? AND ended_at IS NULL", table.ID).
		Order("started_at desc").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := time.Now()
	if session.LastActivityAt.Before(now.Add(-s.cfg.IdleThreshold())) {
		if err := s.closeSession(s.db, session.ID, now); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.db.Model(&models.TableSession{}).
		Where("id = ?", session.ID).
		Update("last_activity_at", now).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Touch bumps LastActivityAt of an open session.
func (s *SessionService) Touch(sessionID uint) error {
	return s.db.Model(&models.TableSession{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Update("last_activity_at", time.Now()).Error
}

// CloseResult reports the outcome of an explicit staff close.
type CloseResult struct {
	Closed    bool `json:"closed"`
	SessionID uint `json:"session_id,omitempty"`
}

// CloseByTable ends the open session of a table on behalf of staff. It
// fails with ErrActiveOrders while the session still has NEW or
// IN_PROGRESS orders, and stops any walk-in game reservations linked
// to the session.
func (s *SessionService) CloseByTable(tableCode string, actor *Actor) (*CloseResult, error) {
	unlock := s.tableLocks.Lock(tableCode)
	defer unlock()

	var table models.Table
	err := s.db.Where("code = ?", tableCode).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.TableSession
	err = s.db.Where("table_id = ? AND ended_at IS NULL", table.ID).
		Order("started_at desc").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CloseResult{Closed: false}, nil
	}
	if err != nil {
		return nil, err
	}

	var activeOrders int64
	if err := s.db.Model(&models.Order{}).
		Where("table_session_id = ? AND deleted_at IS NULL AND status IN ?",
			session.ID, []string{models.OrderStatusNew, models.OrderStatusInProgress}).
		Count(&activeOrders).Error; err != nil {
		return nil, err
	}
	if activeOrders > 0 {
		return nil, ErrActiveOrders
	}

	now := time.Now()
	if err := s.closeSession(s.db, session.ID, now); err != nil {
		return nil, err
	}

	var linked []models.Reservation
	if err := s.db.Where("table_session_id = ? AND deleted_at IS NULL", session.ID).
		Find(&linked).Error; err != nil {
		return nil, err
	}
	for _, reservation := range linked {
		if err := s.db.Model(&models.Reservation{}).
			Where("id = ? AND deleted_at IS NULL", reservation.ID).
			Update("deleted_at", now).Error; err != nil {
			return nil, err
		}
		writeAudit(s.db, actor, models.AuditGameSessionStopByTable, "Reservation", reservation.ID, map[string]interface{}{
			"table_code": tableCode,
			"station_id": reservation.StationID,
		})
	}

	writeAudit(s.db, actor, models.AuditTableSessionClosed, "TableSession", session.ID, map[string]interface{}{
		"table_code": tableCode,
	})

	return &CloseResult{Closed: true, SessionID: session.ID}, nil
}

func (s *SessionService) getOrCreateTable(tableCode string) (*models.Table, error) {
	var table models.Table
	err := s.db.Where("code = ?", tableCode).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		table = models.Table{Code: tableCode}
		if err := s.db.Create(&table).Error; err != nil {
			return nil, err
		}
		return &table, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// closeSession is conditional on the session still being open, so a
// concurrent resolve that already replaced it is left alone.
func (s *SessionService) closeSession(db *gorm.DB, sessionID uint, endedAt time.Time) error {
	return db.Model(&models.TableSession{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", endedAt).Error
}
