package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// SessionSweeper force-closes idle table sessions on a fixed interval.
// It is redundant with the lazy expiry in SessionService: the sweep
// catches tables nobody queries again.
type SessionSweeper struct {
	db   *gorm.DB
	cfg  *config.Config
	stop chan struct{}
	done chan struct{}
}

func NewSessionSweeper(db *gorm.DB, cfg *config.Config) *SessionSweeper {
	return &SessionSweeper{
		db:   db,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *SessionSweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.SweepInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("Session sweeper started (every %s, idle threshold %s)",
		s.cfg.SweepInterval(), s.cfg.IdleThreshold())
}

// Stop terminates the loop and waits for it to exit.
func (s *SessionSweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep closes every open session whose last activity is older than the
// idle threshold. The staleness predicate is re-checked at write time,
// so a session a concurrent scan just refreshed is not clobbered.
func (s *SessionSweeper) Sweep() {
	cutoff := time.Now().Add(-s.cfg.IdleThreshold())

	result := s.db.Model(&models.TableSession{}).
		Where("ended_at IS NULL AND last_activity_at < ?", cutoff).
		Update("ended_at", time.Now())
	if result.Error != nil {
		utils.ErrorLogger.Errorf("Session sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		utils.InfoLogger.Printf("Session sweep closed %d idle sessions", result.RowsAffected)
	}
}
