package models

import "time"

// TableSession ties a guest to a table between the first scan and the
// moment the session is closed. At most one session per table may have
// EndedAt == nil.
type TableSession struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TableID        uint       `gorm:"index;not null" json:"table_id"`
	Table          Table      `gorm:"foreignKey:TableID" json:"table"`
	SessionKey     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_key"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	LastActivityAt time.Time  `gorm:"not null;index" json:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Open reports whether the session is still the active one for its table.
func (s *TableSession) Open() bool {
	return s.EndedAt == nil
}
