package models

import "time"

// Reservation is an exclusive [StartsAt, EndsAt) slot on one station.
// For a given station, no two reservations with DeletedAt == nil may
// overlap. DeletedAt marks both cancellation and a stopped walk-in
// session; rows are never physically removed because the audit trail
// points at them.
type Reservation struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	StationID      uint          `gorm:"index;not null" json:"station_id"`
	Station        GameStation   `gorm:"foreignKey:StationID" json:"station"`
	GameID         *uint         `gorm:"index" json:"game_id,omitempty"`
	Game           *Game         `gorm:"foreignKey:GameID" json:"game,omitempty"`
	TableSessionID *uint         `gorm:"index" json:"table_session_id,omitempty"`
	TableSession   *TableSession `gorm:"foreignKey:TableSessionID" json:"-"`
	CustomerName   string        `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone  string        `gorm:"type:varchar(64);not null;index" json:"customer_phone"`
	StartsAt       time.Time     `gorm:"not null;index" json:"starts_at"`
	EndsAt         time.Time     `gorm:"not null" json:"ends_at"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
}
