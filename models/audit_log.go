package models

import "time"

// Audit actions recorded by the services.
const (
	AuditOrderStatusChange      = "ORDER_STATUS_CHANGE"
	AuditOrderClosed            = "ORDER_CLOSED"
	AuditOrderArchived          = "ORDER_ARCHIVED"
	AuditReservationArchived    = "RESERVATION_ARCHIVED"
	AuditReservationExtended    = "RESERVATION_EXTENDED"
	AuditGameSessionStart       = "GAME_SESSION_START"
	AuditGameSessionStop        = "GAME_SESSION_STOP"
	AuditGameSessionStopByTable = "GAME_SESSION_STOP_BY_TABLE_CLOSE"
	AuditTableSessionClosed     = "TABLE_SESSION_CLOSED"
)

// AuditLog is append-only. Metadata holds a JSON object.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(64);not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index" json:"entity_id"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}
