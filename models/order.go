package models

import "time"

// Order status values. NEW and IN_PROGRESS may move forward or be
// canceled; DONE and CANCELED are terminal.
const (
	OrderStatusNew        = "NEW"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusDone       = "DONE"
	OrderStatusCanceled   = "CANCELED"
)

// TerminalOrderStatus reports whether no further transition is allowed
// out of the given status.
func TerminalOrderStatus(status string) bool {
	return status == OrderStatusDone || status == OrderStatusCanceled
}

// Order carries a human-facing OrderNumber that is unique only within
// OrderDateKey (the counter resets daily). IdempotencyKey, when set, is
// globally unique and dedups retried submissions.
type Order struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	TableSessionID uint         `gorm:"index;not null" json:"table_session_id"`
	TableSession   TableSession `gorm:"foreignKey:TableSessionID" json:"table_session"`
	Status         string       `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	TotalCents     int64        `gorm:"not null;default:0" json:"total_cents"`
	OrderNumber    int          `gorm:"not null" json:"order_number"`
	OrderDateKey   string       `gorm:"type:varchar(10);not null;index" json:"order_date_key"`
	IdempotencyKey *string      `gorm:"type:varchar(128);uniqueIndex" json:"idempotency_key,omitempty"`
	Items          []OrderItem  `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty"`
}
