package models

import "time"

// OperatingHour is a static settings row, one per weekday (0 = Sunday).
type OperatingHour struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DayOfWeek int       `gorm:"uniqueIndex;not null" json:"day_of_week"`
	OpenTime  string    `gorm:"type:varchar(5);not null" json:"open_time"`
	CloseTime string    `gorm:"type:varchar(5);not null" json:"close_time"`
	IsClosed  bool      `gorm:"not null;default:false" json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
