package models

import "time"

// Table is created implicitly the first time its code is scanned and is
// never deleted. A freshly scanned table stays inactive until staff
// enables it.
type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
