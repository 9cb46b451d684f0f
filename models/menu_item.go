package models

import "time"

// MenuItem prices are in minor currency units. Orders snapshot the
// price at creation time, so editing PriceCents never rewrites history.
type MenuItem struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CategoryID  uint         `gorm:"index;not null" json:"category_id"`
	Category    MenuCategory `gorm:"foreignKey:CategoryID" json:"-"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	PriceCents  int64        `gorm:"not null" json:"price_cents"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}
