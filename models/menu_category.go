package models

import "time"

type MenuCategory struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	Items     []MenuItem `gorm:"foreignKey:CategoryID" json:"items,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}
