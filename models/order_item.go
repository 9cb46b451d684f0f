package models

import "time"

type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"index;not null" json:"order_id"`
	Order          Order     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID     uint      `gorm:"not null" json:"menu_item_id"`
	MenuItem       MenuItem  `gorm:"foreignKey:MenuItemID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	TotalCents     int64     `gorm:"not null" json:"total_cents"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}
