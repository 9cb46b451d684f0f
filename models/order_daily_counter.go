package models

// OrderDailyCounter is the single contention point for order numbering:
// one row per calendar day, incremented in the same transaction that
// inserts the order.
type OrderDailyCounter struct {
	DateKey    string `gorm:"primaryKey;type:varchar(10)" json:"date_key"`
	NextNumber int    `gorm:"not null" json:"next_number"`
}
