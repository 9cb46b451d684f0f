package utils

import (
	"sync"

	"gorm.io/gorm"
)

var (
	once sync.Once
	mu   sync.RWMutex
	conn *gorm.DB
)

// InitDB stores the process-wide database handle once.
func InitDB(database *gorm.DB) {
	once.Do(func() {
		mu.Lock()
		conn = database
		mu.Unlock()
	})
}

// GetDB returns the database handle set by InitDB.
func GetDB() *gorm.DB {
	mu.RLock()
	defer mu.RUnlock()
	return conn
}
