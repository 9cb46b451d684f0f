package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Game{},
		&models.GameStation{},
		&models.Reservation{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderDailyCounter{},
		&models.OperatingHour{},
		&models.AuditLog{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		TableSessionIdleMinutes: 120,
		SessionSweepMinutes:     5,
		ReservationMinMinutes:   30,
		ReservationMaxMinutes:   120,
		GamePricePerHour:        300,
		GameBlockMinutes:        30,
	}
}

func seedStation(t *testing.T, db *gorm.DB, name string) models.GameStation {
	t.Helper()
	station := models.GameStation{Name: name, IsActive: true}
	require.NoError(t, db.Create(&station).Error)
	return station
}

func seedGame(t *testing.T, db *gorm.DB, name string) models.Game {
	t.Helper()
	game := models.Game{Name: name, IsActive: true}
	require.NoError(t, db.Create(&game).Error)
	return game
}

func seedMenuItem(t *testing.T, db *gorm.DB, name string, priceCents int64) models.MenuItem {
	t.Helper()
	var category models.MenuCategory
	err := db.First(&category).Error
	if err != nil {
		category = models.MenuCategory{Name: "Drinks"}
		require.NoError(t, db.Create(&category).Error)
	}
	item := models.MenuItem{
		CategoryID: category.ID,
		Name:       name,
		PriceCents: priceCents,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func testActor() *Actor {
	id := uint(1)
	return &Actor{ID: &id, Email: "staff@example.com", Role: "staff"}
}

func futureSlot(offset, minutes int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(offset) * time.Hour).Truncate(time.Minute)
	return start, start.Add(time.Duration(minutes) * time.Minute)
}
