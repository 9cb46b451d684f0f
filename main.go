package main

import (
	"github.com/joho/godotenv"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/router"
	"github.com/MarkoM123/cafe-gaming-platform/services"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("No .env file found, using environment variables")
	}
	utils.InitLogger()

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	err = db.AutoMigrate(
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
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	sweeper := services.NewSessionSweeper(db, cfg)
	sweeper.Start()
	defer sweeper.Stop()

	hub := events.NewHub(0)

	r := router.SetupRouter(db, cfg, hub)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatalf("Server stopped: %v", err)
	}
}
