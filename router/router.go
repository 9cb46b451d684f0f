package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/controllers"
	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/middlewares"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/services"
)

// SetupRouter wires every HTTP and websocket route. Guests interact
// through the public group; /staff requires a staff or admin token and
// /admin requires an admin token.
func SetupRouter(db *gorm.DB, cfg *config.Config, hub *events.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.LoggerMiddleware())

	sessions := services.NewSessionService(db, cfg)
	booking := services.NewBookingService(db, cfg, sessions)
	orders := services.NewOrderService(db, cfg, sessions, hub)
	audits := services.NewAuditService(db)

	userCtrl := controllers.NewUserController(db)
	qrCtrl := controllers.NewQrController(sessions)
	sessionCtrl := controllers.NewSessionController(sessions)
	tableCtrl := controllers.NewTableController(db)
	menuCtrl := controllers.NewMenuController(db)
	gameCtrl := controllers.NewGameController(db)
	orderCtrl := controllers.NewOrderController(orders)
	reservationCtrl := controllers.NewReservationController(booking)
	settingsCtrl := controllers.NewSettingsController(db)
	auditCtrl := controllers.NewAuditController(audits)
	streamCtrl := controllers.NewStreamController(hub, orders)

	limiter := middlewares.NewRateLimiter()
	loginLimit := limiter.Limit("login", cfg.RateLimitLoginMax, cfg.LoginWindow())
	ordersLimit := limiter.Limit("orders", cfg.RateLimitOrdersMax, cfg.OrdersWindow())
	reservationsLimit := limiter.Limit("reservations", cfg.RateLimitReservationsMax, cfg.ReservationsWindow())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	registerGuard := middlewares.NewStrictLimiter(rate.Every(time.Second), 5)
	r.POST("/register", registerGuard, loginLimit, userCtrl.Register)
	r.POST("/login", loginLimit, userCtrl.Login)

	r.GET("/qr/:table_code", qrCtrl.Scan)
	r.GET("/qr/:table_code/validate", qrCtrl.Validate)

	r.GET("/menu", menuCtrl.GetMenu)
	r.GET("/games", gameCtrl.GetActiveGames)
	r.GET("/stations", gameCtrl.GetActiveStations)
	r.GET("/operating-hours", settingsCtrl.GetOperatingHours)

	r.POST("/orders", ordersLimit, orderCtrl.CreateOrder)
	r.GET("/orders/:order_id/status", orderCtrl.GetPublicStatus)

	r.POST("/reservations", reservationsLimit, reservationCtrl.Create)
	r.GET("/reservations", reservationCtrl.List)

	r.GET("/ws/orders/:order_id", streamCtrl.OrderStream)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware())
	staff.Use(middlewares.RequireRoles(models.RoleStaff, models.RoleAdmin))
	{
		staff.GET("/profile", userCtrl.GetProfile)

		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.POST("/sessions/close", sessionCtrl.CloseByTable)

		staff.GET("/menu", menuCtrl.GetMenuAll)

		staff.GET("/orders", orderCtrl.GetAllOrders)
		staff.PATCH("/orders/:order_id/status", orderCtrl.UpdateStatus)
		staff.POST("/orders/:order_id/close", orderCtrl.Close)

		staff.POST("/game-sessions/start", reservationCtrl.StartGame)
		staff.POST("/game-sessions/:reservation_id/stop", reservationCtrl.StopGame)
		staff.POST("/reservations/:reservation_id/extend", reservationCtrl.Extend)
	}

	r.GET("/ws/staff", middlewares.AuthMiddleware(),
		middlewares.RequireRoles(models.RoleStaff, models.RoleAdmin),
		streamCtrl.StaffStream)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())
	admin.Use(middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userCtrl.GetAllUsers)

		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PATCH("/tables/:table_id/active", tableCtrl.SetActive)

		admin.POST("/menu/categories", menuCtrl.CreateCategory)
		admin.POST("/menu/items", menuCtrl.CreateItem)
		admin.PATCH("/menu/items/:item_id", menuCtrl.UpdateItem)

		admin.POST("/games", gameCtrl.CreateGame)
		admin.PATCH("/games/:game_id/active", gameCtrl.SetGameActive)
		admin.POST("/stations", gameCtrl.CreateStation)
		admin.PATCH("/stations/:station_id/active", gameCtrl.SetStationActive)

		admin.DELETE("/orders/:order_id", orderCtrl.Archive)
		admin.DELETE("/reservations/:reservation_id", reservationCtrl.Archive)

		admin.GET("/reports/orders/summary", orderCtrl.Summary)
		admin.GET("/reports/orders/top-items", orderCtrl.TopItems)
		admin.GET("/reports/games/top", reservationCtrl.TopGames)

		admin.GET("/audit-logs", auditCtrl.GetAuditLogs)
		admin.PUT("/operating-hours", settingsCtrl.UpdateOperatingHours)
	}

	return r
}
