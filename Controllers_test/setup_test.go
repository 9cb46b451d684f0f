package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MarkoM123/cafe-gaming-platform/config"
	"github.com/MarkoM123/cafe-gaming-platform/events"
	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
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

	cfg := &config.Config{
		TableSessionIdleMinutes:        120,
		ReservationMinMinutes:          30,
		ReservationMaxMinutes:          120,
		GamePricePerHour:               300,
		GameBlockMinutes:               30,
		RateLimitLoginMax:              100,
		RateLimitLoginWindowSec:        60,
		RateLimitOrdersMax:             100,
		RateLimitOrdersWindowSec:       60,
		RateLimitReservationsMax:       100,
		RateLimitReservationsWindowSec: 60,
	}

	hub := events.NewHub(8)
	return &testApp{db: db, engine: router.SetupRouter(db, cfg, hub)}
}

// do performs a JSON request and decodes the standard response envelope.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

// register creates a user and returns their token. The first account
// in an empty database becomes the admin.
func (app *testApp) register(t *testing.T, email string) string {
	t.Helper()
	w, resp := app.do(t, http.MethodPost, "/register", "", gin.H{
		"name":     "Test User",
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	return data["token"].(string)
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}
