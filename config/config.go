package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config collects every environment knob the services read. Defaults
// match a small single-venue deployment.
type Config struct {
	Port      string
	DBDSN     string
	JWTSecret string

	TableSessionIdleMinutes int
	SessionSweepMinutes     int

	ReservationMinMinutes int
	ReservationMaxMinutes int
	GamePricePerHour      int64
	GameBlockMinutes      int

	RateLimitLoginMax              int
	RateLimitLoginWindowSec        int
	RateLimitOrdersMax             int
	RateLimitOrdersWindowSec       int
	RateLimitReservationsMax       int
	RateLimitReservationsWindowSec int
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBDSN:     getEnv("DB_DSN", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),

		TableSessionIdleMinutes: getEnvInt("TABLE_SESSION_IDLE_MINUTES", 120),
		SessionSweepMinutes:     getEnvInt("SESSION_SWEEP_MINUTES", 5),

		ReservationMinMinutes: getEnvInt("RESERVATION_MIN_MINUTES", 30),
		ReservationMaxMinutes: getEnvInt("RESERVATION_MAX_MINUTES", 120),
		GamePricePerHour:      int64(getEnvInt("GAME_PRICE_PER_HOUR", 300)),
		GameBlockMinutes:      getEnvInt("GAME_BLOCK_MINUTES", 30),

		RateLimitLoginMax:              getEnvInt("RATE_LIMIT_LOGIN_MAX", 8),
		RateLimitLoginWindowSec:        getEnvInt("RATE_LIMIT_LOGIN_WINDOW_SEC", 60),
		RateLimitOrdersMax:             getEnvInt("RATE_LIMIT_ORDERS_MAX", 30),
		RateLimitOrdersWindowSec:       getEnvInt("RATE_LIMIT_ORDERS_WINDOW_SEC", 60),
		RateLimitReservationsMax:       getEnvInt("RATE_LIMIT_RESERVATIONS_MAX", 5),
		RateLimitReservationsWindowSec: getEnvInt("RATE_LIMIT_RESERVATIONS_WINDOW_SEC", 600),
	}
}

// IdleThreshold is how long a table session may stay untouched before it
// is considered stale.
func (c *Config) IdleThreshold() time.Duration {
	return time.Duration(c.TableSessionIdleMinutes) * time.Minute
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SessionSweepMinutes) * time.Minute
}

func (c *Config) MinReservation() time.Duration {
	return time.Duration(c.ReservationMinMinutes) * time.Minute
}

func (c *Config) MaxReservation() time.Duration {
	return time.Duration(c.ReservationMaxMinutes) * time.Minute
}

// BlockPriceCents is the charge for one billing block, derived from the
// hourly rate (a 30 minute block at 300/hour costs 150).
func (c *Config) BlockPriceCents() int64 {
	return c.GamePricePerHour * int64(c.GameBlockMinutes) / 60
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.RateLimitLoginWindowSec) * time.Second
}

func (c *Config) OrdersWindow() time.Duration {
	return time.Duration(c.RateLimitOrdersWindowSec) * time.Second
}

func (c *Config) ReservationsWindow() time.Duration {
	return time.Duration(c.RateLimitReservationsWindowSec) * time.Second
}

// InitDB opens the MySQL connection described by DB_DSN.
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			getEnv("DB_USER", "root"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_HOST", "127.0.0.1"),
			getEnv("DB_PORT", "3306"),
			getEnv("DB_NAME", "cafe_gaming"),
		)
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
