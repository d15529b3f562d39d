package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"auctionhouse/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	DatabaseMaxConns int32

	// HTTP configuration
	HTTPAddr string

	// Authentication configuration
	JWTSecret        string
	JWTTTL           time.Duration
	JWTRefreshTTL    time.Duration
	BcryptCost       int
	LockoutThreshold int           // Failed logins before the account is locked
	LockoutDuration  time.Duration // How long a lock lasts before the next login unlocks it

	// Ledger configuration
	TopUpMinimum int64

	// When true the owner is credited the final price as the lot becomes SOLD
	SellerPayoutEnabled bool

	// Scheduler configuration
	SettlementInterval time.Duration
	PurgeHour          int // Hour in UTC when the purge sweep runs (0-23)
	PurgeRetention     time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from the environment, reading .env first when present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTTTL:           24 * time.Hour,
		JWTRefreshTTL:    7 * 24 * time.Hour,
		BcryptCost:       10,
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,

		TopUpMinimum: 100,

		SettlementInterval: time.Minute,
		PurgeHour:          2,
		PurgeRetention:     7 * 24 * time.Hour,

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "json"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var errs []string
	parseInt := func(key string, apply func(int64)) {
		if raw := os.Getenv(key); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			apply(v)
		}
	}
	parseDuration := func(key string, target *time.Duration) {
		if raw := os.Getenv(key); raw != "" {
			v, err := time.ParseDuration(raw)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*target = v
		}
	}

	parseInt("DATABASE_MAX_CONNS", func(v int64) { config.DatabaseMaxConns = int32(v) })
	parseInt("BCRYPT_COST", func(v int64) { config.BcryptCost = int(v) })
	parseInt("LOCKOUT_THRESHOLD", func(v int64) { config.LockoutThreshold = int(v) })
	parseInt("TOP_UP_MINIMUM", func(v int64) { config.TopUpMinimum = v })
	parseInt("PURGE_HOUR", func(v int64) { config.PurgeHour = int(v) })
	parseDuration("JWT_TTL", &config.JWTTTL)
	parseDuration("JWT_REFRESH_TTL", &config.JWTRefreshTTL)
	parseDuration("LOCKOUT_DURATION", &config.LockoutDuration)
	parseDuration("SETTLEMENT_INTERVAL", &config.SettlementInterval)
	parseDuration("PURGE_RETENTION", &config.PurgeRetention)

	if raw := os.Getenv("SELLER_PAYOUT_ENABLED"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SELLER_PAYOUT_ENABLED: %v", err))
		} else {
			config.SellerPayoutEnabled = v
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PurgeHour < 0 || c.PurgeHour > 23 {
		return fmt.Errorf("PURGE_HOUR must be between 0 and 23, got %d", c.PurgeHour)
	}
	if c.LockoutThreshold <= 0 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be positive, got %d", c.LockoutThreshold)
	}
	if c.SettlementInterval <= 0 {
		return fmt.Errorf("SETTLEMENT_INTERVAL must be positive")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:           ":0",
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		JWTRefreshTTL:      24 * time.Hour,
		BcryptCost:         4, // bcrypt.MinCost keeps tests fast
		LockoutThreshold:   5,
		LockoutDuration:    15 * time.Minute,
		TopUpMinimum:       100,
		SettlementInterval: time.Minute,
		PurgeHour:          2,
		PurgeRetention:     7 * 24 * time.Hour,
		LogLevel:           "debug",
		LogFormat:          "text",
		Environment:        "test",
	}
}
