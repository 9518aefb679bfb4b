package config

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"wagerbot/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Economy configuration
	StartingBalance int64         `env:"STARTING_BALANCE" envDefault:"100000"`
	SessionTimeout  time.Duration `env:"SESSION_TIMEOUT" envDefault:"2m"`
	AccrualInterval time.Duration `env:"ACCRUAL_INTERVAL" envDefault:"1h"`
	GamesConfigPath string        `env:"GAMES_CONFIG_PATH"`

	// Discord IDs allowed to run admin commands
	AdminDiscordIDs []int64 `env:"ADMIN_DISCORD_IDS" envSeparator:","`

	// NATS event forwarding
	NATSEnabled bool   `env:"NATS_ENABLED" envDefault:"false"`
	NATSServers string `env:"NATS_SERVERS" envDefault:"nats://localhost:4222"`

	// OpenTelemetry metrics
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"wagerbot"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"console"`
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"30000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()

	once.Do(func() {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetTestConfig replaces the global configuration. Tests only.
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global configuration so the next Get reloads it
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig returns a configuration suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		StartingBalance:          100000,
		SessionTimeout:           2 * time.Minute,
		AccrualInterval:          time.Hour,
		NATSServers:              "nats://localhost:4222",
		OTelServiceName:          "wagerbot-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 30000,
		Environment:              "test",
		LogLevel:                 "debug",
	}
}

// IsAdmin reports whether discordID may run admin commands
func (c *Config) IsAdmin(discordID int64) bool {
	return slices.Contains(c.AdminDiscordIDs, discordID)
}

// DatabaseConnectionURL combines DATABASE_URL and DATABASE_NAME
func (c *Config) DatabaseConnectionURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

func load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE must not be negative")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.AccrualInterval <= 0 {
		return fmt.Errorf("ACCRUAL_INTERVAL must be positive")
	}

	if c.Environment == "test" {
		return nil
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
