// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// BotConfig holds chat-platform bot configuration.
type BotConfig struct {
	Token          string `mapstructure:"token"`
	AnnounceChatID int64  `mapstructure:"announce_chat_id"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// EconomyConfig holds coin economy configuration.
// SeedCoins is the balance a brand-new user record starts with.
// StrayCoins is the one-off grant behind the stray-coin button, and
// StrayWindow is how long a user must wait between stray claims.
type EconomyConfig struct {
	SeedCoins          int64         `mapstructure:"seed_coins"`
	StrayCoins         int64         `mapstructure:"stray_coins"`
	StrayWindow        time.Duration `mapstructure:"stray_window"`
	LeaderboardSize    int           `mapstructure:"leaderboard_size"`
	EligibilityTimeout time.Duration `mapstructure:"eligibility_timeout"`
}

// ReconcileConfig holds background reconciliation configuration.
type ReconcileConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// HTTPConfig holds the health/admin HTTP listener configuration.
type HTTPConfig struct {
	Addr       string `mapstructure:"addr"`
	AdminToken string `mapstructure:"admin_token"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, HTTP_ADMIN_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "coinbot")
	v.SetDefault("database.name", "coinbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Economy defaults. Seed balance is deliberately explicit: past
	// deployments disagreed on 0 vs 1, so it must never be implied.
	v.SetDefault("economy.seed_coins", 0)
	v.SetDefault("economy.stray_coins", 1)
	v.SetDefault("economy.stray_window", "24h")
	v.SetDefault("economy.leaderboard_size", 10)
	v.SetDefault("economy.eligibility_timeout", "3s")

	// Reconciliation defaults
	v.SetDefault("reconcile.interval", "10m")
	v.SetDefault("reconcile.batch_size", 100)

	// HTTP defaults
	v.SetDefault("http.addr", ":8080")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
