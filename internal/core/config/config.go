package config

import (
	"time"

	"github.com/hwbot/partswatch/internal/bot"
	redisclient "github.com/hwbot/partswatch/internal/infra/redis"
	"github.com/hwbot/partswatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Telegram bot.Config         `yaml:"telegram"`
	Fetch    FetchConfig        `yaml:"fetch"`
	Refresh  RefreshConfig      `yaml:"refresh"`
	History  HistoryConfig      `yaml:"history"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// FetchConfig holds settings for the product-search API client.
type FetchConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	APIHost string `yaml:"api_host"`

	PageSizes []int           `yaml:"page_sizes"`
	Delays    []time.Duration `yaml:"delays"`

	BaseTimeout    time.Duration `yaml:"base_timeout"`
	TimeoutStep    time.Duration `yaml:"timeout_step"`
	TimeoutCeiling time.Duration `yaml:"timeout_ceiling"`
	MaxRequests    int           `yaml:"max_requests"`
}

// RefreshConfig holds scheduler settings.
type RefreshConfig struct {
	FrequencyDays int           `yaml:"frequency_days"`
	CycleInterval time.Duration `yaml:"cycle_interval"`
}

// HistoryConfig holds query-history retention settings.
type HistoryConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 = keep forever
}
