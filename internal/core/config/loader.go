package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Telegram.PageSize == 0 {
		cfg.Telegram.PageSize = 5
	}
	if cfg.Refresh.FrequencyDays == 0 {
		cfg.Refresh.FrequencyDays = 7
	}
	if cfg.Refresh.CycleInterval == 0 {
		cfg.Refresh.CycleInterval = 24 * time.Hour
	}

	return &cfg, nil
}
