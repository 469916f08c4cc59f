// Package config loads the exporter's configuration from the environment,
// optionally seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything one export run needs. BaseURL, APIToken and
// ChannelID are mandatory; everything else has a usable default.
type Config struct {
	BaseURL   string `env:"BASE_URL"`
	APIToken  string `env:"API_TOKEN"`
	ChannelID string `env:"CHANNEL_ID"`

	StartDate string `env:"START_DATE"`
	EndDate   string `env:"END_DATE"`
	FetchAll  bool   `env:"FETCH_ALL" env-default:"false"`

	// KeepThreadReplies keeps out-of-window replies of an in-window root.
	KeepThreadReplies bool `env:"KEEP_THREAD_REPLIES" env-default:"true"`

	VerifySSL bool   `env:"VERIFY_SSL" env-default:"true"`
	Debug     bool   `env:"DEBUG" env-default:"false"`
	OutputDir string `env:"OUTPUT_DIR" env-default:"output"`
}

// Load reads a .env file when present, then the environment, then validates.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("CHANNEL_ID is required")
	}

	if err := checkDate("START_DATE", c.StartDate); err != nil {
		return err
	}
	if err := checkDate("END_DATE", c.EndDate); err != nil {
		return err
	}

	if c.StartDate != "" && c.EndDate != "" {
		start, _ := time.Parse("2006-01-02", c.StartDate)
		end, _ := time.Parse("2006-01-02", c.EndDate)
		if start.After(end) {
			return fmt.Errorf("START_DATE %s is after END_DATE %s", c.StartDate, c.EndDate)
		}
	}

	return nil
}

func checkDate(name, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, value)
	}
	return nil
}
