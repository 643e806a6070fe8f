package config

import (
	"time"

	"golang-deal-sentinel/pkg/config"
)

// Sweep holds orchestrator and fetcher configuration.
type Sweep struct {
	Cron                     string        `mapstructure:"cron"`
	MaxConcurrentFetches     int           `mapstructure:"max_concurrent_fetches"`
	EntriesPerSource         int           `mapstructure:"entries_per_source"`
	EntriesPerTarget         int           `mapstructure:"entries_per_target"`
	HTTPTimeout              time.Duration `mapstructure:"http_timeout"`
	ExtractionQueueSize      int           `mapstructure:"extraction_queue_size"`
	MaxConcurrentExtractions int           `mapstructure:"max_concurrent_extractions"`
	TaskStatusTTL            time.Duration `mapstructure:"task_status_ttl"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// CompaniesHouse holds the configuration for the Companies House API.
type CompaniesHouse struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Pulse holds configuration for the morning pulse briefing.
type Pulse struct {
	Cron        string `mapstructure:"cron"`
	TopN        int    `mapstructure:"top_n"`
	WindowHours int    `mapstructure:"window_hours"`
}

// Config holds the full configuration for the sentinel service.
type Config struct {
	App            config.App      `mapstructure:"app"`
	Logger         config.Logger   `mapstructure:"logger"`
	Database       config.Database `mapstructure:"database"`
	Redis          config.Redis    `mapstructure:"redis"`
	API            config.API      `mapstructure:"api"`
	Sweep          Sweep           `mapstructure:"sweep"`
	Gemini         Gemini          `mapstructure:"gemini"`
	CompaniesHouse CompaniesHouse  `mapstructure:"companies_house"`
	Telegram       Telegram        `mapstructure:"telegram"`
	Pulse          Pulse           `mapstructure:"pulse"`
}

// Load loads the sentinel configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Sweep.MaxConcurrentFetches <= 0 {
		cfg.Sweep.MaxConcurrentFetches = 5
	}
	if cfg.Sweep.EntriesPerSource <= 0 {
		cfg.Sweep.EntriesPerSource = 20
	}
	if cfg.Sweep.EntriesPerTarget <= 0 {
		cfg.Sweep.EntriesPerTarget = 5
	}
	if cfg.Sweep.HTTPTimeout <= 0 {
		cfg.Sweep.HTTPTimeout = 10 * time.Second
	}
	if cfg.Sweep.ExtractionQueueSize <= 0 {
		cfg.Sweep.ExtractionQueueSize = 32
	}
	if cfg.Sweep.MaxConcurrentExtractions <= 0 {
		cfg.Sweep.MaxConcurrentExtractions = 3
	}
	if cfg.Sweep.TaskStatusTTL <= 0 {
		cfg.Sweep.TaskStatusTTL = 24 * time.Hour
	}
	if cfg.Gemini.MaxRequestPerMinute <= 0 {
		cfg.Gemini.MaxRequestPerMinute = 10
	}
	if cfg.CompaniesHouse.BaseURL == "" {
		cfg.CompaniesHouse.BaseURL = "https://api.company-information.service.gov.uk"
	}
	if cfg.CompaniesHouse.MaxRequestPerMinute <= 0 {
		cfg.CompaniesHouse.MaxRequestPerMinute = 100
	}
	if cfg.CompaniesHouse.CacheTTL <= 0 {
		cfg.CompaniesHouse.CacheTTL = 6 * time.Hour
	}
	if cfg.Pulse.TopN <= 0 {
		cfg.Pulse.TopN = 5
	}
	if cfg.Pulse.WindowHours <= 0 {
		cfg.Pulse.WindowHours = 24
	}
}
