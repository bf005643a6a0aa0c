// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Chat describes the inbound message stream the engine listens to.
type Chat struct {
	Provider     string // stub, websocket, longpoll
	URL          string `yaml:"url"`
	ChatID       string `yaml:"chat_id"`
	PollInterval int    `yaml:"poll_interval_ms"`
}

// Risk encodes how much of the account each signal is allowed to put at stake.
type Risk struct {
	RiskPercent float64 `yaml:"risk_percent"`
}

// Trade groups the order-placement and signal-interpretation policy knobs.
type Trade struct {
	Symbol        string
	Magic         int
	DryRun        bool    `yaml:"dry_run"`
	LimitOnly     bool    `yaml:"limit_only"`
	LimitBuffer   float64 `yaml:"limit_buffer"`
	MarketBuffer  float64 `yaml:"market_buffer"`
	TPIndex       int     `yaml:"tp_index"`
	MergeWindow   int     `yaml:"merge_window_secs"`
	PendingExpiry int     `yaml:"pending_expiry_mins"`
	ReduceFactor  float64 `yaml:"reduce_factor"`
	JournalPath   string  `yaml:"journal_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App   App   `yaml:"app"`
	Chat  Chat  `yaml:"chat"`
	Risk  Risk  `yaml:"risk"`
	Trade Trade `yaml:"trade"`
}

// Load reads a YAML file from disk and hydrates a Config struct with
// defaults applied for unset policy knobs.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "stub"
	}
	if c.Risk.RiskPercent <= 0 {
		c.Risk.RiskPercent = 1.0
	}
	if c.Trade.MergeWindow <= 0 {
		c.Trade.MergeWindow = 60
	}
	if c.Trade.PendingExpiry <= 0 {
		c.Trade.PendingExpiry = 60
	}
	if c.Trade.ReduceFactor <= 0 || c.Trade.ReduceFactor >= 1 {
		c.Trade.ReduceFactor = 0.5
	}
}
