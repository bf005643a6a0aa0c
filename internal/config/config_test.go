package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "tetrasire-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Chat.Provider != "longpoll" {
		t.Fatalf("unexpected Chat.Provider: %s", cfg.Chat.Provider)
	}
	if cfg.Chat.ChatID != "gold-signals" {
		t.Fatalf("unexpected Chat.ChatID: %s", cfg.Chat.ChatID)
	}
	if cfg.Chat.PollInterval != 750 {
		t.Fatalf("unexpected Chat.PollInterval: %d", cfg.Chat.PollInterval)
	}
	if cfg.Risk.RiskPercent != 0.5 {
		t.Fatalf("unexpected Risk.RiskPercent: %.2f", cfg.Risk.RiskPercent)
	}
	if cfg.Trade.Symbol != "XAUUSD" {
		t.Fatalf("unexpected Trade.Symbol: %s", cfg.Trade.Symbol)
	}
	if cfg.Trade.Magic != 4242 {
		t.Fatalf("unexpected Trade.Magic: %d", cfg.Trade.Magic)
	}
	if !cfg.Trade.DryRun || !cfg.Trade.LimitOnly {
		t.Fatalf("expected dry_run and limit_only enabled")
	}
	if cfg.Trade.LimitBuffer != 0.25 {
		t.Fatalf("unexpected Trade.LimitBuffer: %.2f", cfg.Trade.LimitBuffer)
	}
	if cfg.Trade.TPIndex != 2 {
		t.Fatalf("unexpected Trade.TPIndex: %d", cfg.Trade.TPIndex)
	}
	if cfg.Trade.MergeWindow != 90 {
		t.Fatalf("unexpected Trade.MergeWindow: %d", cfg.Trade.MergeWindow)
	}
	if cfg.Trade.PendingExpiry != 30 {
		t.Fatalf("unexpected Trade.PendingExpiry: %d", cfg.Trade.PendingExpiry)
	}
	if cfg.Trade.ReduceFactor != 0.4 {
		t.Fatalf("unexpected Trade.ReduceFactor: %.2f", cfg.Trade.ReduceFactor)
	}
	if cfg.Trade.JournalPath != "data/test-actions.jsonl" {
		t.Fatalf("unexpected Trade.JournalPath: %s", cfg.Trade.JournalPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultsApplied(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.App.LogLevel != "info" {
		t.Fatalf("expected info log level default, got %s", cfg.App.LogLevel)
	}
	if cfg.Chat.Provider != "stub" {
		t.Fatalf("expected stub provider default, got %s", cfg.Chat.Provider)
	}
	if cfg.Risk.RiskPercent != 1.0 {
		t.Fatalf("expected 1%% risk default, got %.2f", cfg.Risk.RiskPercent)
	}
	if cfg.Trade.MergeWindow != 60 {
		t.Fatalf("expected 60s merge window default, got %d", cfg.Trade.MergeWindow)
	}
	if cfg.Trade.PendingExpiry != 60 {
		t.Fatalf("expected 60m pending expiry default, got %d", cfg.Trade.PendingExpiry)
	}
	if cfg.Trade.ReduceFactor != 0.5 {
		t.Fatalf("expected 0.5 reduce factor default, got %.2f", cfg.Trade.ReduceFactor)
	}
}
