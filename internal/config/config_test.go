package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected defaults to load, got: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("Expected OCR language eng, got %s", cfg.OCRLanguage)
	}
	if cfg.ThresholdWindow != 31 || cfg.ThresholdOffset != 10 {
		t.Errorf("Expected threshold window 31/offset 10, got %d/%d", cfg.ThresholdWindow, cfg.ThresholdOffset)
	}
	if cfg.PolarityMidpoint != 127 {
		t.Errorf("Expected polarity midpoint 127, got %g", cfg.PolarityMidpoint)
	}
	if cfg.HighLeverage != 10 || cfg.MidLeverage != 5 {
		t.Errorf("Expected leverage tiers 10/5, got %g/%g", cfg.HighLeverage, cfg.MidLeverage)
	}
	if cfg.AzureEnabled() {
		t.Error("Expected Azure to be disabled without credentials")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("OCR_LANGUAGE", "por")
	t.Setenv("THRESHOLD_WINDOW", "25")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "acct")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.OCRLanguage != "por" {
		t.Errorf("Expected por, got %s", cfg.OCRLanguage)
	}
	if cfg.ThresholdWindow != 25 {
		t.Errorf("Expected window 25, got %d", cfg.ThresholdWindow)
	}
	if !cfg.AzureEnabled() {
		t.Error("Expected Azure to be enabled")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"even threshold window", "THRESHOLD_WINDOW", "30"},
		{"tiny threshold window", "THRESHOLD_WINDOW", "1"},
		{"zero batch size", "MAX_BATCH_SIZE", "0"},
		{"negative workers", "MAX_WORKERS", "-2"},
		{"inverted leverage tiers", "MID_LEVERAGE", "12"},
		{"midpoint out of range", "POLARITY_MIDPOINT", "300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
