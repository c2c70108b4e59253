package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64
	MaxWorkers         int
	MaxBatchSize       int

	// OCR engine settings, passed through to the recognizer untouched
	OCRLanguage    string
	TessdataPrefix string

	AzureAccountName string
	AzureAccountKey  string

	// Heuristic constants observed on real dashboard screenshots
	ThresholdWindow  int
	ThresholdOffset  int
	PolarityMidpoint float64
	HighLeverage     float64
	MidLeverage      float64
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob-hosted screenshots can be fetched.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB
		MaxWorkers:         int(parseIntOrDefault("MAX_WORKERS", 0)),
		MaxBatchSize:       int(parseIntOrDefault("MAX_BATCH_SIZE", 10)),
		OCRLanguage:        getEnvOrDefault("OCR_LANGUAGE", "eng"),
		TessdataPrefix:     os.Getenv("TESSDATA_PREFIX"),
		AzureAccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:    os.Getenv("AZURE_STORAGE_KEY"),
		ThresholdWindow:    int(parseIntOrDefault("THRESHOLD_WINDOW", 31)),
		ThresholdOffset:    int(parseIntOrDefault("THRESHOLD_OFFSET", 10)),
		PolarityMidpoint:   parseFloatOrDefault("POLARITY_MIDPOINT", 127),
		HighLeverage:       parseFloatOrDefault("HIGH_LEVERAGE", 10),
		MidLeverage:        parseFloatOrDefault("MID_LEVERAGE", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges of every setting that would otherwise fail late.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			c.RequestTimeout, c.ImageFetchTimeout)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("MAX_WORKERS must be >= 0 (got %d)", c.MaxWorkers)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be > 0 (got %d)", c.MaxBatchSize)
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return fmt.Errorf("OCR_LANGUAGE must not be empty")
	}
	if c.ThresholdWindow < 3 || c.ThresholdWindow%2 == 0 {
		return fmt.Errorf("THRESHOLD_WINDOW must be odd and >= 3 (got %d)", c.ThresholdWindow)
	}
	if c.PolarityMidpoint <= 0 || c.PolarityMidpoint >= 255 {
		return fmt.Errorf("POLARITY_MIDPOINT must be within (0, 255) (got %g)", c.PolarityMidpoint)
	}
	if c.MidLeverage <= 0 || c.HighLeverage <= c.MidLeverage {
		return fmt.Errorf("leverage tiers must satisfy 0 < MID_LEVERAGE < HIGH_LEVERAGE (got mid=%g, high=%g)",
			c.MidLeverage, c.HighLeverage)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
