package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	TgToken           string
	PublicURL         string // base of the upload links sent by the bot
	MaxUploadBytes    int64
	HistogramBins     int
	DefaultCategories int
	SessionTTL        time.Duration
	LogLevel          string
	Currency          string
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the process-wide configuration, loaded once.
func GetConfig() *Config {
	once.Do(func() {
		// .env is optional, the environment wins when both are set
		_ = godotenv.Load()
		config = Load()
	})
	return config
}

// Load reads the configuration from the environment without caching it.
func Load() *Config {
	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8005"),
		TgToken:           getEnv("TG_TOKEN", ""),
		PublicURL:         strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8005"), "/"),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
		HistogramBins:     getEnvInt("HISTOGRAM_BINS", 20),
		DefaultCategories: getEnvInt("DEFAULT_CATEGORIES", 3),
		SessionTTL:        getEnvDuration("SESSION_TTL", time.Hour),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Currency:          getEnv("CURRENCY", "R$"),
	}
}

// Validate returns every problem found, joined into one error.
func (c *Config) Validate() error {
	var problems []string

	if c.HTTPAddr == "" {
		problems = append(problems, "HTTP_ADDR cannot be empty")
	} else if !strings.Contains(c.HTTPAddr, ":") {
		problems = append(problems, fmt.Sprintf("invalid HTTP_ADDR '%s': expected host:port", c.HTTPAddr))
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}
	if c.HistogramBins < 1 || c.HistogramBins > 500 {
		problems = append(problems, fmt.Sprintf("invalid HISTOGRAM_BINS %d: must be between 1 and 500", c.HistogramBins))
	}
	if c.DefaultCategories < 0 {
		problems = append(problems, "DEFAULT_CATEGORIES cannot be negative")
	}
	if c.SessionTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid SESSION_TTL %s: must be at least 1m", c.SessionTTL))
	}
	if _, err := c.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL '%s': %w", c.LogLevel, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
