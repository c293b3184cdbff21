package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey string

	// City is the single city shown on the weather screen.
	City  string `validate:"required"`
	Units string `validate:"oneof=standard metric imperial"`

	WeatherBaseURL string `validate:"required,url"`
	IconBaseURL    string `validate:"required,url"`

	// IconDelay is waited before the icon result is delivered (0 = none).
	IconDelay time.Duration `validate:"gte=0"`
	// HTTPTimeout bounds each outbound request (0 = no timeout).
	HTTPTimeout time.Duration `validate:"gte=0"`
	// RefreshInterval re-fetches the mounted screen periodically (0 = off).
	RefreshInterval time.Duration `validate:"gte=0"`

	// BreakerMaxFailures trips the circuit breaker after that many
	// consecutive failures (0 = no breaker).
	BreakerMaxFailures int           `validate:"gte=0"`
	BreakerTimeout     time.Duration `validate:"gte=0"`

	LogLevel string `validate:"oneof=error warning warn info debug verbose"`
	Port     string `validate:"required,numeric"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.City = getenvDefault("WEATHER_CITY", "Kazan")
	cfg.Units = getenvDefault("WEATHER_UNITS", "metric")
	cfg.WeatherBaseURL = getenvDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	cfg.IconBaseURL = getenvDefault("WEATHER_ICON_BASE_URL", "http://openweathermap.org/img/w")

	var err error
	if cfg.IconDelay, err = getenvDuration("ICON_DELAY", "0s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("AUTO_REFRESH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.BreakerMaxFailures = getenvInt("BREAKER_MAX_FAILURES", 0)
	if cfg.BreakerTimeout, err = getenvDuration("BREAKER_TIMEOUT", "1m"); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("WARN: OPENWEATHER_API_KEY is not set; weather requests will fail")
	}

	return cfg, nil
}

// UnitSymbol is the temperature suffix for the configured units.
func (c *AppConfig) UnitSymbol() string {
	switch c.Units {
	case "imperial":
		return "°F"
	case "standard":
		return "K"
	default:
		return "°C"
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
