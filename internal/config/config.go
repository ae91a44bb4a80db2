package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Geolocation strategies.
const (
	GeoIP      = "ip"
	GeoGeocode = "geocode"
	GeoStatic  = "static"
	GeoBrowser = "browser"
)

type AppConfig struct {
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`

	// HTTPTimeout bounds every outbound collaborator call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Providers are tried in this order for every request.
	Providers         []string `validate:"min=1,dive,oneof=openweather weatherapi openmeteo"`
	OpenWeatherAPIKey string   `validate:"required_if=UsesOpenWeather true"`
	WeatherAPIKey     string   `validate:"required_if=UsesWeatherAPI true"`
	UsesOpenWeather   bool
	UsesWeatherAPI    bool
	MaxRetries        int           `validate:"gte=0,lte=5"`
	RetryInterval     time.Duration `validate:"required_with=MaxRetries"`

	IconBaseURL string `validate:"required,url"`

	Geolocation    string  `validate:"oneof=ip geocode static browser"`
	GeocoderAPIKey string  `validate:"required_if=Geolocation geocode"`
	HomeCity       string  `validate:"required_if=Geolocation geocode"`
	HomeCountry    string
	HomeLat        float64 `validate:"latitude"`
	HomeLon        float64 `validate:"longitude"`

	// In-memory reading log retention.
	StoreMaxHistory    int           // max number of readings per lookup (0 = unlimited)
	StoreMaxAge        time.Duration // max age of readings (0 = unlimited)
	StoreSweepInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("no .env file found, using environment variables")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")

	// Open-Meteo needs no key, so it is always a usable default.
	defaultProviders := "openmeteo"
	if cfg.OpenWeatherAPIKey != "" {
		defaultProviders = "openweather,openmeteo"
	}
	cfg.Providers = splitList(getenvDefault("WEATHER_PROVIDERS", defaultProviders))
	for _, p := range cfg.Providers {
		switch p {
		case "openweather":
			cfg.UsesOpenWeather = true
		case "weatherapi":
			cfg.UsesWeatherAPI = true
		}
	}
	cfg.MaxRetries = getenvInt("WEATHER_MAX_RETRIES", 0)
	if cfg.RetryInterval, err = getenvDuration("WEATHER_RETRY_INTERVAL", "500ms"); err != nil {
		return nil, err
	}

	cfg.IconBaseURL = getenvDefault("ICON_BASE_URL", "https://openweathermap.org")

	cfg.Geolocation = getenvDefault("GEOLOCATION", GeoIP)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.HomeCity = os.Getenv("WEATHER_HOME_CITY")
	cfg.HomeCountry = os.Getenv("WEATHER_HOME_COUNTRY")
	if cfg.HomeLat, err = getenvFloat("WEATHER_HOME_LAT", 0); err != nil {
		return nil, err
	}
	if cfg.HomeLon, err = getenvFloat("WEATHER_HOME_LON", 0); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 100)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.StoreSweepInterval, err = getenvDuration("STORE_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
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
		zap.L().Warn("failed to parse int, using default", zap.String("key", key), zap.Error(err))
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
