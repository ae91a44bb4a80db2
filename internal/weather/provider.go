package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a provider does not know the requested place.
	ErrNotFound = errors.New("location not found")

	// ErrUnavailable is returned when no provider could produce a reading.
	ErrUnavailable = errors.New("weather unavailable")

	// ErrNoHistory is returned when the reading log has nothing to offer.
	ErrNoHistory = errors.New("no weather data")
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	ByCoordinates(ctx context.Context, loc Location) (Reading, error)
	ByCity(ctx context.Context, city string) (Reading, error)
}

// Client is what the view needs from the weather side. Service implements it.
type Client interface {
	ByCoordinates(ctx context.Context, loc Location) (Reading, error)
	ByCity(ctx context.Context, city string) (Reading, error)
}

// Store is the contract the reading log must satisfy.
type Store interface {
	SaveReading(key string, r Reading)
	Latest(key string) (Reading, error)
	Range(from, to time.Time) ([]Reading, error)
}
