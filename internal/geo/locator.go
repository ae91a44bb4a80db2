// Package geo answers "where is the viewer?" for the weather view.
package geo

import (
	"context"
	"errors"

	"github.com/i474232898/weather-view/internal/weather"
)

// ErrUnavailable is returned when a locator cannot produce a position.
var ErrUnavailable = errors.New("location unavailable")

// Locator supplies the current position or an error.
type Locator interface {
	Locate(ctx context.Context) (weather.Location, error)
}

// StaticLocator always reports the same configured position.
type StaticLocator struct {
	Location weather.Location
}

func (s StaticLocator) Locate(ctx context.Context) (weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}
	return s.Location, nil
}
