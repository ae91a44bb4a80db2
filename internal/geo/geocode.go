package geo

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-view/internal/common"
	"github.com/i474232898/weather-view/internal/weather"
)

// GeocodeLocator resolves a configured home city to coordinates with the
// Google Geocoding API.
type GeocodeLocator struct {
	city    string
	country string

	geocode func(geocoder.Address) (geocoder.Location, error)
}

func NewGeocodeLocator(apiKey, city, country string) *GeocodeLocator {
	// The geocoder package keeps its key in a package variable.
	geocoder.ApiKey = apiKey

	return &GeocodeLocator{
		city:    common.Title(city),
		country: country,
		geocode: geocoder.Geocoding,
	}
}

func (l *GeocodeLocator) Locate(ctx context.Context) (weather.Location, error) {
	type result struct {
		loc geocoder.Location
		err error
	}

	// geocoder has no context support; abandon the call if ctx ends first.
	ch := make(chan result, 1)
	go func() {
		loc, err := l.geocode(geocoder.Address{City: l.city, Country: l.country})
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Location{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return weather.Location{}, fmt.Errorf("%w: geocode %q: %v", ErrUnavailable, l.city, res.err)
		}
		return weather.Location{
			Lat:     res.loc.Latitude,
			Lon:     res.loc.Longitude,
			City:    l.city,
			Country: l.country,
		}, nil
	}
}
