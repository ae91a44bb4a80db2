package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/weather"
)

const ipAPIEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon,city,countryCode"

// IPLocator estimates the position of this host's public address with ip-api.com.
type IPLocator struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger
}

func NewIPLocator(client *http.Client, logger *zap.Logger) *IPLocator {
	return &IPLocator{
		client:   client,
		endpoint: ipAPIEndpoint,
		logger:   logger,
	}
}

func (l *IPLocator) Locate(ctx context.Context) (weather.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return weather.Location{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return weather.Location{}, fmt.Errorf("%w: ip lookup returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Status      string  `json:"status"`
		Message     string  `json:"message"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		City        string  `json:"city"`
		CountryCode string  `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, fmt.Errorf("%w: decode ip lookup: %v", ErrUnavailable, err)
	}
	if payload.Status != "success" {
		return weather.Location{}, fmt.Errorf("%w: ip lookup failed: %s", ErrUnavailable, payload.Message)
	}

	l.logger.Debug("located by ip",
		zap.String("city", payload.City),
		zap.Float64("lat", payload.Lat),
		zap.Float64("lon", payload.Lon))

	return weather.Location{
		Lat:     payload.Lat,
		Lon:     payload.Lon,
		City:    payload.City,
		Country: payload.CountryCode,
	}, nil
}
