package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key; city names are resolved with Open-Meteo's geocoder.
type OpenMeteoProvider struct {
	name       string
	baseURL    string
	geocodeURL string
	httpCfg    HTTPClientConfig
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, backoff BackoffConfig, logger *zap.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:       "openmeteo",
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		geocodeURL: "https://geocoding-api.open-meteo.com/v1/search",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("openmeteo", logger),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) ByCity(ctx context.Context, city string) (weather.Reading, error) {
	loc, err := p.geocode(ctx, city)
	if err != nil {
		return weather.Reading{}, err
	}
	return p.ByCoordinates(ctx, loc)
}

func (p *OpenMeteoProvider) geocode(ctx context.Context, city string) (weather.Location, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", city)
		values.Set("count", "1")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", p.geocodeURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if errors.Is(err, errClientError) {
			return weather.Location{}, fmt.Errorf("%w: %v", weather.ErrNotFound, err)
		}
		return weather.Location{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country_code"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, fmt.Errorf("decode openmeteo geocoding response: %w", err)
	}
	if len(payload.Results) == 0 {
		return weather.Location{}, fmt.Errorf("%w: %q", weather.ErrNotFound, city)
	}

	r := payload.Results[0]
	return weather.Location{
		Lat:     r.Latitude,
		Lon:     r.Longitude,
		City:    r.Name,
		Country: r.Country,
	}, nil
}

func (p *OpenMeteoProvider) ByCoordinates(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("current_weather", "true")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
			IsDay       int     `json:"is_day"`
		} `json:"current_weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	code := payload.CurrentWeather.WeatherCode
	id, main, icon := mapOpenMeteoCondition(code).OWM(payload.CurrentWeather.IsDay == 1)

	place := loc.City
	if place != "" && loc.Country != "" {
		place = place + ", " + loc.Country
	}

	return weather.Reading{
		Description: wmoDescription(code),
		Icon:        icon,
		ConditionID: id,
		Main:        main,
		DegreesC:    payload.CurrentWeather.Temperature,
		Place:       place,
		Provider:    p.name,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on Open-Meteo weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}

// wmoDescription returns a short lower-case description for a WMO code,
// worded like OpenWeatherMap descriptions.
func wmoDescription(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code == 1:
		return "few clouds"
	case code == 2:
		return "scattered clouds"
	case code == 3:
		return "overcast clouds"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code == 61 || code == 80:
		return "light rain"
	case code == 63 || code == 81:
		return "moderate rain"
	case code == 65 || code == 82:
		return "heavy intensity rain"
	case code == 66 || code == 67:
		return "freezing rain"
	case code == 71 || code == 85:
		return "light snow"
	case code == 73:
		return "snow"
	case code == 75 || code == 86:
		return "heavy snow"
	case code == 77:
		return "snow grains"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown conditions"
	}
}
