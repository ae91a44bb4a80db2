package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/common"
	"github.com/i474232898/weather-view/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, backoff BackoffConfig, logger *zap.Logger) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("weatherapi", logger),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) ByCoordinates(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	// WeatherAPI uses "q" for location; it accepts "city" or "lat,lon".
	return p.fetch(ctx, fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
}

func (p *WeatherAPIProvider) ByCity(ctx context.Context, city string) (weather.Reading, error) {
	r, err := p.fetch(ctx, city)
	// WeatherAPI answers 400 with code 1006 for places it cannot match.
	if errors.Is(err, errClientError) {
		return r, fmt.Errorf("%w: %v", weather.ErrNotFound, err)
	}
	return r, err
}

func (p *WeatherAPIProvider) fetch(ctx context.Context, q string) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", q)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			IsDay     int     `json:"is_day"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("decode weatherapi response: %w", err)
	}

	cond := mapWeatherAPICondition(payload.Current.Condition.Text)
	id, main, icon := cond.OWM(payload.Current.IsDay == 1)

	place := payload.Location.Name
	if place != "" && payload.Location.Country != "" {
		place = place + ", " + payload.Location.Country
	}

	return weather.Reading{
		Description: common.Lower(payload.Current.Condition.Text),
		Icon:        icon,
		ConditionID: id,
		Main:        main,
		DegreesC:    payload.Current.TempC,
		Place:       place,
		Provider:    p.name,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(text, "fog", "mist"):
		return weather.ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
