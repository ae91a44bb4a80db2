package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/weather"
)

func noRetry() BackoffConfig {
	return BackoffConfig{}
}

func TestOpenWeatherByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "51.5" || q.Get("lon") != "-0.1" {
			t.Errorf("unexpected coordinates: %s", r.URL.RawQuery)
		}
		if q.Get("units") != "metric" || q.Get("appid") != "key" {
			t.Errorf("missing units or appid: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"weather":[{"id":800,"main":"Clear","description":"clear sky","icon":"01d"}],"main":{"temp":22},"sys":{"country":"GB"},"name":"London"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "key", noRetry(), zap.NewNop())
	p.baseURL = srv.URL

	r, err := p.ByCoordinates(context.Background(), weather.Location{Lat: 51.5, Lon: -0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Description != "clear sky" || r.Icon != "01d" || r.ConditionID != 800 || r.Main != "Clear" || r.DegreesC != 22 {
		t.Fatalf("unexpected reading: %+v", r)
	}
	if r.Place != "London, GB" {
		t.Fatalf("expected place London, GB, got %q", r.Place)
	}
}

func TestOpenWeatherByCityPassesTextVerbatim(t *testing.T) {
	var gotQ atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ.Store(r.URL.Query().Get("q"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "key", noRetry(), zap.NewNop())
	p.baseURL = srv.URL

	_, err := p.ByCity(context.Background(), "  paris ")
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := gotQ.Load(); got != "  paris " {
		t.Fatalf("expected city text to be sent as typed, got %q", got)
	}
}

func TestOpenWeatherRequiresKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", noRetry(), zap.NewNop())
	if _, err := p.ByCity(context.Background(), "Paris"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestWeatherAPIMapsConditionToIcon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Oslo" {
			t.Errorf("unexpected q: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"location":{"name":"Oslo","country":"Norway"},"current":{"temp_c":-15,"is_day":0,"condition":{"text":"Light Snow"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "key", noRetry(), zap.NewNop())
	p.baseURL = srv.URL

	r, err := p.ByCity(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Icon != "13n" || r.Main != "Snow" || r.Description != "light snow" || r.DegreesC != -15 {
		t.Fatalf("unexpected reading: %+v", r)
	}
}

func TestWeatherAPIUnknownCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "key", noRetry(), zap.NewNop())
	p.baseURL = srv.URL

	if _, err := p.ByCity(context.Background(), "Atlantis"); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenMeteoByCityGeocodesFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "Paris" {
			t.Errorf("unexpected name: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results":[{"name":"Paris","latitude":48.85,"longitude":2.35,"country_code":"FR"}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("latitude") != "48.85" {
			t.Errorf("unexpected latitude: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"current_weather":{"temperature":12.5,"weathercode":0,"is_day":1}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), noRetry(), zap.NewNop())
	p.baseURL = srv.URL + "/forecast"
	p.geocodeURL = srv.URL + "/search"

	r, err := p.ByCity(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Icon != "01d" || r.Description != "clear sky" || r.ConditionID != 800 || r.DegreesC != 12.5 {
		t.Fatalf("unexpected reading: %+v", r)
	}
	if r.Place != "Paris, FR" {
		t.Fatalf("expected place Paris, FR, got %q", r.Place)
	}
}

func TestOpenMeteoNoGeocodingResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), noRetry(), zap.NewNop())
	p.geocodeURL = srv.URL

	if _, err := p.ByCity(context.Background(), ""); !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResilienceSingleTryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := newCircuitBreaker("test", zap.NewNop())
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) }

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{Client: srv.Client()}, cb, build)
	if !errors.Is(err, errServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestResilienceRetriesWhenConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{
		Client: srv.Client(),
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
	cb := newCircuitBreaker("test", zap.NewNop())
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) }

	resp, err := doRequestWithResilience(context.Background(), cfg, cb, build)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 calls, got %d", n)
	}
}

func TestResilienceRejectsBadConfig(t *testing.T) {
	cfg := HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: 2}}
	cb := newCircuitBreaker("test", zap.NewNop())
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, "http://example.invalid", nil) }

	if _, err := doRequestWithResilience(context.Background(), cfg, cb, build); !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected errInvalidConfig, got %v", err)
	}
}

func TestMapWeatherAPICondition(t *testing.T) {
	cases := map[string]weather.Condition{
		"":                         weather.ConditionUnknown,
		"Sunny":                    weather.ConditionClear,
		"Partly cloudy":            weather.ConditionCloudy,
		"Patchy light drizzle":     weather.ConditionRain,
		"Moderate snow":            weather.ConditionSnow,
		"Thundery outbreaks":       weather.ConditionStorm,
		"Freezing fog":             weather.ConditionMist,
		"Something else entirely":  weather.ConditionUnknown,
		"Moderate or heavy sleet":  weather.ConditionSnow,
		"Light rain shower":        weather.ConditionRain,
		"Patchy rain with thunder": weather.ConditionStorm,
	}
	for text, want := range cases {
		if got := mapWeatherAPICondition(text); got != want {
			t.Errorf("%q: expected %s, got %s", text, want, got)
		}
	}
	if !strings.HasPrefix(wmoDescription(0), "clear") {
		t.Errorf("unexpected description for code 0: %q", wmoDescription(0))
	}
}
