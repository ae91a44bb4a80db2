package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-view/internal/weather"
)

type fakeLocator struct {
	loc   weather.Location
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeLocator) Locate(ctx context.Context) (weather.Location, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.loc, f.err
}

// fakeClient answers by-city requests from a per-city gate so tests can
// control completion order.
type fakeClient struct {
	mu          sync.Mutex
	byLocation  weather.Reading
	locationErr error
	locCalls    int
	cities      []string
	gates       map[string]chan struct{}
	byCity      map[string]weather.Reading
}

func (f *fakeClient) ByCoordinates(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	f.mu.Lock()
	f.locCalls++
	f.mu.Unlock()
	return f.byLocation, f.locationErr
}

func (f *fakeClient) ByCity(ctx context.Context, city string) (weather.Reading, error) {
	f.mu.Lock()
	f.cities = append(f.cities, city)
	gate := f.gates[city]
	r, ok := f.byCity[city]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return weather.Reading{}, weather.ErrNotFound
	}
	return r, nil
}

func (f *fakeClient) locationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locCalls
}

// waitFor blocks until cond holds for the view's state or the test times out.
func waitFor(t *testing.T, v *View, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		changed := v.Changed()
		s := v.Snapshot()
		if cond(s) {
			return s
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("timed out waiting for state, last: %+v", s)
		}
	}
}

func settled(s State) bool { return !s.Loading() }

func TestMountLocatesAndFetches(t *testing.T) {
	loc := &fakeLocator{loc: weather.Location{Lat: 51.5, Lon: -0.1}}
	client := &fakeClient{byLocation: weather.Reading{Description: "clear sky", Icon: "01d", DegreesC: 22}}

	v := New(client, loc, Options{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.Mount(ctx)
	v.Mount(ctx)

	s := waitFor(t, v, settled)
	if s.ErrorMessage() != "" {
		t.Fatalf("unexpected error: %q", s.ErrorMessage())
	}
	p := Render(s, StaticContentBase)
	if p.Background != BucketWarm {
		t.Fatalf("expected warm, got %s", p.Background)
	}
	if !strings.HasSuffix(p.IconURL, "01d@2x.png") {
		t.Fatalf("unexpected icon url: %s", p.IconURL)
	}
	if p.DegreesLabel != "+22°C" {
		t.Fatalf("unexpected degrees label: %s", p.DegreesLabel)
	}

	loc.mu.Lock()
	calls := loc.calls
	loc.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly one geolocation request, got %d", calls)
	}
}

func TestMountLocationFailure(t *testing.T) {
	client := &fakeClient{}
	v := New(client, &fakeLocator{err: errors.New("denied")}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.Mount(ctx)
	s := waitFor(t, v, settled)

	if s.ErrorMessage() != "Unable to get your location" {
		t.Fatalf("unexpected message: %q", s.ErrorMessage())
	}
	if client.locationCalls() != 0 {
		t.Fatal("expected no weather fetch after location failure")
	}
}

func TestMountWeatherFailure(t *testing.T) {
	client := &fakeClient{locationErr: weather.ErrUnavailable}
	v := New(client, &fakeLocator{loc: weather.Location{Lat: 1, Lon: 1}}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.Mount(ctx)
	s := waitFor(t, v, settled)

	if s.ErrorMessage() != "Unable to fetch weather for your location, try later" {
		t.Fatalf("unexpected message: %q", s.ErrorMessage())
	}
}

func TestSearchAfterError(t *testing.T) {
	client := &fakeClient{
		byCity: map[string]weather.Reading{"Paris": {Description: "snow", Icon: "13d", DegreesC: -15}},
	}
	v := New(client, &fakeLocator{err: errors.New("denied")}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.Mount(ctx)
	waitFor(t, v, settled)

	if _, err := v.Apply(ctx, TextEdited{Text: "Paris"}); err != nil {
		t.Fatalf("apply text: %v", err)
	}
	s, err := v.Apply(ctx, SearchSubmitted{})
	if err != nil {
		t.Fatalf("apply search: %v", err)
	}
	if !s.Loading() {
		t.Fatal("expected loading right after search")
	}

	s = waitFor(t, v, settled)
	if s.ErrorMessage() != "" {
		t.Fatalf("expected error cleared, got %q", s.ErrorMessage())
	}
	if Background(s) != BucketSnow {
		t.Fatalf("expected snow, got %s", Background(s))
	}
}

func TestLateResultDoesNotOverwriteNewerSearch(t *testing.T) {
	slow := make(chan struct{})
	client := &fakeClient{
		gates: map[string]chan struct{}{"Slowtown": slow},
		byCity: map[string]weather.Reading{
			"Slowtown":  {Description: "slow", DegreesC: 40},
			"Fastville": {Description: "fast", DegreesC: 0},
		},
	}
	v := New(client, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.Mount(ctx)

	v.Apply(ctx, TextEdited{Text: "Slowtown"})
	v.Apply(ctx, SearchSubmitted{})
	v.Apply(ctx, TextEdited{Text: "Fastville"})
	v.Apply(ctx, SearchSubmitted{})

	s := waitFor(t, v, settled)
	if s.Reading.Description != "fast" {
		t.Fatalf("expected fast result, got %q", s.Reading.Description)
	}

	// The slow result still arrives and is applied, but must change nothing.
	changed := v.Changed()
	close(slow)
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the slow result")
	}

	if got := v.Snapshot().Reading.Description; got != "fast" {
		t.Fatalf("expected stale slow result to be dropped, got %q", got)
	}
}

func TestSliderDoesNotFetch(t *testing.T) {
	client := &fakeClient{}
	v := New(client, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.Mount(ctx)

	s, err := v.Apply(ctx, SliderMoved{Value: 5})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Reading.DegreesC != 5 || !s.Loading() {
		t.Fatalf("unexpected state: %+v", s)
	}
	client.mu.Lock()
	cities := len(client.cities)
	client.mu.Unlock()
	if client.locationCalls() != 0 || cities != 0 {
		t.Fatal("slider must not fetch weather")
	}
}

func TestClosedViewRejectsEvents(t *testing.T) {
	v := New(&fakeClient{}, nil, Options{})
	v.Mount(context.Background())
	v.Close()

	if err := v.Dispatch(TextEdited{Text: "x"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := v.Apply(context.Background(), TextEdited{Text: "x"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
