package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/geo"
	"github.com/i474232898/weather-view/internal/weather"
)

// ErrClosed is returned when an event is sent to a closed view.
var ErrClosed = errors.New("view closed")

// Options tunes a View.
type Options struct {
	// Timeout bounds each collaborator call. Zero means 10 seconds.
	Timeout time.Duration
	Logger  *zap.Logger
}

type envelope struct {
	event Event
	reply chan State
}

// View owns one State and applies events to it on a single loop goroutine.
// Collaborator calls run on their own goroutines and report back as events.
type View struct {
	client  weather.Client
	locator geo.Locator
	timeout time.Duration
	logger  *zap.Logger

	events    chan envelope
	done      chan struct{}
	mountOnce sync.Once
	closeOnce sync.Once

	mu      sync.RWMutex
	state   State
	changed chan struct{}
}

// New creates a view. locator may be nil when positions are reported from
// outside (e.g. by a browser) through LocationResolved events.
func New(client weather.Client, locator geo.Locator, opts Options) *View {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &View{
		client:  client,
		locator: locator,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		events:  make(chan envelope, 16),
		done:    make(chan struct{}),
		state:   Initial(),
		changed: make(chan struct{}),
	}
}

// Mount starts the event loop and requests the viewer's location once.
// Later calls do nothing. The loop stops when ctx ends or Close is called.
func (v *View) Mount(ctx context.Context) {
	v.mountOnce.Do(func() {
		go v.loop(ctx)

		if v.locator == nil {
			v.logger.Info("view mounted, waiting for an externally reported location")
			return
		}
		go v.locate(ctx)
	})
}

// Close stops the loop. Outstanding fetches finish but their results are dropped.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		close(v.done)
	})
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Changed returns a channel that is closed at the next state change.
func (v *View) Changed() <-chan struct{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.changed
}

// Dispatch queues e without waiting for it to be applied.
func (v *View) Dispatch(e Event) error {
	select {
	case <-v.done:
		return ErrClosed
	default:
	}

	select {
	case v.events <- envelope{event: e}:
		return nil
	case <-v.done:
		return ErrClosed
	}
}

// Apply queues e and waits until the loop has applied it, returning the
// resulting state.
func (v *View) Apply(ctx context.Context, e Event) (State, error) {
	reply := make(chan State, 1)

	select {
	case v.events <- envelope{event: e, reply: reply}:
	case <-v.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-v.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (v *View) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			v.Close()
			return
		case <-v.done:
			return
		case env := <-v.events:
			s := v.apply(env.event)
			if env.reply != nil {
				env.reply <- s
			}
		}
	}
}

// apply runs on the loop goroutine only; the lock serves readers.
func (v *View) apply(e Event) State {
	v.mu.Lock()
	prev := v.state
	next, cmd := Reduce(prev, e)
	v.state = next
	close(v.changed)
	v.changed = make(chan struct{})
	v.mu.Unlock()

	switch e := e.(type) {
	case WeatherFetched:
		if !prev.IsCurrent(e.Seq) {
			v.logger.Debug("dropping stale weather result", zap.Uint64("seq", e.Seq), zap.Uint64("current", prev.Seq))
		}
	case FetchFailed:
		if !prev.IsCurrent(e.Seq) {
			v.logger.Debug("dropping stale weather failure", zap.Uint64("seq", e.Seq), zap.Uint64("current", prev.Seq))
		}
	case LocationFailed:
		v.logger.Warn("location unavailable", zap.Error(e.Err))
	}

	if cmd != nil {
		v.execute(cmd)
	}
	return next
}

func (v *View) locate(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	loc, err := v.locator.Locate(lctx)
	if err != nil {
		_ = v.Dispatch(LocationFailed{Err: err})
		return
	}
	v.logger.Info("location resolved",
		zap.Float64("lat", loc.Lat),
		zap.Float64("lon", loc.Lon),
		zap.String("city", loc.City))
	_ = v.Dispatch(LocationResolved{Location: loc})
}

func (v *View) execute(cmd Command) {
	fetchID := uuid.NewString()

	switch c := cmd.(type) {
	case FetchByLocation:
		logger := v.logger.With(zap.String("fetch_id", fetchID), zap.Uint64("seq", c.Seq))
		logger.Info("fetching weather for location",
			zap.Float64("lat", c.Location.Lat),
			zap.Float64("lon", c.Location.Lon))
		go v.fetch(logger, c.Seq, func(ctx context.Context) (weather.Reading, error) {
			return v.client.ByCoordinates(ctx, c.Location)
		})

	case FetchByCity:
		logger := v.logger.With(zap.String("fetch_id", fetchID), zap.Uint64("seq", c.Seq))
		logger.Info("fetching weather for city", zap.String("city", c.City))
		go v.fetch(logger, c.Seq, func(ctx context.Context) (weather.Reading, error) {
			return v.client.ByCity(ctx, c.City)
		})
	}
}

func (v *View) fetch(logger *zap.Logger, seq uint64, call func(context.Context) (weather.Reading, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	r, err := call(ctx)
	if err != nil {
		logger.Warn("weather fetch failed", zap.Error(err))
		_ = v.Dispatch(FetchFailed{Seq: seq, Err: err})
		return
	}
	logger.Info("weather fetched",
		zap.String("provider", r.Provider),
		zap.Float64("degrees", r.DegreesC),
		zap.String("icon", r.Icon))
	_ = v.Dispatch(WeatherFetched{Seq: seq, Reading: r})
}
