package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service asks providers in order and returns the first reading it gets.
// Each provider is tried once per request; successful readings are logged to
// the store.
type Service struct {
	store     Store
	providers []Provider
	logger    *zap.Logger
}

// NewService creates a new Service. store may be nil.
func NewService(store Store, providers []Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		providers: providers,
		logger:    logger,
	}
}

// ByCoordinates returns current conditions at loc.
func (s *Service) ByCoordinates(ctx context.Context, loc Location) (Reading, error) {
	return s.first(ctx, loc.Key(), func(p Provider) (Reading, error) {
		return p.ByCoordinates(ctx, loc)
	})
}

// ByCity returns current conditions for a free-text city name. The name is
// handed to providers exactly as given.
func (s *Service) ByCity(ctx context.Context, city string) (Reading, error) {
	return s.first(ctx, CityKey(city), func(p Provider) (Reading, error) {
		return p.ByCity(ctx, city)
	})
}

func (s *Service) first(ctx context.Context, key string, fetch func(Provider) (Reading, error)) (Reading, error) {
	if len(s.providers) == 0 {
		s.logger.Error("no weather providers configured", zap.String("key", key))
		return Reading{}, fmt.Errorf("%w: no weather providers configured", ErrUnavailable)
	}

	var errs []error
	for _, p := range s.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		r, err := fetch(p)
		if err != nil {
			s.logger.Warn("provider fetch failed",
				zap.String("provider", p.Name()),
				zap.String("key", key),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		if r.Provider == "" {
			r.Provider = p.Name()
		}
		if r.FetchedAt.IsZero() {
			r.FetchedAt = time.Now().UTC()
		}
		if s.store != nil {
			s.store.SaveReading(key, r)
		}
		return r, nil
	}

	return Reading{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// CityKey is the reading log key of a city lookup.
func CityKey(city string) string {
	return "city:" + strings.ToLower(strings.TrimSpace(city))
}

// Latest returns the most recent logged reading for key (see Location.Key
// and CityKey).
func (s *Service) Latest(key string) (Reading, error) {
	if s.store == nil {
		return Reading{}, ErrNoHistory
	}
	return s.store.Latest(key)
}

// History returns logged readings fetched between from and to (inclusive).
func (s *Service) History(from, to time.Time) ([]Reading, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.Range(from, to)
}
