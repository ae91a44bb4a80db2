package store

import (
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-view/internal/weather"
)

var (
	// ErrNotFound is returned when no reading is available.
	ErrNotFound = weather.ErrNoHistory
)

// ReadingHistory holds a time-ordered list of readings for one lookup key.
type ReadingHistory struct {
	Readings []weather.Reading
}

// MemoryStore is a concurrency-safe in-memory log of fetched readings.
// Nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	// key: lookup key, value: history
	data map[string]*ReadingHistory

	// retention configuration
	maxHistory int           // max number of readings per key
	maxAge     time.Duration // optional max age for readings

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReadingHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReading appends a reading under key and enforces the count limit.
func (s *MemoryStore) SaveReading(key string, r weather.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &ReadingHistory{}
		s.data[key] = history
	}

	history.Readings = append(history.Readings, r)

	if s.maxHistory > 0 && len(history.Readings) > s.maxHistory {
		over := len(history.Readings) - s.maxHistory
		history.Readings = history.Readings[over:]
	}
}

// Prune drops readings older than the configured max age and returns how
// many were removed. Keys left empty are forgotten.
func (s *MemoryStore) Prune() int {
	if s.maxAge <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, history := range s.data {
		i := 0
		for ; i < len(history.Readings); i++ {
			if !history.Readings[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		removed += i
		history.Readings = history.Readings[i:]
		if len(history.Readings) == 0 {
			delete(s.data, key)
		}
	}
	return removed
}

// Latest returns the most recent reading for key.
func (s *MemoryStore) Latest(key string) (weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Readings) == 0 {
		return weather.Reading{}, ErrNotFound
	}
	return history.Readings[len(history.Readings)-1], nil
}

// Range returns readings of every key fetched between from and to
// (inclusive), oldest first.
func (s *MemoryStore) Range(from, to time.Time) ([]weather.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Reading
	for _, history := range s.data {
		for _, r := range history.Readings {
			if !r.FetchedAt.Before(from) && !r.FetchedAt.After(to) {
				result = append(result, r)
			}
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FetchedAt.Before(result[j].FetchedAt)
	})
	return result, nil
}
