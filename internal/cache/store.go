// Package cache keeps upstream datasets in memory for the life of the
// process. Entries are filled on first use and dropped only by Clear.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

// BoundariesKey is the cache key of the boundary collection.
const BoundariesKey = "boundaries"

const (
	kindIndicator  = "indicator"
	kindBoundaries = "boundaries"
)

// IndicatorKey returns the cache key of an indicator dataset.
func IndicatorKey(id domain.IndicatorID) string {
	return fmt.Sprintf("indicator_%d", int(id))
}

// Entry describes one cached dataset.
type Entry struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Items     int       `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

type slot struct {
	Entry
	value any
}

// Store caches indicator datasets and area boundaries fetched from the
// underlying sources. It is safe for concurrent use; concurrent misses on
// the same key share a single upstream fetch.
type Store struct {
	indicators domain.IndicatorSource
	boundaries domain.BoundarySource
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	group singleflight.Group

	mu         sync.RWMutex
	entries    map[string]slot
	generation uint64 // bumped by Clear so in-flight fetches do not repopulate
}

// NewStore creates an empty store over the given sources.
func NewStore(
	indicators domain.IndicatorSource,
	boundaries domain.BoundarySource,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Store {
	return &Store{
		indicators: indicators,
		boundaries: boundaries,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		entries:    make(map[string]slot),
	}
}

// GetIndicatorData returns every row of an indicator across all geographies.
func (s *Store) GetIndicatorData(ctx context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	return load(ctx, s, IndicatorKey(id), kindIndicator, func(ctx context.Context) ([]domain.IndicatorRecord, error) {
		return s.indicators.FetchIndicator(ctx, id)
	})
}

// GetBoundaries returns the area boundary collection.
func (s *Store) GetBoundaries(ctx context.Context) ([]domain.AreaBoundary, error) {
	return load(ctx, s, BoundariesKey, kindBoundaries, s.boundaries.FetchBoundaries)
}

// Clear drops every entry. The next access to any key fetches again.
func (s *Store) Clear() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]slot)
	s.generation++
	s.metrics.CacheEntries.Set(0)
	s.mu.Unlock()

	s.logger.Info("cache cleared", "entries", n)
}

// Len returns the number of cached datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries describes the cached datasets, ordered by key.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Entry)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.value, ok
}

func (s *Store) put(key, kind string, generation uint64, value any, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.entries[key] = slot{
		Entry: Entry{Key: key, Kind: kind, Items: items, FetchedAt: s.clock.Now()},
		value: value,
	}
	s.metrics.CacheEntries.Set(float64(len(s.entries)))
}

func load[T any](ctx context.Context, s *Store, key, kind string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := s.lookup(key); ok {
		s.metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
		return v.([]T), nil
	}
	s.metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()

	ch := s.group.DoChan(key, func() (any, error) {
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		s.mu.RLock()
		gen := s.generation
		s.mu.RUnlock()

		s.logger.Debug("cache miss, fetching", "key", key)
		// Detached so one caller giving up does not fail the others sharing this fetch.
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			if !errors.Is(err, domain.ErrUpstream) {
				err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
			}
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}
		s.put(key, kind, gen, v, len(v))
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}
