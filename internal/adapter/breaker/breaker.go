// Package breaker wraps upstream sources in circuit breakers so that a
// failing upstream is not hammered by every incoming request.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

// Settings tune when a breaker opens and how long it stays open.
type Settings struct {
	MaxFailures uint32        // consecutive failures that open the breaker
	OpenTimeout time.Duration // time spent open before a trial request
}

type breaker[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	logger *slog.Logger
}

func newBreaker[T any](name string, s Settings, logger *slog.Logger, metrics *observability.Metrics) breaker[T] {
	metrics.BreakerState.WithLabelValues(name).Set(observability.BreakerClosed)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller hanging up says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return breaker[T]{cb: cb, logger: logger}
}

func (b breaker[T]) execute(fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Debug("request rejected by circuit breaker", "breaker", b.cb.Name(), "error", err)
		return v, fmt.Errorf("%w: %s: %w", domain.ErrUpstream, b.cb.Name(), err)
	}
	return v, err
}

// Name returns the breaker name.
func (b breaker[T]) Name() string { return b.cb.Name() }

// Open reports whether the breaker is rejecting calls.
func (b breaker[T]) Open() bool { return b.cb.State() == gobreaker.StateOpen }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return observability.BreakerHalfOpen
	case gobreaker.StateOpen:
		return observability.BreakerOpen
	default:
		return observability.BreakerClosed
	}
}

// IndicatorSource guards a domain.IndicatorSource with a circuit breaker.
type IndicatorSource struct {
	breaker[[]domain.IndicatorRecord]
	inner domain.IndicatorSource
}

// NewIndicatorSource wraps inner.
func NewIndicatorSource(inner domain.IndicatorSource, s Settings, logger *slog.Logger, metrics *observability.Metrics) *IndicatorSource {
	return &IndicatorSource{
		breaker: newBreaker[[]domain.IndicatorRecord]("indicator-source", s, logger, metrics),
		inner:   inner,
	}
}

func (s *IndicatorSource) FetchIndicator(ctx context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	return s.execute(func() ([]domain.IndicatorRecord, error) {
		return s.inner.FetchIndicator(ctx, id)
	})
}

// BoundarySource guards a domain.BoundarySource with a circuit breaker.
type BoundarySource struct {
	breaker[[]domain.AreaBoundary]
	inner domain.BoundarySource
}

// NewBoundarySource wraps inner.
func NewBoundarySource(inner domain.BoundarySource, s Settings, logger *slog.Logger, metrics *observability.Metrics) *BoundarySource {
	return &BoundarySource{
		breaker: newBreaker[[]domain.AreaBoundary]("boundary-source", s, logger, metrics),
		inner:   inner,
	}
}

func (s *BoundarySource) FetchBoundaries(ctx context.Context) ([]domain.AreaBoundary, error) {
	return s.execute(func() ([]domain.AreaBoundary, error) {
		return s.inner.FetchBoundaries(ctx)
	})
}

// Guard is implemented by the breaker-wrapped sources.
type Guard interface {
	Name() string
	Open() bool
}

// Readiness reports the service not ready while any breaker is open.
type Readiness []Guard

// CheckReadiness implements the readiness check.
func (r Readiness) CheckReadiness(_ context.Context) error {
	var open []string
	for _, g := range r {
		if g.Open() {
			open = append(open, g.Name())
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("circuit open: %s", strings.Join(open, ", "))
	}
	return nil
}
