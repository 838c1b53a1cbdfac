package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

var errFlaky = errors.New("connection reset")

type flakyIndicators struct {
	calls int
	err   error
}

func (f *flakyIndicators) FetchIndicator(_ context.Context, _ domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []domain.IndicatorRecord{{AreaCode: "E92000001"}}, nil
}

type flakyBoundaries struct {
	calls int
	err   error
}

func (f *flakyBoundaries) FetchBoundaries(_ context.Context) ([]domain.AreaBoundary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []domain.AreaBoundary{{Code: "E54000050"}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIndicatorSource_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyIndicators{err: errFlaky}
	src := NewIndicatorSource(inner, Settings{MaxFailures: 2, OpenTimeout: time.Minute}, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	for range 2 {
		_, err := src.FetchIndicator(ctx, domain.Type1CareProcesses)
		require.ErrorIs(t, err, errFlaky)
	}
	assert.True(t, src.Open())

	_, err := src.FetchIndicator(ctx, domain.Type1CareProcesses)
	require.ErrorIs(t, err, domain.ErrUpstream)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not call upstream")
}

func TestIndicatorSource_RecoversAfterTimeout(t *testing.T) {
	inner := &flakyIndicators{err: errFlaky}
	src := NewIndicatorSource(inner, Settings{MaxFailures: 1, OpenTimeout: 20 * time.Millisecond}, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := src.FetchIndicator(ctx, domain.Type1CareProcesses)
	require.Error(t, err)
	require.True(t, src.Open())

	inner.err = nil
	time.Sleep(50 * time.Millisecond)

	records, err := src.FetchIndicator(ctx, domain.Type1CareProcesses)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.False(t, src.Open())
}

func TestIndicatorSource_CanceledCallsDoNotTrip(t *testing.T) {
	inner := &flakyIndicators{err: context.Canceled}
	src := NewIndicatorSource(inner, Settings{MaxFailures: 1, OpenTimeout: time.Minute}, discardLogger(), observability.NewMetricsForTesting())

	for range 3 {
		_, err := src.FetchIndicator(context.Background(), domain.Type1CareProcesses)
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.False(t, src.Open())
	assert.Equal(t, 3, inner.calls)
}

func TestBoundarySource_PassesThrough(t *testing.T) {
	inner := &flakyBoundaries{}
	src := NewBoundarySource(inner, Settings{MaxFailures: 3, OpenTimeout: time.Minute}, discardLogger(), observability.NewMetricsForTesting())

	b, err := src.FetchBoundaries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "E54000050", b[0].Code)
	assert.Equal(t, "boundary-source", src.Name())
}

func TestReadiness(t *testing.T) {
	indicators := NewIndicatorSource(&flakyIndicators{err: errFlaky}, Settings{MaxFailures: 1, OpenTimeout: time.Minute}, discardLogger(), observability.NewMetricsForTesting())
	boundaries := NewBoundarySource(&flakyBoundaries{}, Settings{MaxFailures: 1, OpenTimeout: time.Minute}, discardLogger(), observability.NewMetricsForTesting())
	ready := Readiness{indicators, boundaries}
	ctx := context.Background()

	require.NoError(t, ready.CheckReadiness(ctx))

	_, _ = indicators.FetchIndicator(ctx, domain.Type1CareProcesses)

	err := ready.CheckReadiness(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indicator-source")
	assert.NotContains(t, err.Error(), "boundary-source")

	assert.NoError(t, Readiness{}.CheckReadiness(ctx))
}
