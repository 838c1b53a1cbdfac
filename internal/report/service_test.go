package report

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
)

type fakeStore struct {
	records    []domain.IndicatorRecord
	boundaries []domain.AreaBoundary
	err        error
	boundErr   error
}

func (f *fakeStore) GetIndicatorData(_ context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.IndicatorRecord, len(f.records))
	for i, r := range f.records {
		r.IndicatorID = id
		out[i] = r
	}
	return out, nil
}

func (f *fakeStore) GetBoundaries(_ context.Context) ([]domain.AreaBoundary, error) {
	if f.boundErr != nil {
		return nil, f.boundErr
	}
	return f.boundaries, nil
}

func icb(code, period string, value, denom float64) domain.IndicatorRecord {
	return domain.IndicatorRecord{
		AreaCode:    code,
		AreaName:    "ICB " + code,
		AreaType:    domain.AreaICBs,
		TimePeriod:  period,
		Value:       domain.Float(value),
		Denominator: domain.Float(denom),
	}
}

func square(lon, lat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{lon, lat}, {lon + 1, lat}, {lon + 1, lat + 1}, {lon, lat + 1}, {lon, lat}}}
}

func fixture() *fakeStore {
	return &fakeStore{
		records: []domain.IndicatorRecord{
			icb("E54000050", "2022/23", 40, 10000),
			icb("E54000008", "2022/23", 50, 20000),
			icb("E54000050", "2023/24", 45, 11000),
			icb("E54000008", "2023/24", 55, 21000),
			icb("E54000027", "2023/24", 60, 30000),
			{AreaCode: "E92000001", AreaName: "England", AreaType: domain.AreaEngland, TimePeriod: "2024/25", Value: domain.Float(50)},
		},
		boundaries: []domain.AreaBoundary{
			{Code: "E54000050", Name: "North East", Geometry: square(-2, 54)},
			{Code: "E54000008", Name: "Cheshire", Geometry: square(-3, 53)},
			{Code: "E54000099", Name: "Unmatched", Geometry: square(0, 52)},
		},
	}
}

func newTestService(store DataStore) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func icbQuery() Query {
	return Query{IndicatorID: domain.Type2Statins, AreaType: domain.AreaICBs}
}

func testSize() render.Size {
	return render.Size{Width: 4, Height: 3, DPI: 50}
}

func TestTimePeriods(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.TimePeriods(context.Background(), domain.Type1CareProcesses, domain.AreaICBs)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023/24", "2022/23"}, resp.TimePeriods)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, "2023/24", *resp.Latest)
}

func TestTimePeriods_NoneForAreaType(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.TimePeriods(context.Background(), domain.Type1CareProcesses, domain.AreaGPs)
	require.NoError(t, err)
	assert.Empty(t, resp.TimePeriods)
	assert.Nil(t, resp.Latest)
}

func TestData_LatestPeriodPerAreaType(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.Data(context.Background(), icbQuery(), analysis.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2023/24", resp.TimePeriod, "latest is resolved after the area type filter")
	assert.Equal(t, domain.Type2Statins, resp.Indicator.ID)
	assert.Equal(t, domain.AreaICBs, resp.AreaType)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "E54000027", resp.Data[0].AreaCode)
}

func TestData_Options(t *testing.T) {
	svc := newTestService(fixture())
	q := icbQuery()
	q.TimePeriod = "2023/24"

	resp, err := svc.Data(context.Background(), q, analysis.ListOptions{MinValue: domain.Float(50), Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "E54000027", resp.Data[0].AreaCode)
}

func TestData_UnknownPeriod(t *testing.T) {
	svc := newTestService(fixture())
	q := icbQuery()
	q.TimePeriod = "1999/00"

	_, err := svc.Data(context.Background(), q, analysis.ListOptions{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestData_UnknownIndicator(t *testing.T) {
	svc := newTestService(fixture())

	_, err := svc.Data(context.Background(), Query{IndicatorID: 1, AreaType: domain.AreaICBs}, analysis.ListOptions{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestData_UpstreamFailure(t *testing.T) {
	store := fixture()
	store.err = errors.Join(domain.ErrUpstream, errors.New("connection refused"))
	svc := newTestService(store)

	_, err := svc.Data(context.Background(), icbQuery(), analysis.ListOptions{})
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSummary(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.Summary(context.Background(), icbQuery())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.AreasCount)
	require.NotNil(t, resp.TotalPatients)
	assert.Equal(t, int64(62000), *resp.TotalPatients)
	require.NotNil(t, resp.Statistics.Median)
	assert.InDelta(t, 55.0, *resp.Statistics.Median, 1e-9)
}

func TestRankings(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.Rankings(context.Background(), icbQuery(), 2, analysis.OrderBottom)
	require.NoError(t, err)
	assert.Equal(t, analysis.OrderBottom, resp.Order)
	require.Len(t, resp.Rankings, 2)
	assert.Equal(t, "E54000050", resp.Rankings[0].AreaCode)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
}

func TestCorrelation(t *testing.T) {
	svc := newTestService(fixture())

	resp, err := svc.Correlation(context.Background(), icbQuery())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Correlation.N)
	assert.Greater(t, resp.Correlation.R, 0.9)
}

func TestCorrelation_TooFewRows(t *testing.T) {
	svc := newTestService(fixture())
	q := icbQuery()
	q.TimePeriod = "2022/23"

	_, err := svc.Correlation(context.Background(), q)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestMap(t *testing.T) {
	svc := newTestService(fixture())

	img, err := svc.Map(context.Background(), MapRequest{
		IndicatorID: domain.Type1CareProcesses,
		Scheme:      domain.SchemeRdYlGn,
		Size:        testSize(),
	})
	require.NoError(t, err)
	assert.Equal(t, "2023/24", img.TimePeriod)

	cfg, err := png.DecodeConfig(bytes.NewReader(img.PNG))
	require.NoError(t, err)
	assert.InDelta(t, 200, cfg.Width, 1)
	assert.InDelta(t, 150, cfg.Height, 1)
	assert.Equal(t, 1, testutil.CollectAndCount(svc.metrics.RenderDuration))
}

func TestMap_BoundaryFailure(t *testing.T) {
	store := fixture()
	store.boundErr = errors.Join(domain.ErrUpstream, errors.New("arcgis down"))
	svc := newTestService(store)

	_, err := svc.Map(context.Background(), MapRequest{IndicatorID: domain.Type1CareProcesses, Scheme: domain.SchemeBlues, Size: testSize()})
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestMap_NoICBData(t *testing.T) {
	store := fixture()
	store.records = store.records[5:]
	svc := newTestService(store)

	_, err := svc.Map(context.Background(), MapRequest{IndicatorID: domain.Type1CareProcesses, Scheme: domain.SchemeBlues, Size: testSize()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChart(t *testing.T) {
	svc := newTestService(fixture())

	img, err := svc.Chart(context.Background(), ChartRequest{
		Query:          icbQuery(),
		Size:           testSize(),
		PointColor:     color.RGBA{B: 0xff, A: 0xff},
		ShowRegression: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2023/24", img.TimePeriod)
	_, err = png.DecodeConfig(bytes.NewReader(img.PNG))
	require.NoError(t, err)
}
