// Package report answers API queries by composing the cached datasets with
// the filter, analysis and rendering layers.
package report

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
)

// DataStore supplies the upstream datasets, typically from a cache.
type DataStore interface {
	GetIndicatorData(ctx context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error)
	GetBoundaries(ctx context.Context) ([]domain.AreaBoundary, error)
}

// Service builds the response documents of the API.
type Service struct {
	store   DataStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service reading from store.
func NewService(store DataStore, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: metrics}
}

// Query selects an indicator, an area type and an optional time period.
type Query struct {
	IndicatorID domain.IndicatorID
	AreaType    domain.AreaType
	TimePeriod  string // empty selects the latest period
}

// Header echoes the resolved query in every analysis response.
type Header struct {
	Indicator  domain.Indicator `json:"indicator"`
	AreaType   domain.AreaType  `json:"area_type"`
	TimePeriod string           `json:"time_period"`
}

// TimePeriodsResponse lists the periods available for an area type.
type TimePeriodsResponse struct {
	TimePeriods []string `json:"time_periods"`
	Latest      *string  `json:"latest"`
}

// DataResponse is a filtered record listing.
type DataResponse struct {
	Header
	Count int                   `json:"count"`
	Data  []analysis.RecordView `json:"data"`
}

// SummaryResponse carries descriptive statistics.
type SummaryResponse struct {
	Header
	analysis.Summary
}

// RankingsResponse carries the best or worst performing areas.
type RankingsResponse struct {
	Header
	Order    analysis.Order     `json:"order"`
	Rankings []analysis.Ranking `json:"rankings"`
}

// CorrelationResponse carries the population versus quality correlation.
type CorrelationResponse struct {
	Header
	Correlation analysis.Correlation `json:"correlation"`
}

// TimePeriods lists the distinct periods for an area type, most recent first.
func (s *Service) TimePeriods(ctx context.Context, id domain.IndicatorID, areaType domain.AreaType) (TimePeriodsResponse, error) {
	if _, err := indicator(id); err != nil {
		return TimePeriodsResponse{}, err
	}
	records, err := s.store.GetIndicatorData(ctx, id)
	if err != nil {
		return TimePeriodsResponse{}, err
	}

	periods := domain.TimePeriods(records, areaType)
	resp := TimePeriodsResponse{TimePeriods: periods}
	if len(periods) > 0 {
		resp.Latest = &periods[0]
	}
	return resp, nil
}

// Data lists the filtered records, narrowed by opts.
func (s *Service) Data(ctx context.Context, q Query, opts analysis.ListOptions) (DataResponse, error) {
	h, f, err := s.filter(ctx, q)
	if err != nil {
		return DataResponse{}, err
	}
	views := analysis.ListRecords(f.Records, opts)
	return DataResponse{Header: h, Count: len(views), Data: views}, nil
}

// Summary computes descriptive statistics of the filtered values.
func (s *Service) Summary(ctx context.Context, q Query) (SummaryResponse, error) {
	h, f, err := s.filter(ctx, q)
	if err != nil {
		return SummaryResponse{}, err
	}
	return SummaryResponse{Header: h, Summary: analysis.Summarize(f.Records)}, nil
}

// Rankings returns the n best or worst performing areas.
func (s *Service) Rankings(ctx context.Context, q Query, n int, order analysis.Order) (RankingsResponse, error) {
	h, f, err := s.filter(ctx, q)
	if err != nil {
		return RankingsResponse{}, err
	}
	rankings, err := analysis.Rank(f.Records, n, order)
	if err != nil {
		return RankingsResponse{}, err
	}
	return RankingsResponse{Header: h, Order: order, Rankings: rankings}, nil
}

// Correlation relates area population to indicator value.
func (s *Service) Correlation(ctx context.Context, q Query) (CorrelationResponse, error) {
	h, f, err := s.filter(ctx, q)
	if err != nil {
		return CorrelationResponse{}, err
	}
	c, err := analysis.Correlate(f.Records)
	if err != nil {
		return CorrelationResponse{}, err
	}
	return CorrelationResponse{Header: h, Correlation: c}, nil
}

// MapRequest configures a choropleth of ICB values.
type MapRequest struct {
	IndicatorID domain.IndicatorID
	TimePeriod  string
	Scheme      domain.ColorScheme
	Size        render.Size
	Title       string // empty selects a title naming the indicator and period
}

// ChartRequest configures a population versus quality scatter chart.
type ChartRequest struct {
	Query
	Size           render.Size
	Title          string // empty selects a title naming the indicator and period
	PointColor     color.Color
	ShowRegression bool
}

// Image is a rendered PNG and the period it shows.
type Image struct {
	PNG        []byte
	TimePeriod string
}

// Map renders ICB values onto the ICB boundaries. Boundaries without a
// value are kept and drawn as "No data".
func (s *Service) Map(ctx context.Context, req MapRequest) (Image, error) {
	h, f, err := s.filter(ctx, Query{IndicatorID: req.IndicatorID, AreaType: domain.AreaICBs, TimePeriod: req.TimePeriod})
	if err != nil {
		return Image{}, err
	}
	boundaries, err := s.store.GetBoundaries(ctx)
	if err != nil {
		return Image{}, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s\nby ICB - %s", h.Indicator.Name, h.TimePeriod)
	}

	start := time.Now()
	img, err := render.Choropleth(render.JoinRegions(boundaries, f.Records), render.MapOptions{
		Scheme:     req.Scheme,
		Size:       req.Size,
		Title:      title,
		ValueLabel: "% - " + h.Indicator.Name,
	})
	s.metrics.RenderDuration.WithLabelValues("map").Observe(time.Since(start).Seconds())
	if err != nil {
		return Image{}, fmt.Errorf("render map: %w", err)
	}

	s.logger.Debug("map rendered", "indicator_id", int(req.IndicatorID), "period", h.TimePeriod, "bytes", len(img))
	return Image{PNG: img, TimePeriod: h.TimePeriod}, nil
}

// Chart renders denominator against value for the filtered areas.
func (s *Service) Chart(ctx context.Context, req ChartRequest) (Image, error) {
	h, f, err := s.filter(ctx, req.Query)
	if err != nil {
		return Image{}, err
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s\nPopulation vs Quality - %s", h.Indicator.Name, h.TimePeriod)
	}

	start := time.Now()
	img, err := render.Scatter(f.Records, render.ChartOptions{
		Size:           req.Size,
		Title:          title,
		PointColor:     req.PointColor,
		ShowRegression: req.ShowRegression,
	})
	s.metrics.RenderDuration.WithLabelValues("chart").Observe(time.Since(start).Seconds())
	if err != nil {
		return Image{}, fmt.Errorf("render chart: %w", err)
	}

	s.logger.Debug("chart rendered", "indicator_id", int(req.IndicatorID), "period", h.TimePeriod, "bytes", len(img))
	return Image{PNG: img, TimePeriod: h.TimePeriod}, nil
}

func (s *Service) filter(ctx context.Context, q Query) (Header, domain.Filtered, error) {
	ind, err := indicator(q.IndicatorID)
	if err != nil {
		return Header{}, domain.Filtered{}, err
	}
	records, err := s.store.GetIndicatorData(ctx, q.IndicatorID)
	if err != nil {
		return Header{}, domain.Filtered{}, err
	}
	f, err := domain.FilterData(records, q.AreaType, q.TimePeriod)
	if err != nil {
		return Header{}, domain.Filtered{}, err
	}
	return Header{Indicator: ind, AreaType: q.AreaType, TimePeriod: f.TimePeriod}, f, nil
}

func indicator(id domain.IndicatorID) (domain.Indicator, error) {
	ind, ok := domain.LookupIndicator(id)
	if !ok {
		return domain.Indicator{}, fmt.Errorf("%w: unknown indicator %d", domain.ErrNotFound, id)
	}
	return ind, nil
}
