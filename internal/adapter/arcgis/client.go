package arcgis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

const sourceName = "arcgis"

const errorBodyLimit = 512

// Client implements domain.BoundarySource against an ArcGIS feature service
// GeoJSON query.
type Client struct {
	httpClient *http.Client
	queryURL   string
	props      Properties
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a boundary client for queryURL. A zero timeout means no
// timeout.
func NewClient(queryURL string, props Properties, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		queryURL: queryURL,
		props:    props,
		logger:   logger,
		metrics:  metrics,
	}
}

// FetchBoundaries downloads and decodes the boundary collection.
func (c *Client) FetchBoundaries(ctx context.Context) ([]domain.AreaBoundary, error) {
	start := time.Now()
	boundaries, err := c.fetch(ctx)
	c.metrics.UpstreamDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(sourceName, "error").Inc()
		c.logger.Warn("boundary fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(sourceName, "success").Inc()
	c.logger.Info("boundaries fetched", "areas", len(boundaries), "duration", time.Since(start))
	return boundaries, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.AreaBoundary, error) {
	data, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	return ParseBoundaries(data, c.props)
}

// DownloadGeoJSON returns the raw GeoJSON response.
func (c *Client) DownloadGeoJSON(ctx context.Context) ([]byte, error) {
	data, err := c.download(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return data, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	return data, nil
}
