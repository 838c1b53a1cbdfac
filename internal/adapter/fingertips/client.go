package fingertips

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

const sourceName = "fingertips"

// errorBodyLimit caps how much of an error response is quoted in errors.
const errorBodyLimit = 512

// Client implements domain.IndicatorSource using the Fingertips API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Fingertips client. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchIndicator downloads and parses every row of an indicator across all
// geographies.
func (c *Client) FetchIndicator(ctx context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	start := time.Now()
	records, err := c.fetchIndicator(ctx, id)
	c.metrics.UpstreamDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(sourceName, "error").Inc()
		c.logger.Warn("fingertips fetch failed", "indicator_id", int(id), "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(sourceName, "success").Inc()
	c.logger.Info("fingertips indicator fetched",
		"indicator_id", int(id),
		"rows", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

func (c *Client) fetchIndicator(ctx context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	data, err := c.download(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse indicator %d: %w", id, err)
	}
	return records, nil
}

// DownloadCSV returns the raw CSV export of an indicator.
func (c *Client) DownloadCSV(ctx context.Context, id domain.IndicatorID) ([]byte, error) {
	data, err := c.download(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return data, nil
}

func (c *Client) download(ctx context.Context, id domain.IndicatorID) ([]byte, error) {
	params := url.Values{"indicator_ids": {strconv.Itoa(int(id))}}
	u := c.baseURL + "/all_data/csv/by_indicator_id?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indicator %d request: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("fingertips API error: indicator %d: status %d: %s", id, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read indicator %d: %w", id, err)
	}
	return data, nil
}
