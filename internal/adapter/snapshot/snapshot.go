// Package snapshot stores upstream downloads on disk and serves them back
// as indicator and boundary sources, so the API can run without network
// access to Fingertips or ArcGIS.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/diabetes-care-api/internal/adapter/arcgis"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/fingertips"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

const (
	sourceName       = "snapshot"
	boundariesFile   = "boundaries.geojson"
	manifestFile     = "manifest.json"
	indicatorPattern = "indicator_%d.csv"
)

// IndicatorFileName returns the snapshot file name of an indicator.
func IndicatorFileName(id domain.IndicatorID) string {
	return fmt.Sprintf(indicatorPattern, int(id))
}

// Manifest describes the contents of a snapshot directory.
type Manifest struct {
	CreatedAt  time.Time       `json:"created_at"`
	Indicators []IndicatorFile `json:"indicators"`
	Boundaries *DataFile       `json:"boundaries,omitempty"`
}

// IndicatorFile is one stored indicator export.
type IndicatorFile struct {
	ID domain.IndicatorID `json:"id"`
	DataFile
}

// DataFile is a stored download.
type DataFile struct {
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

// Source implements domain.IndicatorSource and domain.BoundarySource over a
// snapshot directory.
type Source struct {
	dir     string
	props   arcgis.Properties
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSource creates a source reading from dir.
func NewSource(dir string, props arcgis.Properties, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{dir: dir, props: props, logger: logger, metrics: metrics}
}

func (s *Source) FetchIndicator(_ context.Context, id domain.IndicatorID) ([]domain.IndicatorRecord, error) {
	var records []domain.IndicatorRecord
	err := s.read(IndicatorFileName(id), func(data []byte) error {
		var err error
		records, err = fingertips.ParseCSV(bytes.NewReader(data))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot indicator loaded", "indicator_id", int(id), "rows", len(records))
	return records, nil
}

func (s *Source) FetchBoundaries(_ context.Context) ([]domain.AreaBoundary, error) {
	var boundaries []domain.AreaBoundary
	err := s.read(boundariesFile, func(data []byte) error {
		var err error
		boundaries, err = arcgis.ParseBoundaries(data, s.props)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot boundaries loaded", "areas", len(boundaries))
	return boundaries, nil
}

// Manifest reads the snapshot manifest.
func (s *Source) Manifest() (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func (s *Source) read(name string, parse func([]byte) error) error {
	start := time.Now()
	err := s.readFile(name, parse)
	s.metrics.UpstreamDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.UpstreamRequests.WithLabelValues(sourceName, "error").Inc()
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	s.metrics.UpstreamRequests.WithLabelValues(sourceName, "success").Inc()
	return nil
}

func (s *Source) readFile(name string, parse func([]byte) error) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("snapshot %s not found in %s", name, s.dir)
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", name, err)
	}
	if err := parse(data); err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	return nil
}

// Writer stores downloads into a snapshot directory.
type Writer struct {
	dir      string
	manifest Manifest
}

// NewWriter creates dir if needed and returns a writer for it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteIndicator stores the CSV export of an indicator.
func (w *Writer) WriteIndicator(id domain.IndicatorID, data []byte) error {
	name := IndicatorFileName(id)
	if err := w.write(name, data); err != nil {
		return err
	}
	w.manifest.Indicators = append(w.manifest.Indicators, IndicatorFile{
		ID:       id,
		DataFile: DataFile{File: name, Bytes: len(data)},
	})
	return nil
}

// WriteBoundaries stores the boundary GeoJSON.
func (w *Writer) WriteBoundaries(data []byte) error {
	if err := w.write(boundariesFile, data); err != nil {
		return err
	}
	w.manifest.Boundaries = &DataFile{File: boundariesFile, Bytes: len(data)}
	return nil
}

// Close writes the manifest stamped with createdAt.
func (w *Writer) Close(createdAt time.Time) error {
	w.manifest.CreatedAt = createdAt.UTC()
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return w.write(manifestFile, data)
}

// write replaces name atomically so readers never see a partial file.
func (w *Writer) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
