// Command snapshot downloads every catalogued indicator and the ICB
// boundaries into a directory that the API can serve from with DATA_DIR.
// Each download is parsed before it is written, so a snapshot never holds
// data the API would reject.
//
// Usage:
//
//	go run ./cmd/snapshot -out data/snapshot
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/diabetes-care-api/internal/adapter/arcgis"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/fingertips"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/snapshot"
	"github.com/couchcryptid/diabetes-care-api/internal/config"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "snapshot directory to write")
	parallel := flag.Int("parallel", 2, "concurrent indicator downloads")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ft := fingertips.NewClient(cfg.FingertipsBaseURL, cfg.UpstreamTimeout, logger, metrics)
	props := arcgis.Properties{Code: cfg.BoundaryCodeProperty, Name: cfg.BoundaryNameProperty}
	ag := arcgis.NewClient(cfg.BoundariesURL, props, cfg.UpstreamTimeout, logger, metrics)

	catalog := domain.Indicators()
	csvs := make([][]byte, len(catalog))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for i, ind := range catalog {
		g.Go(func() error {
			data, err := ft.DownloadCSV(gctx, ind.ID)
			if err != nil {
				return fmt.Errorf("indicator %d: %w", ind.ID, err)
			}
			records, err := fingertips.ParseCSV(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("indicator %d: %w", ind.ID, err)
			}
			log.Printf("%d %s: %d rows", ind.ID, ind.Name, len(records))
			csvs[i] = data
			return nil
		})
	}

	var geojson []byte
	g.Go(func() error {
		data, err := ag.DownloadGeoJSON(gctx)
		if err != nil {
			return fmt.Errorf("boundaries: %w", err)
		}
		areas, err := arcgis.ParseBoundaries(data, props)
		if err != nil {
			return fmt.Errorf("boundaries: %w", err)
		}
		log.Printf("boundaries: %d areas", len(areas))
		geojson = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	w, err := snapshot.NewWriter(*out)
	if err != nil {
		return err
	}
	for i, ind := range catalog {
		if err := w.WriteIndicator(ind.ID, csvs[i]); err != nil {
			return err
		}
	}
	if err := w.WriteBoundaries(geojson); err != nil {
		return err
	}
	if err := w.Close(time.Now()); err != nil {
		return err
	}

	log.Printf("wrote snapshot to %s", *out)
	return nil
}
