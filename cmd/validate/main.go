// Command validate checks a snapshot directory written by cmd/snapshot
// before it is served with DATA_DIR. It verifies the manifest against the
// files on disk, parses every indicator export and the boundary GeoJSON,
// and checks that the latest ICB period of each indicator joins onto the
// boundaries.
//
// Usage:
//
//	go run ./cmd/validate -dir data/snapshot
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/diabetes-care-api/internal/adapter/arcgis"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/snapshot"
	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/config"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "snapshot directory to validate")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	props := arcgis.Properties{Code: cfg.BoundaryCodeProperty, Name: cfg.BoundaryNameProperty}

	if code := run(*dir, props); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, props arcgis.Properties) int {
	fmt.Println("=== Snapshot Validation ===")
	fmt.Println()

	src := snapshot.NewSource(dir, props, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
	ctx := context.Background()

	manifest, err := src.Manifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	datasets := make(map[domain.IndicatorID][]domain.IndicatorRecord)
	loadPhase := &phase{name: "Indicator exports parse"}
	for _, ind := range domain.Indicators() {
		records, err := src.FetchIndicator(ctx, ind.ID)
		if err != nil {
			loadPhase.errorf("%d: %v", ind.ID, err)
			continue
		}
		datasets[ind.ID] = records
	}

	boundaryPhase := &phase{name: "Boundaries parse"}
	boundaries, err := src.FetchBoundaries(ctx)
	if err != nil {
		boundaryPhase.errorf("%v", err)
	} else {
		checkBoundaries(boundaryPhase, boundaries)
	}

	phases := []*phase{
		validateManifest(dir, manifest),
		loadPhase,
		validateIndicators(datasets),
		boundaryPhase,
		validateJoin(datasets, boundaries),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Snapshot: created %s, %d indicators, %d boundaries\n",
		manifest.CreatedAt.Format("2006-01-02 15:04 MST"), len(datasets), len(boundaries))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateManifest checks that every catalogued indicator and the boundaries
// are listed, and that listed sizes match the files on disk.
func validateManifest(dir string, m snapshot.Manifest) *phase {
	p := &phase{name: "Manifest matches files"}

	listed := make(map[domain.IndicatorID]snapshot.IndicatorFile, len(m.Indicators))
	for _, f := range m.Indicators {
		listed[f.ID] = f
	}
	for _, ind := range domain.Indicators() {
		f, ok := listed[ind.ID]
		if !ok {
			p.errorf("indicator %d not in manifest", ind.ID)
			continue
		}
		if f.File != snapshot.IndicatorFileName(ind.ID) {
			p.errorf("indicator %d: file %q, want %q", ind.ID, f.File, snapshot.IndicatorFileName(ind.ID))
		}
		checkSize(p, dir, f.DataFile)
	}

	if m.Boundaries == nil {
		p.errorf("boundaries not in manifest")
	} else {
		checkSize(p, dir, *m.Boundaries)
	}
	return p
}

func checkSize(p *phase, dir string, f snapshot.DataFile) {
	info, err := os.Stat(filepath.Join(dir, f.File))
	if err != nil {
		p.errorf("%s: %v", f.File, err)
		return
	}
	if info.Size() != int64(f.Bytes) {
		p.errorf("%s: %d bytes on disk, manifest says %d", f.File, info.Size(), f.Bytes)
	}
}

// validateIndicators checks each export carries its own indicator and has
// ICB rows with values in the latest ICB period.
func validateIndicators(datasets map[domain.IndicatorID][]domain.IndicatorRecord) *phase {
	p := &phase{name: "Indicator content"}
	for _, ind := range domain.Indicators() {
		records, ok := datasets[ind.ID]
		if !ok {
			continue
		}
		for i, r := range records {
			if r.IndicatorID != ind.ID {
				p.errorf("%d: row %d has indicator %d", ind.ID, i+1, r.IndicatorID)
				break
			}
		}

		f, err := domain.FilterData(records, domain.AreaICBs, "")
		if err != nil {
			p.errorf("%d: %v", ind.ID, err)
			continue
		}
		s := analysis.Summarize(f.Records)
		if s.AreasCount == 0 {
			p.errorf("%d: no ICB values in %s", ind.ID, f.TimePeriod)
			continue
		}
		fmt.Printf("  %d %-36s %s  %3d ICBs  median %s\n",
			ind.ID, ind.Name, f.TimePeriod, s.AreasCount, formatPtr(s.Statistics.Median))
	}
	return p
}

func checkBoundaries(p *phase, boundaries []domain.AreaBoundary) {
	seen := make(map[string]bool, len(boundaries))
	for _, b := range boundaries {
		if seen[b.Code] {
			p.errorf("duplicate boundary code %s", b.Code)
		}
		seen[b.Code] = true
		if b.Geometry.Bound().IsEmpty() {
			p.errorf("%s: empty geometry", b.Code)
		}
	}
}

// validateJoin requires the latest ICB rows of each indicator to match at
// least one boundary, and reports codes present on only one side.
func validateJoin(datasets map[domain.IndicatorID][]domain.IndicatorRecord, boundaries []domain.AreaBoundary) *phase {
	p := &phase{name: "ICB rows join onto boundaries"}
	if len(boundaries) == 0 {
		p.errorf("no boundaries to join")
		return p
	}

	codes := make(map[string]bool, len(boundaries))
	for _, b := range boundaries {
		codes[b.Code] = true
	}

	for _, ind := range domain.Indicators() {
		f, err := domain.FilterData(datasets[ind.ID], domain.AreaICBs, "")
		if err != nil {
			continue
		}
		matched := 0
		for _, r := range f.Records {
			if codes[r.AreaCode] {
				matched++
			}
		}
		if matched == 0 {
			p.errorf("%d: none of %d ICB rows match a boundary code", ind.ID, len(f.Records))
			continue
		}
		if unmatched := len(f.Records) - matched; unmatched > 0 {
			fmt.Printf("  %d: %d ICB rows without a boundary\n", ind.ID, unmatched)
		}
	}
	return p
}

func formatPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
