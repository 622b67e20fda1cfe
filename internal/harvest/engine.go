package harvest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/crec-harvester/internal/extract"
	"github.com/JakeFAU/crec-harvester/internal/govinfo"
	"github.com/JakeFAU/crec-harvester/internal/metrics"
)

// progressEvery is how many processed granules pass between progress lines.
const progressEvery = 25

// PackageWalker yields packages one at a time.
type PackageWalker interface {
	Next(ctx context.Context) (govinfo.PackageMeta, bool, error)
}

// GranuleWalker yields granules one at a time.
type GranuleWalker interface {
	Next(ctx context.Context) (govinfo.GranuleMeta, bool, error)
}

// Source provides the upstream collection: package and granule walkers
// plus per-granule text resolution.
type Source interface {
	Packages(startDate, endDate string) PackageWalker
	Granules(packageID string) GranuleWalker
	Resolve(ctx context.Context, packageID, granuleID string) (govinfo.Resolution, error)
}

// Sink receives assembled records one line at a time.
type Sink interface {
	Append(rec Record) error
}

// RecordStore is an optional secondary destination for records.
type RecordStore interface {
	Store(ctx context.Context, runID string, rec Record) error
}

// Config holds the run-level inputs for one harvest.
type Config struct {
	StartDate   string
	EndDate     string
	MaxPackages int
	MaxGranules int
}

// Engine drives one harvest run: packages, then granules per package,
// then resolve/extract/assemble/append per granule. Execution is fully
// sequential; pacing and per-request timeouts are the only suspension
// points.
type Engine struct {
	source Source
	sink   Sink
	store  RecordStore
	pace   govinfo.PaceFunc
	cfg    Config
	logger *zap.Logger
	out    io.Writer
}

// NewEngine wires the pipeline stages together. store may be nil; pace
// may be nil for unpaced runs.
func NewEngine(
	source Source,
	sink Sink,
	store RecordStore,
	pace govinfo.PaceFunc,
	cfg Config,
	logger *zap.Logger,
	out io.Writer,
) *Engine {
	return &Engine{
		source: source,
		sink:   sink,
		store:  store,
		pace:   pace,
		cfg:    cfg,
		logger: logger,
		out:    out,
	}
}

// Run walks the configured date range and returns the run's counters.
// Package enumeration failures abort the run; per-granule failures are
// logged and skipped.
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("Starting harvest",
		zap.String("start_date", e.cfg.StartDate),
		zap.String("end_date", e.cfg.EndDate),
	)
	fmt.Fprintf(e.out, "Fetching CREC packages %s to %s...\n", e.cfg.StartDate, e.cfg.EndDate)

	stats := RunStats{}
	packages := e.source.Packages(e.cfg.StartDate, e.cfg.EndDate)
	for {
		pkg, ok, err := packages.Next(ctx)
		if err != nil {
			return stats, fmt.Errorf("walk packages: %w", err)
		}
		if !ok {
			break
		}
		if pkg.PackageID == "" {
			continue
		}
		stats.Packages++
		fmt.Fprintf(e.out, "Package %d: %s (%s)\n", stats.Packages, pkg.PackageID, pkg.DateIssued)

		if err := e.harvestPackage(ctx, runID, pkg, &stats, logger); err != nil {
			return stats, err
		}

		if e.cfg.MaxPackages > 0 && stats.Packages >= e.cfg.MaxPackages {
			break
		}
	}

	logger.Info("Harvest finished",
		zap.Int("packages", stats.Packages),
		zap.Int("granules", stats.Granules),
		zap.Int("speeches", stats.Speeches),
	)
	return stats, nil
}

func (e *Engine) harvestPackage(
	ctx context.Context,
	runID string,
	pkg govinfo.PackageMeta,
	stats *RunStats,
	logger *zap.Logger,
) error {
	granules := e.source.Granules(pkg.PackageID)
	seen := 0
	for {
		granule, ok, err := granules.Next(ctx)
		if err != nil {
			return fmt.Errorf("walk granules of %s: %w", pkg.PackageID, err)
		}
		if !ok {
			return nil
		}
		if granule.GranuleID == "" {
			continue
		}
		seen++
		if e.cfg.MaxGranules > 0 && seen > e.cfg.MaxGranules {
			return nil
		}

		if err := e.harvestGranule(ctx, runID, pkg, granule, stats, logger); err != nil {
			return err
		}

		// Resolution was attempted either way, so the delay applies.
		if e.pace != nil {
			if err := e.pace(ctx); err != nil {
				return err
			}
		}
	}
}

// harvestGranule resolves, extracts, and records one granule. Failures
// are downgraded to a logged skip: one bad granule never aborts the run.
func (e *Engine) harvestGranule(
	ctx context.Context,
	runID string,
	pkg govinfo.PackageMeta,
	granule govinfo.GranuleMeta,
	stats *RunStats,
	logger *zap.Logger,
) error {
	res, err := e.source.Resolve(ctx, pkg.PackageID, granule.GranuleID)
	if err != nil {
		metrics.GranuleErrors.Inc()
		logger.Warn("Failed to fetch granule text",
			zap.String("granule_id", granule.GranuleID),
			zap.Error(err),
		)
		fmt.Fprintf(e.out, "  - Failed to fetch %s: %v\n", granule.GranuleID, err)
		return nil
	}
	if !res.Found {
		// No download link; expected upstream variability, not an error.
		return nil
	}

	speeches := extract.Speeches(res.Body)
	page := PageFromGranuleID(granule.GranuleID)
	title := strings.TrimSpace(res.Summary.Title)
	if title == "" {
		title = strings.TrimSpace(granule.Title)
	}

	for _, sp := range speeches {
		rec := Record{
			Date:       pkg.DateIssued,
			PackageID:  pkg.PackageID,
			GranuleID:  granule.GranuleID,
			Chamber:    strings.ToUpper(granule.GranuleClass),
			Page:       page,
			Title:      title,
			Speaker:    sp.Speaker,
			BioguideID: sp.BioguideID,
			Text:       sp.Text,
		}
		// A failing sink means the output file is broken; that aborts the
		// run, unlike per-granule upstream errors.
		if err := e.sink.Append(rec); err != nil {
			return fmt.Errorf("append record for %s: %w", granule.GranuleID, err)
		}
		stats.Speeches++
		metrics.Speeches.Inc()

		if e.store != nil {
			if err := e.store.Store(ctx, runID, rec); err != nil {
				logger.Warn("Failed to store record",
					zap.String("granule_id", granule.GranuleID),
					zap.Error(err),
				)
			}
		}
	}

	stats.Granules++
	if stats.Granules%progressEvery == 0 {
		fmt.Fprintf(e.out, "  - Processed %d granules, %d speeches so far...\n",
			stats.Granules, stats.Speeches)
	}
	return nil
}
