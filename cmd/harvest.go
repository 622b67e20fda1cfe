// Package cmd defines and implements the CLI commands for the crec-harvester executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/crec-harvester/internal/config"
	"github.com/JakeFAU/crec-harvester/internal/govinfo"
	"github.com/JakeFAU/crec-harvester/internal/harvest"
	"github.com/JakeFAU/crec-harvester/internal/logging"
	"github.com/JakeFAU/crec-harvester/internal/metrics"
	"github.com/JakeFAU/crec-harvester/internal/storage/postgres"
)

type harvestFlags struct {
	start       string
	end         string
	out         string
	csv         bool
	maxPackages int
	maxGranules int
	rateDelay   float64
	pgDSN       string
	metricsAddr string
}

// newHarvestCmd creates and configures the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	flags := &harvestFlags{}
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Fetch Congressional Record speeches from GovInfo",
		Long: `Walks every CREC package published in the inclusive date range,
every granule within each package, and appends one JSON line per
extracted speech to the output file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvestCommand(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.start, "start", "", "start date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flags.end, "end", "", "end date YYYY-MM-DD, inclusive (required)")
	cmd.Flags().StringVar(&flags.out, "out", "", "output directory (default: data)")
	cmd.Flags().BoolVar(&flags.csv, "csv", false, "also write a CSV next to the JSONL")
	cmd.Flags().IntVar(&flags.maxPackages, "max-packages", 0, "limit number of packages (testing)")
	cmd.Flags().IntVar(&flags.maxGranules, "max-granules", 0, "limit granules per package (testing)")
	cmd.Flags().Float64Var(&flags.rateDelay, "rate-delay", -1, "delay between API calls (seconds)")
	cmd.Flags().StringVar(&flags.pgDSN, "pg-dsn", "", "optionally insert records into Postgres")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "optionally serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runHarvestCommand(cmd *cobra.Command, flags *harvestFlags) error {
	if err := validateDates(flags.start, flags.end); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg, cmd, flags)

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	engine, sink, cleanup, err := buildHarvestEngine(ctx, cfg, flags, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, runErr := engine.Run(ctx)
	if cerr := sink.Close(); cerr != nil && runErr == nil {
		runErr = cerr
	}
	if runErr != nil {
		return fmt.Errorf("run harvest: %w", runErr)
	}

	fmt.Printf("Done. Packages: %d, granules: %d, speeches: %d.\n",
		stats.Packages, stats.Granules, stats.Speeches)
	fmt.Printf("JSONL: %s\n", sink.Path())

	if cfg.Output.CSV {
		csvPath := outputPath(cfg.Output.Dir, flags.start, flags.end, "csv")
		rows, err := harvest.JSONLToCSV(sink.Path(), csvPath, nil)
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		fmt.Printf("CSV: %s (%d rows)\n", csvPath, rows)
	}
	return nil
}

func validateDates(start, end string) error {
	const layout = "2006-01-02"
	s, err := time.Parse(layout, start)
	if err != nil {
		return fmt.Errorf("invalid --start date %q: want YYYY-MM-DD", start)
	}
	e, err := time.Parse(layout, end)
	if err != nil {
		return fmt.Errorf("invalid --end date %q: want YYYY-MM-DD", end)
	}
	if e.Before(s) {
		return fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, flags *harvestFlags) {
	if flags.out != "" {
		cfg.Output.Dir = flags.out
	}
	if flags.csv {
		cfg.Output.CSV = true
	}
	if cmd.Flags().Changed("max-packages") {
		cfg.Harvest.MaxPackages = flags.maxPackages
	}
	if cmd.Flags().Changed("max-granules") {
		cfg.Harvest.MaxGranules = flags.maxGranules
	}
	if cmd.Flags().Changed("rate-delay") && flags.rateDelay >= 0 {
		cfg.Harvest.RateDelaySeconds = flags.rateDelay
	}
	if flags.pgDSN != "" {
		cfg.DB.DSN = flags.pgDSN
	}
	if flags.metricsAddr != "" {
		cfg.Metrics.Addr = flags.metricsAddr
	}
}

func buildHarvestEngine(
	ctx context.Context,
	cfg config.Config,
	flags *harvestFlags,
	logger *zap.Logger,
) (*harvest.Engine, *harvest.JSONLSink, func(), error) {
	client := govinfo.NewClient(govinfo.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		APIKey:   cfg.API.Key,
		PageSize: cfg.API.PageSize,
		Timeout:  cfg.APITimeout(),
	}, logger)

	downloader := govinfo.NewCollyDownloader(govinfo.DownloaderConfig{
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.DownloadTimeout(),
	}, logger)

	var pace govinfo.PaceFunc
	if delay := cfg.RateDelay(); delay > 0 {
		limiter := rate.NewLimiter(rate.Every(delay), 1)
		pace = limiter.Wait
	}

	source := &harvest.GovinfoSource{
		Client:   client,
		Resolver: govinfo.NewResolver(client, downloader),
		Pace:     pace,
	}

	jsonlPath := outputPath(cfg.Output.Dir, flags.start, flags.end, "jsonl")
	sink, err := harvest.NewJSONLSink(jsonlPath, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init sink: %w", err)
	}

	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var store harvest.RecordStore
	if cfg.DB.DSN != "" {
		pgStore, err := postgres.NewRecordStore(ctx, postgres.RecordStoreConfig{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("init record store: %w", err)
		}
		cleanups = append(cleanups, pgStore.Close)
		store = pgStore
	}

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, logger)
		srv.Start()
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shut down metrics server", zap.Error(err))
			}
		})
	}

	engine := harvest.NewEngine(
		source,
		sink,
		store,
		pace,
		harvest.Config{
			StartDate:   flags.start,
			EndDate:     flags.end,
			MaxPackages: cfg.Harvest.MaxPackages,
			MaxGranules: cfg.Harvest.MaxGranules,
		},
		logger,
		os.Stdout,
	)
	return engine, sink, cleanup, nil
}

func outputPath(dir, start, end, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("speeches_%s_to_%s.%s", start, end, ext))
}
