package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/silver"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "silver-extract",
		Usage:   "Extract structured school records from pending Bronze captures",
		Version: version.Info(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Value: ".",
				Usage: "Directory containing hst.kdl",
			},
			&cli.StringFlag{
				Name:  "db",
				Value: "bronze.db",
				Usage: "SQLite database path (shared by Bronze and Silver tables)",
			},
			&cli.Float64Flag{
				Name:  "min-confidence",
				Usage: "Override silver.min_confidence_threshold",
			},
			&cli.IntFlag{
				Name:  "parallel-workers",
				Usage: "Override silver.parallel_workers",
			},
			&cli.BoolFlag{
				Name:  "no-fallback",
				Usage: "Disable fallback extraction (Tier 3)",
			},
		},
		Action: runSilverExtract,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "silver-extract: %v\n", err)
		os.Exit(1)
	}
}

func runSilverExtract(c *cli.Context) error {
	cfg, err := config.Load(c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.Float64("min-confidence"); v > 0 {
		cfg.Silver.MinConfidenceThreshold = v
	}
	if n := c.Int("parallel-workers"); n > 0 {
		cfg.Silver.ParallelWorkers = n
	}
	if c.Bool("no-fallback") {
		cfg.Silver.EnableFallbackExtraction = false
	}

	db, err := storage.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := logging.Default()
	bronzeStore := storage.NewBronzeStore(db)
	silverStore := storage.NewSilverStore(db)
	service := silver.NewService(cfg.Silver, bronzeStore, silverStore, cfg.Store.ToBreakerConfig(), logger)

	records, errs := service.RunPending(context.Background())
	fmt.Printf("extracted=%d errors=%d\n", len(records), len(errs))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  %v\n", e)
	}
	return nil
}
