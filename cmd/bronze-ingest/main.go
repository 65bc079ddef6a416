package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/bronze"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "bronze-ingest",
		Usage:   "Discover and ingest raw captured HTML into the Bronze layer",
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
				Usage: "SQLite database path",
			},
			&cli.StringSliceFlag{
				Name:  "source-dir",
				Usage: "Source directory to scan (repeatable); overrides config",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Override bronze.batch_size",
			},
			&cli.IntFlag{
				Name:  "parallel-workers",
				Usage: "Override bronze.parallel_workers",
			},
			&cli.BoolFlag{
				Name:  "no-checksum",
				Usage: "Disable checksum verification",
			},
		},
		Action: runBronzeIngest,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "bronze-ingest: %v\n", err)
		os.Exit(1)
	}
}

func runBronzeIngest(c *cli.Context) error {
	cfg, err := config.Load(c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dirs := c.StringSlice("source-dir"); len(dirs) > 0 {
		cfg.Bronze.SourceDirectories = dirs
	}
	if n := c.Int("batch-size"); n > 0 {
		cfg.Bronze.BatchSize = n
	}
	if n := c.Int("parallel-workers"); n > 0 {
		cfg.Bronze.ParallelWorkers = n
	}
	if c.Bool("no-checksum") {
		cfg.Bronze.ChecksumVerification = false
	}

	db, err := storage.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := logging.Default()
	store := storage.NewBronzeStore(db)
	service := bronze.NewService(cfg.Bronze, store, cfg.FileOps, logger)

	result, err := service.RunOnce(context.Background(), "")
	if err != nil {
		return fmt.Errorf("bronze run failed: %w", err)
	}

	fmt.Printf("total=%d succeeded=%d failed=%d skipped=%d errors=%d duration=%s\n",
		result.Total, result.SuccessfulIngestions, result.FailedIngestions,
		result.SkippedFiles, len(result.Errors), result.Duration)
	return nil
}
