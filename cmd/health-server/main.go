package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/bronze"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/health"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/recovery"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "health-server",
		Usage:   "Serve the health/readiness/liveness HTTP surface over a running pipeline",
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
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override health.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override health.port",
			},
		},
		Action: runHealthServer,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "health-server: %v\n", err)
		os.Exit(1)
	}
}

func runHealthServer(c *cli.Context) error {
	cfg, err := config.Load(c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if h := c.String("host"); h != "" {
		cfg.Health.Host = h
	}
	if p := c.Int("port"); p > 0 {
		cfg.Health.Port = p
	}

	db, err := storage.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := logging.Default()
	bronzeStore := storage.NewBronzeStore(db)
	silverStore := storage.NewSilverStore(db)

	processor := bronze.NewFileProcessor(cfg.Bronze, bronzeStore, cfg.FileOps, logger)
	rec := recovery.New(bronzeStore, processor, cfg.Bronze.SourceDirectories, logger)

	monitor := health.NewMonitor(logger)
	monitor.RegisterComponent("bronze", func(ctx context.Context) (health.ComponentHealth, error) {
		return bronzeComponentHealth(processor), nil
	})
	monitor.RegisterComponent("silver", func(ctx context.Context) (health.ComponentHealth, error) {
		stats, err := silverStore.Statistics(ctx)
		if err != nil {
			return health.ComponentHealth{}, err
		}
		return health.ComponentHealth{
			Status:  health.StatusOperational,
			Message: fmt.Sprintf("%d extraction statuses tracked", len(stats.CountByStatus)),
			Metrics: map[string]any{"field_coverage_tracked": len(stats.FieldCoverage)},
		}, nil
	})
	monitor.RegisterMetric("error_rate", func(ctx context.Context) (float64, error) {
		metrics := processor.GetCircuitBreakerMetrics()
		var total, failed int64
		for _, m := range metrics {
			total += m.TotalCalls
			failed += m.TotalFailures
		}
		if total == 0 {
			return 0, nil
		}
		return float64(failed) / float64(total) * 100, nil
	})

	srv := health.NewServer(monitor, cfg.Health, processor.Breakers(), rec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("health server starting")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("health server error: %w", err)
		}
		return nil
	case <-sigChan:
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func bronzeComponentHealth(processor *bronze.FileProcessor) health.ComponentHealth {
	metrics := processor.GetCircuitBreakerMetrics()
	var open []string
	for name, m := range metrics {
		if m.State == breaker.StateOpen {
			open = append(open, name)
		}
	}
	if len(open) == 0 {
		return health.ComponentHealth{Status: health.StatusOperational, Message: "all breakers closed"}
	}
	return health.ComponentHealth{
		Status:  health.StatusDegraded,
		Message: fmt.Sprintf("open breakers: %v", open),
	}
}
