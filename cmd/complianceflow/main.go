// Package main implements the complianceflow command. It generates synthetic
// AI usage events, evaluates them against the compliance and risk rules and
// reports aggregated metrics until a limit is reached or it is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360/complianceflow/config"
	"github.com/c360/complianceflow/health"
	"github.com/c360/complianceflow/metric"
	"github.com/c360/complianceflow/pipeline"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "complianceflow"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cli, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	base := setupLogger(cfg.Log.Level, cfg.Log.Format, stderr)
	runID := uuid.NewString()
	logger := base.With("run_id", runID)
	slog.SetDefault(logger)

	if cli.Validate {
		logger.Info("Configuration is valid", "config", cfg.String())
		return nil
	}

	logger.Info("Starting complianceflow",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cli.ConfigPath)

	registry := metric.NewMetricsRegistry()
	p, err := pipeline.New(cfg,
		pipeline.WithLogger(base),
		pipeline.WithRunID(runID),
		pipeline.WithMetrics(registry))
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	if err := serve(ctx, cfg, cli, p, registry, logger); err != nil {
		return err
	}

	snap := p.Latest()
	logger.Info("complianceflow finished",
		"events", snap.Totals.TotalEvents,
		"faulted_workers", snap.FaultedWorkers)
	return printSummary(stdout, snap)
}

// loadConfig layers defaults, the config file, environment and set flags
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cli.applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serve runs the pipeline, the console reporter and the optional metrics
// server until the pipeline finishes or ctx is cancelled.
func serve(
	ctx context.Context,
	cfg *config.Config,
	cli *CLIConfig,
	p *pipeline.Pipeline,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if err := p.Start(gctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	g.Go(func() error {
		defer cancel()
		select {
		case <-p.Done():
			return nil
		case <-gctx.Done():
		}
		logger.Info("Received shutdown signal")
		return p.Stop(cli.ShutdownTimeout)
	})

	rep := newReporter(p.Latest, cfg.Reporter.Refresh.Std(), logger)
	g.Go(func() error { return rep.Run(gctx) })

	if cfg.Metrics.Port > 0 {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry,
			metric.WithHealthHandler(health.Handler(p.Health)))
		logger.Info("Serving metrics", "address", server.Address())
		g.Go(func() error { return server.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		// A failed metrics server cancels the run; still wait for the final snapshot
		_ = p.Stop(cli.ShutdownTimeout)
		return err
	}
	return nil
}
