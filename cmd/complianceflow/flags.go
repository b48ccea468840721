package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/c360/complianceflow/config"
)

// CLIConfig holds command-line configuration. Only flags that were set on
// the command line override the loaded configuration.
type CLIConfig struct {
	ConfigPath      string
	Rate            uint64
	Interval        config.Duration
	Threads         int
	Seed            uint64
	MaxEvents       uint64
	Duration        config.Duration
	NoThrottle      bool
	Refresh         config.Duration
	LogLevel        string
	LogFormat       string
	MetricsPort     int
	ShutdownTimeout time.Duration
	ShowVersion     bool
	Validate        bool

	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	defaults := config.Default()
	cfg := &CLIConfig{
		Interval: defaults.ReportInterval,
		Duration: defaults.Duration,
		Refresh:  defaults.Reporter.Refresh,
		set:      map[string]bool{},
	}

	fs.StringVar(&cfg.ConfigPath, "config", getEnv(config.EnvPrefix+"_CONFIG", ""),
		"Path to a .json, .yaml or .yml configuration file (env: COMPLIANCEFLOW_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c", getEnv(config.EnvPrefix+"_CONFIG", ""),
		"Shorthand for --config")

	fs.Uint64Var(&cfg.Rate, "rate", defaults.TargetRate, "Target events per second across all workers")
	fs.Uint64Var(&cfg.Rate, "r", defaults.TargetRate, "Shorthand for --rate")
	fs.Var(&cfg.Interval, "interval", "Snapshot publish interval, e.g. 5s or 5 (seconds)")
	fs.Var(&cfg.Interval, "i", "Shorthand for --interval")
	fs.IntVar(&cfg.Threads, "threads", defaults.Threads, "Worker count")
	fs.IntVar(&cfg.Threads, "t", defaults.Threads, "Shorthand for --threads")

	fs.Uint64Var(&cfg.Seed, "seed", defaults.Seed, "Generator seed")
	fs.Uint64Var(&cfg.MaxEvents, "max-events", defaults.MaxEvents, "Stop after this many events, 0 for unbounded")
	fs.Var(&cfg.Duration, "duration", "Stop after this long, 0 to run until interrupted")
	fs.BoolVar(&cfg.NoThrottle, "no-throttle", false, "Generate as fast as possible instead of at the target rate")
	fs.Var(&cfg.Refresh, "refresh", "Console report cadence")

	fs.StringVar(&cfg.LogLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", defaults.Log.Format, "Log format: text, json")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", defaults.Metrics.Port,
		"Prometheus and health endpoint port, 0 to disable")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() { printDetailedHelp(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { cfg.set[canonical(f.Name)] = true })

	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}
	return cfg, nil
}

func canonical(name string) string {
	switch name {
	case "c":
		return "config"
	case "r":
		return "rate"
	case "i":
		return "interval"
	case "t":
		return "threads"
	case "v":
		return "version"
	}
	return name
}

// applyFlags copies explicitly set flags over cfg
func (c *CLIConfig) applyFlags(cfg *config.Config) {
	if c.set["rate"] {
		cfg.TargetRate = c.Rate
	}
	if c.set["interval"] {
		cfg.ReportInterval = c.Interval
	}
	if c.set["threads"] {
		cfg.Threads = c.Threads
	}
	if c.set["seed"] {
		cfg.Seed = c.Seed
	}
	if c.set["max-events"] {
		cfg.MaxEvents = c.MaxEvents
	}
	if c.set["duration"] {
		cfg.Duration = c.Duration
	}
	if c.set["no-throttle"] {
		cfg.Throttle = !c.NoThrottle
	}
	if c.set["refresh"] {
		cfg.Reporter.Refresh = c.Refresh
	}
	if c.set["log-level"] {
		cfg.Log.Level = c.LogLevel
	}
	if c.set["log-format"] {
		cfg.Log.Format = c.LogFormat
	}
	if c.set["metrics-port"] {
		cfg.Metrics.Port = c.MetricsPort
	}
}

func printDetailedHelp(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, `%s - AI usage compliance event pipeline

Usage: %s [options]

Options:
`, appName, os.Args[0])
	fs.PrintDefaults()
	printExamples(out)
}

func printExamples(out io.Writer) {
	_, _ = fmt.Fprintf(out, `
Examples:
  # Evaluate 10000 events with 4 workers as fast as possible
  %[1]s --seed=42 --max-events=10000 --threads=4 --no-throttle

  # Run at 50k events/s for a minute with Prometheus on :9090
  %[1]s --rate=50000 --duration=1m --metrics-port=9090

  # Load a policy file and check it without running
  %[1]s --config=policy.yaml --validate

Environment overrides use the COMPLIANCEFLOW_ prefix, e.g. COMPLIANCEFLOW_RATE.

Version: %[2]s
`, appName, Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
