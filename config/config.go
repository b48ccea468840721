package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/generator"
	"github.com/c360/complianceflow/rules"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the complete application configuration
type Config struct {
	TargetRate     uint64   `json:"target_rate"`     // Events per second across all workers
	ReportInterval Duration `json:"report_interval"` // Snapshot cadence
	Threads        int      `json:"threads"`         // Worker count
	Seed           uint64   `json:"seed"`
	MaxEvents      uint64   `json:"max_events"`       // 0 = unbounded
	Duration       Duration `json:"duration"`         // 0 = until interrupted
	TicksPerSecond int      `json:"ticks_per_second"` // Scheduling granularity
	MaxBatch       int      `json:"max_batch"`        // Store capacity per worker
	Throttle       bool     `json:"throttle"`         // false runs as fast as possible
	HistorySize    int      `json:"history_size"`     // Intervals kept in snapshots

	Generator generator.Weights `json:"generator"`
	Policy    rules.Config      `json:"policy"`
	Reporter  ReporterConfig    `json:"reporter"`
	Metrics   MetricsConfig     `json:"metrics"`
	Log       LogConfig         `json:"log"`
}

// ReporterConfig controls the console reporter
type ReporterConfig struct {
	Refresh Duration `json:"refresh"`
}

// MetricsConfig controls the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int    `json:"port"`
	Path string `json:"path"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		TargetRate:     100000,
		ReportInterval: Duration(5 * time.Second),
		Threads:        runtime.NumCPU(),
		Seed:           42,
		TicksPerSecond: 100,
		MaxBatch:       4096,
		Throttle:       true,
		HistorySize:    30,
		Generator:      generator.DefaultWeights(),
		Policy:         rules.DefaultConfig(),
		Reporter:       ReporterConfig{Refresh: Duration(time.Second)},
		Metrics:        MetricsConfig{Path: "/metrics"},
		Log:            LogConfig{Level: "info", Format: LogFormatText},
	}
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.TargetRate == 0 {
		return invalid("target_rate", "must be positive")
	}
	if c.ReportInterval <= 0 {
		return invalid("report_interval", "must be positive, got %s", c.ReportInterval)
	}
	if c.Threads <= 0 {
		return invalid("threads", "must be positive, got %d", c.Threads)
	}
	if c.Duration < 0 {
		return invalid("duration", "must not be negative, got %s", c.Duration)
	}
	if c.TicksPerSecond <= 0 || c.TicksPerSecond > 1000 {
		return invalid("ticks_per_second", "must be in [1, 1000], got %d", c.TicksPerSecond)
	}
	if c.MaxBatch <= 0 {
		return invalid("max_batch", "must be positive, got %d", c.MaxBatch)
	}
	if c.HistorySize <= 0 {
		return invalid("history_size", "must be positive, got %d", c.HistorySize)
	}
	if c.Reporter.Refresh <= 0 {
		return invalid("reporter.refresh", "must be positive, got %s", c.Reporter.Refresh)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return invalid("metrics.port", "must be in [0, 65535], got %d", c.Metrics.Port)
	}
	if c.Metrics.Port > 0 && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "must start with /, got %q", c.Metrics.Path)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}

	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if _, err := rules.Compile(c.Policy); err != nil {
		return err
	}
	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

func invalid(field, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return errors.WrapInvalid(fmt.Errorf("%w: %s %s", errors.ErrInvalidConfig, field, detail),
		"Config", "Validate", "check "+field)
}

// Duration is a time.Duration that reads "5s" style strings or whole seconds
type Duration time.Duration

// Std returns d as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats d like time.Duration
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON writes d as a duration string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseDuration(v)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Set parses a duration string such as "5s", or a bare number of seconds.
// It lets Duration serve as a flag.Value.
func (d *Duration) Set(val string) error {
	var (
		parsed Duration
		err    error
	)
	if secs, perr := strconv.ParseFloat(val, 64); perr == nil {
		parsed, err = ParseDuration(secs)
	} else {
		parsed, err = ParseDuration(val)
	}
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDuration converts a decoded value into a Duration.
// Strings use time.ParseDuration syntax; numbers are seconds.
func ParseDuration(v any) (Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q: %v", errors.ErrInvalidConfig, val, err)
		}
		return Duration(d), nil
	case float64:
		return Duration(val * float64(time.Second)), nil
	case int:
		return Duration(time.Duration(val) * time.Second), nil
	case int64:
		return Duration(time.Duration(val) * time.Second), nil
	default:
		return 0, fmt.Errorf("%w: duration must be a string or seconds, got %T", errors.ErrInvalidConfig, v)
	}
}
