package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/complianceflow/aggregate"
	"github.com/c360/complianceflow/config"
	"github.com/c360/complianceflow/errors"
)

func parse(t *testing.T, args ...string) *CLIConfig {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cli, err := parseFlags(fs, args)
	require.NoError(t, err)
	return cli
}

func TestParseFlags_OnlySetFlagsOverride(t *testing.T) {
	cli := parse(t, "-r", "2500", "--threads=3", "--no-throttle", "--interval", "250ms")

	cfg := config.Default()
	cfg.Seed = 7
	cli.applyFlags(cfg)

	assert.Equal(t, uint64(2500), cfg.TargetRate)
	assert.Equal(t, 3, cfg.Threads)
	assert.False(t, cfg.Throttle)
	assert.Equal(t, 250*time.Millisecond, cfg.ReportInterval.Std())
	assert.Equal(t, uint64(7), cfg.Seed, "unset flags keep the loaded value")
}

func TestParseFlags_DurationsAcceptSeconds(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want time.Duration
	}{
		{"bare seconds", []string{"--interval", "5"}, 5 * time.Second},
		{"shorthand", []string{"-i", "2"}, 2 * time.Second},
		{"fractional", []string{"--interval=0.5"}, 500 * time.Millisecond},
		{"unit", []string{"--interval", "1m"}, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			parse(t, tt.args...).applyFlags(cfg)
			assert.Equal(t, tt.want, cfg.ReportInterval.Std())
		})
	}

	cli := parse(t, "--duration", "3", "--refresh", "250ms")
	cfg := config.Default()
	cli.applyFlags(cfg)
	assert.Equal(t, 3*time.Second, cfg.Duration.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Reporter.Refresh.Std())
}

func TestParseFlags_Invalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := parseFlags(fs, []string{"--rate=fast"})
	assert.Error(t, err)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err = parseFlags(fs, []string{"--interval=soon"})
	assert.Error(t, err)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err = parseFlags(fs, []string{"--shutdown-timeout=0s"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_rate: 500\nseed: 9\n"), 0o600))

	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(path)))
	t.Cleanup(func() { _ = os.Chdir(dir) })

	cli := parse(t, "--config", "run.yaml", "--seed", "11")
	cfg, err := loadConfig(cli)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cfg.TargetRate)
	assert.Equal(t, uint64(11), cfg.Seed)
}

func TestLoadConfig_InvalidRate(t *testing.T) {
	cli := parse(t, "--rate", "0")
	_, err := loadConfig(cli)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "complianceflow version "+Version)
}

func TestRun_Validate(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"--validate", "--log-format", "json"}, io.Discard, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Configuration is valid")
}

func TestRun_InvalidConfig(t *testing.T) {
	err := run(context.Background(), []string{"--threads", "0"}, io.Discard, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRun_BoundedRun(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{
		"--seed", "42", "--max-events", "10000", "--threads", "4",
		"--no-throttle", "--interval", "20ms", "--refresh", "10ms",
		"--log-format", "json",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, args, &stdout, &stderr))

	assert.Regexp(t, `Events\s+10000`, stdout.String())
	assert.Contains(t, stdout.String(), "Violations gdpr")

	var finished bool
	for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.NotEmpty(t, rec["run_id"])
		if rec["msg"] == "complianceflow finished" {
			finished = true
			assert.EqualValues(t, 10000, rec["events"])
		}
	}
	assert.True(t, finished)
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	var stdout bytes.Buffer
	err := run(ctx, []string{"--threads", "2", "--rate", "1000", "--log-level", "error"}, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Events")
}

func TestReporter_SkipsRepeatedSnapshots(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("info", config.LogFormatJSON, &buf)
	r := newReporter(nil, time.Second, logger)

	snap := &aggregate.Snapshot{Sequence: 1, Workers: 2}
	snap.Totals.TotalEvents = 10
	snap.Totals.Services[0] = 10
	snap.Faults = []aggregate.Fault{{Worker: 1, Class: "fatal", Error: "boom"}}

	assert.True(t, r.report(snap))
	assert.False(t, r.report(snap))
	assert.False(t, r.report(nil))

	out := buf.String()
	for _, view := range []string{`"msg":"overview"`, `"msg":"services"`, `"msg":"compliance"`, `"msg":"risk"`} {
		assert.Equal(t, 1, strings.Count(out, view), view)
	}
	assert.Contains(t, out, `"ChatGPT":10`)
	assert.Equal(t, 1, strings.Count(out, "worker fault"))

	next := *snap
	next.Sequence = 2
	assert.True(t, r.report(&next))
	assert.Equal(t, 1, strings.Count(buf.String(), "worker fault"), "faults are logged once")
}

func TestPrintSummary(t *testing.T) {
	snap := &aggregate.Snapshot{RunID: "r1", Workers: 4, FaultedWorkers: 1, CompliancePercentage: 92.5}
	snap.Totals.TotalEvents = 40
	snap.Totals.RiskLevels = [3]uint64{30, 6, 4}
	snap.Faults = []aggregate.Fault{{Worker: 3, Class: "fatal", Error: "invariant violation"}}

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, snap))
	out := buf.String()
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "92.50%")
	assert.Contains(t, out, "4 (1 faulted)")
	assert.Contains(t, out, "30 (75.0%)")
	assert.Contains(t, out, "Fault worker 3")
}
