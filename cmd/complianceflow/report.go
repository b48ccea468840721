package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"text/tabwriter"
	"time"

	"github.com/c360/complianceflow/aggregate"
	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/rules"
)

// reporter logs the latest snapshot on a fixed cadence as four views:
// overview, services, compliance and risk.
type reporter struct {
	source  func() *aggregate.Snapshot
	refresh time.Duration
	logger  *slog.Logger

	lastSeq  uint64
	reported bool
	faults   int
}

func newReporter(source func() *aggregate.Snapshot, refresh time.Duration, logger *slog.Logger) *reporter {
	if refresh <= 0 {
		refresh = time.Second
	}
	return &reporter{
		source:  source,
		refresh: refresh,
		logger:  logger.With("component", "reporter"),
	}
}

// Run reports until ctx is done
func (r *reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.report(r.source())
		}
	}
}

// report logs snap unless it was already reported
func (r *reporter) report(snap *aggregate.Snapshot) bool {
	if snap == nil || (r.reported && snap.Sequence == r.lastSeq) {
		return false
	}
	r.reported = true
	r.lastSeq = snap.Sequence

	r.logger.Info("overview", overview(snap)...)
	r.logger.Info("services", services(&snap.Totals)...)
	r.logger.Info("compliance", compliance(&snap.Totals)...)
	r.logger.Info("risk", risk(&snap.Totals)...)

	for _, f := range snap.Faults[min(r.faults, len(snap.Faults)):] {
		r.logger.Warn("worker fault", "worker", f.Worker, "class", f.Class, "error", f.Error)
	}
	r.faults = len(snap.Faults)
	return true
}

func overview(snap *aggregate.Snapshot) []any {
	return []any{
		"sequence", snap.Sequence,
		"uptime", snap.Uptime.Round(time.Millisecond),
		"events", snap.Totals.TotalEvents,
		"interval_events", snap.IntervalEvents,
		"throughput", round(snap.Throughput, 0),
		"compliance_pct", round(snap.CompliancePercentage, 2),
		"avg_risk", round(snap.AverageRiskScore, 2),
		"active_workers", snap.ActiveWorkers,
		"faulted_workers", snap.FaultedWorkers,
	}
}

func services(c *aggregate.Counters) []any {
	return []any{
		counts("services", ecs.ServiceNames(), c.Services[:]),
		counts("vendors", ecs.VendorNames(), c.Vendors[:]),
		counts("departments", ecs.DepartmentNames(), c.Departments[:]),
		counts("service_violations", ecs.ServiceNames(), c.ServiceViolations[:]),
	}
}

func compliance(c *aggregate.Counters) []any {
	systems := make([]any, 0, rules.NumSystems)
	for i, n := range c.SystemViolations {
		systems = append(systems, slog.Uint64(rules.System(i).String(), n))
	}
	return []any{
		"compliant", c.CompliantEvents,
		slog.Group("systems", systems...),
		counts("rules", ecs.RuleNames(), c.RuleViolations[:]),
		counts("department_violations", ecs.DepartmentNames(), c.DepartmentViolations[:]),
	}
}

func risk(c *aggregate.Counters) []any {
	dist := c.RiskDistribution()
	levels := make([]any, 0, rules.NumRiskLevels)
	for i, pct := range dist {
		levels = append(levels, slog.Group(rules.RiskLevel(i).String(),
			"events", c.RiskLevels[i],
			"pct", round(pct, 2)))
	}
	return []any{
		"avg_score", round(c.AverageRiskScore(), 2),
		"avg_sensitivity", round(c.AverageSensitivity(), 2),
		slog.Group("levels", levels...),
		counts("factors", ecs.RiskFactorNames(), c.RiskFactors[:]),
		counts("sensitivities", ecs.SensitivityNames(), c.Sensitivities[:]),
	}
}

func counts(group string, names []string, values []uint64) slog.Attr {
	attrs := make([]any, 0, len(values))
	for i, v := range values {
		attrs = append(attrs, slog.Uint64(names[i], v))
	}
	return slog.Group(group, attrs...)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// printSummary writes the final snapshot as an aligned table
func printSummary(w io.Writer, snap *aggregate.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	c := &snap.Totals

	rows := [][2]string{
		{"Run", snap.RunID},
		{"Uptime", snap.Uptime.Round(time.Millisecond).String()},
		{"Events", fmt.Sprint(c.TotalEvents)},
		{"Compliant events", fmt.Sprint(c.CompliantEvents)},
		{"Compliance", fmt.Sprintf("%.2f%%", snap.CompliancePercentage)},
		{"Average risk score", fmt.Sprintf("%.2f", snap.AverageRiskScore)},
		{"Average sensitivity", fmt.Sprintf("%.2f", snap.AverageSensitivity)},
		{"Workers", fmt.Sprintf("%d (%d faulted)", snap.Workers, snap.FaultedWorkers)},
	}
	for i, n := range c.SystemViolations {
		rows = append(rows, [2]string{"Violations " + rules.System(i).String(), fmt.Sprint(n)})
	}
	dist := c.RiskDistribution()
	for i, n := range c.RiskLevels {
		rows = append(rows, [2]string{
			"Risk " + rules.RiskLevel(i).String(),
			fmt.Sprintf("%d (%.1f%%)", n, dist[i]),
		})
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	for _, f := range snap.Faults {
		if _, err := fmt.Fprintf(tw, "Fault worker %d\t%s: %s\n", f.Worker, f.Class, f.Error); err != nil {
			return err
		}
	}
	return tw.Flush()
}
