package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/metric"
	"github.com/c360/complianceflow/rules"
)

// Collector exports the latest snapshot to Prometheus at scrape time.
type Collector struct {
	agg *Aggregator

	events         *prometheus.Desc
	compliant      *prometheus.Desc
	ruleViolations *prometheus.Desc
	systemViolated *prometheus.Desc
	riskLevels     *prometheus.Desc
	riskFactors    *prometheus.Desc
	throughput     *prometheus.Desc
	averageRisk    *prometheus.Desc
	compliance     *prometheus.Desc
	workers        *prometheus.Desc
	sequence       *prometheus.Desc
}

// NewCollector creates a collector reading from agg.
func NewCollector(agg *Aggregator) *Collector {
	name := func(n string) string { return prometheus.BuildFQName(metric.Namespace, "", n) }
	return &Collector{
		agg:            agg,
		events:         prometheus.NewDesc(name("events_total"), "Events generated and evaluated", nil, nil),
		compliant:      prometheus.NewDesc(name("compliant_events_total"), "Events without any rule violation", nil, nil),
		ruleViolations: prometheus.NewDesc(name("rule_violations_total"), "Events violating each rule", []string{"rule"}, nil),
		systemViolated: prometheus.NewDesc(name("system_violations_total"), "Events violating at least one rule of each system", []string{"system"}, nil),
		riskLevels:     prometheus.NewDesc(name("risk_level_events_total"), "Events per risk level", []string{"level"}, nil),
		riskFactors:    prometheus.NewDesc(name("risk_factor_events_total"), "Events per contributing risk factor", []string{"factor"}, nil),
		throughput:     prometheus.NewDesc(name("throughput_events_per_second"), "Events per second over the last interval", nil, nil),
		averageRisk:    prometheus.NewDesc(name("average_risk_score"), "Mean risk score since start", nil, nil),
		compliance:     prometheus.NewDesc(name("compliance_percentage"), "Share of event and system pairs without violation", nil, nil),
		workers:        prometheus.NewDesc(name("workers"), "Workers per state", []string{"state"}, nil),
		sequence:       prometheus.NewDesc(name("snapshot_sequence"), "Sequence number of the exported snapshot", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.compliant
	ch <- c.ruleViolations
	ch <- c.systemViolated
	ch <- c.riskLevels
	ch <- c.riskFactors
	ch <- c.throughput
	ch <- c.averageRisk
	ch <- c.compliance
	ch <- c.workers
	ch <- c.sequence
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.agg.Latest()
	t := &snap.Totals

	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	counter(c.events, t.TotalEvents)
	counter(c.compliant, t.CompliantEvents)
	for i, v := range t.RuleViolations {
		counter(c.ruleViolations, v, ecs.RuleName(i))
	}
	for i, v := range t.SystemViolations {
		counter(c.systemViolated, v, rules.System(i).String())
	}
	for i, v := range t.RiskLevels {
		counter(c.riskLevels, v, rules.RiskLevel(i).String())
	}
	for i, v := range t.RiskFactors {
		counter(c.riskFactors, v, ecs.RiskFactorName(i))
	}

	gauge(c.throughput, snap.Throughput)
	gauge(c.averageRisk, snap.AverageRiskScore)
	gauge(c.compliance, snap.CompliancePercentage)

	stopped := snap.Workers - snap.ActiveWorkers - snap.FaultedWorkers
	gauge(c.workers, float64(snap.ActiveWorkers), "active")
	gauge(c.workers, float64(snap.FaultedWorkers), "faulted")
	gauge(c.workers, float64(stopped), "stopped")

	gauge(c.sequence, float64(snap.Sequence))
}
