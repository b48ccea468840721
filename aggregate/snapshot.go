package aggregate

import (
	"time"

	"github.com/c360/complianceflow/rules"
)

// Snapshot is an immutable view of the merged counters at one point in time.
// Field names are a stable contract for renderers.
type Snapshot struct {
	RunID                string         `json:"run_id"`
	Sequence             uint64         `json:"sequence"`
	PublishedAt          time.Time      `json:"published_at"`
	Uptime               time.Duration  `json:"uptime"`
	Interval             time.Duration  `json:"interval"`
	Totals               Counters       `json:"totals"`
	IntervalEvents       uint64         `json:"interval_events"`
	Throughput           float64        `json:"throughput"`
	AverageRiskScore     float64        `json:"average_risk_score"`
	AverageSensitivity   float64        `json:"average_sensitivity"`
	CompliancePercentage float64        `json:"compliance_percentage"`
	Workers              int            `json:"workers"`
	ActiveWorkers        int            `json:"active_workers"`
	FaultedWorkers       int            `json:"faulted_workers"`
	Faults               []Fault        `json:"faults"`
	History              []HistoryPoint `json:"history"`
}

// Fault records a worker stopped by an invariant violation.
type Fault struct {
	Worker int       `json:"worker"`
	Class  string    `json:"class"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}

// HistoryPoint summarizes one collection interval.
type HistoryPoint struct {
	At               time.Time                `json:"at"`
	Events           uint64                   `json:"events"`
	Throughput       float64                  `json:"throughput"`
	SystemViolations [rules.NumSystems]uint64 `json:"system_violations"`
	AverageRiskScore float64                  `json:"average_risk_score"`
}

// CompliancePercentage is the share of (event, system) pairs without a
// violation, in percent. An empty run is fully compliant.
func (c *Counters) CompliancePercentage() float64 {
	if c.TotalEvents == 0 {
		return 100
	}
	checks := float64(c.TotalEvents) * rules.NumSystems
	return 100 * (1 - float64(c.TotalViolations())/checks)
}

// AverageRiskScore returns the mean risk score, or 0 for no events.
func (c *Counters) AverageRiskScore() float64 {
	if c.TotalEvents == 0 {
		return 0
	}
	return float64(c.RiskScoreSum) / float64(c.TotalEvents)
}

// AverageSensitivity returns the mean sensitivity level, or 0 for no events.
func (c *Counters) AverageSensitivity() float64 {
	if c.TotalEvents == 0 {
		return 0
	}
	return float64(c.SensitivitySum) / float64(c.TotalEvents)
}

// RiskDistribution returns the percentage of events per risk level.
func (c *Counters) RiskDistribution() [rules.NumRiskLevels]float64 {
	var out [rules.NumRiskLevels]float64
	if c.TotalEvents == 0 {
		return out
	}
	for i, n := range c.RiskLevels {
		out[i] = 100 * float64(n) / float64(c.TotalEvents)
	}
	return out
}

// Healthy reports whether no worker has faulted.
func (s *Snapshot) Healthy() bool {
	return s.FaultedWorkers == 0
}
