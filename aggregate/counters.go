// Package aggregate folds evaluated events into counters, merges the
// counters of every worker and publishes immutable snapshots.
//
// Workers own their counters. After each batch a worker publishes a fresh
// copy into its Slot and never touches that copy again, so the aggregator
// can read slots without locks or pausing workers.
package aggregate

import (
	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/rules"
)

// HistogramBuckets is the number of risk score buckets. Bucket i covers
// scores [10i, 10i+9]; the last bucket also holds 100.
const HistogramBuckets = 10

// Counters are additive event tallies. The zero value is empty and Merge is
// associative and commutative, so any partition of events merges to the same
// totals.
type Counters struct {
	TotalEvents          uint64                       `json:"total_events"`
	CompliantEvents      uint64                       `json:"compliant_events"`
	RuleViolations       [ecs.NumRules]uint64         `json:"rule_violations"`
	SystemViolations     [rules.NumSystems]uint64     `json:"system_violations"`
	RiskLevels           [rules.NumRiskLevels]uint64  `json:"risk_levels"`
	RiskHistogram        [HistogramBuckets]uint64     `json:"risk_histogram"`
	RiskFactors          [ecs.NumRiskFactors]uint64   `json:"risk_factors"`
	Services             [ecs.NumServices]uint64      `json:"services"`
	Vendors              [ecs.NumVendors]uint64       `json:"vendors"`
	Departments          [ecs.NumDepartments]uint64   `json:"departments"`
	Sensitivities        [ecs.NumSensitivities]uint64 `json:"sensitivities"`
	DepartmentViolations [ecs.NumDepartments]uint64   `json:"department_violations"`
	ServiceViolations    [ecs.NumServices]uint64      `json:"service_violations"`
	RiskScoreSum         uint64                       `json:"risk_score_sum"`
	SensitivitySum       uint64                       `json:"sensitivity_sum"`
}

// Add tallies one evaluated event.
func (c *Counters) Add(p *rules.Policy, svc ecs.AIService, usage ecs.Usage, status ecs.ComplianceStatus, risk ecs.RiskAssessment) {
	c.TotalEvents++

	c.Services[svc.Service]++
	c.Vendors[svc.Vendor]++
	c.Departments[usage.Department]++
	c.Sensitivities[usage.Sensitivity]++
	c.SensitivitySum += uint64(usage.Sensitivity)

	if status.Compliant() {
		c.CompliantEvents++
	} else {
		c.DepartmentViolations[usage.Department]++
		c.ServiceViolations[svc.Service]++
		for bit := range ecs.NumRules {
			if status&(1<<bit) != 0 {
				c.RuleViolations[bit]++
			}
		}
		for s := range rules.NumSystems {
			if status&rules.System(s).Mask() != 0 {
				c.SystemViolations[s]++
			}
		}
	}

	for bit := range ecs.NumRiskFactors {
		if risk.Factors&(1<<bit) != 0 {
			c.RiskFactors[bit]++
		}
	}
	c.RiskLevels[p.Level(risk.Score)]++
	c.RiskHistogram[min(int(risk.Score)/10, HistogramBuckets-1)]++
	c.RiskScoreSum += uint64(risk.Score)
}

// Fold tallies every event of batch from store.
func (c *Counters) Fold(p *rules.Policy, store *ecs.Store, batch ecs.IDRange) {
	for id := batch.First; id < batch.End; id++ {
		c.Add(p, store.Service(id), store.Usage(id), *store.Status(id), *store.Risk(id))
	}
}

// Merge adds o into c. A nil o is a no-op.
func (c *Counters) Merge(o *Counters) {
	if o == nil {
		return
	}
	c.TotalEvents += o.TotalEvents
	c.CompliantEvents += o.CompliantEvents
	addAll(c.RuleViolations[:], o.RuleViolations[:])
	addAll(c.SystemViolations[:], o.SystemViolations[:])
	addAll(c.RiskLevels[:], o.RiskLevels[:])
	addAll(c.RiskHistogram[:], o.RiskHistogram[:])
	addAll(c.RiskFactors[:], o.RiskFactors[:])
	addAll(c.Services[:], o.Services[:])
	addAll(c.Vendors[:], o.Vendors[:])
	addAll(c.Departments[:], o.Departments[:])
	addAll(c.Sensitivities[:], o.Sensitivities[:])
	addAll(c.DepartmentViolations[:], o.DepartmentViolations[:])
	addAll(c.ServiceViolations[:], o.ServiceViolations[:])
	c.RiskScoreSum += o.RiskScoreSum
	c.SensitivitySum += o.SensitivitySum
}

// Reset empties c.
func (c *Counters) Reset() {
	*c = Counters{}
}

// Clone returns an independent copy of c.
func (c *Counters) Clone() *Counters {
	cp := *c
	return &cp
}

// TotalViolations sums the per-system violation counts.
func (c *Counters) TotalViolations() uint64 {
	var n uint64
	for _, v := range c.SystemViolations {
		n += v
	}
	return n
}

func addAll(dst, src []uint64) {
	for i := range dst {
		dst[i] += src[i]
	}
}
