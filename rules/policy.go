// Package rules implements the compliance and risk systems that run over a
// worker's component store.
//
// Every system is a pure function of the event's components and a compiled
// Policy. The compliance systems only ever set bits they own, so their
// relative order does not change the final status.
package rules

import (
	"math/bits"

	"github.com/c360/complianceflow/ecs"
)

// MaxScore is the upper bound of a risk score.
const MaxScore = 100

// System identifies one compliance system.
type System int

// Compliance systems in evaluation order.
const (
	SystemEUAIAct System = iota
	SystemGDPR
	SystemInternalPolicy
)

// NumSystems is the number of compliance systems.
const NumSystems = 3

var (
	systemNames = [NumSystems]string{"eu_ai_act", "gdpr", "internal_policy"}
	systemMasks = [NumSystems]ecs.ComplianceStatus{
		ecs.EUAIActHighRiskUndeclared,
		ecs.GDPRCrossBorderTransfer | ecs.GDPRSpecialCategoryData,
		ecs.InternalUnapprovedVendor | ecs.InternalUnapprovedDepartmentService,
	}
	systemFactors = [NumSystems]ecs.RiskFactors{
		ecs.FactorEUAIAct,
		ecs.FactorGDPR,
		ecs.FactorInternalPolicy,
	}
)

func (s System) String() string {
	if s < 0 || s >= NumSystems {
		return "unknown"
	}
	return systemNames[s]
}

// Mask returns the rule bits owned by the system.
func (s System) Mask() ecs.ComplianceStatus {
	return systemMasks[s]
}

// RiskLevel buckets a risk score.
type RiskLevel int

// Risk levels.
const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// NumRiskLevels is the number of risk levels.
const NumRiskLevels = 3

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Policy is the compiled form of Config. It is immutable after Compile and
// safe to share between workers.
type Policy struct {
	euMinSensitivity ecs.Sensitivity
	euHighRisk       [ecs.NumCategories]bool

	gdprRestricted         [ecs.NumDepartments]bool
	gdprApproved           [ecs.NumVendors]bool
	gdprSpecialSensitivity ecs.Sensitivity

	allowedVendors [ecs.NumVendors]bool
	deptRestricted [ecs.NumDepartments]bool
	deptServices   [ecs.NumDepartments][ecs.NumServices]bool

	systemWeights      [NumSystems]int
	sensitivityWeights [ecs.NumSensitivities]int
	categoryWeights    [ecs.NumCategories]int
	factorThreshold    int
	mediumAbove        uint8
	highAbove          uint8
}

// Level buckets score into low, medium or high.
func (p *Policy) Level(score uint8) RiskLevel {
	switch {
	case score > p.highAbove:
		return RiskHigh
	case score > p.mediumAbove:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Assess computes the risk of one event from its components and its final
// compliance status. The result depends on nothing else, so recomputing it is
// idempotent.
func (p *Policy) Assess(svc ecs.AIService, usage ecs.Usage, final ecs.ComplianceStatus) ecs.RiskAssessment {
	var (
		score   int
		factors ecs.RiskFactors
	)

	for s := range NumSystems {
		c := p.systemWeights[s] * bits.OnesCount8(uint8(final&systemMasks[s]))
		score += c
		if c > p.factorThreshold {
			factors |= systemFactors[s]
		}
	}

	if c := p.sensitivityWeights[usage.Sensitivity]; c > 0 {
		score += c
		if c > p.factorThreshold {
			factors |= ecs.FactorSensitiveData
		}
	}

	if c := p.categoryWeights[svc.Service.Category()]; c > 0 {
		score += c
		if c > p.factorThreshold {
			factors |= ecs.FactorServiceCategory
		}
	}

	return ecs.RiskAssessment{Score: uint8(min(score, MaxScore)), Factors: factors}
}
