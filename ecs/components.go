// Package ecs holds the structure-of-arrays component store that every
// pipeline worker generates into and evaluates in place.
//
// Events are never materialized as objects. An event is its ID, and its
// components live in dense per-kind arrays indexed by the ID's offset inside
// the current batch.
package ecs

import "math/bits"

// ID identifies one event. IDs increase monotonically and are never reused.
type ID uint64

// IDRange is the half-open interval [First, End).
type IDRange struct {
	First ID
	End   ID
}

// Len returns the number of IDs in the range.
func (r IDRange) Len() int {
	if r.End <= r.First {
		return 0
	}
	return int(r.End - r.First)
}

// Contains reports whether id lies inside the range.
func (r IDRange) Contains(id ID) bool {
	return id >= r.First && id < r.End
}

// ServiceID indexes the service catalog.
type ServiceID uint8

// VendorID indexes the vendor catalog.
type VendorID uint8

// DepartmentID indexes the department catalog.
type DepartmentID uint8

// Sensitivity is the ordinal data sensitivity of a usage.
type Sensitivity uint8

// Sensitivity levels, ordered.
const (
	Public Sensitivity = iota
	Internal
	Confidential
	Restricted
)

// AIService is the service component of an event.
type AIService struct {
	Service ServiceID
	Vendor  VendorID
}

// Usage is the usage component of an event.
type Usage struct {
	Department  DepartmentID
	Sensitivity Sensitivity
}

// ComplianceStatus has one bit per compliance rule. A set bit is a violation.
type ComplianceStatus uint8

// Rule bits. Each bit is owned by exactly one rule system.
const (
	EUAIActHighRiskUndeclared ComplianceStatus = 1 << iota
	GDPRCrossBorderTransfer
	GDPRSpecialCategoryData
	InternalUnapprovedVendor
	InternalUnapprovedDepartmentService
)

// NumRules is the number of defined rule bits.
const NumRules = 5

// AllRules masks every defined rule bit.
const AllRules ComplianceStatus = 1<<NumRules - 1

// Has reports whether every bit of mask is set.
func (s ComplianceStatus) Has(mask ComplianceStatus) bool {
	return s&mask == mask
}

// Count returns the number of violated rules.
func (s ComplianceStatus) Count() int {
	return bits.OnesCount8(uint8(s))
}

// Compliant reports whether no rule is violated.
func (s ComplianceStatus) Compliant() bool {
	return s == 0
}

// RiskFactors has one bit per contributing risk factor.
type RiskFactors uint8

// Risk factor bits.
const (
	FactorEUAIAct RiskFactors = 1 << iota
	FactorGDPR
	FactorInternalPolicy
	FactorSensitiveData
	FactorServiceCategory
)

// NumRiskFactors is the number of defined risk factor bits.
const NumRiskFactors = 5

// Has reports whether every bit of mask is set.
func (f RiskFactors) Has(mask RiskFactors) bool {
	return f&mask == mask
}

// RiskAssessment is written once per event after all compliance rules ran.
type RiskAssessment struct {
	Score   uint8
	Factors RiskFactors
}
