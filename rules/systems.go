package rules

import "github.com/c360/complianceflow/ecs"

// EUAIAct flags high-risk service categories used with data at or above the
// configured sensitivity.
func (p *Policy) EUAIAct(svc ecs.AIService, usage ecs.Usage, in ecs.ComplianceStatus) ecs.ComplianceStatus {
	if usage.Sensitivity >= p.euMinSensitivity && p.euHighRisk[svc.Service.Category()] {
		in |= ecs.EUAIActHighRiskUndeclared
	}
	return in
}

// GDPR flags transfers from restricted departments and special-category data
// sent to vendors without an approved transfer mechanism.
func (p *Policy) GDPR(svc ecs.AIService, usage ecs.Usage, in ecs.ComplianceStatus) ecs.ComplianceStatus {
	if p.gdprApproved[svc.Vendor] {
		return in
	}
	if p.gdprRestricted[usage.Department] {
		in |= ecs.GDPRCrossBorderTransfer
	}
	if usage.Sensitivity >= p.gdprSpecialSensitivity {
		in |= ecs.GDPRSpecialCategoryData
	}
	return in
}

// InternalPolicy flags vendors off the organization allow-list and services a
// department is not approved to use.
func (p *Policy) InternalPolicy(svc ecs.AIService, usage ecs.Usage, in ecs.ComplianceStatus) ecs.ComplianceStatus {
	if !p.allowedVendors[svc.Vendor] {
		in |= ecs.InternalUnapprovedVendor
	}
	if p.deptRestricted[usage.Department] && !p.deptServices[usage.Department][svc.Service] {
		in |= ecs.InternalUnapprovedDepartmentService
	}
	return in
}

// Evaluate runs the compliance systems and the risk assessment for one event.
// A system that clears a bit or sets a bit it does not own panics with an
// invariant violation.
func (p *Policy) Evaluate(id ecs.ID, svc ecs.AIService, usage ecs.Usage, status ecs.ComplianceStatus) (ecs.ComplianceStatus, ecs.RiskAssessment) {
	status = checked(id, SystemEUAIAct, status, p.EUAIAct(svc, usage, status))
	status = checked(id, SystemGDPR, status, p.GDPR(svc, usage, status))
	status = checked(id, SystemInternalPolicy, status, p.InternalPolicy(svc, usage, status))
	return status, p.Assess(svc, usage, status)
}
