package ecs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360/complianceflow/errors"
)

// Closed enumeration sizes.
const (
	NumServices      = 5
	NumVendors       = 5
	NumDepartments   = 5
	NumSensitivities = 4
	NumCategories    = 3
)

// Category groups services by the kind of model they expose.
type Category uint8

// Service categories.
const (
	GeneralPurpose Category = iota
	CodeAssistant
	ImageGeneration
)

var (
	serviceNames     = [NumServices]string{"ChatGPT", "Claude", "Gemini", "Copilot", "Stable Diffusion"}
	vendorNames      = [NumVendors]string{"OpenAI", "Anthropic", "Google", "Microsoft", "Stability AI"}
	departmentNames  = [NumDepartments]string{"Engineering", "Marketing", "Finance", "HR", "Legal"}
	sensitivityNames = [NumSensitivities]string{"Public", "Internal", "Confidential", "Restricted"}
	categoryNames    = [NumCategories]string{"general_purpose", "code_assistant", "image_generation"}

	serviceCategories = [NumServices]Category{
		GeneralPurpose,  // ChatGPT
		GeneralPurpose,  // Claude
		GeneralPurpose,  // Gemini
		CodeAssistant,   // Copilot
		ImageGeneration, // Stable Diffusion
	}

	ruleNames = [NumRules]string{
		"eu_ai_act_high_risk_undeclared",
		"gdpr_cross_border_transfer",
		"gdpr_special_category_data",
		"internal_unapproved_vendor",
		"internal_unapproved_department_service",
	}

	factorNames = [NumRiskFactors]string{
		"eu_ai_act",
		"gdpr",
		"internal_policy",
		"sensitive_data",
		"service_category",
	}
)

func (s ServiceID) String() string    { return lookup(serviceNames[:], int(s)) }
func (v VendorID) String() string     { return lookup(vendorNames[:], int(v)) }
func (d DepartmentID) String() string { return lookup(departmentNames[:], int(d)) }
func (s Sensitivity) String() string  { return lookup(sensitivityNames[:], int(s)) }
func (c Category) String() string     { return lookup(categoryNames[:], int(c)) }

// Valid reports whether the value is inside the closed enumeration.
func (s ServiceID) Valid() bool { return s < NumServices }

// Valid reports whether the value is inside the closed enumeration.
func (v VendorID) Valid() bool { return v < NumVendors }

// Valid reports whether the value is inside the closed enumeration.
func (d DepartmentID) Valid() bool { return d < NumDepartments }

// Valid reports whether the value is inside the closed enumeration.
func (s Sensitivity) Valid() bool { return s < NumSensitivities }

// Valid reports whether the value is inside the closed enumeration.
func (c Category) Valid() bool { return c < NumCategories }

// ServiceNames returns the catalog service names in ID order.
func ServiceNames() []string { return slices.Clone(serviceNames[:]) }

// VendorNames returns the catalog vendor names in ID order.
func VendorNames() []string { return slices.Clone(vendorNames[:]) }

// DepartmentNames returns the catalog department names in ID order.
func DepartmentNames() []string { return slices.Clone(departmentNames[:]) }

// SensitivityNames returns the sensitivity level names in order.
func SensitivityNames() []string { return slices.Clone(sensitivityNames[:]) }

// RuleNames returns the rule names in bit order.
func RuleNames() []string { return slices.Clone(ruleNames[:]) }

// RiskFactorNames returns the risk factor names in bit order.
func RiskFactorNames() []string { return slices.Clone(factorNames[:]) }

func lookup(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

// Category returns the catalog category of the service.
func (s ServiceID) Category() Category {
	if !s.Valid() {
		panic(errors.Invariant("Catalog", "Category", "service %d outside catalog", s))
	}
	return serviceCategories[s]
}

// RuleName returns the stable name of rule bit i.
func RuleName(i int) string { return lookup(ruleNames[:], i) }

// RiskFactorName returns the stable name of risk factor bit i.
func RiskFactorName(i int) string { return lookup(factorNames[:], i) }

// ParseService resolves a service by catalog name, case-insensitively.
func ParseService(name string) (ServiceID, error) {
	i, err := parse(serviceNames[:], "service", name)
	return ServiceID(i), err
}

// ParseVendor resolves a vendor by catalog name, case-insensitively.
func ParseVendor(name string) (VendorID, error) {
	i, err := parse(vendorNames[:], "vendor", name)
	return VendorID(i), err
}

// ParseDepartment resolves a department by catalog name, case-insensitively.
func ParseDepartment(name string) (DepartmentID, error) {
	i, err := parse(departmentNames[:], "department", name)
	return DepartmentID(i), err
}

// ParseSensitivity resolves a sensitivity level by name, case-insensitively.
func ParseSensitivity(name string) (Sensitivity, error) {
	i, err := parse(sensitivityNames[:], "sensitivity", name)
	return Sensitivity(i), err
}

// ParseCategory resolves a service category by name, case-insensitively.
func ParseCategory(name string) (Category, error) {
	i, err := parse(categoryNames[:], "category", name)
	return Category(i), err
}

func parse(names []string, kind, name string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return 0, errors.WrapInvalid(
		fmt.Errorf("%w: unknown %s %q", errors.ErrInvalidConfig, kind, name),
		"Catalog", "Parse", "resolve "+kind)
}
