package rules

import (
	"fmt"

	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
)

// Config is the name-based policy as it appears in configuration files.
// Compile resolves it against the catalog.
type Config struct {
	EUAIAct        EUAIActConfig        `json:"eu_ai_act" yaml:"eu_ai_act"`
	GDPR           GDPRConfig           `json:"gdpr" yaml:"gdpr"`
	InternalPolicy InternalPolicyConfig `json:"internal_policy" yaml:"internal_policy"`
	Risk           RiskConfig           `json:"risk" yaml:"risk"`
}

// EUAIActConfig flags undeclared high-risk usage.
type EUAIActConfig struct {
	MinSensitivity     string   `json:"min_sensitivity" yaml:"min_sensitivity"`
	HighRiskCategories []string `json:"high_risk_categories" yaml:"high_risk_categories"`
}

// GDPRConfig flags cross-border transfers and special-category data.
type GDPRConfig struct {
	RestrictedDepartments      []string `json:"restricted_departments" yaml:"restricted_departments"`
	ApprovedTransferVendors    []string `json:"approved_transfer_vendors" yaml:"approved_transfer_vendors"`
	SpecialCategorySensitivity string   `json:"special_category_sensitivity" yaml:"special_category_sensitivity"`
}

// InternalPolicyConfig holds the organization allow-lists.
type InternalPolicyConfig struct {
	AllowedVendors     []string            `json:"allowed_vendors" yaml:"allowed_vendors"`
	DepartmentServices map[string][]string `json:"department_services" yaml:"department_services"`
}

// RiskConfig holds the risk score weights and level thresholds.
type RiskConfig struct {
	SystemWeights      SystemWeights  `json:"system_weights" yaml:"system_weights"`
	SensitivityWeights []int          `json:"sensitivity_weights" yaml:"sensitivity_weights"`
	CategoryWeights    map[string]int `json:"category_weights" yaml:"category_weights"`
	FactorThreshold    int            `json:"factor_threshold" yaml:"factor_threshold"`
	MediumAbove        int            `json:"medium_above" yaml:"medium_above"`
	HighAbove          int            `json:"high_above" yaml:"high_above"`
}

// SystemWeights is the score added per violated bit of each system.
type SystemWeights struct {
	EUAIAct        int `json:"eu_ai_act" yaml:"eu_ai_act"`
	GDPR           int `json:"gdpr" yaml:"gdpr"`
	InternalPolicy int `json:"internal_policy" yaml:"internal_policy"`
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		EUAIAct: EUAIActConfig{
			MinSensitivity:     "Confidential",
			HighRiskCategories: []string{"general_purpose", "image_generation"},
		},
		GDPR: GDPRConfig{
			RestrictedDepartments:      []string{"HR", "Legal", "Finance"},
			ApprovedTransferVendors:    []string{"Anthropic", "Microsoft"},
			SpecialCategorySensitivity: "Restricted",
		},
		InternalPolicy: InternalPolicyConfig{
			AllowedVendors: []string{"Anthropic", "Microsoft", "Google"},
			DepartmentServices: map[string][]string{
				"Finance": {"Claude", "Copilot"},
			},
		},
		Risk: RiskConfig{
			SystemWeights:      SystemWeights{EUAIAct: 40, GDPR: 30, InternalPolicy: 20},
			SensitivityWeights: []int{0, 5, 10, 20},
			CategoryWeights: map[string]int{
				"general_purpose":  5,
				"code_assistant":   0,
				"image_generation": 10,
			},
			FactorThreshold: 5,
			MediumAbove:     30,
			HighAbove:       70,
		},
	}
}

// Compile resolves every name against the catalog and returns the policy.
func Compile(cfg Config) (*Policy, error) {
	p := &Policy{}
	var err error

	if p.euMinSensitivity, err = ecs.ParseSensitivity(cfg.EUAIAct.MinSensitivity); err != nil {
		return nil, err
	}
	for _, name := range cfg.EUAIAct.HighRiskCategories {
		c, err := ecs.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		p.euHighRisk[c] = true
	}

	for _, name := range cfg.GDPR.RestrictedDepartments {
		d, err := ecs.ParseDepartment(name)
		if err != nil {
			return nil, err
		}
		p.gdprRestricted[d] = true
	}
	for _, name := range cfg.GDPR.ApprovedTransferVendors {
		v, err := ecs.ParseVendor(name)
		if err != nil {
			return nil, err
		}
		p.gdprApproved[v] = true
	}
	if p.gdprSpecialSensitivity, err = ecs.ParseSensitivity(cfg.GDPR.SpecialCategorySensitivity); err != nil {
		return nil, err
	}

	for _, name := range cfg.InternalPolicy.AllowedVendors {
		v, err := ecs.ParseVendor(name)
		if err != nil {
			return nil, err
		}
		p.allowedVendors[v] = true
	}
	for dept, services := range cfg.InternalPolicy.DepartmentServices {
		d, err := ecs.ParseDepartment(dept)
		if err != nil {
			return nil, err
		}
		p.deptRestricted[d] = true
		for _, name := range services {
			s, err := ecs.ParseService(name)
			if err != nil {
				return nil, err
			}
			p.deptServices[d][s] = true
		}
	}

	if err := p.compileRisk(cfg.Risk); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) compileRisk(cfg RiskConfig) error {
	w := cfg.SystemWeights
	if w.EUAIAct < 0 || w.GDPR < 0 || w.InternalPolicy < 0 {
		return invalid("system weights must not be negative")
	}
	p.systemWeights = [NumSystems]int{w.EUAIAct, w.GDPR, w.InternalPolicy}

	if len(cfg.SensitivityWeights) != ecs.NumSensitivities {
		return invalid("sensitivity_weights needs %d entries, got %d", ecs.NumSensitivities, len(cfg.SensitivityWeights))
	}
	for i, v := range cfg.SensitivityWeights {
		if v < 0 {
			return invalid("sensitivity weight %d is negative", i)
		}
		p.sensitivityWeights[i] = v
	}

	for name, v := range cfg.CategoryWeights {
		c, err := ecs.ParseCategory(name)
		if err != nil {
			return err
		}
		if v < 0 {
			return invalid("category weight %q is negative", name)
		}
		p.categoryWeights[c] = v
	}

	if cfg.FactorThreshold < 0 {
		return invalid("factor_threshold must not be negative")
	}
	p.factorThreshold = cfg.FactorThreshold

	if cfg.MediumAbove < 0 || cfg.HighAbove > MaxScore || cfg.MediumAbove >= cfg.HighAbove {
		return invalid("risk levels need 0 <= medium_above < high_above <= %d, got %d and %d",
			MaxScore, cfg.MediumAbove, cfg.HighAbove)
	}
	p.mediumAbove = uint8(cfg.MediumAbove)
	p.highAbove = uint8(cfg.HighAbove)
	return nil
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: "+format, append([]any{errors.ErrInvalidConfig}, args...)...),
		"Policy", "Compile", "validate risk")
}
