package riskgate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"caretrust-hq/minerva/pkg/action"
)

// RulesFile is the on-disk format for governance rule overrides.
type RulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule override as written in YAML. Enabled defaults to
// true when omitted.
type RuleSpec struct {
	Name                string           `yaml:"name"`
	Description         string           `yaml:"description"`
	RiskLevel           action.RiskLevel `yaml:"risk_level"`
	ConfidenceThreshold float64          `yaml:"confidence_threshold"`
	RequiresApproval    bool             `yaml:"requires_approval"`
	RequiredApprovers   int              `yaml:"required_approvers"`
	AutoEscalate        bool             `yaml:"auto_escalate"`
	Enabled             *bool            `yaml:"enabled"`
}

// LoadRulesFile parses a YAML rules file.
func LoadRulesFile(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}

	for i, spec := range rf.Rules {
		if spec.Name == "" {
			return nil, fmt.Errorf("rules[%d]: name is required", i)
		}
		if !spec.RiskLevel.Valid() {
			return nil, fmt.Errorf("rules[%d] (%s): invalid risk level %q", i, spec.Name, spec.RiskLevel)
		}
		if spec.ConfidenceThreshold < 0 || spec.ConfidenceThreshold > 1 {
			return nil, fmt.Errorf("rules[%d] (%s): confidence threshold must be in [0, 1]", i, spec.Name)
		}
	}
	return &rf, nil
}

// ApplyRulesFile loads rule overrides from a YAML file and registers each
// one. Overrides for a risk level replace the enabled rule for that level.
func (m *Manager) ApplyRulesFile(path string) error {
	rf, err := LoadRulesFile(path)
	if err != nil {
		return err
	}

	for _, spec := range rf.Rules {
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}
		if _, err := m.AddRule(GovernanceRule{
			Name:                spec.Name,
			Description:         spec.Description,
			RiskLevel:           spec.RiskLevel,
			ConfidenceThreshold: spec.ConfidenceThreshold,
			RequiresApproval:    spec.RequiresApproval,
			RequiredApprovers:   spec.RequiredApprovers,
			AutoEscalate:        spec.AutoEscalate,
			Enabled:             enabled,
		}); err != nil {
			return fmt.Errorf("failed to apply rule %q: %w", spec.Name, err)
		}
	}

	m.logger.Info("Applied rules file", "path", path, "rules", len(rf.Rules))
	return nil
}
