package riskgate

import "caretrust-hq/minerva/pkg/action"

// Risk classification sets. Membership is tested highest tier first, so
// an action type present in more than one set resolves to the highest.
var (
	criticalActions = map[string]struct{}{
		"critical_biomarker_alert":   {},
		"emergency_escalation":       {},
		"life_threatening_condition": {},
		"code_blue_activation":       {},
	}

	highRiskActions = map[string]struct{}{
		"medication_change":       {},
		"treatment_modification":  {},
		"discharge_decision":      {},
		"emergency_intervention":  {},
		"biomarker_alert":         {},
		"adverse_event_report":    {},
	}

	mediumRiskActions = map[string]struct{}{
		"care_plan_update":      {},
		"documentation_update":  {},
		"assessment_completion": {},
		"referral_creation":     {},
		"order_entry":           {},
	}
)

// ClassifyRisk classifies an action's risk level from its action type.
// Unrecognized types default to LOW.
func ClassifyRisk(a *action.Action) action.RiskLevel {
	if _, ok := criticalActions[a.ActionType]; ok {
		return action.RiskCritical
	}
	if _, ok := highRiskActions[a.ActionType]; ok {
		return action.RiskHigh
	}
	if _, ok := mediumRiskActions[a.ActionType]; ok {
		return action.RiskMedium
	}
	return action.RiskLow
}
