package bias

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// Outcome labels for recorded action results. A record without an
// explicit numeric outcome value maps POSITIVE to 1.0 and anything else
// to 0.0 during analysis.
const (
	OutcomePositive = "POSITIVE"
	OutcomeNegative = "NEGATIVE"
)

// MetricDisparateImpact is the metric type produced by disparate impact
// analysis.
const MetricDisparateImpact = "DISPARATE_IMPACT"

// Compliance event classification.
const (
	EventBiasDetected = "BIAS_DETECTED"

	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"

	RemediationPending    = "PENDING"
	RemediationInProgress = "IN_PROGRESS"
	RemediationResolved   = "RESOLVED"
)

// OutcomeRecord is one recorded action outcome with the demographic
// attributes it will be analyzed against.
type OutcomeRecord struct {
	AgentType    action.AgentType  `json:"agent_type"`
	ActionType   string            `json:"action_type"`
	Demographics map[string]string `json:"demographics"`
	Outcome      string            `json:"outcome"`

	// OutcomeValue is the numeric outcome when one exists. Nil means
	// derive from the Outcome label.
	OutcomeValue *float64 `json:"outcome_value,omitempty"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// value resolves the numeric outcome used in rate calculations.
func (r *OutcomeRecord) value() float64 {
	if r.OutcomeValue != nil {
		return *r.OutcomeValue
	}
	if r.Outcome == OutcomePositive {
		return 1.0
	}
	return 0.0
}

// Metric is one disparate impact measurement between a protected and a
// reference group.
type Metric struct {
	ID         string           `json:"metric_id"`
	MetricType string           `json:"metric_type"`
	Dimension  string           `json:"dimension"`
	AgentType  action.AgentType `json:"agent_type"`
	ActionType string           `json:"action_type"`

	ProtectedGroup string `json:"protected_group"`
	ReferenceGroup string `json:"reference_group"`
	ProtectedCount int    `json:"protected_count"`
	ReferenceCount int    `json:"reference_count"`

	// BaselineRate is the reference group's mean outcome; ObservedRate
	// the protected group's.
	BaselineRate float64 `json:"baseline_rate"`
	ObservedRate float64 `json:"observed_rate"`

	// DisparityRatio is ObservedRate / BaselineRate. A 0/0 comparison
	// yields 1.0; a nonzero observed rate over a zero baseline yields
	// +Inf.
	DisparityRatio    float64 `json:"disparity_ratio"`
	ThresholdExceeded bool    `json:"threshold_exceeded"`

	SampleSize int `json:"sample_size"`

	// CILower and CIUpper bound the ratio by a normal approximation
	// using the larger group standard deviation. A coarse heuristic,
	// reported as-is.
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`

	Timestamp time.Time `json:"timestamp"`
}

// ComplianceEvent tracks remediation of a detected bias violation.
// Remediation moves PENDING, IN_PROGRESS, RESOLVED.
type ComplianceEvent struct {
	ID                  string             `json:"event_id"`
	EventType           string             `json:"event_type"`
	Severity            string             `json:"severity"`
	Description         string             `json:"description"`
	AffectedAgents      []action.AgentType `json:"affected_agents"`
	RemediationRequired bool               `json:"remediation_required"`
	RemediationStatus   string             `json:"remediation_status"`
	AssignedTo          string             `json:"assigned_to,omitempty"`
	Timestamp           time.Time          `json:"timestamp"`
}

// EventFilter bounds a compliance event listing. Zero fields mean no
// constraint.
type EventFilter struct {
	Severity string
	Status   string
}

// Analysis is one pairwise comparison result inside a full analysis run.
type Analysis struct {
	Agent             action.AgentType `json:"agent"`
	Action            string           `json:"action"`
	Dimension         string           `json:"dimension"`
	ProtectedGroup    string           `json:"protected_group"`
	ReferenceGroup    string           `json:"reference_group"`
	DisparityRatio    float64          `json:"disparity_ratio"`
	ThresholdExceeded bool             `json:"threshold_exceeded"`
}

// Violation references a metric that exceeded the disparity threshold.
type Violation struct {
	MetricID  string           `json:"metric_id"`
	Agent     action.AgentType `json:"agent"`
	Action    string           `json:"action"`
	Dimension string           `json:"dimension"`
	Ratio     float64          `json:"ratio"`
}

// AnalysisResult is the outcome of a full bias analysis pass.
type AnalysisResult struct {
	Timestamp       time.Time  `json:"timestamp"`
	Threshold       float64    `json:"threshold"`
	Analyses        []Analysis `json:"analyses"`
	Violations      []Violation `json:"violations"`
	TotalAnalyses   int        `json:"total_analyses"`
	TotalViolations int        `json:"total_violations"`
}

// GroupStats summarizes one demographic group in an equity analysis.
type GroupStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Count  int     `json:"count"`
}

// WaitTimeEquity is the wait time analysis across groups of one
// dimension.
type WaitTimeEquity struct {
	Groups            map[string]GroupStats `json:"groups"`
	DisparityRatio    float64               `json:"disparity_ratio,omitempty"`
	ThresholdExceeded bool                  `json:"threshold_exceeded"`
}

// CommunicationStats summarizes communication volume for one group.
type CommunicationStats struct {
	TotalCommunications int     `json:"total_communications"`
	UniquePatients      int     `json:"unique_patients"`
	AvgPerPatient       float64 `json:"avg_per_patient"`
}

// Summary is the dashboard-facing snapshot of the monitor.
type Summary struct {
	TotalMetrics          int      `json:"total_metrics"`
	TotalComplianceEvents int      `json:"total_compliance_events"`
	PendingRemediations   int      `json:"pending_remediations"`
	Threshold             float64  `json:"threshold"`
	ActionRecordsCount    int      `json:"action_records_count"`
	MonitoredAgents       []string `json:"monitored_agents"`
}
