package action

import (
	"testing"
)

// TestNew_Defaults verifies that a freshly created action has sane defaults.
func TestNew_Defaults(t *testing.T) {
	a := New(AgentIntake, "register_patient")

	if a.ID == "" {
		t.Error("expected non-empty ID")
	}
	if a.Status != StatusPending {
		t.Errorf("expected status PENDING, got %s", a.Status)
	}
	if a.RiskLevel != RiskLow {
		t.Errorf("expected default risk LOW, got %s", a.RiskLevel)
	}
	if a.Confidence != 1.0 {
		t.Errorf("expected default confidence 1.0, got %v", a.Confidence)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

// TestNew_Options verifies option application.
func TestNew_Options(t *testing.T) {
	params := map[string]any{"dose_mg": 50}
	a := New(AgentMedication, "medication_change",
		WithParameters(params),
		WithSubject("patient-1"),
		WithConfidence(0.92),
		WithRationale("dose adjustment per protocol"),
	)

	if a.SubjectID != "patient-1" {
		t.Errorf("expected subject patient-1, got %s", a.SubjectID)
	}
	if a.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %v", a.Confidence)
	}
	if a.Parameters["dose_mg"] != 50 {
		t.Errorf("expected parameter dose_mg=50, got %v", a.Parameters["dose_mg"])
	}
}

// TestAction_Validate covers the validation rules.
func TestAction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Action)
		wantErr bool
	}{
		{"valid", func(a *Action) {}, false},
		{"missing id", func(a *Action) { a.ID = "" }, true},
		{"missing action type", func(a *Action) { a.ActionType = "" }, true},
		{"unknown agent type", func(a *Action) { a.AgentType = "MYSTERY" }, true},
		{"confidence too high", func(a *Action) { a.Confidence = 1.5 }, true},
		{"confidence negative", func(a *Action) { a.Confidence = -0.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(AgentScheduling, "schedule_appointment")
			tt.mutate(a)
			err := a.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseAgentType verifies agent type parsing.
func TestParseAgentType(t *testing.T) {
	if _, err := ParseAgentType("MEDICATION"); err != nil {
		t.Errorf("expected MEDICATION to parse, got %v", err)
	}
	if _, err := ParseAgentType("NOT_AN_AGENT"); err == nil {
		t.Error("expected error for unknown agent type")
	}
}

// TestRiskLevel_Valid verifies the tier membership check.
func TestRiskLevel_Valid(t *testing.T) {
	for _, r := range RiskLevels() {
		if !r.Valid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if RiskLevel("EXTREME").Valid() {
		t.Error("expected EXTREME to be invalid")
	}
}
