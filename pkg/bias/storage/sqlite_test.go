package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/bias"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bias.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_OutcomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	value := 0.5
	rec := &bias.OutcomeRecord{
		AgentType:    action.AgentIntake,
		ActionType:   "register_patient",
		Demographics: map[string]string{"language": "spanish"},
		Outcome:      bias.OutcomeNegative,
		OutcomeValue: &value,
		Metadata:     map[string]any{"source": "test"},
		Timestamp:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.AppendOutcome(ctx, rec); err != nil {
		t.Fatalf("AppendOutcome failed: %v", err)
	}
	if err := s.AppendOutcome(ctx, &bias.OutcomeRecord{
		AgentType:  action.AgentBilling,
		ActionType: "submit_claim",
		Outcome:    bias.OutcomePositive,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AppendOutcome failed: %v", err)
	}

	out, err := s.LoadOutcomes(ctx)
	if err != nil {
		t.Fatalf("LoadOutcomes failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	first := out[0]
	if first.AgentType != action.AgentIntake || first.Demographics["language"] != "spanish" {
		t.Errorf("first record corrupted: %+v", first)
	}
	if first.OutcomeValue == nil || *first.OutcomeValue != 0.5 {
		t.Errorf("OutcomeValue lost: %+v", first.OutcomeValue)
	}
	if out[1].OutcomeValue != nil {
		t.Error("absent outcome value should stay nil")
	}
}

func TestSQLiteStore_ComplianceEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	event := &bias.ComplianceEvent{
		ID:                  "event-1",
		EventType:           bias.EventBiasDetected,
		Severity:            bias.SeverityWarning,
		Description:         "disparate impact detected",
		AffectedAgents:      []action.AgentType{action.AgentIntake},
		RemediationRequired: true,
		RemediationStatus:   bias.RemediationPending,
		Timestamp:           time.Now().UTC(),
	}
	if err := s.SaveComplianceEvent(ctx, event); err != nil {
		t.Fatalf("SaveComplianceEvent failed: %v", err)
	}

	if err := s.UpdateComplianceEvent(ctx, "event-1", bias.RemediationInProgress, "officer"); err != nil {
		t.Fatalf("UpdateComplianceEvent failed: %v", err)
	}

	err := s.UpdateComplianceEvent(ctx, "missing", bias.RemediationResolved, "")
	if !errors.Is(err, bias.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestSQLiteStore_SaveMetric(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := &bias.Metric{
		ID:                "metric-1",
		MetricType:        bias.MetricDisparateImpact,
		Dimension:         "language",
		AgentType:         action.AgentIntake,
		ActionType:        "register_patient",
		ProtectedGroup:    "spanish",
		ReferenceGroup:    "english",
		ProtectedCount:    6,
		ReferenceCount:    6,
		BaselineRate:      0.9,
		ObservedRate:      0.5,
		DisparityRatio:    0.5 / 0.9,
		ThresholdExceeded: true,
		SampleSize:        12,
		Timestamp:         time.Now().UTC(),
	}
	if err := s.SaveMetric(ctx, m); err != nil {
		t.Fatalf("SaveMetric failed: %v", err)
	}
	// Metric ids are unique.
	if err := s.SaveMetric(ctx, m); err == nil {
		t.Error("duplicate metric id should be rejected")
	}
}
