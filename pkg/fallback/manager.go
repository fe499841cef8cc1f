package fallback

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
)

// Manager evaluates actions for escalation and tracks escalation
// lifecycle. It keeps exactly one escalation per action id.
type Manager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	threshold   float64
	escalations map[string]*Escalation
	byAction    map[string]string
	callbacks   []Callback
}

// NewManager creates an escalation manager. Thresholds outside (0, 1]
// fall back to 0.85.
func NewManager(confidenceThreshold float64, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if confidenceThreshold <= 0 || confidenceThreshold > 1 {
		confidenceThreshold = 0.85
	}
	return &Manager{
		logger:      logger.With("component", "fallback"),
		threshold:   confidenceThreshold,
		escalations: make(map[string]*Escalation),
		byAction:    make(map[string]string),
	}
}

// RegisterCallback appends a notification callback. Callbacks run
// synchronously in registration order on every triggered escalation.
func (m *Manager) RegisterCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// ConfidenceThreshold returns the current escalation threshold.
func (m *Manager) ConfidenceThreshold() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.threshold
}

// UpdateConfidenceThreshold replaces the escalation threshold.
func (m *Manager) UpdateConfidenceThreshold(v float64) error {
	if v <= 0 || v > 1 {
		return &InvalidThresholdError{Value: v}
	}
	m.mu.Lock()
	old := m.threshold
	m.threshold = v
	m.mu.Unlock()

	m.logger.Info("Confidence threshold updated", "old", old, "new", v)
	return nil
}

// EvaluateAction reports whether an action should escalate before
// execution, with the trigger and a human-readable reason. Execution
// errors are evaluated by the caller after dispatch, not here.
func (m *Manager) EvaluateAction(a *action.Action) (bool, Trigger, string) {
	if reason, ok := safetyConcern(a.Parameters); ok {
		return true, TriggerSafetyConcern, reason
	}

	m.mu.RLock()
	threshold := m.threshold
	m.mu.RUnlock()

	if a.Confidence < threshold {
		reason := fmt.Sprintf("confidence %.2f below threshold %.2f", a.Confidence, threshold)
		return true, TriggerLowConfidence, reason
	}
	return false, "", ""
}

// safetyConcern inspects the explicit marker parameter. A true bool
// qualifies; a non-empty string qualifies and supplies the reason.
func safetyConcern(params map[string]any) (string, bool) {
	v, ok := params[SafetyConcernKey]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case bool:
		if val {
			return "safety concern flagged on action", true
		}
	case string:
		if val != "" {
			return val, true
		}
	}
	return "", false
}

// TriggerEscalation creates the escalation record for an action and
// invokes registered callbacks. At most one escalation exists per action
// id; a repeat trigger returns the existing record without re-notifying.
// The record is durable before any callback runs, and callback failures
// are logged, never propagated.
func (m *Manager) TriggerEscalation(a *action.Action, trigger Trigger, reason string) (*Escalation, error) {
	m.mu.Lock()
	if existing, ok := m.byAction[a.ID]; ok {
		esc := *m.escalations[existing]
		m.mu.Unlock()
		return &esc, nil
	}

	esc := &Escalation{
		ID:         uuid.NewString(),
		ActionID:   a.ID,
		AgentType:  a.AgentType,
		ActionType: a.ActionType,
		SubjectID:  a.SubjectID,
		Trigger:    trigger,
		Reason:     reason,
		Confidence: a.Confidence,
		RiskLevel:  a.RiskLevel,
		CreatedAt:  time.Now().UTC(),
	}
	m.escalations[esc.ID] = esc
	m.byAction[a.ID] = esc.ID
	callbacks := append([]Callback(nil), m.callbacks...)
	snapshot := *esc
	m.mu.Unlock()

	m.logger.Warn("Escalation triggered",
		"escalation_id", snapshot.ID,
		"action_id", snapshot.ActionID,
		"trigger", string(trigger),
		"reason", reason,
	)

	for i, cb := range callbacks {
		m.invokeCallback(i, cb, snapshot)
	}
	return &snapshot, nil
}

// invokeCallback runs one callback with panic isolation.
func (m *Manager) invokeCallback(index int, cb Callback, esc Escalation) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Escalation callback panicked",
				"escalation_id", esc.ID,
				"callback_index", index,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := cb(esc); err != nil {
		m.logger.Error("Escalation callback failed",
			"escalation_id", esc.ID,
			"callback_index", index,
			"error", err,
		)
	}
}

// GetEscalation returns an escalation by id.
func (m *Manager) GetEscalation(id string) (*Escalation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	esc, ok := m.escalations[id]
	if !ok {
		return nil, &EscalationNotFoundError{ID: id}
	}
	c := *esc
	return &c, nil
}

// EscalationForAction returns the escalation raised for an action id, if
// any.
func (m *Manager) EscalationForAction(actionID string) (*Escalation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byAction[actionID]
	if !ok {
		return nil, false
	}
	c := *m.escalations[id]
	return &c, true
}

// ResolveEscalation marks an escalation resolved exactly once. Resolved
// escalations leave the pending set and cannot be reopened.
func (m *Manager) ResolveEscalation(id, by, resolutionAction string) error {
	m.mu.Lock()
	esc, ok := m.escalations[id]
	if !ok {
		m.mu.Unlock()
		return &EscalationNotFoundError{ID: id}
	}
	if esc.Resolved {
		m.mu.Unlock()
		return ErrEscalationResolved
	}
	esc.Resolved = true
	esc.ResolvedBy = by
	esc.ResolutionAction = resolutionAction
	esc.ResolvedAt = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Info("Escalation resolved",
		"escalation_id", id,
		"resolved_by", by,
		"resolution_action", resolutionAction,
	)
	return nil
}

// PendingEscalations returns unresolved escalations, newest first.
func (m *Manager) PendingEscalations() []Escalation {
	m.mu.RLock()
	var out []Escalation
	for _, esc := range m.escalations {
		if !esc.Resolved {
			out = append(out, *esc)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Statistics summarizes the escalation workload.
func (m *Manager) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		Total:     len(m.escalations),
		ByTrigger: make(map[string]int),
	}
	for _, esc := range m.escalations {
		stats.ByTrigger[string(esc.Trigger)]++
		if !esc.Resolved {
			stats.Pending++
		}
	}
	return stats
}
