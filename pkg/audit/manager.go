package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
)

// ManagerConfig tunes export behavior.
type ManagerConfig struct {
	// MaxExportSize caps entries returned by ExportReport.
	// Default: 1000000
	MaxExportSize int
}

// Manager is the audit trail front-end. It builds records, delegates
// persistence to a Store, and logs each write.
type Manager struct {
	store  Store
	logger *slog.Logger
	config ManagerConfig
}

// NewManager creates an audit manager over the given store.
func NewManager(store Store, config ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxExportSize <= 0 {
		config.MaxExportSize = 1000000
	}
	return &Manager{
		store:  store,
		logger: logger.With("component", "audit"),
		config: config,
	}
}

// ActionContext carries the request identity attached to an action's
// audit entry.
type ActionContext struct {
	SessionID string
	UserID    string
	IPAddress string
}

// LogAction writes the audit entry for a governed action and returns it.
// Exactly one entry exists per action id; callers create it once per
// pipeline pass and amend it through UpdateOutcome afterwards.
func (m *Manager) LogAction(ctx context.Context, a *action.Action, actx ActionContext) (*Entry, error) {
	shortID := a.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	e := &Entry{
		ID:         uuid.NewString(),
		AgentID:    fmt.Sprintf("%s_%s", a.AgentType, shortID),
		AgentType:  a.AgentType,
		ActionType: a.ActionType,
		ActionID:   a.ID,
		PatientID:  a.SubjectID,
		Parameters: a.Parameters,
		Rationale:  a.Rationale,
		Confidence: a.Confidence,
		RiskLevel:  a.RiskLevel,
		Status:     a.Status,
		SessionID:  actx.SessionID,
		UserID:     actx.UserID,
		IPAddress:  actx.IPAddress,
		Timestamp:  time.Now().UTC(),
	}

	if err := m.store.AppendEntry(ctx, e); err != nil {
		return nil, err
	}

	m.logger.Info("Audit entry created",
		"log_id", e.ID,
		"action_id", a.ID,
		"action_type", a.ActionType,
		"agent_type", string(a.AgentType),
		"status", string(a.Status),
	)
	return e, nil
}

// LogAccess records one PHI access attempt, successful or denied.
func (m *Manager) LogAccess(ctx context.Context, l AccessLog) (*AccessLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}

	if err := m.store.AppendAccessLog(ctx, &l); err != nil {
		return nil, err
	}

	m.logger.Info("Access logged",
		"access_id", l.ID,
		"user_id", l.UserID,
		"user_role", l.UserRole,
		"action", l.Action,
		"resource_type", l.ResourceType,
		"success", l.Success,
	)
	return &l, nil
}

// LogEscalation records one escalation event.
func (m *Manager) LogEscalation(ctx context.Context, l EscalationLog) (*EscalationLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}

	if err := m.store.AppendEscalation(ctx, &l); err != nil {
		return nil, err
	}

	m.logger.Warn("Escalation logged",
		"escalation_id", l.ID,
		"source_agent", string(l.SourceAgent),
		"action_id", l.ActionID,
		"reason", l.Reason,
	)
	return &l, nil
}

// LogAPICall attaches an external service call sub-record to an entry.
// The call id is generated when absent.
func (m *Manager) LogAPICall(ctx context.Context, logID string, call APICall) (string, error) {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now().UTC()
	}

	if err := m.store.AppendAPICall(ctx, logID, call); err != nil {
		return "", err
	}

	m.logger.Debug("API call logged",
		"log_id", logID,
		"service", call.ServiceName,
		"endpoint", call.Endpoint,
		"status_code", call.StatusCode,
	)
	return call.ID, nil
}

// UpdateOutcome amends an entry with the handler result. A missing entry
// id returns EntryNotFoundError and never creates an entry.
func (m *Manager) UpdateOutcome(ctx context.Context, logID, outcome string, status action.Status, mods []Modification) error {
	if err := m.store.UpdateOutcome(ctx, logID, outcome, status, mods); err != nil {
		m.logger.Error("Audit outcome update failed", "log_id", logID, "error", err)
		return err
	}
	m.logger.Info("Audit entry updated", "log_id", logID, "status", string(status))
	return nil
}

// RecordOverride marks an entry as human-overridden.
func (m *Manager) RecordOverride(ctx context.Context, logID, by, reason string) error {
	if err := m.store.RecordOverride(ctx, logID, by, reason); err != nil {
		m.logger.Error("Override record failed", "log_id", logID, "error", err)
		return err
	}
	m.logger.Info("Human override recorded", "log_id", logID, "by", by)
	return nil
}

// ResolveEscalation marks an escalation resolved. Resolved escalations
// cannot be reopened.
func (m *Manager) ResolveEscalation(ctx context.Context, escalationID, by, resolutionAction string) error {
	if err := m.store.ResolveEscalation(ctx, escalationID, by, resolutionAction); err != nil {
		m.logger.Error("Escalation resolution failed", "escalation_id", escalationID, "error", err)
		return err
	}
	m.logger.Info("Escalation resolved", "escalation_id", escalationID, "by", by)
	return nil
}

// GetEntry returns an audit entry by id.
func (m *Manager) GetEntry(ctx context.Context, logID string) (*Entry, error) {
	return m.store.GetEntry(ctx, logID)
}

// EntryForAction returns the entry recorded for an action id.
func (m *Manager) EntryForAction(ctx context.Context, actionID string) (*Entry, error) {
	return m.store.EntryByAction(ctx, actionID)
}

// PatientTrail returns all entries for a patient, newest first.
func (m *Manager) PatientTrail(ctx context.Context, patientID string) ([]Entry, error) {
	return m.store.EntriesByPatient(ctx, patientID)
}

// AgentTrail returns all entries for an agent type, newest first.
func (m *Manager) AgentTrail(ctx context.Context, agentType action.AgentType) ([]Entry, error) {
	return m.store.EntriesByAgent(ctx, agentType)
}

// SessionTrail returns all entries for a session in chronological order.
func (m *Manager) SessionTrail(ctx context.Context, sessionID string) ([]Entry, error) {
	return m.store.EntriesBySession(ctx, sessionID)
}

// AccessLogsForPatient returns a patient's access records, newest first.
func (m *Manager) AccessLogsForPatient(ctx context.Context, patientID string) ([]AccessLog, error) {
	return m.store.AccessLogsByPatient(ctx, patientID)
}

// PendingEscalations returns all unresolved escalations.
func (m *Manager) PendingEscalations(ctx context.Context) ([]EscalationLog, error) {
	return m.store.PendingEscalations(ctx)
}

// ExportReport returns entries matching the filter in ascending timestamp
// order, bounded by the configured export ceiling.
func (m *Manager) ExportReport(ctx context.Context, f Filter) (*Report, error) {
	limit := m.config.MaxExportSize
	if f.Limit > 0 && f.Limit < limit {
		limit = f.Limit
	}

	// Fetch one past the limit to detect truncation.
	probe := f
	probe.Limit = limit + 1
	entries, err := m.store.ListEntries(ctx, probe)
	if err != nil {
		return nil, err
	}

	truncated := false
	if len(entries) > limit {
		entries = entries[:limit]
		truncated = true
	}

	return &Report{
		GeneratedAt:  time.Now().UTC(),
		TotalEntries: len(entries),
		Filter:       f,
		Entries:      entries,
		Truncated:    truncated,
	}, nil
}

// Statistics returns trail-wide counts derived in one pass.
func (m *Manager) Statistics(ctx context.Context) (*Statistics, error) {
	return m.store.Statistics(ctx)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
