package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

var _ audit.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite audit store. It initializes the
// schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, &audit.StorageError{Op: "open", Err: err}
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return &audit.StorageError{Op: "enable_wal", Err: err}
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return &audit.StorageError{Op: "set_busy_timeout", Err: err}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return &audit.StorageError{Op: "create_schema", Err: err}
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return &audit.StorageError{Op: "insert_schema_version", Err: err}
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return &audit.StorageError{Op: "get_schema_version", Err: err}
	}
	if version != SchemaVersion {
		return &audit.StorageError{Op: "schema_version_mismatch",
			Err: fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version)}
	}

	return nil
}

// AppendEntry inserts a new audit entry. Row and index updates commit
// together, so the entry appears in its indices exactly when it appears
// at all.
func (s *SQLiteStore) AppendEntry(ctx context.Context, e *audit.Entry) error {
	params, _ := json.Marshal(e.Parameters)
	apiCalls, _ := json.Marshal(e.APICalls)
	mods, _ := json.Marshal(e.Modifications)

	query := `
		INSERT INTO audit_entries (
			id, agent_id, agent_type, action_type, action_id, patient_id,
			parameters, rationale, confidence, risk_level, status,
			session_id, user_id, ip_address, outcome, api_calls,
			modifications, human_override, override_by, override_reason, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.AgentID, string(e.AgentType), e.ActionType, e.ActionID, nullable(e.PatientID),
		string(params), e.Rationale, e.Confidence, string(e.RiskLevel), string(e.Status),
		nullable(e.SessionID), nullable(e.UserID), nullable(e.IPAddress), nullable(e.Outcome), string(apiCalls),
		string(mods), e.HumanOverride, nullable(e.OverrideBy), nullable(e.OverrideReason), e.Timestamp,
	)
	if err != nil {
		return &audit.StorageError{Op: "append_entry", Err: err}
	}
	return nil
}

// GetEntry returns the entry with the given id.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*audit.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, &audit.EntryNotFoundError{ID: id}
	}
	if err != nil {
		return nil, &audit.StorageError{Op: "get_entry", Err: err}
	}
	return e, nil
}

// EntryByAction returns the entry recorded for an action id.
func (s *SQLiteStore) EntryByAction(ctx context.Context, actionID string) (*audit.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE action_id = ? ORDER BY timestamp DESC LIMIT 1`, actionID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, &audit.EntryNotFoundError{ID: actionID}
	}
	if err != nil {
		return nil, &audit.StorageError{Op: "entry_by_action", Err: err}
	}
	return e, nil
}

// UpdateOutcome sets outcome and status and appends modifications to an
// existing entry.
func (s *SQLiteStore) UpdateOutcome(ctx context.Context, id, outcome string, status action.Status, mods []audit.Modification) error {
	return s.mutateEntry(ctx, id, "update_outcome", func(e *audit.Entry) {
		e.Outcome = outcome
		e.Status = status
		e.Modifications = append(e.Modifications, mods...)
	})
}

// RecordOverride marks an entry human-overridden.
func (s *SQLiteStore) RecordOverride(ctx context.Context, id, by, reason string) error {
	return s.mutateEntry(ctx, id, "record_override", func(e *audit.Entry) {
		e.HumanOverride = true
		e.OverrideBy = by
		e.OverrideReason = reason
		e.Modifications = append(e.Modifications, audit.Modification{
			Type:      "HUMAN_OVERRIDE",
			By:        by,
			Reason:    reason,
			Timestamp: time.Now().UTC(),
		})
	})
}

// AppendAPICall attaches an external-call sub-record to an entry.
func (s *SQLiteStore) AppendAPICall(ctx context.Context, id string, call audit.APICall) error {
	return s.mutateEntry(ctx, id, "append_api_call", func(e *audit.Entry) {
		e.APICalls = append(e.APICalls, call)
	})
}

// mutateEntry applies a read-modify-write to one entry inside a
// transaction, preserving the not-found semantics of the Store contract.
func (s *SQLiteStore) mutateEntry(ctx context.Context, id, op string, mutate func(*audit.Entry)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &audit.StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return &audit.EntryNotFoundError{ID: id}
	}
	if err != nil {
		return &audit.StorageError{Op: op, Err: err}
	}

	mutate(e)

	apiCalls, _ := json.Marshal(e.APICalls)
	mods, _ := json.Marshal(e.Modifications)
	_, err = tx.ExecContext(ctx, `
		UPDATE audit_entries SET
			outcome = ?, status = ?, api_calls = ?, modifications = ?,
			human_override = ?, override_by = ?, override_reason = ?
		WHERE id = ?`,
		nullable(e.Outcome), string(e.Status), string(apiCalls), string(mods),
		e.HumanOverride, nullable(e.OverrideBy), nullable(e.OverrideReason), id,
	)
	if err != nil {
		return &audit.StorageError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &audit.StorageError{Op: op, Err: err}
	}
	return nil
}

// EntriesByPatient returns a patient's entries, newest first.
func (s *SQLiteStore) EntriesByPatient(ctx context.Context, patientID string) ([]audit.Entry, error) {
	return s.queryEntries(ctx, selectEntry+` WHERE patient_id = ? ORDER BY timestamp DESC`, patientID)
}

// EntriesByAgent returns an agent type's entries, newest first.
func (s *SQLiteStore) EntriesByAgent(ctx context.Context, agentType action.AgentType) ([]audit.Entry, error) {
	return s.queryEntries(ctx, selectEntry+` WHERE agent_type = ? ORDER BY timestamp DESC`, string(agentType))
}

// EntriesBySession returns a session's entries in chronological order.
func (s *SQLiteStore) EntriesBySession(ctx context.Context, sessionID string) ([]audit.Entry, error) {
	return s.queryEntries(ctx, selectEntry+` WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
}

// ListEntries returns filtered entries in ascending timestamp order.
func (s *SQLiteStore) ListEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	query := selectEntry + ` WHERE 1=1`
	var args []any
	if !f.Start.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, f.End)
	}
	if f.PatientID != "" {
		query += ` AND patient_id = ?`
		args = append(args, f.PatientID)
	}
	if f.AgentType != "" {
		query += ` AND agent_type = ?`
		args = append(args, string(f.AgentType))
	}
	query += ` ORDER BY timestamp ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryEntries(ctx, query, args...)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &audit.StorageError{Op: "query_entries", Err: err}
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, &audit.StorageError{Op: "scan_entry", Err: err}
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, &audit.StorageError{Op: "query_entries", Err: err}
	}
	return out, nil
}

// AppendAccessLog stores a PHI access record.
func (s *SQLiteStore) AppendAccessLog(ctx context.Context, l *audit.AccessLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_logs (
			id, user_id, user_role, patient_id, resource_type, action,
			success, reason, ip_address, session_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.UserRole, l.PatientID, l.ResourceType, l.Action,
		l.Success, nullable(l.Reason), nullable(l.IPAddress), nullable(l.SessionID), l.Timestamp,
	)
	if err != nil {
		return &audit.StorageError{Op: "append_access_log", Err: err}
	}
	return nil
}

// AccessLogsByPatient returns a patient's access records, newest first.
func (s *SQLiteStore) AccessLogsByPatient(ctx context.Context, patientID string) ([]audit.AccessLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_role, patient_id, resource_type, action,
			success, reason, ip_address, session_id, timestamp
		FROM access_logs WHERE patient_id = ? ORDER BY timestamp DESC`, patientID)
	if err != nil {
		return nil, &audit.StorageError{Op: "access_logs_by_patient", Err: err}
	}
	defer rows.Close()

	var out []audit.AccessLog
	for rows.Next() {
		var l audit.AccessLog
		var reason, ip, session sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &l.UserRole, &l.PatientID, &l.ResourceType,
			&l.Action, &l.Success, &reason, &ip, &session, &l.Timestamp); err != nil {
			return nil, &audit.StorageError{Op: "scan_access_log", Err: err}
		}
		l.Reason = reason.String
		l.IPAddress = ip.String
		l.SessionID = session.String
		out = append(out, l)
	}
	return out, rows.Err()
}

// AppendEscalation stores an escalation record.
func (s *SQLiteStore) AppendEscalation(ctx context.Context, l *audit.EscalationLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO escalation_logs (
			id, source_agent, action_id, reason, confidence, risk_level,
			assigned_to, resolved, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		l.ID, string(l.SourceAgent), l.ActionID, l.Reason, l.Confidence,
		string(l.RiskLevel), nullable(l.AssignedTo), l.Timestamp,
	)
	if err != nil {
		return &audit.StorageError{Op: "append_escalation", Err: err}
	}
	return nil
}

// ResolveEscalation marks an escalation resolved exactly once. The
// resolved guard in the UPDATE keeps a resolved escalation immutable.
func (s *SQLiteStore) ResolveEscalation(ctx context.Context, id, by, resolutionAction string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE escalation_logs
		SET resolved = 1, resolved_by = ?, resolution_action = ?, resolved_at = ?
		WHERE id = ? AND resolved = 0`,
		by, resolutionAction, time.Now().UTC(), id,
	)
	if err != nil {
		return &audit.StorageError{Op: "resolve_escalation", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &audit.StorageError{Op: "resolve_escalation", Err: err}
	}
	if n == 0 {
		var resolved bool
		err := s.db.QueryRowContext(ctx, `SELECT resolved FROM escalation_logs WHERE id = ?`, id).Scan(&resolved)
		if err == sql.ErrNoRows {
			return &audit.EscalationNotFoundError{ID: id}
		}
		if err != nil {
			return &audit.StorageError{Op: "resolve_escalation", Err: err}
		}
		return audit.ErrEscalationResolved
	}
	return nil
}

// PendingEscalations returns all unresolved escalations, newest first.
func (s *SQLiteStore) PendingEscalations(ctx context.Context) ([]audit.EscalationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_agent, action_id, reason, confidence, risk_level,
			assigned_to, resolved, resolved_by, resolution_action, resolved_at, timestamp
		FROM escalation_logs WHERE resolved = 0 ORDER BY timestamp DESC`)
	if err != nil {
		return nil, &audit.StorageError{Op: "pending_escalations", Err: err}
	}
	defer rows.Close()

	var out []audit.EscalationLog
	for rows.Next() {
		var l audit.EscalationLog
		var assignedTo, resolvedBy, resolutionAction sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.SourceAgent, &l.ActionID, &l.Reason, &l.Confidence,
			&l.RiskLevel, &assignedTo, &l.Resolved, &resolvedBy, &resolutionAction,
			&resolvedAt, &l.Timestamp); err != nil {
			return nil, &audit.StorageError{Op: "scan_escalation", Err: err}
		}
		l.AssignedTo = assignedTo.String
		l.ResolvedBy = resolvedBy.String
		l.ResolutionAction = resolutionAction.String
		l.ResolvedAt = resolvedAt.Time
		out = append(out, l)
	}
	return out, rows.Err()
}

// Statistics derives trail-wide counts with aggregate queries.
func (s *SQLiteStore) Statistics(ctx context.Context) (*audit.Statistics, error) {
	stats := &audit.Statistics{
		ByAgentType: make(map[string]int),
		ByRiskLevel: make(map[string]int),
		ByStatus:    make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_type, risk_level, status, human_override, api_calls
		FROM audit_entries`)
	if err != nil {
		return nil, &audit.StorageError{Op: "statistics", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var agentType, riskLevel, status, apiCalls string
		var override bool
		if err := rows.Scan(&agentType, &riskLevel, &status, &override, &apiCalls); err != nil {
			return nil, &audit.StorageError{Op: "statistics", Err: err}
		}
		stats.TotalEntries++
		stats.ByAgentType[agentType]++
		stats.ByRiskLevel[riskLevel]++
		stats.ByStatus[status]++
		if override {
			stats.HumanOverrides++
		}
		var calls []audit.APICall
		if json.Unmarshal([]byte(apiCalls), &calls) == nil {
			stats.TotalAPICalls += len(calls)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &audit.StorageError{Op: "statistics", Err: err}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_logs`).Scan(&stats.TotalAccessLogs); err != nil {
		return nil, &audit.StorageError{Op: "statistics", Err: err}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM escalation_logs`).Scan(&stats.TotalEscalations); err != nil {
		return nil, &audit.StorageError{Op: "statistics", Err: err}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM escalation_logs WHERE resolved = 0`).Scan(&stats.PendingEscalations); err != nil {
		return nil, &audit.StorageError{Op: "statistics", Err: err}
	}

	return stats, nil
}

// PruneBefore deletes records older than the cutoff. Unresolved
// escalations are kept regardless of age.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &audit.StorageError{Op: "prune", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM audit_entries WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, &audit.StorageError{Op: "prune", Err: err}
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM access_logs WHERE timestamp < ?`, cutoff); err != nil {
		return 0, &audit.StorageError{Op: "prune", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM escalation_logs WHERE resolved = 1 AND timestamp < ?`, cutoff); err != nil {
		return 0, &audit.StorageError{Op: "prune", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &audit.StorageError{Op: "prune", Err: err}
	}
	return removed, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectEntry = `
	SELECT id, agent_id, agent_type, action_type, action_id, patient_id,
		parameters, rationale, confidence, risk_level, status,
		session_id, user_id, ip_address, outcome, api_calls,
		modifications, human_override, override_by, override_reason, timestamp
	FROM audit_entries`

// rowScanner abstracts sql.Row and sql.Rows for scanEntry.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var e audit.Entry
	var patientID, sessionID, userID, ipAddress, outcome, overrideBy, overrideReason sql.NullString
	var params, apiCalls, mods string

	err := row.Scan(&e.ID, &e.AgentID, &e.AgentType, &e.ActionType, &e.ActionID, &patientID,
		&params, &e.Rationale, &e.Confidence, &e.RiskLevel, &e.Status,
		&sessionID, &userID, &ipAddress, &outcome, &apiCalls,
		&mods, &e.HumanOverride, &overrideBy, &overrideReason, &e.Timestamp)
	if err != nil {
		return nil, err
	}

	e.PatientID = patientID.String
	e.SessionID = sessionID.String
	e.UserID = userID.String
	e.IPAddress = ipAddress.String
	e.Outcome = outcome.String
	e.OverrideBy = overrideBy.String
	e.OverrideReason = overrideReason.String

	json.Unmarshal([]byte(params), &e.Parameters)
	json.Unmarshal([]byte(apiCalls), &e.APICalls)
	json.Unmarshal([]byte(mods), &e.Modifications)

	return &e, nil
}

// nullable converts an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
