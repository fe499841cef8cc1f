// Package storage provides the SQLite persistence backend for bias
// monitoring records.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/bias"
)

const schema = `
CREATE TABLE IF NOT EXISTS bias_outcomes (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_type TEXT NOT NULL,
	action_type TEXT NOT NULL,
	demographics TEXT,
	outcome TEXT NOT NULL,
	outcome_value REAL,
	metadata TEXT,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bias_outcomes_key ON bias_outcomes(agent_type, action_type);

CREATE TABLE IF NOT EXISTS bias_metrics (
	id TEXT PRIMARY KEY,
	metric_type TEXT NOT NULL,
	dimension TEXT NOT NULL,
	agent_type TEXT NOT NULL,
	action_type TEXT NOT NULL,
	protected_group TEXT NOT NULL,
	reference_group TEXT NOT NULL,
	protected_count INTEGER NOT NULL,
	reference_count INTEGER NOT NULL,
	baseline_rate REAL NOT NULL,
	observed_rate REAL NOT NULL,
	disparity_ratio REAL NOT NULL,
	threshold_exceeded INTEGER NOT NULL,
	sample_size INTEGER NOT NULL,
	ci_lower REAL NOT NULL,
	ci_upper REAL NOT NULL,
	timestamp DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS compliance_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	severity TEXT NOT NULL,
	description TEXT NOT NULL,
	affected_agents TEXT,
	remediation_required INTEGER NOT NULL,
	remediation_status TEXT NOT NULL,
	assigned_to TEXT,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compliance_status ON compliance_events(remediation_status);
`

// SQLiteStore persists bias records in a SQLite database via the pure
// Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the bias database at the
// given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bias database: %w", err)
	}
	// The pure Go driver serializes writes; one writer connection
	// avoids SQLITE_BUSY churn under concurrent recording.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bias schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

var _ bias.Store = (*SQLiteStore)(nil)

// AppendOutcome persists one recorded action outcome.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, rec *bias.OutcomeRecord) error {
	demographics, err := json.Marshal(rec.Demographics)
	if err != nil {
		return fmt.Errorf("failed to encode demographics: %w", err)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	var value sql.NullFloat64
	if rec.OutcomeValue != nil {
		value = sql.NullFloat64{Float64: *rec.OutcomeValue, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bias_outcomes (agent_type, action_type, demographics, outcome, outcome_value, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(rec.AgentType), rec.ActionType, string(demographics),
		rec.Outcome, value, string(metadata), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bias outcome: %w", err)
	}
	return nil
}

// SaveMetric persists one computed metric.
func (s *SQLiteStore) SaveMetric(ctx context.Context, m *bias.Metric) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bias_metrics (id, metric_type, dimension, agent_type, action_type,
			protected_group, reference_group, protected_count, reference_count,
			baseline_rate, observed_rate, disparity_ratio, threshold_exceeded,
			sample_size, ci_lower, ci_upper, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.MetricType, m.Dimension, string(m.AgentType), m.ActionType,
		m.ProtectedGroup, m.ReferenceGroup, m.ProtectedCount, m.ReferenceCount,
		m.BaselineRate, m.ObservedRate, m.DisparityRatio, m.ThresholdExceeded,
		m.SampleSize, m.CILower, m.CIUpper, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bias metric: %w", err)
	}
	return nil
}

// SaveComplianceEvent persists a new compliance event.
func (s *SQLiteStore) SaveComplianceEvent(ctx context.Context, e *bias.ComplianceEvent) error {
	agents, err := json.Marshal(e.AffectedAgents)
	if err != nil {
		return fmt.Errorf("failed to encode affected agents: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compliance_events (id, event_type, severity, description,
			affected_agents, remediation_required, remediation_status, assigned_to, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EventType, e.Severity, e.Description,
		string(agents), e.RemediationRequired, e.RemediationStatus,
		nullable(e.AssignedTo), e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance event: %w", err)
	}
	return nil
}

// UpdateComplianceEvent persists a remediation status change.
func (s *SQLiteStore) UpdateComplianceEvent(ctx context.Context, id, status, assignedTo string) error {
	var (
		res sql.Result
		err error
	)
	if assignedTo != "" {
		res, err = s.db.ExecContext(ctx,
			`UPDATE compliance_events SET remediation_status = ?, assigned_to = ? WHERE id = ?`,
			status, assignedTo, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE compliance_events SET remediation_status = ? WHERE id = ?`,
			status, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update compliance event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &bias.EventNotFoundError{ID: id}
	}
	return nil
}

// LoadOutcomes returns all persisted outcomes, oldest first.
func (s *SQLiteStore) LoadOutcomes(ctx context.Context) ([]bias.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_type, action_type, demographics, outcome, outcome_value, metadata, timestamp
		FROM bias_outcomes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bias outcomes: %w", err)
	}
	defer rows.Close()

	var out []bias.OutcomeRecord
	for rows.Next() {
		var (
			rec          bias.OutcomeRecord
			agentType    string
			demographics sql.NullString
			value        sql.NullFloat64
			metadata     sql.NullString
			ts           time.Time
		)
		if err := rows.Scan(&agentType, &rec.ActionType, &demographics, &rec.Outcome, &value, &metadata, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan bias outcome: %w", err)
		}
		rec.AgentType = action.AgentType(agentType)
		rec.Timestamp = ts
		if value.Valid {
			v := value.Float64
			rec.OutcomeValue = &v
		}
		if demographics.Valid && demographics.String != "" {
			if err := json.Unmarshal([]byte(demographics.String), &rec.Demographics); err != nil {
				return nil, fmt.Errorf("failed to decode demographics: %w", err)
			}
		}
		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
