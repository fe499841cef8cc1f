package storage

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 1

// Schema creates the audit tables and their retrieval indices. The
// patient, agent-type, and session indices live in the same database as
// the entries themselves, so an inserted row and its index registrations
// become visible in one transaction.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id              TEXT PRIMARY KEY,
	agent_id        TEXT NOT NULL,
	agent_type      TEXT NOT NULL,
	action_type     TEXT NOT NULL,
	action_id       TEXT NOT NULL,
	patient_id      TEXT,
	parameters      TEXT,
	rationale       TEXT,
	confidence      REAL NOT NULL,
	risk_level      TEXT NOT NULL,
	status          TEXT NOT NULL,
	session_id      TEXT,
	user_id         TEXT,
	ip_address      TEXT,
	outcome         TEXT,
	api_calls       TEXT,
	modifications   TEXT,
	human_override  INTEGER NOT NULL DEFAULT 0,
	override_by     TEXT,
	override_reason TEXT,
	timestamp       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_patient ON audit_entries(patient_id);
CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_entries(agent_type);
CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_entries(session_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);

CREATE TABLE IF NOT EXISTS access_logs (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	user_role     TEXT NOT NULL,
	patient_id    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	action        TEXT NOT NULL,
	success       INTEGER NOT NULL,
	reason        TEXT,
	ip_address    TEXT,
	session_id    TEXT,
	timestamp     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_access_patient ON access_logs(patient_id);

CREATE TABLE IF NOT EXISTS escalation_logs (
	id                TEXT PRIMARY KEY,
	source_agent      TEXT NOT NULL,
	action_id         TEXT NOT NULL,
	reason            TEXT NOT NULL,
	confidence        REAL NOT NULL,
	risk_level        TEXT NOT NULL,
	assigned_to       TEXT,
	resolved          INTEGER NOT NULL DEFAULT 0,
	resolved_by       TEXT,
	resolution_action TEXT,
	resolved_at       DATETIME,
	timestamp         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_escalation_resolved ON escalation_logs(resolved);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_info (version) VALUES (?)`

// GetSchemaVersion reads back the recorded schema version.
const GetSchemaVersion = `SELECT version FROM schema_info LIMIT 1`
