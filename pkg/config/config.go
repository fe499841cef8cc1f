package config

import "time"

// Config is the root configuration structure for the Minerva governance
// runtime. It contains all configuration sections for the governance
// pipeline, audit storage, bias monitoring, rules loading, and telemetry.
type Config struct {
	// Governance contains process-wide governance tunables read by every
	// layer of the pipeline.
	Governance GovernanceConfig `yaml:"governance"`

	// Audit contains configuration for the audit trail including backend
	// selection, retention, and export settings.
	Audit AuditConfig `yaml:"audit"`

	// Bias contains configuration for the bias monitor including the
	// disparate-impact threshold and sample-size floors.
	Bias BiasConfig `yaml:"bias"`

	// Rules contains configuration for loading governance rule and
	// permission definitions from disk.
	Rules RulesConfig `yaml:"rules"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Server contains configuration for the administrative HTTP server.
	Server ServerConfig `yaml:"server"`
}

// ServerConfig contains configuration for the administrative HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port the administrative API binds.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle connection limit.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// HealthRateLimit caps probe requests per second. 0 disables the cap.
	// Default: 0
	HealthRateLimit int `yaml:"health_rate_limit"`
}

// GovernanceConfig contains process-wide governance tunables.
type GovernanceConfig struct {
	// ConfidenceThreshold is the default confidence floor below which the
	// fallback manager escalates an action to a human.
	// Range: (0, 1]. Default: 0.85
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// EscalationTimeout is how long an escalation may remain unresolved
	// before it is surfaced as overdue in statistics.
	// Default: 5m
	EscalationTimeout time.Duration `yaml:"escalation_timeout"`

	// MaxRetryAttempts is the retry budget advertised to agent
	// implementations. The governance core itself never retries.
	// Default: 3
	MaxRetryAttempts int `yaml:"max_retry_attempts"`

	// SessionTimeout is the inactivity window after which a session is
	// considered stale for audit purposes.
	// Default: 30m
	SessionTimeout time.Duration `yaml:"session_timeout"`

	// BiasMonitoringEnabled controls whether action outcomes are fed into
	// the bias monitor.
	// Default: true
	BiasMonitoringEnabled bool `yaml:"bias_monitoring_enabled"`

	// APIRateLimits maps external service names to requests-per-minute
	// budgets. Enforced by service clients, carried here for visibility.
	APIRateLimits map[string]int `yaml:"api_rate_limits"`
}

// AuditConfig contains configuration for audit trail storage and export.
type AuditConfig struct {
	// Backend specifies the storage backend for audit records.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains audit retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit entries. Records older
	// than this are eligible for pruning. 0 means keep entries forever.
	// Default: 2555 (seven years, per HIPAA retention guidance)
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of audit entries to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// ExportConfig contains audit export configuration.
type ExportConfig struct {
	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV exports.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`

	// MaxExportSize is the maximum number of entries per export.
	// Default: 1000000
	MaxExportSize int `yaml:"max_export_size"`
}

// BiasConfig contains configuration for the bias monitor.
type BiasConfig struct {
	// DisparateImpactThreshold is the approval-rate ratio below which a
	// disparity is flagged. 0.8 implements the four-fifths rule.
	// Default: 0.8
	DisparateImpactThreshold float64 `yaml:"disparate_impact_threshold"`

	// MinSamples is the minimum total samples for an agent and action pair
	// before any disparity statistic is computed.
	// Default: 10
	MinSamples int `yaml:"min_samples"`

	// MinGroupSamples is the minimum samples per compared group.
	// Default: 5
	MinGroupSamples int `yaml:"min_group_samples"`

	// Dimensions is the demographic dimension set swept by full analysis.
	// Default: ["age", "gender", "race", "ethnicity", "language"]
	Dimensions []string `yaml:"dimensions"`

	// AnalysisSchedule is a cron expression for scheduled full bias
	// analysis sweeps. Empty disables scheduled sweeps.
	// Default: "0 4 * * *" (daily at 4 AM)
	AnalysisSchedule string `yaml:"analysis_schedule"`

	// Storage contains sample persistence configuration.
	Storage BiasStorageConfig `yaml:"storage"`
}

// BiasStorageConfig configures persistence of bias outcome samples.
type BiasStorageConfig struct {
	// Backend specifies the sample persistence backend.
	// Options: "none", "sqlite"
	// Default: "none"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite database file when Backend is
	// "sqlite".
	// Default: "data/bias.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// RulesConfig contains configuration for rule and permission loading.
type RulesConfig struct {
	// FilePath is an optional path to a YAML file containing governance
	// rule overrides. Empty means the built-in default rules are used.
	FilePath string `yaml:"file_path"`

	// Watch enables automatic reloading when the rules file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPHI enables automatic redaction of protected health
	// information in log attribute values. Covers SSNs, MRNs, phone
	// numbers, and email addresses.
	// Default: true
	RedactPHI bool `yaml:"redact_phi"`

	// RedactPatterns contains additional redaction patterns applied after
	// the built-in set.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// ListenAddress is the address for the metrics endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric name prefix.
	// Default: "minerva"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "governance"
	Subsystem string `yaml:"subsystem"`

	// PipelineDurationBuckets defines histogram buckets for pipeline
	// processing duration in seconds.
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0]
	PipelineDurationBuckets []float64 `yaml:"pipeline_duration_buckets"`
}
