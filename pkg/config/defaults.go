package config

import "time"

// Default values for configuration fields.
const (
	// Governance defaults
	DefaultConfidenceThreshold   = 0.85
	DefaultEscalationTimeout     = 5 * time.Minute
	DefaultMaxRetryAttempts      = 3
	DefaultSessionTimeout        = 30 * time.Minute
	DefaultBiasMonitoringEnabled = true

	// Audit defaults
	DefaultAuditBackend            = "memory"
	DefaultAuditSQLitePath         = "data/audit.db"
	DefaultAuditSQLiteMaxOpenConns = 10
	DefaultAuditSQLiteMaxIdleConns = 5
	DefaultAuditSQLiteWALMode      = true
	DefaultAuditSQLiteBusyTimeout  = 5 * time.Second
	DefaultAuditRetentionDays      = 2555 // seven years
	DefaultAuditRetentionSchedule  = "0 3 * * *"
	DefaultAuditRetentionMaxRecs   = int64(0)
	DefaultAuditExportJSONPretty   = true
	DefaultAuditExportCSVHeader    = true
	DefaultAuditExportMaxSize      = 1000000

	// Bias defaults
	DefaultBiasDisparateImpactThreshold = 0.8
	DefaultBiasMinSamples               = 10
	DefaultBiasMinGroupSamples          = 5
	DefaultBiasAnalysisSchedule         = "0 4 * * *"
	DefaultBiasStorageBackend           = "none"
	DefaultBiasSQLitePath               = "data/bias.db"

	// Rules defaults
	DefaultRulesWatch = false

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedactPHI = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsAddress   = "127.0.0.1:9090"
	DefaultMetricsNamespace = "minerva"
	DefaultMetricsSubsystem = "governance"

	// Server defaults
	DefaultServerListenAddress   = "127.0.0.1:8080"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
)

// DefaultBiasDimensions is the demographic dimension set swept by full
// bias analysis when no explicit configuration is given.
func DefaultBiasDimensions() []string {
	return []string{"age", "gender", "race", "ethnicity", "language"}
}

// DefaultPipelineDurationBuckets returns the default histogram buckets
// for pipeline processing duration, in seconds.
func DefaultPipelineDurationBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Governance defaults
	if cfg.Governance.ConfidenceThreshold == 0 {
		cfg.Governance.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Governance.EscalationTimeout == 0 {
		cfg.Governance.EscalationTimeout = DefaultEscalationTimeout
	}
	if cfg.Governance.MaxRetryAttempts == 0 {
		cfg.Governance.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if cfg.Governance.SessionTimeout == 0 {
		cfg.Governance.SessionTimeout = DefaultSessionTimeout
	}
	if !cfg.Governance.BiasMonitoringEnabled {
		cfg.Governance.BiasMonitoringEnabled = DefaultBiasMonitoringEnabled
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if !cfg.Audit.SQLite.WALMode {
		cfg.Audit.SQLite.WALMode = DefaultAuditSQLiteWALMode
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}

	// Retention defaults
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditRetentionSchedule
	}
	if cfg.Audit.Retention.MaxRecords == 0 {
		cfg.Audit.Retention.MaxRecords = DefaultAuditRetentionMaxRecs
	}

	// Export defaults
	if !cfg.Audit.Export.JSONPretty {
		cfg.Audit.Export.JSONPretty = DefaultAuditExportJSONPretty
	}
	if !cfg.Audit.Export.CSVIncludeHeader {
		cfg.Audit.Export.CSVIncludeHeader = DefaultAuditExportCSVHeader
	}
	if cfg.Audit.Export.MaxExportSize == 0 {
		cfg.Audit.Export.MaxExportSize = DefaultAuditExportMaxSize
	}

	// Bias defaults
	if cfg.Bias.DisparateImpactThreshold == 0 {
		cfg.Bias.DisparateImpactThreshold = DefaultBiasDisparateImpactThreshold
	}
	if cfg.Bias.MinSamples == 0 {
		cfg.Bias.MinSamples = DefaultBiasMinSamples
	}
	if cfg.Bias.MinGroupSamples == 0 {
		cfg.Bias.MinGroupSamples = DefaultBiasMinGroupSamples
	}
	if len(cfg.Bias.Dimensions) == 0 {
		cfg.Bias.Dimensions = DefaultBiasDimensions()
	}
	if cfg.Bias.AnalysisSchedule == "" {
		cfg.Bias.AnalysisSchedule = DefaultBiasAnalysisSchedule
	}
	if cfg.Bias.Storage.Backend == "" {
		cfg.Bias.Storage.Backend = DefaultBiasStorageBackend
	}
	if cfg.Bias.Storage.SQLitePath == "" {
		cfg.Bias.Storage.SQLitePath = DefaultBiasSQLitePath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if !cfg.Telemetry.Logging.RedactPHI {
		cfg.Telemetry.Logging.RedactPHI = DefaultLoggingRedactPHI
	}
	if !cfg.Telemetry.Metrics.Enabled {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.PipelineDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.PipelineDurationBuckets = DefaultPipelineDurationBuckets()
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultServerIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
}
