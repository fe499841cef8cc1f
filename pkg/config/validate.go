package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "audit.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGovernance(&cfg.Governance)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateBias(&cfg.Bias)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateGovernance validates process-wide governance configuration.
func validateGovernance(cfg *GovernanceConfig) []FieldError {
	var errs []FieldError

	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "governance.confidence_threshold",
			Message: "confidence threshold must be in (0, 1]",
		})
	}
	if cfg.EscalationTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "governance.escalation_timeout",
			Message: "escalation timeout must be non-negative",
		})
	}
	if cfg.MaxRetryAttempts < 0 {
		errs = append(errs, FieldError{
			Field:   "governance.max_retry_attempts",
			Message: "max retry attempts must be non-negative",
		})
	}
	for name, limit := range cfg.APIRateLimits {
		if limit <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("governance.api_rate_limits.%s", name),
				Message: "rate limit must be positive",
			})
		}
	}

	return errs
}

// validateAudit validates audit trail configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "path is required when backend is sqlite",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.max_idle_conns",
				Message: "max idle connections cannot exceed max open connections",
			})
		}
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Export.MaxExportSize < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.export.max_export_size",
			Message: "max export size must be at least 1",
		})
	}

	return errs
}

// validateBias validates bias monitor configuration.
func validateBias(cfg *BiasConfig) []FieldError {
	var errs []FieldError

	if cfg.DisparateImpactThreshold <= 0 || cfg.DisparateImpactThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "bias.disparate_impact_threshold",
			Message: "disparate impact threshold must be in (0, 1]",
		})
	}
	if cfg.MinSamples < 1 {
		errs = append(errs, FieldError{
			Field:   "bias.min_samples",
			Message: "minimum sample size must be at least 1",
		})
	}
	if cfg.MinGroupSamples < 1 {
		errs = append(errs, FieldError{
			Field:   "bias.min_group_samples",
			Message: "minimum group sample size must be at least 1",
		})
	}
	if cfg.MinGroupSamples > cfg.MinSamples {
		errs = append(errs, FieldError{
			Field:   "bias.min_group_samples",
			Message: "minimum group sample size cannot exceed minimum sample size",
		})
	}
	if len(cfg.Dimensions) == 0 {
		errs = append(errs, FieldError{
			Field:   "bias.dimensions",
			Message: "at least one demographic dimension is required",
		})
	}
	if cfg.AnalysisSchedule != "" {
		if _, err := cron.ParseStandard(cfg.AnalysisSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "bias.analysis_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	switch cfg.Storage.Backend {
	case "none", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "bias.storage.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"none\" or \"sqlite\")", cfg.Storage.Backend),
		})
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "bias.storage.sqlite_path",
			Message: "path is required when backend is sqlite",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be \"json\" or \"text\")", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.Namespace == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.namespace",
				Message: "namespace is required when metrics are enabled",
			})
		}
	}

	for i := 1; i < len(cfg.Metrics.PipelineDurationBuckets); i++ {
		if cfg.Metrics.PipelineDurationBuckets[i] <= cfg.Metrics.PipelineDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.pipeline_duration_buckets",
				Message: "histogram buckets must be strictly increasing",
			})
			break
		}
	}

	return errs
}

// validateServer validates administrative server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 || cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server",
			Message: "timeouts must be non-negative",
		})
	}
	if cfg.HealthRateLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "server.health_rate_limit",
			Message: "health rate limit must be non-negative",
		})
	}

	return errs
}
