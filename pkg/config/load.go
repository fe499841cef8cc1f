package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MINERVA_SECTION_FIELD (e.g., MINERVA_AUDIT_BACKEND).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration populated entirely from defaults.
// Useful for embedding the governance core without a config file.
func DefaultConfig() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MINERVA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Governance overrides
	if val := os.Getenv("MINERVA_GOVERNANCE_CONFIDENCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Governance.ConfidenceThreshold = f
		}
	}
	if val := os.Getenv("MINERVA_GOVERNANCE_ESCALATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Governance.EscalationTimeout = d
		}
	}
	if val := os.Getenv("MINERVA_GOVERNANCE_MAX_RETRY_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Governance.MaxRetryAttempts = i
		}
	}
	if val := os.Getenv("MINERVA_GOVERNANCE_SESSION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Governance.SessionTimeout = d
		}
	}
	if val := os.Getenv("MINERVA_GOVERNANCE_BIAS_MONITORING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Governance.BiasMonitoringEnabled = b
		}
	}

	// Audit overrides
	if val := os.Getenv("MINERVA_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("MINERVA_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLite.Path = val
	}
	if val := os.Getenv("MINERVA_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}
	if val := os.Getenv("MINERVA_AUDIT_RETENTION_SCHEDULE"); val != "" {
		cfg.Audit.Retention.PruneSchedule = val
	}

	// Bias overrides
	if val := os.Getenv("MINERVA_BIAS_DISPARATE_IMPACT_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Bias.DisparateImpactThreshold = f
		}
	}
	if val := os.Getenv("MINERVA_BIAS_MIN_SAMPLES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Bias.MinSamples = i
		}
	}
	if val := os.Getenv("MINERVA_BIAS_MIN_GROUP_SAMPLES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Bias.MinGroupSamples = i
		}
	}
	if val := os.Getenv("MINERVA_BIAS_ANALYSIS_SCHEDULE"); val != "" {
		cfg.Bias.AnalysisSchedule = val
	}
	if val := os.Getenv("MINERVA_BIAS_STORAGE_BACKEND"); val != "" {
		cfg.Bias.Storage.Backend = val
	}
	if val := os.Getenv("MINERVA_BIAS_SQLITE_PATH"); val != "" {
		cfg.Bias.Storage.SQLitePath = val
	}

	// Rules overrides
	if val := os.Getenv("MINERVA_RULES_FILE_PATH"); val != "" {
		cfg.Rules.FilePath = val
	}
	if val := os.Getenv("MINERVA_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}

	// Server overrides
	if val := os.Getenv("MINERVA_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("MINERVA_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("MINERVA_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MINERVA_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MINERVA_TELEMETRY_LOGGING_REDACT_PHI"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.RedactPHI = b
		}
	}
	if val := os.Getenv("MINERVA_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MINERVA_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("MINERVA_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
