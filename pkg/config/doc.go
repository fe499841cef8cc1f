// Package config provides configuration management for Minerva.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MINERVA_SECTION_FIELD.
// For example:
//
//   - MINERVA_AUDIT_BACKEND overrides audit.backend
//   - MINERVA_BIAS_MIN_SAMPLES overrides bias.min_samples
//   - MINERVA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Runtime Access
//
// Application-wide configuration access goes through a Manager, which holds
// the active snapshot behind an atomic pointer:
//
//	mgr := config.NewManager(cfg)
//
//	// Anywhere the manager is injected
//	current := mgr.Current()
//
// Updates and reloads replace the snapshot atomically; a failed reload
// leaves the previous configuration active. There is no global singleton;
// components receive the Manager (or a Config) explicitly.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Range validation (e.g., confidence threshold must be in (0, 1])
//   - Enumeration checks (e.g., audit backend must be "memory" or "sqlite")
//   - Cron expression validation for scheduled jobs
//   - Logical validation (e.g., group sample floor cannot exceed total floor)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - audit.backend: unknown backend "postgres" (must be "memory" or "sqlite")
//	  - bias.min_group_samples: minimum group sample size cannot exceed minimum sample size
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	governance:
//	  confidence_threshold: 0.85
//
//	audit:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/audit.db"
//
//	bias:
//	  disparate_impact_threshold: 0.8
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// Reads through the Manager observe complete, immutable snapshots. Reload
// and Update swap the snapshot atomically, so concurrent readers never see
// a partially applied configuration.
package config
