package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestApplyDefaults verifies that defaults fill an empty configuration.
func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Governance.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("ConfidenceThreshold = %v, want %v", cfg.Governance.ConfidenceThreshold, DefaultConfidenceThreshold)
	}
	if cfg.Governance.EscalationTimeout != 5*time.Minute {
		t.Errorf("EscalationTimeout = %v, want 5m", cfg.Governance.EscalationTimeout)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Audit.Backend = %q, want \"memory\"", cfg.Audit.Backend)
	}
	if cfg.Audit.Retention.Days != 2555 {
		t.Errorf("Retention.Days = %d, want 2555", cfg.Audit.Retention.Days)
	}
	if cfg.Bias.DisparateImpactThreshold != 0.8 {
		t.Errorf("DisparateImpactThreshold = %v, want 0.8", cfg.Bias.DisparateImpactThreshold)
	}
	if len(cfg.Bias.Dimensions) != 5 {
		t.Errorf("Dimensions = %v, want 5 entries", cfg.Bias.Dimensions)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want \"info\"", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Logging.RedactPHI {
		t.Error("RedactPHI should default to true")
	}
}

// TestApplyDefaults_PreservesExplicit verifies that explicit values survive.
func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	cfg := Config{}
	cfg.Governance.ConfidenceThreshold = 0.9
	cfg.Audit.Backend = "sqlite"
	cfg.Bias.MinSamples = 20

	ApplyDefaults(&cfg)

	if cfg.Governance.ConfidenceThreshold != 0.9 {
		t.Errorf("ConfidenceThreshold = %v, want 0.9", cfg.Governance.ConfidenceThreshold)
	}
	if cfg.Audit.Backend != "sqlite" {
		t.Errorf("Audit.Backend = %q, want \"sqlite\"", cfg.Audit.Backend)
	}
	if cfg.Bias.MinSamples != 20 {
		t.Errorf("MinSamples = %d, want 20", cfg.Bias.MinSamples)
	}
}

// TestLoadConfig verifies loading a YAML file with defaults applied.
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
governance:
  confidence_threshold: 0.9
audit:
  backend: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "audit.db") + `
bias:
  min_samples: 15
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Governance.ConfidenceThreshold != 0.9 {
		t.Errorf("ConfidenceThreshold = %v, want 0.9", cfg.Governance.ConfidenceThreshold)
	}
	if cfg.Audit.Backend != "sqlite" {
		t.Errorf("Audit.Backend = %q, want \"sqlite\"", cfg.Audit.Backend)
	}
	if cfg.Bias.MinSamples != 15 {
		t.Errorf("MinSamples = %d, want 15", cfg.Bias.MinSamples)
	}
	// Defaults still fill unspecified fields.
	if cfg.Audit.Retention.Days != DefaultAuditRetentionDays {
		t.Errorf("Retention.Days = %d, want default %d", cfg.Audit.Retention.Days, DefaultAuditRetentionDays)
	}
}

// TestLoadConfig_MissingFile verifies the error path for a missing file.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestLoadConfigWithEnvOverrides verifies environment variables win over file values.
func TestLoadConfigWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
governance:
  confidence_threshold: 0.85
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("MINERVA_GOVERNANCE_CONFIDENCE_THRESHOLD", "0.95")
	t.Setenv("MINERVA_AUDIT_RETENTION_DAYS", "365")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Governance.ConfidenceThreshold != 0.95 {
		t.Errorf("ConfidenceThreshold = %v, want 0.95 from env", cfg.Governance.ConfidenceThreshold)
	}
	if cfg.Audit.Retention.Days != 365 {
		t.Errorf("Retention.Days = %d, want 365 from env", cfg.Audit.Retention.Days)
	}
}

// TestValidate collects errors across sections.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name: "confidence threshold out of range",
			mutate: func(cfg *Config) {
				cfg.Governance.ConfidenceThreshold = 1.5
			},
			wantErr: "governance.confidence_threshold",
		},
		{
			name: "unknown audit backend",
			mutate: func(cfg *Config) {
				cfg.Audit.Backend = "postgres"
			},
			wantErr: "audit.backend",
		},
		{
			name: "invalid prune schedule",
			mutate: func(cfg *Config) {
				cfg.Audit.Retention.PruneSchedule = "not a cron"
			},
			wantErr: "audit.retention.prune_schedule",
		},
		{
			name: "group floor above total floor",
			mutate: func(cfg *Config) {
				cfg.Bias.MinSamples = 5
				cfg.Bias.MinGroupSamples = 10
			},
			wantErr: "bias.min_group_samples",
		},
		{
			name: "unknown log level",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Logging.Level = "verbose"
			},
			wantErr: "telemetry.logging.level",
		},
		{
			name: "unsorted histogram buckets",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Metrics.PipelineDurationBuckets = []float64{0.1, 0.05}
			},
			wantErr: "telemetry.metrics.pipeline_duration_buckets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			ApplyDefaults(&cfg)
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestManager_Update verifies atomic snapshot replacement.
func TestManager_Update(t *testing.T) {
	cfg := DefaultConfig()
	mgr := NewManager(cfg)

	if mgr.Current() != cfg {
		t.Fatal("Current should return the seeded config")
	}

	next := DefaultConfig()
	next.Governance.ConfidenceThreshold = 0.9
	if err := mgr.Update(next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if mgr.Current().Governance.ConfidenceThreshold != 0.9 {
		t.Error("Update did not swap the snapshot")
	}
}

// TestManager_Update_InvalidKeepsPrevious verifies a failed update leaves
// the previous snapshot active.
func TestManager_Update_InvalidKeepsPrevious(t *testing.T) {
	cfg := DefaultConfig()
	mgr := NewManager(cfg)

	bad := DefaultConfig()
	bad.Governance.ConfidenceThreshold = 2.0
	if err := mgr.Update(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if mgr.Current() != cfg {
		t.Error("failed update must not replace the active config")
	}
}
