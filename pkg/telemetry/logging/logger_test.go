package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"caretrust-hq/minerva/pkg/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("action processed", "action_id", "a1", "status", "COMPLETED")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "action processed" || record["action_id"] != "a1" {
		t.Errorf("record = %v", record)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "should be kept") {
		t.Error("warn record missing")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("unknown level should be rejected")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestNew_RedactsPHIValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", RedactPHI: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("intake note", "note", "patient SSN 123-45-6789, call 555-867-5309")

	out := buf.String()
	if strings.Contains(out, "123-45-6789") || strings.Contains(out, "867-5309") {
		t.Errorf("PHI leaked into output: %s", out)
	}
	if !strings.Contains(out, "***-**-****") {
		t.Errorf("SSN not masked: %s", out)
	}
}

func TestNew_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", RedactPHI: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("registered", "patient_name", "Jane Q. Testcase", "user_id", "user-1")

	out := buf.String()
	if strings.Contains(out, "Testcase") {
		t.Errorf("sensitive key value leaked: %s", out)
	}
	if !strings.Contains(out, "user-1") {
		t.Errorf("non-sensitive field should survive: %s", out)
	}
}

func TestNew_RedactionAppliesToWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", RedactPHI: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("contact_email", "jane@example.org").Info("hello")

	if strings.Contains(buf.String(), "jane@example.org") {
		t.Errorf("email in pre-bound attrs leaked: %s", buf.String())
	}
}

func TestNew_CustomPattern(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{
		Level:     "info",
		Format:    "json",
		RedactPHI: true,
		RedactPatterns: []config.RedactPattern{
			{Name: "member_id", Pattern: `\bMBR-\d{6}\b`, Replacement: "MBR-******"},
		},
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("claim", "detail", "member MBR-123456 submitted")

	if strings.Contains(buf.String(), "MBR-123456") {
		t.Errorf("custom pattern not applied: %s", buf.String())
	}
}
