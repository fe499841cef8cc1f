package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	if fields := ContextFields(ctx); len(fields) != 0 {
		t.Errorf("empty context should yield no fields, got %v", fields)
	}

	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithActionID(ctx, "action-1")
	ctx = WithAgentType(ctx, "MEDICATION")

	fields := ContextFields(ctx)
	if len(fields) != 8 {
		t.Fatalf("fields = %v", fields)
	}
	if GetSessionID(ctx) != "sess-1" || GetUserID(ctx) != "user-1" {
		t.Error("round trip lost values")
	}
	if GetActionID(ctx) != "action-1" || GetAgentType(ctx) != "MEDICATION" {
		t.Error("round trip lost values")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := WithSessionID(context.Background(), "sess-9")
	FromContext(ctx, logger).Info("hello")

	if !strings.Contains(buf.String(), "sess-9") {
		t.Errorf("context field missing from output: %s", buf.String())
	}
}
