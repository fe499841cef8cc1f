package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckLiveness(t *testing.T) {
	c := New(0)
	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
	if status.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestCheckReadiness_NoChecks(t *testing.T) {
	c := New(0)
	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("Status = %q, want ready", status.Status)
	}
}

func TestCheckReadiness_AllHealthy(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("audit_store", func(ctx context.Context) error { return nil })
	c.RegisterCheck("bias_store", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Fatalf("Status = %q, want ready", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("got %d check results, want 2", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != "ok" {
			t.Errorf("check %s = %q, want ok", name, result.Status)
		}
	}
}

func TestCheckReadiness_Degraded(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("audit_store", func(ctx context.Context) error {
		return errors.New("database is locked")
	})
	c.RegisterCheck("scheduler", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", status.Status)
	}
	if status.Checks["audit_store"].Message != "database is locked" {
		t.Errorf("Message = %q", status.Checks["audit_store"].Message)
	}
	if status.Checks["scheduler"].Status != "ok" {
		t.Errorf("scheduler = %q, want ok", status.Checks["scheduler"].Status)
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", status.Status)
	}
}

func TestRegisterCheck_Replaces(t *testing.T) {
	c := New(0)
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })

	if got := c.CheckCount(); got != 1 {
		t.Fatalf("CheckCount = %d, want 1", got)
	}
	if status := c.CheckReadiness(context.Background()); status.Status != "ready" {
		t.Errorf("Status = %q, want ready", status.Status)
	}
}

func TestListChecks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("a", func(ctx context.Context) error { return nil })
	c.RegisterCheck("b", func(ctx context.Context) error { return nil })
	if got := len(c.ListChecks()); got != 2 {
		t.Errorf("ListChecks returned %d names, want 2", got)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(0)
	handler := c.LivenessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestReadinessHandler_Degraded(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("audit_store", func(ctx context.Context) error {
		return errors.New("unreachable")
	})

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-08-31")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion not set")
	}
}

func TestRateLimitedHandler(t *testing.T) {
	base := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := RateLimitedHandler(base, 2)

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[rec.Code]++
	}
	if codes[http.StatusOK] < 2 {
		t.Errorf("ok responses = %d, want at least 2", codes[http.StatusOK])
	}
	if codes[http.StatusTooManyRequests] == 0 {
		t.Error("expected at least one 429")
	}

	// Zero disables limiting.
	unlimited := RateLimitedHandler(base, 0)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		unlimited(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unlimited request %d status = %d", i, rec.Code)
		}
	}
}
