package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLoggerComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "ledger")

	logger.Info("rule added", "rule_id", "abc")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Errorf("output missing component field: %s", out)
	}
	if !strings.Contains(out, "rule_id=abc") {
		t.Errorf("output missing custom field: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "app")

	child := logger.WithComponent("storage")
	if child.Component() != "storage" {
		t.Errorf("Component() = %q, want storage", child.Component())
	}

	child.Warn("save failed")
	if !strings.Contains(buf.String(), "component=storage") {
		t.Errorf("output missing child component: %s", buf.String())
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentImport).
		WithOperation(OpImport).
		WithRule("id1", "Rent", "-1200.00", "monthly").
		WithError(context.DeadlineExceeded)

	if fields[FieldComponent] != ComponentImport {
		t.Errorf("component = %v, want %v", fields[FieldComponent], ComponentImport)
	}
	if fields[FieldRuleName] != "Rent" {
		t.Errorf("rule name = %v, want Rent", fields[FieldRuleName])
	}
	if fields[FieldError] != context.DeadlineExceeded.Error() {
		t.Errorf("error = %v", fields[FieldError])
	}

	slice := fields.ToSlice()
	if len(slice) != len(fields)*2 {
		t.Errorf("ToSlice() len = %d, want %d", len(slice), len(fields)*2)
	}
}

func TestMiddlewarePutsLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, "http")

	var got *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != logger {
		t.Error("FromContext did not return the middleware's logger")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("FromContext returned nil")
	}
	if logger.Component() != "unknown" {
		t.Errorf("fallback component = %q, want unknown", logger.Component())
	}
}

func TestStructuredLoggerHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, "http"))

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?month=2", nil)
	sl.LogHTTPEnd(context.Background(), req, http.StatusBadRequest, 12, "10.0.0.1")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("4xx should log at warn: %s", out)
	}
	if !strings.Contains(out, "status_code=400") {
		t.Errorf("output missing status code: %s", out)
	}
}
