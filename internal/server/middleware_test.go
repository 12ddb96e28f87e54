package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// RequestIDMiddleware Tests
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("request ID not set in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header X-Request-ID = %q, context = %q", got, seen)
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := GetRequestID(r.Context()); got != "" {
		t.Errorf("GetRequestID without middleware = %q, want empty", got)
	}
}

// =============================================================================
// LoggingMiddleware Tests
// =============================================================================

func TestLoggingMiddleware_EmitsCompletionLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "tenant", "alameda.ca")
		AddLogField(r.Context(), "tier", "anonymous")
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest("GET", "/meetings.json", nil)
	r.Host = "alameda.ca.civic.band"
	handler.ServeHTTP(httptest.NewRecorder(), r)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line not JSON: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["host"] != "alameda.ca.civic.band" {
		t.Errorf("host = %v", entry["host"])
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["tenant"] != "alameda.ca" || entry["tier"] != "anonymous" {
		t.Errorf("enriched fields missing: %v", entry)
	}
}

func TestAddLogField_NoMiddlewareIsNoop(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	// Must not panic without the middleware's fields map in context.
	AddLogField(r.Context(), "tenant", "alameda.ca")
	AddError(r.Context(), nil)
}

// =============================================================================
// WriteRateLimitHeaders Tests
// =============================================================================

func TestWriteRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	reset := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	WriteRateLimitHeaders(h, 15, 3, reset)

	if got := h.Get("x-ratelimit-limit"); got != "15" {
		t.Errorf("limit header = %q", got)
	}
	if got := h.Get("x-ratelimit-remaining"); got != "3" {
		t.Errorf("remaining header = %q", got)
	}
	if got := h.Get("x-ratelimit-reset"); !strings.HasPrefix(got, "2026-01-02T03:04:05") {
		t.Errorf("reset header = %q", got)
	}
}

func TestWriteRateLimitHeaders_ClampsNegativeRemaining(t *testing.T) {
	h := http.Header{}
	WriteRateLimitHeaders(h, 15, -2, time.Time{})
	if got := h.Get("x-ratelimit-remaining"); got != "0" {
		t.Errorf("remaining header = %q, want 0", got)
	}
	if h.Get("x-ratelimit-reset") != "" {
		t.Error("zero reset time should omit the reset header")
	}
}

func TestWriteRateLimitHeaders_DisabledLimiter(t *testing.T) {
	h := http.Header{}
	WriteRateLimitHeaders(h, 0, 0, time.Now())
	if len(h) != 0 {
		t.Errorf("no headers expected when limit is 0, got %v", h)
	}
}
