package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
		wantErr   bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"", 1, slog.LevelDebug, false},
		{"", 3, LevelTrace, false},
		{"warn", 2, slog.LevelWarn, false},
		{"TRACE", 0, LevelTrace, false},
		{"loud", 0, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q, %d) error = %v, wantErr %v", tt.verbosity, tt.count, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.verbosity, tt.count, got, tt.want)
		}
	}
}

func TestCompactHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})
	log := slog.New(h).With("component", "graph")

	log.Log(context.Background(), LevelTrace, "searching", "source", "qasm2", "weight", 2.0)
	log.Info("path found", "route", "qasm2 -> circuit", "requestID", "0123456789abcdef")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[TRACE] ") {
		t.Errorf("Expected TRACE prefix, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "| component=graph source=qasm2 weight=2") {
		t.Errorf("Expected handler attrs before record attrs, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `route="qasm2 -> circuit"`) {
		t.Errorf("Expected quoted route, got %q", lines[1])
	}
	if !strings.Contains(lines[1], "req=01234567") || strings.Contains(lines[1], "89abcdef") {
		t.Errorf("Expected shortened request ID, got %q", lines[1])
	}
}

func TestCompactHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug to be filtered at default level, got %q", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "fixed-id" {
		t.Errorf("Expected request ID from header, got %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "fixed-id" {
		t.Errorf("Expected echoed header, got %q", got)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("Expected generated UUID, got %q", rec.Header().Get(RequestIDHeader))
	}
}
