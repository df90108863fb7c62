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

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))

	log.With("op", "add node").Info("graph mutated", "nodes", 3, "label", "Flight Plan")

	out := buf.String()
	if !strings.HasPrefix(out, "[INFO]  ") {
		t.Errorf("Expected level prefix, got %q", out)
	}
	if !strings.Contains(out, `graph mutated | op="add node" nodes=3 label="Flight Plan"`) {
		t.Errorf("Expected handler attrs before record attrs, got %q", out)
	}
}

func TestCompactHandlerLevelAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}

	log.WithGroup("import").Warn("skipped", "item", "F1")
	if !strings.Contains(buf.String(), "import.item=F1") {
		t.Errorf("Expected grouped key, got %q", buf.String())
	}
}

func TestCompactHandlerNestedGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	log.With("doc", "net.json").WithGroup("import").WithGroup("edge").Log(context.Background(), LevelTrace, "resolved",
		"from", "F1", slog.Group("to", "label", "R1"))

	out := buf.String()
	if !strings.HasPrefix(out, "[TRACE] ") {
		t.Errorf("Expected trace label, got %q", out)
	}
	if !strings.Contains(out, "| doc=net.json import.edge.from=F1 import.edge.to.label=R1") {
		t.Errorf("Expected attrs added before a group to stay ungrouped, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		verbosity string
		verbose   int
		want      slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"ERROR", 0, slog.LevelError},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.verbosity, c.verbose)
		if err != nil {
			t.Errorf("ParseLevel(%q, %d): unexpected error %v", c.verbosity, c.verbose, err)
		}
		if got != c.want {
			t.Errorf("ParseLevel(%q, %d): expected %v, got %v", c.verbosity, c.verbose, c.want, got)
		}
	}

	if _, err := ParseLevel("loud", 0); err == nil {
		t.Error("Expected error for unknown verbosity")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set("X-Request-ID", "0123456789abcdef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "0123456789abcdef" {
		t.Errorf("Expected request ID in context, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("Expected request ID header, got %q", rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), "request rejected") || !strings.Contains(buf.String(), "req=01234567") {
		t.Errorf("Expected rejected request log with short ID, got %q", buf.String())
	}
}

func TestRequestIDGenerated(t *testing.T) {
	SetOutput(&bytes.Buffer{})
	ctx := WithRequestID(context.Background(), "")
	if GetRequestID(ctx) != "" {
		t.Error("Expected empty request ID")
	}

	rec := httptest.NewRecorder()
	RequestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("Expected a generated uuid, got %q", rec.Header().Get("X-Request-ID"))
	}
}
