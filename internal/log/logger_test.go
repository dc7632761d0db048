package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentCycle, JSON: true, Output: &buf})

	l.Info("hello", FieldMonthKey, "2025-01")

	line := decodeLine(t, &buf)
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, ComponentCycle, line[FieldComponent])
	assert.Equal(t, "2025-01", line[FieldMonthKey])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Component: ComponentApp, JSON: true, Output: &buf})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, JSON: true, Output: &buf})

	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, l, got)

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, "unknown", fallback.Component())
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Component: ComponentApp, JSON: true, Output: &buf}))

	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpUpsert,
		NewFields().WithUser(4).WithCycle(9, "2025-02"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "disk full", line[FieldError])
	assert.Equal(t, OpUpsert, line[FieldOperation])
	assert.Equal(t, "2025-02", line[FieldMonthKey])
	assert.EqualValues(t, 9, line[FieldCycleID])
}

func TestRequestAndComponentMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, JSON: true, Output: &buf})

	h := Middleware(l)(
		RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
			ComponentMiddleware(ComponentLedger)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					logger := FromContext(r.Context())
					assert.Equal(t, ComponentLedger, logger.Component())
					logger.InfoContext(r.Context(), "handled")
				}))))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/txns", nil))

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-42", line[FieldRequestID])
	assert.Equal(t, ComponentLedger, line[FieldComponent])
	assert.Equal(t, "handled", line["msg"])
}
