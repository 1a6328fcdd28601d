package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger(t *testing.T) {
	logBuffer := new(bytes.Buffer)
	logger := slog.New(slog.NewJSONHandler(logBuffer, nil))

	body := "receipt"
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(body))
	})

	req := httptest.NewRequest(http.MethodPost, "/loans/L1/collections", nil)
	req.RemoteAddr = "192.0.2.1:12345"
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-123"))
	rr := httptest.NewRecorder()

	StructuredLogger(logger)(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &logEntry))

	assert.Equal(t, "INFO", logEntry["level"])
	assert.Equal(t, "Served request", logEntry["msg"])
	assert.Equal(t, http.MethodPost, logEntry["method"])
	assert.Equal(t, "/loans/L1/collections", logEntry["path"])
	assert.Equal(t, "192.0.2.1:12345", logEntry["remote_addr"])
	assert.Equal(t, float64(http.StatusCreated), logEntry["status"])
	assert.Equal(t, float64(len(body)), logEntry["bytes_written"])
	assert.Equal(t, "req-123", logEntry["request_id"])
	_, ok := logEntry["latency_ms"].(float64)
	assert.True(t, ok)
}

func TestStructuredLoggerServerError(t *testing.T) {
	logBuffer := new(bytes.Buffer)
	logger := slog.New(slog.NewJSONHandler(logBuffer, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rr := httptest.NewRecorder()
	StructuredLogger(logger)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/report/dashboard", nil))

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &logEntry))

	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "", logEntry["request_id"])
}
