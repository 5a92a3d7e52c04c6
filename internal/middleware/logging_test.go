package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tripledger/tripledger/internal/auth"
)

// captureLogs redirects the default logger into a buffer of JSON records
// for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func lastLogRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) == 0 || len(lines[len(lines)-1]) == 0 {
		t.Fatal("no log records captured")
	}
	var record map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &record); err != nil {
		t.Fatalf("bad log record: %v", err)
	}
	return record
}

func TestRequestLoggerRecordsParticipant(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate("trip-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequestLogger(RequireAuth(manager)(inner))

	t.Run("authenticated request logs the caller", func(t *testing.T) {
		buf := captureLogs(t)

		req := httptest.NewRequest(http.MethodPost, "/api/trips/trip-1/expenses", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		record := lastLogRecord(t, buf)
		if record["participant_id"] != "alice" {
			t.Errorf("participant_id = %v, want alice", record["participant_id"])
		}
		if record["status"] != float64(http.StatusNoContent) {
			t.Errorf("status = %v, want 204", record["status"])
		}
	})

	t.Run("anonymous request logs an empty caller", func(t *testing.T) {
		buf := captureLogs(t)

		req := httptest.NewRequest(http.MethodPost, "/api/trips/trip-1/expenses", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		record := lastLogRecord(t, buf)
		if record["participant_id"] != "" {
			t.Errorf("participant_id = %v, want empty", record["participant_id"])
		}
		if record["status"] != float64(http.StatusUnauthorized) {
			t.Errorf("status = %v, want 401", record["status"])
		}
	})
}
