package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/config"
	"github.com/dmcree/airlink/internal/link"
	"github.com/dmcree/airlink/internal/testutil/testlog"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	testlog.Start(t)
	stats := func() link.Stats {
		return link.Stats{FramesDecoded: 12, MessagesCompleted: 3, PendingReassemblies: 1}
	}
	return NewServer(config.DiagConfig{Addr: ":0"}, "test-node", stats, zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body: %v", err)
	}
	if body["status"] != "ok" || body["node"] != "test-node" {
		t.Fatalf("health payload: %v", body)
	}
}

func TestStatusEndpointReturnsStats(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var stats link.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("status body: %v", err)
	}
	if stats.FramesDecoded != 12 || stats.MessagesCompleted != 3 || stats.PendingReassemblies != 1 {
		t.Fatalf("stats payload: %+v", stats)
	}
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing standard collectors")
	}
}
