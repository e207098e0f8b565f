package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/powerautomation/domainmcp/config"
	dmcptest "github.com/powerautomation/domainmcp/internal/testing"
	"github.com/powerautomation/domainmcp/registry"
	"github.com/powerautomation/domainmcp/store"
)

// doRequest runs one request through the server's route table, so CORS
// middleware and path patterns are exercised too.
func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var health map[string]any
	decodeBody(t, w, &health)

	if health["status"] != "ok" {
		t.Errorf("status = %v, want %q", health["status"], "ok")
	}
	if health["total_domains"] != float64(1) {
		t.Errorf("total_domains = %v, want 1", health["total_domains"])
	}
	if _, ok := health["version"]; !ok {
		t.Error("Health response missing version")
	}
}

func TestHandleProcess(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/process", `{"request_text": "保單核保流程分析"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp processResponse
	decodeBody(t, w, &resp)

	if resp.Count != 1 {
		t.Fatalf("Count = %d, want 1", resp.Count)
	}
	if resp.Results[0].DomainID != "insurance_mcp" {
		t.Errorf("DomainID = %q, want %q", resp.Results[0].DomainID, "insurance_mcp")
	}
	if resp.Results[0].Content != "保單分析完成" {
		t.Errorf("Content = %v, want %q", resp.Results[0].Content, "保單分析完成")
	}
}

func TestHandleProcess_UnmatchedRequest(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/process", `{"request_text": "completely unrelated gardening question"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp processResponse
	decodeBody(t, w, &resp)
	if resp.Count != 0 {
		t.Errorf("Count = %d, want 0", resp.Count)
	}
}

func TestHandleProcess_MissingRequestText(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{}`, `{"request_text": "   "}`} {
		w := doRequest(t, srv, http.MethodPost, "/api/process", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Body %s: Status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleProcess_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/process", `not json at all`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var errResp map[string]string
	decodeBody(t, w, &errResp)
	if errResp["error"] == "" {
		t.Error("Expected error message in response body")
	}
}

func TestHandleProcess_RejectsNonPostRequests(t *testing.T) {
	srv := newTestServer(t)

	methods := []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch}
	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			w := doRequest(t, srv, method, "/api/process", "")
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: Status = %d, want %d", method, w.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestHandleRoute(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/route", `{"request_text": "insurance policy review"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp routeResponse
	decodeBody(t, w, &resp)

	if resp.Count != 1 {
		t.Fatalf("Count = %d, want 1", resp.Count)
	}
	if resp.Matches[0].DomainID != "insurance_mcp" {
		t.Errorf("DomainID = %q, want %q", resp.Matches[0].DomainID, "insurance_mcp")
	}
	if resp.Matches[0].Confidence < 0.3 {
		t.Errorf("Confidence = %f, want >= 0.3", resp.Matches[0].Confidence)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var status registry.Status
	decodeBody(t, w, &status)

	if status.TotalDomains != 1 {
		t.Errorf("TotalDomains = %d, want 1", status.TotalDomains)
	}
	domain, ok := status.Domains["insurance_mcp"]
	if !ok {
		t.Fatal("Status missing insurance_mcp")
	}
	if !domain.IsHealthy {
		t.Error("insurance_mcp should be healthy")
	}
}

func TestHandleDomains(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/domains", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["count"] != float64(1) {
		t.Errorf("count = %v, want 1", resp["count"])
	}
}

func TestHandleDomain(t *testing.T) {
	srv := newTestServer(t)

	// Before any traffic there are no performance stats
	w := doRequest(t, srv, http.MethodGet, "/api/domains/insurance_mcp", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp domainResponse
	decodeBody(t, w, &resp)
	if resp.Info.ID != "insurance_mcp" {
		t.Errorf("Info.ID = %q, want %q", resp.Info.ID, "insurance_mcp")
	}
	if resp.Performance != nil {
		t.Error("Performance should be nil before any requests")
	}

	// One processed request populates them
	doRequest(t, srv, http.MethodPost, "/api/process", `{"request_text": "保單核保流程分析"}`)

	w = doRequest(t, srv, http.MethodGet, "/api/domains/insurance_mcp", "")
	decodeBody(t, w, &resp)
	if resp.Performance == nil {
		t.Fatal("Performance should be set after a request")
	}
	if resp.Performance.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", resp.Performance.RequestCount)
	}
}

func TestHandleDomain_NotFound(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/domains/nope_mcp", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/process", `{"request_text": "保單核保流程分析"}`)

	w := doRequest(t, srv, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp statsResponse
	decodeBody(t, w, &resp)

	if resp.Overall.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", resp.Overall.TotalRequests)
	}
	if resp.Overall.ActiveDomains != 1 {
		t.Errorf("ActiveDomains = %d, want 1", resp.Overall.ActiveDomains)
	}
	if resp.Cache == nil {
		t.Error("Stats response missing cache section")
	}
}

func TestHandleMetrics(t *testing.T) {
	reg := newTestRegistry(t)
	srv, err := New(&config.Config{}, reg, nil, prometheus.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(srv.cancel)

	w := doRequest(t, srv, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleSnapshots(t *testing.T) {
	db := dmcptest.CreateTestDB(t)
	snapshots := store.New(db, nil)
	if err := snapshots.Init(); err != nil {
		t.Fatalf("Failed to init snapshot store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := snapshots.Save(map[string]int{"total_domains": i}, map[string]int{"requests": i}); err != nil {
			t.Fatalf("Failed to save snapshot %d: %v", i, err)
		}
	}

	srv, err := New(&config.Config{}, newTestRegistry(t), snapshots, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(srv.cancel)

	w := doRequest(t, srv, http.MethodGet, "/api/snapshots", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Snapshots []store.Snapshot `json:"snapshots"`
		Count     int              `json:"count"`
	}
	decodeBody(t, w, &resp)
	if resp.Count != 3 {
		t.Fatalf("Count = %d, want 3", resp.Count)
	}
	// Newest first
	if resp.Snapshots[0].ID < resp.Snapshots[1].ID {
		t.Errorf("Snapshots not sorted newest first: %d before %d", resp.Snapshots[0].ID, resp.Snapshots[1].ID)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/snapshots?limit=2", "")
	decodeBody(t, w, &resp)
	if resp.Count != 2 {
		t.Errorf("Count with limit=2 = %d, want 2", resp.Count)
	}

	for _, limit := range []string{"abc", "0", "-5"} {
		w = doRequest(t, srv, http.MethodGet, "/api/snapshots?limit="+limit, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: Status = %d, want %d", limit, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleSnapshots_NoStore(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/snapshots", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want %q", got, "true")
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	// Request is still served, but no CORS grant is issued
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/process", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods = %q, want POST included", got)
	}
}
