package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/praveen420coder/sf-log-analyzer/internal/aggregator"
	"github.com/praveen420coder/sf-log-analyzer/internal/hub"
	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

func newTestServer() (*Server, *aggregator.Aggregator) {
	h := hub.New(nil)
	agg := aggregator.New(nil, h.Dropped, func() int { return 0 })
	return New(h, agg, "0"), agg
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodGet, "/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestApiParse(t *testing.T) {
	s, _ := newTestServer()
	trace := "06:09:12.0 (100)|METHOD_ENTRY|[1]|01p000|Foo.bar\\n06:09:12.0 (250)|METHOD_EXIT|[1]|01p000|Foo.bar"
	rec := doJSON(t, s, http.MethodPost, "/api/parse", `{"text":"`+trace+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var parsed model.ParsedLog
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Roots) != 1 || parsed.Roots[0].Name != "Foo.bar" {
		t.Errorf("unexpected parse result: %+v", parsed.Roots)
	}
}

func TestApiParseRejectsMissingText(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodPost, "/api/parse", `{"status":"Success"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/parse", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestApiAnalyze(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodPost, "/api/analyze",
		`{"text":"Number of SOQL queries: 85 out of 100","status":"Success"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Insights []model.Insight `json:"insights"`
		Metrics  model.Metrics   `json:"metrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, in := range body.Insights {
		if in.Title == "Approaching Query Limit" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected query limit insight, got %+v", body.Insights)
	}
	lm, ok := body.Metrics.Limits[model.LimitSoqlQueries]
	if !ok || lm.Percentage == nil || *lm.Percentage != 85.0 {
		t.Errorf("unexpected limit metric: %+v", body.Metrics.Limits)
	}
}

func TestApiLastEmpty(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodGet, "/api/last", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 before any analysis, got %d", rec.Code)
	}
}

func TestApiStats(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats aggregator.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.LogsAnalyzed != 0 {
		t.Errorf("fresh session must report zero analyzed, got %d", stats.LogsAnalyzed)
	}
}

func TestDashboardAssets(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for index, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}
