package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pdftoolpro/tracking-api/internal/api/handler"
	"github.com/pdftoolpro/tracking-api/internal/core/ports"
	"github.com/pdftoolpro/tracking-api/internal/core/service"
	"github.com/pdftoolpro/tracking-api/internal/infrastructure/db/mongo"
	"github.com/pdftoolpro/tracking-api/internal/infrastructure/http/handlers"
)

type recordingTracking struct {
	usages []ports.ToolUsageInput
}

func (r *recordingTracking) RecordVisit(ctx context.Context, in ports.VisitInput) error { return nil }

func (r *recordingTracking) RecordToolUsage(ctx context.Context, in ports.ToolUsageInput) (*ports.ToolUsageResult, error) {
	r.usages = append(r.usages, in)
	return &ports.ToolUsageResult{ToolName: in.ToolName, Count: int64(len(r.usages))}, nil
}

func (r *recordingTracking) UsageStats(ctx context.Context) ([]ports.ToolUsageStat, error) {
	return []ports.ToolUsageStat{}, nil
}

// degradedDeps wires the real services over a store that never connected.
func degradedDeps(t *testing.T) Dependencies {
	t.Helper()
	store, err := mongo.Open(context.Background(), mongo.Config{URI: "not-a-mongo-uri", Database: "test"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	auth := service.NewAuthService(mongo.NewAuthRepository(store), "test-secret", 0, zerolog.Nop())
	tracking := service.NewTrackingService(
		mongo.NewVisitRepository(store),
		mongo.NewToolUsageRepository(store),
		nil,
		zerolog.Nop(),
	)

	reg := prometheus.NewRegistry()
	return Dependencies{
		Auth:       auth,
		Identifier: auth,
		Tracking:   tracking,
		Readiness:  []handlers.Dependency{{Name: "mongodb", Ping: store.Ping}},
		Log:        zerolog.Nop(),
		Registerer: reg,
		Gatherer:   reg,
	}
}

func do(t *testing.T, deps Dependencies, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	// echoprometheus registers its collectors once per registry.
	reg := prometheus.NewRegistry()
	deps.Registerer, deps.Gatherer = reg, reg
	e := NewRouter(deps)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp.Message
}

func TestRouter_StoreUnavailable(t *testing.T) {
	deps := degradedDeps(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"register", http.MethodPost, "/api/register", `{"name":"A","email":"a@example.com","password":"pw"}`},
		{"login", http.MethodPost, "/api/login", `{"email":"a@example.com","password":"pw"}`},
		{"visit", http.MethodPost, "/api/visit", `{"page":"/"}`},
		{"tool usage", http.MethodPost, "/api/tool-usage", `{"toolName":"merge"}`},
		{"stats", http.MethodGet, "/api/tool-usage/stats", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, deps, tt.method, tt.path, tt.body, nil)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := message(t, rec); got != "Server error" {
				t.Fatalf("expected generic message, got %q", got)
			}
		})
	}
}

func TestRouter_ValidationBeatsStoreOutage(t *testing.T) {
	rec := do(t, degradedDeps(t), http.MethodPost, "/api/register", `{"email":"a@example.com"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := message(t, rec); !strings.Contains(got, "name is required") {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRouter_OverlongPasswordIsClientError(t *testing.T) {
	body := `{"name":"A","email":"a@example.com","password":"` + strings.Repeat("é", 40) + `"}`
	rec := do(t, degradedDeps(t), http.MethodPost, "/api/register", body, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := message(t, rec); !strings.Contains(got, "72 bytes") {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRouter_LivenessWhileDegraded(t *testing.T) {
	deps := degradedDeps(t)

	if rec := do(t, deps, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := do(t, deps, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness: expected 503, got %d", rec.Code)
	}
}

func TestRouter_MalformedBearerRecordsAnonymously(t *testing.T) {
	deps := degradedDeps(t)
	tracking := &recordingTracking{}
	deps.Tracking = tracking

	for _, header := range []string{"Bearer not-a-jwt", "Bearer ", "Basic abc"} {
		rec := do(t, deps, http.MethodPost, "/api/tool-usage", `{"toolName":"merge"}`,
			map[string]string{"Authorization": header})
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", header, rec.Code)
		}
	}

	if len(tracking.usages) != 3 {
		t.Fatalf("expected 3 usages, got %d", len(tracking.usages))
	}
	for _, u := range tracking.usages {
		if u.UserID != "" {
			t.Fatalf("expected anonymous usage, got %q", u.UserID)
		}
	}
}

func TestRouter_NonJSONBodyRejected(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"plain text", "text/plain", "merge"},
		{"xml", "application/xml", "<toolUsageRequest><ToolName>merge</ToolName></toolUsageRequest>"},
		{"text xml", "text/xml", "<toolUsageRequest><ToolName>merge</ToolName></toolUsageRequest>"},
		{"form", "application/x-www-form-urlencoded", "toolName=merge"},
		{"missing", "", `{"toolName":"merge"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := degradedDeps(t)
			tracking := &recordingTracking{}
			deps.Tracking = tracking

			e := NewRouter(deps)
			req := httptest.NewRequest(http.MethodPost, "/api/tool-usage", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnsupportedMediaType {
				t.Fatalf("expected 415, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(tracking.usages) != 0 {
				t.Fatalf("usage must not be recorded, got %+v", tracking.usages)
			}
		})
	}
}

func TestRouter_JSONWithCharsetAccepted(t *testing.T) {
	deps := degradedDeps(t)
	tracking := &recordingTracking{}
	deps.Tracking = tracking

	rec := do(t, deps, http.MethodPost, "/api/tool-usage", `{"toolName":"merge"}`,
		map[string]string{"Content-Type": "application/json; charset=utf-8"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(tracking.usages) != 1 {
		t.Fatalf("expected one usage, got %d", len(tracking.usages))
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := do(t, degradedDeps(t), http.MethodGet, "/api/nope", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if message(t, rec) == "" {
		t.Fatalf("expected a message")
	}
}

func TestRouter_Metrics(t *testing.T) {
	deps := degradedDeps(t)
	e := NewRouter(deps)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pdftools_http_requests_total") {
		t.Fatalf("expected http request counter in metrics output")
	}
}

func TestRouter_StaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	deps := degradedDeps(t)
	deps.StaticDir = dir

	rec := do(t, deps, http.MethodGet, "/tools/merge", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
		t.Fatalf("expected index.html for client route, got %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, deps, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("api routes must not fall back to index.html, got %d", rec.Code)
	}
}
