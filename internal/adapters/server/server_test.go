package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/lobsim/internal/adapters/server/common"
	"github.com/hylla/lobsim/internal/app"
)

// newPlanner builds a real planner over the reference configuration.
func newPlanner() common.Planner {
	svc := app.NewService(nil, nil, nil, app.DefaultServiceConfig())
	return common.NewAppServiceAdapter(svc)
}

// TestNewHandlerRoutes verifies health, REST and MCP mounts on the composed mux.
func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Planner: newPlanner()})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" || cfg.HTTPBind != defaultBindAddress {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Fatalf("%s = %d %q, want 200 ok", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", strings.NewReader(`{"buffer":5}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("plan status = %d, body %s", rec.Code, rec.Body.String())
	}
	var plan common.PlanView
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if plan.End != 112 || plan.Cost.Total != 692601 {
		t.Fatalf("unexpected reference plan end=%d total=%d", plan.End, plan.Cost.Total)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", rec.Code)
	}
}

// TestNewHandlerValidation verifies dependency and endpoint collision checks.
func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing planner error")
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, Dependencies{Planner: newPlanner()}); err == nil {
		t.Fatal("expected endpoint collision error")
	}
	if _, _, err := NewHandler(Config{ReadTimeout: -time.Second}, Dependencies{Planner: newPlanner()}); err == nil {
		t.Fatal("expected negative timeout error")
	}
}

// TestNormalizeEndpoint verifies endpoint defaults and slash handling.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":           "/api/v1",
		"/":          "/api/v1",
		"api":        "/api",
		" /v2/api/ ": "/v2/api",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRunStopsOnCancel verifies graceful shutdown once the context is canceled.
func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Planner: newPlanner()})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
