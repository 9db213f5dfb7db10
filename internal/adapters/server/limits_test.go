package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hylla/lobsim/internal/adapters/server/common"
	"github.com/hylla/lobsim/internal/domain"
)

// countingPlanner counts plan and progress calls that reach the wrapped planner.
type countingPlanner struct {
	common.Planner
	plans    int
	progress int
}

// Plan counts and forwards one plan request.
func (c *countingPlanner) Plan(ctx context.Context, in common.PlanRequest) (common.PlanView, error) {
	c.plans++
	return c.Planner.Plan(ctx, in)
}

// Progress counts and forwards one progress request.
func (c *countingPlanner) Progress(ctx context.Context, in common.ProgressRequest) (common.ProgressView, error) {
	c.progress++
	return c.Planner.Progress(ctx, in)
}

// TestNormalizeLimits verifies defaults for unset limits and rejection of negative ones.
func TestNormalizeLimits(t *testing.T) {
	got, err := normalizeLimits(Limits{MaxBuffer: 30})
	if err != nil {
		t.Fatalf("normalizeLimits() error = %v", err)
	}
	want := DefaultLimits()
	want.MaxBuffer = 30
	if got != want {
		t.Fatalf("normalizeLimits() = %+v, want %+v", got, want)
	}
	if want.MaxUnits != domain.MaxFleetUnits {
		t.Fatalf("expected default unit cap %d, got %d", domain.MaxFleetUnits, want.MaxUnits)
	}
	if _, err := normalizeLimits(Limits{MaxFirstStart: -1}); err == nil {
		t.Fatal("expected negative limit error")
	}
	if _, _, err := NewHandler(Config{Limits: Limits{MaxProgressPlans: -1}}, Dependencies{Planner: newPlanner()}); err == nil {
		t.Fatal("expected NewHandler to reject negative limits")
	}
}

// TestHandlerLimitsRejectBeforePlanning verifies oversized requests never reach the planner.
func TestHandlerLimitsRejectBeforePlanning(t *testing.T) {
	counter := &countingPlanner{Planner: newPlanner()}
	handler, cfg, err := NewHandler(Config{Limits: Limits{MaxProgressPlans: 2, MaxBuffer: 20}}, Dependencies{Planner: counter})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.Limits.MaxProgressPlans != 2 || cfg.Limits.MaxFirstStart != DefaultLimits().MaxFirstStart {
		t.Fatalf("unexpected normalized limits %+v", cfg.Limits)
	}

	cases := map[string]struct {
		path string
		body string
	}{
		"too many plans": {path: "/api/v1/progress", body: `{"plans":[{},{},{}]}`},
		"far buffer":     {path: "/api/v1/progress", body: `{"plans":[{"buffer":20000000}]}`},
		"negative gap":   {path: "/api/v1/plan", body: `{"buffer":-21}`},
		"late start":     {path: "/api/v1/plan", body: `{"first_start":3651}`},
		"fleet units":    {path: "/api/v1/plan", body: `{"fleet":{"exc":{"large":10}}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
		})
	}
	if counter.plans != 0 || counter.progress != 0 {
		t.Fatalf("expected no planner calls, got plan=%d progress=%d", counter.plans, counter.progress)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/progress", strings.NewReader(`{"plans":[{},{"buffer":20}]}`)))
	if rec.Code != http.StatusOK || counter.progress != 1 {
		t.Fatalf("progress status = %d calls = %d, body %s", rec.Code, counter.progress, rec.Body.String())
	}
}

// TestLimitedPlannerErrors verifies guard errors carry the invalid request sentinel.
func TestLimitedPlannerErrors(t *testing.T) {
	planner := limitedPlanner{next: newPlanner(), limits: DefaultLimits()}
	far := 366
	if _, err := planner.Plan(context.Background(), common.PlanRequest{Buffer: &far}); !errors.Is(err, common.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	view, err := planner.Plan(context.Background(), common.PlanRequest{})
	if err != nil || view.End != 112 {
		t.Fatalf("Plan() end=%d error=%v", view.End, err)
	}
	if _, err := planner.Catalog(context.Background()); err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
}
