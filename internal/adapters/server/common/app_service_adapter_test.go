package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// newTestAdapter builds an adapter over the reference service configuration.
func newTestAdapter() *AppServiceAdapter {
	svc := app.NewService(nil, func() string { return "s1" }, func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}, app.DefaultServiceConfig())
	return NewAppServiceAdapter(svc)
}

// TestAppServiceAdapterCatalog verifies catalog projection of project, targets and equipment.
func TestAppServiceAdapterCatalog(t *testing.T) {
	view, err := newTestAdapter().Catalog(context.Background())
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if view.Project.TotalLength != 15840 || view.Project.TargetDays != 55 || view.Project.TargetCost != 550000 {
		t.Fatalf("unexpected project view %+v", view.Project)
	}
	if len(view.Activities) != 3 || view.Activities[0].ID != "exc" {
		t.Fatalf("unexpected activities %+v", view.Activities)
	}
	if len(view.Activities[1].Equipment) != 2 || view.Activities[1].Equipment[1].Index != 1 {
		t.Fatalf("unexpected pipe equipment %+v", view.Activities[1].Equipment)
	}
}

// TestAppServiceAdapterPlanReference verifies the reference plan projection.
func TestAppServiceAdapterPlanReference(t *testing.T) {
	view, err := newTestAdapter().Plan(context.Background(), PlanRequest{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if view.End != 112 || view.Buffer != 5 || len(view.Rows) != 3 {
		t.Fatalf("unexpected plan %+v", view)
	}
	if view.Rows[1].Start != 20 || view.Rows[1].Rule != string(domain.BufferRuleSimple) {
		t.Fatalf("unexpected pipe row %+v", view.Rows[1])
	}
	if view.Cost.Total != 692601 || view.Cost.PerActivity["back"] == 0 {
		t.Fatalf("unexpected cost %+v", view.Cost)
	}
	if view.Constraint == nil || view.Constraint.Pass || view.Constraint.TargetDays != 55 {
		t.Fatalf("unexpected constraint %+v", view.Constraint)
	}
}

// TestAppServiceAdapterPlanFleetNormalizesKeys verifies fleet requests accept loosely formatted ids.
func TestAppServiceAdapterPlanFleetNormalizesKeys(t *testing.T) {
	view, err := newTestAdapter().Plan(context.Background(), PlanRequest{
		Fleet: map[string]map[string]int{
			" EXC ": {"Large": 2},
			"pipe":  {"standard": 0},
		},
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if view.Rows[0].Units != 2 {
		t.Fatalf("expected two excavation units, got %+v", view.Rows[0])
	}
	if !view.Rows[1].ZeroRate || view.Rows[1].Rate != 1 {
		t.Fatalf("expected zero-rate pipe fleet, got %+v", view.Rows[1])
	}
}

// TestAppServiceAdapterPlanMapsErrors verifies domain failures surface as invalid requests.
func TestAppServiceAdapterPlanMapsErrors(t *testing.T) {
	adapter := newTestAdapter()
	cases := map[string]PlanRequest{
		"unknown activity":  {Equipment: map[string]int{"paving": 0}},
		"unknown equipment": {Equipment: map[string]int{"exc": 9}},
		"negative units":    {Fleet: map[string]map[string]int{"exc": {"small": -1}}},
		"negative start":    {FirstStart: -3},
		"oversized fleet":   {Fleet: map[string]map[string]int{"exc": {"large": 1 << 62 / 165}}},
		"far first start":   {FirstStart: 1 << 40},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.Plan(context.Background(), req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

// TestAppServiceAdapterProgress verifies sampling of one or several plans on a shared horizon.
func TestAppServiceAdapterProgress(t *testing.T) {
	adapter := newTestAdapter()
	view, err := adapter.Progress(context.Background(), ProgressRequest{})
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if view.Horizon != 122 || len(view.Samples) != 62 || len(view.Series) != 3 {
		t.Fatalf("unexpected progress shape horizon=%d samples=%d series=%d", view.Horizon, len(view.Samples), len(view.Series))
	}
	last := view.Samples[len(view.Samples)-1]
	if last.Values["back0"] != 15840 {
		t.Fatalf("expected backfill complete at horizon, got %+v", last)
	}

	wide := 12
	view, err = adapter.Progress(context.Background(), ProgressRequest{Plans: []PlanRequest{{}, {Buffer: &wide}}})
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if len(view.Series) != 6 || view.Series[3].Key != "exc1" {
		t.Fatalf("unexpected comparison series %+v", view.Series)
	}

	_, err = adapter.Progress(context.Background(), ProgressRequest{Plans: make([]PlanRequest, maxProgressPlans+1)})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for too many plans, got %v", err)
	}

	far := 20_000_000
	_, err = adapter.Progress(context.Background(), ProgressRequest{Plans: []PlanRequest{{Buffer: &far}}})
	if !errors.Is(err, ErrInvalidRequest) || !errors.Is(err, domain.ErrDayOutOfRange) {
		t.Fatalf("expected ErrInvalidRequest for a far buffer, got %v", err)
	}
}

// TestAppServiceAdapterEvaluate verifies inclusive thresholds and target fallbacks.
func TestAppServiceAdapterEvaluate(t *testing.T) {
	adapter := newTestAdapter()
	got, err := adapter.Evaluate(context.Background(), EvaluateRequest{End: 55, Total: 550000})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got.Pass || got.TargetDays != 55 {
		t.Fatalf("expected inclusive pass against configured targets, got %+v", got)
	}
	got, err = adapter.Evaluate(context.Background(), EvaluateRequest{End: 112, Total: 692601, TargetDays: 120, TargetCost: 700000})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got.Pass || got.TargetCost != 700000 {
		t.Fatalf("expected pass against explicit targets, got %+v", got)
	}
	if _, err := adapter.Evaluate(context.Background(), EvaluateRequest{End: -1}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

// TestAppServiceAdapterRequiresService verifies nil adapters fail closed.
func TestAppServiceAdapterRequiresService(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.Catalog(context.Background()); !errors.Is(err, ErrPlannerUnavailable) {
		t.Fatalf("expected ErrPlannerUnavailable, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestAdapter().Plan(ctx, PlanRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestMapAppError verifies sentinel mapping keeps the source error chain.
func TestMapAppError(t *testing.T) {
	if mapAppError("op", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
	err := mapAppError("op", app.ErrNotFound)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected joined not found chain, got %v", err)
	}
	for _, cause := range []error{domain.ErrInvalidRate, domain.ErrDayOutOfRange, domain.ErrHorizonExceeded} {
		err = mapAppError("op", cause)
		if !errors.Is(err, ErrInvalidRequest) || !errors.Is(err, cause) {
			t.Fatalf("expected joined invalid request chain for %v, got %v", cause, err)
		}
	}
}
