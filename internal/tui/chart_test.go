package tui

import (
	"strconv"
	"strings"
	"testing"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// referencePlan returns the default crew plan.
func referencePlan(t *testing.T) (*app.Service, app.RoundPlan) {
	t.Helper()
	svc := app.NewService(nil, nil, nil, app.DefaultServiceConfig())
	plan, err := svc.ReferencePlan()
	if err != nil {
		t.Fatalf("ReferencePlan() error = %v", err)
	}
	return svc, plan
}

// TestRenderGantt verifies bars, day ranges and unplotted rows.
func TestRenderGantt(t *testing.T) {
	_, plan := referencePlan(t)
	out := renderGantt(plan.Schedule, 80)
	for _, want := range []string{"Mobilization", "1-14", "15-86", "20-107", "49-112", "112 day"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in gantt output:\n%s", want, out)
		}
	}

	partial := plan.Schedule
	partial.Activities = append([]domain.ScheduledActivity(nil), plan.Schedule.Activities...)
	partial.Activities[2].Plotted = false
	if out := renderGantt(partial, 80); !strings.Contains(out, "not plotted") {
		t.Fatalf("expected unplotted marker, got:\n%s", out)
	}
	if out := renderGantt(domain.Schedule{}, 80); !strings.Contains(out, "no plotted activities") {
		t.Fatalf("unexpected empty gantt %q", out)
	}
}

// TestRenderLOB verifies axis labels and a comparison legend.
func TestRenderLOB(t *testing.T) {
	svc, plan := referencePlan(t)
	buffer := 8
	wide, err := svc.Plan(app.PlanRequest{Buffer: &buffer})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	progress := svc.Progress(plan.Schedule, wide.Schedule)
	out := renderLOB(progress, []string{"R2", "R3"}, 60, 10)
	for _, want := range []string{"15840", strconv.Itoa(progress.Horizon) + " day", "Excavation & Bedding (R2)", "Backfill & Compaction (R3)", "●", "◆"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in LOB output:\n%s", want, out)
		}
	}
	if got := len(strings.Split(out, "\n")); got != 13 {
		t.Fatalf("expected 10 grid rows plus axis, labels and legend, got %d lines", got)
	}

	single := renderLOB(svc.Progress(plan.Schedule), []string{"R2"}, 60, 10)
	if strings.Contains(single, "(R2)") {
		t.Fatalf("expected no schedule names for a single plan:\n%s", single)
	}
	if out := renderLOB(domain.ProgressTable{}, nil, 60, 10); !strings.Contains(out, "no progress") {
		t.Fatalf("unexpected empty LOB %q", out)
	}
}

// TestSampleIndex verifies grid columns map onto both sample ends.
func TestSampleIndex(t *testing.T) {
	cases := []struct {
		col, cols, samples, want int
	}{
		{0, 60, 62, 0},
		{59, 60, 62, 61},
		{30, 60, 62, 31},
		{3, 1, 62, 0},
		{3, 10, 1, 0},
	}
	for _, tc := range cases {
		if got := sampleIndex(tc.col, tc.cols, tc.samples); got != tc.want {
			t.Fatalf("sampleIndex(%d, %d, %d) = %d, want %d", tc.col, tc.cols, tc.samples, got, tc.want)
		}
	}
}

// TestRenderTables verifies schedule and cost tables carry engine values.
func TestRenderTables(t *testing.T) {
	_, plan := referencePlan(t)
	schedule := renderScheduleTable(plan.Schedule)
	for _, want := range []string{"Excavation", "Crew A", "72", "delayed", "Project end: day 112"} {
		if !strings.Contains(schedule, want) {
			t.Fatalf("expected %q in schedule table:\n%s", want, schedule)
		}
	}
	cost := renderCost(plan.Cost, plan.Schedule)
	for _, want := range []string{"$25,000", "$507,400", "$152,220", "$32,981", "$692,601"} {
		if !strings.Contains(cost, want) {
			t.Fatalf("expected %q in cost table:\n%s", want, cost)
		}
	}
}

// TestRenderConstraintAndSpacing verifies pass/fail and advisory text.
func TestRenderConstraintAndSpacing(t *testing.T) {
	targets := domain.ConstraintTarget{MaxDays: 55, MaxCost: 550000}
	fail := renderConstraint(112, 692601, targets, targets.Evaluate(112, 692601))
	if !strings.Contains(fail, "not met") || !strings.Contains(fail, "$692,601") {
		t.Fatalf("unexpected failing constraint text:\n%s", fail)
	}
	pass := renderConstraint(55, 550000, targets, targets.Evaluate(55, 550000))
	if !strings.Contains(pass, "Owner constraints met") {
		t.Fatalf("unexpected passing constraint text:\n%s", pass)
	}

	advisories := []domain.SpacingAdvisory{
		{Level: domain.SpacingCrossing, Message: "Backfill catches up with Pipe Laying"},
		{Level: domain.SpacingTight, Message: "Pipe Laying trails Excavation by 2 days"},
		{Level: domain.SpacingOK, Message: "fine"},
	}
	out := renderSpacing(advisories)
	for _, want := range []string{"✗ Backfill", "! Pipe", "✓"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in spacing output:\n%s", want, out)
		}
	}
	if renderSpacing(nil) != "" {
		t.Fatal("expected empty spacing output")
	}
}

// TestRenderBufferGauge verifies the gauge marks the current value.
func TestRenderBufferGauge(t *testing.T) {
	out := renderBufferGauge(5, 1, 15)
	if !strings.Contains(out, "buffer = 5 days") || strings.Count(out, "●") != 1 {
		t.Fatalf("unexpected gauge %q", out)
	}
	if out := renderBufferGauge(3, 4, 4); out != "buffer 3 days" {
		t.Fatalf("unexpected degenerate gauge %q", out)
	}
}
