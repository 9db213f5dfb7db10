package domain

import (
	"errors"
	"testing"
)

// referenceInput returns the default pipeline scenario.
func referenceInput() ScheduleInput {
	return ScheduleInput{
		TotalLength:      15840,
		MobilizationDays: 14,
		Buffer:           5,
		Activities:       DefaultCatalog().Crews,
	}
}

func TestDurationCeiling(t *testing.T) {
	cases := []struct {
		length, rate, want int
	}{
		{15840, 220, 72},
		{15840, 180, 88},
		{15840, 250, 64},
		{1, 1000, 1},
		{100, 100, 1},
		{101, 100, 2},
	}
	for _, tc := range cases {
		got, err := Duration(tc.length, tc.rate)
		if err != nil {
			t.Fatalf("Duration(%d, %d) error = %v", tc.length, tc.rate, err)
		}
		if got != tc.want {
			t.Fatalf("Duration(%d, %d) = %d, want %d", tc.length, tc.rate, got, tc.want)
		}
	}
}

func TestDurationCeilingProperty(t *testing.T) {
	for length := 1; length <= 400; length += 7 {
		for rate := 1; rate <= 60; rate += 3 {
			got, err := Duration(length, rate)
			if err != nil {
				t.Fatalf("Duration() error = %v", err)
			}
			if got*rate < length || (got-1)*rate >= length {
				t.Fatalf("Duration(%d, %d) = %d violates ceiling", length, rate, got)
			}
		}
	}
}

func TestDurationRejectsInvalidInput(t *testing.T) {
	if _, err := Duration(100, 0); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := Duration(100, -3); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := Duration(0, 10); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestResolveBufferRule(t *testing.T) {
	if got := ResolveBufferRule(220, 180); got != BufferRuleSimple {
		t.Fatalf("expected simple for slower successor, got %q", got)
	}
	if got := ResolveBufferRule(180, 250); got != BufferRuleDelayed {
		t.Fatalf("expected delayed for faster successor, got %q", got)
	}
	if got := ResolveBufferRule(200, 200); got != BufferRuleDelayed {
		t.Fatalf("expected delayed for equal rates, got %q", got)
	}
}

func TestBuildScheduleReferenceScenario(t *testing.T) {
	schedule, err := BuildSchedule(referenceInput())
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	want := []struct {
		id              ActivityID
		dur, start, end int
		rule            BufferRule
	}{
		{ActivityExcavation, 72, 15, 86, BufferRuleFirst},
		{ActivityPipe, 88, 20, 107, BufferRuleSimple},
		{ActivityBackfill, 64, 49, 112, BufferRuleDelayed},
	}
	if len(schedule.Activities) != len(want) {
		t.Fatalf("expected %d activities, got %d", len(want), len(schedule.Activities))
	}
	for idx, w := range want {
		got := schedule.Activities[idx]
		if got.ID != w.id || got.Duration != w.dur || got.Start != w.start || got.End != w.end || got.Rule != w.rule {
			t.Fatalf("activity %d = %+v, want %+v", idx, got, w)
		}
		if got.End-got.Start+1 != got.Duration {
			t.Fatalf("activity %q end/start/duration mismatch", got.ID)
		}
	}
	if schedule.End != 112 {
		t.Fatalf("expected project end 112, got %d", schedule.End)
	}
	if from, to := schedule.Mobilization(); from != 1 || to != 14 {
		t.Fatalf("unexpected mobilization window %d-%d", from, to)
	}
}

func TestBuildScheduleIsDeterministic(t *testing.T) {
	a, err := BuildSchedule(referenceInput())
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	b, err := BuildSchedule(referenceInput())
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	for idx := range a.Activities {
		if a.Activities[idx] != b.Activities[idx] {
			t.Fatalf("activity %d differs between runs: %+v vs %+v", idx, a.Activities[idx], b.Activities[idx])
		}
	}
}

func TestBuildScheduleFirstStartOverrideAndZeroBuffer(t *testing.T) {
	in := referenceInput()
	in.FirstStart = 30
	in.Buffer = 0
	schedule, err := BuildSchedule(in)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	exc, _ := schedule.Find(ActivityExcavation)
	pipe, _ := schedule.Find(ActivityPipe)
	back, _ := schedule.Find(ActivityBackfill)
	if exc.Start != 30 || exc.End != 101 {
		t.Fatalf("unexpected excavation timing %+v", exc)
	}
	if pipe.Start != 30 {
		t.Fatalf("expected zero buffer to start pipe with excavation, got %d", pipe.Start)
	}
	if back.End != pipe.End {
		t.Fatalf("expected zero buffer delayed rule to finish with predecessor, got %d vs %d", back.End, pipe.End)
	}
}

func TestBuildScheduleNegativeBufferOverlaps(t *testing.T) {
	in := referenceInput()
	in.Buffer = -3
	schedule, err := BuildSchedule(in)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	if schedule.Activities[1].Start != 12 {
		t.Fatalf("expected negative buffer applied verbatim, got start %d", schedule.Activities[1].Start)
	}
}

func TestBuildScheduleValidation(t *testing.T) {
	in := referenceInput()
	in.Activities = nil
	if _, err := BuildSchedule(in); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}
	in = referenceInput()
	in.TotalLength = 0
	if _, err := BuildSchedule(in); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	in = referenceInput()
	in.Activities = []Activity{{ID: "x", Name: "X", Rate: 0}}
	if _, err := BuildSchedule(in); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestPlaceSchedule(t *testing.T) {
	schedule, err := PlaceSchedule(PlacementInput{
		TotalLength:      15840,
		MobilizationDays: 14,
		Activities:       DefaultCatalog().Crews,
		Starts:           []int{15, 87},
	})
	if err != nil {
		t.Fatalf("PlaceSchedule() error = %v", err)
	}
	if got := schedule.Activities[1]; !got.Plotted || got.End != 174 {
		t.Fatalf("unexpected placed pipe activity %+v", got)
	}
	if schedule.Activities[2].Plotted {
		t.Fatal("expected activity without start to stay unplotted")
	}
	if schedule.End != 174 {
		t.Fatalf("expected end 174, got %d", schedule.End)
	}
	if len(schedule.CostLines()) != 2 {
		t.Fatalf("expected cost lines for plotted rows only, got %d", len(schedule.CostLines()))
	}
}

func TestManualSchedule(t *testing.T) {
	schedule, err := ManualSchedule(ManualInput{
		TotalLength:      15840,
		MobilizationDays: 14,
		Activities:       DefaultCatalog().Crews,
		Starts:           []int{15, 87, 0},
		Ends:             []int{86, 50, 0},
	})
	if err != nil {
		t.Fatalf("ManualSchedule() error = %v", err)
	}
	if got := schedule.Activities[0]; !got.Plotted || got.Duration != 72 {
		t.Fatalf("unexpected manual excavation %+v", got)
	}
	if schedule.Activities[1].Plotted || schedule.Activities[2].Plotted {
		t.Fatal("expected invalid pairs to stay unplotted")
	}
	if schedule.End != 86 {
		t.Fatalf("expected end 86, got %d", schedule.End)
	}
}

func TestAggregateCostReferenceScenario(t *testing.T) {
	schedule, err := BuildSchedule(referenceInput())
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	cost, err := AggregateCost(CostInput{
		MobilizationCost: 25000,
		IndirectRate:     0.30,
		ProfitRate:       0.05,
		Lines:            schedule.CostLines(),
	})
	if err != nil {
		t.Fatalf("AggregateCost() error = %v", err)
	}
	if cost.Direct != 507400 || cost.Indirect != 152220 || cost.Subtotal != 659620 || cost.Profit != 32981 || cost.Total != 692601 {
		t.Fatalf("unexpected breakdown %+v", cost)
	}
	if got, ok := cost.Cost(ActivityPipe); !ok || got != 220000 {
		t.Fatalf("unexpected pipe cost %d (%t)", got, ok)
	}
}

func TestAggregateCostRoundsEachStage(t *testing.T) {
	cost, err := AggregateCost(CostInput{
		MobilizationCost: 0,
		IndirectRate:     0.5,
		ProfitRate:       0.5,
		Lines:            []CostLine{{ActivityID: "a", Duration: 1, DailyCost: 3}},
	})
	if err != nil {
		t.Fatalf("AggregateCost() error = %v", err)
	}
	// 3*0.5 = 1.5 rounds to 2; (3+2)*0.5 = 2.5 rounds to 3.
	if cost.Indirect != 2 || cost.Profit != 3 || cost.Total != 8 {
		t.Fatalf("unexpected staged rounding %+v", cost)
	}
}

func TestAggregateCostMonotonic(t *testing.T) {
	base := CostInput{MobilizationCost: 25000, IndirectRate: 0.3, ProfitRate: 0.05}
	prev := int64(-1)
	for dur := 0; dur <= 40; dur++ {
		in := base
		in.Lines = []CostLine{{ActivityID: "a", Duration: dur, DailyCost: 1234}}
		cost, err := AggregateCost(in)
		if err != nil {
			t.Fatalf("AggregateCost() error = %v", err)
		}
		if cost.Total < prev {
			t.Fatalf("total decreased at duration %d: %d < %d", dur, cost.Total, prev)
		}
		prev = cost.Total
	}
}

func TestAggregateCostValidation(t *testing.T) {
	if _, err := AggregateCost(CostInput{MobilizationCost: -1}); !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("expected ErrInvalidCost, got %v", err)
	}
	if _, err := AggregateCost(CostInput{IndirectRate: 1.5}); !errors.Is(err, ErrInvalidRateFraction) {
		t.Fatalf("expected ErrInvalidRateFraction, got %v", err)
	}
	if _, err := AggregateCost(CostInput{Lines: []CostLine{{Duration: -1}}}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := AggregateCost(CostInput{Lines: []CostLine{{Duration: 1, DailyCost: -5}}}); !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("expected ErrInvalidCost, got %v", err)
	}
}

func TestEvaluateReferenceScenario(t *testing.T) {
	got := ConstraintTarget{MaxDays: 55, MaxCost: 550000}.Evaluate(112, 692601)
	if got.DurationOK || got.CostOK || got.Pass {
		t.Fatalf("expected reference scenario to fail, got %+v", got)
	}
	got = Evaluate(55, 550000, 55, 550000)
	if !got.Pass {
		t.Fatalf("expected thresholds to be inclusive, got %+v", got)
	}
	got = Evaluate(50, 600000, 55, 550000)
	if !got.DurationOK || got.CostOK || got.Pass {
		t.Fatalf("unexpected partial result %+v", got)
	}
}
