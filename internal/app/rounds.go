package app

import (
	"fmt"
	"strconv"

	"github.com/hylla/lobsim/internal/domain"
)

// FieldCheck compares one player-entered value with the engine answer.
type FieldCheck struct {
	Field    string
	Expected int64
	Value    int64
	Entered  bool
	Correct  bool
}

// checkField builds one field check from raw player input.
func checkField(field, raw string, expected int64, parse func(string) (int64, bool)) FieldCheck {
	value, ok := parse(raw)
	return FieldCheck{
		Field:    field,
		Expected: expected,
		Value:    value,
		Entered:  ok,
		Correct:  ok && value == expected,
	}
}

// AllCorrect reports whether every check was entered and correct.
func AllCorrect(checks []FieldCheck) bool {
	if len(checks) == 0 {
		return false
	}
	for _, check := range checks {
		if !check.Correct {
			return false
		}
	}
	return true
}

// parseDay64 adapts ParseDay to field checks.
func parseDay64(raw string) (int64, bool) {
	value, ok := ParseDay(raw)
	return int64(value), ok
}

// fieldAt returns raws[idx] or blank.
func fieldAt(raws []string, idx int) string {
	if idx < 0 || idx >= len(raws) {
		return ""
	}
	return raws[idx]
}

// Round1Input holds Gantt round entries in activity chain order.
// Durations and Ends are only read in player mode.
type Round1Input struct {
	Mode      domain.Mode
	Durations []string
	Starts    []string
	Ends      []string
}

// Round1Result is the outcome of the Gantt round.
type Round1Result struct {
	RoundPlan
	DurationChecks []FieldCheck
	Complete       bool
}

// GanttRound computes the round 1 schedule.
// Player mode records start/end pairs as entered; other modes derive ends from engine durations.
func (s *Service) GanttRound(in Round1Input) (Round1Result, error) {
	mode, err := domain.ParseMode(string(in.Mode))
	if err != nil {
		return Round1Result{}, err
	}
	reference, err := s.ReferenceSchedule()
	if err != nil {
		return Round1Result{}, err
	}

	var schedule domain.Schedule
	var out Round1Result
	switch mode {
	case domain.ModePlayer:
		starts, startErr := s.parseDays("start", in.Starts)
		if startErr != nil {
			return Round1Result{}, startErr
		}
		ends, endErr := s.parseDays("end", in.Ends)
		if endErr != nil {
			return Round1Result{}, endErr
		}
		schedule, err = domain.ManualSchedule(domain.ManualInput{
			TotalLength:      s.project.TotalLength,
			MobilizationDays: s.project.MobilizationDays,
			Activities:       s.catalog.Crews,
			Starts:           starts,
			Ends:             ends,
		})
		for idx, activity := range reference.Activities {
			out.DurationChecks = append(out.DurationChecks, checkField(
				string(activity.ID)+".duration", fieldAt(in.Durations, idx), int64(activity.Duration), parseDay64,
			))
		}
	default:
		starts, startErr := s.parseDays("start", in.Starts)
		if startErr != nil {
			return Round1Result{}, startErr
		}
		if mode.RevealsAnswers() {
			starts = fillDays(starts, reference.Activities, func(a domain.ScheduledActivity) int { return a.Start })
		}
		schedule, err = domain.PlaceSchedule(domain.PlacementInput{
			TotalLength:      s.project.TotalLength,
			MobilizationDays: s.project.MobilizationDays,
			Activities:       s.catalog.Crews,
			Starts:           starts,
		})
	}
	if err != nil {
		return Round1Result{}, err
	}
	out.RoundPlan = RoundPlan{Schedule: schedule}
	out.Complete = allPlotted(schedule)
	return out, nil
}

// BudgetInput holds the round 2 budget entries.
type BudgetInput struct {
	PerActivity map[domain.ActivityID]string
	Direct      string
	Indirect    string
	Profit      string
	Total       string
}

// Round2Input holds LOB round entries in activity chain order.
type Round2Input struct {
	Mode   domain.Mode
	Starts []string
	Ends   []string
	Budget BudgetInput
}

// Round2Result is the outcome of the LOB round.
type Round2Result struct {
	RoundPlan
	Reference       RoundPlan
	ScheduleChecks  []FieldCheck
	BudgetChecks    []FieldCheck
	ScheduleCorrect bool
	BudgetCorrect   bool
	AllCorrect      bool
	Complete        bool
}

// CheckLOBRound compares the revised schedule and budget entries against the buffered reference.
// The recorded budget is always the reference budget since durations do not change in this round.
func (s *Service) CheckLOBRound(in Round2Input) (Round2Result, error) {
	mode, err := domain.ParseMode(string(in.Mode))
	if err != nil {
		return Round2Result{}, err
	}
	reference, err := s.ReferencePlan()
	if err != nil {
		return Round2Result{}, err
	}
	starts, ends := in.Starts, in.Ends
	budget := in.Budget
	if mode.RevealsAnswers() {
		starts, ends, budget = revealRound2(reference, starts, ends, budget)
	}

	startDays, err := s.parseDays("start", starts)
	if err != nil {
		return Round2Result{}, err
	}
	endDays, err := s.parseDays("end", ends)
	if err != nil {
		return Round2Result{}, err
	}
	schedule, err := domain.ManualSchedule(domain.ManualInput{
		TotalLength:      s.project.TotalLength,
		MobilizationDays: s.project.MobilizationDays,
		Activities:       s.catalog.Crews,
		Starts:           startDays,
		Ends:             endDays,
	})
	if err != nil {
		return Round2Result{}, err
	}
	schedule.Buffer = s.project.DefaultBuffer

	out := Round2Result{
		RoundPlan: RoundPlan{
			Schedule: schedule,
			Cost:     reference.Cost,
			HasCost:  true,
			Spacing:  domain.AnalyzeSpacing(schedule, s.project.DefaultBuffer),
		},
		Reference: reference,
		Complete:  allPlotted(schedule),
	}
	for idx, activity := range reference.Schedule.Activities {
		out.ScheduleChecks = append(out.ScheduleChecks,
			checkField(string(activity.ID)+".start", fieldAt(starts, idx), int64(activity.Start), parseDay64),
			checkField(string(activity.ID)+".end", fieldAt(ends, idx), int64(activity.End), parseDay64),
		)
	}
	for _, item := range reference.Cost.PerActivity {
		out.BudgetChecks = append(out.BudgetChecks,
			checkField(string(item.ActivityID)+".cost", budget.PerActivity[item.ActivityID], item.Cost, ParseAmount))
	}
	out.BudgetChecks = append(out.BudgetChecks,
		checkField("direct", budget.Direct, reference.Cost.Direct, ParseAmount),
		checkField("indirect", budget.Indirect, reference.Cost.Indirect, ParseAmount),
		checkField("profit", budget.Profit, reference.Cost.Profit, ParseAmount),
		checkField("total", budget.Total, reference.Cost.Total, ParseAmount),
	)
	out.ScheduleCorrect = AllCorrect(out.ScheduleChecks)
	out.BudgetCorrect = AllCorrect(out.BudgetChecks)
	out.AllCorrect = out.ScheduleCorrect && out.BudgetCorrect
	return out, nil
}

// revealRound2 fills blank round 2 entries with reference values.
func revealRound2(reference RoundPlan, starts, ends []string, budget BudgetInput) ([]string, []string, BudgetInput) {
	n := len(reference.Schedule.Activities)
	outStarts, outEnds := make([]string, n), make([]string, n)
	for idx, activity := range reference.Schedule.Activities {
		outStarts[idx] = revealValue(fieldAt(starts, idx), int64(activity.Start))
		outEnds[idx] = revealValue(fieldAt(ends, idx), int64(activity.End))
	}
	per := make(map[domain.ActivityID]string, len(reference.Cost.PerActivity))
	for _, item := range reference.Cost.PerActivity {
		per[item.ActivityID] = revealValue(budget.PerActivity[item.ActivityID], item.Cost)
	}
	return outStarts, outEnds, BudgetInput{
		PerActivity: per,
		Direct:      revealValue(budget.Direct, reference.Cost.Direct),
		Indirect:    revealValue(budget.Indirect, reference.Cost.Indirect),
		Profit:      revealValue(budget.Profit, reference.Cost.Profit),
		Total:       revealValue(budget.Total, reference.Cost.Total),
	}
}

// revealValue keeps a parseable entry or substitutes the answer.
func revealValue(raw string, answer int64) string {
	if _, ok := ParseAmount(raw); ok {
		return raw
	}
	return strconv.FormatInt(answer, 10)
}

// Round3Input holds buffer round entries.
type Round3Input struct {
	Buffer int
	// BaseStart is the excavation start entered in round 2.
	BaseStart string
}

// Round3Result is the outcome of the buffer round.
type Round3Result struct {
	RoundPlan
	Reference RoundPlan
}

// BufferRound reschedules the crews with a player-chosen buffer.
// The first activity keeps the round 2 excavation start, or mobilization end plus one when blank.
func (s *Service) BufferRound(in Round3Input) (Round3Result, error) {
	reference, err := s.ReferencePlan()
	if err != nil {
		return Round3Result{}, err
	}
	buffer := ClampBuffer(in.Buffer, s.rounds.BufferMin, s.rounds.BufferMax)
	firstStart, ok := ParseDay(in.BaseStart)
	if !ok || firstStart <= 0 || firstStart > s.rounds.MaxDay {
		firstStart = s.project.MobilizationDays + 1
	}
	schedule, err := s.buildSchedule(s.catalog.Crews, buffer, firstStart)
	if err != nil {
		return Round3Result{}, err
	}
	plan, err := s.plan(schedule, buffer, false)
	if err != nil {
		return Round3Result{}, err
	}
	return Round3Result{RoundPlan: plan, Reference: reference}, nil
}

// Round4Input holds one equipment option index per activity.
type Round4Input struct {
	Equipment map[domain.ActivityID]int
}

// Round4Result is the outcome of the rate round.
type Round4Result struct {
	RoundPlan
	Reference RoundPlan
	Selected  map[domain.ActivityID]domain.EquipmentOption
}

// RateRound schedules one equipment unit per activity at the default buffer.
func (s *Service) RateRound(in Round4Input) (Round4Result, error) {
	reference, err := s.ReferencePlan()
	if err != nil {
		return Round4Result{}, err
	}
	activities, selected, err := s.equipmentActivities(in.Equipment)
	if err != nil {
		return Round4Result{}, err
	}
	schedule, err := s.buildSchedule(activities, s.project.DefaultBuffer, 0)
	if err != nil {
		return Round4Result{}, err
	}
	plan, err := s.plan(schedule, s.project.DefaultBuffer, false)
	if err != nil {
		return Round4Result{}, err
	}
	return Round4Result{RoundPlan: plan, Reference: reference, Selected: selected}, nil
}

// Round5Input holds unit counts per activity keyed by equipment option key, plus a buffer.
type Round5Input struct {
	Fleet  map[domain.ActivityID]map[string]int
	Buffer int
}

// OptimizeRound schedules equipment fleets and evaluates the owner constraints.
func (s *Service) OptimizeRound(in Round5Input) (RoundPlan, error) {
	buffer := ClampBuffer(in.Buffer, s.rounds.OptimizeBufferMin, s.rounds.OptimizeBufferMax)
	return s.fleetPlan(in.Fleet, buffer, 0)
}

// PlanRequest describes a stateless plan computation.
// Fleet takes precedence over Equipment; with neither the reference crews are scheduled.
type PlanRequest struct {
	Buffer     *int
	FirstStart int
	Equipment  map[domain.ActivityID]int
	Fleet      map[domain.ActivityID]map[string]int
}

// Plan computes a schedule, budget, spacing advisories and constraint check without touching session state.
func (s *Service) Plan(req PlanRequest) (RoundPlan, error) {
	buffer := s.project.DefaultBuffer
	if req.Buffer != nil {
		buffer = *req.Buffer
	}
	if req.FirstStart < 0 {
		return RoundPlan{}, fmt.Errorf("first start %d: %w", req.FirstStart, domain.ErrInvalidDuration)
	}
	switch {
	case len(req.Fleet) > 0:
		return s.fleetPlan(req.Fleet, buffer, req.FirstStart)
	case len(req.Equipment) > 0:
		activities, _, err := s.equipmentActivities(req.Equipment)
		if err != nil {
			return RoundPlan{}, err
		}
		schedule, err := s.buildSchedule(activities, buffer, req.FirstStart)
		if err != nil {
			return RoundPlan{}, err
		}
		return s.plan(schedule, buffer, true)
	default:
		schedule, err := s.buildSchedule(s.catalog.Crews, buffer, req.FirstStart)
		if err != nil {
			return RoundPlan{}, err
		}
		return s.plan(schedule, buffer, true)
	}
}

// equipmentActivities resolves one equipment option per crew, falling back to configured defaults.
func (s *Service) equipmentActivities(selection map[domain.ActivityID]int) ([]domain.Activity, map[domain.ActivityID]domain.EquipmentOption, error) {
	for id := range selection {
		if _, err := s.catalog.Crew(id); err != nil {
			return nil, nil, err
		}
	}
	activities := make([]domain.Activity, 0, len(s.catalog.Crews))
	selected := make(map[domain.ActivityID]domain.EquipmentOption, len(s.catalog.Crews))
	for _, crew := range s.catalog.Crews {
		index, ok := lookupActivity(selection, crew.ID)
		if !ok {
			index, ok = s.rounds.DefaultEquipment[crew.ID]
		}
		if !ok {
			activities = append(activities, crew)
			continue
		}
		activity, err := s.catalog.EquipmentActivity(crew.ID, index)
		if err != nil {
			return nil, nil, err
		}
		option, _ := s.catalog.Option(crew.ID, index)
		selected[crew.ID] = option
		activities = append(activities, activity)
	}
	return activities, selected, nil
}

// fleetPlan schedules fleet activities and evaluates the owner constraints.
func (s *Service) fleetPlan(fleet map[domain.ActivityID]map[string]int, buffer, firstStart int) (RoundPlan, error) {
	for id := range fleet {
		if _, err := s.catalog.Crew(id); err != nil {
			return RoundPlan{}, err
		}
	}
	activities := make([]domain.Activity, 0, len(s.catalog.Crews))
	fleets := make([]domain.Fleet, 0, len(s.catalog.Crews))
	for _, crew := range s.catalog.Crews {
		counts, ok := lookupActivity(fleet, crew.ID)
		if !ok {
			counts = s.rounds.DefaultFleet[crew.ID]
		}
		item, err := s.catalog.FleetActivity(crew.ID, counts)
		if err != nil {
			return RoundPlan{}, err
		}
		fleets = append(fleets, item)
		activities = append(activities, item.Activity)
	}
	schedule, err := s.buildSchedule(activities, buffer, firstStart)
	if err != nil {
		return RoundPlan{}, err
	}
	plan, err := s.plan(schedule, buffer, true)
	if err != nil {
		return RoundPlan{}, err
	}
	plan.Fleets = fleets
	return plan, nil
}

// lookupActivity finds a map entry by normalized activity id.
func lookupActivity[V any](values map[domain.ActivityID]V, id domain.ActivityID) (V, bool) {
	if value, ok := values[id]; ok {
		return value, true
	}
	id = domain.NormalizeActivityID(id)
	for key, value := range values {
		if domain.NormalizeActivityID(key) == id {
			return value, true
		}
	}
	var zero V
	return zero, false
}

// fillDays replaces non-positive entries with reference values.
func fillDays(values []int, reference []domain.ScheduledActivity, pick func(domain.ScheduledActivity) int) []int {
	out := make([]int, len(reference))
	for idx, activity := range reference {
		if idx < len(values) && values[idx] > 0 {
			out[idx] = values[idx]
			continue
		}
		out[idx] = pick(activity)
	}
	return out
}

// allPlotted reports whether every schedule row has a usable start/end pair.
func allPlotted(schedule domain.Schedule) bool {
	for _, activity := range schedule.Activities {
		if !activity.Plotted {
			return false
		}
	}
	return len(schedule.Activities) > 0
}

// Result converts the Gantt round into a retained round result.
func (r Round1Result) Result() domain.RoundResult {
	out := r.RoundPlan.Result(domain.RoundGantt)
	out.Correct = r.Complete
	return out
}

// Result converts the LOB round into a retained round result.
func (r Round2Result) Result() domain.RoundResult {
	out := r.RoundPlan.Result(domain.RoundLOB)
	out.Correct = r.ScheduleCorrect
	return out
}

// Result converts the buffer round into a retained round result.
func (r Round3Result) Result() domain.RoundResult {
	return r.RoundPlan.Result(domain.RoundBuffer)
}

// Result converts the rate round into a retained round result.
func (r Round4Result) Result() domain.RoundResult {
	return r.RoundPlan.Result(domain.RoundRate)
}
