package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// maxProgressPlans bounds one progress request.
const maxProgressPlans = 4

// AppServiceAdapter maps transport contracts onto app.Service compute APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Catalog returns project parameters, targets and the crew/equipment catalog.
func (a *AppServiceAdapter) Catalog(ctx context.Context) (CatalogView, error) {
	if err := a.ready(ctx); err != nil {
		return CatalogView{}, err
	}
	project := a.service.Project()
	targets := a.service.Targets()
	catalog := a.service.Catalog()
	out := CatalogView{
		Project: ProjectView{
			Name:             project.Name,
			Unit:             project.Unit,
			TotalLength:      project.TotalLength,
			MobilizationDays: project.MobilizationDays,
			MobilizationCost: project.MobilizationCost,
			DefaultBuffer:    project.DefaultBuffer,
			IndirectRate:     project.IndirectRate,
			ProfitRate:       project.ProfitRate,
			TargetDays:       targets.MaxDays,
			TargetCost:       targets.MaxCost,
		},
		Activities: make([]CatalogActivity, 0, len(catalog.Crews)),
	}
	for _, crew := range catalog.Crews {
		item := CatalogActivity{
			ID:        string(crew.ID),
			Name:      crew.Name,
			Crew:      crew.Crew,
			Rate:      crew.Rate,
			DailyCost: crew.DailyCost,
		}
		for idx, option := range catalog.Options(crew.ID) {
			item.Equipment = append(item.Equipment, EquipmentOption{
				Index:     idx,
				Key:       option.Key,
				Name:      option.Name,
				Rate:      option.Rate,
				DailyCost: option.DailyCost,
			})
		}
		out.Activities = append(out.Activities, item)
	}
	return out, nil
}

// Plan computes one schedule with budget, spacing and constraint check.
func (a *AppServiceAdapter) Plan(ctx context.Context, in PlanRequest) (PlanView, error) {
	if err := a.ready(ctx); err != nil {
		return PlanView{}, err
	}
	plan, err := a.service.Plan(toAppPlanRequest(in))
	if err != nil {
		return PlanView{}, mapAppError("plan", err)
	}
	return planView(plan, a.service.Targets()), nil
}

// Progress samples progress curves for up to four plans on one shared horizon.
func (a *AppServiceAdapter) Progress(ctx context.Context, in ProgressRequest) (ProgressView, error) {
	if err := a.ready(ctx); err != nil {
		return ProgressView{}, err
	}
	plans := in.Plans
	if len(plans) == 0 {
		plans = []PlanRequest{{}}
	}
	if len(plans) > maxProgressPlans {
		return ProgressView{}, fmt.Errorf("progress: at most %d plans, got %d: %w", maxProgressPlans, len(plans), ErrInvalidRequest)
	}
	schedules := make([]domain.Schedule, 0, len(plans))
	for idx, req := range plans {
		plan, err := a.service.Plan(toAppPlanRequest(req))
		if err != nil {
			return ProgressView{}, mapAppError(fmt.Sprintf("progress plans[%d]", idx), err)
		}
		schedules = append(schedules, plan.Schedule)
	}
	table, err := a.service.SampleProgress(schedules...)
	if err != nil {
		return ProgressView{}, mapAppError("progress", err)
	}
	out := ProgressView{
		Horizon: table.Horizon,
		Series:  make([]ProgressSeriesView, 0, len(table.Series)),
		Samples: make([]ProgressPoint, 0, len(table.Samples)),
	}
	for _, series := range table.Series {
		if !series.Plotted {
			continue
		}
		out.Series = append(out.Series, ProgressSeriesView{
			Key:        series.Key,
			ActivityID: string(series.ActivityID),
			Label:      series.Label,
			Start:      series.Start,
			End:        series.End,
		})
	}
	for _, sample := range table.Samples {
		out.Samples = append(out.Samples, ProgressPoint{Day: sample.Day, Values: sample.Values})
	}
	return out, nil
}

// Evaluate checks an end day and total cost against explicit or configured targets.
func (a *AppServiceAdapter) Evaluate(ctx context.Context, in EvaluateRequest) (ConstraintView, error) {
	if err := a.ready(ctx); err != nil {
		return ConstraintView{}, err
	}
	if in.End < 0 || in.Total < 0 || in.TargetDays < 0 || in.TargetCost < 0 {
		return ConstraintView{}, fmt.Errorf("evaluate: values must not be negative: %w", ErrInvalidRequest)
	}
	targets := a.service.Targets()
	if in.TargetDays > 0 {
		targets.MaxDays = in.TargetDays
	}
	if in.TargetCost > 0 {
		targets.MaxCost = in.TargetCost
	}
	return constraintView(targets, targets.Evaluate(in.End, in.Total)), nil
}

// ready reports whether the adapter can serve a request.
func (a *AppServiceAdapter) ready(ctx context.Context) error {
	if a == nil || a.service == nil {
		return ErrPlannerUnavailable
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// toAppPlanRequest normalizes transport activity ids into an app plan request.
func toAppPlanRequest(in PlanRequest) app.PlanRequest {
	out := app.PlanRequest{Buffer: in.Buffer, FirstStart: in.FirstStart}
	if len(in.Equipment) > 0 {
		out.Equipment = make(map[domain.ActivityID]int, len(in.Equipment))
		for id, idx := range in.Equipment {
			out.Equipment[domain.NormalizeActivityID(domain.ActivityID(id))] = idx
		}
	}
	if len(in.Fleet) > 0 {
		out.Fleet = make(map[domain.ActivityID]map[string]int, len(in.Fleet))
		for id, counts := range in.Fleet {
			normalized := make(map[string]int, len(counts))
			for key, n := range counts {
				normalized[strings.ToLower(strings.TrimSpace(key))] = n
			}
			out.Fleet[domain.NormalizeActivityID(domain.ActivityID(id))] = normalized
		}
	}
	return out
}

// planView converts an app plan into its transport shape.
func planView(plan app.RoundPlan, targets domain.ConstraintTarget) PlanView {
	units := make(map[domain.ActivityID]domain.Fleet, len(plan.Fleets))
	for _, fleet := range plan.Fleets {
		units[fleet.Activity.ID] = fleet
	}
	out := PlanView{
		Buffer:           plan.Schedule.Buffer,
		MobilizationDays: plan.Schedule.MobilizationDays,
		Rows:             make([]ScheduleRow, 0, len(plan.Schedule.Activities)),
		End:              plan.Schedule.End,
		Cost: CostView{
			PerActivity:  make(map[string]int64, len(plan.Cost.PerActivity)),
			Mobilization: plan.Cost.Mobilization,
			Direct:       plan.Cost.Direct,
			Indirect:     plan.Cost.Indirect,
			Subtotal:     plan.Cost.Subtotal,
			Profit:       plan.Cost.Profit,
			Total:        plan.Cost.Total,
		},
	}
	for _, item := range plan.Schedule.Activities {
		row := ScheduleRow{
			ActivityID: string(item.ID),
			Label:      item.Label,
			Crew:       item.Crew,
			Rate:       item.Rate,
			DailyCost:  item.DailyCost,
			Duration:   item.Duration,
			Start:      item.Start,
			End:        item.End,
			Rule:       string(item.Rule),
		}
		if fleet, ok := units[item.ID]; ok {
			row.Units = fleet.Units
			row.ZeroRate = fleet.ZeroRate
		}
		out.Rows = append(out.Rows, row)
	}
	for _, line := range plan.Cost.PerActivity {
		out.Cost.PerActivity[string(line.ActivityID)] = line.Cost
	}
	if plan.HasConstraint {
		view := constraintView(targets, plan.Constraint)
		out.Constraint = &view
	}
	for _, advisory := range plan.Spacing {
		out.Spacing = append(out.Spacing, SpacingView{
			Predecessor: string(advisory.Predecessor),
			Successor:   string(advisory.Successor),
			MinGap:      advisory.MinGap,
			Level:       string(advisory.Level),
			Message:     advisory.Message,
		})
	}
	return out
}

// constraintView converts a constraint result with its thresholds.
func constraintView(targets domain.ConstraintTarget, result domain.ConstraintResult) ConstraintView {
	return ConstraintView{
		TargetDays: targets.MaxDays,
		TargetCost: targets.MaxCost,
		DurationOK: result.DurationOK,
		CostOK:     result.CostOK,
		Pass:       result.Pass,
	}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrUnknownActivity),
		errors.Is(err, domain.ErrUnknownEquipment),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrInvalidCost),
		errors.Is(err, domain.ErrInvalidLength),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidRateFraction),
		errors.Is(err, domain.ErrInvalidUnitCount),
		errors.Is(err, domain.ErrEmptySchedule),
		errors.Is(err, domain.ErrDayOutOfRange),
		errors.Is(err, domain.ErrHorizonExceeded):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
