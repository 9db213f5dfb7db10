package server

import (
	"context"
	"fmt"

	"github.com/hylla/lobsim/internal/adapters/server/common"
	"github.com/hylla/lobsim/internal/domain"
)

// Limits bounds plan and progress requests before they reach the planner.
type Limits struct {
	MaxProgressPlans int
	MaxBuffer        int
	MaxFirstStart    int
	MaxUnits         int
}

// DefaultLimits returns the serve-mode request bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxProgressPlans: 4,
		MaxBuffer:        365,
		MaxFirstStart:    3650,
		MaxUnits:         domain.MaxFleetUnits,
	}
}

// normalizeLimits fills unset limits with defaults and rejects negative ones.
func normalizeLimits(in Limits) (Limits, error) {
	if in.MaxProgressPlans < 0 || in.MaxBuffer < 0 || in.MaxFirstStart < 0 || in.MaxUnits < 0 {
		return Limits{}, fmt.Errorf("server limits must not be negative")
	}
	defaults := DefaultLimits()
	if in.MaxProgressPlans == 0 {
		in.MaxProgressPlans = defaults.MaxProgressPlans
	}
	if in.MaxBuffer == 0 {
		in.MaxBuffer = defaults.MaxBuffer
	}
	if in.MaxFirstStart == 0 {
		in.MaxFirstStart = defaults.MaxFirstStart
	}
	if in.MaxUnits == 0 {
		in.MaxUnits = defaults.MaxUnits
	}
	return in, nil
}

// limitedPlanner rejects requests outside Limits and forwards the rest.
type limitedPlanner struct {
	next   common.Planner
	limits Limits
}

// Catalog forwards catalog reads unchanged.
func (p limitedPlanner) Catalog(ctx context.Context) (common.CatalogView, error) {
	return p.next.Catalog(ctx)
}

// Plan checks one plan request against the limits.
func (p limitedPlanner) Plan(ctx context.Context, in common.PlanRequest) (common.PlanView, error) {
	if err := p.checkPlan("plan", in); err != nil {
		return common.PlanView{}, err
	}
	return p.next.Plan(ctx, in)
}

// Progress checks the plan count and every plan against the limits.
func (p limitedPlanner) Progress(ctx context.Context, in common.ProgressRequest) (common.ProgressView, error) {
	if len(in.Plans) > p.limits.MaxProgressPlans {
		return common.ProgressView{}, fmt.Errorf("progress: at most %d plans, got %d: %w", p.limits.MaxProgressPlans, len(in.Plans), common.ErrInvalidRequest)
	}
	for idx, plan := range in.Plans {
		if err := p.checkPlan(fmt.Sprintf("progress plans[%d]", idx), plan); err != nil {
			return common.ProgressView{}, err
		}
	}
	return p.next.Progress(ctx, in)
}

// Evaluate forwards constraint checks unchanged.
func (p limitedPlanner) Evaluate(ctx context.Context, in common.EvaluateRequest) (common.ConstraintView, error) {
	return p.next.Evaluate(ctx, in)
}

// checkPlan bounds buffer, first start and fleet unit counts.
func (p limitedPlanner) checkPlan(operation string, in common.PlanRequest) error {
	if in.Buffer != nil && (*in.Buffer > p.limits.MaxBuffer || *in.Buffer < -p.limits.MaxBuffer) {
		return fmt.Errorf("%s: buffer %d beyond %d: %w", operation, *in.Buffer, p.limits.MaxBuffer, common.ErrInvalidRequest)
	}
	if in.FirstStart > p.limits.MaxFirstStart {
		return fmt.Errorf("%s: first_start %d beyond %d: %w", operation, in.FirstStart, p.limits.MaxFirstStart, common.ErrInvalidRequest)
	}
	for id, counts := range in.Fleet {
		for key, n := range counts {
			if n > p.limits.MaxUnits {
				return fmt.Errorf("%s: fleet %s.%s=%d beyond %d units: %w", operation, id, key, n, p.limits.MaxUnits, common.ErrInvalidRequest)
			}
		}
	}
	return nil
}
