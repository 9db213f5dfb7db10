// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
)

// ErrInvalidRequest reports malformed plan, progress or evaluate input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrPlannerUnavailable reports a missing planner backing.
var ErrPlannerUnavailable = errors.New("planner unavailable")

// EquipmentOption describes one selectable equipment set.
type EquipmentOption struct {
	Index     int    `json:"index"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Rate      int    `json:"rate"`
	DailyCost int64  `json:"daily_cost"`
}

// CatalogActivity describes one crew and its equipment options.
type CatalogActivity struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Crew      string            `json:"crew"`
	Rate      int               `json:"rate"`
	DailyCost int64             `json:"daily_cost"`
	Equipment []EquipmentOption `json:"equipment,omitempty"`
}

// ProjectView summarizes project parameters and owner targets.
type ProjectView struct {
	Name             string  `json:"name"`
	Unit             string  `json:"unit"`
	TotalLength      int     `json:"total_length"`
	MobilizationDays int     `json:"mobilization_days"`
	MobilizationCost int64   `json:"mobilization_cost"`
	DefaultBuffer    int     `json:"default_buffer"`
	IndirectRate     float64 `json:"indirect_rate"`
	ProfitRate       float64 `json:"profit_rate"`
	TargetDays       int     `json:"target_days"`
	TargetCost       int64   `json:"target_cost"`
}

// CatalogView is the catalog response shared by REST and MCP callers.
type CatalogView struct {
	Project    ProjectView       `json:"project"`
	Activities []CatalogActivity `json:"activities"`
}

// PlanRequest captures one stateless schedule computation.
// Fleet wins over Equipment; with neither the reference crews are planned.
type PlanRequest struct {
	Buffer     *int                      `json:"buffer,omitempty"`
	FirstStart int                       `json:"first_start,omitempty"`
	Equipment  map[string]int            `json:"equipment,omitempty"`
	Fleet      map[string]map[string]int `json:"fleet,omitempty"`
}

// ScheduleRow is one scheduled activity.
type ScheduleRow struct {
	ActivityID string `json:"activity_id"`
	Label      string `json:"label"`
	Crew       string `json:"crew"`
	Rate       int    `json:"rate"`
	DailyCost  int64  `json:"daily_cost"`
	Duration   int    `json:"duration"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Rule       string `json:"rule"`
	Units      int    `json:"units,omitempty"`
	ZeroRate   bool   `json:"zero_rate,omitempty"`
}

// CostView is the staged budget of one schedule.
type CostView struct {
	PerActivity  map[string]int64 `json:"per_activity"`
	Mobilization int64            `json:"mobilization"`
	Direct       int64            `json:"direct"`
	Indirect     int64            `json:"indirect"`
	Subtotal     int64            `json:"subtotal"`
	Profit       int64            `json:"profit"`
	Total        int64            `json:"total"`
}

// ConstraintView reports which owner targets a plan meets.
type ConstraintView struct {
	TargetDays int   `json:"target_days"`
	TargetCost int64 `json:"target_cost"`
	DurationOK bool  `json:"duration_ok"`
	CostOK     bool  `json:"cost_ok"`
	Pass       bool  `json:"pass"`
}

// SpacingView is one advisory about consecutive progress lines.
type SpacingView struct {
	Predecessor string `json:"predecessor"`
	Successor   string `json:"successor"`
	MinGap      int    `json:"min_gap"`
	Level       string `json:"level"`
	Message     string `json:"message"`
}

// PlanView is the computed plan returned to HTTP and MCP callers.
type PlanView struct {
	Buffer           int             `json:"buffer"`
	MobilizationDays int             `json:"mobilization_days"`
	Rows             []ScheduleRow   `json:"rows"`
	End              int             `json:"end"`
	Cost             CostView        `json:"cost"`
	Constraint       *ConstraintView `json:"constraint,omitempty"`
	Spacing          []SpacingView   `json:"spacing,omitempty"`
}

// ProgressRequest samples progress for one or more plans.
type ProgressRequest struct {
	Plans []PlanRequest `json:"plans"`
}

// ProgressSeriesView names one sampled line.
type ProgressSeriesView struct {
	Key        string `json:"key"`
	ActivityID string `json:"activity_id"`
	Label      string `json:"label"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// ProgressPoint stores cumulative progress per series key for one day.
type ProgressPoint struct {
	Day    int                `json:"day"`
	Values map[string]float64 `json:"values"`
}

// ProgressView is a sampled progress table.
type ProgressView struct {
	Horizon int                  `json:"horizon"`
	Series  []ProgressSeriesView `json:"series"`
	Samples []ProgressPoint      `json:"samples"`
}

// EvaluateRequest checks an end day and total cost against targets.
// Zero targets fall back to the configured owner targets.
type EvaluateRequest struct {
	End        int   `json:"end"`
	Total      int64 `json:"total"`
	TargetDays int   `json:"target_days,omitempty"`
	TargetCost int64 `json:"target_cost,omitempty"`
}

// Planner exposes the compute-only engine operations served over HTTP and MCP.
type Planner interface {
	Catalog(context.Context) (CatalogView, error)
	Plan(context.Context, PlanRequest) (PlanView, error)
	Progress(context.Context, ProgressRequest) (ProgressView, error)
	Evaluate(context.Context, EvaluateRequest) (ConstraintView, error)
}
