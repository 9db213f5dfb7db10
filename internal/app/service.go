package app

import (
	"fmt"
	"maps"
	"time"

	"github.com/hylla/lobsim/internal/domain"
)

// ProjectParams holds the fixed reference data of the simulated project.
type ProjectParams struct {
	Name             string
	Unit             string
	TotalLength      int
	MobilizationDays int
	MobilizationCost int64
	DefaultBuffer    int
	IndirectRate     float64
	ProfitRate       float64
}

// RoundLimits holds per-round input bounds and starting selections.
type RoundLimits struct {
	BufferMin         int
	BufferMax         int
	OptimizeBufferMin int
	OptimizeBufferMax int
	// MaxDay bounds entered days, buffers and schedule ends. Zero derives it from the project.
	MaxDay            int
	DefaultEquipment  map[domain.ActivityID]int
	DefaultFleet      map[domain.ActivityID]map[string]int
}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Project ProjectParams
	Catalog domain.Catalog
	Targets domain.ConstraintTarget
	Chart   domain.SampleOptions
	Rounds  RoundLimits
}

// DefaultProjectParams returns the reference pipeline project.
func DefaultProjectParams() ProjectParams {
	return ProjectParams{
		Name:             "Sewer Pipeline",
		Unit:             "ft",
		TotalLength:      15840,
		MobilizationDays: 14,
		MobilizationCost: 25000,
		DefaultBuffer:    5,
		IndirectRate:     0.30,
		ProfitRate:       0.05,
	}
}

// DefaultRoundLimits returns the reference round bounds and selections.
func DefaultRoundLimits() RoundLimits {
	return RoundLimits{
		BufferMin:         1,
		BufferMax:         15,
		OptimizeBufferMin: 1,
		OptimizeBufferMax: 10,
		DefaultEquipment: map[domain.ActivityID]int{
			domain.ActivityExcavation: 1,
			domain.ActivityPipe:       0,
			domain.ActivityBackfill:   1,
		},
		DefaultFleet: map[domain.ActivityID]map[string]int{
			domain.ActivityExcavation: {"standard": 1},
			domain.ActivityPipe:       {"standard": 1},
			domain.ActivityBackfill:   {"standard": 1},
		},
	}
}

// DefaultServiceConfig returns the reference game configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Project: DefaultProjectParams(),
		Catalog: domain.DefaultCatalog(),
		Targets: domain.ConstraintTarget{MaxDays: 55, MaxCost: 550000},
		Chart:   domain.DefaultSampleOptions(),
		Rounds:  DefaultRoundLimits(),
	}
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service computes round plans and tracks play-through results.
type Service struct {
	store   ResultStore
	idGen   IDGenerator
	clock   Clock
	project ProjectParams
	catalog domain.Catalog
	targets domain.ConstraintTarget
	chart   domain.SampleOptions
	rounds  RoundLimits
}

// NewService constructs a new value for this package.
func NewService(store ResultStore, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	defaults := DefaultServiceConfig()
	if cfg.Project.TotalLength <= 0 {
		cfg.Project = defaults.Project
	}
	if cfg.Project.Unit == "" {
		cfg.Project.Unit = defaults.Project.Unit
	}
	if len(cfg.Catalog.Crews) == 0 {
		cfg.Catalog = defaults.Catalog
	}
	if cfg.Targets == (domain.ConstraintTarget{}) {
		cfg.Targets = defaults.Targets
	}
	if cfg.Chart.Step <= 0 {
		cfg.Chart = defaults.Chart
	}
	if cfg.Rounds.BufferMax <= 0 {
		cfg.Rounds.BufferMin, cfg.Rounds.BufferMax = defaults.Rounds.BufferMin, defaults.Rounds.BufferMax
	}
	if cfg.Rounds.OptimizeBufferMax <= 0 {
		cfg.Rounds.OptimizeBufferMin, cfg.Rounds.OptimizeBufferMax = defaults.Rounds.OptimizeBufferMin, defaults.Rounds.OptimizeBufferMax
	}
	if cfg.Rounds.DefaultEquipment == nil {
		cfg.Rounds.DefaultEquipment = defaults.Rounds.DefaultEquipment
	}
	if cfg.Rounds.DefaultFleet == nil {
		cfg.Rounds.DefaultFleet = defaults.Rounds.DefaultFleet
	}
	if cfg.Rounds.MaxDay <= 0 {
		cfg.Rounds.MaxDay = domain.DayLimit(
			cfg.Project.TotalLength,
			cfg.Project.MobilizationDays,
			len(cfg.Catalog.Crews),
			max(cfg.Rounds.BufferMax, cfg.Rounds.OptimizeBufferMax, cfg.Project.DefaultBuffer),
		)
	}
	if cfg.Chart.MaxHorizon <= 0 {
		cfg.Chart.MaxHorizon = max(cfg.Rounds.MaxDay, cfg.Chart.MinHorizon) + max(cfg.Chart.MarginDays, 0)
	}

	return &Service{
		store:   store,
		idGen:   idGen,
		clock:   clock,
		project: cfg.Project,
		catalog: cfg.Catalog,
		targets: cfg.Targets,
		chart:   cfg.Chart,
		rounds:  cfg.Rounds,
	}
}

// Project returns the configured project parameters.
func (s *Service) Project() ProjectParams {
	return s.project
}

// Catalog returns the configured crew and equipment catalog.
func (s *Service) Catalog() domain.Catalog {
	return s.catalog
}

// Targets returns the owner constraint thresholds.
func (s *Service) Targets() domain.ConstraintTarget {
	return s.targets
}

// Limits returns the configured round bounds and starting selections.
func (s *Service) Limits() RoundLimits {
	out := s.rounds
	out.DefaultEquipment = maps.Clone(s.rounds.DefaultEquipment)
	out.DefaultFleet = make(map[domain.ActivityID]map[string]int, len(s.rounds.DefaultFleet))
	for id, counts := range s.rounds.DefaultFleet {
		out.DefaultFleet[id] = maps.Clone(counts)
	}
	return out
}

// RoundPlan bundles the engine outputs for one computed schedule.
type RoundPlan struct {
	Schedule      domain.Schedule
	Cost          domain.CostBreakdown
	HasCost       bool
	Constraint    domain.ConstraintResult
	HasConstraint bool
	Spacing       []domain.SpacingAdvisory
	Fleets        []domain.Fleet
}

// Result converts a plan into a retained round result.
func (p RoundPlan) Result(round domain.Round) domain.RoundResult {
	return domain.RoundResult{
		Round:         round,
		Buffer:        p.Schedule.Buffer,
		Rows:          domain.RowsFromSchedule(p.Schedule),
		End:           p.Schedule.End,
		Cost:          p.Cost,
		HasCost:       p.HasCost,
		Constraint:    p.Constraint,
		HasConstraint: p.HasConstraint,
	}
}

// ReferenceSchedule returns the crew schedule at the default buffer.
func (s *Service) ReferenceSchedule() (domain.Schedule, error) {
	return s.buildSchedule(s.catalog.Crews, s.project.DefaultBuffer, 0)
}

// ReferenceCost returns the budget of the reference schedule.
func (s *Service) ReferenceCost() (domain.CostBreakdown, error) {
	schedule, err := s.ReferenceSchedule()
	if err != nil {
		return domain.CostBreakdown{}, err
	}
	return s.cost(schedule)
}

// ReferencePlan returns the reference schedule with its budget and constraint check.
func (s *Service) ReferencePlan() (RoundPlan, error) {
	schedule, err := s.ReferenceSchedule()
	if err != nil {
		return RoundPlan{}, err
	}
	return s.plan(schedule, s.project.DefaultBuffer, true)
}

// Progress samples progress curves with the configured chart options.
// The horizon never runs past the configured maximum.
func (s *Service) Progress(schedules ...domain.Schedule) domain.ProgressTable {
	return domain.SampleProgress(schedules, s.chart)
}

// SampleProgress samples progress curves, refusing schedules that reach past the maximum horizon.
func (s *Service) SampleProgress(schedules ...domain.Schedule) (domain.ProgressTable, error) {
	if err := domain.CheckHorizon(schedules, s.chart); err != nil {
		return domain.ProgressTable{}, err
	}
	return domain.SampleProgress(schedules, s.chart), nil
}

// buildSchedule runs the buffer scheduler with project parameters.
// Buffers, first starts and the resulting end must stay within the day limit.
func (s *Service) buildSchedule(activities []domain.Activity, buffer, firstStart int) (domain.Schedule, error) {
	if err := domain.CheckDay("buffer", buffer, s.rounds.MaxDay); err != nil {
		return domain.Schedule{}, err
	}
	if err := domain.CheckDay("first start", firstStart, s.rounds.MaxDay); err != nil {
		return domain.Schedule{}, err
	}
	schedule, err := domain.BuildSchedule(domain.ScheduleInput{
		TotalLength:      s.project.TotalLength,
		MobilizationDays: s.project.MobilizationDays,
		Buffer:           buffer,
		FirstStart:       firstStart,
		Activities:       activities,
	})
	if err != nil {
		return domain.Schedule{}, err
	}
	if err := domain.CheckDay("end", schedule.End, s.rounds.MaxDay); err != nil {
		return domain.Schedule{}, err
	}
	return schedule, nil
}

// parseDays parses day entries and rejects values beyond the day limit.
func (s *Service) parseDays(field string, raws []string) ([]int, error) {
	out := ParseDays(raws)
	for idx, value := range out {
		if err := domain.CheckDay(fmt.Sprintf("%s[%d]", field, idx), value, s.rounds.MaxDay); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// cost aggregates the budget for every plotted activity of a schedule.
func (s *Service) cost(schedule domain.Schedule) (domain.CostBreakdown, error) {
	return domain.AggregateCost(domain.CostInput{
		MobilizationCost: s.project.MobilizationCost,
		IndirectRate:     s.project.IndirectRate,
		ProfitRate:       s.project.ProfitRate,
		Lines:            schedule.CostLines(),
	})
}

// plan assembles cost, spacing and optionally the constraint check for a schedule.
func (s *Service) plan(schedule domain.Schedule, buffer int, withConstraint bool) (RoundPlan, error) {
	cost, err := s.cost(schedule)
	if err != nil {
		return RoundPlan{}, fmt.Errorf("aggregate cost: %w", err)
	}
	out := RoundPlan{
		Schedule: schedule,
		Cost:     cost,
		HasCost:  true,
		Spacing:  domain.AnalyzeSpacing(schedule, buffer),
	}
	if withConstraint {
		out.Constraint = s.targets.Evaluate(schedule.End, cost.Total)
		out.HasConstraint = true
	}
	return out, nil
}
