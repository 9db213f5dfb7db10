package domain

import (
	"fmt"
	"iter"
	"math"
)

// SampleOptions configures progress-curve sampling.
type SampleOptions struct {
	Step       int
	MarginDays int
	MinHorizon int
	// MaxHorizon caps the last sampled day when positive.
	MaxHorizon int
}

// DefaultSampleOptions returns the sampling cadence used by the line-of-balance charts.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Step: 2, MarginDays: 10, MinHorizon: 100}
}

// ProgressSeries describes one plotted progress line.
type ProgressSeries struct {
	Key           string
	ScheduleIndex int
	ActivityID    ActivityID
	Label         string
	Start         int
	End           int
	Length        int
	Plotted       bool
}

// ProgressSample stores cumulative progress per series key for one day.
type ProgressSample struct {
	Day    int
	Values map[string]float64
}

// ProgressTable is a collected progress sampling.
type ProgressTable struct {
	Horizon int
	Series  []ProgressSeries
	Samples []ProgressSample
}

// ProgressAt returns cumulative progress on day for an activity running from start to end.
func ProgressAt(length, start, end, day int) float64 {
	switch {
	case day < start:
		return 0
	case day > end || start == end:
		return float64(length)
	default:
		return float64(day-start) / float64(end-start) * float64(length)
	}
}

// ProgressSeriesFor lists one series per activity per schedule, keyed by activity id and schedule index.
func ProgressSeriesFor(schedules []Schedule) []ProgressSeries {
	out := make([]ProgressSeries, 0)
	for sIdx, schedule := range schedules {
		for _, activity := range schedule.Activities {
			out = append(out, ProgressSeries{
				Key:           fmt.Sprintf("%s%d", activity.ID, sIdx),
				ScheduleIndex: sIdx,
				ActivityID:    activity.ID,
				Label:         activity.Label,
				Start:         activity.Start,
				End:           activity.End,
				Length:        schedule.TotalLength,
				Plotted:       activity.Plotted && activity.Start > 0 && activity.End >= activity.Start,
			})
		}
	}
	return out
}

// ProgressHorizon returns the last sampled day for the provided schedules, capped at MaxHorizon.
func ProgressHorizon(schedules []Schedule, opts SampleOptions) int {
	opts = normalizeSampleOptions(opts)
	horizon := uncappedHorizon(schedules, opts)
	if opts.MaxHorizon > 0 {
		horizon = min(horizon, opts.MaxHorizon)
	}
	return horizon
}

// CheckHorizon reports ErrHorizonExceeded when the schedules reach past MaxHorizon.
func CheckHorizon(schedules []Schedule, opts SampleOptions) error {
	opts = normalizeSampleOptions(opts)
	if opts.MaxHorizon <= 0 {
		return nil
	}
	if horizon := uncappedHorizon(schedules, opts); horizon > opts.MaxHorizon {
		return fmt.Errorf("%w: day %d past %d", ErrHorizonExceeded, horizon, opts.MaxHorizon)
	}
	return nil
}

// uncappedHorizon returns max(last plotted end, MinHorizon) plus the margin.
func uncappedHorizon(schedules []Schedule, opts SampleOptions) int {
	maxEnd := 0
	for _, schedule := range schedules {
		for _, activity := range schedule.Activities {
			if activity.Plotted {
				maxEnd = max(maxEnd, activity.End)
			}
		}
	}
	maxEnd = max(maxEnd, opts.MinHorizon)
	if maxEnd > math.MaxInt-opts.MarginDays {
		return math.MaxInt
	}
	return maxEnd + opts.MarginDays
}

// ProgressSamples yields cumulative progress every Step days from day 0 through the horizon.
// Unplotted series never appear in sample values.
func ProgressSamples(schedules []Schedule, opts SampleOptions) iter.Seq[ProgressSample] {
	opts = normalizeSampleOptions(opts)
	series := ProgressSeriesFor(schedules)
	horizon := ProgressHorizon(schedules, opts)
	return func(yield func(ProgressSample) bool) {
		for day := 0; day <= horizon; day += opts.Step {
			sample := ProgressSample{Day: day, Values: make(map[string]float64, len(series))}
			for _, s := range series {
				if !s.Plotted {
					continue
				}
				sample.Values[s.Key] = ProgressAt(s.Length, s.Start, s.End, day)
			}
			if !yield(sample) {
				return
			}
		}
	}
}

// SampleProgress collects ProgressSamples into a table.
func SampleProgress(schedules []Schedule, opts SampleOptions) ProgressTable {
	out := ProgressTable{
		Horizon: ProgressHorizon(schedules, opts),
		Series:  ProgressSeriesFor(schedules),
	}
	for sample := range ProgressSamples(schedules, opts) {
		out.Samples = append(out.Samples, sample)
	}
	return out
}

// normalizeSampleOptions replaces unusable option values with defaults.
func normalizeSampleOptions(opts SampleOptions) SampleOptions {
	defaults := DefaultSampleOptions()
	if opts.Step <= 0 {
		opts.Step = defaults.Step
	}
	if opts.MarginDays < 0 {
		opts.MarginDays = 0
	}
	if opts.MinHorizon < 0 {
		opts.MinHorizon = 0
	}
	if opts.MaxHorizon < 0 {
		opts.MaxHorizon = 0
	}
	return opts
}
