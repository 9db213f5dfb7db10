package domain

import (
	"fmt"
	"slices"
)

// BufferRule identifies how an activity start was derived from its predecessor.
type BufferRule string

// BufferRuleFirst and related constants enumerate the scheduling rules.
const (
	BufferRuleFirst   BufferRule = "first"
	BufferRuleSimple  BufferRule = "simple"
	BufferRuleDelayed BufferRule = "delayed"
)

// ResolveBufferRule picks the rule for a successor running at rate behind a predecessor running at prevRate.
// A strictly slower successor cannot catch up, so it only trails by the buffer.
// Equal or faster successors are delayed so they finish one buffer after the predecessor.
func ResolveBufferRule(prevRate, rate int) BufferRule {
	if rate < prevRate {
		return BufferRuleSimple
	}
	return BufferRuleDelayed
}

// ScheduledActivity is an activity with its computed timing.
type ScheduledActivity struct {
	Activity
	Duration int
	Start    int
	End      int
	Rule     BufferRule
	// Plotted is false for manually entered rows that have no usable start/end pair.
	Plotted bool
}

// Schedule is one immutable project schedule value.
type Schedule struct {
	TotalLength      int
	MobilizationDays int
	Buffer           int
	Activities       []ScheduledActivity
	End              int
}

// ScheduleInput holds input values for BuildSchedule.
type ScheduleInput struct {
	TotalLength      int
	MobilizationDays int
	Buffer           int
	// FirstStart overrides the first activity start when positive.
	FirstStart int
	Activities []Activity
}

// PlacementInput holds input values for PlaceSchedule.
type PlacementInput struct {
	TotalLength      int
	MobilizationDays int
	Activities       []Activity
	Starts           []int
}

// ManualInput holds input values for ManualSchedule.
type ManualInput struct {
	TotalLength      int
	MobilizationDays int
	Activities       []Activity
	Starts           []int
	Ends             []int
}

// BuildSchedule derives durations and buffered start/end days for an ordered activity chain.
// Buffers of zero or less are applied as given and may produce overlapping activities.
func BuildSchedule(in ScheduleInput) (Schedule, error) {
	if err := validateChain(in.TotalLength, in.MobilizationDays, in.Activities); err != nil {
		return Schedule{}, err
	}
	out := Schedule{
		TotalLength:      in.TotalLength,
		MobilizationDays: in.MobilizationDays,
		Buffer:           in.Buffer,
		Activities:       make([]ScheduledActivity, 0, len(in.Activities)),
	}
	for idx, activity := range in.Activities {
		dur, err := Duration(in.TotalLength, activity.Rate)
		if err != nil {
			return Schedule{}, fmt.Errorf("activity %q: %w", activity.ID, err)
		}
		item := ScheduledActivity{Activity: activity, Duration: dur, Plotted: true}
		if idx == 0 {
			item.Rule = BufferRuleFirst
			item.Start = in.MobilizationDays + 1
			if in.FirstStart > 0 {
				item.Start = in.FirstStart
			}
		} else {
			prev := out.Activities[idx-1]
			item.Rule = ResolveBufferRule(prev.Rate, activity.Rate)
			switch item.Rule {
			case BufferRuleSimple:
				item.Start = prev.Start + in.Buffer
			default:
				item.Start = prev.End + in.Buffer - dur + 1
			}
		}
		item.End = item.Start + dur - 1
		out.Activities = append(out.Activities, item)
		out.End = max(out.End, item.End)
	}
	return out, nil
}

// PlaceSchedule computes engine durations for player-chosen start days.
// A start of zero or less leaves the row unplotted.
func PlaceSchedule(in PlacementInput) (Schedule, error) {
	if err := validateChain(in.TotalLength, in.MobilizationDays, in.Activities); err != nil {
		return Schedule{}, err
	}
	out := Schedule{
		TotalLength:      in.TotalLength,
		MobilizationDays: in.MobilizationDays,
		Activities:       make([]ScheduledActivity, 0, len(in.Activities)),
	}
	for idx, activity := range in.Activities {
		dur, err := Duration(in.TotalLength, activity.Rate)
		if err != nil {
			return Schedule{}, fmt.Errorf("activity %q: %w", activity.ID, err)
		}
		item := ScheduledActivity{Activity: activity, Duration: dur}
		if idx < len(in.Starts) && in.Starts[idx] > 0 {
			item.Start = in.Starts[idx]
			item.End = item.Start + dur - 1
			item.Plotted = true
			out.End = max(out.End, item.End)
		}
		out.Activities = append(out.Activities, item)
	}
	return out, nil
}

// ManualSchedule records player-entered start/end pairs without recomputing them.
// Rows with a non-positive start or an end before the start stay unplotted.
func ManualSchedule(in ManualInput) (Schedule, error) {
	if err := validateChain(in.TotalLength, in.MobilizationDays, in.Activities); err != nil {
		return Schedule{}, err
	}
	out := Schedule{
		TotalLength:      in.TotalLength,
		MobilizationDays: in.MobilizationDays,
		Activities:       make([]ScheduledActivity, 0, len(in.Activities)),
	}
	for idx, activity := range in.Activities {
		item := ScheduledActivity{Activity: activity}
		if idx < len(in.Starts) {
			item.Start = in.Starts[idx]
		}
		if idx < len(in.Ends) {
			item.End = in.Ends[idx]
		}
		if item.Start > 0 && item.End >= item.Start {
			item.Plotted = true
			item.Duration = item.End - item.Start + 1
			out.End = max(out.End, item.End)
		}
		out.Activities = append(out.Activities, item)
	}
	return out, nil
}

// DayLimit returns the latest day a chain of activities can end on when every activity runs at the
// fleet rate floor and buffers stay within maxBuffer.
func DayLimit(totalLength, mobilizationDays, activities, maxBuffer int) int {
	if totalLength <= 0 || activities <= 0 {
		return max(mobilizationDays, 0) + 1
	}
	slowest, _ := Duration(totalLength, fleetRateFloor)
	return max(mobilizationDays, 0) + 1 + activities*(slowest+max(maxBuffer, 0))
}

// CheckDay reports ErrDayOutOfRange when value lies outside [-limit, limit].
func CheckDay(field string, value, limit int) error {
	if value > limit || value < -limit {
		return fmt.Errorf("%w: %s %d beyond %d", ErrDayOutOfRange, field, value, limit)
	}
	return nil
}

// Find returns the scheduled activity with the provided id.
func (s Schedule) Find(id ActivityID) (ScheduledActivity, bool) {
	id = NormalizeActivityID(id)
	idx := slices.IndexFunc(s.Activities, func(a ScheduledActivity) bool { return a.ID == id })
	if idx < 0 {
		return ScheduledActivity{}, false
	}
	return s.Activities[idx], true
}

// Mobilization returns the inclusive day window occupied by mobilization.
func (s Schedule) Mobilization() (int, int) {
	return 1, s.MobilizationDays
}

// CostLines returns one cost line per plotted activity.
func (s Schedule) CostLines() []CostLine {
	out := make([]CostLine, 0, len(s.Activities))
	for _, a := range s.Activities {
		if !a.Plotted {
			continue
		}
		out = append(out, CostLine{ActivityID: a.ID, Duration: a.Duration, DailyCost: a.DailyCost})
	}
	return out
}

// validateChain checks the shared inputs of every schedule builder.
func validateChain(totalLength, mobilizationDays int, activities []Activity) error {
	if totalLength <= 0 {
		return ErrInvalidLength
	}
	if mobilizationDays < 0 {
		return ErrInvalidDuration
	}
	if len(activities) == 0 {
		return ErrEmptySchedule
	}
	for _, activity := range activities {
		if err := activity.Validate(); err != nil {
			return fmt.Errorf("activity %q: %w", activity.ID, err)
		}
	}
	return nil
}
