package domain

import "fmt"

// SpacingLevel classifies the gap between two consecutive progress lines.
type SpacingLevel string

// SpacingOK and related constants enumerate spacing levels.
const (
	SpacingOK       SpacingLevel = "ok"
	SpacingTight    SpacingLevel = "tight"
	SpacingCrossing SpacingLevel = "crossing"
)

// SpacingAdvisory describes the gap between a predecessor and successor progress line.
type SpacingAdvisory struct {
	Predecessor ActivityID
	Successor   ActivityID
	StartGap    int
	FinishGap   int
	MinGap      int
	Level       SpacingLevel
	Message     string
}

// AnalyzeSpacing reports the minimum time gap between each consecutive pair of plotted activities.
// Both lines cover the same length linearly, so the gap is smallest at either the start or the finish.
func AnalyzeSpacing(schedule Schedule, buffer int) []SpacingAdvisory {
	out := make([]SpacingAdvisory, 0, len(schedule.Activities))
	for idx := 1; idx < len(schedule.Activities); idx++ {
		prev, next := schedule.Activities[idx-1], schedule.Activities[idx]
		if !prev.Plotted || !next.Plotted {
			continue
		}
		item := SpacingAdvisory{
			Predecessor: prev.ID,
			Successor:   next.ID,
			StartGap:    next.Start - prev.Start,
			FinishGap:   next.End - prev.End,
		}
		item.MinGap = min(item.StartGap, item.FinishGap)
		switch {
		case item.MinGap <= 0:
			item.Level = SpacingCrossing
			item.Message = fmt.Sprintf("%s catches up with %s", next.Name, prev.Name)
		case item.MinGap < buffer:
			item.Level = SpacingTight
			item.Message = fmt.Sprintf("%s trails %s by %d days, less than the %d day buffer", next.Name, prev.Name, item.MinGap, buffer)
		default:
			item.Level = SpacingOK
			item.Message = fmt.Sprintf("%s trails %s by at least %d days", next.Name, prev.Name, item.MinGap)
		}
		out = append(out, item)
	}
	return out
}

// HasConflict reports whether any advisory is tight or crossing.
func HasConflict(advisories []SpacingAdvisory) bool {
	for _, item := range advisories {
		if item.Level != SpacingOK {
			return true
		}
	}
	return false
}
