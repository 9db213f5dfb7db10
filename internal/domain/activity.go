package domain

import "strings"

// ActivityID identifies one production phase in the activity chain.
type ActivityID string

// ActivityExcavation and related constants identify the reference pipeline phases.
const (
	ActivityExcavation ActivityID = "exc"
	ActivityPipe       ActivityID = "pipe"
	ActivityBackfill   ActivityID = "back"
)

// Activity represents one construction phase with its production rate and daily cost.
type Activity struct {
	ID        ActivityID
	Name      string
	Label     string
	Crew      string
	Rate      int
	DailyCost int64
}

// ActivityInput holds input values for NewActivity.
type ActivityInput struct {
	ID        ActivityID
	Name      string
	Label     string
	Crew      string
	Rate      int
	DailyCost int64
}

// NewActivity constructs a validated activity.
func NewActivity(in ActivityInput) (Activity, error) {
	id := NormalizeActivityID(in.ID)
	if id == "" {
		return Activity{}, ErrInvalidID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Activity{}, ErrInvalidName
	}
	if in.Rate <= 0 {
		return Activity{}, ErrInvalidRate
	}
	if in.DailyCost < 0 {
		return Activity{}, ErrInvalidCost
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = name
	}
	return Activity{
		ID:        id,
		Name:      name,
		Label:     label,
		Crew:      strings.TrimSpace(in.Crew),
		Rate:      in.Rate,
		DailyCost: in.DailyCost,
	}, nil
}

// NormalizeActivityID canonicalizes an activity identifier.
func NormalizeActivityID(id ActivityID) ActivityID {
	return ActivityID(strings.ToLower(strings.TrimSpace(string(id))))
}

// Validate reports whether the activity satisfies the engine contract.
func (a Activity) Validate() error {
	if NormalizeActivityID(a.ID) == "" {
		return ErrInvalidID
	}
	if a.Rate <= 0 {
		return ErrInvalidRate
	}
	if a.DailyCost < 0 {
		return ErrInvalidCost
	}
	return nil
}
