package domain

// ConstraintTarget stores the maximum project end day and total cost.
type ConstraintTarget struct {
	MaxDays int
	MaxCost int64
}

// ConstraintResult reports which targets a schedule/cost pair meets.
type ConstraintResult struct {
	DurationOK bool
	CostOK     bool
	Pass       bool
}

// Evaluate compares a project end day and total cost against the target.
func (t ConstraintTarget) Evaluate(end int, total int64) ConstraintResult {
	return Evaluate(end, total, t.MaxDays, t.MaxCost)
}

// Evaluate compares a project end day and total cost against explicit thresholds.
func Evaluate(end int, total int64, targetDays int, targetCost int64) ConstraintResult {
	out := ConstraintResult{
		DurationOK: end <= targetDays,
		CostOK:     total <= targetCost,
	}
	out.Pass = out.DurationOK && out.CostOK
	return out
}
