package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// CostLine is one activity's duration and daily cost.
type CostLine struct {
	ActivityID ActivityID
	Duration   int
	DailyCost  int64
}

// ActivityCost is one activity's contribution to direct cost.
type ActivityCost struct {
	ActivityID ActivityID
	Cost       int64
}

// CostInput holds input values for AggregateCost.
type CostInput struct {
	MobilizationCost int64
	IndirectRate     float64
	ProfitRate       float64
	Lines            []CostLine
}

// CostBreakdown stores the staged budget for one schedule.
type CostBreakdown struct {
	PerActivity  []ActivityCost
	Mobilization int64
	Direct       int64
	Indirect     int64
	Subtotal     int64
	Profit       int64
	Total        int64
}

// AggregateCost computes direct, indirect, profit and total cost.
// Indirect and profit are each rounded to whole currency units before they are added.
func AggregateCost(in CostInput) (CostBreakdown, error) {
	if in.MobilizationCost < 0 {
		return CostBreakdown{}, ErrInvalidCost
	}
	indirectRate, err := rateFraction(in.IndirectRate)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("indirect rate: %w", err)
	}
	profitRate, err := rateFraction(in.ProfitRate)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("profit rate: %w", err)
	}

	out := CostBreakdown{
		PerActivity:  make([]ActivityCost, 0, len(in.Lines)),
		Mobilization: in.MobilizationCost,
	}
	direct := decimal.NewFromInt(in.MobilizationCost)
	for _, line := range in.Lines {
		if line.Duration < 0 {
			return CostBreakdown{}, fmt.Errorf("activity %q: %w", line.ActivityID, ErrInvalidDuration)
		}
		if line.DailyCost < 0 {
			return CostBreakdown{}, fmt.Errorf("activity %q: %w", line.ActivityID, ErrInvalidCost)
		}
		cost := decimal.NewFromInt(int64(line.Duration)).Mul(decimal.NewFromInt(line.DailyCost))
		out.PerActivity = append(out.PerActivity, ActivityCost{ActivityID: line.ActivityID, Cost: cost.IntPart()})
		direct = direct.Add(cost)
	}
	indirect := direct.Mul(indirectRate).Round(0)
	subtotal := direct.Add(indirect)
	profit := subtotal.Mul(profitRate).Round(0)

	out.Direct = direct.IntPart()
	out.Indirect = indirect.IntPart()
	out.Subtotal = subtotal.IntPart()
	out.Profit = profit.IntPart()
	out.Total = subtotal.Add(profit).IntPart()
	return out, nil
}

// Cost returns the per-activity cost for one activity id.
func (b CostBreakdown) Cost(id ActivityID) (int64, bool) {
	id = NormalizeActivityID(id)
	for _, item := range b.PerActivity {
		if NormalizeActivityID(item.ActivityID) == id {
			return item.Cost, true
		}
	}
	return 0, false
}

// rateFraction converts a rate into an exact decimal within [0, 1].
func rateFraction(rate float64) (decimal.Decimal, error) {
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return decimal.Decimal{}, ErrInvalidRateFraction
	}
	return decimal.NewFromFloat(rate), nil
}
