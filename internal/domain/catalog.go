package domain

import (
	"fmt"
	"slices"
	"strings"
)

// EquipmentOption describes one equipment set that can run an activity.
type EquipmentOption struct {
	Key       string
	Name      string
	Rate      int
	DailyCost int64
}

// Catalog stores the crew chain and the equipment options available per activity.
type Catalog struct {
	Crews     []Activity
	Equipment map[ActivityID][]EquipmentOption
}

// Fleet describes a combined equipment selection for one activity.
type Fleet struct {
	Activity Activity
	Units    int
	// ZeroRate reports that no units were selected and the rate floor was applied.
	ZeroRate bool
}

// fleetRateFloor is substituted when a fleet has no producing units.
const fleetRateFloor = 1

// MaxFleetUnits bounds the unit count of one equipment option in a fleet.
const MaxFleetUnits = 9

// DefaultCatalog returns the reference pipeline crews and equipment.
func DefaultCatalog() Catalog {
	return Catalog{
		Crews: []Activity{
			{ID: ActivityExcavation, Name: "Excavation", Label: "Excavation & Bedding", Crew: "Crew A", Rate: 220, DailyCost: 1600},
			{ID: ActivityPipe, Name: "Pipe Laying", Label: "Pipe Laying & Alignment", Crew: "Crew B", Rate: 180, DailyCost: 2500},
			{ID: ActivityBackfill, Name: "Backfill", Label: "Backfill & Compaction", Crew: "Crew C", Rate: 250, DailyCost: 2300},
		},
		Equipment: map[ActivityID][]EquipmentOption{
			ActivityExcavation: {
				{Key: "small", Name: "Small Excavator", Rate: 165, DailyCost: 900},
				{Key: "standard", Name: "Standard Excavator", Rate: 220, DailyCost: 1200},
				{Key: "large", Name: "Large Excavator", Rate: 330, DailyCost: 1800},
			},
			ActivityPipe: {
				{Key: "standard", Name: "Standard Crane", Rate: 180, DailyCost: 1800},
				{Key: "heavy", Name: "Heavy Crane", Rate: 270, DailyCost: 2800},
			},
			ActivityBackfill: {
				{Key: "small", Name: "Small Backfill Set", Rate: 180, DailyCost: 1400},
				{Key: "standard", Name: "Standard Backfill Set", Rate: 250, DailyCost: 1800},
				{Key: "large", Name: "Large Backfill Set", Rate: 375, DailyCost: 2600},
			},
		},
	}
}

// Validate checks crew uniqueness and equipment references.
func (c Catalog) Validate() error {
	if len(c.Crews) == 0 {
		return ErrEmptySchedule
	}
	seen := map[ActivityID]struct{}{}
	for idx, crew := range c.Crews {
		if err := crew.Validate(); err != nil {
			return fmt.Errorf("crew[%d] %q: %w", idx, crew.ID, err)
		}
		id := NormalizeActivityID(crew.ID)
		if _, ok := seen[id]; ok {
			return fmt.Errorf("crew[%d] %q is duplicated: %w", idx, crew.ID, ErrInvalidID)
		}
		seen[id] = struct{}{}
	}
	for id, options := range c.Equipment {
		if _, ok := seen[NormalizeActivityID(id)]; !ok {
			return fmt.Errorf("equipment for %q: %w", id, ErrUnknownActivity)
		}
		keys := map[string]struct{}{}
		for idx, opt := range options {
			if strings.TrimSpace(opt.Key) == "" {
				return fmt.Errorf("equipment %q[%d]: %w", id, idx, ErrInvalidID)
			}
			if _, ok := keys[opt.Key]; ok {
				return fmt.Errorf("equipment %q[%d] key %q is duplicated: %w", id, idx, opt.Key, ErrInvalidID)
			}
			keys[opt.Key] = struct{}{}
			if opt.Rate <= 0 {
				return fmt.Errorf("equipment %q[%d]: %w", id, idx, ErrInvalidRate)
			}
			if opt.DailyCost < 0 {
				return fmt.Errorf("equipment %q[%d]: %w", id, idx, ErrInvalidCost)
			}
		}
	}
	return nil
}

// ActivityIDs returns crew identifiers in chain order.
func (c Catalog) ActivityIDs() []ActivityID {
	out := make([]ActivityID, 0, len(c.Crews))
	for _, crew := range c.Crews {
		out = append(out, crew.ID)
	}
	return out
}

// Crew returns the reference crew for one activity.
func (c Catalog) Crew(id ActivityID) (Activity, error) {
	id = NormalizeActivityID(id)
	idx := slices.IndexFunc(c.Crews, func(a Activity) bool { return a.ID == id })
	if idx < 0 {
		return Activity{}, fmt.Errorf("%w: %q", ErrUnknownActivity, id)
	}
	return c.Crews[idx], nil
}

// Options returns a copy of the equipment options for one activity.
func (c Catalog) Options(id ActivityID) []EquipmentOption {
	return append([]EquipmentOption(nil), c.Equipment[NormalizeActivityID(id)]...)
}

// Option returns one equipment option by index.
func (c Catalog) Option(id ActivityID, index int) (EquipmentOption, error) {
	options := c.Equipment[NormalizeActivityID(id)]
	if index < 0 || index >= len(options) {
		return EquipmentOption{}, fmt.Errorf("%w: %s[%d]", ErrUnknownEquipment, id, index)
	}
	return options[index], nil
}

// EquipmentActivity returns the activity as run by one unit of the selected equipment.
func (c Catalog) EquipmentActivity(id ActivityID, index int) (Activity, error) {
	crew, err := c.Crew(id)
	if err != nil {
		return Activity{}, err
	}
	opt, err := c.Option(id, index)
	if err != nil {
		return Activity{}, err
	}
	crew.Rate = opt.Rate
	crew.DailyCost = opt.DailyCost
	crew.Crew = opt.Name
	return crew, nil
}

// FleetActivity combines unit counts keyed by equipment option key into one activity.
// Rates and daily costs add up per unit. A fleet with no producing units runs at the rate floor.
func (c Catalog) FleetActivity(id ActivityID, counts map[string]int) (Fleet, error) {
	crew, err := c.Crew(id)
	if err != nil {
		return Fleet{}, err
	}
	options := c.Equipment[crew.ID]
	known := make(map[string]struct{}, len(options))
	for _, opt := range options {
		known[opt.Key] = struct{}{}
	}
	for key, count := range counts {
		if _, ok := known[key]; !ok {
			return Fleet{}, fmt.Errorf("%w: %s.%s", ErrUnknownEquipment, crew.ID, key)
		}
		if count < 0 || count > MaxFleetUnits {
			return Fleet{}, fmt.Errorf("%w: %s.%s=%d not in [0, %d]", ErrInvalidUnitCount, crew.ID, key, count, MaxFleetUnits)
		}
	}

	rate, cost, units := 0, int64(0), 0
	for _, opt := range options {
		n := counts[opt.Key]
		rate += n * opt.Rate
		cost += int64(n) * opt.DailyCost
		units += n
	}
	fleet := Fleet{Units: units}
	if rate <= 0 {
		rate = fleetRateFloor
		fleet.ZeroRate = true
	}
	crew.Rate = rate
	crew.DailyCost = cost
	crew.Crew = fmt.Sprintf("%d units", units)
	fleet.Activity = crew
	return fleet, nil
}
