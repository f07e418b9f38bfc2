// Package workers tracks worker assignment to activities and derives the
// automation speed multiplier. Worker ownership lives in the ledger (a
// worker type is just a resource id); only assignment is tracked here.
package workers

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

// Errors returned by Assign.
var (
	ErrUnknownWorkerType = errors.New("unknown worker type")
	ErrOverAssigned      = errors.New("not enough available workers")
)

// Automation owns the (activity, worker type) → count assignment map.
type Automation struct {
	defs   *content.Registry
	ledger *economy.Ledger
	bus    *events.Bus

	assignments map[content.ActivityID]map[content.WorkerTypeID]int
}

// NewAutomation creates an automation tracker with no assignments.
func NewAutomation(defs *content.Registry, ledger *economy.Ledger, bus *events.Bus) *Automation {
	return &Automation{
		defs:        defs,
		ledger:      ledger,
		bus:         bus,
		assignments: make(map[content.ActivityID]map[content.WorkerTypeID]int),
	}
}

// TotalAssigned sums a worker type's assignments across all activities.
func (a *Automation) TotalAssigned(typeID content.WorkerTypeID) int {
	total := 0
	for _, byType := range a.assignments {
		total += byType[typeID]
	}
	return total
}

// Available returns owned minus assigned workers of a type.
func (a *Automation) Available(typeID content.WorkerTypeID) int {
	owned := int(a.ledger.Get(content.ResourceID(typeID)))
	return owned - a.TotalAssigned(typeID)
}

// Assigned returns a copy of the assignment counts for one activity.
func (a *Automation) Assigned(activityID content.ActivityID) map[content.WorkerTypeID]int {
	out := make(map[content.WorkerTypeID]int)
	for typeID, n := range a.assignments[activityID] {
		out[typeID] = n
	}
	return out
}

// Assign sets the worker count for an (activity, type) pair. A count of
// zero unassigns and cleans up the empty map entries. Fails when the new
// count exceeds available workers plus the pair's current assignment.
func (a *Automation) Assign(activityID content.ActivityID, typeID content.WorkerTypeID, count int) error {
	if count < 0 {
		return fmt.Errorf("assign %s to %s: negative count", typeID, activityID)
	}
	if _, ok := a.defs.WorkerType(typeID); !ok {
		return fmt.Errorf("assign %s: %w", typeID, ErrUnknownWorkerType)
	}
	current := a.assignments[activityID][typeID]
	if count > a.Available(typeID)+current {
		return fmt.Errorf("assign %d %s to %s: %w", count, typeID, activityID, ErrOverAssigned)
	}

	if count == 0 {
		byType := a.assignments[activityID]
		delete(byType, typeID)
		if len(byType) == 0 {
			delete(a.assignments, activityID)
		}
	} else {
		byType := a.assignments[activityID]
		if byType == nil {
			byType = make(map[content.WorkerTypeID]int)
			a.assignments[activityID] = byType
		}
		byType[typeID] = count
	}

	if a.bus != nil {
		a.bus.Emit(events.TopicWorkerAssigned, events.WorkerAssigned{
			Activity: activityID,
			Worker:   typeID,
			Count:    count,
		})
	}
	return nil
}

// Unassign removes a worker type from an activity.
func (a *Automation) Unassign(activityID content.ActivityID, typeID content.WorkerTypeID) error {
	return a.Assign(activityID, typeID, 0)
}

// IsAutomated reports whether any workers are assigned to the activity.
func (a *Automation) IsAutomated(activityID content.ActivityID) bool {
	return len(a.assignments[activityID]) > 0
}

// AutomatedActivities returns ids with at least one assigned worker, sorted
// for deterministic iteration.
func (a *Automation) AutomatedActivities() []content.ActivityID {
	ids := make([]content.ActivityID, 0, len(a.assignments))
	for id := range a.assignments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// diminishingReturns grows with worker count but tops out at +40%.
func diminishingReturns(count int) float64 {
	if count <= 1 {
		return 1
	}
	return 1 + math.Min(0.4, 0.15*math.Log10(float64(count)))
}

// boostMultiplier is 1 plus the sum of speed bonuses from every held boost
// resource eligible for the worker type.
func (a *Automation) boostMultiplier(typeID content.WorkerTypeID) float64 {
	mult := 1.0
	for _, b := range a.defs.Boosts() {
		if a.ledger.Get(b.Resource) <= 0 {
			continue
		}
		for _, eligible := range b.Eligible {
			if eligible == typeID {
				mult += b.SpeedBonus
				break
			}
		}
	}
	return mult
}

// SpeedMultiplier derives the automation speed for an activity: zero when
// no workers are assigned; otherwise the fastest candidate across assigned
// types (types work in parallel, the fastest wins), capped at 1.0 —
// automation never beats a skilled human's manual pace.
func (a *Automation) SpeedMultiplier(activityID content.ActivityID, skill content.SkillID) float64 {
	byType := a.assignments[activityID]
	if len(byType) == 0 {
		return 0
	}
	best := 0.0
	for typeID, count := range byType {
		wt, ok := a.defs.WorkerType(typeID)
		if !ok {
			continue
		}
		candidate := wt.BaseSpeed
		if wt.BonusSkill != "" && wt.BonusSkill == skill {
			candidate *= 1.5
		}
		candidate *= diminishingReturns(count)
		candidate *= a.boostMultiplier(typeID)
		if candidate > best {
			best = candidate
		}
	}
	if best > 1 {
		best = 1
	}
	return best
}

// ConsumeSpeedBoosts charges the per-completion boost tax: every held boost
// whose eligibility intersects the activity's assigned worker types loses
// min(consumptionRate, stock) units.
func (a *Automation) ConsumeSpeedBoosts(activityID content.ActivityID) {
	byType := a.assignments[activityID]
	if len(byType) == 0 {
		return
	}
	for _, b := range a.defs.Boosts() {
		stock := a.ledger.Get(b.Resource)
		if stock <= 0 {
			continue
		}
		applies := false
		for _, eligible := range b.Eligible {
			if _, ok := byType[eligible]; ok {
				applies = true
				break
			}
		}
		if !applies {
			continue
		}
		a.ledger.Add(b.Resource, -math.Min(b.ConsumptionRate, stock))
	}
}

// Snapshot returns a deep copy of the assignment map for saving and for the
// offline catch-up simulator.
func (a *Automation) Snapshot() map[content.ActivityID]map[content.WorkerTypeID]int {
	out := make(map[content.ActivityID]map[content.WorkerTypeID]int, len(a.assignments))
	for actID, byType := range a.assignments {
		cp := make(map[content.WorkerTypeID]int, len(byType))
		for typeID, n := range byType {
			cp[typeID] = n
		}
		out[actID] = cp
	}
	return out
}

// Restore replaces all assignments from a save snapshot. Entries with a
// non-positive count are dropped.
func (a *Automation) Restore(snapshot map[content.ActivityID]map[content.WorkerTypeID]int) {
	a.assignments = make(map[content.ActivityID]map[content.WorkerTypeID]int, len(snapshot))
	for actID, byType := range snapshot {
		cp := make(map[content.WorkerTypeID]int, len(byType))
		for typeID, n := range byType {
			if n > 0 {
				cp[typeID] = n
			}
		}
		if len(cp) > 0 {
			a.assignments[actID] = cp
		}
	}
}
