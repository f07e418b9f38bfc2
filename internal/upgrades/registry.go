// Package upgrades implements the purchasable modifier registry. Purchased
// upgrades permanently alter an activity's effective duration, outputs, or
// input cost; the scheduler consults the aggregate queries here.
package upgrades

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/skills"
)

// maxCostReduction caps summed cost-reduction fractions so inputs never
// drop below 10% of base.
const maxCostReduction = 0.9

// Errors returned by Purchase.
var (
	ErrUnknownUpgrade = errors.New("unknown upgrade")
	ErrAlreadyOwned   = errors.New("upgrade already purchased")
	ErrSkillGate      = errors.New("skill level too low")
	ErrPrerequisite   = errors.New("prerequisite upgrade not purchased")
)

// Registry tracks the purchased upgrade set, append-only until reset.
type Registry struct {
	defs   *content.Registry
	ledger *economy.Ledger
	skills *skills.Tracker
	bus    *events.Bus

	purchased map[content.UpgradeID]bool
}

// NewRegistry creates an upgrade registry with nothing purchased.
func NewRegistry(defs *content.Registry, ledger *economy.Ledger, sk *skills.Tracker, bus *events.Bus) *Registry {
	return &Registry{
		defs:      defs,
		ledger:    ledger,
		skills:    sk,
		bus:       bus,
		purchased: make(map[content.UpgradeID]bool),
	}
}

// IsPurchased reports whether an upgrade is owned.
func (r *Registry) IsPurchased(id content.UpgradeID) bool {
	return r.purchased[id]
}

// CanPurchase reports whether an upgrade can be bought right now. Never
// mutates state.
func (r *Registry) CanPurchase(id content.UpgradeID) bool {
	return r.checkPurchase(id) == nil
}

func (r *Registry) checkPurchase(id content.UpgradeID) error {
	def, ok := r.defs.Upgrade(id)
	if !ok {
		return fmt.Errorf("upgrade %s: %w", id, ErrUnknownUpgrade)
	}
	if r.purchased[id] {
		return fmt.Errorf("upgrade %s: %w", id, ErrAlreadyOwned)
	}
	if !r.ledger.CanAfford(def.Cost) {
		return fmt.Errorf("upgrade %s: %w", id, economy.ErrInsufficient)
	}
	if r.skills.Level(def.Skill) < def.SkillLevel {
		return fmt.Errorf("upgrade %s: %w", id, ErrSkillGate)
	}
	if def.Requires != "" && !r.purchased[def.Requires] {
		return fmt.Errorf("upgrade %s: %w", id, ErrPrerequisite)
	}
	return nil
}

// Purchase atomically spends the cost and appends to the purchased set.
// Currency is untouched when any precondition fails.
func (r *Registry) Purchase(id content.UpgradeID) error {
	if err := r.checkPurchase(id); err != nil {
		return err
	}
	def, _ := r.defs.Upgrade(id)
	if err := r.ledger.Spend(def.Cost); err != nil {
		return fmt.Errorf("upgrade %s: %w", id, err)
	}
	r.purchased[id] = true
	if r.bus != nil {
		r.bus.Emit(events.TopicUpgradePurchased, events.UpgradePurchased{Upgrade: id})
	}
	return nil
}

// SpeedMultiplier aggregates purchased speed modifiers for an activity as
// the product of (1 − delta): each purchase shrinks the remaining duration
// multiplicatively.
func (r *Registry) SpeedMultiplier(activityID content.ActivityID) float64 {
	mult := 1.0
	for _, u := range r.defs.UpgradesFor(activityID) {
		if !r.purchased[u.ID] || u.Effect.Kind != content.EffectSpeed {
			continue
		}
		mult *= 1 - u.Effect.Value
	}
	return mult
}

// OutputBonus aggregates purchased output bonuses per resource.
func (r *Registry) OutputBonus(activityID content.ActivityID) map[content.ResourceID]float64 {
	bonus := make(map[content.ResourceID]float64)
	for _, u := range r.defs.UpgradesFor(activityID) {
		if !r.purchased[u.ID] || u.Effect.Kind != content.EffectOutputBonus {
			continue
		}
		bonus[u.Effect.Resource] += u.Effect.Value
	}
	return bonus
}

// CostReduction sums purchased cost-reduction fractions, capped at 0.9.
func (r *Registry) CostReduction(activityID content.ActivityID) float64 {
	total := 0.0
	for _, u := range r.defs.UpgradesFor(activityID) {
		if !r.purchased[u.ID] || u.Effect.Kind != content.EffectCostReduction {
			continue
		}
		total += u.Effect.Value
	}
	return math.Min(total, maxCostReduction)
}

// Purchased returns the owned upgrade ids in sorted order.
func (r *Registry) Purchased() []content.UpgradeID {
	ids := make([]content.UpgradeID, 0, len(r.purchased))
	for id := range r.purchased {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Restore replaces the purchased set from a save. Ids missing from the
// definitions are dropped silently — content may have changed between
// sessions.
func (r *Registry) Restore(ids []content.UpgradeID) {
	r.purchased = make(map[content.UpgradeID]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.defs.Upgrade(id); ok {
			r.purchased[id] = true
		}
	}
}
