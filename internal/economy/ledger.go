// Package economy implements the resource ledger: named stocks with
// per-resource storage caps and all-or-nothing spending.
package economy

import (
	"errors"
	"fmt"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

// DefaultBaseCap is the storage cap applied to every resource before bonuses.
const DefaultBaseCap = 100

// ErrInsufficient is returned when a spend or subtract exceeds held stock.
var ErrInsufficient = errors.New("insufficient resources")

// Ledger tracks resource stocks, cap bonuses, and lifetime earnings.
// All quantities are non-negative; Add clamps to the cap, Set does not
// (save restore relies on Set to keep over-cap stock from older saves).
type Ledger struct {
	bus *events.Bus

	stocks      map[content.ResourceID]float64
	capBonus    map[content.ResourceID]float64
	globalBonus float64
	baseCap     float64

	// lifetime tracks total units ever earned per resource, feeding the
	// building unlock thresholds. Never decremented.
	lifetime map[content.ResourceID]float64
}

// NewLedger creates an empty ledger with the default base cap.
func NewLedger(bus *events.Bus) *Ledger {
	return &Ledger{
		bus:      bus,
		stocks:   make(map[content.ResourceID]float64),
		capBonus: make(map[content.ResourceID]float64),
		baseCap:  DefaultBaseCap,
		lifetime: make(map[content.ResourceID]float64),
	}
}

// Get returns the held quantity of a resource.
func (l *Ledger) Get(id content.ResourceID) float64 {
	return l.stocks[id]
}

// Cap returns the current storage cap for a resource: base cap plus the
// global bonus plus any per-resource bonus.
func (l *Ledger) Cap(id content.ResourceID) float64 {
	return l.baseCap + l.globalBonus + l.capBonus[id]
}

// AddCapBonus raises the cap for one resource. Bonuses are additive and
// apply retroactively by changing the cap, never the stock.
func (l *Ledger) AddCapBonus(id content.ResourceID, amount float64) {
	l.capBonus[id] += amount
}

// AddGlobalCapBonus raises the cap for every resource.
func (l *Ledger) AddGlobalCapBonus(amount float64) {
	l.globalBonus += amount
}

// CapBonuses returns a copy of the per-resource bonuses and the global bonus.
func (l *Ledger) CapBonuses() (map[content.ResourceID]float64, float64) {
	out := make(map[content.ResourceID]float64, len(l.capBonus))
	for id, v := range l.capBonus {
		out[id] = v
	}
	return out, l.globalBonus
}

// Add changes a stock by amount. Positive amounts clamp to the cap and
// return the quantity actually applied (excess is dropped); negative
// amounts clamp only to zero. Emits a resource change notification.
func (l *Ledger) Add(id content.ResourceID, amount float64) float64 {
	if amount == 0 {
		return 0
	}
	cur := l.stocks[id]
	next := cur + amount
	if amount > 0 {
		if limit := l.Cap(id); next > limit {
			next = limit
		}
	}
	if next < 0 {
		next = 0
	}
	applied := next - cur
	l.stocks[id] = next
	if applied > 0 {
		l.lifetime[id] += applied
	}
	l.emitChanged(id, next)
	return applied
}

// Subtract removes amount from a stock. Returns false without mutating when
// the held quantity is short.
func (l *Ledger) Subtract(id content.ResourceID, amount float64) bool {
	if amount < 0 {
		return false
	}
	if l.stocks[id] < amount {
		return false
	}
	next := l.stocks[id] - amount
	l.stocks[id] = next
	l.emitChanged(id, next)
	return true
}

// Set overwrites a stock directly, clamping to zero but not to the cap.
// Administrative only: used by save restore and never by game rules.
func (l *Ledger) Set(id content.ResourceID, amount float64) {
	if amount < 0 {
		amount = 0
	}
	l.stocks[id] = amount
	l.emitChanged(id, amount)
}

// CanAfford reports whether every entry of the cost map is covered.
func (l *Ledger) CanAfford(cost map[content.ResourceID]float64) bool {
	for id, amount := range cost {
		if l.stocks[id] < amount {
			return false
		}
	}
	return true
}

// Spend deducts an entire cost map atomically. On failure no entry is
// mutated.
func (l *Ledger) Spend(cost map[content.ResourceID]float64) error {
	if !l.CanAfford(cost) {
		return fmt.Errorf("spend: %w", ErrInsufficient)
	}
	for id, amount := range cost {
		next := l.stocks[id] - amount
		if next < 0 {
			next = 0
		}
		l.stocks[id] = next
		l.emitChanged(id, next)
	}
	return nil
}

// LifetimeEarned returns total units of a resource ever added.
func (l *Ledger) LifetimeEarned(id content.ResourceID) float64 {
	return l.lifetime[id]
}

// SetLifetimeEarned restores a lifetime counter from a save.
func (l *Ledger) SetLifetimeEarned(id content.ResourceID, amount float64) {
	if amount < 0 {
		amount = 0
	}
	l.lifetime[id] = amount
}

// Stocks returns a copy of all held stocks.
func (l *Ledger) Stocks() map[content.ResourceID]float64 {
	out := make(map[content.ResourceID]float64, len(l.stocks))
	for id, v := range l.stocks {
		out[id] = v
	}
	return out
}

// Lifetime returns a copy of all lifetime counters.
func (l *Ledger) Lifetime() map[content.ResourceID]float64 {
	out := make(map[content.ResourceID]float64, len(l.lifetime))
	for id, v := range l.lifetime {
		out[id] = v
	}
	return out
}

func (l *Ledger) emitChanged(id content.ResourceID, quantity float64) {
	if l.bus != nil {
		l.bus.Emit(events.TopicResourceChanged, events.ResourceChanged{
			Resource: id,
			Quantity: quantity,
		})
	}
}
