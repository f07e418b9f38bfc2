package engine

import (
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/buildings"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
)

// SaveVersion gates save compatibility. An unrecognized version discards
// the save and starts fresh rather than attempting partial migration.
const SaveVersion = 1

// SaveState is the versioned persisted document.
type SaveState struct {
	Version      int   `json:"version"`
	LastSaveTime int64 `json:"last_save_time"` // epoch ms

	Resources      map[content.ResourceID]float64 `json:"resources"`
	Lifetime       map[content.ResourceID]float64 `json:"lifetime"`
	CapBonuses     map[content.ResourceID]float64 `json:"cap_bonuses"`
	GlobalCapBonus float64                        `json:"global_cap_bonus"`

	Skills      map[content.SkillID]float64                              `json:"skills"`
	Upgrades    []content.UpgradeID                                      `json:"upgrades"`
	Assignments map[content.ActivityID]map[content.WorkerTypeID]int      `json:"assignments"`
	Buildings   []*buildings.Instance                                    `json:"buildings"`
	TotalBuilt  int                                                      `json:"total_built"`
	SimTimeMs   float64                                                  `json:"sim_time_ms"`
}

// SaveState captures the full game state for persistence. lastSaveTime is
// supplied by the caller so the store owns the wall clock.
func (g *Game) SaveState(lastSaveTime int64) *SaveState {
	g.mu.Lock()
	defer g.mu.Unlock()

	capBonuses, global := g.ledger.CapBonuses()
	return &SaveState{
		Version:        SaveVersion,
		LastSaveTime:   lastSaveTime,
		Resources:      g.ledger.Stocks(),
		Lifetime:       g.ledger.Lifetime(),
		CapBonuses:     capBonuses,
		GlobalCapBonus: global,
		Skills:         g.skills.Snapshot(),
		Upgrades:       g.upgrades.Purchased(),
		Assignments:    g.workers.Snapshot(),
		Buildings:      g.buildings.Instances(),
		TotalBuilt:     g.buildings.TotalBuilt(),
		SimTimeMs:      g.simTimeMs,
	}
}

// RestoreState loads a save into a fresh game. Stocks are restored with the
// administrative Set so over-cap quantities from older saves survive; cap
// bonuses are restored verbatim and the applied-storage tracker is synced so
// completed warehouses are not granted twice.
func (g *Game) RestoreState(st *SaveState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, bonus := range st.CapBonuses {
		g.ledger.AddCapBonus(id, bonus)
	}
	g.ledger.AddGlobalCapBonus(st.GlobalCapBonus)
	for id, qty := range st.Resources {
		g.ledger.Set(id, qty)
	}
	for id, total := range st.Lifetime {
		g.ledger.SetLifetimeEarned(id, total)
	}
	for id, xp := range st.Skills {
		g.skills.SetXP(id, xp)
	}
	g.upgrades.Restore(st.Upgrades)
	g.workers.Restore(st.Assignments)
	g.buildings.Restore(st.Buildings, st.TotalBuilt)
	g.simTimeMs = st.SimTimeMs

	g.appliedStorage = g.buildings.StorageBonuses()
}
