// Package catchup resimulates elapsed offline time in discrete chunks,
// against a detached snapshot of resources, XP, and worker assignments. It
// reuses the live input/output rules but deliberately schedules on each
// activity's base duration, ignoring worker and boost speed multipliers —
// a known simplification carried over from the original balance, not a bug.
package catchup

import (
	"sort"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/skills"
)

// MaxOfflineMs caps the catch-up horizon at eight hours.
const MaxOfflineMs = 8 * 60 * 60 * 1000

// Modifiers supplies the purchased-upgrade aggregates so offline runs use
// the same effective inputs and outputs as the live scheduler.
type Modifiers interface {
	OutputBonus(content.ActivityID) map[content.ResourceID]float64
	CostReduction(content.ActivityID) float64
}

// Snapshot is the detached state the simulation mutates. The live ledger
// and tracker are never touched.
type Snapshot struct {
	Resources   map[content.ResourceID]float64
	XP          map[content.SkillID]float64
	Assignments map[content.ActivityID]map[content.WorkerTypeID]int
}

// Result aggregates everything earned offline; the caller applies it to the
// live state in one batch.
type Result struct {
	SimulatedMs float64
	Clamped     bool
	Resources   map[content.ResourceID]float64
	XP          map[content.SkillID]float64
	Completions map[content.ActivityID]int
}

// Simulate advances the snapshot through elapsedMs of offline time.
// The chunk quantum is the shortest base duration among automated
// activities; every automated activity whose duration fits the chunk
// attempts one completion per chunk. A chunk with no completions ends the
// simulation early — resources are exhausted and further chunks would spin.
func Simulate(defs *content.Registry, mods Modifiers, elapsedMs float64, snap Snapshot) Result {
	res := Result{
		Resources:   make(map[content.ResourceID]float64),
		XP:          make(map[content.SkillID]float64),
		Completions: make(map[content.ActivityID]int),
	}
	if snap.Resources == nil {
		snap.Resources = make(map[content.ResourceID]float64)
	}
	if snap.XP == nil {
		snap.XP = make(map[content.SkillID]float64)
	}
	if elapsedMs <= 0 {
		return res
	}
	if elapsedMs > MaxOfflineMs {
		elapsedMs = MaxOfflineMs
		res.Clamped = true
	}

	// Automated activities with a known definition, sorted for determinism.
	ids := make([]content.ActivityID, 0, len(snap.Assignments))
	for id, byType := range snap.Assignments {
		if len(byType) == 0 {
			continue
		}
		if _, ok := defs.Activity(id); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) == 0 {
		return res
	}

	shortest := 0.0
	for _, id := range ids {
		def, _ := defs.Activity(id)
		d := def.Duration * 1000
		if shortest == 0 || d < shortest {
			shortest = d
		}
	}

	remaining := elapsedMs
	for remaining >= shortest {
		productive := false
		for _, id := range ids {
			def, _ := defs.Activity(id)
			if def.Duration*1000 > shortest {
				continue
			}
			if completeOffline(def, mods, &snap, &res) {
				productive = true
			}
		}
		remaining -= shortest
		res.SimulatedMs += shortest
		if !productive {
			break
		}
	}
	return res
}

// completeOffline attempts one completion against the snapshot: skill gate
// and affordability are checked snapshot-side, then inputs, outputs, and XP
// are settled on the snapshot and recorded in the result.
func completeOffline(def content.Activity, mods Modifiers, snap *Snapshot, res *Result) bool {
	if skills.LevelFromXP(snap.XP[def.Skill]) < def.LevelRequired {
		return false
	}

	reduction := 0.0
	if mods != nil {
		reduction = mods.CostReduction(def.ID)
	}
	for r, amount := range def.Inputs {
		if snap.Resources[r] < amount*(1-reduction) {
			return false
		}
	}
	for r, amount := range def.Inputs {
		snap.Resources[r] -= amount * (1 - reduction)
	}

	for r, amount := range def.Outputs {
		snap.Resources[r] += amount
		res.Resources[r] += amount
	}
	if mods != nil {
		for r, bonus := range mods.OutputBonus(def.ID) {
			snap.Resources[r] += bonus
			res.Resources[r] += bonus
		}
	}

	snap.XP[def.Skill] += def.XP
	res.XP[def.Skill] += def.XP
	res.Completions[def.ID]++
	return true
}
