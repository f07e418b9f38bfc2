// Game wires together all simulation managers and routes cross-component
// reactions explicitly — no manager listens to another through the bus.
package engine

import (
	"log/slog"
	"sync"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/activities"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/buildings"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/catchup"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/skills"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/upgrades"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/workers"
)

// Game owns every manager instance. All mutation goes through Game methods;
// the mutex guards the boundary between the engine tick goroutine and the
// HTTP API goroutine.
type Game struct {
	mu sync.Mutex

	defs *content.Registry
	bus  *events.Bus

	ledger     *economy.Ledger
	skills     *skills.Tracker
	workers    *workers.Automation
	upgrades   *upgrades.Registry
	activities *activities.Scheduler
	buildings  *buildings.Manager

	// appliedStorage tracks how much completed-building storage bonus has
	// already been pushed into the ledger caps, so completions grant the
	// delta exactly once.
	appliedStorage map[content.ResourceID]float64

	simTimeMs float64
}

// NewGame builds a fresh game over the given definitions.
func NewGame(defs *content.Registry, bus *events.Bus) *Game {
	ledger := economy.NewLedger(bus)
	sk := skills.NewTracker(bus)
	wk := workers.NewAutomation(defs, ledger, bus)
	up := upgrades.NewRegistry(defs, ledger, sk, bus)
	sched := activities.NewScheduler(defs, ledger, sk, wk, up, bus)
	bld := buildings.NewManager(defs, ledger, bus)

	return &Game{
		defs:           defs,
		bus:            bus,
		ledger:         ledger,
		skills:         sk,
		workers:        wk,
		upgrades:       up,
		activities:     sched,
		buildings:      bld,
		appliedStorage: make(map[content.ResourceID]float64),
	}
}

// Defs exposes the content registry (immutable).
func (g *Game) Defs() *content.Registry {
	return g.defs
}

// Update advances the whole simulation by deltaMs: activities first, then
// buildings, then the explicit cross-component reactions.
func (g *Game) Update(deltaMs float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.simTimeMs += deltaMs
	g.activities.Update(deltaMs)
	g.buildings.Update(deltaMs)
	g.syncStorageBonuses()
}

// syncStorageBonuses grants newly completed buildings' storage effects to
// the ledger caps. The empty resource id means "all resources".
func (g *Game) syncStorageBonuses() {
	current := g.buildings.StorageBonuses()
	for res, total := range current {
		delta := total - g.appliedStorage[res]
		if delta <= 0 {
			continue
		}
		if res == "" {
			g.ledger.AddGlobalCapBonus(delta)
		} else {
			g.ledger.AddCapBonus(res, delta)
		}
		g.appliedStorage[res] = total
	}
}

// RunCatchup simulates elapsed offline time against a detached snapshot and
// applies the result to the live state in one batch, emitting a single
// offline-progress notification. Called exactly once at load time.
func (g *Game) RunCatchup(elapsedMs float64) catchup.Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := catchup.Snapshot{
		Resources:   g.ledger.Stocks(),
		XP:          g.skills.Snapshot(),
		Assignments: g.workers.Snapshot(),
	}
	res := catchup.Simulate(g.defs, g.upgrades, elapsedMs, snap)

	for id, amount := range res.Resources {
		g.ledger.Add(id, amount)
	}
	for id, xp := range res.XP {
		g.skills.AddXP(id, xp)
	}

	if res.SimulatedMs > 0 || res.Clamped {
		slog.Info("offline catch-up applied",
			"simulated_ms", res.SimulatedMs,
			"clamped", res.Clamped,
			"activities", len(res.Completions),
		)
	}
	g.bus.Emit(events.TopicOfflineProgress, events.OfflineProgress{
		SimulatedMs: res.SimulatedMs,
		Clamped:     res.Clamped,
		Resources:   res.Resources,
		XP:          res.XP,
		Completions: res.Completions,
	})
	return res
}

// ResumeAutomation restarts every automated activity that can run, used
// after load once catch-up has been applied.
func (g *Game) ResumeAutomation() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.workers.AutomatedActivities() {
		if g.activities.CanStart(id, true) {
			if err := g.activities.Start(id, true); err != nil {
				slog.Warn("resume automation", "activity", id, "error", err)
			}
		}
	}
}

// ── Mutating operations (presentation layer entry points) ────────────────

// StartActivity starts an activity run.
func (g *Game) StartActivity(id content.ActivityID, auto bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.Start(id, auto)
}

// StopActivity stops a running activity without rewards.
func (g *Game) StopActivity(id content.ActivityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.Stop(id)
}

// AssignWorkers sets the worker count for an (activity, type) pair.
func (g *Game) AssignWorkers(activityID content.ActivityID, typeID content.WorkerTypeID, count int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.workers.Assign(activityID, typeID, count)
}

// PurchaseUpgrade buys an activity upgrade.
func (g *Game) PurchaseUpgrade(id content.UpgradeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.upgrades.Purchase(id)
}

// StartConstruction begins building a structure, returning its instance id.
func (g *Game) StartConstruction(typeID content.BuildingTypeID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inst, err := g.buildings.StartConstruction(typeID)
	if err != nil {
		return "", err
	}
	return inst.ID, nil
}

// StartTraining enqueues a training job on a training hall.
func (g *Game) StartTraining(instanceID string, programID content.ProgramID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buildings.StartTraining(instanceID, programID)
}

// UpgradeBuilding purchases one level of a per-instance building upgrade.
func (g *Game) UpgradeBuilding(instanceID, upgradeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	err := g.buildings.UpgradeInstance(instanceID, upgradeID)
	if err == nil {
		g.syncStorageBonuses()
	}
	return err
}

// ── Read-only accessors (presentation polling) ───────────────────────────

// Resources returns a copy of all stocks with caps and lifetime totals.
func (g *Game) Resources() map[content.ResourceID]ResourceView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[content.ResourceID]ResourceView)
	for id, qty := range g.ledger.Stocks() {
		out[id] = ResourceView{
			Quantity: qty,
			Cap:      g.ledger.Cap(id),
			Lifetime: g.ledger.LifetimeEarned(id),
		}
	}
	return out
}

// ResourceView is a read-only stock snapshot.
type ResourceView struct {
	Quantity float64 `json:"quantity"`
	Cap      float64 `json:"cap"`
	Lifetime float64 `json:"lifetime"`
}

// SkillView is a read-only skill snapshot.
type SkillView struct {
	XP    float64 `json:"xp"`
	Level int     `json:"level"`
}

// Skills returns a copy of all tracked skills.
func (g *Game) Skills() map[content.SkillID]SkillView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[content.SkillID]SkillView)
	for _, id := range g.skills.SkillIDs() {
		out[id] = SkillView{XP: g.skills.XP(id), Level: g.skills.Level(id)}
	}
	return out
}

// ActiveRuns returns all in-flight activity runs.
func (g *Game) ActiveRuns() []activities.Run {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.ActiveRuns()
}

// Progress returns the progress ratio of one activity.
func (g *Game) Progress(id content.ActivityID) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.Progress(id)
}

// CanRun reports whether an activity could run automated right now,
// distinguishing "never started" from "halted on missing resources" via
// Halted.
func (g *Game) CanRun(id content.ActivityID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.CanRun(id)
}

// Halted reports whether an auto activity is parked on missing inputs.
func (g *Game) Halted(id content.ActivityID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activities.Halted(id)
}

// BuildingView is a deep copy of one building instance.
type BuildingView struct {
	ID            string                   `json:"id"`
	Type          content.BuildingTypeID   `json:"type"`
	Level         int                      `json:"level"`
	UpgradeLevels map[string]int           `json:"upgrade_levels"`
	Complete      bool                     `json:"complete"`
	ProgressRatio float64                  `json:"progress_ratio"`
	Rooms         []buildings.Room         `json:"rooms,omitempty"`
	Queue         []buildings.TrainingJob  `json:"queue,omitempty"`
}

// Buildings returns deep copies of all building instances.
func (g *Game) Buildings() []BuildingView {
	g.mu.Lock()
	defer g.mu.Unlock()
	insts := g.buildings.Instances()
	out := make([]BuildingView, 0, len(insts))
	for _, inst := range insts {
		out = append(out, buildingView(inst))
	}
	return out
}

// BuildingInstance returns one building by id.
func (g *Game) BuildingInstance(id string) (BuildingView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inst, ok := g.buildings.Instance(id)
	if !ok {
		return BuildingView{}, false
	}
	return buildingView(inst), true
}

func buildingView(inst *buildings.Instance) BuildingView {
	v := BuildingView{
		ID:            inst.ID,
		Type:          inst.Type,
		Level:         inst.Level,
		UpgradeLevels: make(map[string]int, len(inst.UpgradeLevels)),
		Complete:      inst.Complete,
		Rooms:         append([]buildings.Room(nil), inst.Rooms...),
		Queue:         append([]buildings.TrainingJob(nil), inst.Queue...),
	}
	for k, lvl := range inst.UpgradeLevels {
		v.UpgradeLevels[k] = lvl
	}
	if inst.DurationMs > 0 {
		ratio := inst.ElapsedMs / inst.DurationMs
		if ratio > 1 {
			ratio = 1
		}
		v.ProgressRatio = ratio
	}
	return v
}

// WorkerView is a read-only worker availability snapshot.
type WorkerView struct {
	Owned     int `json:"owned"`
	Assigned  int `json:"assigned"`
	Available int `json:"available"`
}

// Workers returns availability per worker type plus the assignment map.
func (g *Game) Workers() (map[content.WorkerTypeID]WorkerView, map[content.ActivityID]map[content.WorkerTypeID]int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	views := make(map[content.WorkerTypeID]WorkerView)
	for _, id := range g.defs.WorkerTypeIDs() {
		owned := int(g.ledger.Get(content.ResourceID(id)))
		assigned := g.workers.TotalAssigned(id)
		views[id] = WorkerView{Owned: owned, Assigned: assigned, Available: owned - assigned}
	}
	return views, g.workers.Snapshot()
}

// TotalLevel returns the sum of all skill levels.
func (g *Game) TotalLevel() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.skills.TotalLevel()
}

// SimTimeMs returns accumulated simulated time.
func (g *Game) SimTimeMs() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.simTimeMs
}
