// Package buildings implements construction timers, worker-generating
// rooms, and bounded training queues. Instances are never destroyed except
// by a full reset.
package buildings

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

// DefaultSlots is the size of the fixed building slot pool.
const DefaultSlots = 8

// minTimerMs floors generation and training timers: bonuses can never push
// a timer below five seconds.
const minTimerMs = 5000

// Errors returned by StartConstruction, StartTraining, and UpgradeInstance.
var (
	ErrUnknownType     = errors.New("unknown building type")
	ErrUnknownInstance = errors.New("unknown building instance")
	ErrUnknownProgram  = errors.New("unknown training program")
	ErrUnknownUpgrade  = errors.New("unknown building upgrade")
	ErrNoSlots         = errors.New("no free building slots")
	ErrMaxCount        = errors.New("building type at max count")
	ErrNotUnlocked     = errors.New("building type not unlocked")
	ErrNotComplete     = errors.New("building not complete")
	ErrWrongKind       = errors.New("building kind mismatch")
	ErrQueueFull       = errors.New("training queue full")
	ErrNoInputWorker   = errors.New("input worker not available")
	ErrMaxLevel        = errors.New("building upgrade at max level")
)

// Room is one worker-generation room of a generator building.
type Room struct {
	Workers  int     `json:"workers"`
	Capacity int     `json:"capacity"`
	TimerMs  float64 `json:"timer_ms"`
}

// TrainingJob is one queued retraining job.
type TrainingJob struct {
	Program     content.ProgramID `json:"program"`
	RemainingMs float64           `json:"remaining_ms"`
}

// Instance is a constructed building.
type Instance struct {
	ID            string                    `json:"id"`
	Type          content.BuildingTypeID    `json:"type"`
	Level         int                       `json:"level"`
	UpgradeLevels map[string]int            `json:"upgrade_levels"`
	ElapsedMs     float64                   `json:"elapsed_ms"` // construction timer
	DurationMs    float64                   `json:"duration_ms"`
	Complete      bool                      `json:"complete"`
	Rooms         []Room                    `json:"rooms,omitempty"`
	Queue         []TrainingJob             `json:"queue,omitempty"`
}

// Manager owns every building instance and the slot pool.
type Manager struct {
	defs   *content.Registry
	ledger *economy.Ledger
	bus    *events.Bus

	instances  []*Instance
	byID       map[string]*Instance
	slots      int
	totalBuilt int
}

// NewManager creates a manager with an empty slot pool of DefaultSlots.
func NewManager(defs *content.Registry, ledger *economy.Ledger, bus *events.Bus) *Manager {
	return &Manager{
		defs:   defs,
		ledger: ledger,
		bus:    bus,
		byID:   make(map[string]*Instance),
		slots:  DefaultSlots,
	}
}

// countOfType counts existing instances of one type, complete or not.
func (m *Manager) countOfType(typeID content.BuildingTypeID) int {
	n := 0
	for _, inst := range m.instances {
		if inst.Type == typeID {
			n++
		}
	}
	return n
}

// ScaledCost returns the next-construction cost for a type:
// base × multiplier^existingCount, floored per resource.
func (m *Manager) ScaledCost(typeID content.BuildingTypeID) (map[content.ResourceID]float64, bool) {
	def, ok := m.defs.BuildingType(typeID)
	if !ok {
		return nil, false
	}
	scale := math.Pow(def.CostMultiplier, float64(m.countOfType(typeID)))
	cost := make(map[content.ResourceID]float64, len(def.Cost))
	for res, amount := range def.Cost {
		cost[res] = math.Floor(amount * scale)
	}
	return cost, true
}

// unlocked checks the type's unlock conditions against lifetime earnings
// and total buildings constructed.
func (m *Manager) unlocked(def content.BuildingType) bool {
	if def.UnlockResource != "" && m.ledger.LifetimeEarned(def.UnlockResource) < def.UnlockAmount {
		return false
	}
	if def.UnlockBuilt > 0 && m.totalBuilt < def.UnlockBuilt {
		return false
	}
	return true
}

// CanBuild reports whether StartConstruction would succeed. Never mutates
// state.
func (m *Manager) CanBuild(typeID content.BuildingTypeID) bool {
	return m.checkBuild(typeID) == nil
}

func (m *Manager) checkBuild(typeID content.BuildingTypeID) error {
	def, ok := m.defs.BuildingType(typeID)
	if !ok {
		return fmt.Errorf("building %s: %w", typeID, ErrUnknownType)
	}
	if len(m.instances) >= m.slots {
		return fmt.Errorf("building %s: %w", typeID, ErrNoSlots)
	}
	if m.countOfType(typeID) >= def.MaxCount {
		return fmt.Errorf("building %s: %w", typeID, ErrMaxCount)
	}
	if !m.unlocked(def) {
		return fmt.Errorf("building %s: %w", typeID, ErrNotUnlocked)
	}
	cost, _ := m.ScaledCost(typeID)
	if !m.ledger.CanAfford(cost) {
		return fmt.Errorf("building %s: %w", typeID, economy.ErrInsufficient)
	}
	return nil
}

// StartConstruction atomically spends the scaled cost and allocates an
// instance in a free slot. Generator rooms are sized by the aggregate
// bonuses in force at creation time and not re-evaluated later.
func (m *Manager) StartConstruction(typeID content.BuildingTypeID) (*Instance, error) {
	if err := m.checkBuild(typeID); err != nil {
		return nil, err
	}
	def, _ := m.defs.BuildingType(typeID)
	cost, _ := m.ScaledCost(typeID)
	if err := m.ledger.Spend(cost); err != nil {
		return nil, fmt.Errorf("building %s: %w", typeID, err)
	}

	inst := &Instance{
		ID:            uuid.NewString(),
		Type:          typeID,
		Level:         1,
		UpgradeLevels: make(map[string]int),
		DurationMs:    def.ConstructionTime * 1000,
	}
	if def.Generator != nil {
		roomCount := def.Generator.Rooms + int(m.AggregateBonus(content.EffectRoomCount))
		capacity := def.Generator.RoomCapacity + int(m.AggregateBonus(content.EffectRoomCapacity))
		genMs := m.genTimeMs(def)
		for i := 0; i < roomCount; i++ {
			inst.Rooms = append(inst.Rooms, Room{Capacity: capacity, TimerMs: genMs})
		}
	}

	m.instances = append(m.instances, inst)
	m.byID[inst.ID] = inst
	m.totalBuilt++
	return inst, nil
}

// genTimeMs is the per-worker generation timer after aggregate bonuses.
func (m *Manager) genTimeMs(def content.BuildingType) float64 {
	return math.Max(minTimerMs, def.Generator.GenTime*1000-m.AggregateBonus(content.EffectGenSpeed))
}

// trainTimeMs is a training program's duration after aggregate bonuses.
func (m *Manager) trainTimeMs(p content.TrainingProgram) float64 {
	return math.Max(minTimerMs, p.Time*1000-m.AggregateBonus(content.EffectTrainSpeed))
}

// Update advances construction, room generation, and training queues.
func (m *Manager) Update(deltaMs float64) {
	if deltaMs <= 0 {
		return
	}
	for _, inst := range m.instances {
		if !inst.Complete {
			inst.ElapsedMs += deltaMs
			if inst.ElapsedMs >= inst.DurationMs {
				inst.Complete = true
				if m.bus != nil {
					m.bus.Emit(events.TopicConstructionComplete, events.ConstructionComplete{
						Instance: inst.ID,
						Type:     inst.Type,
					})
				}
			}
			continue
		}

		def, ok := m.defs.BuildingType(inst.Type)
		if !ok {
			continue
		}
		if def.Generator != nil {
			m.updateRooms(inst, def, deltaMs)
		}
		if def.Training != nil {
			m.updateQueue(inst, deltaMs)
		}
	}
}

// updateRooms ticks each room's regeneration timer. On underflow a worker
// unit goes to the ledger and the timer resets; full rooms skip the grant
// but still reset so they never bank progress.
func (m *Manager) updateRooms(inst *Instance, def content.BuildingType, deltaMs float64) {
	genMs := m.genTimeMs(def)
	for i := range inst.Rooms {
		room := &inst.Rooms[i]
		room.TimerMs -= deltaMs
		if room.TimerMs > 0 {
			continue
		}
		room.TimerMs = genMs
		if room.Workers >= room.Capacity {
			continue
		}
		room.Workers++
		m.ledger.Add(content.ResourceID(def.Generator.WorkerType), 1)
		if m.bus != nil {
			m.bus.Emit(events.TopicWorkerGenerated, events.WorkerGenerated{
				Instance: inst.ID,
				Worker:   def.Generator.WorkerType,
			})
		}
	}
}

// updateQueue completes any training job whose time has elapsed, crediting
// the output worker type.
func (m *Manager) updateQueue(inst *Instance, deltaMs float64) {
	remaining := inst.Queue[:0]
	for _, job := range inst.Queue {
		job.RemainingMs -= deltaMs
		if job.RemainingMs > 0 {
			remaining = append(remaining, job)
			continue
		}
		p, ok := m.defs.Program(job.Program)
		if !ok {
			continue
		}
		m.ledger.Add(content.ResourceID(p.Output), 1)
		if m.bus != nil {
			m.bus.Emit(events.TopicTrainingComplete, events.TrainingComplete{
				Instance: inst.ID,
				Program:  job.Program,
				Worker:   p.Output,
			})
		}
	}
	inst.Queue = remaining
}

// queueCapacity is the bounded queue size: base slots plus slot bonuses.
func (m *Manager) queueCapacity(def content.BuildingType) int {
	return def.Training.Slots + int(m.AggregateBonus(content.EffectTrainSlots))
}

// StartTraining validates slot, input-worker, and cost preconditions, then
// atomically removes one input worker and spends the cost before enqueuing.
func (m *Manager) StartTraining(instanceID string, programID content.ProgramID) error {
	inst, ok := m.byID[instanceID]
	if !ok {
		return fmt.Errorf("training %s: %w", instanceID, ErrUnknownInstance)
	}
	if !inst.Complete {
		return fmt.Errorf("training %s: %w", instanceID, ErrNotComplete)
	}
	def, ok := m.defs.BuildingType(inst.Type)
	if !ok || def.Training == nil {
		return fmt.Errorf("training %s: %w", instanceID, ErrWrongKind)
	}
	p, ok := m.defs.Program(programID)
	if !ok || p.Building != inst.Type {
		return fmt.Errorf("training %s: %w", programID, ErrUnknownProgram)
	}
	if len(inst.Queue) >= m.queueCapacity(def) {
		return fmt.Errorf("training %s: %w", instanceID, ErrQueueFull)
	}
	if m.ledger.Get(content.ResourceID(p.Input)) < 1 {
		return fmt.Errorf("training %s: %w", programID, ErrNoInputWorker)
	}
	if !m.ledger.CanAfford(p.Cost) {
		return fmt.Errorf("training %s: %w", programID, economy.ErrInsufficient)
	}

	if !m.ledger.Subtract(content.ResourceID(p.Input), 1) {
		return fmt.Errorf("training %s: %w", programID, ErrNoInputWorker)
	}
	if err := m.ledger.Spend(p.Cost); err != nil {
		// Affordability was checked above; refund the worker if the spend
		// still fails so the operation stays atomic.
		m.ledger.Add(content.ResourceID(p.Input), 1)
		return fmt.Errorf("training %s: %w", programID, err)
	}

	inst.Queue = append(inst.Queue, TrainingJob{
		Program:     programID,
		RemainingMs: m.trainTimeMs(p),
	})
	return nil
}

// UpgradeInstance purchases one level of a per-instance building upgrade.
func (m *Manager) UpgradeInstance(instanceID, upgradeID string) error {
	inst, ok := m.byID[instanceID]
	if !ok {
		return fmt.Errorf("upgrade %s: %w", instanceID, ErrUnknownInstance)
	}
	if !inst.Complete {
		return fmt.Errorf("upgrade %s: %w", instanceID, ErrNotComplete)
	}
	def, ok := m.defs.BuildingType(inst.Type)
	if !ok {
		return fmt.Errorf("upgrade %s: %w", instanceID, ErrUnknownType)
	}
	var track *content.BuildingUpgrade
	for i := range def.Upgrades {
		if def.Upgrades[i].ID == upgradeID {
			track = &def.Upgrades[i]
			break
		}
	}
	if track == nil {
		return fmt.Errorf("upgrade %s: %w", upgradeID, ErrUnknownUpgrade)
	}
	if inst.UpgradeLevels[upgradeID] >= track.MaxLevel {
		return fmt.Errorf("upgrade %s: %w", upgradeID, ErrMaxLevel)
	}
	if err := m.ledger.Spend(track.Cost); err != nil {
		return fmt.Errorf("upgrade %s: %w", upgradeID, err)
	}
	inst.UpgradeLevels[upgradeID]++
	return nil
}

// AggregateBonus sums an effect kind over every completed instance: base
// building effects plus upgradeLevel × upgradeEffect per purchased track.
// Recomputed on demand, never cached — upgrades can land at any time.
func (m *Manager) AggregateBonus(kind content.EffectKind) float64 {
	total := 0.0
	for _, inst := range m.instances {
		if !inst.Complete {
			continue
		}
		def, ok := m.defs.BuildingType(inst.Type)
		if !ok {
			continue
		}
		for _, eff := range def.Effects {
			if eff.Kind == kind {
				total += eff.Value
			}
		}
		for _, track := range def.Upgrades {
			if track.Effect.Kind != kind {
				continue
			}
			total += float64(inst.UpgradeLevels[track.ID]) * track.Effect.Value
		}
	}
	return total
}

// StorageBonuses lists the storage effects of every completed instance,
// keyed by resource ("" means all resources). Consumed by the orchestrator
// when applying warehouse completions.
func (m *Manager) StorageBonuses() map[content.ResourceID]float64 {
	out := make(map[content.ResourceID]float64)
	for _, inst := range m.instances {
		if !inst.Complete {
			continue
		}
		def, ok := m.defs.BuildingType(inst.Type)
		if !ok {
			continue
		}
		for _, eff := range def.Effects {
			if eff.Kind == content.EffectStorageBonus {
				out[eff.Resource] += eff.Value
			}
		}
	}
	return out
}

// Instance returns one building by id.
func (m *Manager) Instance(id string) (*Instance, bool) {
	inst, ok := m.byID[id]
	return inst, ok
}

// Instances returns all buildings in construction order.
func (m *Manager) Instances() []*Instance {
	return m.instances
}

// SlotsUsed returns occupied and total slot counts.
func (m *Manager) SlotsUsed() (used, total int) {
	return len(m.instances), m.slots
}

// TotalBuilt returns the number of constructions ever started.
func (m *Manager) TotalBuilt() int {
	return m.totalBuilt
}

// Restore replaces all instances from a save. Instances referencing
// definitions that no longer exist are dropped.
func (m *Manager) Restore(instances []*Instance, totalBuilt int) {
	m.instances = nil
	m.byID = make(map[string]*Instance)
	for _, inst := range instances {
		if _, ok := m.defs.BuildingType(inst.Type); !ok {
			continue
		}
		if inst.UpgradeLevels == nil {
			inst.UpgradeLevels = make(map[string]int)
		}
		m.instances = append(m.instances, inst)
		m.byID[inst.ID] = inst
	}
	m.totalBuilt = totalBuilt
}
