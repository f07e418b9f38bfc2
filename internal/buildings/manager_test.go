package buildings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

func testDefs(t *testing.T) *content.Registry {
	t.Helper()
	defs, err := content.Build(&content.File{
		Resources: []content.Resource{
			{ID: "wood", Name: "Wood"},
			{ID: "stone", Name: "Stone"},
			{ID: "coins", Name: "Coins"},
		},
		WorkerTypes: []content.WorkerType{
			{ID: "apprentice", Name: "Apprentice", BaseSpeed: 0.2},
			{ID: "laborer", Name: "Laborer", BaseSpeed: 0.5},
		},
		Activities: []content.Activity{
			{ID: "chop_wood", Name: "Chop Wood", Skill: "woodcutting", LevelRequired: 1, Duration: 2, Outputs: map[content.ResourceID]float64{"wood": 1}, XP: 10},
		},
		BuildingTypes: []content.BuildingType{
			{ID: "bunkhouse", Name: "Bunkhouse", Kind: content.BuildingGenerator,
				Cost: map[content.ResourceID]float64{"wood": 50}, CostMultiplier: 2,
				MaxCount: 3, ConstructionTime: 10,
				Generator: &content.GeneratorSpec{WorkerType: "apprentice", Rooms: 2, RoomCapacity: 2, GenTime: 10}},
			{ID: "training_hall", Name: "Training Hall", Kind: content.BuildingTraining,
				Cost: map[content.ResourceID]float64{"wood": 80}, CostMultiplier: 1.5,
				MaxCount: 1, ConstructionTime: 5,
				Training: &content.TrainingSpec{Slots: 2}},
			{ID: "warehouse", Name: "Warehouse", Kind: content.BuildingPassive,
				Cost: map[content.ResourceID]float64{"wood": 10}, CostMultiplier: 1,
				MaxCount: 5, ConstructionTime: 5,
				Effects: []content.Effect{{Kind: content.EffectStorageBonus, Value: 100}},
				Upgrades: []content.BuildingUpgrade{
					{ID: "shelving", Name: "Shelving", Cost: map[content.ResourceID]float64{"stone": 10}, MaxLevel: 2,
						Effect: content.Effect{Kind: content.EffectStorageBonus, Value: 50}},
				}},
			{ID: "overclock", Name: "Overclock Rig", Kind: content.BuildingPassive,
				Cost: map[content.ResourceID]float64{"wood": 10}, CostMultiplier: 1,
				MaxCount: 1, ConstructionTime: 5,
				Effects: []content.Effect{{Kind: content.EffectGenSpeed, Value: 8000}}},
			{ID: "monument", Name: "Monument", Kind: content.BuildingPassive,
				Cost: map[content.ResourceID]float64{"wood": 10}, CostMultiplier: 1,
				MaxCount: 1, ConstructionTime: 5,
				UnlockResource: "wood", UnlockAmount: 500, UnlockBuilt: 2},
		},
		Programs: []content.TrainingProgram{
			{ID: "train_laborer", Name: "Train Laborer", Building: "training_hall",
				Input: "apprentice", Output: "laborer",
				Cost: map[content.ResourceID]float64{"coins": 10}, Time: 30},
		},
	})
	require.NoError(t, err)
	return defs
}

func newManager(t *testing.T) (*Manager, *economy.Ledger, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	ledger := economy.NewLedger(bus)
	return NewManager(testDefs(t), ledger, bus), ledger, bus
}

// build constructs and finishes one instance.
func build(t *testing.T, m *Manager, ledger *economy.Ledger, typeID content.BuildingTypeID) *Instance {
	t.Helper()
	ledger.Set("wood", 100000)
	inst, err := m.StartConstruction(typeID)
	require.NoError(t, err)
	m.Update(inst.DurationMs)
	require.True(t, inst.Complete)
	return inst
}

func TestScaledCost(t *testing.T) {
	m, ledger, _ := newManager(t)

	cost, ok := m.ScaledCost("bunkhouse")
	require.True(t, ok)
	assert.Equal(t, 50.0, cost["wood"])

	build(t, m, ledger, "bunkhouse")
	cost, _ = m.ScaledCost("bunkhouse")
	assert.Equal(t, 100.0, cost["wood"])

	build(t, m, ledger, "bunkhouse")
	cost, _ = m.ScaledCost("bunkhouse")
	assert.Equal(t, 200.0, cost["wood"])

	_, ok = m.ScaledCost("nonexistent")
	assert.False(t, ok)
}

func TestStartConstructionSpendsAndAllocates(t *testing.T) {
	m, ledger, _ := newManager(t)
	ledger.Set("wood", 60)

	inst, err := m.StartConstruction("bunkhouse")
	require.NoError(t, err)
	assert.Equal(t, 10.0, ledger.Get("wood"))
	assert.NotEmpty(t, inst.ID)
	assert.False(t, inst.Complete)
	assert.Equal(t, 10000.0, inst.DurationMs)

	// Rooms are sized at creation from the generator spec.
	require.Len(t, inst.Rooms, 2)
	assert.Equal(t, 2, inst.Rooms[0].Capacity)
	assert.Equal(t, 10000.0, inst.Rooms[0].TimerMs)

	used, total := m.SlotsUsed()
	assert.Equal(t, 1, used)
	assert.Equal(t, DefaultSlots, total)
	assert.Equal(t, 1, m.TotalBuilt())
}

func TestBuildGates(t *testing.T) {
	m, ledger, _ := newManager(t)

	_, err := m.StartConstruction("nonexistent")
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = m.StartConstruction("bunkhouse")
	require.ErrorIs(t, err, economy.ErrInsufficient)
	assert.False(t, m.CanBuild("bunkhouse"))

	for i := 0; i < 3; i++ {
		build(t, m, ledger, "bunkhouse")
	}
	_, err = m.StartConstruction("bunkhouse")
	require.ErrorIs(t, err, ErrMaxCount)
}

func TestSlotPoolIsBounded(t *testing.T) {
	m, ledger, _ := newManager(t)
	for i := 0; i < 3; i++ {
		build(t, m, ledger, "bunkhouse")
	}
	for i := 0; i < 5; i++ {
		build(t, m, ledger, "warehouse")
	}

	ledger.Set("wood", 100000)
	_, err := m.StartConstruction("training_hall")
	require.ErrorIs(t, err, ErrNoSlots)
}

func TestUnlockConditions(t *testing.T) {
	m, ledger, _ := newManager(t)
	ledger.Set("wood", 100000)

	_, err := m.StartConstruction("monument")
	require.ErrorIs(t, err, ErrNotUnlocked)

	// Lifetime earnings gate, not current stock.
	ledger.SetLifetimeEarned("wood", 500)
	_, err = m.StartConstruction("monument")
	require.ErrorIs(t, err, ErrNotUnlocked)

	build(t, m, ledger, "warehouse")
	build(t, m, ledger, "warehouse")
	assert.True(t, m.CanBuild("monument"))
}

func TestConstructionCompletion(t *testing.T) {
	m, ledger, bus := newManager(t)
	ledger.Set("wood", 100)

	var done []events.ConstructionComplete
	bus.On(events.TopicConstructionComplete, func(payload any) {
		done = append(done, payload.(events.ConstructionComplete))
	})

	inst, err := m.StartConstruction("bunkhouse")
	require.NoError(t, err)

	m.Update(9999)
	assert.False(t, inst.Complete)
	assert.Empty(t, done)

	m.Update(1)
	assert.True(t, inst.Complete)
	require.Len(t, done, 1)
	assert.Equal(t, inst.ID, done[0].Instance)
}

func TestRoomsGenerateWorkers(t *testing.T) {
	m, ledger, _ := newManager(t)
	inst := build(t, m, ledger, "bunkhouse")
	ledger.Set(content.ResourceID("apprentice"), 0)

	// One full generation cycle: both rooms produce one worker each.
	m.Update(10000)
	assert.Equal(t, 2.0, ledger.Get("apprentice"))
	assert.Equal(t, 1, inst.Rooms[0].Workers)
	assert.Equal(t, 10000.0, inst.Rooms[0].TimerMs)

	// Rooms fill at capacity 2; further cycles reset the timer without
	// granting.
	m.Update(10000)
	assert.Equal(t, 4.0, ledger.Get("apprentice"))
	m.Update(10000)
	assert.Equal(t, 4.0, ledger.Get("apprentice"))
	assert.Equal(t, 2, inst.Rooms[0].Workers)
	assert.Equal(t, 10000.0, inst.Rooms[0].TimerMs)
}

func TestGenTimerFloor(t *testing.T) {
	m, ledger, _ := newManager(t)
	build(t, m, ledger, "overclock")

	// 10000 − 8000 would be 2000ms; the floor holds at 5000.
	inst := build(t, m, ledger, "bunkhouse")
	assert.Equal(t, 5000.0, inst.Rooms[0].TimerMs)
}

func TestTrainingFlow(t *testing.T) {
	m, ledger, bus := newManager(t)
	inst := build(t, m, ledger, "training_hall")
	ledger.Set(content.ResourceID("apprentice"), 1)
	ledger.Set("coins", 25)

	var done []events.TrainingComplete
	bus.On(events.TopicTrainingComplete, func(payload any) {
		done = append(done, payload.(events.TrainingComplete))
	})

	require.NoError(t, m.StartTraining(inst.ID, "train_laborer"))
	// The input worker and the fee are taken up front.
	assert.Equal(t, 0.0, ledger.Get("apprentice"))
	assert.Equal(t, 15.0, ledger.Get("coins"))
	require.Len(t, inst.Queue, 1)

	m.Update(29999)
	assert.Equal(t, 0.0, ledger.Get("laborer"))

	m.Update(1)
	assert.Equal(t, 1.0, ledger.Get("laborer"))
	assert.Empty(t, inst.Queue)
	require.Len(t, done, 1)
	assert.Equal(t, content.WorkerTypeID("laborer"), done[0].Worker)
}

func TestTrainingGates(t *testing.T) {
	m, ledger, _ := newManager(t)

	err := m.StartTraining("nope", "train_laborer")
	require.ErrorIs(t, err, ErrUnknownInstance)

	ledger.Set("wood", 100)
	pending, err := m.StartConstruction("training_hall")
	require.NoError(t, err)
	err = m.StartTraining(pending.ID, "train_laborer")
	require.ErrorIs(t, err, ErrNotComplete)
	m.Update(pending.DurationMs)

	err = m.StartTraining(pending.ID, "bad_program")
	require.ErrorIs(t, err, ErrUnknownProgram)

	err = m.StartTraining(pending.ID, "train_laborer")
	require.ErrorIs(t, err, ErrNoInputWorker)

	ledger.Set(content.ResourceID("apprentice"), 1)
	err = m.StartTraining(pending.ID, "train_laborer")
	require.ErrorIs(t, err, economy.ErrInsufficient)
	// Failed validation must not eat the input worker.
	assert.Equal(t, 1.0, ledger.Get("apprentice"))

	// Programs only run in their own building kind.
	warehouse := build(t, m, ledger, "warehouse")
	err = m.StartTraining(warehouse.ID, "train_laborer")
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestTrainingQueueIsBounded(t *testing.T) {
	m, ledger, _ := newManager(t)
	inst := build(t, m, ledger, "training_hall")
	ledger.Set(content.ResourceID("apprentice"), 5)
	ledger.Set("coins", 100)

	require.NoError(t, m.StartTraining(inst.ID, "train_laborer"))
	require.NoError(t, m.StartTraining(inst.ID, "train_laborer"))

	err := m.StartTraining(inst.ID, "train_laborer")
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 3.0, ledger.Get("apprentice"))
}

func TestUpgradeInstance(t *testing.T) {
	m, ledger, _ := newManager(t)
	inst := build(t, m, ledger, "warehouse")
	ledger.Set("stone", 30)

	require.NoError(t, m.UpgradeInstance(inst.ID, "shelving"))
	assert.Equal(t, 1, inst.UpgradeLevels["shelving"])
	assert.Equal(t, 20.0, ledger.Get("stone"))

	require.NoError(t, m.UpgradeInstance(inst.ID, "shelving"))
	err := m.UpgradeInstance(inst.ID, "shelving")
	require.ErrorIs(t, err, ErrMaxLevel)
	assert.Equal(t, 10.0, ledger.Get("stone"))

	err = m.UpgradeInstance(inst.ID, "nope")
	require.ErrorIs(t, err, ErrUnknownUpgrade)
}

func TestAggregateBonus(t *testing.T) {
	m, ledger, _ := newManager(t)
	assert.Equal(t, 0.0, m.AggregateBonus(content.EffectStorageBonus))

	// Incomplete buildings contribute nothing.
	ledger.Set("wood", 100)
	_, err := m.StartConstruction("warehouse")
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.AggregateBonus(content.EffectStorageBonus))

	m.Update(5000)
	assert.Equal(t, 100.0, m.AggregateBonus(content.EffectStorageBonus))

	inst := build(t, m, ledger, "warehouse")
	ledger.Set("stone", 10)
	require.NoError(t, m.UpgradeInstance(inst.ID, "shelving"))
	assert.Equal(t, 250.0, m.AggregateBonus(content.EffectStorageBonus))
}

func TestStorageBonuses(t *testing.T) {
	m, ledger, _ := newManager(t)
	build(t, m, ledger, "warehouse")
	build(t, m, ledger, "warehouse")

	assert.Equal(t, map[content.ResourceID]float64{"": 200}, m.StorageBonuses())
}

func TestRestore(t *testing.T) {
	m, ledger, _ := newManager(t)
	a := build(t, m, ledger, "warehouse")
	b := build(t, m, ledger, "bunkhouse")

	saved := m.Instances()
	saved = append(saved, &Instance{ID: "ghost", Type: "removed_type"})

	n, _, _ := newManager(t)
	n.Restore(saved, 7)

	insts := n.Instances()
	require.Len(t, insts, 2)
	// Construction order survives the round trip.
	assert.Equal(t, a.ID, insts[0].ID)
	assert.Equal(t, b.ID, insts[1].ID)
	assert.Equal(t, 7, n.TotalBuilt())

	got, ok := n.Instance(b.ID)
	require.True(t, ok)
	assert.Len(t, got.Rooms, 2)
}
