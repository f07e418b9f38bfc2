package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

func testDefs(t *testing.T) *content.Registry {
	t.Helper()
	defs, err := content.Build(&content.File{
		Resources: []content.Resource{
			{ID: "coins", Name: "Coins"},
			{ID: "wood", Name: "Wood"},
			{ID: "shrimp", Name: "Shrimp"},
		},
		WorkerTypes: []content.WorkerType{
			{ID: "bot", Name: "Bot", BaseSpeed: 1.0},
		},
		Activities: []content.Activity{
			{ID: "chop_wood", Name: "Chop Wood", Skill: "woodcutting", LevelRequired: 1, Duration: 2, Outputs: map[content.ResourceID]float64{"wood": 1}, XP: 10},
			{ID: "sell_shrimp", Name: "Sell Shrimp", Skill: "fishing", LevelRequired: 1, Duration: 1, Inputs: map[content.ResourceID]float64{"shrimp": 1}, Outputs: map[content.ResourceID]float64{"coins": 5}, XP: 2},
		},
		Upgrades: []content.Upgrade{
			{ID: "cheap_axe", Name: "Cheap Axe", Activity: "chop_wood",
				Effect: content.Effect{Kind: content.EffectSpeed, Value: 0.1},
				Cost:   map[content.ResourceID]float64{"coins": 5},
				Skill:  "woodcutting", SkillLevel: 1},
		},
		BuildingTypes: []content.BuildingType{
			{ID: "warehouse", Name: "Warehouse", Kind: content.BuildingPassive,
				Cost: map[content.ResourceID]float64{"wood": 10}, CostMultiplier: 1,
				MaxCount: 5, ConstructionTime: 5,
				Effects: []content.Effect{{Kind: content.EffectStorageBonus, Value: 100}}},
		},
	})
	require.NoError(t, err)
	return defs
}

func newGame(t *testing.T) (*Game, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	return NewGame(testDefs(t), bus), bus
}

func TestUpdateDrivesProduction(t *testing.T) {
	g, _ := newGame(t)
	g.ledger.Set(content.ResourceID("bot"), 1)
	require.NoError(t, g.AssignWorkers("chop_wood", "bot", 1))
	require.NoError(t, g.StartActivity("chop_wood", true))

	g.Update(2000)

	res := g.Resources()
	assert.Equal(t, 1.0, res["wood"].Quantity)
	assert.Equal(t, 1.0, res["wood"].Lifetime)
	assert.Equal(t, 2000.0, g.SimTimeMs())

	sk := g.Skills()
	assert.Equal(t, 10.0, sk["woodcutting"].XP)
}

func TestStorageBonusAppliedExactlyOnce(t *testing.T) {
	g, _ := newGame(t)
	g.ledger.Set("wood", 20)

	_, err := g.StartConstruction("warehouse")
	require.NoError(t, err)
	assert.Equal(t, 100.0, g.Resources()["wood"].Cap)

	g.Update(5000)
	// The warehouse bonus is global: every resource's cap rises.
	assert.Equal(t, 200.0, g.Resources()["wood"].Cap)
	assert.Equal(t, 200.0, g.Resources()["coins"].Cap)

	// Subsequent ticks must not re-apply the same completion.
	g.Update(5000)
	g.Update(5000)
	assert.Equal(t, 200.0, g.Resources()["wood"].Cap)
}

func TestRunCatchupAppliesBatch(t *testing.T) {
	g, bus := newGame(t)
	g.ledger.Set(content.ResourceID("bot"), 1)
	require.NoError(t, g.AssignWorkers("chop_wood", "bot", 1))

	var offline []events.OfflineProgress
	bus.On(events.TopicOfflineProgress, func(payload any) {
		offline = append(offline, payload.(events.OfflineProgress))
	})

	res := g.RunCatchup(10000)

	assert.Equal(t, 5, res.Completions["chop_wood"])
	assert.Equal(t, 5.0, g.Resources()["wood"].Quantity)
	assert.Equal(t, 50.0, g.Skills()["woodcutting"].XP)
	require.Len(t, offline, 1)
	assert.Equal(t, 10000.0, offline[0].SimulatedMs)
}

func TestResumeAutomation(t *testing.T) {
	g, _ := newGame(t)
	g.ledger.Set(content.ResourceID("bot"), 2)
	require.NoError(t, g.AssignWorkers("chop_wood", "bot", 1))
	// No shrimp in stock: this one cannot resume and is skipped quietly.
	require.NoError(t, g.AssignWorkers("sell_shrimp", "bot", 1))

	g.ResumeAutomation()

	runs := g.ActiveRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, content.ActivityID("chop_wood"), runs[0].Activity)
	assert.True(t, runs[0].Auto)
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	g, _ := newGame(t)
	g.ledger.Set(content.ResourceID("bot"), 1)
	g.ledger.Set("wood", 10)
	g.ledger.Set("coins", 8)
	g.ledger.SetLifetimeEarned("wood", 64)
	require.NoError(t, g.AssignWorkers("chop_wood", "bot", 1))
	require.NoError(t, g.PurchaseUpgrade("cheap_axe"))
	g.skills.AddXP("woodcutting", 150)

	_, err := g.StartConstruction("warehouse")
	require.NoError(t, err)
	g.Update(5000)
	require.Equal(t, 200.0, g.Resources()["wood"].Cap)

	st := g.SaveState(12345)
	assert.Equal(t, SaveVersion, st.Version)
	assert.Equal(t, int64(12345), st.LastSaveTime)

	h, _ := newGame(t)
	h.RestoreState(st)

	res := h.Resources()
	assert.Equal(t, 0.0, res["wood"].Quantity) // construction spent it
	assert.Equal(t, 200.0, res["wood"].Cap)
	assert.Equal(t, 64.0, res["wood"].Lifetime)
	assert.Equal(t, 3.0, res["coins"].Quantity)
	assert.Equal(t, 2, h.Skills()["woodcutting"].Level)
	assert.Equal(t, 5000.0, h.SimTimeMs())

	views, assignments := h.Workers()
	assert.Equal(t, 1, views["bot"].Assigned)
	assert.Equal(t, 1, assignments["chop_wood"]["bot"])

	blds := h.Buildings()
	require.Len(t, blds, 1)
	assert.True(t, blds[0].Complete)

	// The restored warehouse must not be granted a second time.
	h.Update(1000)
	assert.Equal(t, 200.0, h.Resources()["wood"].Cap)
}

func TestRestoreKeepsOverCapStock(t *testing.T) {
	g, _ := newGame(t)
	st := &SaveState{
		Version:   SaveVersion,
		Resources: map[content.ResourceID]float64{"wood": 250},
	}
	g.RestoreState(st)

	// Over-cap stock from an older save survives verbatim.
	assert.Equal(t, 250.0, g.Resources()["wood"].Quantity)
	assert.Equal(t, 100.0, g.Resources()["wood"].Cap)
}
