package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, 0.0, XPForLevel(0))
	assert.Equal(t, 0.0, XPForLevel(1))
	assert.Equal(t, 100.0, XPForLevel(2))
	assert.Equal(t, 115.0, XPForLevel(3))
	assert.Equal(t, 132.0, XPForLevel(4)) // floor(100 × 1.15²)
	assert.Equal(t, 152.0, XPForLevel(5))
}

func TestLevelFromXPRoundTrip(t *testing.T) {
	for level := 1; level <= 60; level++ {
		threshold := XPForLevel(level)
		assert.Equal(t, level, LevelFromXP(threshold), "at threshold for level %d", level)
		if level > 1 {
			assert.Equal(t, level-1, LevelFromXP(threshold-1), "just below threshold for level %d", level)
		}
	}
}

func TestLevelFromXPEdges(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(-50))
	assert.Equal(t, 1, LevelFromXP(99))
	assert.Equal(t, 2, LevelFromXP(100))
}

func TestAddXPEmitsLevelUp(t *testing.T) {
	bus := events.NewBus()
	var ups []events.SkillLevelUp
	bus.On(events.TopicSkillLevelUp, func(payload any) {
		ups = append(ups, payload.(events.SkillLevelUp))
	})

	tr := NewTracker(bus)
	tr.AddXP("woodcutting", 50)
	assert.Empty(t, ups)
	assert.Equal(t, 1, tr.Level("woodcutting"))

	// A single grant may jump several levels; one notification carries the
	// whole range.
	tr.AddXP("woodcutting", 200)
	require.Len(t, ups, 1)
	assert.Equal(t, content.SkillID("woodcutting"), ups[0].Skill)
	assert.Equal(t, 1, ups[0].From)
	assert.Equal(t, 3, ups[0].To)
	assert.Equal(t, 3, tr.Level("woodcutting"))
}

func TestAddXPIgnoresNonPositive(t *testing.T) {
	tr := NewTracker(nil)
	tr.AddXP("mining", 50)
	tr.AddXP("mining", 0)
	tr.AddXP("mining", -10)
	assert.Equal(t, 50.0, tr.XP("mining"))
}

func TestSetXPIsSilent(t *testing.T) {
	bus := events.NewBus()
	fired := false
	bus.On(events.TopicSkillLevelUp, func(any) { fired = true })

	tr := NewTracker(bus)
	tr.SetXP("crafting", 250)
	assert.False(t, fired)
	assert.Equal(t, 3, tr.Level("crafting"))
	assert.Equal(t, 250.0, tr.XP("crafting"))
}

func TestUnseenSkillIsLevelOne(t *testing.T) {
	tr := NewTracker(nil)
	assert.Equal(t, 1, tr.Level("fishing"))
	assert.Equal(t, 0.0, tr.XP("fishing"))
}

func TestIsActivityUnlocked(t *testing.T) {
	tr := NewTracker(nil)
	act := content.Activity{ID: "mine_ore", Skill: "mining", LevelRequired: 2}

	assert.False(t, tr.IsActivityUnlocked(act))
	tr.AddXP("mining", 100)
	assert.True(t, tr.IsActivityUnlocked(act))
}

func TestTotalLevel(t *testing.T) {
	tr := NewTracker(nil)
	tr.AddXP("woodcutting", 100) // level 2
	tr.AddXP("mining", 10)       // level 1
	assert.Equal(t, 3, tr.TotalLevel())
}
