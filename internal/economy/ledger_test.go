package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
)

func TestAddClampsToCap(t *testing.T) {
	l := NewLedger(events.NewBus())

	applied := l.Add("wood", 40)
	assert.Equal(t, 40.0, applied)
	assert.Equal(t, 40.0, l.Get("wood"))

	// Default cap is 100; the excess is dropped and the applied amount
	// reported.
	applied = l.Add("wood", 80)
	assert.Equal(t, 60.0, applied)
	assert.Equal(t, 100.0, l.Get("wood"))
	assert.LessOrEqual(t, l.Get("wood"), l.Cap("wood"))
}

func TestAddNegativeClampsToZero(t *testing.T) {
	l := NewLedger(nil)
	l.Add("wood", 10)

	applied := l.Add("wood", -25)
	assert.Equal(t, -10.0, applied)
	assert.Equal(t, 0.0, l.Get("wood"))
}

func TestSubtractFailsWithoutMutation(t *testing.T) {
	l := NewLedger(nil)
	l.Add("wood", 5)

	require.False(t, l.Subtract("wood", 6))
	assert.Equal(t, 5.0, l.Get("wood"))

	require.True(t, l.Subtract("wood", 5))
	assert.Equal(t, 0.0, l.Get("wood"))
}

func TestSpendIsAtomic(t *testing.T) {
	l := NewLedger(nil)
	l.Add("wood", 10)
	l.Add("stone", 2)

	cost := map[content.ResourceID]float64{"wood": 5, "stone": 3}
	err := l.Spend(cost)
	require.ErrorIs(t, err, ErrInsufficient)

	// One resource was short: neither may have been touched.
	assert.Equal(t, 10.0, l.Get("wood"))
	assert.Equal(t, 2.0, l.Get("stone"))

	l.Add("stone", 1)
	require.NoError(t, l.Spend(cost))
	assert.Equal(t, 5.0, l.Get("wood"))
	assert.Equal(t, 0.0, l.Get("stone"))
}

func TestSetBypassesCapButNotZero(t *testing.T) {
	l := NewLedger(nil)

	// Administrative set may exceed the cap (save restore relies on it).
	l.Set("wood", 250)
	assert.Equal(t, 250.0, l.Get("wood"))
	assert.Greater(t, l.Get("wood"), l.Cap("wood"))

	l.Set("wood", -5)
	assert.Equal(t, 0.0, l.Get("wood"))
}

func TestCapBonusesAreAdditive(t *testing.T) {
	l := NewLedger(nil)
	assert.Equal(t, float64(DefaultBaseCap), l.Cap("wood"))

	l.AddCapBonus("wood", 50)
	l.AddCapBonus("wood", 25)
	assert.Equal(t, 175.0, l.Cap("wood"))

	l.AddGlobalCapBonus(100)
	assert.Equal(t, 275.0, l.Cap("wood"))
	assert.Equal(t, 200.0, l.Cap("stone"))

	// Bonuses change the cap, not the stock.
	assert.Equal(t, 0.0, l.Get("wood"))
}

func TestLifetimeEarnedOnlyCountsGains(t *testing.T) {
	l := NewLedger(nil)
	l.Add("wood", 60)
	l.Subtract("wood", 50)
	l.Add("wood", 60)

	assert.Equal(t, 120.0, l.LifetimeEarned("wood"))
}

func TestChangeNotifications(t *testing.T) {
	bus := events.NewBus()
	var got []events.ResourceChanged
	bus.On(events.TopicResourceChanged, func(payload any) {
		got = append(got, payload.(events.ResourceChanged))
	})

	l := NewLedger(bus)
	l.Add("wood", 10)
	l.Subtract("wood", 4)

	require.Len(t, got, 2)
	assert.Equal(t, content.ResourceID("wood"), got[0].Resource)
	assert.Equal(t, 10.0, got[0].Quantity)
	assert.Equal(t, 6.0, got[1].Quantity)
}
