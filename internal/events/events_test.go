package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	var got []any
	bus.On(TopicResourceChanged, func(payload any) { got = append(got, payload) })
	bus.On(TopicResourceChanged, func(payload any) { got = append(got, payload) })

	bus.Emit(TopicResourceChanged, ResourceChanged{Resource: "wood", Quantity: 3})

	require.Len(t, got, 2)
	assert.Equal(t, ResourceChanged{Resource: "wood", Quantity: 3}, got[0])
}

func TestEmitIgnoresOtherTopics(t *testing.T) {
	bus := NewBus()
	fired := false
	bus.On(TopicSkillLevelUp, func(any) { fired = true })

	bus.Emit(TopicResourceChanged, ResourceChanged{})
	assert.False(t, fired)
}

func TestOffRemovesHandler(t *testing.T) {
	bus := NewBus()
	count := 0
	id := bus.On(TopicActivityCompleted, func(any) { count++ })

	bus.Emit(TopicActivityCompleted, ActivityCompleted{})
	bus.Off(TopicActivityCompleted, id)
	bus.Emit(TopicActivityCompleted, ActivityCompleted{})

	assert.Equal(t, 1, count)
}

func TestOnceFiresOnce(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Once(TopicUpgradePurchased, func(any) { count++ })

	bus.Emit(TopicUpgradePurchased, UpgradePurchased{})
	bus.Emit(TopicUpgradePurchased, UpgradePurchased{})

	assert.Equal(t, 1, count)
}

func TestEmitWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Emit(TopicOfflineProgress, OfflineProgress{})
	})
}
