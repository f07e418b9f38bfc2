// Package events provides the typed publish/subscribe notifier used for
// every cross-component notification. Presentation layers subscribe here;
// the simulation core never calls them directly.
package events

import (
	"sync"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
)

// Topic identifies one notification channel.
type Topic string

const (
	TopicResourceChanged      Topic = "resource:changed"
	TopicSkillLevelUp         Topic = "skill:levelup"
	TopicWorkerAssigned       Topic = "worker:assigned"
	TopicUpgradePurchased     Topic = "upgrade:purchased"
	TopicActivityStarted      Topic = "activity:started"
	TopicActivityCompleted    Topic = "activity:completed"
	TopicActivityStopped      Topic = "activity:stopped"
	TopicConstructionComplete Topic = "building:construction_complete"
	TopicWorkerGenerated      Topic = "building:worker_generated"
	TopicTrainingComplete     Topic = "building:training_complete"
	TopicOfflineProgress      Topic = "offline:progress"
)

// Payload types, one per topic.

type ResourceChanged struct {
	Resource content.ResourceID
	Quantity float64
}

type SkillLevelUp struct {
	Skill content.SkillID
	From  int
	To    int
}

type WorkerAssigned struct {
	Activity content.ActivityID
	Worker   content.WorkerTypeID
	Count    int
}

type UpgradePurchased struct {
	Upgrade content.UpgradeID
}

type ActivityStarted struct {
	Activity   content.ActivityID
	DurationMs float64
	Auto       bool
}

type ActivityCompleted struct {
	Activity content.ActivityID
	Outputs  map[content.ResourceID]float64
	XP       float64
}

type ActivityStopped struct {
	Activity content.ActivityID
}

type ConstructionComplete struct {
	Instance string
	Type     content.BuildingTypeID
}

type WorkerGenerated struct {
	Instance string
	Worker   content.WorkerTypeID
}

type TrainingComplete struct {
	Instance string
	Program  content.ProgramID
	Worker   content.WorkerTypeID
}

type OfflineProgress struct {
	SimulatedMs float64
	Clamped     bool
	Resources   map[content.ResourceID]float64
	XP          map[content.SkillID]float64
	Completions map[content.ActivityID]int
}

// Handler receives the payload published on a topic.
type Handler func(payload any)

// Subscription identifies a registered handler so it can be removed.
type Subscription uint64

type entry struct {
	id   Subscription
	fn   Handler
	once bool
}

// Bus is a synchronous notifier: Emit runs every handler inline before
// returning, preserving the single-threaded tick discipline.
type Bus struct {
	mu       sync.Mutex
	nextID   Subscription
	handlers map[Topic][]entry
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Topic][]entry)}
}

// On registers a handler for a topic.
func (b *Bus) On(topic Topic, fn Handler) Subscription {
	return b.subscribe(topic, fn, false)
}

// Once registers a handler that is removed after its first invocation.
func (b *Bus) Once(topic Topic, fn Handler) Subscription {
	return b.subscribe(topic, fn, true)
}

func (b *Bus) subscribe(topic Topic, fn Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], entry{id: id, fn: fn, once: once})
	return id
}

// Off removes a previously registered handler.
func (b *Bus) Off(topic Topic, id Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[topic]
	for i, e := range list {
		if e.id == id {
			b.handlers[topic] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit publishes a payload to every handler registered on the topic.
func (b *Bus) Emit(topic Topic, payload any) {
	b.mu.Lock()
	list := b.handlers[topic]
	fns := make([]Handler, 0, len(list))
	kept := list[:0]
	for _, e := range list {
		fns = append(fns, e.fn)
		if !e.once {
			kept = append(kept, e)
		}
	}
	b.handlers[topic] = kept
	b.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}
