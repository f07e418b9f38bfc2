// Package content holds the immutable game definitions: resources, worker
// types, activities, upgrades, building types, and training programs.
// Definitions are externally supplied data — the simulation treats a missing
// id as a failure value, never a crash.
package content

// Identifier types for the definition tables.
type (
	ResourceID     string
	SkillID        string
	ActivityID     string
	WorkerTypeID   string
	UpgradeID      string
	BuildingTypeID string
	ProgramID      string
)

// EffectKind tags the closed set of modifier effect variants. Aggregation
// code switches over these exhaustively instead of duck-typing effect maps.
type EffectKind string

const (
	// Activity-side effects (upgrades).
	EffectSpeed         EffectKind = "speed"          // Value: fraction of duration removed per purchase
	EffectOutputBonus   EffectKind = "output_bonus"   // Value: extra units of Resource per completion
	EffectCostReduction EffectKind = "cost_reduction" // Value: fraction of input cost removed

	// Building-side effects (base effects and per-instance upgrades).
	EffectStorageBonus EffectKind = "storage_bonus" // Value: extra cap for Resource ("" = all resources)
	EffectRoomCount    EffectKind = "room_count"    // Value: extra generator rooms at construction
	EffectRoomCapacity EffectKind = "room_capacity" // Value: extra capacity per room at construction
	EffectGenSpeed     EffectKind = "gen_speed"     // Value: ms shaved off worker generation time
	EffectTrainSpeed   EffectKind = "train_speed"   // Value: ms shaved off training time
	EffectTrainSlots   EffectKind = "train_slots"   // Value: extra training queue slots
)

// Effect is one tagged effect variant. Resource is only meaningful for
// output_bonus and storage_bonus.
type Effect struct {
	Kind     EffectKind `json:"kind" validate:"required,oneof=speed output_bonus cost_reduction storage_bonus room_count room_capacity gen_speed train_speed train_slots"`
	Value    float64    `json:"value"`
	Resource ResourceID `json:"resource,omitempty"`
}

// Resource is a named stock tracked by the ledger. Worker types and boost
// items are resources too — ownership always lives in the ledger.
type Resource struct {
	ID   ResourceID `json:"id" validate:"required"`
	Name string     `json:"name" validate:"required"`
}

// WorkerType describes an assignable worker. Owned quantities are stored in
// the ledger under ResourceID(ID).
type WorkerType struct {
	ID        WorkerTypeID `json:"id" validate:"required"`
	Name      string       `json:"name" validate:"required"`
	BaseSpeed float64      `json:"base_speed" validate:"gt=0"`
	// BonusSkill marks the skill this type is specialised in; activities of
	// that skill run 50% faster for this type.
	BonusSkill SkillID `json:"bonus_skill,omitempty"`
}

// Boost is a consumable resource that speeds up eligible worker types while
// any stock is held. Consumption is charged per activity completion.
type Boost struct {
	Resource        ResourceID     `json:"resource" validate:"required"`
	SpeedBonus      float64        `json:"speed_bonus" validate:"gt=0"`
	ConsumptionRate float64        `json:"consumption_rate" validate:"gt=0"`
	Eligible        []WorkerTypeID `json:"eligible" validate:"min=1"`
}

// Activity is a timed production recipe: inputs in, outputs and XP out.
type Activity struct {
	ID            ActivityID             `json:"id" validate:"required"`
	Name          string                 `json:"name" validate:"required"`
	Skill         SkillID                `json:"skill" validate:"required"`
	LevelRequired int                    `json:"level_required" validate:"min=1"`
	Duration      float64                `json:"duration" validate:"gt=0"` // seconds
	Inputs        map[ResourceID]float64 `json:"inputs,omitempty"`
	Outputs       map[ResourceID]float64 `json:"outputs,omitempty"`
	XP            float64                `json:"xp" validate:"min=0"`
}

// Upgrade is a purchasable, permanent activity modifier.
type Upgrade struct {
	ID         UpgradeID              `json:"id" validate:"required"`
	Name       string                 `json:"name" validate:"required"`
	Activity   ActivityID             `json:"activity" validate:"required"`
	Effect     Effect                 `json:"effect" validate:"required"`
	Cost       map[ResourceID]float64 `json:"cost" validate:"min=1"`
	Skill      SkillID                `json:"skill" validate:"required"`
	SkillLevel int                    `json:"skill_level" validate:"min=1"`
	Requires   UpgradeID              `json:"requires,omitempty"`
}

// BuildingKind distinguishes the three building behaviours.
type BuildingKind string

const (
	BuildingGenerator BuildingKind = "generator" // passively produces workers
	BuildingTraining  BuildingKind = "training"  // runs a bounded retraining queue
	BuildingPassive   BuildingKind = "passive"   // effects only (warehouses etc.)
)

// GeneratorSpec configures a worker-generating building.
type GeneratorSpec struct {
	WorkerType   WorkerTypeID `json:"worker_type" validate:"required"`
	Rooms        int          `json:"rooms" validate:"min=1"`
	RoomCapacity int          `json:"room_capacity" validate:"min=1"`
	GenTime      float64      `json:"gen_time" validate:"gt=0"` // seconds per worker
}

// TrainingSpec configures a training-hall building.
type TrainingSpec struct {
	Slots int `json:"slots" validate:"min=1"`
}

// BuildingUpgrade is a per-instance upgrade track on a building type.
type BuildingUpgrade struct {
	ID       string                 `json:"id" validate:"required"`
	Name     string                 `json:"name" validate:"required"`
	Cost     map[ResourceID]float64 `json:"cost" validate:"min=1"`
	MaxLevel int                    `json:"max_level" validate:"min=1"`
	Effect   Effect                 `json:"effect" validate:"required"`
}

// BuildingType is an immutable building definition. Cost scales by
// CostMultiplier^existingCount, floored per resource.
type BuildingType struct {
	ID               BuildingTypeID         `json:"id" validate:"required"`
	Name             string                 `json:"name" validate:"required"`
	Kind             BuildingKind           `json:"kind" validate:"required,oneof=generator training passive"`
	Cost             map[ResourceID]float64 `json:"cost" validate:"min=1"`
	CostMultiplier   float64                `json:"cost_multiplier" validate:"gte=1"`
	MaxCount         int                    `json:"max_count" validate:"min=1"`
	ConstructionTime float64                `json:"construction_time" validate:"gt=0"` // seconds

	// Unlock conditions. Zero values mean "no requirement".
	UnlockResource ResourceID `json:"unlock_resource,omitempty"`
	UnlockAmount   float64    `json:"unlock_amount,omitempty"` // lifetime earned of UnlockResource
	UnlockBuilt    int        `json:"unlock_built,omitempty"`  // total buildings constructed

	Effects   []Effect          `json:"effects,omitempty"` // base effects while complete
	Generator *GeneratorSpec    `json:"generator,omitempty"`
	Training  *TrainingSpec     `json:"training,omitempty"`
	Upgrades  []BuildingUpgrade `json:"upgrades,omitempty"`
}

// TrainingProgram retrains one input worker into one output worker.
type TrainingProgram struct {
	ID       ProgramID              `json:"id" validate:"required"`
	Name     string                 `json:"name" validate:"required"`
	Building BuildingTypeID         `json:"building" validate:"required"`
	Input    WorkerTypeID           `json:"input" validate:"required"`
	Output   WorkerTypeID           `json:"output" validate:"required"`
	Cost     map[ResourceID]float64 `json:"cost,omitempty"`
	Time     float64                `json:"time" validate:"gt=0"` // seconds
}
