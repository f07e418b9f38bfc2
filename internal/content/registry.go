package content

import "sort"

// Registry indexes all loaded definitions for lookup by id.
type Registry struct {
	resources map[ResourceID]Resource
	workers   map[WorkerTypeID]WorkerType
	boosts    []Boost
	activity  map[ActivityID]Activity
	upgrades  map[UpgradeID]Upgrade
	buildings map[BuildingTypeID]BuildingType
	programs  map[ProgramID]TrainingProgram
}

func newRegistry(f *File) *Registry {
	r := &Registry{
		resources: make(map[ResourceID]Resource, len(f.Resources)),
		workers:   make(map[WorkerTypeID]WorkerType, len(f.WorkerTypes)),
		boosts:    append([]Boost(nil), f.Boosts...),
		activity:  make(map[ActivityID]Activity, len(f.Activities)),
		upgrades:  make(map[UpgradeID]Upgrade, len(f.Upgrades)),
		buildings: make(map[BuildingTypeID]BuildingType, len(f.BuildingTypes)),
		programs:  make(map[ProgramID]TrainingProgram, len(f.Programs)),
	}
	for _, v := range f.Resources {
		r.resources[v.ID] = v
	}
	for _, v := range f.WorkerTypes {
		r.workers[v.ID] = v
	}
	for _, v := range f.Activities {
		r.activity[v.ID] = v
	}
	for _, v := range f.Upgrades {
		r.upgrades[v.ID] = v
	}
	for _, v := range f.BuildingTypes {
		r.buildings[v.ID] = v
	}
	for _, v := range f.Programs {
		r.programs[v.ID] = v
	}
	return r
}

// Resource looks up a resource definition.
func (r *Registry) Resource(id ResourceID) (Resource, bool) {
	v, ok := r.resources[id]
	return v, ok
}

// WorkerType looks up a worker type definition.
func (r *Registry) WorkerType(id WorkerTypeID) (WorkerType, bool) {
	v, ok := r.workers[id]
	return v, ok
}

// Boosts returns all boost definitions.
func (r *Registry) Boosts() []Boost {
	return r.boosts
}

// Activity looks up an activity definition.
func (r *Registry) Activity(id ActivityID) (Activity, bool) {
	v, ok := r.activity[id]
	return v, ok
}

// Upgrade looks up an upgrade definition.
func (r *Registry) Upgrade(id UpgradeID) (Upgrade, bool) {
	v, ok := r.upgrades[id]
	return v, ok
}

// BuildingType looks up a building type definition.
func (r *Registry) BuildingType(id BuildingTypeID) (BuildingType, bool) {
	v, ok := r.buildings[id]
	return v, ok
}

// Program looks up a training program definition.
func (r *Registry) Program(id ProgramID) (TrainingProgram, bool) {
	v, ok := r.programs[id]
	return v, ok
}

// ActivityIDs returns all activity ids in sorted order, for deterministic
// iteration in the scheduler and catch-up simulator.
func (r *Registry) ActivityIDs() []ActivityID {
	ids := make([]ActivityID, 0, len(r.activity))
	for id := range r.activity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WorkerTypeIDs returns all worker type ids in sorted order.
func (r *Registry) WorkerTypeIDs() []WorkerTypeID {
	ids := make([]WorkerTypeID, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UpgradeIDs returns all upgrade ids in sorted order.
func (r *Registry) UpgradeIDs() []UpgradeID {
	ids := make([]UpgradeID, 0, len(r.upgrades))
	for id := range r.upgrades {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildingTypeIDs returns all building type ids in sorted order.
func (r *Registry) BuildingTypeIDs() []BuildingTypeID {
	ids := make([]BuildingTypeID, 0, len(r.buildings))
	for id := range r.buildings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UpgradesFor returns the upgrades targeting one activity, sorted by id.
func (r *Registry) UpgradesFor(activity ActivityID) []Upgrade {
	var out []Upgrade
	for _, u := range r.upgrades {
		if u.Activity == activity {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
