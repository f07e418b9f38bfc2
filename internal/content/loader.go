package content

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// File is the on-disk content document shape.
type File struct {
	Resources     []Resource        `json:"resources" validate:"min=1,dive"`
	WorkerTypes   []WorkerType      `json:"worker_types" validate:"min=1,dive"`
	Boosts        []Boost           `json:"boosts" validate:"dive"`
	Activities    []Activity        `json:"activities" validate:"min=1,dive"`
	Upgrades      []Upgrade         `json:"upgrades" validate:"dive"`
	BuildingTypes []BuildingType    `json:"building_types" validate:"dive"`
	Programs      []TrainingProgram `json:"programs" validate:"dive"`
}

// Load reads and validates a content file, returning an indexed registry.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	return Build(&f)
}

// Build validates a content document and returns an indexed registry.
func Build(f *File) (*Registry, error) {
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("validate content: %w", err)
	}
	r := newRegistry(f)
	if err := r.checkReferences(); err != nil {
		return nil, fmt.Errorf("validate content: %w", err)
	}
	return r, nil
}

// checkReferences verifies cross-table ids so the simulation never chases a
// dangling reference at runtime.
func (r *Registry) checkReferences() error {
	resourceKnown := func(id ResourceID) bool {
		if _, ok := r.resources[id]; ok {
			return true
		}
		// Worker types double as resources.
		_, ok := r.workers[WorkerTypeID(id)]
		return ok
	}

	for id, a := range r.activity {
		for res := range a.Inputs {
			if !resourceKnown(res) {
				return fmt.Errorf("activity %q: unknown input resource %q", id, res)
			}
		}
		for res := range a.Outputs {
			if !resourceKnown(res) {
				return fmt.Errorf("activity %q: unknown output resource %q", id, res)
			}
		}
	}
	for id, u := range r.upgrades {
		if _, ok := r.activity[u.Activity]; !ok {
			return fmt.Errorf("upgrade %q: unknown activity %q", id, u.Activity)
		}
		if u.Requires != "" {
			if _, ok := r.upgrades[u.Requires]; !ok {
				return fmt.Errorf("upgrade %q: unknown prerequisite %q", id, u.Requires)
			}
		}
	}
	for _, b := range r.boosts {
		if !resourceKnown(b.Resource) {
			return fmt.Errorf("boost %q: unknown resource", b.Resource)
		}
		for _, wt := range b.Eligible {
			if _, ok := r.workers[wt]; !ok {
				return fmt.Errorf("boost %q: unknown worker type %q", b.Resource, wt)
			}
		}
	}
	for id, bt := range r.buildings {
		if bt.Kind == BuildingGenerator && bt.Generator == nil {
			return fmt.Errorf("building %q: generator kind without generator spec", id)
		}
		if bt.Kind == BuildingTraining && bt.Training == nil {
			return fmt.Errorf("building %q: training kind without training spec", id)
		}
		if bt.Generator != nil {
			if _, ok := r.workers[bt.Generator.WorkerType]; !ok {
				return fmt.Errorf("building %q: unknown worker type %q", id, bt.Generator.WorkerType)
			}
		}
	}
	for id, p := range r.programs {
		if _, ok := r.buildings[p.Building]; !ok {
			return fmt.Errorf("program %q: unknown building %q", id, p.Building)
		}
		if _, ok := r.workers[p.Input]; !ok {
			return fmt.Errorf("program %q: unknown input worker %q", id, p.Input)
		}
		if _, ok := r.workers[p.Output]; !ok {
			return fmt.Errorf("program %q: unknown output worker %q", id, p.Output)
		}
	}
	return nil
}
