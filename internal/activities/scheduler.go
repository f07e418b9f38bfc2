// Package activities implements the time-based production state machine:
// Idle → Running → (Completed | Stopped) → Idle. Effective duration, inputs,
// and outputs are derived from the upgrade and worker-automation modifiers
// at start time and fixed for the lifetime of a run.
package activities

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/economy"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/skills"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/upgrades"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/workers"
)

// Errors returned by Start and Stop.
var (
	ErrUnknownActivity = errors.New("unknown activity")
	ErrAlreadyRunning  = errors.New("activity already running")
	ErrNotRunning      = errors.New("activity not running")
	ErrLocked          = errors.New("skill level too low")
	ErrNoWorkers       = errors.New("no workers assigned")
)

// run is the mutable state of one in-flight activity.
type run struct {
	durationMs float64
	progress   float64
	auto       bool
}

// Run is the read-only view of an active run for presentation polling.
type Run struct {
	Activity   content.ActivityID
	DurationMs float64
	Progress   float64
	Auto       bool
}

// Scheduler drives every running activity forward each tick.
type Scheduler struct {
	defs     *content.Registry
	ledger   *economy.Ledger
	skills   *skills.Tracker
	workers  *workers.Automation
	upgrades *upgrades.Registry
	bus      *events.Bus

	runs map[content.ActivityID]*run

	// halted marks auto-mode activities that completed but could not
	// restart. Queryable steady state, not an error.
	halted map[content.ActivityID]bool
}

// NewScheduler wires the scheduler to its collaborators.
func NewScheduler(defs *content.Registry, ledger *economy.Ledger, sk *skills.Tracker, wk *workers.Automation, up *upgrades.Registry, bus *events.Bus) *Scheduler {
	return &Scheduler{
		defs:     defs,
		ledger:   ledger,
		skills:   sk,
		workers:  wk,
		upgrades: up,
		bus:      bus,
		runs:     make(map[content.ActivityID]*run),
		halted:   make(map[content.ActivityID]bool),
	}
}

// EffectiveInputs returns the activity's inputs after cost reduction.
func (s *Scheduler) EffectiveInputs(id content.ActivityID) map[content.ResourceID]float64 {
	def, ok := s.defs.Activity(id)
	if !ok {
		return nil
	}
	reduction := s.upgrades.CostReduction(id)
	out := make(map[content.ResourceID]float64, len(def.Inputs))
	for res, amount := range def.Inputs {
		out[res] = amount * (1 - reduction)
	}
	return out
}

// EffectiveOutputs returns base outputs plus purchased output bonuses.
func (s *Scheduler) EffectiveOutputs(id content.ActivityID) map[content.ResourceID]float64 {
	def, ok := s.defs.Activity(id)
	if !ok {
		return nil
	}
	out := make(map[content.ResourceID]float64, len(def.Outputs))
	for res, amount := range def.Outputs {
		out[res] = amount
	}
	for res, bonus := range s.upgrades.OutputBonus(id) {
		out[res] += bonus
	}
	return out
}

// effectiveDurationMs derives the run duration: upgrades shrink the base
// duration multiplicatively (values are fractions of original time), while
// the worker multiplier speeds up the clock, so it divides. Worker
// multiplier zero with auto mode means the activity cannot run; a manual
// run proceeds at pace 1.
func (s *Scheduler) effectiveDurationMs(def content.Activity, auto bool) (float64, error) {
	w := s.workers.SpeedMultiplier(def.ID, def.Skill)
	if w == 0 {
		if auto {
			return 0, fmt.Errorf("activity %s: %w", def.ID, ErrNoWorkers)
		}
		w = 1
	}
	return def.Duration * 1000 * s.upgrades.SpeedMultiplier(def.ID) / w, nil
}

// EffectiveDurationMs previews the duration a run started now would get.
func (s *Scheduler) EffectiveDurationMs(id content.ActivityID, auto bool) (float64, error) {
	def, ok := s.defs.Activity(id)
	if !ok {
		return 0, fmt.Errorf("activity %s: %w", id, ErrUnknownActivity)
	}
	return s.effectiveDurationMs(def, auto)
}

// CanStart reports whether Start would succeed. Never mutates state.
func (s *Scheduler) CanStart(id content.ActivityID, auto bool) bool {
	return s.checkStart(id, auto) == nil
}

func (s *Scheduler) checkStart(id content.ActivityID, auto bool) error {
	def, ok := s.defs.Activity(id)
	if !ok {
		return fmt.Errorf("activity %s: %w", id, ErrUnknownActivity)
	}
	if _, running := s.runs[id]; running {
		return fmt.Errorf("activity %s: %w", id, ErrAlreadyRunning)
	}
	if !s.skills.IsActivityUnlocked(def) {
		return fmt.Errorf("activity %s: %w", id, ErrLocked)
	}
	if auto && !s.workers.IsAutomated(id) {
		return fmt.Errorf("activity %s: %w", id, ErrNoWorkers)
	}
	if !s.ledger.CanAfford(s.EffectiveInputs(id)) {
		return fmt.Errorf("activity %s: %w", id, economy.ErrInsufficient)
	}
	return nil
}

// Start begins a run. The effective duration is computed once here and
// never revised mid-run; reassigning workers affects the next run only.
func (s *Scheduler) Start(id content.ActivityID, auto bool) error {
	if err := s.checkStart(id, auto); err != nil {
		return err
	}
	def, _ := s.defs.Activity(id)
	durationMs, err := s.effectiveDurationMs(def, auto)
	if err != nil {
		return err
	}
	s.runs[id] = &run{durationMs: durationMs, auto: auto}
	delete(s.halted, id)
	if s.bus != nil {
		s.bus.Emit(events.TopicActivityStarted, events.ActivityStarted{
			Activity:   id,
			DurationMs: durationMs,
			Auto:       auto,
		})
	}
	return nil
}

// Stop removes a run without granting rewards, regardless of progress.
func (s *Scheduler) Stop(id content.ActivityID) error {
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("activity %s: %w", id, ErrNotRunning)
	}
	delete(s.runs, id)
	delete(s.halted, id)
	if s.bus != nil {
		s.bus.Emit(events.TopicActivityStopped, events.ActivityStopped{Activity: id})
	}
	return nil
}

// Update advances every run by deltaMs. Completions are deferred until
// after the full sweep so a completion-triggered restart never perturbs
// another activity's progress within the same tick.
func (s *Scheduler) Update(deltaMs float64) {
	if deltaMs <= 0 {
		return
	}
	var done []content.ActivityID
	for id, r := range s.runs {
		r.progress += deltaMs / r.durationMs
		if r.progress >= 1 {
			r.progress = 1
			done = append(done, id)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i] < done[j] })
	for _, id := range done {
		s.complete(id)
	}
}

// complete settles one finished run: spend effective inputs, grant
// effective outputs and XP, consume speed boosts, then auto-restart if
// possible. An auto run that cannot restart goes quietly halted.
func (s *Scheduler) complete(id content.ActivityID) {
	r := s.runs[id]
	def, ok := s.defs.Activity(id)
	if !ok {
		delete(s.runs, id)
		return
	}

	auto := r.auto
	delete(s.runs, id)

	if err := s.ledger.Spend(s.EffectiveInputs(id)); err != nil {
		// Inputs ran out mid-run. Rewards withheld; auto mode parks the
		// activity in the halted state instead of erroring.
		if auto {
			s.halted[id] = true
		}
		return
	}

	outputs := s.EffectiveOutputs(id)
	for res, amount := range outputs {
		s.ledger.Add(res, amount)
	}
	s.skills.AddXP(def.Skill, def.XP)
	s.workers.ConsumeSpeedBoosts(id)

	if s.bus != nil {
		s.bus.Emit(events.TopicActivityCompleted, events.ActivityCompleted{
			Activity: id,
			Outputs:  outputs,
			XP:       def.XP,
		})
	}

	if auto {
		if err := s.Start(id, true); err != nil {
			s.halted[id] = true
		}
	}
}

// IsRunning reports whether the activity has an in-flight run.
func (s *Scheduler) IsRunning(id content.ActivityID) bool {
	_, ok := s.runs[id]
	return ok
}

// Halted reports whether an auto-mode activity stopped because it could not
// restart (missing inputs or workers).
func (s *Scheduler) Halted(id content.ActivityID) bool {
	return s.halted[id]
}

// CanRun reports whether the activity could run automated right now:
// unlocked, workers assigned, and effective inputs affordable. Running
// activities report true.
func (s *Scheduler) CanRun(id content.ActivityID) bool {
	def, ok := s.defs.Activity(id)
	if !ok {
		return false
	}
	if s.IsRunning(id) {
		return true
	}
	if !s.skills.IsActivityUnlocked(def) {
		return false
	}
	if s.workers.SpeedMultiplier(id, def.Skill) == 0 {
		return false
	}
	return s.ledger.CanAfford(s.EffectiveInputs(id))
}

// Progress returns the progress ratio in [0,1] for a running activity.
func (s *Scheduler) Progress(id content.ActivityID) (float64, bool) {
	r, ok := s.runs[id]
	if !ok {
		return 0, false
	}
	return r.progress, true
}

// ActiveRuns returns a sorted snapshot of all in-flight runs.
func (s *Scheduler) ActiveRuns() []Run {
	out := make([]Run, 0, len(s.runs))
	for id, r := range s.runs {
		out = append(out, Run{
			Activity:   id,
			DurationMs: r.durationMs,
			Progress:   r.progress,
			Auto:       r.auto,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Activity < out[j].Activity })
	return out
}
