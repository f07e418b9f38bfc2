// Package engine provides the tick loop and the Game orchestrator that
// owns every simulation manager.
package engine

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward: one Update call per tick, with all
// mutation running to completion before the next tick is admitted. Speed
// and the running flag are written from other goroutines (the admin API,
// the signal handler), so they live behind atomics.
type Engine struct {
	Interval time.Duration // Base tick interval (default 100ms)

	// OnTick receives the simulated delta for the tick, in milliseconds.
	OnTick func(tick uint64, deltaMs float64)

	tick    atomic.Uint64
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: 100 * time.Millisecond}
	e.SetSpeed(1.0)
	return e
}

// Tick returns the current tick counter (monotonic, never resets).
func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the speed multiplier. Safe from any goroutine; takes
// effect on the next tick.
func (e *Engine) SetSpeed(speed float64) {
	e.speed.Store(math.Float64bits(speed))
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the tick loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	for e.running.Load() {
		if e.Speed() <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval.
		elapsed := time.Since(start)
		if elapsed < e.Interval {
			time.Sleep(e.Interval - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick())
}

// Stop halts the tick loop. Safe to call from another goroutine.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick. Simulated time scales with the
// speed multiplier while wall-clock pacing stays fixed.
func (e *Engine) step() {
	tick := e.tick.Add(1)
	if e.OnTick != nil {
		deltaMs := float64(e.Interval.Milliseconds()) * e.Speed()
		e.OnTick(tick, deltaMs)
	}
}
