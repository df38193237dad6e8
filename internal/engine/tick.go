// Package engine provides the yearly simulation loop.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward one year per interval.
type Engine struct {
	Year     int           // Years stepped by this engine
	Interval time.Duration // Base year interval (default 1 second)

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = one year per Interval, 0 = paused
	running atomic.Bool
	stop    chan struct{}
	once    sync.Once

	// OnYear runs once per step. An error stops the loop.
	OnYear func(year int) error
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		speed:    1.0,
		Interval: time.Second,
		stop:     make(chan struct{}),
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier; zero pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the loop. Blocks until Stop is called or OnYear fails. Stop
// may come first, in which case Run returns at once without stepping.
func (e *Engine) Run() error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "year", e.Year, "speed", e.Speed())

	for {
		select {
		case <-e.stop:
			slog.Info("simulation engine stopped", "year", e.Year)
			return nil
		default:
		}

		wait := 100 * time.Millisecond // Paused; check again shortly.
		if speed := e.Speed(); speed > 0 {
			start := time.Now()
			if err := e.step(); err != nil {
				slog.Error("simulation engine halted", "year", e.Year, "error", err)
				return err
			}
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-e.stop:
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}

// RunYears steps n years back to back without sleeping.
func (e *Engine) RunYears(n int) error {
	for i := 0; i < n; i++ {
		if err := e.step(); err != nil {
			return err
		}
	}
	return nil
}

// Stop halts the loop after the current step. It is safe to call more than
// once, and before Run; a stopped engine does not run again.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
}

func (e *Engine) step() error {
	e.Year++
	if e.OnYear != nil {
		return e.OnYear(e.Year)
	}
	return nil
}
