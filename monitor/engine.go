package monitor

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"midimon/midi"
)

// ErrInvalidCycle is returned for a non-positive block size or sample rate
var ErrInvalidCycle = errors.New("monitor: block size and sample rate must be > 0")

// Engine is the real-time context: it runs one processing cycle per block
// period, like an audio host calling a plugin.
type Engine struct {
	adapter    *Adapter
	source     midi.Source
	frames     int
	sampleRate float64
	period     time.Duration

	cycles   atomic.Uint64
	overruns atomic.Uint64
}

// NewEngine creates an engine processing frames samples per cycle at sampleRate
func NewEngine(adapter *Adapter, source midi.Source, frames int, sampleRate float64) (*Engine, error) {
	if frames <= 0 || sampleRate <= 0 {
		return nil, ErrInvalidCycle
	}
	return &Engine{
		adapter:    adapter,
		source:     source,
		frames:     frames,
		sampleRate: sampleRate,
		period:     time.Duration(float64(frames) / sampleRate * float64(time.Second)),
	}, nil
}

// Period returns the cycle period
func (e *Engine) Period() time.Duration {
	return e.period
}

// Step runs a single cycle starting at now
func (e *Engine) Step(now time.Time) CycleStats {
	e.cycles.Add(1)
	return e.adapter.ProcessCycle(midi.Cycle{
		Start:      now,
		Frames:     e.frames,
		SampleRate: e.sampleRate,
	}, e.source)
}

// Run processes cycles until ctx is cancelled (blocking - run in goroutine).
// A cycle that overruns its period is counted; missed ticks are skipped,
// never queued.
func (e *Engine) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case start := <-ticker.C:
			e.Step(start)
			if time.Since(start) > e.period {
				e.overruns.Add(1)
			}
		}
	}
}

// Cycles returns the number of cycles run
func (e *Engine) Cycles() uint64 {
	return e.cycles.Load()
}

// Overruns returns the number of cycles that took longer than their period
func (e *Engine) Overruns() uint64 {
	return e.overruns.Load()
}
