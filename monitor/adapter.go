// Package monitor moves note events from the real-time cycle to the
// presentation side. The Adapter runs inside each processing cycle and pushes
// into an spsc channel; the Accumulator drains that channel into a History
// whenever the UI refreshes.
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"

	"midimon/midi"
	"midimon/spsc"
)

// TimestampMode selects how CapturedAt is derived
type TimestampMode int

const (
	// TimestampCapture stamps each record with the wall clock at enqueue
	TimestampCapture TimestampMode = iota
	// TimestampOffset stamps window start + offset / sample rate, where the
	// window is the cycle unless the source says otherwise
	TimestampOffset
)

func (m TimestampMode) String() string {
	switch m {
	case TimestampOffset:
		return "offset"
	default:
		return "capture"
	}
}

// ParseTimestampMode parses "capture" or "offset" ("" means capture)
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch s {
	case "", "capture":
		return TimestampCapture, nil
	case "offset":
		return TimestampOffset, nil
	}
	return TimestampCapture, fmt.Errorf("unknown timestamp mode %q", s)
}

// CycleStats summarizes one ProcessCycle call
type CycleStats struct {
	Seen      int // events the source yielded
	Forwarded int // note events pushed
	Dropped   int // note events lost to a full channel
}

// Adapter is the producer side. ProcessCycle must only be called from one
// goroutine; it never blocks, locks, logs, or allocates.
type Adapter struct {
	out  *spsc.Producer[midi.Record]
	mode TimestampMode
	now  func() time.Time

	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

// NewAdapter wraps the producer half of a channel
func NewAdapter(out *spsc.Producer[midi.Record], mode TimestampMode) *Adapter {
	return &Adapter{out: out, mode: mode, now: time.Now}
}

// SetClock replaces the wall clock used for capture timestamps
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// ProcessCycle starts a cycle on src and forwards every note event it yields,
// in order. A full channel drops the event and processing continues.
func (a *Adapter) ProcessCycle(c midi.Cycle, src midi.Source) CycleStats {
	var st CycleStats
	src.BeginCycle(c)
	for {
		ev, ok := src.NextEvent()
		if !ok {
			break
		}
		st.Seen++

		p, ok := midi.Decode(ev.Msg, ev.Offset)
		if !ok {
			continue
		}

		var at time.Time
		if a.mode == TimestampOffset {
			at = ev.Time(c)
		} else {
			at = a.now()
		}
		if a.Push(midi.Record{CapturedAt: at, Payload: p}) {
			st.Forwarded++
		} else {
			st.Dropped++
		}
	}
	return st
}

// Push enqueues a record that is already stamped. It reports false, and
// counts the drop, when the channel is full.
func (a *Adapter) Push(rec midi.Record) bool {
	if err := a.out.Push(rec); err != nil {
		a.dropped.Add(1)
		return false
	}
	a.forwarded.Add(1)
	return true
}

// Dropped returns the total number of records lost to a full channel
func (a *Adapter) Dropped() uint64 {
	return a.dropped.Load()
}

// Forwarded returns the total number of records pushed
func (a *Adapter) Forwarded() uint64 {
	return a.forwarded.Load()
}
