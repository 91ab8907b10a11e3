package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"midimon/midi"
	"midimon/spsc"
)

// State is the Accumulator's drain state
type State int32

const (
	// StateIdle means no Refresh is running
	StateIdle State = iota
	// StateDraining means a Refresh is moving records into the History
	StateDraining
)

func (s State) String() string {
	if s == StateDraining {
		return "draining"
	}
	return "idle"
}

// DropCounter reports a running total of dropped records
type DropCounter interface {
	Dropped() uint64
}

// Drop stages name where along the pipeline records were lost
const (
	StageInbound = "inbound" // driver -> cycle ring
	StageChannel = "channel" // cycle -> UI channel
)

type dropStage struct {
	name    string
	counter DropCounter
	last    uint64
}

// Accumulator is the consumer side. It owns the consumer handle and the
// History; the mutex only serializes presentation-side callers and is never
// taken by the real-time cycle.
type Accumulator struct {
	id      string
	logger  *slog.Logger
	metrics MetricsRecorder

	mu      sync.Mutex
	in      *spsc.Consumer[midi.Record]
	history History
	drops   []dropStage

	state atomic.Int32
}

// Option configures an Accumulator
type Option func(*Accumulator)

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(a *Accumulator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Default: NoopMetrics{}
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Accumulator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithDropCounter lets Refresh report drops counted at stage. It may be given
// once per stage.
func WithDropCounter(stage string, d DropCounter) Option {
	return func(a *Accumulator) {
		if d != nil {
			a.drops = append(a.drops, dropStage{name: stage, counter: d})
		}
	}
}

// NewAccumulator takes ownership of the consumer half of a channel
func NewAccumulator(in *spsc.Consumer[midi.Record], opts ...Option) *Accumulator {
	a := &Accumulator{
		id:      uuid.NewString(),
		logger:  slog.Default(),
		metrics: NoopMetrics{},
		in:      in,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(slog.String("session", a.id))
	return a
}

// Session returns the ID tagged on this accumulator's logs and metrics
func (a *Accumulator) Session() string {
	return a.id
}

// State reports whether a drain is in progress
func (a *Accumulator) State() State {
	return State(a.state.Load())
}

// Refresh drains every record currently in the channel, appends them in
// order to the History and returns it. It never waits for more records.
func (a *Accumulator) Refresh(ctx context.Context) History {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Store(int32(StateDraining))
	before := a.history.Len()
	a.history = a.history.drainFrom(a.in)
	a.state.Store(int32(StateIdle))

	if n := a.history.Len() - before; n > 0 {
		a.metrics.RecordDrain(ctx, a.id, n)
		a.logger.Debug("drained", slog.Int("records", n), slog.Int("history", a.history.Len()))
	}

	for i := range a.drops {
		d := &a.drops[i]
		total := d.counter.Dropped()
		if total <= d.last {
			continue
		}
		delta := total - d.last
		d.last = total
		a.metrics.RecordDropped(ctx, a.id, d.name, delta)
		a.logger.Warn("events dropped",
			slog.String("stage", d.name),
			slog.Uint64("dropped", delta),
			slog.Uint64("total", total),
		)
	}

	return a.history
}

// History returns the current History without draining
func (a *Accumulator) History() History {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history
}

// Dropped returns the drop total over all stages as of the last Refresh
func (a *Accumulator) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total uint64
	for _, d := range a.drops {
		total += d.last
	}
	return total
}

// DroppedAt returns the drop total for one stage as of the last Refresh
func (a *Accumulator) DroppedAt(stage string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range a.drops {
		if d.name == stage {
			return d.last
		}
	}
	return 0
}
