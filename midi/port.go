package midi

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"midimon/spsc"
)

// DefaultInboundCapacity is the size of the driver-to-cycle ring
const DefaultInboundCapacity = 256

type arrival struct {
	at  time.Time
	msg gomidi.Message
}

// PortSource feeds messages from a MIDI input port into processing cycles.
//
// The driver callback is the only producer of the inbound ring and the
// real-time cycle its only consumer. The cycle side never takes a lock.
type PortSource struct {
	portMu   sync.Mutex // guards port and stopFunc
	port     drivers.In
	stopFunc func()

	pushMu  sync.Mutex // serializes callbacks across a port hand-over
	in      *spsc.Producer[arrival]
	dropped atomic.Uint64

	// real-time goroutine only
	out       *spsc.Consumer[arrival]
	cycle     Cycle
	prevStart time.Time
	pending   arrival
	held      bool
}

// NewPortSource creates a source with an inbound ring of the given capacity
func NewPortSource(capacity int) (*PortSource, error) {
	in, out, err := spsc.New[arrival](capacity)
	if err != nil {
		return nil, fmt.Errorf("inbound ring: %w", err)
	}
	return &PortSource{in: in, out: out}, nil
}

// Attach starts listening on inPort, replacing any previous port
func (s *PortSource) Attach(inPort drivers.In) error {
	s.portMu.Lock()
	defer s.portMu.Unlock()

	s.detachLocked()

	stop, err := gomidi.ListenTo(inPort, s.receive)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	s.port = inPort
	s.stopFunc = stop
	return nil
}

// Detach stops listening. Messages already received are still delivered.
func (s *PortSource) Detach() {
	s.portMu.Lock()
	defer s.portMu.Unlock()
	s.detachLocked()
}

func (s *PortSource) detachLocked() {
	if s.stopFunc != nil {
		s.stopFunc()
	}
	s.stopFunc = nil
	s.port = nil
}

// Close detaches the port
func (s *PortSource) Close() error {
	s.Detach()
	return nil
}

// Port returns the name of the attached port, or "" when detached
func (s *PortSource) Port() string {
	s.portMu.Lock()
	defer s.portMu.Unlock()
	if s.port == nil {
		return ""
	}
	return s.port.String()
}

// Dropped returns how many messages were lost because the inbound ring was full
func (s *PortSource) Dropped() uint64 {
	return s.dropped.Load()
}

// receive runs on the driver's thread
func (s *PortSource) receive(msg gomidi.Message, _ int32) {
	// The driver may reuse its buffer after the callback returns
	a := arrival{at: time.Now(), msg: append(gomidi.Message(nil), msg...)}

	s.pushMu.Lock()
	err := s.in.Push(a)
	s.pushMu.Unlock()
	if err != nil {
		s.dropped.Add(1)
	}
}

// BeginCycle implements Source
func (s *PortSource) BeginCycle(c Cycle) {
	s.prevStart = s.cycle.Start
	s.cycle = c
}

// NextEvent implements Source. It yields messages that arrived before the
// current cycle started, positioned relative to the previous cycle, whose
// start is carried in Incoming.Window.
func (s *PortSource) NextEvent() (Incoming, bool) {
	if !s.held {
		a, err := s.out.Pop()
		if err != nil {
			return Incoming{}, false
		}
		s.pending, s.held = a, true
	}
	if s.pending.at.After(s.cycle.Start) {
		// Belongs to the next cycle
		return Incoming{}, false
	}
	s.held = false
	a := s.pending
	s.pending = arrival{}
	return Incoming{Offset: s.offsetOf(a.at), Msg: a.msg, Window: s.prevStart}, true
}

func (s *PortSource) offsetOf(at time.Time) uint32 {
	if s.prevStart.IsZero() || s.cycle.Frames <= 0 {
		return 0
	}
	samples := at.Sub(s.prevStart).Seconds() * s.cycle.SampleRate
	if samples < 0 {
		return 0
	}
	if last := float64(s.cycle.Frames - 1); samples > last {
		return uint32(last)
	}
	return uint32(samples)
}
