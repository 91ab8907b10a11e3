package midi

import (
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind identifies which payload variant a Record carries
type Kind uint8

const (
	KindUnrecognized Kind = iota
	KindNoteOn
	KindNoteOff
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "Note On"
	case KindNoteOff:
		return "Note Off"
	default:
		return "Unrecognized"
	}
}

// Note holds the fields shared by note on and note off events
type Note struct {
	Offset   uint32  // sample offset within the processing cycle
	Channel  uint8   // 0-15
	Key      uint8   // MIDI note number
	Velocity float32 // normalized 0-1
}

// Payload is a closed set of event variants. It is a plain value so that
// building one on the real-time path never allocates.
type Payload struct {
	Kind Kind
	Note Note // valid for KindNoteOn and KindNoteOff
}

// Record is a payload stamped with the time it was captured
type Record struct {
	CapturedAt time.Time
	Payload    Payload
}

// NoteOn builds a note on payload
func NoteOn(offset uint32, channel, key uint8, velocity float32) Payload {
	return Payload{Kind: KindNoteOn, Note: Note{Offset: offset, Channel: channel, Key: key, Velocity: velocity}}
}

// NoteOff builds a note off payload
func NoteOff(offset uint32, channel, key uint8, velocity float32) Payload {
	return Payload{Kind: KindNoteOff, Note: Note{Offset: offset, Channel: channel, Key: key, Velocity: velocity}}
}

// Decode converts a raw MIDI message into a payload. ok is false for any
// message outside the tracked note on/off set.
func Decode(msg gomidi.Message, offset uint32) (p Payload, ok bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		// Note on with velocity 0 is a note off by convention
		if velocity == 0 {
			return NoteOff(offset, channel, key, 0), true
		}
		return NoteOn(offset, channel, key, normalize(velocity)), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return NoteOff(offset, channel, key, normalize(velocity)), true
	}
	return Payload{Kind: KindUnrecognized}, false
}

func normalize(v uint8) float32 {
	return float32(v) / 127
}

// Incoming is a raw message observed during a processing cycle
type Incoming struct {
	Offset uint32
	Msg    gomidi.Message
	// Window is the start of the span Offset counts from. Zero means the
	// current cycle's start.
	Window time.Time
}

// Time converts the event's offset to wall-clock time within c, or within its
// own window when the source measured it against an earlier one
func (ev Incoming) Time(c Cycle) time.Time {
	if !ev.Window.IsZero() {
		c.Start = ev.Window
	}
	return c.Time(ev.Offset)
}

// Cycle describes one processing cycle of the real-time loop
type Cycle struct {
	Start      time.Time
	Frames     int
	SampleRate float64
}

// Time converts a sample offset within the cycle to wall-clock time
func (c Cycle) Time(offset uint32) time.Time {
	if c.SampleRate <= 0 {
		return c.Start
	}
	return c.Start.Add(time.Duration(float64(offset) / c.SampleRate * float64(time.Second)))
}

// Duration returns the nominal length of the cycle
func (c Cycle) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames) / c.SampleRate * float64(time.Second))
}

// Source yields the events observed during each cycle. BeginCycle is called
// once per cycle, then NextEvent until it returns false. Both run on the
// real-time goroutine and must not block.
type Source interface {
	BeginCycle(c Cycle)
	NextEvent() (Incoming, bool)
}
