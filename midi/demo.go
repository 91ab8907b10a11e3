package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// DemoSource generates a repeating melody so the monitor can run without
// hardware. Every note is released on the next trigger, and every fourth
// trigger also sends a control change, which the monitor should ignore.
//
// All messages are built up front so that cycles never allocate.
type DemoSource struct {
	every int
	ons   []gomidi.Message
	offs  []gomidi.Message
	cc    gomidi.Message

	cycles  int
	step    int
	held    int // index into ons, -1 when nothing sounds
	frames  int
	pending [3]Incoming
	n, i    int
}

// DefaultDemoKeys is a C major arpeggio
var DefaultDemoKeys = []uint8{60, 64, 67, 72}

// NewDemoSource creates a demo that triggers a note every `every` cycles
func NewDemoSource(channel uint8, every int, keys []uint8) *DemoSource {
	if every < 1 {
		every = 1
	}
	if len(keys) == 0 {
		keys = DefaultDemoKeys
	}
	d := &DemoSource{
		every: every,
		cc:    gomidi.ControlChange(channel, 1, 64),
		held:  -1,
	}
	for i, k := range keys {
		vel := uint8(64 + (i*16)%64)
		d.ons = append(d.ons, gomidi.NoteOn(channel, k, vel))
		d.offs = append(d.offs, gomidi.NoteOff(channel, k))
	}
	return d
}

// BeginCycle implements Source
func (d *DemoSource) BeginCycle(c Cycle) {
	d.n, d.i = 0, 0
	d.frames = c.Frames
	d.cycles++
	if d.cycles%d.every != 0 {
		return
	}

	if d.held >= 0 {
		d.queue(d.offs[d.held])
	}
	d.held = d.step % len(d.ons)
	d.queue(d.ons[d.held])
	if d.step%4 == 3 {
		d.queue(d.cc)
	}
	d.step++
}

func (d *DemoSource) queue(msg gomidi.Message) {
	var offset uint32
	if d.frames > 0 {
		offset = uint32((d.step*37 + d.n*11) % d.frames)
	}
	d.pending[d.n] = Incoming{Offset: offset, Msg: msg}
	d.n++
}

// NextEvent implements Source
func (d *DemoSource) NextEvent() (Incoming, bool) {
	if d.i >= d.n {
		return Incoming{}, false
	}
	ev := d.pending[d.i]
	d.i++
	return ev, true
}
