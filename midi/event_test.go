package midi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  gomidi.Message
		want Payload
		ok   bool
	}{
		{"note on", gomidi.NoteOn(0, 60, 127), NoteOn(3, 0, 60, 1), true},
		{"note on channel 9", gomidi.NoteOn(9, 36, 0x7F), NoteOn(3, 9, 36, 1), true},
		{"note on zero velocity", gomidi.NoteOn(2, 64, 0), NoteOff(3, 2, 64, 0), true},
		{"note off", gomidi.NoteOff(0, 60), NoteOff(3, 0, 60, 0), true},
		{"note off release velocity", gomidi.Message{0x85, 61, 127}, NoteOff(3, 5, 61, 1), true},
		{"control change", gomidi.ControlChange(0, 1, 64), Payload{Kind: KindUnrecognized}, false},
		{"pitch bend", gomidi.Pitchbend(0, 100), Payload{Kind: KindUnrecognized}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.msg, 3)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_VelocityScale(t *testing.T) {
	p, ok := Decode(gomidi.NoteOn(0, 60, 64), 0)
	assert.True(t, ok)
	assert.InDelta(t, 0.504, p.Note.Velocity, 0.001)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Note On", KindNoteOn.String())
	assert.Equal(t, "Note Off", KindNoteOff.String())
	assert.Equal(t, "Unrecognized", KindUnrecognized.String())
	assert.Equal(t, "Unrecognized", Kind(42).String())
}

func TestCycleTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Cycle{Start: start, Frames: 480, SampleRate: 48000}

	assert.Equal(t, start, c.Time(0))
	assert.Equal(t, start.Add(5*time.Millisecond), c.Time(240))
	assert.Equal(t, 10*time.Millisecond, c.Duration())

	none := Cycle{Start: start, Frames: 480}
	assert.Equal(t, start, none.Time(240))
	assert.Zero(t, none.Duration())
}
