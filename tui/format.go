package tui

import (
	"fmt"
	"strconv"
	"time"

	"midimon/midi"
)

// TimeLayout matches strftime %r, e.g. "03:04:05 PM"
const TimeLayout = "03:04:05 PM"

const unrecognized = "Unrecognized Message Type"

// FormatRecord renders a record as one plain log line:
// "[03:04:05 PM] Note On: <offset> <channel> <note> <velocity>"
func FormatRecord(rec midi.Record, loc *time.Location) string {
	switch rec.Payload.Kind {
	case midi.KindNoteOn, midi.KindNoteOff:
		return fmt.Sprintf("[%s] %s: %s", FormatTime(rec.CapturedAt, loc), rec.Payload.Kind, FormatNote(rec.Payload.Note))
	default:
		return unrecognized
	}
}

// FormatTime renders t in loc (local time when nil)
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimeLayout)
}

// FormatNote renders "offset channel note velocity"
func FormatNote(n midi.Note) string {
	return fmt.Sprintf("%d %d %d %s", n.Offset, n.Channel, n.Key, FormatVelocity(n.Velocity))
}

// FormatVelocity uses the shortest representation: 0.5, 1, 0
func FormatVelocity(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
