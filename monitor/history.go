package monitor

import (
	"slices"

	"midimon/midi"
	"midimon/spsc"
)

// History is the ordered log of every record delivered to the consumer side.
// It only ever grows. Values are snapshots: a History returned by an earlier
// Refresh is a prefix of every later one.
type History struct {
	records []midi.Record
}

// Len returns the number of records
func (h History) Len() int {
	return len(h.records)
}

// At returns the i'th record, oldest first
func (h History) At(i int) midi.Record {
	return h.records[i]
}

// Records returns the records, oldest first. The slice must not be modified.
func (h History) Records() []midi.Record {
	return slices.Clip(h.records)
}

// Since returns the records after the first n, so callers can render only
// what is new since they last looked.
func (h History) Since(n int) []midi.Record {
	if n < 0 {
		n = 0
	}
	if n >= len(h.records) {
		return nil
	}
	return slices.Clip(h.records[n:])
}

// Last returns the newest record
func (h History) Last() (midi.Record, bool) {
	if len(h.records) == 0 {
		return midi.Record{}, false
	}
	return h.records[len(h.records)-1], true
}

// drainFrom appends everything currently in c. Only the owner of the newest
// History may call it, since the append reuses spare capacity.
func (h History) drainFrom(c *spsc.Consumer[midi.Record]) History {
	return History{records: c.DrainInto(h.records)}
}
