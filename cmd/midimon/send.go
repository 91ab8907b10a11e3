package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"midimon/midi"
)

var errNoOutput = errors.New("no matching output port")

// sendNote plays one note on an output port, e.g. a loopback bus that a
// running monitor listens on
func sendNote(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	port := fs.String("port", "", "Output port name (substring, empty = first port)")
	note := fs.Uint("note", 60, "Note number 0-127")
	channel := fs.Uint("channel", 0, "MIDI channel 0-15")
	velocity := fs.Uint("velocity", 100, "Velocity 1-127")
	hold := fs.Duration("hold", 250*time.Millisecond, "Time between note on and note off")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *note > 127 || *channel > 15 || *velocity < 1 || *velocity > 127 {
		return errors.New("note, channel or velocity out of range")
	}

	out, err := findOutPort(*port)
	if err != nil {
		return err
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	ch, key := uint8(*channel), uint8(*note)
	fmt.Printf("Sending note %d on channel %d to %s\n", key, ch, out.String())
	if err := send(gomidi.NoteOn(ch, key, uint8(*velocity))); err != nil {
		return fmt.Errorf("note on: %w", err)
	}
	time.Sleep(*hold)
	if err := send(gomidi.NoteOff(ch, key)); err != nil {
		return fmt.Errorf("note off: %w", err)
	}
	return nil
}

func findOutPort(pattern string) (drivers.Out, error) {
	for _, out := range gomidi.GetOutPorts() {
		if midi.MatchPort(out.String(), pattern) {
			return out, nil
		}
	}
	if pattern == "" {
		return nil, errNoOutput
	}
	return nil, fmt.Errorf("%w: %q", errNoOutput, pattern)
}
