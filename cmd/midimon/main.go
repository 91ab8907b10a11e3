package main

import (
	"fmt"
	"os"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midimon/midi"
)

func main() {
	defer gomidi.CloseDriver()

	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = runMonitor(args)
	case "ports":
		err = listPorts()
	case "send":
		err = sendNote(args)
	case "config":
		err = writeConfig(args)
	case "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		gomidi.CloseDriver()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("midimon - MIDI note monitor")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run     - Monitor notes (default)")
	fmt.Println("  ports   - List MIDI ports")
	fmt.Println("  send    - Send a test note to an output port")
	fmt.Println("  config  - Write the effective config to disk")
	fmt.Println("")
	fmt.Println("Run 'midimon <command> -h' for flags.")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		return fmt.Errorf("%w (CoreMIDI can hang: sudo killall coreaudiod midiserver)", err)
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ports.Inputs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.Outputs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}
