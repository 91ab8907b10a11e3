package main

import (
	"flag"
	"fmt"

	"midimon/config"
)

// writeConfig saves the effective config (defaults merged with any existing
// file) so that it can be edited by hand
func writeConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	path := fs.String("config", "", "Config file (default ~/.config/midimon/config.json)")
	port := fs.String("port", "", "Set input.port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Input.Port = *port
	}

	if *path == "" {
		if *path, err = config.ConfigPath(); err != nil {
			return err
		}
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(*path)
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Wrote %s (period %v per %d-frame cycle)\n", *path, cfg.CyclePeriod(), cfg.Engine.BlockSize)
	return nil
}
