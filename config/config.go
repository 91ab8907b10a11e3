package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Timestamp modes for EngineConfig.Timestamps
const (
	TimestampsCapture = "capture"
	TimestampsOffset  = "offset"
)

// InputConfig selects the MIDI input port
type InputConfig struct {
	Port        string `json:"port,omitempty"` // substring match, empty = first port
	AutoConnect bool   `json:"autoConnect"`
}

// BufferConfig sizes the rings
type BufferConfig struct {
	Capacity        int `json:"capacity"`        // cycle -> UI channel
	InboundCapacity int `json:"inboundCapacity"` // driver -> cycle ring
}

// EngineConfig describes the processing cycle
type EngineConfig struct {
	SampleRate float64 `json:"sampleRate"`
	BlockSize  int     `json:"blockSize"`
	Timestamps string  `json:"timestamps,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	RefreshMs int    `json:"refreshMs"`
	Palette   string `json:"palette,omitempty"` // GIMP .gpl file, empty = built-in
	MaxLines  int    `json:"maxLines"`
}

// Config is the main configuration structure
type Config struct {
	Input  InputConfig  `json:"input"`
	Buffer BufferConfig `json:"buffer"`
	Engine EngineConfig `json:"engine"`
	UI     UIConfig     `json:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			AutoConnect: true,
		},
		Buffer: BufferConfig{
			Capacity:        1024,
			InboundCapacity: 256,
		},
		Engine: EngineConfig{
			SampleRate: 48000,
			BlockSize:  512,
			Timestamps: TimestampsCapture,
		},
		UI: UIConfig{
			RefreshMs: 50,
			MaxLines:  2000,
		},
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch {
	case c.Buffer.Capacity <= 0:
		return fmt.Errorf("%w: buffer.capacity must be > 0, got %d", ErrInvalid, c.Buffer.Capacity)
	case c.Buffer.InboundCapacity <= 0:
		return fmt.Errorf("%w: buffer.inboundCapacity must be > 0, got %d", ErrInvalid, c.Buffer.InboundCapacity)
	case c.Engine.SampleRate <= 0:
		return fmt.Errorf("%w: engine.sampleRate must be > 0, got %g", ErrInvalid, c.Engine.SampleRate)
	case c.Engine.BlockSize <= 0:
		return fmt.Errorf("%w: engine.blockSize must be > 0, got %d", ErrInvalid, c.Engine.BlockSize)
	case c.UI.RefreshMs <= 0:
		return fmt.Errorf("%w: ui.refreshMs must be > 0, got %d", ErrInvalid, c.UI.RefreshMs)
	case c.UI.MaxLines <= 0:
		return fmt.Errorf("%w: ui.maxLines must be > 0, got %d", ErrInvalid, c.UI.MaxLines)
	}
	switch c.Engine.Timestamps {
	case "", TimestampsCapture, TimestampsOffset:
	default:
		return fmt.Errorf("%w: engine.timestamps must be %q or %q, got %q",
			ErrInvalid, TimestampsCapture, TimestampsOffset, c.Engine.Timestamps)
	}
	return nil
}

// CyclePeriod returns how long one processing cycle lasts
func (c *Config) CyclePeriod() time.Duration {
	if c.Engine.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Engine.BlockSize) / c.Engine.SampleRate * float64(time.Second))
}

// RefreshInterval returns the UI poll cadence
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshMs) * time.Millisecond
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midimon"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing keys keep their defaults and a
// missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
