// Package debug routes structured logs to a file, since the terminal belongs
// to the UI while the monitor runs.
package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	file   *os.File
	mu     sync.Mutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// DefaultPath returns ~/.config/midimon/debug.log
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "midimon", "debug.log"), nil
}

// Enable starts debug logging to path, truncating it, and installs the
// logger as the slog default
func Enable(path string) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	file = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	logger.Info("debug logging started")
	return logger, nil
}

// Disable stops debug logging and discards further output
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)
}

// Logger returns the current logger. It discards everything until Enable.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
