package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"midimon/config"
	"midimon/debug"
	"midimon/midi"
	"midimon/monitor"
	"midimon/spsc"
	"midimon/theme"
	"midimon/tui"
)

// demoInterval is the time between demo notes
const demoInterval = 250 * time.Millisecond

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	port := fs.String("port", "", "Input port name (substring, overrides config)")
	demo := fs.Bool("demo", false, "Generate notes instead of reading a port")
	configPath := fs.String("config", "", "Config file (default ~/.config/midimon/config.json)")
	debugLog := fs.Bool("debug", false, "Write debug log to ~/.config/midimon/debug.log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Input.Port = *port
	}

	logger := debug.Logger()
	if *debugLog {
		path, err := debug.DefaultPath()
		if err != nil {
			return err
		}
		if logger, err = debug.Enable(path); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	mode, err := monitor.ParseTimestampMode(cfg.Engine.Timestamps)
	if err != nil {
		return err
	}

	producer, consumer, err := spsc.New[midi.Record](cfg.Buffer.Capacity)
	if err != nil {
		return fmt.Errorf("event channel: %w", err)
	}
	adapter := monitor.NewAdapter(producer, mode)
	accOpts := []monitor.Option{
		monitor.WithLogger(logger),
		monitor.WithMetrics(monitor.NewMetricsRecorder()),
		monitor.WithDropCounter(monitor.StageChannel, adapter),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tui.Options{
		Refresh:  cfg.RefreshInterval(),
		MaxLines: cfg.UI.MaxLines,
	}

	var source midi.Source
	if *demo {
		every := 1
		if period := cfg.CyclePeriod(); period > 0 {
			every = int(demoInterval / period)
		}
		source = midi.NewDemoSource(0, every, midi.DefaultDemoKeys)
		opts.Source = "demo"
	} else {
		ps, err := midi.NewPortSource(cfg.Buffer.InboundCapacity)
		if err != nil {
			return err
		}
		defer ps.Close()

		deviceMgr := midi.NewDeviceManager(ps, cfg.Input.Port)
		deviceMgr.SetLogger(logger)
		deviceMgr.SetAutoConnect(cfg.Input.AutoConnect)
		go deviceMgr.Run(ctx)

		source = ps
		opts.Devices = deviceMgr
		accOpts = append(accOpts, monitor.WithDropCounter(monitor.StageInbound, ps))
	}
	acc := monitor.NewAccumulator(consumer, accOpts...)

	engine, err := monitor.NewEngine(adapter, source, cfg.Engine.BlockSize, cfg.Engine.SampleRate)
	if err != nil {
		return err
	}
	go engine.Run(ctx)

	logger.Info("monitor started",
		slog.String("session", acc.Session()),
		slog.Int("capacity", cfg.Buffer.Capacity),
		slog.Duration("period", cfg.CyclePeriod()),
		slog.String("timestamps", mode.String()),
	)

	th, err := loadTheme(cfg.UI.Palette)
	if err != nil {
		return err
	}

	m := tui.NewModel(acc, th, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}

	cancel()
	logger.Info("monitor stopped",
		slog.Uint64("cycles", engine.Cycles()),
		slog.Uint64("overruns", engine.Overruns()),
		slog.Uint64("dropped_inbound", acc.DroppedAt(monitor.StageInbound)),
		slog.Uint64("dropped_channel", acc.DroppedAt(monitor.StageChannel)),
	)
	fmt.Printf("%d events, %d dropped\n", acc.History().Len(), acc.Dropped())
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func loadTheme(palettePath string) (*theme.Theme, error) {
	if palettePath == "" {
		return theme.New(nil), nil
	}
	palette, err := theme.LoadGPL(palettePath)
	if err != nil {
		return nil, err
	}
	return theme.New(palette), nil
}
