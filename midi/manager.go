package midi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrScanTimeout is returned when the driver does not answer a port query in time
var ErrScanTimeout = errors.New("midi: port scan timed out")

// DeviceEvent is emitted when the watched input port appears or disappears
type DeviceEvent struct {
	Type DeviceEventType
	Port string
	Err  error // set when the port was found but could not be opened
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
	DeviceFailed
)

// Ports is a snapshot of the available port names
type Ports struct {
	Inputs  []string
	Outputs []string
}

// portLister queries the driver. Swapped in tests.
type portLister func() ([]drivers.In, []drivers.Out)

func driverPorts() ([]drivers.In, []drivers.Out) {
	return gomidi.GetInPorts(), gomidi.GetOutPorts()
}

// ListPorts returns the current port names. Some drivers (CoreMIDI) can hang,
// so the query is abandoned after timeout.
func ListPorts(timeout time.Duration) (Ports, error) {
	ins, outs, err := scanPorts(driverPorts, timeout)
	if err != nil {
		return Ports{}, err
	}
	var p Ports
	for _, in := range ins {
		p.Inputs = append(p.Inputs, in.String())
	}
	for _, out := range outs {
		p.Outputs = append(p.Outputs, out.String())
	}
	return p, nil
}

func scanPorts(list portLister, timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ins, outs := list()
		ch <- portsResult{inPorts: ins, outPorts: outs}
	}()

	select {
	case r := <-ch:
		return r.inPorts, r.outPorts, nil
	case <-time.After(timeout):
		return nil, nil, ErrScanTimeout
	}
}

// MatchPort reports whether a port name matches the configured pattern.
// An empty pattern matches any port.
func MatchPort(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

// DeviceManager watches for an input port and keeps a PortSource attached to it
type DeviceManager struct {
	source   *PortSource
	pattern  string
	list     portLister
	events   chan DeviceEvent
	pollRate time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	poll     bool

	mu      sync.RWMutex
	current string // attached port name
	failed  string // last port that failed to open
}

// NewDeviceManager creates a manager that attaches the first input port whose
// name contains pattern
func NewDeviceManager(source *PortSource, pattern string) *DeviceManager {
	return &DeviceManager{
		source:   source,
		pattern:  pattern,
		list:     driverPorts,
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
		timeout:  3 * time.Second,
		logger:   slog.Default(),
		poll:     true,
	}
}

// SetAutoConnect turns hot-plug polling on or off. When off, Run only scans
// once at startup.
func (dm *DeviceManager) SetAutoConnect(on bool) {
	dm.poll = on
}

// SetLogger replaces the logger
func (dm *DeviceManager) SetLogger(l *slog.Logger) {
	if l != nil {
		dm.logger = l
	}
}

// Events returns a channel of connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Current returns the attached port name, or ""
func (dm *DeviceManager) Current() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.current
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	defer close(dm.events)
	defer dm.source.Detach()

	// Initial scan
	dm.scan()
	if !dm.poll {
		<-ctx.Done()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, _, err := scanPorts(dm.list, dm.timeout)
	if err != nil {
		// Driver is hung - skip this scan
		dm.logger.Warn("port scan skipped", slog.String("error", err.Error()))
		return
	}

	current := dm.Current()

	var match drivers.In
	for _, in := range inPorts {
		if in.String() == current {
			// Still present
			return
		}
		if match == nil && MatchPort(in.String(), dm.pattern) {
			match = in
		}
	}

	if current != "" {
		dm.source.Detach()
		dm.setCurrent("")
		dm.logger.Info("input disconnected", slog.String("port", current))
		dm.emit(DeviceEvent{Type: DeviceDisconnected, Port: current})
	}

	if match == nil {
		return
	}

	name := match.String()
	if err := dm.source.Attach(match); err != nil {
		// Report each failing port once rather than every poll
		dm.mu.Lock()
		repeat := dm.failed == name
		dm.failed = name
		dm.mu.Unlock()
		if !repeat {
			dm.logger.Error("input attach failed", slog.String("port", name), slog.String("error", err.Error()))
			dm.emit(DeviceEvent{Type: DeviceFailed, Port: name, Err: err})
		}
		return
	}

	dm.mu.Lock()
	dm.current = name
	dm.failed = ""
	dm.mu.Unlock()
	dm.logger.Info("input connected", slog.String("port", name))
	dm.emit(DeviceEvent{Type: DeviceConnected, Port: name})
}

func (dm *DeviceManager) setCurrent(name string) {
	dm.mu.Lock()
	dm.current = name
	dm.mu.Unlock()
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
		// Nobody is listening; the next Current() call still reports the state
	}
}
