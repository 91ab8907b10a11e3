package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midimon/midi"
	"midimon/monitor"
	"midimon/theme"
	"midimon/widgets"
)

const (
	headerHeight = 2
	footerHeight = 2
	meterWidth   = 8
)

var keyHelp = []widgets.KeyBinding{
	{Key: "↑/↓", Desc: "scroll"},
	{Key: "G", Desc: "follow"},
	{Key: "q", Desc: "quit"},
}

// Options configures the model
type Options struct {
	Refresh  time.Duration       // how often to drain the channel
	MaxLines int                 // rendered lines kept in the view
	Location *time.Location      // timestamps; nil = local
	Source   string              // shown until a device connects, e.g. "demo"
	Devices  *midi.DeviceManager // nil when reading a demo source
}

type Model struct {
	acc      *monitor.Accumulator
	devices  *midi.DeviceManager
	theme    *theme.Theme
	opts     Options
	viewport viewport.Model

	lines    []string
	seen     int // history records already rendered
	total    int
	port     string
	status   string
	follow   bool
	quitting bool
}

type refreshMsg time.Time

type DeviceEventMsg midi.DeviceEvent

func NewModel(acc *monitor.Accumulator, th *theme.Theme, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = 50 * time.Millisecond
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = 2000
	}
	return Model{
		acc:      acc,
		devices:  opts.Devices,
		theme:    th,
		opts:     opts,
		viewport: viewport.New(80, 20),
		port:     opts.Source,
		follow:   true,
	}
}

// ScheduleRefresh asks for a refreshMsg after d. The presentation cadence
// drives draining; the real-time side never notifies the UI.
func ScheduleRefresh(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ScheduleRefresh(m.opts.Refresh),
		ListenForDevices(m.devices),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "G", "end":
			m.follow = true
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-headerHeight-footerHeight)
		if m.follow {
			m.viewport.GotoBottom()
		}

	case refreshMsg:
		m = m.refresh()
		return m, ScheduleRefresh(m.opts.Refresh)

	case DeviceEventMsg:
		switch msg.Type {
		case midi.DeviceConnected:
			m.port = msg.Port
			m.status = ""
		case midi.DeviceDisconnected:
			m.port = ""
			m.status = "disconnected: " + msg.Port
		case midi.DeviceFailed:
			m.status = fmt.Sprintf("cannot open %s: %v", msg.Port, msg.Err)
		}
		return m, ListenForDevices(m.devices)
	}

	return m, nil
}

// refresh drains the channel and renders only the records added since the
// previous refresh
func (m Model) refresh() Model {
	h := m.acc.Refresh(context.Background())
	fresh := h.Since(m.seen)
	m.seen = h.Len()
	m.total = h.Len()
	if len(fresh) == 0 {
		return m
	}

	for _, rec := range fresh {
		m.lines = append(m.lines, m.renderRecord(rec))
	}
	if over := len(m.lines) - m.opts.MaxLines; over > 0 {
		m.lines = append(m.lines[:0:0], m.lines[over:]...)
	}

	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
	return m
}

func (m Model) renderRecord(rec midi.Record) string {
	var color lipgloss.Color
	switch rec.Payload.Kind {
	case midi.KindNoteOn:
		color = m.theme.NoteOn()
	case midi.KindNoteOff:
		color = m.theme.NoteOff()
	default:
		return lipgloss.NewStyle().Foreground(m.theme.Muted()).Render(unrecognized)
	}

	line := FormatRecord(rec, m.opts.Location)
	meter := widgets.RenderMeter(rec.Payload.Note.Velocity, meterWidth,
		m.theme.Symbols.MeterFull, m.theme.Symbols.MeterEmpty, color)
	return meter + " " + lipgloss.NewStyle().Foreground(color).Render(line)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.theme.Warning())

	port := fmt.Sprintf("%c no input", m.theme.Symbols.Offline)
	if m.port != "" {
		port = fmt.Sprintf("%c %s", m.theme.Symbols.Connected, m.port)
	}

	header := headerStyle.Render(fmt.Sprintf("midimon  %s  events:%d", port, m.total))
	if dropped := m.acc.Dropped(); dropped > 0 {
		header += "  " + warnStyle.Render(fmt.Sprintf("dropped:%d", dropped))
	}

	help := dimStyle.Render(widgets.RenderKeyHelp(keyHelp))
	if m.status != "" {
		help = warnStyle.Render(m.status) + "  " + help
	}

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.viewport.View())
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}
