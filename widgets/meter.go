package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderMeter renders a horizontal bar for a 0-1 value
func RenderMeter(value float32, width int, full, empty rune, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	filled := MeterCells(value, width)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(string(full), filled))
	return bar + strings.Repeat(string(empty), width-filled)
}

// MeterCells returns how many of width cells a 0-1 value fills, rounding up
// so that any non-zero value is visible
func MeterCells(value float32, width int) int {
	switch {
	case value <= 0:
		return 0
	case value >= 1:
		return width
	}
	n := int(value*float32(width) + 0.999)
	if n > width {
		n = width
	}
	return n
}

// RenderKeyHelp formats key bindings on one line: "q quit  G follow"
func RenderKeyHelp(keys []KeyBinding) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k.Key, k.Desc))
	}
	return strings.Join(parts, "  ")
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
