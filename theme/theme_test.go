package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPL = `GIMP Palette
Name: mono
Columns: 2
# comment
0 0 0	black
255 255 255	white
300 -4 12	clamped
bad line here
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(sampleGPL))
	require.NoError(t, err)
	assert.Equal(t, "mono", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}, {255, 0, 12}}, p.Colors)
}

func TestParseGPL_Empty(t *testing.T) {
	_, err := ParseGPL(strings.NewReader("GIMP Palette\nName: none\n"))
	assert.Error(t, err)
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.gpl")
	require.NoError(t, os.WriteFile(path, []byte(sampleGPL), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Len(t, p.Colors, 3)

	_, err = LoadGPL(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
}

func TestNew_FallsBackToDefault(t *testing.T) {
	th := New(nil)
	assert.Equal(t, "plasma", th.Palette.Name)
	assert.Equal(t, lipgloss.Color("#0d0887"), th.Color(0))
	assert.Equal(t, '█', th.Symbols.MeterFull)

	th = New(&Palette{})
	assert.Equal(t, "plasma", th.Palette.Name)
}
