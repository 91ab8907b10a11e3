package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	t.Cleanup(Disable)

	l, err := Enable(path)
	require.NoError(t, err)

	again, err := Enable(path)
	require.NoError(t, err)
	assert.Same(t, l, again)

	l.Warn("events dropped", "total", 3)
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug logging started")
	assert.Contains(t, string(data), `msg="events dropped" total=3`)

	// After Disable the logger discards
	Logger().Error("nothing")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "nothing")
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, "debug.log", filepath.Base(path))
	assert.Equal(t, "midimon", filepath.Base(filepath.Dir(path)))
}
