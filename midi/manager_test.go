package midi

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"
)

func TestMatchPort(t *testing.T) {
	tests := []struct {
		name, port, pattern string
		want                bool
	}{
		{"empty pattern", "IAC Driver Bus 1", "", true},
		{"substring", "Launchpad X LPX MIDI", "lpx", true},
		{"case insensitive", "KeyStep 37", "KEYSTEP", true},
		{"no match", "IAC Driver Bus 1", "keystep", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPort(tt.port, tt.pattern))
		})
	}
}

func TestScanPorts_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	hung := func() ([]drivers.In, []drivers.Out) {
		<-block
		return nil, nil
	}

	_, _, err := scanPorts(hung, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrScanTimeout)
}

func TestDeviceManager_NoPorts(t *testing.T) {
	src, err := NewPortSource(4)
	require.NoError(t, err)

	dm := NewDeviceManager(src, "")
	dm.list = func() ([]drivers.In, []drivers.Out) { return nil, nil }
	dm.pollRate = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dm.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "", dm.Current())
	// Events channel is closed without anything emitted
	_, open := <-dm.Events()
	assert.False(t, open)
}

func TestDeviceManager_AutoConnectOff(t *testing.T) {
	src, err := NewPortSource(4)
	require.NoError(t, err)

	var scans atomic.Int32
	dm := NewDeviceManager(src, "")
	dm.list = func() ([]drivers.In, []drivers.Out) {
		scans.Add(1)
		return nil, nil
	}
	dm.pollRate = time.Millisecond
	dm.SetAutoConnect(false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dm.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), scans.Load(), "only the startup scan runs")
}
