package rigsync

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOffset Frequency = 10057500000

type syncHarness struct {
	uplink, downlink   *fakeRig
	primary, secondary Controller
	sync               *Sync
}

func newSyncHarness(t *testing.T, initial Frequency) *syncHarness {
	t.Helper()
	h := &syncHarness{
		uplink:   &fakeRig{freq: 432200000},
		downlink: &fakeRig{freq: 10489700000},
	}
	h.primary = openTest(t, "FT818", testConfig(t, newMockTransport(h.uplink.ft818)))
	h.secondary = openTest(t, "TS2000", testConfig(t, newMockTransport(h.downlink.ts2000)))
	h.sync = NewSync(h.primary, h.secondary, SyncConfig{
		Offset:          testOffset,
		UplinkLO:        DefaultUplinkLO,
		InitialDownlink: initial,
		Logger:          log.NewWithOptions(io.Discard, log.Options{}),
	})

	// Run publishes a status once it has subscribed to both controllers
	updates, stopWatch := h.sync.Watch()
	defer stopWatch()
	<-updates

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.sync.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	select {
	case <-updates:
	case err := <-done:
		t.Fatalf("Run: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not start")
	}

	// wait for both baselines
	require.Eventually(t, func() bool {
		return h.primary.Frequency() != Unknown && h.secondary.Frequency() != Unknown
	}, time.Second, time.Millisecond)
	return h
}

func TestSync_PrimaryDrivesSecondary(t *testing.T) {
	h := newSyncHarness(t, Unknown)

	h.uplink.twiddle(432210000)
	require.Eventually(t, func() bool {
		return h.downlink.get() == 432210000+testOffset
	}, 2*time.Second, time.Millisecond)

	// let a few poll cycles pass, the pushed value must not bounce back
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.uplink.setCount())
	assert.Equal(t, 1, h.downlink.setCount())
	assert.Equal(t, Frequency(432210000), h.uplink.get())
}

func TestSync_SecondaryDrivesPrimary(t *testing.T) {
	h := newSyncHarness(t, Unknown)

	h.downlink.twiddle(10489650000)
	require.Eventually(t, func() bool {
		return h.uplink.get() == 10489650000-testOffset
	}, 2*time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.downlink.setCount())
	assert.Equal(t, 1, h.uplink.setCount())
}

func TestSync_SubTenHertzDownlinkIsNotEchoed(t *testing.T) {
	h := newSyncHarness(t, Unknown)

	// the uplink rig can only follow to the nearest lower 10 Hz step
	h.downlink.twiddle(10489650005)
	require.Eventually(t, func() bool {
		return h.uplink.get() == 432150000
	}, 2*time.Second, time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, h.downlink.setCount())
	assert.Equal(t, Frequency(10489650005), h.downlink.get())
	assert.Equal(t, Frequency(432150000), h.primary.Frequency())
	assert.Equal(t, 1, h.uplink.setCount())
}

func TestSync_StepRetunesPrimary(t *testing.T) {
	h := newSyncHarness(t, Unknown)
	updates, cancel := h.sync.Watch()
	defer cancel()

	assert.Equal(t, testOffset+500, h.sync.Step(500))
	require.Eventually(t, func() bool {
		return h.uplink.get() == 10489700000-(testOffset+500)
	}, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		select {
		case st := <-updates:
			return st.Offset == testOffset+500 && st.Primary == 10489700000-(testOffset+500)
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	h.sync.SetOffset(testOffset)
	require.Eventually(t, func() bool {
		return h.uplink.get() == 10489700000-testOffset
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, Frequency(10489700000), h.downlink.get())
	assert.Zero(t, h.downlink.setCount())
}

func TestSync_InitialTune(t *testing.T) {
	h := newSyncHarness(t, 10489750000)
	want := Status{
		Primary:   432250000,
		Uplink:    432250000 + DefaultUplinkLO,
		Secondary: 10489750000,
		Offset:    testOffset,
		Segment:   SegmentSSB,
	}
	require.Eventually(t, func() bool {
		return h.sync.Status() == want
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, Frequency(10489750000), h.downlink.get())
	assert.Equal(t, Frequency(432250000), h.uplink.get())
}
