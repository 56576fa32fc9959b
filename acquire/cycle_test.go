package acquire

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uedaq/device"
	"uedaq/frame"
)

func fastCycle(det device.Detector, opts ...CycleOption) *Cycle {
	base := []CycleOption{
		WithSettleDelay(5 * time.Millisecond),
		WithPollInterval(5 * time.Millisecond),
	}

	return NewCycle(det, append(base, opts...)...)
}

func TestCycle_Run(t *testing.T) {
	det := device.NewSimDetector()
	require.NoError(t, det.SetExposure(20*time.Millisecond))

	res := fastCycle(det).Run(context.Background())
	require.False(t, res.Failed())
	require.NotNil(t, res.Frame)

	// The captured test pattern comes back with the read-out correction
	// applied: corrected (x, y) reads the source at (W-1-y, H-1-x).
	assert.Equal(t, 16, res.Frame.Width)
	assert.Equal(t, 16, res.Frame.Height)
	assert.Equal(t, uint16(1+255), res.Frame.At(0, 0))
}

func TestCycle_RunFault(t *testing.T) {
	det := device.NewSimDetector()
	det.FailNextAcquisitions(1)

	res := fastCycle(det).Run(context.Background())
	require.True(t, res.Failed())
	assert.True(t, device.IsCommError(res.Err))
	assert.Nil(t, res.Frame)
}

func TestCycle_RunSimulated(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	res := fastCycle(det, WithSimExposure(0)).Run(context.Background())
	require.False(t, res.Failed())
	assert.Equal(t, frame.SynthSize, res.Frame.Width)
	assert.Equal(t, frame.SynthSize, res.Frame.Height)
	assert.False(t, res.Frame.CapturedAt.IsZero())
}

func TestCycle_RunCanceled(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := fastCycle(det, WithSimExposure(time.Second)).Run(ctx)
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrCycleCanceled)
}

func TestCycle_RunCanceledBeforeTrigger(t *testing.T) {
	det := device.NewSimDetector()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := fastCycle(det).Run(ctx)
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrCycleCanceled)

	// No exposure was commanded: the detector still has no captured frame.
	_, err := det.CapturedFrame()
	assert.ErrorIs(t, err, device.ErrNoFrame)
}

func TestCycle_RunLive(t *testing.T) {
	det := device.NewSimDetector()

	res := fastCycle(det).RunLive(context.Background())
	require.False(t, res.Failed())
	assert.Equal(t, 16, res.Frame.Width)
	assert.Equal(t, 16, res.Frame.Height)
}

func TestCycle_RunLiveDuringExposure(t *testing.T) {
	det := device.NewSimDetector()
	require.NoError(t, det.SetExposure(time.Hour))
	require.NoError(t, det.AcquireAndDisplay())

	// Live preview never polls the device state, so it works mid-exposure.
	res := fastCycle(det).RunLive(context.Background())
	assert.False(t, res.Failed())
}

func TestCycle_TriggerFunc(t *testing.T) {
	var triggers atomic.Int32

	det := device.NewSimDetector()
	require.NoError(t, det.SetExposure(10*time.Millisecond))

	c := fastCycle(det, WithTriggerFunc(func() { triggers.Add(1) }))
	require.False(t, c.Run(context.Background()).Failed())
	assert.Equal(t, int32(1), triggers.Load())

	// The simulated path notifies the trigger as well.
	det.Disconnect()
	c2 := fastCycle(det, WithSimExposure(0), WithTriggerFunc(func() { triggers.Add(1) }))
	require.False(t, c2.Run(context.Background()).Failed())
	assert.Equal(t, int32(2), triggers.Load())
}
