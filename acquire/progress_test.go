package acquire

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uedaq/device"
)

func TestProgressEstimator_Advance(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	defer p.Stop()

	assert.Equal(t, int64(0), p.Value())
	assert.Equal(t, int64(defaultProgressScale), p.Max())

	p.HandleTrigger()
	time.Sleep(60 * time.Millisecond)

	v := p.Value()
	assert.Greater(t, v, int64(0))
	assert.LessOrEqual(t, v, p.Max())
}

func TestProgressEstimator_SaturatesAtMax(t *testing.T) {
	det := device.NewSimDetector()
	require.NoError(t, det.SetExposure(20*time.Millisecond))

	// scale 100 makes the 20ms exposure a 2-tick span.
	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	defer p.Stop()

	require.Equal(t, int64(2), p.Max())

	p.HandleTrigger()
	time.Sleep(100 * time.Millisecond)

	// The counter holds at max while the loop keeps ticking.
	assert.Equal(t, int64(2), p.Value())
}

func TestProgressEstimator_HandleFrameResets(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	defer p.Stop()

	p.HandleTrigger()
	time.Sleep(60 * time.Millisecond)
	require.Greater(t, p.Value(), int64(0))

	p.HandleFrame()
	assert.Equal(t, int64(0), p.Value())

	// The loop was joined before the reset, so the zero value sticks.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), p.Value())
}

func TestProgressEstimator_TriggerWhileTickingIgnored(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	defer p.Stop()

	p.HandleTrigger()
	p.HandleTrigger()

	time.Sleep(40 * time.Millisecond)
	assert.LessOrEqual(t, p.Value(), int64(12))
}

func TestProgressEstimator_AdvanceListener(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	defer p.Stop()

	var calls atomic.Int32
	id := p.AddAdvanceListener(func(value, max int64) {
		calls.Add(1)
	})

	p.HandleTrigger()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	require.Greater(t, calls.Load(), int32(0))

	settled := calls.Load()
	p.RemoveAdvanceListener(id)
	p.HandleTrigger()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestProgressEstimator_StopIdempotent(t *testing.T) {
	det := device.NewSimDetector()
	det.Disconnect()

	p := NewProgressEstimator(det, WithTickInterval(5*time.Millisecond))
	p.HandleTrigger()
	p.Stop()
	p.Stop()

	assert.NotPanics(t, func() { p.HandleFrame() })
}
