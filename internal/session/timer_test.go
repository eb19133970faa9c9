package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_TicksAtInterval(t *testing.T) {
	var ticks atomic.Int64
	timer := NewTimer(5*time.Millisecond, func() { ticks.Add(1) })

	timer.Arm()
	time.Sleep(60 * time.Millisecond)
	timer.Disarm()

	assert.Greater(t, ticks.Load(), int64(0))
}

func TestTimer_DisarmStopsTicks(t *testing.T) {
	var ticks atomic.Int64
	timer := NewTimer(5*time.Millisecond, func() { ticks.Add(1) })

	timer.Arm()
	time.Sleep(30 * time.Millisecond)
	timer.Disarm()

	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}

func TestTimer_DisarmIsIdempotent(t *testing.T) {
	timer := NewTimer(time.Millisecond, func() {})
	timer.Arm()
	timer.Disarm()

	// A second Disarm must not panic on the closed channel.
	assert.NotPanics(t, func() { timer.Disarm() })
}

func TestTimer_DisarmBeforeArm(t *testing.T) {
	timer := NewTimer(time.Millisecond, func() {})
	assert.NotPanics(t, func() { timer.Disarm() })
}

func TestTimer_SuspendSkipsTicks(t *testing.T) {
	var ticks atomic.Int64
	timer := NewTimer(5*time.Millisecond, func() { ticks.Add(1) })

	timer.Arm()
	defer timer.Disarm()

	timer.Suspend()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), ticks.Load())

	timer.Unsuspend()
	time.Sleep(30 * time.Millisecond)
	assert.Greater(t, ticks.Load(), int64(0))
}

func TestTimer_ArmIsIdempotent(t *testing.T) {
	var ticks atomic.Int64
	timer := NewTimer(5*time.Millisecond, func() { ticks.Add(1) })

	timer.Arm()
	timer.Arm()
	time.Sleep(25 * time.Millisecond)
	timer.Disarm()

	// A double Arm must not run two tick loops. With one loop at 5ms we see
	// at most ~5 ticks in 25ms; two loops would roughly double that.
	assert.LessOrEqual(t, ticks.Load(), int64(8))
}

func TestTimer_ZeroIntervalDefaultsToOneSecond(t *testing.T) {
	timer := NewTimer(0, func() {})
	assert.Equal(t, time.Second, timer.interval)
}
