package session

import (
	"sync"
	"time"
)

// Timer is the cancellable countdown handle behind one active session. It
// owns a single goroutine driving the tick callback at a fixed interval.
// Suspend stops ticks from firing without losing the countdown position;
// Disarm stops the goroutine for good and is safe to call more than once.
type Timer struct {
	interval time.Duration
	tick     func()

	mu        sync.Mutex
	armed     bool
	suspended bool
	stop      chan struct{}
}

func NewTimer(interval time.Duration, tick func()) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{
		interval: interval,
		tick:     tick,
		stop:     make(chan struct{}),
	}
}

func (t *Timer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.armed {
		return
	}
	t.armed = true
	go t.loop()
}

func (t *Timer) loop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			// A tick already in flight when Disarm lands is tolerated:
			// the controller treats ticks after a terminal transition
			// as no-ops.
			if !t.isSuspended() {
				t.tick()
			}
		}
	}
}

func (t *Timer) isSuspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspended
}

func (t *Timer) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspended = true
}

func (t *Timer) Unsuspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspended = false
}

// Disarm permanently stops the timer. Idempotent.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed {
		return
	}
	t.armed = false
	close(t.stop)
}
