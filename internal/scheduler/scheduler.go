// Package scheduler provides the tick source and the delayed
// single-shot callback primitive consumed by the timer engine.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler abstracts time-driven callbacks so the engine and the
// fallback coordinator can run against a fake in tests.
type Scheduler interface {
	// Every invokes fn on a fixed interval until the returned stop
	// function is called.
	Every(interval time.Duration, fn func(now time.Time)) (stop func())
	// After invokes fn once after delay; the returned cancel function
	// is a no-op once fn has fired.
	After(delay time.Duration, fn func()) (cancel func())
}

// Ticker is the wall-clock Scheduler.
type Ticker struct{}

// NewTicker returns the wall-clock scheduler.
func NewTicker() *Ticker {
	return &Ticker{}
}

func (Ticker) Every(interval time.Duration, fn func(now time.Time)) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case tickTime := <-ticker.C:
				fn(tickTime)
			}
		}
	}()

	return func() {
		once.Do(func() { close(stopCh) })
	}
}

func (Ticker) After(delay time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}

// Manual is a test scheduler driven by explicit Advance calls.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	ticks   []*manualTick
	pending []*manualTimer
}

type manualTick struct {
	interval time.Duration
	next     time.Time
	fn       func(now time.Time)
	stopped  bool
}

type manualTimer struct {
	at        time.Time
	fn        func()
	cancelled bool
	fired     bool
}

// NewManual returns a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual clock's current time.
func (manual *Manual) Now() time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.now
}

func (manual *Manual) Every(interval time.Duration, fn func(now time.Time)) (stop func()) {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	tick := &manualTick{interval: interval, next: manual.now.Add(interval), fn: fn}
	manual.ticks = append(manual.ticks, tick)
	return func() {
		manual.mu.Lock()
		defer manual.mu.Unlock()
		tick.stopped = true
	}
}

func (manual *Manual) After(delay time.Duration, fn func()) (cancel func()) {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	timer := &manualTimer{at: manual.now.Add(delay), fn: fn}
	manual.pending = append(manual.pending, timer)
	return func() {
		manual.mu.Lock()
		defer manual.mu.Unlock()
		timer.cancelled = true
	}
}

// Advance moves the clock forward, firing due callbacks in time order.
func (manual *Manual) Advance(delta time.Duration) {
	manual.mu.Lock()
	deadline := manual.now.Add(delta)
	manual.mu.Unlock()

	for {
		callback, at := manual.nextDue(deadline)
		if callback == nil {
			break
		}
		manual.mu.Lock()
		manual.now = at
		manual.mu.Unlock()
		callback()
	}

	manual.mu.Lock()
	manual.now = deadline
	manual.mu.Unlock()
}

func (manual *Manual) nextDue(deadline time.Time) (func(), time.Time) {
	manual.mu.Lock()
	defer manual.mu.Unlock()

	var bestAt time.Time
	var run func()

	for _, timer := range manual.pending {
		if timer.cancelled || timer.fired || timer.at.After(deadline) {
			continue
		}
		if run == nil || timer.at.Before(bestAt) {
			captured := timer
			bestAt = timer.at
			run = func() {
				captured.fired = true
				captured.fn()
			}
		}
	}
	for _, tick := range manual.ticks {
		if tick.stopped || tick.next.After(deadline) {
			continue
		}
		if run == nil || tick.next.Before(bestAt) {
			captured := tick
			bestAt = tick.next
			at := tick.next
			run = func() {
				captured.next = captured.next.Add(captured.interval)
				captured.fn(at)
			}
		}
	}
	return run, bestAt
}
