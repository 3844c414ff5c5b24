package platform

import (
	"sync"
	"time"
)

// ActivitySink receives translated activity signals. The timer engine
// implements it directly.
type ActivitySink interface {
	UpdateActivity()
	FocusLost()
	FocusGained()
}

// Monitor polls an ActivityProvider and converts idle time into focus
// and activity signals: idle beyond the threshold reads as focus lost,
// renewed input as focus gained plus activity.
type Monitor struct {
	mu       sync.Mutex
	provider ActivityProvider
	sink     ActivitySink
	interval time.Duration
	idleFor  time.Duration
	stopCh   chan struct{}
	running  bool
	wasIdle  bool
	disabled bool
}

// NewMonitor creates a Monitor; idleFor is how much idle time counts
// as the user being away.
func NewMonitor(provider ActivityProvider, sink ActivitySink, interval, idleFor time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		provider: provider,
		sink:     sink,
		interval: interval,
		idleFor:  idleFor,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling loop.
func (monitor *Monitor) Start() {
	monitor.mu.Lock()
	if monitor.running || monitor.provider == nil {
		monitor.mu.Unlock()
		return
	}
	monitor.running = true
	monitor.mu.Unlock()

	go monitor.run()
}

// Stop terminates the polling loop.
func (monitor *Monitor) Stop() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	if !monitor.running {
		return
	}
	monitor.running = false
	close(monitor.stopCh)
}

func (monitor *Monitor) run() {
	ticker := time.NewTicker(monitor.interval)
	defer ticker.Stop()

	for {
		select {
		case <-monitor.stopCh:
			return
		case <-ticker.C:
			monitor.poll()
		}
	}
}

func (monitor *Monitor) poll() {
	monitor.mu.Lock()
	if monitor.disabled {
		monitor.mu.Unlock()
		return
	}
	monitor.mu.Unlock()

	idle, err := monitor.provider.IdleDuration()
	if err != nil {
		// Unsupported stays unsupported; stop probing.
		monitor.mu.Lock()
		monitor.disabled = true
		monitor.mu.Unlock()
		return
	}

	monitor.mu.Lock()
	wasIdle := monitor.wasIdle
	isIdle := idle >= monitor.idleFor
	monitor.wasIdle = isIdle
	monitor.mu.Unlock()

	switch {
	case isIdle && !wasIdle:
		monitor.sink.FocusLost()
	case !isIdle && wasIdle:
		monitor.sink.FocusGained()
	case !isIdle:
		monitor.sink.UpdateActivity()
	}
}
