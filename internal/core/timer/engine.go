// Package timer owns the work/break lifecycle. All state mutations run
// under one mutex; persistence and notification I/O are issued through
// the guard coordinator and never block a transition. The in-memory
// state is updated optimistically even when a write fails, and a later
// successful write reconciles storage.
package timer

import (
	"fmt"
	"sync"
	"time"

	"workbreak/internal/config"
	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/core/validate"
	"workbreak/internal/scheduler"
)

// DefaultInactivityThreshold is how long focus must be absent before
// the deferred check pauses the work timer.
const DefaultInactivityThreshold = 5 * time.Minute

const breakBadgeColor = "#188038"

// Dependencies wires an Engine to its collaborators.
type Dependencies struct {
	Guard     *guard.Coordinator
	Settings  config.Provider
	Scheduler scheduler.Scheduler
	Now       func() time.Time
}

// Engine is the timer state machine.
type Engine struct {
	mu         sync.Mutex
	state      model.TimerState
	guard      *guard.Coordinator
	settings   config.Provider
	sched      scheduler.Scheduler
	now        func() time.Time
	inactivity time.Duration
	events     []chan Event

	cancelFocusCheck func()
}

// New creates an Engine over an already-validated state. Use Load to
// restore from persisted records.
func New(state model.TimerState, deps Dependencies) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.NewTicker()
	}

	inactivity := DefaultInactivityThreshold
	if deps.Settings != nil {
		if configured := deps.Settings.Settings().InactivityThreshold; configured > 0 {
			inactivity = configured
		}
		state.WorkThreshold = validate.ThresholdDuration(deps.Settings.WorkTimeThreshold())
	} else {
		state.WorkThreshold = validate.ThresholdDuration(state.WorkThreshold)
	}

	return &Engine{
		state:      state,
		guard:      deps.Guard,
		settings:   deps.Settings,
		sched:      deps.Scheduler,
		now:        deps.Now,
		inactivity: inactivity,
	}
}

// Subscribe registers a new observer channel. Events that would block
// are dropped.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	engine.events = append(engine.events, ch)
	engine.mu.Unlock()
	return ch
}

// Snapshot returns a copy of the current state.
func (engine *Engine) Snapshot() model.TimerState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state
}

// StartWorkTimer begins a work segment. Returns false while on break;
// starting an already-running timer is a successful no-op.
func (engine *Engine) StartWorkTimer() bool {
	engine.mu.Lock()
	if engine.state.OnBreak {
		engine.mu.Unlock()
		return false
	}
	if engine.state.WorkTimerActive {
		engine.mu.Unlock()
		return true
	}
	now := engine.now()
	engine.state.WorkTimerActive = true
	engine.state.WorkStart = now
	engine.state.LastActivity = now
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emitStateChange()
	return true
}

// PauseWorkTimer folds the running segment into the accumulated total.
// No-op when the timer is not active or a break is running.
func (engine *Engine) PauseWorkTimer() bool {
	engine.mu.Lock()
	if !engine.state.WorkTimerActive || engine.state.OnBreak {
		engine.mu.Unlock()
		return false
	}
	engine.foldSegmentLocked(engine.now())
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emitStateChange()
	return true
}

// ResumeWorkTimer restarts a paused timer. No-op when already active
// or on break.
func (engine *Engine) ResumeWorkTimer() bool {
	engine.mu.Lock()
	if engine.state.WorkTimerActive || engine.state.OnBreak {
		engine.mu.Unlock()
		return false
	}
	engine.state.WorkTimerActive = true
	engine.state.WorkStart = engine.now()
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emitStateChange()
	return true
}

// ResetWorkTimer unconditionally discards accumulated work time and
// starts a fresh active segment.
func (engine *Engine) ResetWorkTimer() {
	engine.mu.Lock()
	engine.resetLocked(engine.now())
	engine.persistLocked()
	engine.mu.Unlock()

	engine.emitStateChange()
}

// StartBreak pauses work and begins a break of the given type and
// length. Out-of-range values are sanitized, reported and substituted,
// never rejected. Returns false when a break is already running.
func (engine *Engine) StartBreak(breakType model.BreakType, durationMinutes int) bool {
	engine.mu.Lock()
	if engine.state.OnBreak {
		engine.mu.Unlock()
		return false
	}

	sanitizedType, typeOK := validate.BreakType(string(breakType))
	if sanitizedType == model.BreakNone {
		sanitizedType = model.BreakShort
		typeOK = false
	}
	minutes, minutesOK := validate.DurationMinutes(float64(durationMinutes))

	now := engine.now()
	if engine.state.WorkTimerActive {
		engine.foldSegmentLocked(now)
	}
	engine.state.OnBreak = true
	engine.state.BreakType = sanitizedType
	engine.state.BreakStart = now
	engine.state.BreakDuration = time.Duration(minutes) * time.Minute
	engine.persistLocked()
	engine.mu.Unlock()

	if !typeOK || !minutesOK {
		engine.reportValidation(fmt.Sprintf("break request repaired to %s/%d min", sanitizedType, minutes))
	}
	if engine.guard != nil {
		engine.guard.UpdateBadge(fmt.Sprintf("%dm", minutes), breakBadgeColor, "On a "+string(sanitizedType)+" break")
	}
	engine.emitStateChange()
	return true
}

// EndBreak finishes the current break and always resets accumulated
// work time, returning to a fresh active segment. No-op when not on
// break.
func (engine *Engine) EndBreak() bool {
	engine.mu.Lock()
	if !engine.state.OnBreak {
		engine.mu.Unlock()
		return false
	}
	finished := engine.state.BreakType
	now := engine.now()
	engine.clearBreakLocked()
	engine.resetLocked(now)
	engine.emitLocked(Event{Type: EventBreakFinished, BreakType: finished, At: now})
	engine.persistLocked()
	engine.mu.Unlock()

	if engine.guard != nil {
		engine.guard.UpdateBadge("", "", "")
	}
	engine.emitStateChange()
	return true
}

// CancelBreak aborts the current break. Idempotent against an
// already-ended break.
func (engine *Engine) CancelBreak() bool {
	return engine.EndBreak()
}

// CurrentWorkTime returns accumulated plus in-flight work time.
func (engine *Engine) CurrentWorkTime() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.currentWorkTimeLocked(engine.now())
}

// ThresholdExceeded reports whether current work time has reached the
// configured threshold.
func (engine *Engine) ThresholdExceeded() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.currentWorkTimeLocked(engine.now()) >= engine.state.WorkThreshold
}

// RemainingBreakTime returns time left in the current break, zero when
// not on break.
func (engine *Engine) RemainingBreakTime() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.state.OnBreak {
		return 0
	}
	remaining := engine.state.BreakDuration - engine.now().Sub(engine.state.BreakStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OnBreak reports whether a break is running.
func (engine *Engine) OnBreak() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state.OnBreak
}

// UpdateActivity records user activity and resumes a paused timer when
// the window is focused and no break is running.
func (engine *Engine) UpdateActivity() {
	engine.mu.Lock()
	engine.state.LastActivity = engine.now()
	resume := !engine.state.WorkTimerActive && !engine.state.OnBreak && engine.state.Focused
	engine.mu.Unlock()

	if resume {
		engine.ResumeWorkTimer()
	}
}

// FocusLost marks focus absent and arms a deferred check that pauses
// the timer only if focus is still absent once the inactivity
// threshold elapses. A focus-gained event before the check fires makes
// the stale timer a harmless no-op.
func (engine *Engine) FocusLost() {
	engine.mu.Lock()
	engine.state.Focused = false
	engine.persistLocked()
	if engine.cancelFocusCheck != nil {
		engine.cancelFocusCheck()
	}
	engine.cancelFocusCheck = engine.sched.After(engine.inactivity, func() {
		engine.mu.Lock()
		stillUnfocused := !engine.state.Focused
		engine.mu.Unlock()
		if stillUnfocused {
			engine.PauseWorkTimer()
		}
	})
	engine.mu.Unlock()
}

// FocusGained marks focus present and immediately resumes a paused
// timer unless a break is running.
func (engine *Engine) FocusGained() {
	engine.mu.Lock()
	engine.state.Focused = true
	engine.state.LastActivity = engine.now()
	engine.persistLocked()
	resume := !engine.state.WorkTimerActive && !engine.state.OnBreak
	engine.mu.Unlock()

	if resume {
		engine.ResumeWorkTimer()
	}
}

// Tick emits a progress event for observers. The scheduler drives it
// once per second; the tick itself never waits on I/O.
func (engine *Engine) Tick(now time.Time) {
	engine.mu.Lock()
	event := Event{
		Type:      EventProgress,
		OnBreak:   engine.state.OnBreak,
		BreakType: engine.state.BreakType,
		WorkTime:  engine.currentWorkTimeLocked(now),
		At:        now,
	}
	if engine.state.OnBreak {
		remaining := engine.state.BreakDuration - now.Sub(engine.state.BreakStart)
		if remaining < 0 {
			remaining = 0
		}
		event.Remaining = remaining
	}
	engine.emitLocked(event)
	engine.mu.Unlock()
}

func (engine *Engine) currentWorkTimeLocked(now time.Time) time.Duration {
	total := engine.state.TotalWork
	if engine.state.WorkTimerActive && !engine.state.WorkStart.IsZero() {
		total += now.Sub(engine.state.WorkStart)
	}
	if total < 0 {
		return 0
	}
	return total
}

// foldSegmentLocked closes the running segment into TotalWork.
func (engine *Engine) foldSegmentLocked(now time.Time) {
	if !engine.state.WorkStart.IsZero() {
		segment := now.Sub(engine.state.WorkStart)
		if segment > 0 {
			engine.state.TotalWork += segment
		}
		if engine.state.TotalWork > model.MaxTotalWork {
			engine.state.TotalWork = model.MaxTotalWork
		}
	}
	engine.state.WorkTimerActive = false
	engine.state.WorkStart = time.Time{}
}

func (engine *Engine) resetLocked(now time.Time) {
	engine.state.TotalWork = 0
	engine.state.WorkStart = now
	engine.state.WorkTimerActive = true
}

func (engine *Engine) clearBreakLocked() {
	engine.state.OnBreak = false
	engine.state.BreakType = model.BreakNone
	engine.state.BreakStart = time.Time{}
}

// persistLocked issues the write without waiting on its completion
// semantics: the guard routes failures to fallback storage, so the
// in-memory transition stands regardless.
func (engine *Engine) persistLocked() {
	if engine.guard != nil {
		engine.guard.Persist(engine.state)
	}
}

func (engine *Engine) reportValidation(message string) {
	if engine.guard != nil {
		engine.guard.ReportValidation(message)
	}
}

func (engine *Engine) emitStateChange() {
	engine.mu.Lock()
	now := engine.now()
	event := Event{
		Type:      EventStateChange,
		OnBreak:   engine.state.OnBreak,
		BreakType: engine.state.BreakType,
		WorkTime:  engine.currentWorkTimeLocked(now),
		At:        now,
	}
	engine.emitLocked(event)
	engine.mu.Unlock()
}

func (engine *Engine) emitLocked(event Event) {
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}
