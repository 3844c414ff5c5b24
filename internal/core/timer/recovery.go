package timer

import (
	"time"

	"workbreak/internal/core/model"
	"workbreak/internal/core/validate"
)

// Load restores the engine from persisted records, routing corruption
// through the guard's recovery path, then applies restart recovery
// against the current clock.
func Load(deps Dependencies) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	now := deps.Now()

	var state model.TimerState
	switch {
	case deps.Guard == nil:
		state = model.CleanState(now)
	default:
		rawState, rawSession, exists, corrupt := deps.Guard.LoadRecords()
		if !exists {
			state = model.CleanState(now)
			deps.Guard.Persist(state)
			break
		}
		if corrupt {
			state, _ = deps.Guard.RecoverTimerState(rawState, rawSession)
			break
		}
		result := validate.TimerRecords(rawState, rawSession, now)
		if !result.IsValid {
			state, _ = deps.Guard.RecoverTimerState(rawState, rawSession)
			break
		}
		state = result.Sanitized
	}

	engine := New(state, deps)
	engine.RecoverFromRestart()
	return engine
}

// RecoverFromRestart reconciles the restored state with the time that
// passed while the process was not running. A work gap beyond the
// inactivity threshold is treated as inactivity: the gap is folded into
// the total and the timer pauses. A break whose duration elapsed while
// down is ended, which also resets accumulated work.
func (engine *Engine) RecoverFromRestart() {
	engine.mu.Lock()
	now := engine.now()

	// The two records are written without a cross-key transaction; a
	// crash between writes can leave a break flag with no start time.
	if engine.state.OnBreak && engine.state.BreakStart.IsZero() {
		engine.clearBreakLocked()
		engine.resetLocked(now)
		engine.persistLocked()
		engine.mu.Unlock()
		engine.emitStateChange()
		return
	}

	if engine.state.OnBreak {
		if now.Sub(engine.state.BreakStart) >= engine.state.BreakDuration {
			engine.mu.Unlock()
			engine.EndBreak()
			return
		}
		engine.mu.Unlock()
		return
	}

	if engine.state.WorkTimerActive && now.Sub(engine.state.WorkStart) > engine.inactivity {
		engine.foldSegmentLocked(now)
		engine.state.Focused = false
		engine.persistLocked()
		engine.mu.Unlock()
		engine.emitStateChange()
		return
	}

	engine.mu.Unlock()
}
