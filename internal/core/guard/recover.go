package guard

import (
	"time"

	"workbreak/internal/core/model"
	"workbreak/internal/core/validate"
)

// MaxResumeGap bounds how stale an active work segment may be before
// recovery refuses to resume it.
const MaxResumeGap = 4 * time.Hour

// RecoverTimerState rebuilds a usable TimerState from a corrupted
// record pair. Individually valid fields are salvaged, elapsed work and
// break time are recomputed against the current clock and bounded to
// sane limits; when nothing can be salvaged the state is reset
// wholesale. The result is persisted before returning.
func (coordinator *Coordinator) RecoverTimerState(rawState model.RawStateRecord, rawSession model.RawSessionRecord) (model.TimerState, Outcome) {
	now := coordinator.now()
	recovered := model.CleanState(now)

	outcome := coordinator.Handle(KindStateCorruption, func() Outcome {
		if unsalvageable(rawState, rawSession) {
			coordinator.Persist(recovered)
			coordinator.emitFeedback(SeverityWarning, "Stored timer state could not be read; the timer was reset")
			return Outcome{Success: true, Method: "reset", WasReset: true, FallbackMode: coordinator.InFallback(CapStorage)}
		}

		result := validate.TimerRecords(rawState, rawSession, now)
		state := result.Sanitized

		if state.WorkTimerActive {
			gap := now.Sub(state.WorkStart)
			if state.WorkStart.IsZero() || gap < 0 || gap > MaxResumeGap {
				// Too stale to trust: drop the segment rather than
				// credit hours of phantom work.
				state.WorkTimerActive = false
				state.WorkStart = time.Time{}
			}
		}
		if state.OnBreak {
			elapsed := now.Sub(state.BreakStart)
			if state.BreakStart.IsZero() || elapsed < 0 || elapsed >= state.BreakDuration {
				state.OnBreak = false
				state.BreakType = model.BreakNone
				state.BreakStart = time.Time{}
			}
		}

		recovered = state
		coordinator.Persist(recovered)
		if result.IsValid {
			coordinator.emitFeedback(SeveritySuccess, "Timer state restored")
		} else {
			coordinator.emitFeedback(SeverityWarning, "Timer state was partially recovered; some values were reset")
		}
		return Outcome{Success: true, Method: "recovered", FallbackMode: coordinator.InFallback(CapStorage)}
	})

	return recovered, outcome
}

// unsalvageable reports whether neither record carries a single field
// worth keeping.
func unsalvageable(state model.RawStateRecord, session model.RawSessionRecord) bool {
	fields := []any{
		state.WorkTimerActive, state.OnBreak, state.BreakType,
		state.BreakStart, state.BreakDuration, state.LastActivity,
		state.WorkThreshold, state.Focused,
		session.WorkStart, session.TotalWork,
	}
	for _, field := range fields {
		if field != nil {
			return false
		}
	}
	return true
}
