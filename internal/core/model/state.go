package model

import "time"

// BreakType identifies a catalog entry for a break.
type BreakType string

const (
	BreakNone   BreakType = ""
	BreakShort  BreakType = "short"
	BreakMedium BreakType = "medium"
	BreakLong   BreakType = "long"
)

// KnownBreakType reports whether value names a startable break.
func KnownBreakType(value BreakType) bool {
	switch value {
	case BreakShort, BreakMedium, BreakLong:
		return true
	}
	return false
}

// TimerState is the single source of truth for the work/break lifecycle.
// It is owned by the timer engine and mutated only through its transitions.
type TimerState struct {
	WorkTimerActive bool
	OnBreak         bool
	BreakType       BreakType

	// WorkStart is zero while paused or on break.
	WorkStart time.Time
	TotalWork time.Duration

	BreakStart    time.Time
	BreakDuration time.Duration

	LastActivity  time.Time
	WorkThreshold time.Duration
	Focused       bool
}

// Bounds enforced by validation and recovery.
const (
	MinWorkThreshold = 5 * time.Minute
	MaxWorkThreshold = 180 * time.Minute
	MaxTotalWork     = 24 * time.Hour
	MaxBreakDuration = 120 * time.Minute

	DefaultWorkThreshold = 30 * time.Minute
	DefaultBreakMinutes  = 5
)

// CleanState returns a fully reset state: no work accumulated, not on
// break, threshold at its default. Recovery falls back to this when a
// persisted record cannot be salvaged.
func CleanState(now time.Time) TimerState {
	return TimerState{
		WorkTimerActive: false,
		OnBreak:         false,
		BreakType:       BreakNone,
		TotalWork:       0,
		LastActivity:    now,
		WorkThreshold:   DefaultWorkThreshold,
		Focused:         true,
	}
}
