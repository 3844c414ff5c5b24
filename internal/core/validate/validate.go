// Package validate repairs persisted and caller-supplied timer data.
//
// Every function here is total: malformed input never produces an error
// return or a panic, only a safe default plus a reported violation. The
// engine and the recovery path both rely on that: a corrupted record
// still yields a usable TimerState.
package validate

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"workbreak/internal/core/model"
)

const (
	// MaxFutureSkew bounds how far in the future a stored timestamp may
	// lie before it is treated as corrupt.
	MaxFutureSkew = 24 * time.Hour

	maxTextLength      = 500
	maxBreakMinutes    = 120
	defaultBreakMinute = model.DefaultBreakMinutes
)

// Result carries the outcome of sanitizing a persisted state pair.
// Sanitized is always usable, even when IsValid is false.
type Result struct {
	IsValid   bool
	Sanitized model.TimerState
	Errors    []string
}

// TimerRecords sanitizes the decoded timer-state and work-session
// records into a TimerState. Each violated field is independently
// replaced by its safe default and reported; no violation blocks the
// production of a result.
func TimerRecords(state model.RawStateRecord, session model.RawSessionRecord, now time.Time) Result {
	result := Result{IsValid: true}
	sanitized := model.TimerState{}

	sanitized.WorkTimerActive = Truthy(state.WorkTimerActive)
	sanitized.OnBreak = Truthy(state.OnBreak)
	sanitized.Focused = Truthy(state.Focused)

	breakType, ok := BreakType(state.BreakType)
	if !ok {
		result.fail("breakType: unknown value, defaulted to short")
	}
	sanitized.BreakType = breakType

	if start, ok := Timestamp(state.BreakStart, now); ok {
		sanitized.BreakStart = start
	} else if state.BreakStart != nil {
		sanitized.BreakStart = now
		result.fail("breakStart: invalid timestamp, defaulted to now")
	}

	duration, ok := BreakDuration(state.BreakDuration)
	if !ok {
		result.fail("breakDuration: out of range, defaulted to 5 minutes")
	}
	sanitized.BreakDuration = duration

	if last, ok := Timestamp(state.LastActivity, now); ok {
		sanitized.LastActivity = last
	} else {
		sanitized.LastActivity = now
		if state.LastActivity != nil {
			result.fail("lastActivity: invalid timestamp, defaulted to now")
		}
	}

	threshold, ok := Threshold(state.WorkThreshold)
	if !ok {
		result.fail("workThreshold: out of range, defaulted to 30 minutes")
	}
	sanitized.WorkThreshold = threshold

	if start, ok := Timestamp(session.WorkStart, now); ok {
		sanitized.WorkStart = start
	} else if session.WorkStart != nil {
		sanitized.WorkStart = now
		result.fail("workStart: invalid timestamp, defaulted to now")
	}

	total, ok := WorkTime(session.TotalWork)
	if !ok {
		result.fail("totalWork: out of range, defaulted to 0")
	}
	sanitized.TotalWork = total

	// Cross-field repair: the break flag and break type imply each other.
	if sanitized.OnBreak && sanitized.BreakType == model.BreakNone {
		sanitized.BreakType = model.BreakShort
		result.fail("breakType: missing while on break, defaulted to short")
	}
	if !sanitized.OnBreak && sanitized.BreakType != model.BreakNone {
		sanitized.BreakType = model.BreakNone
	}
	if sanitized.WorkTimerActive && sanitized.OnBreak {
		sanitized.WorkTimerActive = false
		result.fail("workTimerActive: active while on break, cleared")
	}
	if sanitized.WorkTimerActive && sanitized.WorkStart.IsZero() {
		sanitized.WorkStart = now
		result.fail("workStart: missing while active, defaulted to now")
	}

	result.Sanitized = sanitized
	return result
}

func (result *Result) fail(message string) {
	result.IsValid = false
	result.Errors = append(result.Errors, message)
}

// Truthy coerces a loosely-typed value to bool. Coercion never reports
// a violation.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return typed != "" && typed != "false" && typed != "0"
	case float64:
		return typed != 0 && !math.IsNaN(typed)
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case nil:
		return false
	}
	return true
}

// BreakType returns a known break type, defaulting to short. A nil or
// empty value passes through as BreakNone without being a violation.
func BreakType(value any) (model.BreakType, bool) {
	if value == nil {
		return model.BreakNone, true
	}
	text, ok := value.(string)
	if !ok {
		return model.BreakShort, false
	}
	typed := model.BreakType(strings.ToLower(strings.TrimSpace(text)))
	if typed == model.BreakNone {
		return model.BreakNone, true
	}
	if !model.KnownBreakType(typed) {
		return model.BreakShort, false
	}
	return typed, true
}

// DurationMinutes validates a break length in minutes: positive and at
// most 120, defaulting to 5.
func DurationMinutes(value any) (int, bool) {
	number, ok := numeric(value)
	if !ok || number <= 0 || number > maxBreakMinutes {
		return defaultBreakMinute, false
	}
	return int(number), true
}

// BreakDuration validates a stored break duration in milliseconds,
// bounded to (0, 120 min], defaulting to 5 minutes.
func BreakDuration(value any) (time.Duration, bool) {
	if value == nil {
		return time.Duration(defaultBreakMinute) * time.Minute, true
	}
	number, ok := numeric(value)
	if !ok || number <= 0 || number > float64(model.MaxBreakDuration.Milliseconds()) {
		return time.Duration(defaultBreakMinute) * time.Minute, false
	}
	return time.Duration(number) * time.Millisecond, true
}

// Timestamp validates a millisecond epoch timestamp in (0, now+24h].
// Reports false for anything else; callers choose the default.
func Timestamp(value any, now time.Time) (time.Time, bool) {
	number, ok := numeric(value)
	if !ok || number <= 0 {
		return time.Time{}, false
	}
	stamp := time.UnixMilli(int64(number))
	if stamp.After(now.Add(MaxFutureSkew)) {
		return time.Time{}, false
	}
	return stamp, true
}

// WorkTime validates accumulated work in milliseconds, bounded to
// [0, 24h], defaulting to 0.
func WorkTime(value any) (time.Duration, bool) {
	if value == nil {
		return 0, true
	}
	number, ok := numeric(value)
	if !ok || number < 0 || number > float64(model.MaxTotalWork.Milliseconds()) {
		return 0, false
	}
	return time.Duration(number) * time.Millisecond, true
}

// Threshold validates a work-time threshold in milliseconds, bounded to
// [5 min, 180 min], defaulting to 30 minutes.
func Threshold(value any) (time.Duration, bool) {
	number, ok := numeric(value)
	if !ok {
		return model.DefaultWorkThreshold, false
	}
	threshold := time.Duration(number) * time.Millisecond
	if threshold < model.MinWorkThreshold || threshold > model.MaxWorkThreshold {
		return model.DefaultWorkThreshold, false
	}
	return threshold, true
}

// ThresholdDuration clamps an already-typed threshold into its bounds.
func ThresholdDuration(value time.Duration) time.Duration {
	if value < model.MinWorkThreshold || value > model.MaxWorkThreshold {
		return model.DefaultWorkThreshold
	}
	return value
}

// Text strips angle brackets, trims whitespace and truncates free-text
// fields to 500 characters. Truncation counts runes so a multi-byte
// character is never split.
func Text(value string) string {
	cleaned := strings.NewReplacer("<", "", ">", "").Replace(value)
	cleaned = strings.TrimSpace(cleaned)
	if runes := []rune(cleaned); len(runes) > maxTextLength {
		cleaned = string(runes[:maxTextLength])
	}
	return cleaned
}

func numeric(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return 0, false
		}
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
