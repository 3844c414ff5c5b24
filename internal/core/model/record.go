package model

import "time"

// The engine persists its state as two logical records. Fields are typed
// as any because the stored blobs come from outside the process and may
// be malformed; the validate package turns them back into a TimerState.
//
// Timestamps and durations are stored as milliseconds since the Unix
// epoch, matching the opaque key/value contract of the storage layer.

// RawStateRecord is the decoded form of the timer-state record.
type RawStateRecord struct {
	WorkTimerActive any `json:"workTimerActive"`
	OnBreak         any `json:"onBreak"`
	BreakType       any `json:"breakType"`
	BreakStart      any `json:"breakStart"`
	BreakDuration   any `json:"breakDuration"`
	LastActivity    any `json:"lastActivity"`
	WorkThreshold   any `json:"workThreshold"`
	Focused         any `json:"focused"`
}

// RawSessionRecord is the decoded form of the work-session record.
type RawSessionRecord struct {
	WorkStart any `json:"workStart"`
	TotalWork any `json:"totalWork"`
}

// EncodeRecords converts a TimerState into the two persisted record forms.
func EncodeRecords(state TimerState) (RawStateRecord, RawSessionRecord) {
	stateRecord := RawStateRecord{
		WorkTimerActive: state.WorkTimerActive,
		OnBreak:         state.OnBreak,
		BreakType:       string(state.BreakType),
		BreakStart:      encodeTime(state.BreakStart),
		BreakDuration:   state.BreakDuration.Milliseconds(),
		LastActivity:    encodeTime(state.LastActivity),
		WorkThreshold:   state.WorkThreshold.Milliseconds(),
		Focused:         state.Focused,
	}
	sessionRecord := RawSessionRecord{
		WorkStart: encodeTime(state.WorkStart),
		TotalWork: state.TotalWork.Milliseconds(),
	}
	return stateRecord, sessionRecord
}

func encodeTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UnixMilli()
}
