package guard

import (
	"encoding/json"

	"workbreak/internal/core/model"
	"workbreak/internal/storage"
)

// Persist writes the two timer records. A primary-store failure
// switches the storage capability into fallback mode and lands the
// write in the in-process store instead; the caller's transition is
// never blocked.
func (coordinator *Coordinator) Persist(state model.TimerState) Outcome {
	stateRecord, sessionRecord := model.EncodeRecords(state)
	stateBlob, err := json.Marshal(stateRecord)
	if err != nil {
		return Outcome{Success: false, Reason: "encode: " + err.Error()}
	}
	sessionBlob, err := json.Marshal(sessionRecord)
	if err != nil {
		return Outcome{Success: false, Reason: "encode: " + err.Error()}
	}
	values := map[string][]byte{
		storage.KeyTimerState:  stateBlob,
		storage.KeyWorkSession: sessionBlob,
	}

	if !coordinator.InFallback(CapStorage) {
		if err := coordinator.store.SetMultiple(values); err == nil {
			return Outcome{Success: true, Method: "primary"}
		}
		coordinator.Handle(KindAPIUnavailable, func() Outcome {
			coordinator.EnterFallback(CapStorage)
			coordinator.emitFeedback(SeverityWarning, "Saving to temporary storage; changes may not survive a restart")
			return Outcome{Success: true, Method: "memory", FallbackMode: true}
		})
	}

	if err := coordinator.memStore.SetMultiple(values); err != nil {
		return Outcome{Success: false, Reason: err.Error(), FallbackMode: true}
	}
	return Outcome{Success: true, Method: "memory", FallbackMode: true}
}

// LoadRecords reads and decodes the persisted record pair. corrupt is
// true when a stored blob exists but does not decode; exists is false
// when neither record has ever been written.
func (coordinator *Coordinator) LoadRecords() (state model.RawStateRecord, session model.RawSessionRecord, exists bool, corrupt bool) {
	stateBlob := coordinator.loadKey(storage.KeyTimerState)
	sessionBlob := coordinator.loadKey(storage.KeyWorkSession)
	if stateBlob == nil && sessionBlob == nil {
		return state, session, false, false
	}

	if stateBlob != nil {
		if err := json.Unmarshal(stateBlob, &state); err != nil {
			corrupt = true
		}
	}
	if sessionBlob != nil {
		if err := json.Unmarshal(sessionBlob, &session); err != nil {
			corrupt = true
		}
	}
	return state, session, true, corrupt
}

func (coordinator *Coordinator) loadKey(key string) []byte {
	if coordinator.InFallback(CapStorage) {
		value, _ := coordinator.memStore.Get(key)
		return value
	}
	value, err := coordinator.store.Get(key)
	if err != nil {
		coordinator.Handle(KindAPIUnavailable, func() Outcome {
			coordinator.EnterFallback(CapStorage)
			return Outcome{Success: true, Method: "memory", FallbackMode: true}
		})
		value, _ = coordinator.memStore.Get(key)
		return value
	}
	return value
}
