package timer

import (
	"time"

	"workbreak/internal/core/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventProgress      EventType = "progress"
	EventBreakFinished EventType = "break_finished"
)

// Event represents an engine update for observers.
type Event struct {
	Type      EventType
	OnBreak   bool
	BreakType model.BreakType
	WorkTime  time.Duration
	Remaining time.Duration
	At        time.Time
}
