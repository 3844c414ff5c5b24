// Package notify decides when a break reminder surfaces and turns user
// responses on notifications into timer transitions.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"workbreak/internal/config"
	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/core/timer"
)

// DefaultCooldown is the minimum time between two threshold reminders.
const DefaultCooldown = 5 * time.Minute

type notificationKind string

const (
	kindThreshold    notificationKind = "threshold"
	kindCompletion   notificationKind = "completion"
	kindConfirmation notificationKind = "confirmation"
)

type tracked struct {
	record model.NotificationRecord
	kind   notificationKind
}

// Options wires an Orchestrator.
type Options struct {
	Engine   *timer.Engine
	Guard    *guard.Coordinator
	Settings config.Provider
	Now      func() time.Time
	// OnShowUI surfaces the application's primary UI when the user
	// clicks a notification body.
	OnShowUI func()
}

// Orchestrator owns reminder scheduling and notification responses.
type Orchestrator struct {
	mu              sync.Mutex
	engine          *timer.Engine
	guard           *guard.Coordinator
	settings        config.Provider
	now             func() time.Time
	onShowUI        func()
	lastThresholdAt time.Time
	records         map[string]tracked
}

// New creates an Orchestrator.
func New(options Options) *Orchestrator {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Orchestrator{
		engine:   options.Engine,
		guard:    options.Guard,
		settings: options.Settings,
		now:      options.Now,
		onShowUI: options.OnShowUI,
		records:  make(map[string]tracked),
	}
}

// Tick runs once per scheduler tick: it expires a finished break and
// otherwise checks whether a threshold reminder is due.
func (orchestrator *Orchestrator) Tick(time.Time) {
	if orchestrator.engine.OnBreak() {
		if orchestrator.engine.RemainingBreakTime() == 0 {
			finished := orchestrator.engine.Snapshot().BreakType
			orchestrator.engine.EndBreak()
			orchestrator.ShowBreakCompletion(finished)
		}
		return
	}
	orchestrator.CheckAndNotifyThreshold()
}

// CheckAndNotifyThreshold dispatches a break reminder when work time
// has crossed the threshold. Returns false without side effects when
// notifications are disabled, the reminder cooldown has not elapsed,
// a break is running, or the threshold is not yet reached.
func (orchestrator *Orchestrator) CheckAndNotifyThreshold() bool {
	if orchestrator.settings == nil || !orchestrator.settings.NotificationsEnabled() {
		return false
	}
	if orchestrator.engine.OnBreak() {
		return false
	}

	now := orchestrator.now()
	orchestrator.mu.Lock()
	cooldown := orchestrator.cooldownLocked()
	if !orchestrator.lastThresholdAt.IsZero() && now.Sub(orchestrator.lastThresholdAt) < cooldown {
		orchestrator.mu.Unlock()
		return false
	}
	orchestrator.mu.Unlock()

	if !orchestrator.engine.ThresholdExceeded() {
		return false
	}

	catalog := orchestrator.catalog()
	buttons := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		buttons = append(buttons, entry.Label)
	}

	worked := orchestrator.engine.CurrentWorkTime().Round(time.Minute)
	record := model.NotificationRecord{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Options: model.NotificationOptions{
			Title:              "Time for a break",
			Message:            fmt.Sprintf("You have been working for %d minutes. Pick a break:", int(worked.Minutes())),
			Buttons:            buttons,
			Hint:               "Pick a break from the tray menu.",
			RequireInteraction: true,
		},
	}

	orchestrator.clearKind(kindThreshold)
	outcome := orchestrator.guard.Notify(record)
	if !outcome.Success {
		return false
	}

	orchestrator.mu.Lock()
	orchestrator.lastThresholdAt = now
	orchestrator.records[record.ID] = tracked{record: record, kind: kindThreshold}
	orchestrator.mu.Unlock()
	return true
}

// HandleButtonClicked maps a button press to a timer transition:
// threshold reminder button i starts catalog entry i, completion
// button 0 restarts the work timer.
func (orchestrator *Orchestrator) HandleButtonClicked(id string, index int) {
	orchestrator.mu.Lock()
	entry, ok := orchestrator.records[id]
	if ok {
		delete(orchestrator.records, id)
	}
	orchestrator.mu.Unlock()
	if !ok {
		return
	}
	orchestrator.guard.ClearNotification(id)

	switch entry.kind {
	case kindThreshold:
		option, valid := orchestrator.catalog().At(index)
		if !valid {
			return
		}
		if orchestrator.engine.StartBreak(option.Key, option.Minutes) {
			orchestrator.showConfirmation(option)
		}
	case kindCompletion:
		if index == 0 {
			orchestrator.engine.ResetWorkTimer()
		}
	}
}

// HandleClicked clears the notification and surfaces the primary UI.
func (orchestrator *Orchestrator) HandleClicked(id string) {
	orchestrator.mu.Lock()
	delete(orchestrator.records, id)
	orchestrator.mu.Unlock()

	orchestrator.guard.ClearNotification(id)
	if orchestrator.onShowUI != nil {
		orchestrator.onShowUI()
	}
}

// HandleClosed processes a dismissal. Dismissing a threshold reminder
// without choosing a break keeps the accumulated work time; the
// reminder simply re-arms after the cooldown.
func (orchestrator *Orchestrator) HandleClosed(id string, byUser bool) {
	orchestrator.mu.Lock()
	entry, ok := orchestrator.records[id]
	if ok {
		delete(orchestrator.records, id)
	}
	if ok && byUser && entry.kind == kindThreshold {
		orchestrator.lastThresholdAt = orchestrator.now()
	}
	orchestrator.mu.Unlock()
}

// ShowBreakCompletion announces a finished break. Fire and forget: a
// delivery failure degrades through the guard's cascade. A previous
// completion notice the user never answered is dropped first, so
// unanswered records do not accumulate across break cycles.
func (orchestrator *Orchestrator) ShowBreakCompletion(breakType model.BreakType) {
	orchestrator.clearKind(kindCompletion)
	option := orchestrator.catalog().Lookup(breakType)
	record := model.NotificationRecord{
		ID:        uuid.NewString(),
		CreatedAt: orchestrator.now(),
		Options: model.NotificationOptions{
			Title:   "Break complete",
			Message: option.Label + " finished. Ready to get back to it?",
			Buttons: []string{"Start working"},
		},
	}
	if orchestrator.guard.Notify(record).Success {
		orchestrator.mu.Lock()
		orchestrator.records[record.ID] = tracked{record: record, kind: kindCompletion}
		orchestrator.mu.Unlock()
	}
}

// Records returns the tracked in-flight notifications, used by status
// surfaces and tests.
func (orchestrator *Orchestrator) Records() []model.NotificationRecord {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	records := make([]model.NotificationRecord, 0, len(orchestrator.records))
	for _, entry := range orchestrator.records {
		records = append(records, entry.record)
	}
	return records
}

func (orchestrator *Orchestrator) showConfirmation(option model.CatalogEntry) {
	orchestrator.clearKind(kindConfirmation)
	record := model.NotificationRecord{
		ID:        uuid.NewString(),
		CreatedAt: orchestrator.now(),
		Options: model.NotificationOptions{
			Title:   "Break started",
			Message: option.Label + " — step away from the screen.",
		},
	}
	if orchestrator.guard.Notify(record).Success {
		orchestrator.mu.Lock()
		orchestrator.records[record.ID] = tracked{record: record, kind: kindConfirmation}
		orchestrator.mu.Unlock()
	}
}

func (orchestrator *Orchestrator) clearKind(kind notificationKind) {
	orchestrator.mu.Lock()
	var stale []string
	for id, entry := range orchestrator.records {
		if entry.kind == kind {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(orchestrator.records, id)
	}
	orchestrator.mu.Unlock()

	for _, id := range stale {
		orchestrator.guard.ClearNotification(id)
	}
}

func (orchestrator *Orchestrator) cooldownLocked() time.Duration {
	if orchestrator.settings != nil {
		if configured := orchestrator.settings.Settings().NotificationCooldown; configured > 0 {
			return configured
		}
	}
	return DefaultCooldown
}

func (orchestrator *Orchestrator) catalog() model.BreakCatalog {
	if orchestrator.settings != nil {
		if breaks := orchestrator.settings.Settings().Breaks; len(breaks) > 0 {
			return breaks
		}
	}
	return model.DefaultCatalog()
}
