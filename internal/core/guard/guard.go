// Package guard wraps platform-API calls with per-error-kind cooldowns
// and executes recovery strategies when a call fails: timer-state
// recovery, a cascading notification fallback, and sticky per-capability
// fallback mode. Nothing in this package surfaces an error to the
// caller; operations return best-effort Outcome values instead.
package guard

import (
	"sync"
	"time"

	"workbreak/internal/core/model"
	"workbreak/internal/storage"
)

// Kind classifies a failure for cooldown tracking.
type Kind string

const (
	KindStateCorruption     Kind = "state_corruption"
	KindNotificationFailure Kind = "notification_failure"
	KindAPIUnavailable      Kind = "api_unavailable"
	KindValidationFailure   Kind = "validation_failure"
)

// Capability names a platform dependency that can degrade to a
// fallback implementation.
type Capability string

const (
	CapNotifications Capability = "notifications"
	CapStorage       Capability = "storage"
	CapScheduler     Capability = "scheduler"
	CapBadge         Capability = "badge"
)

// Severity grades a user-visible feedback message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Feedback is a non-blocking user-visible message describing what a
// recovery path did.
type Feedback struct {
	Severity Severity
	Message  string
}

// Outcome reports how an operation concluded. Reason is set when
// Success is false ("cooldown" for suppressed handling); Method names
// the channel or strategy that ultimately served the call.
type Outcome struct {
	Success      bool
	Reason       string
	Method       string
	FallbackMode bool
	WasReset     bool
}

// Notifier is the platform notification service.
type Notifier interface {
	Create(id string, options model.NotificationOptions) error
	Clear(id string) error
	PermissionLevel() (string, error)
}

// Badge is the badge/title display primitive, used as a notification
// fallback channel and for break progress.
type Badge interface {
	SetBadgeText(text string) error
	SetBadgeBackgroundColor(color string) error
	SetTitle(text string) error
}

// LogEntry is one console-level fallback record, kept when every
// notification channel failed.
type LogEntry struct {
	At      time.Time
	Title   string
	Message string
}

// BadgeState mirrors the last badge/title values, maintained while the
// badge capability is degraded.
type BadgeState struct {
	Text    string
	Color   string
	Tooltip string
}

// DefaultErrorCooldown is the per-kind gate between two handlings of
// the same failure cause.
const DefaultErrorCooldown = 5 * time.Second

// fallbackLogCap bounds the console ring buffer.
const fallbackLogCap = 5

// Options configures a Coordinator.
type Options struct {
	Notifier Notifier
	Badge    Badge
	Store    storage.KV
	Cooldown time.Duration
	Now      func() time.Time
	// FeedbackBuffer sizes the feedback channel; messages beyond the
	// buffer are dropped rather than blocking a recovery path.
	FeedbackBuffer int
}

// Coordinator owns the selected implementation of each capability and
// every recovery strategy. It is safe for concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	now      func() time.Time
	cooldown time.Duration
	errors   map[Kind]*model.ErrorEntry
	feedback chan Feedback

	notifier Notifier
	badge    Badge
	store    storage.KV

	fallback  map[Capability]bool
	memStore  *storage.MemoryStore
	queue     []model.NotificationRecord
	mirror    BadgeState
	logBuffer []LogEntry
}

// New creates a Coordinator. A nil Notifier, Badge or Store puts the
// corresponding capability into fallback mode from the start.
func New(options Options) *Coordinator {
	if options.Cooldown <= 0 {
		options.Cooldown = DefaultErrorCooldown
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.FeedbackBuffer <= 0 {
		options.FeedbackBuffer = 16
	}

	coordinator := &Coordinator{
		now:      options.Now,
		cooldown: options.Cooldown,
		errors:   make(map[Kind]*model.ErrorEntry),
		feedback: make(chan Feedback, options.FeedbackBuffer),
		notifier: options.Notifier,
		badge:    options.Badge,
		store:    options.Store,
		fallback: make(map[Capability]bool),
		memStore: storage.NewMemoryStore(),
	}
	if options.Notifier == nil {
		coordinator.fallback[CapNotifications] = true
	}
	if options.Badge == nil {
		coordinator.fallback[CapBadge] = true
	}
	if options.Store == nil {
		coordinator.fallback[CapStorage] = true
	}
	return coordinator
}

// Handle runs recover under the per-kind cooldown. Repeated failures of
// the same kind inside the cooldown window are suppressed without
// re-running recovery.
func (coordinator *Coordinator) Handle(kind Kind, recover func() Outcome) Outcome {
	coordinator.mu.Lock()
	suppressed := coordinator.throttleLocked(kind)
	coordinator.mu.Unlock()
	if suppressed {
		return Outcome{Success: false, Reason: "cooldown"}
	}
	return recover()
}

// throttleLocked records an occurrence of kind and reports whether
// handling should be suppressed. The gate is time-based only; volume
// inside the window is counted but not acted on.
func (coordinator *Coordinator) throttleLocked(kind Kind) bool {
	now := coordinator.now()
	entry := coordinator.errors[kind]
	if entry == nil {
		entry = &model.ErrorEntry{}
		coordinator.errors[kind] = entry
	}
	entry.Count++
	if !entry.Last.IsZero() && now.Sub(entry.Last) < coordinator.cooldown {
		return true
	}
	entry.Last = now
	return false
}

// ErrorCount returns how many times kind has occurred since the last
// reset. Used by status surfaces and tests.
func (coordinator *Coordinator) ErrorCount(kind Kind) int {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	entry := coordinator.errors[kind]
	if entry == nil {
		return 0
	}
	return entry.Count
}

// ResetErrorTracking drops all cooldown entries.
func (coordinator *Coordinator) ResetErrorTracking() {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	coordinator.errors = make(map[Kind]*model.ErrorEntry)
}

// Feedback returns the channel of user-visible recovery messages.
func (coordinator *Coordinator) Feedback() <-chan Feedback {
	return coordinator.feedback
}

func (coordinator *Coordinator) emitFeedback(severity Severity, message string) {
	select {
	case coordinator.feedback <- Feedback{Severity: severity, Message: message}:
	default:
	}
}

// ReportValidation records a caller-supplied data violation. The
// sanitized substitute has already been applied by the caller; this
// only surfaces the repair, throttled per the validation error kind.
func (coordinator *Coordinator) ReportValidation(message string) {
	coordinator.Handle(KindValidationFailure, func() Outcome {
		coordinator.emitFeedback(SeverityInfo, message)
		return Outcome{Success: true, Method: "sanitized"}
	})
}

// EnterFallback switches a capability into its degraded substitute.
// Fallback mode is sticky until ClearFallback.
func (coordinator *Coordinator) EnterFallback(capability Capability) {
	coordinator.mu.Lock()
	already := coordinator.fallback[capability]
	coordinator.fallback[capability] = true
	coordinator.mu.Unlock()
	if !already {
		coordinator.emitFeedback(SeverityWarning, "Running in degraded mode: "+string(capability)+" unavailable")
	}
}

// ClearFallback restores a capability to its real implementation.
func (coordinator *Coordinator) ClearFallback(capability Capability) {
	coordinator.mu.Lock()
	delete(coordinator.fallback, capability)
	coordinator.mu.Unlock()
}

// InFallback reports whether a capability is degraded.
func (coordinator *Coordinator) InFallback(capability Capability) bool {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.fallback[capability]
}

// FallbackLog returns the console ring buffer, oldest first.
func (coordinator *Coordinator) FallbackLog() []LogEntry {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return append([]LogEntry(nil), coordinator.logBuffer...)
}

// QueuedNotifications returns notifications held while the
// notification capability is degraded.
func (coordinator *Coordinator) QueuedNotifications() []model.NotificationRecord {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return append([]model.NotificationRecord(nil), coordinator.queue...)
}

// BadgeMirror returns the in-memory badge state kept while the badge
// capability is degraded.
func (coordinator *Coordinator) BadgeMirror() BadgeState {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.mirror
}

func (coordinator *Coordinator) appendLogLocked(entry LogEntry) {
	coordinator.logBuffer = append(coordinator.logBuffer, entry)
	if len(coordinator.logBuffer) > fallbackLogCap {
		coordinator.logBuffer = coordinator.logBuffer[len(coordinator.logBuffer)-fallbackLogCap:]
	}
}
