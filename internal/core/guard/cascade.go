package guard

import "workbreak/internal/core/model"

// Notify dispatches a notification through the fallback cascade. The
// primary channel is the full notification; when it fails the cascade
// tries, in order, a buttonless notification, a badge-plus-tooltip
// update, a tooltip-only update, and finally a console record in the
// in-memory ring buffer. Each step runs only when the previous one
// failed or its capability is missing. A denied permission level parks
// the capability in fallback mode before any create is attempted.
func (coordinator *Coordinator) Notify(record model.NotificationRecord) Outcome {
	if coordinator.InFallback(CapNotifications) {
		coordinator.enqueue(record)
		return Outcome{Success: true, Method: "queue", FallbackMode: true}
	}

	if level, err := coordinator.notifier.PermissionLevel(); err == nil && level == "denied" {
		coordinator.EnterFallback(CapNotifications)
		coordinator.emitFeedback(SeverityWarning, "Notifications are blocked; check system notification permissions")
		coordinator.enqueue(record)
		return Outcome{Success: true, Method: "queue", FallbackMode: true}
	}

	if err := coordinator.notifier.Create(record.ID, record.Options); err == nil {
		return Outcome{Success: true, Method: "notification"}
	}

	return coordinator.Handle(KindNotificationFailure, func() Outcome {
		return coordinator.cascade(record)
	})
}

func (coordinator *Coordinator) cascade(record model.NotificationRecord) Outcome {
	// (a) the interactive buttons may be what the platform rejected.
	simple := record.Options
	simple.Buttons = nil
	simple.RequireInteraction = false
	if err := coordinator.notifier.Create(record.ID, simple); err == nil {
		coordinator.emitFeedback(SeverityInfo, "Notification buttons unavailable; shown without actions")
		return Outcome{Success: true, Method: "simple-notification"}
	}

	// (b) badge text plus tooltip.
	if !coordinator.InFallback(CapBadge) {
		if err := coordinator.badge.SetBadgeText("!"); err == nil {
			_ = coordinator.badge.SetBadgeBackgroundColor("#d93025")
			_ = coordinator.badge.SetTitle(record.Options.Title + " — " + record.Options.Message)
			return Outcome{Success: true, Method: "badge"}
		}
		// (c) tooltip only.
		if err := coordinator.badge.SetTitle(record.Options.Title + " — " + record.Options.Message); err == nil {
			return Outcome{Success: true, Method: "title"}
		}
	}

	// (d) console record for later display.
	coordinator.mu.Lock()
	coordinator.appendLogLocked(LogEntry{
		At:      coordinator.now(),
		Title:   record.Options.Title,
		Message: record.Options.Message,
	})
	coordinator.mu.Unlock()
	coordinator.emitFeedback(SeverityWarning, "Notifications are not working; check system notification permissions")
	return Outcome{Success: true, Method: "console"}
}

func (coordinator *Coordinator) enqueue(record model.NotificationRecord) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	coordinator.queue = append(coordinator.queue, record)
}

// ClearNotification removes a delivered notification, tolerating a
// missing or degraded service.
func (coordinator *Coordinator) ClearNotification(id string) {
	if coordinator.InFallback(CapNotifications) {
		coordinator.mu.Lock()
		kept := coordinator.queue[:0]
		for _, queued := range coordinator.queue {
			if queued.ID != id {
				kept = append(kept, queued)
			}
		}
		coordinator.queue = kept
		coordinator.mu.Unlock()
		return
	}
	_ = coordinator.notifier.Clear(id)
}

// UpdateBadge pushes badge text, color and tooltip, mirroring the
// values in memory when the badge capability is degraded.
func (coordinator *Coordinator) UpdateBadge(text, color, tooltip string) Outcome {
	coordinator.mu.Lock()
	coordinator.mirror = BadgeState{Text: text, Color: color, Tooltip: tooltip}
	coordinator.mu.Unlock()

	if coordinator.InFallback(CapBadge) {
		return Outcome{Success: true, Method: "mirror", FallbackMode: true}
	}

	if err := coordinator.badge.SetBadgeText(text); err != nil {
		coordinator.Handle(KindAPIUnavailable, func() Outcome {
			coordinator.EnterFallback(CapBadge)
			return Outcome{Success: true, Method: "mirror", FallbackMode: true}
		})
		return Outcome{Success: true, Method: "mirror", FallbackMode: true}
	}
	_ = coordinator.badge.SetBadgeBackgroundColor(color)
	_ = coordinator.badge.SetTitle(tooltip)
	return Outcome{Success: true, Method: "badge"}
}
