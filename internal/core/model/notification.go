package model

import "time"

// NotificationOptions is the content handed to the notification service.
type NotificationOptions struct {
	Title   string
	Message string
	Buttons []string
	// Hint tells channels that cannot render Buttons where the actions
	// live instead. Empty when the message stands on its own.
	Hint               string
	RequireInteraction bool
}

// NotificationRecord tracks a dispatched notification so it can be
// deduplicated and cleared later.
type NotificationRecord struct {
	ID        string
	CreatedAt time.Time
	Options   NotificationOptions
}

// ErrorEntry tracks occurrences of one error kind for cooldown gating.
// Entries live in memory only and are dropped on reset.
type ErrorEntry struct {
	Count int
	Last  time.Time
}
