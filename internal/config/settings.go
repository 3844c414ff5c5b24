package config

import (
	"sync"
	"time"

	"workbreak/internal/core/model"
	"workbreak/internal/core/validate"
)

// Settings defines editable user preferences.
type Settings struct {
	WorkThreshold        time.Duration
	InactivityThreshold  time.Duration
	NotificationsEnabled bool
	NotificationCooldown time.Duration
	Breaks               model.BreakCatalog
	ControlAPIEnabled    bool
}

// DefaultSettings returns the defaults applied when no settings file
// exists or a field is out of range.
func DefaultSettings() Settings {
	return Settings{
		WorkThreshold:        model.DefaultWorkThreshold,
		InactivityThreshold:  5 * time.Minute,
		NotificationsEnabled: true,
		NotificationCooldown: 5 * time.Minute,
		Breaks:               model.DefaultCatalog(),
		ControlAPIEnabled:    true,
	}
}

// Provider is the settings collaborator consumed by the engine and the
// notification orchestrator.
type Provider interface {
	WorkTimeThreshold() time.Duration
	NotificationsEnabled() bool
	Settings() Settings
}

// Store holds live settings and persists catalog customizations. It is
// safe for concurrent readers; updates replace the snapshot wholesale.
type Store struct {
	mu       sync.Mutex
	appName  string
	settings Settings
}

// NewStore wraps settings for appName. Saving is best effort; callers
// that need the write error use Save directly.
func NewStore(appName string, settings Settings) *Store {
	return &Store{appName: appName, settings: settings}
}

func (store *Store) WorkTimeThreshold() time.Duration {
	store.mu.Lock()
	defer store.mu.Unlock()
	return validate.ThresholdDuration(store.settings.WorkThreshold)
}

func (store *Store) NotificationsEnabled() bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.settings.NotificationsEnabled
}

func (store *Store) Settings() Settings {
	store.mu.Lock()
	defer store.mu.Unlock()
	settings := store.settings
	settings.Breaks = append(model.BreakCatalog(nil), store.settings.Breaks...)
	return settings
}

// Update replaces the settings snapshot and persists it.
func (store *Store) Update(settings Settings) error {
	store.mu.Lock()
	store.settings = settings
	appName := store.appName
	store.mu.Unlock()
	return Save(appName, settings)
}

// UpdateCatalog replaces the break-type catalog and persists it.
// Entries with out-of-range durations are repaired, not rejected.
func (store *Store) UpdateCatalog(catalog model.BreakCatalog) error {
	repaired := make(model.BreakCatalog, 0, len(catalog))
	for _, entry := range catalog {
		key, _ := validate.BreakType(string(entry.Key))
		if key == model.BreakNone {
			key = model.BreakShort
		}
		minutes, _ := validate.DurationMinutes(float64(entry.Minutes))
		repaired = append(repaired, model.CatalogEntry{
			Key:     key,
			Minutes: minutes,
			Label:   validate.Text(entry.Label),
		})
	}
	if len(repaired) == 0 {
		repaired = model.DefaultCatalog()
	}

	store.mu.Lock()
	store.settings.Breaks = repaired
	settings := store.settings
	appName := store.appName
	store.mu.Unlock()
	return Save(appName, settings)
}
