// Package tray drives the system tray: status text, break commands,
// and the badge/title display consumed by the fallback cascade.
package tray

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"workbreak/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnTogglePause func()
	OnStartBreak  func(entry model.CatalogEntry)
	OnEndBreak    func()
	OnReset       func()
	OnShowWindow  func()
	OnQuit        func()
}

// Manager handles system tray state. It implements the badge/title
// display contract: badge text is prefixed to the status line and the
// tooltip becomes the status detail. Setters are safe from any
// goroutine; each refresh builds the menu from a snapshot of the state
// and hands the finished menu to the UI thread via fyne.Do.
type Manager struct {
	mu        sync.Mutex
	app       desktop.App
	appName   string
	catalog   model.BreakCatalog
	callbacks Callbacks

	paused      bool
	inBreak     bool
	statusLabel string
	badgeText   string
	tooltip     string
}

// New creates a tray manager with the provided break catalog and
// callbacks.
func New(app desktop.App, appName string, catalog model.BreakCatalog, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		appName:     appName,
		catalog:     catalog,
		callbacks:   callbacks,
		statusLabel: "starting...",
	}
	manager.refresh()
	return manager
}

// SetStatus updates the status label from engine progress.
func (manager *Manager) SetStatus(status string) {
	manager.mu.Lock()
	manager.statusLabel = status
	manager.mu.Unlock()
	manager.refresh()
}

// SetPaused updates pause state.
func (manager *Manager) SetPaused(paused bool) {
	manager.mu.Lock()
	manager.paused = paused
	manager.mu.Unlock()
	manager.refresh()
}

// SetInBreak toggles break-related menu items.
func (manager *Manager) SetInBreak(inBreak bool) {
	manager.mu.Lock()
	manager.inBreak = inBreak
	manager.mu.Unlock()
	manager.refresh()
}

// SetBadgeText implements the badge display contract.
func (manager *Manager) SetBadgeText(text string) error {
	manager.mu.Lock()
	manager.badgeText = text
	manager.mu.Unlock()
	manager.refresh()
	return nil
}

// SetBadgeBackgroundColor is accepted for contract completeness; tray
// menus have no colored badge, so the value only lands in the mirror.
func (manager *Manager) SetBadgeBackgroundColor(string) error {
	return nil
}

// SetTitle implements the tooltip side of the badge contract.
func (manager *Manager) SetTitle(text string) error {
	manager.mu.Lock()
	manager.tooltip = text
	manager.mu.Unlock()
	manager.refresh()
	return nil
}

// Status returns the composed status line currently shown in the menu.
func (manager *Manager) Status() string {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.statusLineLocked()
}

// FormatWorkStatus renders a status line for the given timer reading.
func FormatWorkStatus(workTime, remaining time.Duration, onBreak bool) string {
	if onBreak {
		return "break ends in " + formatClock(remaining)
	}
	return "worked " + formatClock(workTime)
}

func formatClock(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func (manager *Manager) statusLineLocked() string {
	status := manager.statusLabel
	if manager.badgeText != "" {
		status = "[" + manager.badgeText + "] " + status
	}
	if manager.tooltip != "" && manager.tooltip != status {
		status = status + " — " + manager.tooltip
	}
	if manager.paused {
		status = status + " (paused)"
	}
	return status
}

func (manager *Manager) refresh() {
	manager.mu.Lock()
	menu := manager.buildMenuLocked()
	manager.mu.Unlock()

	if manager.app == nil {
		return
	}
	fyne.Do(func() {
		manager.app.SetSystemTrayMenu(menu)
	})
}

func (manager *Manager) buildMenuLocked() *fyne.Menu {
	statusItem := fyne.NewMenuItem("Status: "+manager.statusLineLocked(), nil)
	statusItem.Disabled = true
	items := []*fyne.MenuItem{statusItem}

	if manager.callbacks.OnShowWindow != nil {
		items = append(items, fyne.NewMenuItem("Open", manager.callbacks.OnShowWindow))
	}

	breakMenu := fyne.NewMenuItem("Take a break...", nil)
	var children []*fyne.MenuItem
	for _, entry := range manager.catalog {
		captured := entry
		children = append(children, fyne.NewMenuItem(captured.Label, func() {
			if manager.callbacks.OnStartBreak != nil {
				manager.callbacks.OnStartBreak(captured)
			}
		}))
	}
	breakMenu.ChildMenu = fyne.NewMenu("", children...)
	breakMenu.Disabled = manager.inBreak
	items = append(items, breakMenu)

	endItem := fyne.NewMenuItem("End break", func() {
		if manager.callbacks.OnEndBreak != nil {
			manager.callbacks.OnEndBreak()
		}
	})
	endItem.Disabled = !manager.inBreak
	items = append(items, endItem)

	pauseLabel := "Pause"
	if manager.paused {
		pauseLabel = "Resume"
	}
	items = append(items, fyne.NewMenuItem(pauseLabel, func() {
		if manager.callbacks.OnTogglePause != nil {
			manager.callbacks.OnTogglePause()
		}
	}))

	items = append(items, fyne.NewMenuItem("Reset work timer", func() {
		if manager.callbacks.OnReset != nil {
			manager.callbacks.OnReset()
		}
	}))
	items = append(items, fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	}))

	return fyne.NewMenu(manager.appName, items...)
}
