package main

import (
	"log"
	"net/http"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"workbreak/internal/api"
	"workbreak/internal/config"
	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/core/notify"
	"workbreak/internal/core/timer"
	"workbreak/internal/platform"
	"workbreak/internal/scheduler"
	"workbreak/internal/storage"
	"workbreak/internal/ui/feedback"
	"workbreak/internal/ui/tray"
)

const appName = "WorkBreak"

// fyneNotifier adapts desktop notifications to the notification
// service contract. Desktop toasts carry no action buttons; records
// that rely on them supply a Hint pointing at the surface that does,
// and the actual choices stay reachable through the tray menu and the
// control API.
type fyneNotifier struct {
	app fyne.App
}

func (notifier *fyneNotifier) Create(id string, options model.NotificationOptions) error {
	message := options.Message
	if options.Hint != "" {
		message += " " + options.Hint
	}
	notifier.app.SendNotification(fyne.NewNotification(options.Title, message))
	return nil
}

func (notifier *fyneNotifier) Clear(string) error { return nil }

func (notifier *fyneNotifier) PermissionLevel() (string, error) { return "granted", nil }

func main() {
	instance, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = instance.Release()
	}()

	settings, err := config.Load(appName)
	if err != nil {
		log.Printf("load settings: %v (using defaults)", err)
	}
	settingsStore := config.NewStore(appName, settings)

	fyneApp := app.NewWithID("dev.workbreak.app")
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
		return
	}

	mainWindow := fyneApp.NewWindow(appName)
	mainWindow.SetContent(widget.NewLabel(appName + " is running in the system tray."))
	mainWindow.SetCloseIntercept(func() {
		mainWindow.Hide()
	})
	mainWindow.Hide()
	desktopApp.SetSystemTrayWindow(mainWindow)

	var store storage.KV
	diskStore, err := storage.OpenDiskStore(appName)
	if err != nil {
		log.Printf("open state store: %v (state will not survive restarts)", err)
	} else {
		store = diskStore
	}

	// The tray is built before the engine so it can serve as the
	// coordinator's badge display; its callbacks close over the engine
	// variable and only fire once the app runs.
	var engine *timer.Engine
	var trayManager *tray.Manager
	trayManager = tray.New(desktopApp, appName, settingsStore.Settings().Breaks, tray.Callbacks{
		OnTogglePause: func() {
			if engine.Snapshot().WorkTimerActive {
				engine.PauseWorkTimer()
				trayManager.SetPaused(true)
			} else {
				engine.ResumeWorkTimer()
				trayManager.SetPaused(false)
			}
		},
		OnStartBreak: func(entry model.CatalogEntry) {
			engine.StartBreak(entry.Key, entry.Minutes)
		},
		OnEndBreak: func() {
			engine.EndBreak()
		},
		OnReset: func() {
			engine.ResetWorkTimer()
			trayManager.SetPaused(false)
		},
		OnShowWindow: func() {
			mainWindow.Show()
		},
		OnQuit: func() {
			fyneApp.Quit()
		},
	})

	coordinator := guard.New(guard.Options{
		Notifier: &fyneNotifier{app: fyneApp},
		Badge:    trayManager,
		Store:    store,
	})

	console := feedback.NewConsole()
	go console.Drain(coordinator.Feedback())

	engine = timer.Load(timer.Dependencies{
		Guard:    coordinator,
		Settings: settingsStore,
	})

	orchestrator := notify.New(notify.Options{
		Engine:   engine,
		Guard:    coordinator,
		Settings: settingsStore,
		OnShowUI: func() {
			fyne.Do(mainWindow.Show)
		},
	})

	// The tray manager marshals its own UI calls, so events can be
	// applied straight off the subscription goroutine.
	events := engine.Subscribe(8)
	go func() {
		for event := range events {
			switch event.Type {
			case timer.EventStateChange:
				trayManager.SetInBreak(event.OnBreak)
				trayManager.SetStatus(tray.FormatWorkStatus(event.WorkTime, event.Remaining, event.OnBreak))
			case timer.EventProgress:
				trayManager.SetStatus(tray.FormatWorkStatus(event.WorkTime, event.Remaining, event.OnBreak))
			}
		}
	}()

	ticker := scheduler.NewTicker()
	stopTick := ticker.Every(time.Second, func(now time.Time) {
		engine.Tick(now)
		orchestrator.Tick(now)
	})
	defer stopTick()

	monitor := platform.NewMonitor(
		platform.NewActivityProvider(),
		engine,
		5*time.Second,
		settingsStore.Settings().InactivityThreshold,
	)
	monitor.Start()
	defer monitor.Stop()

	if settingsStore.Settings().ControlAPIEnabled {
		controlServer := api.NewServer(engine, coordinator, settingsStore)
		httpServer := &http.Server{Handler: controlServer.NewRouter()}
		go func() {
			if err := httpServer.Serve(instance.Listener()); err != nil && err != http.ErrServerClosed {
				log.Printf("control api: %v", err)
			}
		}()
		defer func() {
			_ = httpServer.Close()
		}()
		log.Printf("control api listening on http://%s", instance.Address())
	}

	engine.StartWorkTimer()
	fyneApp.Run()
}
