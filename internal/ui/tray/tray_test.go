package tray

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"workbreak/internal/core/model"
)

func TestStatusComposition(t *testing.T) {
	manager := New(nil, "WorkBreak", model.DefaultCatalog(), Callbacks{})
	manager.SetStatus("worked 12:00")
	_ = manager.SetBadgeText("!")
	_ = manager.SetTitle("Time for a break")
	manager.SetPaused(true)

	assert.Equal(t, "[!] worked 12:00 — Time for a break (paused)", manager.Status())
}

func TestConcurrentBadgeAndStatusUpdates(t *testing.T) {
	manager := New(nil, "WorkBreak", model.DefaultCatalog(), Callbacks{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				manager.SetStatus("worked 00:01")
				_ = manager.SetBadgeText("5m")
				_ = manager.SetTitle("On a short break")
				manager.SetPaused(false)
				manager.SetInBreak(true)
			}
		}()
	}
	wg.Wait()

	status := manager.Status()
	assert.Contains(t, status, "[5m]")
	assert.Contains(t, status, "worked 00:01")
}

func TestFormatWorkStatus(t *testing.T) {
	assert.Equal(t, "worked 05:30", FormatWorkStatus(5*time.Minute+30*time.Second, 0, false))
	assert.Equal(t, "break ends in 03:00", FormatWorkStatus(0, 3*time.Minute, true))
	assert.Equal(t, "break ends in 00:00", FormatWorkStatus(0, -time.Second, true))
}
