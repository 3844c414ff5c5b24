package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbreak/internal/config"
	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/scheduler"
	"workbreak/internal/storage"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSettings struct {
	threshold  time.Duration
	inactivity time.Duration
	enabled    bool
}

func (settings *fakeSettings) WorkTimeThreshold() time.Duration { return settings.threshold }
func (settings *fakeSettings) NotificationsEnabled() bool       { return settings.enabled }
func (settings *fakeSettings) Settings() config.Settings {
	base := config.DefaultSettings()
	base.WorkThreshold = settings.threshold
	base.InactivityThreshold = settings.inactivity
	base.NotificationsEnabled = settings.enabled
	return base
}

type harness struct {
	clock    *clock
	store    *storage.MemoryStore
	guard    *guard.Coordinator
	manual   *scheduler.Manual
	settings *fakeSettings
}

func newHarness() *harness {
	c := &clock{now: testNow}
	store := storage.NewMemoryStore()
	return &harness{
		clock: c,
		store: store,
		guard: guard.New(guard.Options{
			Store: store,
			Now:   c.Now,
		}),
		manual: scheduler.NewManual(testNow),
		settings: &fakeSettings{
			threshold:  30 * time.Minute,
			inactivity: 5 * time.Minute,
			enabled:    true,
		},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Guard:     h.guard,
		Settings:  h.settings,
		Scheduler: h.manual,
		Now:       h.clock.Now,
	}
}

// advance moves both the engine clock and the deferred-check scheduler.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.manual.Advance(d)
}

func newEngine(h *harness) *Engine {
	return New(model.CleanState(testNow), h.deps())
}

func TestStartPauseResumeConservation(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)

	require.True(t, engine.StartWorkTimer())
	h.advance(10 * time.Minute)
	require.True(t, engine.PauseWorkTimer())
	h.advance(3 * time.Minute) // paused time does not count
	require.True(t, engine.ResumeWorkTimer())
	h.advance(7 * time.Minute)
	require.True(t, engine.PauseWorkTimer())

	assert.Equal(t, 17*time.Minute, engine.CurrentWorkTime())
	assert.Equal(t, 17*time.Minute, engine.Snapshot().TotalWork)
}

func TestMonotonicThreshold(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()

	for elapsed := time.Duration(0); elapsed <= 40*time.Minute; elapsed += 10 * time.Minute {
		expected := engine.CurrentWorkTime() >= 30*time.Minute
		assert.Equal(t, expected, engine.ThresholdExceeded(), "at %s", elapsed)
		h.advance(10 * time.Minute)
	}
	assert.True(t, engine.ThresholdExceeded())
}

func TestStartWorkTimerSemantics(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)

	require.True(t, engine.StartWorkTimer())
	assert.True(t, engine.StartWorkTimer(), "already active is a successful no-op")

	require.True(t, engine.StartBreak(model.BreakShort, 5))
	assert.False(t, engine.StartWorkTimer(), "refused while on break")
}

func TestPauseIdempotent(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()
	h.advance(time.Minute)

	require.True(t, engine.PauseWorkTimer())
	before := engine.Snapshot()
	assert.False(t, engine.PauseWorkTimer(), "second pause is a no-op")
	assert.Equal(t, before, engine.Snapshot())
}

func TestBreakResetsWork(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()
	h.advance(25 * time.Minute)

	require.True(t, engine.StartBreak(model.BreakMedium, 15))
	snapshot := engine.Snapshot()
	assert.True(t, snapshot.OnBreak)
	assert.Equal(t, model.BreakMedium, snapshot.BreakType)
	assert.Equal(t, 15*time.Minute, snapshot.BreakDuration)
	assert.False(t, snapshot.WorkTimerActive)
	assert.Equal(t, 25*time.Minute, snapshot.TotalWork, "work folded, not discarded, during the break")

	h.advance(15 * time.Minute)
	require.True(t, engine.EndBreak())
	snapshot = engine.Snapshot()
	assert.False(t, snapshot.OnBreak)
	assert.Equal(t, model.BreakNone, snapshot.BreakType)
	assert.Equal(t, time.Duration(0), snapshot.TotalWork)
	assert.True(t, snapshot.WorkTimerActive, "ending a break starts a fresh segment")
}

func TestEndBreakIdempotent(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)

	assert.False(t, engine.EndBreak())
	assert.False(t, engine.CancelBreak())

	engine.StartWorkTimer()
	require.True(t, engine.StartBreak(model.BreakShort, 5))
	require.True(t, engine.CancelBreak())
	assert.False(t, engine.CancelBreak(), "cancel after end is a no-op")
}

func TestStartBreakWhileOnBreak(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	require.True(t, engine.StartBreak(model.BreakShort, 5))
	assert.False(t, engine.StartBreak(model.BreakLong, 30))
	assert.Equal(t, model.BreakShort, engine.Snapshot().BreakType)
}

func TestStartBreakSanitizesInput(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)

	require.True(t, engine.StartBreak("espresso", 500))
	snapshot := engine.Snapshot()
	assert.Equal(t, model.BreakShort, snapshot.BreakType)
	assert.Equal(t, 5*time.Minute, snapshot.BreakDuration)
}

func TestRemainingBreakTime(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	assert.Equal(t, time.Duration(0), engine.RemainingBreakTime())

	engine.StartBreak(model.BreakShort, 5)
	h.advance(2 * time.Minute)
	assert.Equal(t, 3*time.Minute, engine.RemainingBreakTime())

	h.advance(10 * time.Minute)
	assert.Equal(t, time.Duration(0), engine.RemainingBreakTime())
}

func TestFocusLostDebouncedPause(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()

	engine.FocusLost()
	h.advance(2 * time.Minute)
	assert.True(t, engine.Snapshot().WorkTimerActive, "no pause before the inactivity threshold")

	h.advance(4 * time.Minute)
	assert.False(t, engine.Snapshot().WorkTimerActive, "deferred check pauses once the threshold elapses")
	assert.Equal(t, 6*time.Minute, engine.Snapshot().TotalWork)
}

func TestFocusRegainedSupersedesPendingPause(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()

	engine.FocusLost()
	h.advance(2 * time.Minute)
	engine.FocusGained()
	h.advance(10 * time.Minute)
	assert.True(t, engine.Snapshot().WorkTimerActive, "stale check re-reads focus and does nothing")
}

func TestFocusGainedResumesPaused(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()
	h.advance(time.Minute)
	engine.PauseWorkTimer()

	engine.FocusGained()
	assert.True(t, engine.Snapshot().WorkTimerActive)
}

func TestUpdateActivityResumesWhenFocused(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartWorkTimer()
	h.advance(time.Minute)
	engine.PauseWorkTimer()

	engine.UpdateActivity()
	snapshot := engine.Snapshot()
	assert.True(t, snapshot.WorkTimerActive)
	assert.Equal(t, h.clock.Now(), snapshot.LastActivity)
}

func TestUpdateActivityDoesNotResumeOnBreak(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	engine.StartBreak(model.BreakShort, 5)

	engine.UpdateActivity()
	assert.False(t, engine.Snapshot().WorkTimerActive)
	assert.True(t, engine.Snapshot().OnBreak)
}

type brokenStore struct{}

func (brokenStore) Get(string) ([]byte, error)          { return nil, errors.New("io error") }
func (brokenStore) Set(string, []byte) error            { return errors.New("io error") }
func (brokenStore) SetMultiple(map[string][]byte) error { return errors.New("io error") }

func TestTransitionsAreOptimisticWhenPersistFails(t *testing.T) {
	h := newHarness()
	h.guard = guard.New(guard.Options{Store: brokenStore{}, Now: h.clock.Now})
	engine := New(model.CleanState(testNow), h.deps())

	require.True(t, engine.StartWorkTimer())
	assert.True(t, engine.Snapshot().WorkTimerActive, "in-memory transition completes despite the write failure")
	assert.True(t, h.guard.InFallback(guard.CapStorage))
}

func persistState(t *testing.T, h *harness, state model.TimerState) {
	t.Helper()
	outcome := h.guard.Persist(state)
	require.True(t, outcome.Success)
	require.Equal(t, "primary", outcome.Method)
}

func TestRestartRecoveryNoGap(t *testing.T) {
	h := newHarness()
	persistState(t, h, model.TimerState{
		WorkTimerActive: true,
		WorkStart:       testNow.Add(-time.Minute),
		LastActivity:    testNow.Add(-time.Minute),
		WorkThreshold:   30 * time.Minute,
		BreakDuration:   5 * time.Minute,
		Focused:         true,
	})

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.True(t, snapshot.WorkTimerActive, "a one minute gap continues the session")
	assert.Equal(t, time.Duration(0), snapshot.TotalWork)
}

func TestRestartRecoveryLongGap(t *testing.T) {
	h := newHarness()
	persistState(t, h, model.TimerState{
		WorkTimerActive: true,
		WorkStart:       testNow.Add(-20 * time.Minute),
		LastActivity:    testNow.Add(-20 * time.Minute),
		WorkThreshold:   30 * time.Minute,
		BreakDuration:   5 * time.Minute,
		Focused:         true,
	})

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.WorkTimerActive, "a gap past the inactivity threshold pauses")
	assert.Equal(t, 20*time.Minute, snapshot.TotalWork, "the gap is folded into the total")
}

func TestRestartRecoveryBreakAutoExpiry(t *testing.T) {
	h := newHarness()
	persistState(t, h, model.TimerState{
		OnBreak:       true,
		BreakType:     model.BreakLong,
		BreakStart:    testNow.Add(-40 * time.Minute),
		BreakDuration: 30 * time.Minute,
		LastActivity:  testNow.Add(-40 * time.Minute),
		WorkThreshold: 30 * time.Minute,
	})

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.OnBreak, "the break elapsed while the process was down")
	assert.Equal(t, time.Duration(0), snapshot.TotalWork)
	assert.True(t, snapshot.WorkTimerActive)
}

func TestRestartRecoveryBreakStillRunning(t *testing.T) {
	h := newHarness()
	persistState(t, h, model.TimerState{
		OnBreak:       true,
		BreakType:     model.BreakMedium,
		BreakStart:    testNow.Add(-5 * time.Minute),
		BreakDuration: 15 * time.Minute,
		LastActivity:  testNow.Add(-5 * time.Minute),
		WorkThreshold: 30 * time.Minute,
	})

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.True(t, snapshot.OnBreak)
	assert.Equal(t, 10*time.Minute, engine.RemainingBreakTime())
}

func TestRestartRecoveryReconcilesBreakWithoutStart(t *testing.T) {
	h := newHarness()
	// Simulate a crash between the two record writes: break flag set,
	// no break start persisted.
	state := model.TimerState{
		OnBreak:       true,
		BreakType:     model.BreakShort,
		BreakDuration: 5 * time.Minute,
		LastActivity:  testNow.Add(-time.Minute),
		WorkThreshold: 30 * time.Minute,
	}
	persistState(t, h, state)

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.OnBreak)
	assert.True(t, snapshot.WorkTimerActive)
}

func TestLoadFromEmptyStore(t *testing.T) {
	h := newHarness()
	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.WorkTimerActive)
	assert.Equal(t, 30*time.Minute, snapshot.WorkThreshold)
}

func TestLoadFromCorruptBlob(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.store.Set(storage.KeyTimerState, []byte("{not json")))

	engine := Load(h.deps())
	snapshot := engine.Snapshot()
	assert.False(t, snapshot.OnBreak)
	assert.False(t, snapshot.WorkTimerActive)
}

func TestSubscribeReceivesBreakFinished(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	require.True(t, engine.StartBreak(model.BreakShort, 5))
	events := engine.Subscribe(4)

	require.True(t, engine.EndBreak())
	select {
	case event := <-events:
		assert.Equal(t, EventBreakFinished, event.Type)
		assert.Equal(t, model.BreakShort, event.BreakType)
	default:
		t.Fatal("expected a break finished event")
	}
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	h := newHarness()
	engine := newEngine(h)
	events := engine.Subscribe(4)

	engine.StartWorkTimer()
	select {
	case event := <-events:
		assert.Equal(t, EventStateChange, event.Type)
		assert.False(t, event.OnBreak)
	default:
		t.Fatal("expected a state change event")
	}
}
