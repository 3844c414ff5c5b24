package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbreak/internal/core/model"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings, err := Load("WorkBreakTest")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings := DefaultSettings()
	settings.WorkThreshold = 50 * time.Minute
	settings.NotificationsEnabled = false
	settings.Breaks = model.BreakCatalog{
		{Key: model.BreakShort, Minutes: 3, Label: "Micro break"},
		{Key: model.BreakLong, Minutes: 45, Label: "Lunch"},
	}
	require.NoError(t, Save("WorkBreakTest", settings))

	loaded, err := Load("WorkBreakTest")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, loaded.WorkThreshold)
	assert.False(t, loaded.NotificationsEnabled)
	assert.Equal(t, settings.Breaks, loaded.Breaks)
}

func TestLoadIgnoresOutOfRangeThreshold(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings := DefaultSettings()
	settings.WorkThreshold = 200 * time.Minute
	require.NoError(t, Save("WorkBreakTest", settings))

	loaded, err := Load("WorkBreakTest")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWorkThreshold, loaded.WorkThreshold)
}

func TestUpdateCatalogRepairsEntries(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store := NewStore("WorkBreakTest", DefaultSettings())
	require.NoError(t, store.UpdateCatalog(model.BreakCatalog{
		{Key: "espresso", Minutes: 500, Label: "<b>Huge</b> break"},
	}))

	breaks := store.Settings().Breaks
	require.Len(t, breaks, 1)
	assert.Equal(t, model.BreakShort, breaks[0].Key)
	assert.Equal(t, model.DefaultBreakMinutes, breaks[0].Minutes)
	assert.Equal(t, "bHuge/b break", breaks[0].Label)
}
