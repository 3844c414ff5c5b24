package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"workbreak/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WorkThresholdMinutes       int                  `yaml:"work_threshold_minutes"`
	InactivityThresholdMinutes int                  `yaml:"inactivity_threshold_minutes"`
	NotificationsEnabled       *bool                `yaml:"notifications_enabled"`
	NotificationCooldownMin    int                  `yaml:"notification_cooldown_minutes"`
	Breaks                     []model.CatalogEntry `yaml:"breaks"`
	ControlAPIEnabled          *bool                `yaml:"control_api_enabled"`
}

// Load reads user preferences from YAML. If the config file does not
// exist, default settings are returned.
func Load(appName string) (Settings, error) {
	settings := DefaultSettings()
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return settings, err
	}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// Save writes user preferences to YAML.
func Save(appName string, settings Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	notifications := settings.NotificationsEnabled
	controlAPI := settings.ControlAPIEnabled
	fileData := yamlSettings{
		WorkThresholdMinutes:       int(settings.WorkThreshold / time.Minute),
		InactivityThresholdMinutes: int(settings.InactivityThreshold / time.Minute),
		NotificationsEnabled:       &notifications,
		NotificationCooldownMin:    int(settings.NotificationCooldown / time.Minute),
		Breaks:                     settings.Breaks,
		ControlAPIEnabled:          &controlAPI,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *Settings, fileData yamlSettings) {
	threshold := time.Duration(fileData.WorkThresholdMinutes) * time.Minute
	if threshold >= model.MinWorkThreshold && threshold <= model.MaxWorkThreshold {
		settings.WorkThreshold = threshold
	}
	if fileData.InactivityThresholdMinutes > 0 {
		settings.InactivityThreshold = time.Duration(fileData.InactivityThresholdMinutes) * time.Minute
	}
	if fileData.NotificationCooldownMin > 0 {
		settings.NotificationCooldown = time.Duration(fileData.NotificationCooldownMin) * time.Minute
	}
	if fileData.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *fileData.NotificationsEnabled
	}
	if fileData.ControlAPIEnabled != nil {
		settings.ControlAPIEnabled = *fileData.ControlAPIEnabled
	}
	if len(fileData.Breaks) > 0 {
		settings.Breaks = fileData.Breaks
	}
}
