package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

const (
	settingsKey = "settings"
	progressKey = "progress"
)

var _ SettingsRepository = (*settingsRepository)(nil)

type settingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository backed by the
// records table.
func NewSettingsRepository(db *DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSettings() (*Settings, error) {
	settings := DefaultSettings()
	found, err := r.getRecord(settingsKey, settings)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	return settings, nil
}

func (r *settingsRepository) SaveSettings(settings *Settings) error {
	return r.setRecord(settingsKey, settings)
}

func (r *settingsRepository) GetProgress() (*Progress, error) {
	var progress Progress
	found, err := r.getRecord(progressKey, &progress)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Progress{}, nil
	}
	return &progress, nil
}

func (r *settingsRepository) SaveProgress(progress *Progress) error {
	return r.setRecord(progressKey, progress)
}

// AcquireRun flips isProcessing from false to true inside a transaction.
// Returns false if a run is already active.
func (r *settingsRepository) AcquireRun() (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settings := DefaultSettings()
	var value string
	err = tx.QueryRow(`SELECT value FROM records WHERE key = ?`, settingsKey).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read settings: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal([]byte(value), settings); err != nil {
			return false, fmt.Errorf("failed to parse settings: %w", err)
		}
	}

	if settings.IsProcessing {
		return false, nil
	}

	settings.IsProcessing = true
	data, err := json.Marshal(settings)
	if err != nil {
		return false, fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, settingsKey, string(data))
	if err != nil {
		return false, fmt.Errorf("failed to write settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}

	return true, nil
}

func (r *settingsRepository) ReleaseRun() error {
	return r.updateSettings(func(s *Settings) {
		s.IsProcessing = false
	})
}

func (r *settingsRepository) SetInitialized(initialized bool) error {
	return r.updateSettings(func(s *Settings) {
		s.IsInitialized = initialized
	})
}

func (r *settingsRepository) updateSettings(mutate func(*Settings)) error {
	settings, err := r.GetSettings()
	if err != nil {
		return err
	}
	mutate(settings)
	return r.SaveSettings(settings)
}

func (r *settingsRepository) getRecord(key string, out interface{}) (bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read record %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("failed to parse record %s: %w", key, err)
	}

	return true, nil
}

func (r *settingsRepository) setRecord(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}

	return nil
}
