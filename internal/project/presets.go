// Package project persists presets and backups as JSON files.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/GridTray/internal/model"
)

// DefaultPresetsPath returns the default file path for the presets store.
// This is located at ~/.gridtray/presets.json.
func DefaultPresetsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gridtray", "presets.json"), nil
}

// SavePresets writes the preset store to a JSON file.
func SavePresets(path string, store model.PresetStore) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadPresets reads a preset store from a JSON file.
// If the file does not exist, returns an empty store.
func LoadPresets(path string) (model.PresetStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewPresetStore(), nil
		}
		return model.PresetStore{}, err
	}
	var store model.PresetStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.PresetStore{}, err
	}
	if store.Presets == nil {
		store.Presets = []model.Preset{}
	}
	return store, nil
}

// LoadWithBuiltins returns the stored presets followed by any built-in
// preset whose ID is not already taken.
func LoadWithBuiltins(path string) (model.PresetStore, error) {
	store, err := LoadPresets(path)
	if err != nil {
		return store, err
	}
	for _, p := range model.BuiltinPresets() {
		if store.FindByID(p.ID) == nil {
			store.Add(p)
		}
	}
	return store, nil
}
