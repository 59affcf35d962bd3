package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/GridTray/internal/model"
)

// BackupVersion is written into every backup envelope.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of presets.
type BackupData struct {
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	Presets   []model.Preset `json:"presets"`
}

// ExportBackup writes all presets to a single JSON file at the specified path.
func ExportBackup(exportPath string, store model.PresetStore) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Presets:   store.Presets,
	}
	if backup.Presets == nil {
		backup.Presets = []model.Preset{}
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportBackup reads a backup JSON file and returns the contained data.
// Presets with an invalid configuration are rejected.
func ImportBackup(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Presets == nil {
		backup.Presets = []model.Preset{}
	}
	for _, p := range backup.Presets {
		if err := p.Config.Validate(); err != nil {
			return BackupData{}, fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	return backup, nil
}

// Merge adds the backup's presets to store, replacing presets with the same
// ID. It returns the number of presets added or replaced.
func (b BackupData) Merge(store *model.PresetStore) int {
	for _, p := range b.Presets {
		store.Remove(p.ID)
		store.Add(p)
	}
	return len(b.Presets)
}
