package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/GridTray/internal/model"
)

func TestExportAndImportBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "backup.json")

	store := model.NewPresetStore()
	for _, p := range model.BuiltinPresets()[:2] {
		store.Add(p)
	}

	if err := ExportBackup(path, store); err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}

	backup, err := ImportBackup(path)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if len(backup.Presets) != 2 || backup.Presets[1].ID != "gf-2x1" {
		t.Errorf("unexpected presets %+v", backup.Presets)
	}
}

func TestImportBackupMissingFile(t *testing.T) {
	if _, err := ImportBackup(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportBackupInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBackup(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportBackupMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"presets": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBackup(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestImportBackupRejectsInvalidPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.json")
	data := `{"version":"1.0.0","presets":[{"id":"x","name":"Broken","config":{"columns":0,"rows":1,"cell_size":42,"wall_thickness":2,"height":12}}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportBackup(path)
	if !errors.Is(err, model.ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestBackupMerge(t *testing.T) {
	store := model.NewPresetStore()
	store.Add(model.Preset{ID: "a", Name: "Old A", Config: model.DefaultTrayConfig()})
	store.Add(model.Preset{ID: "b", Name: "B", Config: model.DefaultTrayConfig()})

	backup := BackupData{Version: BackupVersion, Presets: []model.Preset{
		{ID: "a", Name: "New A", Config: model.DefaultTrayConfig()},
		{ID: "c", Name: "C", Config: model.DefaultTrayConfig()},
	}}

	if n := backup.Merge(&store); n != 2 {
		t.Errorf("expected 2 merged, got %d", n)
	}
	if len(store.Presets) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(store.Presets))
	}
	if p := store.FindByID("a"); p == nil || p.Name != "New A" {
		t.Errorf("expected replaced preset, got %+v", p)
	}
}
