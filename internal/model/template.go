package model

import (
	"time"

	"github.com/google/uuid"
)

// Preset is a named, reusable tray configuration.
type Preset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
	Config      TrayConfig `json:"config"`
}

// NewPreset creates a preset with a fresh ID and timestamps.
func NewPreset(name, description string, cfg TrayConfig) Preset {
	now := time.Now().UTC().Format(time.RFC3339)
	return Preset{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Config:      cfg,
	}
}

// Named returns the preset as a NamedTray.
func (p Preset) Named() NamedTray {
	return NamedTray{Name: p.Name, Config: p.Config}
}

// BuiltinPresets returns the standard Gridfinity bin footprints.
func BuiltinPresets() []Preset {
	gf := func(cols, rows int, height float64) TrayConfig {
		cfg := DefaultTrayConfig()
		cfg.Columns = cols
		cfg.Rows = rows
		cfg.Height = height
		return cfg
	}
	return []Preset{
		{ID: "gf-1x1", Name: "Gridfinity 1x1", Description: "Single 42 mm cell", Config: gf(1, 1, 21)},
		{ID: "gf-2x1", Name: "Gridfinity 2x1", Description: "Two 42 mm cells side by side", Config: gf(2, 1, 21)},
		{ID: "gf-2x2", Name: "Gridfinity 2x2", Description: "Square 2x2 bin", Config: gf(2, 2, 21)},
		{ID: "gf-3x2", Name: "Gridfinity 3x2", Description: "Drawer tray, 3x2 cells", Config: gf(3, 2, 12)},
		{ID: "gf-4x4", Name: "Gridfinity 4x4 shallow", Description: "Shallow parts tray", Config: gf(4, 4, 7)},
	}
}

// PresetStore holds a collection of presets.
type PresetStore struct {
	Presets []Preset `json:"presets"`
}

// NewPresetStore creates an empty store.
func NewPresetStore() PresetStore {
	return PresetStore{Presets: []Preset{}}
}

// Add appends a preset to the store.
func (ps *PresetStore) Add(p Preset) {
	ps.Presets = append(ps.Presets, p)
}

// Remove deletes a preset by ID. Returns true if found and removed.
func (ps *PresetStore) Remove(id string) bool {
	for i, p := range ps.Presets {
		if p.ID == id {
			ps.Presets = append(ps.Presets[:i], ps.Presets[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the preset with the given ID, or nil.
func (ps *PresetStore) FindByID(id string) *Preset {
	for i := range ps.Presets {
		if ps.Presets[i].ID == id {
			return &ps.Presets[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first preset with the given name, or nil.
func (ps *PresetStore) FindByName(name string) *Preset {
	for i := range ps.Presets {
		if ps.Presets[i].Name == name {
			return &ps.Presets[i]
		}
	}
	return nil
}

// Lookup resolves a preset by ID first, then by name.
func (ps *PresetStore) Lookup(key string) *Preset {
	if p := ps.FindByID(key); p != nil {
		return p
	}
	return ps.FindByName(key)
}

// Names returns the preset names in store order.
func (ps *PresetStore) Names() []string {
	names := make([]string, len(ps.Presets))
	for i, p := range ps.Presets {
		names[i] = p.Name
	}
	return names
}
