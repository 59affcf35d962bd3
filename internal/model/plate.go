package model

// Bed is the usable area of the printer's build plate.
type Bed struct {
	Width   float64 `json:"width" yaml:"width" env:"WIDTH"`       // mm
	Depth   float64 `json:"depth" yaml:"depth" env:"DEPTH"`       // mm
	Spacing float64 `json:"spacing" yaml:"spacing" env:"SPACING"` // Gap kept between trays (mm)
}

// DefaultBed returns a common 220 x 220 mm bed with a 5 mm gap.
func DefaultBed() Bed {
	return Bed{Width: 220, Depth: 220, Spacing: 5}
}

// PlateItem is a tray footprint placed on a plate.
type PlateItem struct {
	Name    string `json:"name"`
	Rotated bool   `json:"rotated"` // Footprint turned by 90 degrees
	Rect
}

// Plate is one print job.
type Plate struct {
	Items []PlateItem `json:"items"`
}

// UsedArea returns the total footprint area of the plate's trays.
func (p Plate) UsedArea() float64 {
	var a float64
	for _, it := range p.Items {
		a += it.Area()
	}
	return a
}

// PlatePlan distributes a batch of trays over as few plates as the packer
// manages.
type PlatePlan struct {
	Bed      Bed      `json:"bed"`
	Plates   []Plate  `json:"plates"`
	Unplaced []string `json:"unplaced,omitempty"` // Trays larger than the bed
}

// Efficiency returns the used fraction of one plate's area.
func (pp PlatePlan) Efficiency(i int) float64 {
	total := pp.Bed.Width * pp.Bed.Depth
	if total <= 0 || i < 0 || i >= len(pp.Plates) {
		return 0
	}
	return pp.Plates[i].UsedArea() / total
}
