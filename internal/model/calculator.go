package model

import "math"

// PrintEstimate holds the material needed to print one tray.
type PrintEstimate struct {
	SolidVolume   float64 `json:"solid_volume"`   // Outer block (cu mm)
	CavityVolume  float64 `json:"cavity_volume"`  // Removed by the pockets (cu mm)
	FeatureVolume float64 `json:"feature_volume"` // Ribs and posts added back (cu mm)
	Volume        float64 `json:"volume"`         // Net printed volume (cu mm)
	MassGrams     float64 `json:"mass_grams"`     // Volume * density
	Density       float64 `json:"density"`        // g/cu cm
	PricePerKg    float64 `json:"price_per_kg"`   // Filament price used for estimation
	EstimatedCost float64 `json:"estimated_cost"` // MassGrams/1000 * PricePerKg
}

// DefaultDensity is the density of PLA in g/cu cm.
const DefaultDensity = 1.24

// cuMMPerCuCM converts cubic millimeters to cubic centimeters.
const cuMMPerCuCM = 1000.0

// EstimatePrint computes the printed volume, mass and filament cost of a tray.
// Rib crossings are counted once per direction, which slightly overstates the
// volume when the floor grid is enabled.
func EstimatePrint(g TrayGeometry, density, pricePerKg float64) PrintEstimate {
	solid := g.OuterWidth * g.OuterHeight * g.Height

	var cavity float64
	depth := g.CavityDepth()
	for _, c := range g.Cells {
		cavity += g.Cavity(c).Area() * depth
	}

	var features float64
	for _, r := range g.Ribs {
		features += r.Area() * g.Config.FloorGrid.Height
	}
	for _, p := range g.Posts {
		features += math.Pi * p.Radius * p.Radius * g.Config.Posts.Height
	}

	volume := solid - cavity + features
	if volume < 0 {
		volume = 0
	}
	mass := volume / cuMMPerCuCM * density

	return PrintEstimate{
		SolidVolume:   solid,
		CavityVolume:  cavity,
		FeatureVolume: features,
		Volume:        volume,
		MassGrams:     mass,
		Density:       density,
		PricePerKg:    pricePerKg,
		EstimatedCost: mass / 1000.0 * pricePerKg,
	}
}
