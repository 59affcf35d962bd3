package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/GridTray/internal/model"
)

// eps absorbs floating point noise when comparing edges.
const eps = 0.001

// PlanPlates packs the outer footprints of trays onto print beds, opening a
// new plate whenever the current one is full. Trays are placed largest first
// with a best-area-fit heuristic and may be turned by 90 degrees. Every tray
// is validated first; trays that fit the bed in neither orientation are
// reported in Unplaced.
func PlanPlates(trays []model.NamedTray, bed model.Bed) (model.PlatePlan, error) {
	if bed.Width <= 0 || bed.Depth <= 0 {
		return model.PlatePlan{}, fmt.Errorf("bed must have a positive size, got %s x %s mm",
			model.FormatMM(bed.Width), model.FormatMM(bed.Depth))
	}
	if bed.Spacing < 0 {
		return model.PlatePlan{}, fmt.Errorf("bed spacing must not be negative")
	}

	type piece struct {
		name string
		w, h float64
	}
	pieces := make([]piece, 0, len(trays))
	for _, t := range trays {
		g, err := ComputeGeometry(t.Config)
		if err != nil {
			return model.PlatePlan{}, fmt.Errorf("tray %q: %w", t.Name, err)
		}
		name := t.Name
		if name == "" {
			name = t.Config.FileStem()
		}
		pieces = append(pieces, piece{name: name, w: g.OuterWidth, h: g.OuterHeight})
	}

	// Largest first packs better.
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].w*pieces[i].h > pieces[j].w*pieces[j].h
	})

	plan := model.PlatePlan{Bed: bed}
	remaining := pieces[:0:0]
	for _, p := range pieces {
		if fits(p.w, p.h, bed) || fits(p.h, p.w, bed) {
			remaining = append(remaining, p)
		} else {
			plan.Unplaced = append(plan.Unplaced, p.name)
		}
	}

	for len(remaining) > 0 {
		// The bed grows by one gap so a tray may touch the far edges.
		packer := newPacker(bed.Width+bed.Spacing, bed.Depth+bed.Spacing, bed.Spacing)
		var plate model.Plate
		var next []piece
		for _, p := range remaining {
			rotated := false
			fit := packer.bestFit(p.w, p.h)
			if alt := packer.bestFit(p.h, p.w); alt >= 0 && (fit < 0 || alt < fit) {
				rotated = true
			}
			w, h := p.w, p.h
			if rotated {
				w, h = h, w
			}
			ok, x, y := packer.insert(w, h)
			if !ok {
				next = append(next, p)
				continue
			}
			plate.Items = append(plate.Items, model.PlateItem{
				Name:    p.name,
				Rotated: rotated,
				Rect:    model.Rect{X: x, Y: y, Width: w, Height: h},
			})
		}
		if len(plate.Items) == 0 {
			// Cannot happen for pieces that fit an empty bed.
			break
		}
		plan.Plates = append(plan.Plates, plate)
		remaining = next
	}
	return plan, nil
}

func fits(w, h float64, bed model.Bed) bool {
	return w <= bed.Width+eps && h <= bed.Depth+eps
}

// packer keeps the maximal free rectangles of one plate. Each placement
// reserves its footprint plus the gap on the right and top.
type packer struct {
	free []rect
	gap  float64
}

type rect struct {
	x, y, w, h float64
}

func newPacker(width, height, gap float64) *packer {
	return &packer{free: []rect{{0, 0, width, height}}, gap: gap}
}

// insert places a w x h footprint in the free rectangle that leaves the
// least area over.
func (p *packer) insert(w, h float64) (bool, float64, float64) {
	best := -1
	bestFit := -1.0
	wg, hg := w+p.gap, h+p.gap
	for i, r := range p.free {
		if wg <= r.w+eps && hg <= r.h+eps {
			fit := r.w*r.h - w*h
			if best < 0 || fit < bestFit {
				best, bestFit = i, fit
			}
		}
	}
	if best < 0 {
		return false, 0, 0
	}

	x, y := p.free[best].x, p.free[best].y
	p.split(rect{x: x, y: y, w: wg, h: hg})
	return true, x, y
}

// bestFit returns the leftover area insert would choose, or -1.
func (p *packer) bestFit(w, h float64) float64 {
	best := -1.0
	wg, hg := w+p.gap, h+p.gap
	for _, r := range p.free {
		if wg <= r.w+eps && hg <= r.h+eps {
			if fit := r.w*r.h - w*h; best < 0 || fit < best {
				best = fit
			}
		}
	}
	return best
}

// split replaces every free rectangle overlapping placed by its maximal
// remainders on each side.
func (p *packer) split(placed rect) {
	var out []rect
	for _, r := range p.free {
		if !overlaps(r, placed) {
			out = append(out, r)
			continue
		}
		if placed.x > r.x+eps {
			out = append(out, rect{r.x, r.y, placed.x - r.x, r.h})
		}
		if placed.x+placed.w < r.x+r.w-eps {
			out = append(out, rect{placed.x + placed.w, r.y, r.x + r.w - placed.x - placed.w, r.h})
		}
		if placed.y > r.y+eps {
			out = append(out, rect{r.x, r.y, r.w, placed.y - r.y})
		}
		if placed.y+placed.h < r.y+r.h-eps {
			out = append(out, rect{r.x, placed.y + placed.h, r.w, r.y + r.h - placed.y - placed.h})
		}
	}
	p.free = prune(out)
}

func overlaps(a, b rect) bool {
	return a.x < b.x+b.w-eps && a.x+a.w > b.x+eps &&
		a.y < b.y+b.h-eps && a.y+a.h > b.y+eps
}

// prune drops rectangles contained in another. Of two identical rectangles
// the first is kept.
func prune(rects []rect) []rect {
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !contains(b, a) {
				continue
			}
			if !contains(a, b) || j < i {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

func contains(outer, inner rect) bool {
	return outer.x <= inner.x+eps && outer.y <= inner.y+eps &&
		outer.x+outer.w >= inner.x+inner.w-eps &&
		outer.y+outer.h >= inner.y+inner.h-eps
}
