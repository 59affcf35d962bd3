package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/piwi3910/GridTray/internal/model"
)

// PreviewMargin is the blank border around the tray in the SVG preview, in mm.
const PreviewMargin = 5.0

// Preview stroke styling. Walls are darker than cells so the outline reads at
// a glance in the browser.
const (
	outerStroke = "#333333"
	cellStroke  = "#2196f3"
	postStroke  = "#ff9800"
	outerWidth  = 0.6
	cellWidth   = 0.3
)

// SVG renders a top view of the tray. One document unit is one millimetre:
// the viewBox starts at (-PreviewMargin, -PreviewMargin) so the outer
// rectangle sits at the origin, and width/height carry the mm suffix.
func SVG(g model.TrayGeometry) string {
	f := model.FormatMM
	w := g.OuterWidth + 2*PreviewMargin
	h := g.OuterHeight + 2*PreviewMargin

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%smm" height="%smm" viewBox="%s %s %s %s">`+"\n",
		f(w), f(h), f(-PreviewMargin), f(-PreviewMargin), f(w), f(h))
	fmt.Fprintf(&b, "<title>%s</title>\n", g.Config.FileStem())

	fmt.Fprintf(&b, `<rect x="0" y="0" width="%s" height="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
		f(g.OuterWidth), f(g.OuterHeight), outerStroke, f(outerWidth))

	b.WriteString(`<g id="cells" fill="none" stroke="` + cellStroke + `" stroke-width="` + f(cellWidth) + `">` + "\n")
	for _, c := range g.Cells {
		cav := g.Cavity(c)
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			f(cav.X), f(cav.Y), f(cav.Width), f(cav.Height))
	}
	b.WriteString("</g>\n")

	if len(g.Posts) > 0 {
		b.WriteString(`<g id="posts" fill="none" stroke="` + postStroke + `" stroke-width="` + f(cellWidth) + `">` + "\n")
		for _, p := range g.Posts {
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s"/>`+"\n", f(p.Center.X), f(p.Center.Y), f(p.Radius))
		}
		b.WriteString("</g>\n")
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// plateGap separates plates drawn side by side in PlatesSVG, in mm.
const plateGap = 20.0

// PlatesSVG draws every plate of a plan left to right, each as the bed
// outline with its tray footprints. Y grows downwards as in the preview.
func PlatesSVG(plan model.PlatePlan) string {
	f := model.FormatMM
	n := float64(len(plan.Plates))
	w := n*plan.Bed.Width + max(n-1, 0)*plateGap + 2*PreviewMargin
	h := plan.Bed.Depth + 2*PreviewMargin

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%smm" height="%smm" viewBox="%s %s %s %s">`+"\n",
		f(w), f(h), f(-PreviewMargin), f(-PreviewMargin), f(w), f(h))
	for i, plate := range plan.Plates {
		ox := float64(i) * (plan.Bed.Width + plateGap)
		fmt.Fprintf(&b, `<g id="plate-%d" transform="translate(%s 0)">`+"\n", i+1, f(ox))
		fmt.Fprintf(&b, `<rect x="0" y="0" width="%s" height="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
			f(plan.Bed.Width), f(plan.Bed.Depth), outerStroke, f(outerWidth))
		for _, it := range plate.Items {
			fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="%s"><title>%s</title></rect>`+"\n",
				f(it.X), f(it.Y), f(it.Width), f(it.Height), cellStroke, f(cellWidth), html.EscapeString(it.Name))
		}
		b.WriteString("</g>\n")
	}
	b.WriteString("</svg>\n")
	return b.String()
}
