// Package render draws plan-view SVG previews of placed openings.
//
// The output is a top-down view of one document: structural hosts as
// muted outlines, openings as filled rectangles colored by class.
// Hovering an opening highlights it and shows its id. The SVG is
// self-contained and needs no external assets.
package render

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
)

const openingInteractionCSS = `
    .opening { transition: stroke-width 0.2s ease; }
    .opening:hover { stroke-width: 3; }
    .opening.individual { fill: #2aa198; stroke: #1f7a72; }
    .opening.cluster { fill: #b58900; stroke: #8a6800; }
    .host { fill: #eee8d5; stroke: #93a1a1; stroke-width: 1; }
    .label { font: 11px sans-serif; fill: #586e75; }
    .title { font: bold 14px sans-serif; fill: #073642; }`

const margin = 24.0

type PlanOption func(*planRenderer)

type planRenderer struct {
	hosts []model.StructuralHost
	scale float64
	title string
}

// WithHosts adds host footprints behind the openings.
func WithHosts(hosts []model.StructuralHost) PlanOption {
	return func(r *planRenderer) { r.hosts = hosts }
}

// WithScale sets the pixels drawn per internal unit. Zero keeps the default.
func WithScale(pxPerUnit float64) PlanOption {
	return func(r *planRenderer) {
		if pxPerUnit > 0 {
			r.scale = pxPerUnit
		}
	}
}

// WithTitle adds a heading to the drawing.
func WithTitle(title string) PlanOption {
	return func(r *planRenderer) { r.title = title }
}

// RenderPlanSVG renders the plan view of the given openings.
func RenderPlanSVG(openings []model.Opening, opts ...PlanOption) []byte {
	r := newPlanRenderer(opts...)

	// Stable draw order regardless of store iteration order.
	sorted := slices.Clone(openings)
	slices.SortFunc(sorted, func(a, b model.Opening) int {
		return cmp.Compare(a.ID, b.ID)
	})

	bounds := r.bounds(sorted)
	size := geom.Size(bounds)
	width := size.X*r.scale + 2*margin
	height := size.Y*r.scale + 2*margin
	if r.title != "" {
		height += 20
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", openingInteractionCSS)

	if r.title != "" {
		fmt.Fprintf(&buf, "  <text class=\"title\" x=\"%.1f\" y=\"16\">%s</text>\n", margin, r.title)
	}

	for _, h := range r.hosts {
		r.renderHost(&buf, bounds, h)
	}
	for _, o := range sorted {
		r.renderOpening(&buf, bounds, o)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newPlanRenderer(opts ...PlanOption) planRenderer {
	r := planRenderer{scale: 0.05}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// bounds is the plan extent of everything drawn.
func (r *planRenderer) bounds(openings []model.Opening) sdf.Box3 {
	var box sdf.Box3
	first := true
	for _, h := range r.hosts {
		b := h.BoxInHost()
		if first {
			box, first = b, false
			continue
		}
		box = geom.Union(box, b)
	}
	for _, o := range openings {
		b := o.Box()
		if first {
			box, first = b, false
			continue
		}
		box = geom.Union(box, b)
	}
	if first {
		return sdf.Box3{Max: v3.Vec{X: 1000, Y: 1000, Z: 1000}}
	}
	return box
}

// project maps a plan rectangle from world to drawing coordinates,
// flipping Y so north is up.
func (r *planRenderer) project(bounds sdf.Box3, b sdf.Box3) (x, y, w, h float64) {
	offsetY := 0.0
	if r.title != "" {
		offsetY = 20
	}
	x = (b.Min.X-bounds.Min.X)*r.scale + margin
	y = (bounds.Max.Y-b.Max.Y)*r.scale + margin + offsetY
	w = (b.Max.X - b.Min.X) * r.scale
	h = (b.Max.Y - b.Min.Y) * r.scale
	return x, y, w, h
}

func (r *planRenderer) renderHost(buf *bytes.Buffer, bounds sdf.Box3, host model.StructuralHost) {
	x, y, w, h := r.project(bounds, host.BoxInHost())
	fmt.Fprintf(buf, "  <rect class=\"host\" x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\"><title>%s (%s)</title></rect>\n",
		x, y, w, h, host.ID, host.Kind)
}

func (r *planRenderer) renderOpening(buf *bytes.Buffer, bounds sdf.Box3, o model.Opening) {
	x, y, w, h := r.project(bounds, o.Box())
	fmt.Fprintf(buf, "  <rect class=\"opening %s\" id=\"opening-%s\" x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\"><title>%s %s %.0fx%.0f</title></rect>\n",
		o.Class, o.ID, x, y, w, h, o.Class, o.Category, o.Width, o.Height)
}
