// Package model defines the data model of the placement engine: routing
// elements, structural hosts, and sleeve openings.
//
// Category, host kind, and opening class are explicit enumerated tags
// carried on every element from ingestion. The engine never infers them
// from family or type names; providers are responsible for tagging
// elements when they load them from the host document or a linked model.
//
// Geometry is stored in source-document coordinates together with the
// affine transform into the host document's coordinate space (identity
// for native elements). The *InHost accessors apply that transform, so
// the resolver and clustering engines always work in one space.
package model

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/openmep/sleever/pkg/geom"
)

// =============================================================================
// Enumerated Tags
// =============================================================================

// Category identifies the MEP discipline of a routing element or opening.
type Category string

// MEP categories handled by the engine.
const (
	CategoryPipe      Category = "pipe"
	CategoryDuct      Category = "duct"
	CategoryCableTray Category = "cable_tray"
	CategoryDamper    Category = "damper"
)

// Categories returns all valid categories in processing order.
func Categories() []Category {
	return []Category{CategoryPipe, CategoryDuct, CategoryCableTray, CategoryDamper}
}

// ParseCategory converts a string tag to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPipe, CategoryDuct, CategoryCableTray, CategoryDamper:
		return Category(s), nil
	}
	return "", fmt.Errorf("invalid category: %q (must be one of: pipe, duct, cable_tray, damper)", s)
}

// HostKind identifies the structural barrier type an opening sits in.
type HostKind string

// Structural host kinds.
const (
	HostWall    HostKind = "wall"
	HostFloor   HostKind = "floor"
	HostFraming HostKind = "framing"
)

// ParseHostKind converts a string tag to a HostKind.
func ParseHostKind(s string) (HostKind, error) {
	switch HostKind(s) {
	case HostWall, HostFloor, HostFraming:
		return HostKind(s), nil
	}
	return "", fmt.Errorf("invalid host kind: %q (must be one of: wall, floor, framing)", s)
}

// IsSlab reports whether hosts of this kind are resolved in bounding-box
// mode. Walls use ray-probe mode instead, since routing elements may hit
// them at arbitrary angles.
func (k HostKind) IsSlab() bool {
	return k == HostFloor || k == HostFraming
}

// OpeningClass distinguishes individual openings from merged cluster openings.
type OpeningClass string

// Opening classes.
const (
	ClassIndividual OpeningClass = "individual"
	ClassCluster    OpeningClass = "cluster"
)

// =============================================================================
// RoutingElement
// =============================================================================

// RoutingElement is a linear MEP element (pipe, duct, cable tray) or point
// equipment (fire damper) that may cross a structural barrier.
//
// Centerline holds the element's path in source-document coordinates. Only
// straight, two-point centerlines are supported by the resolver; elements
// with more points are skipped.
type RoutingElement struct {
	ID         string   `json:"id" bson:"id"`
	Category   Category `json:"category" bson:"category"`
	Centerline []v3.Vec `json:"centerline" bson:"centerline"`

	// Cross-section: Diameter for round sections, Width/Height otherwise.
	Width    float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height   float64 `json:"height,omitempty" bson:"height,omitempty"`
	Diameter float64 `json:"diameter,omitempty" bson:"diameter,omitempty"`

	// Insulation thickness, applied all around the cross-section.
	Insulation float64 `json:"insulation,omitempty" bson:"insulation,omitempty"`

	SourceDoc string `json:"source_doc,omitempty" bson:"source_doc,omitempty"`

	// Transform maps source-document coordinates into the host document's
	// coordinate space. Identity for native elements. Not serialized;
	// providers rebuild it from the link placement on ingestion.
	Transform sdf.M44 `json:"-" bson:"-"`
}

// IsStraight reports whether the centerline is a usable straight segment.
func (e RoutingElement) IsStraight() bool {
	return len(e.Centerline) == 2 && e.Centerline[0].Sub(e.Centerline[1]).Length() > 0
}

// SegmentInHost returns the centerline as a segment in host coordinates.
// ok is false for non-straight or degenerate centerlines.
func (e RoutingElement) SegmentInHost() (geom.Segment, bool) {
	if !e.IsStraight() {
		return geom.Segment{}, false
	}
	seg := geom.Segment{A: e.Centerline[0], B: e.Centerline[1]}
	return seg.Transform(e.Transform), true
}

// CrossSection returns the element's width and height including
// insulation. Round sections report diameter for both axes.
func (e RoutingElement) CrossSection() (w, h float64) {
	if e.Diameter > 0 {
		d := e.Diameter + 2*e.Insulation
		return d, d
	}
	return e.Width + 2*e.Insulation, e.Height + 2*e.Insulation
}

// =============================================================================
// StructuralHost
// =============================================================================

// StructuralHost is a wall, floor, or framing member through which routing
// elements may pass.
//
// Solid carries the host's geometry as a signed distance field when one is
// retrievable; Box is always populated and serves as the fallback and as
// the slab-mode test volume. Both are in source-document coordinates.
type StructuralHost struct {
	ID   string   `json:"id" bson:"id"`
	Kind HostKind `json:"kind" bson:"kind"`

	Solid sdf.SDF3 `json:"-" bson:"-"`
	Box   sdf.Box3 `json:"-" bson:"-"`

	// Thickness is the wall thickness or slab depth attribute.
	Thickness float64 `json:"thickness" bson:"thickness"`

	// Centerline holds the two endpoints of a wall's plan centerline.
	// Empty for slabs.
	Centerline []v3.Vec `json:"centerline,omitempty" bson:"centerline,omitempty"`

	// Level is the elevation of the host's reference level.
	Level float64 `json:"level" bson:"level"`

	SourceDoc string  `json:"source_doc,omitempty" bson:"source_doc,omitempty"`
	Transform sdf.M44 `json:"-" bson:"-"`
}

// BoxInHost returns the host's bounding box in host coordinates.
func (h StructuralHost) BoxInHost() sdf.Box3 {
	return geom.TransformBox(h.Transform, h.Box)
}

// SolidInHost returns the host's solid transformed into host coordinates,
// or nil when no solid is retrievable.
func (h StructuralHost) SolidInHost() sdf.SDF3 {
	if h.Solid == nil {
		return nil
	}
	return sdf.Transform3D(h.Solid, h.Transform)
}

// CenterlineInHost returns the wall centerline as a segment in host
// coordinates. ok is false for slabs and walls without a centerline.
func (h StructuralHost) CenterlineInHost() (geom.Segment, bool) {
	if len(h.Centerline) != 2 {
		return geom.Segment{}, false
	}
	seg := geom.Segment{A: h.Centerline[0], B: h.Centerline[1]}
	return seg.Transform(h.Transform), true
}

// AxisInHost returns the wall's unit axis direction in plan, in host
// coordinates. ok is false for slabs and degenerate centerlines.
func (h StructuralHost) AxisInHost() (v3.Vec, bool) {
	seg, ok := h.CenterlineInHost()
	if !ok {
		return v3.Vec{}, false
	}
	d := v3.Vec{X: seg.B.X - seg.A.X, Y: seg.B.Y - seg.A.Y}
	l := d.Length()
	if l == 0 {
		return v3.Vec{}, false
	}
	return d.DivScalar(l), true
}

// NormalInHost returns the wall's horizontal unit face normal in host
// coordinates. ok is false for slabs.
func (h StructuralHost) NormalInHost() (v3.Vec, bool) {
	axis, ok := h.AxisInHost()
	if !ok {
		return v3.Vec{}, false
	}
	return v3.Vec{X: -axis.Y, Y: axis.X}, true
}

// =============================================================================
// Opening
// =============================================================================

// Opening is a placed sleeve: a placeholder void marking where a routing
// element crosses a structural host. Openings live in host coordinates.
type Opening struct {
	ID       string       `json:"id" bson:"_id"`
	Class    OpeningClass `json:"class" bson:"class"`
	Category Category     `json:"category" bson:"category"`
	HostKind HostKind     `json:"host_kind" bson:"host_kind"`
	HostID   string       `json:"host_id,omitempty" bson:"host_id,omitempty"`

	// Position is the opening's center point.
	Position v3.Vec `json:"position" bson:"position"`

	// Axis is the unit direction the width dimension runs along: the wall
	// axis for wall openings, a plan direction for slab openings.
	Axis v3.Vec `json:"axis" bson:"axis"`

	// Width and Height span the opening face; Depth runs through the host.
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Depth  float64 `json:"depth" bson:"depth"`

	// Level is the elevation of the opening's reference level.
	Level float64 `json:"level" bson:"level"`

	// Extent, when set, pins the opening's bounding box to an explicit
	// geometry. Merged openings whose recorded width/height pair was
	// reoriented for template selection carry the member-derived union
	// here so Box stays true to what the opening actually covers.
	Extent *sdf.Box3 `json:"extent,omitempty" bson:"extent,omitempty"`
}

// orientationQuantum is the angular bucket size, in degrees, used to tag
// opening orientations for cluster grouping.
const orientationQuantum = 1.0

// OrientationTag returns a quantized tag for the opening's axis direction.
// Openings whose axes differ by less than the quantum - or point in exactly
// opposite directions - share a tag, so they may cluster together.
func (o Opening) OrientationTag() string {
	deg := math.Atan2(o.Axis.Y, o.Axis.X) * 180 / math.Pi
	// Fold opposite directions together: an opening axis has no sign.
	deg = math.Mod(deg+360, 180)
	q := int(math.Round(deg/orientationQuantum)) % 180
	return fmt.Sprintf("a%03d", q)
}

// IsWall reports whether the opening sits in a wall-kind host.
func (o Opening) IsWall() bool { return o.HostKind == HostWall }

// Box returns the opening's axis-aligned bounding box in host coordinates.
//
// Wall openings span Width along the wall axis, Height vertically, and
// Depth along the wall normal. Slab openings span Width and Height in
// plan and Depth vertically. For walls not aligned with a world axis the
// box is the AABB of the oriented extents. An explicit Extent overrides
// the derivation.
func (o Opening) Box() sdf.Box3 {
	if o.Extent != nil {
		return *o.Extent
	}
	ax := o.Axis
	if ax.Length() == 0 {
		ax = v3.Vec{X: 1}
	} else {
		ax = ax.DivScalar(ax.Length())
	}
	perp := v3.Vec{X: -ax.Y, Y: ax.X}

	var half v3.Vec
	if o.IsWall() {
		half = v3.Vec{
			X: math.Abs(ax.X)*o.Width/2 + math.Abs(perp.X)*o.Depth/2,
			Y: math.Abs(ax.Y)*o.Width/2 + math.Abs(perp.Y)*o.Depth/2,
			Z: o.Height / 2,
		}
	} else {
		half = v3.Vec{
			X: math.Abs(ax.X)*o.Width/2 + math.Abs(perp.X)*o.Height/2,
			Y: math.Abs(ax.Y)*o.Width/2 + math.Abs(perp.Y)*o.Height/2,
			Z: o.Depth / 2,
		}
	}
	return geom.BoxAround(o.Position, half)
}
