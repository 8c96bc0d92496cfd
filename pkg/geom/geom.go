// Package geom provides the geometric primitives the placement engine is
// built on: affine transform composition, bounding-box algebra, segment
// projection, and line-solid intersection.
//
// Solids are represented as signed distance fields ([sdf.SDF3] from
// github.com/deadsy/sdfx), points as [v3.Vec], boxes as [sdf.Box3], and
// affine transforms as [sdf.M44]. Surface crossings are found by sampling
// the distance field along a segment and bisecting sign changes, so no
// explicit face representation is required.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// =============================================================================
// Transforms
// =============================================================================

// Identity returns the identity affine transform. Elements native to the
// host document carry this as their coordinate transform.
func Identity() sdf.M44 {
	return sdf.Translate3d(v3.Vec{})
}

// Compose returns the affine transform that applies b first, then a.
// Use it to fold a linked document's transform into the host space:
// Compose(hostFromLink, localFromElement).
func Compose(a, b sdf.M44) sdf.M44 {
	return a.Mul(b)
}

// TransformPoint applies m to p.
func TransformPoint(m sdf.M44, p v3.Vec) v3.Vec {
	return m.MulPosition(p)
}

// TransformBox applies m to all eight corners of b and returns the
// axis-aligned bounding box of the result. For rotated transforms the
// returned box is the tightest AABB of the transformed corners, not a
// rotated box.
func TransformBox(m sdf.M44, b sdf.Box3) sdf.Box3 {
	corners := [8]v3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	out := sdf.Box3{Min: m.MulPosition(corners[0]), Max: m.MulPosition(corners[0])}
	for _, c := range corners[1:] {
		p := m.MulPosition(c)
		out.Min = componentMin(out.Min, p)
		out.Max = componentMax(out.Max, p)
	}
	return out
}

// =============================================================================
// Bounding-Box Algebra
// =============================================================================

// Expand grows b by d on every side. Negative d shrinks the box; callers
// are responsible for not shrinking past degeneracy.
func Expand(b sdf.Box3, d float64) sdf.Box3 {
	off := v3.Vec{X: d, Y: d, Z: d}
	return sdf.Box3{Min: b.Min.Sub(off), Max: b.Max.Add(off)}
}

// Contains reports whether p lies inside b. The test is inclusive: points
// exactly on a face count as contained.
func Contains(b sdf.Box3, p v3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsExpanded reports whether p lies inside b grown by d on all sides.
func ContainsExpanded(b sdf.Box3, p v3.Vec, d float64) bool {
	return Contains(Expand(b, d), p)
}

// Union returns the smallest box containing both a and b.
func Union(a, b sdf.Box3) sdf.Box3 {
	return sdf.Box3{Min: componentMin(a.Min, b.Min), Max: componentMax(a.Max, b.Max)}
}

// Center returns the midpoint of b.
func Center(b sdf.Box3) v3.Vec {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Size returns the per-axis extents of b.
func Size(b sdf.Box3) v3.Vec {
	return b.Max.Sub(b.Min)
}

// BoxAround returns the axis-aligned box centered at p with the given
// half-extents per axis.
func BoxAround(p v3.Vec, half v3.Vec) sdf.Box3 {
	return sdf.Box3{Min: p.Sub(half), Max: p.Add(half)}
}

func componentMin(a, b v3.Vec) v3.Vec {
	return v3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func componentMax(a, b v3.Vec) v3.Vec {
	return v3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// =============================================================================
// Segments
// =============================================================================

// Segment is a finite straight line between two points.
type Segment struct {
	A, B v3.Vec
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Length()
}

// Direction returns the unit direction from A to B, and false for a
// degenerate (zero-length) segment.
func (s Segment) Direction() (v3.Vec, bool) {
	d := s.B.Sub(s.A)
	l := d.Length()
	if l == 0 {
		return v3.Vec{}, false
	}
	return d.DivScalar(l), true
}

// PointAt returns the point at parameter t, with t=0 at A and t=1 at B.
// t is not clamped.
func (s Segment) PointAt(t float64) v3.Vec {
	return s.A.Add(s.B.Sub(s.A).MulScalar(t))
}

// ClampProject returns the point on the segment closest to p, together
// with its clamped parameter in [0,1]. A degenerate segment projects
// everything onto A.
func (s Segment) ClampProject(p v3.Vec) (v3.Vec, float64) {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.A, 0
	}
	t := p.Sub(s.A).Dot(d) / l2
	t = math.Max(0, math.Min(1, t))
	return s.PointAt(t), t
}

// Transform applies m to both endpoints.
func (s Segment) Transform(m sdf.M44) Segment {
	return Segment{A: m.MulPosition(s.A), B: m.MulPosition(s.B)}
}

// PlanarDistance returns the distance between a and b ignoring elevation.
func PlanarDistance(a, b v3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// InPlanePerpendicular returns the horizontal unit vector perpendicular to
// d, and false if d is (near) vertical so no unique in-plane perpendicular
// exists.
func InPlanePerpendicular(d v3.Vec) (v3.Vec, bool) {
	p := v3.Vec{X: -d.Y, Y: d.X}
	l := p.Length()
	if l < 1e-9 {
		return v3.Vec{}, false
	}
	return p.DivScalar(l), true
}

// =============================================================================
// Line-Solid Intersection
// =============================================================================

// surfaceEps is the distance-field magnitude below which a point counts as
// lying on a solid's surface.
const surfaceEps = 1e-7

// crossingSteps is the number of uniform samples taken along a segment
// when scanning for sign changes of the distance field.
const crossingSteps = 256

// SegmentSolidCrossings returns every point where the segment crosses the
// surface of s, ordered by parameter along the segment. A nil solid yields
// no crossings; callers treat that host as non-intersecting and continue.
func SegmentSolidCrossings(s sdf.SDF3, seg Segment) []v3.Vec {
	if s == nil {
		return nil
	}
	length := seg.Length()
	if length == 0 {
		return nil
	}

	var out []v3.Vec
	prevT := 0.0
	prevD := s.Evaluate(seg.PointAt(0))
	for i := 1; i <= crossingSteps; i++ {
		t := float64(i) / crossingSteps
		d := s.Evaluate(seg.PointAt(t))
		if (prevD < 0) != (d < 0) {
			out = append(out, bisectCrossing(s, seg, prevT, t))
		}
		prevT, prevD = t, d
	}
	return out
}

// bisectCrossing refines a sign change of the distance field between
// parameters lo and hi down to surface precision.
func bisectCrossing(s sdf.SDF3, seg Segment, lo, hi float64) v3.Vec {
	dLo := s.Evaluate(seg.PointAt(lo))
	for i := 0; i < 64; i++ {
		mid := (lo + hi) / 2
		dMid := s.Evaluate(seg.PointAt(mid))
		if math.Abs(dMid) < surfaceEps {
			return seg.PointAt(mid)
		}
		if (dLo < 0) != (dMid < 0) {
			hi = mid
		} else {
			lo, dLo = mid, dMid
		}
	}
	return seg.PointAt((lo + hi) / 2)
}

// CrossingPoint reduces the crossings of a segment through a solid to a
// single placement point:
//
//   - two or more crossings (pass-through): the midpoint of the two points
//     farthest apart, centering the placement inside the solid
//   - exactly one crossing (skin graze): that point
//   - none: ok is false
func CrossingPoint(s sdf.SDF3, seg Segment) (pt v3.Vec, ok bool) {
	crossings := SegmentSolidCrossings(s, seg)
	switch len(crossings) {
	case 0:
		return v3.Vec{}, false
	case 1:
		return crossings[0], true
	}

	// Farthest pair; crossing counts are tiny so the quadratic scan is fine.
	bi, bj, best := 0, 1, -1.0
	for i := 0; i < len(crossings); i++ {
		for j := i + 1; j < len(crossings); j++ {
			if d := crossings[i].Sub(crossings[j]).Length(); d > best {
				bi, bj, best = i, j, d
			}
		}
	}
	return crossings[bi].Add(crossings[bj]).MulScalar(0.5), true
}

// RayHit marches the distance field of s from origin along dir (unit
// vector) and returns the first surface hit within maxDist. An origin
// already inside the solid hits immediately at distance zero.
func RayHit(s sdf.SDF3, origin, dir v3.Vec, maxDist float64) (pt v3.Vec, dist float64, ok bool) {
	if s == nil {
		return v3.Vec{}, 0, false
	}

	const minStep = 1e-6
	t := 0.0
	for t <= maxDist {
		p := origin.Add(dir.MulScalar(t))
		d := s.Evaluate(p)
		if d <= surfaceEps {
			return p, t, true
		}
		step := d
		if step < minStep {
			step = minStep
		}
		t += step
	}
	return v3.Vec{}, 0, false
}
