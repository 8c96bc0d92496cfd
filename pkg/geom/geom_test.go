package geom

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const eps = 1e-6

func approxEq(a, b v3.Vec) bool {
	return a.Sub(b).Length() < eps
}

// centeredBox builds a solid box centered at the origin.
func centeredBox(t *testing.T, x, y, z float64) sdf.SDF3 {
	t.Helper()
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		t.Fatalf("Box3D: %v", err)
	}
	return s
}

func TestComposeAppliesRightToLeft(t *testing.T) {
	translate := sdf.Translate3d(v3.Vec{X: 10})
	rotate := sdf.RotateZ(math.Pi / 2)

	// Compose(rotate, translate) translates first, then rotates:
	// (1,0,0) -> (11,0,0) -> (0,11,0).
	m := Compose(rotate, translate)
	got := TransformPoint(m, v3.Vec{X: 1})
	if !approxEq(got, v3.Vec{Y: 11}) {
		t.Errorf("composed transform = %v, want (0,11,0)", got)
	}
}

func TestTransformBoxRotation(t *testing.T) {
	b := sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 2, Z: 3}}
	m := sdf.RotateZ(math.Pi / 2)

	got := TransformBox(m, b)
	want := sdf.Box3{Min: v3.Vec{X: -2}, Max: v3.Vec{Y: 1, Z: 3}}
	if !approxEq(got.Min, want.Min) || !approxEq(got.Max, want.Max) {
		t.Errorf("TransformBox = %+v, want %+v", got, want)
	}
}

func TestContainsIsInclusive(t *testing.T) {
	b := sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}

	tests := []struct {
		p    v3.Vec
		want bool
	}{
		{v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, true},
		{v3.Vec{X: 1, Y: 1, Z: 1}, true}, // corner counts
		{v3.Vec{X: 0, Y: 0.5, Z: 0.5}, true},
		{v3.Vec{X: 1.001, Y: 0.5, Z: 0.5}, false},
		{v3.Vec{X: 0.5, Y: -0.001, Z: 0.5}, false},
	}
	for _, tt := range tests {
		if got := Contains(b, tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestContainsExpanded(t *testing.T) {
	b := sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	p := v3.Vec{X: 1.05, Y: 0.5, Z: 0.5}

	if Contains(b, p) {
		t.Fatal("point should be outside the unexpanded box")
	}
	if !ContainsExpanded(b, p, 0.1) {
		t.Error("point should be inside the box expanded by 0.1")
	}
}

func TestUnionContainsBoth(t *testing.T) {
	a := sdf.Box3{Min: v3.Vec{X: -1, Y: -1}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	b := sdf.Box3{Min: v3.Vec{X: 2, Y: 0, Z: -3}, Max: v3.Vec{X: 4, Y: 5, Z: 0}}

	u := Union(a, b)
	want := sdf.Box3{Min: v3.Vec{X: -1, Y: -1, Z: -3}, Max: v3.Vec{X: 4, Y: 5, Z: 1}}
	if !approxEq(u.Min, want.Min) || !approxEq(u.Max, want.Max) {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
}

func TestSegmentClampProject(t *testing.T) {
	seg := Segment{A: v3.Vec{}, B: v3.Vec{X: 10}}

	tests := []struct {
		p     v3.Vec
		want  v3.Vec
		wantT float64
	}{
		{v3.Vec{X: 5, Y: 3}, v3.Vec{X: 5}, 0.5},    // interior projection
		{v3.Vec{X: -4, Y: 1}, v3.Vec{}, 0},         // clamped to A
		{v3.Vec{X: 15, Y: -2}, v3.Vec{X: 10}, 1.0}, // clamped to B
	}
	for _, tt := range tests {
		got, gotT := seg.ClampProject(tt.p)
		if !approxEq(got, tt.want) || math.Abs(gotT-tt.wantT) > eps {
			t.Errorf("ClampProject(%v) = %v,%g want %v,%g", tt.p, got, gotT, tt.want, tt.wantT)
		}
	}
}

func TestSegmentClampProjectDegenerate(t *testing.T) {
	seg := Segment{A: v3.Vec{X: 2}, B: v3.Vec{X: 2}}
	got, gotT := seg.ClampProject(v3.Vec{X: 9, Y: 9})
	if !approxEq(got, seg.A) || gotT != 0 {
		t.Errorf("degenerate projection = %v,%g want %v,0", got, gotT, seg.A)
	}
}

func TestInPlanePerpendicular(t *testing.T) {
	p, ok := InPlanePerpendicular(v3.Vec{X: 1})
	if !ok || !approxEq(p, v3.Vec{Y: 1}) {
		t.Errorf("perpendicular of +X = %v,%v want (0,1,0),true", p, ok)
	}

	if _, ok := InPlanePerpendicular(v3.Vec{Z: 1}); ok {
		t.Error("vertical direction has no in-plane perpendicular")
	}
}

func TestSegmentSolidCrossingsPassThrough(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10) // x in [-0.5, 0.5]
	seg := Segment{A: v3.Vec{X: -3}, B: v3.Vec{X: 3}}

	crossings := SegmentSolidCrossings(wall, seg)
	if len(crossings) != 2 {
		t.Fatalf("got %d crossings, want 2", len(crossings))
	}
	if math.Abs(crossings[0].X+0.5) > 1e-4 || math.Abs(crossings[1].X-0.5) > 1e-4 {
		t.Errorf("crossings at x=%g,%g want -0.5,0.5", crossings[0].X, crossings[1].X)
	}
}

func TestCrossingPointCentersPassThrough(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)
	seg := Segment{A: v3.Vec{X: -3, Y: 1, Z: 2}, B: v3.Vec{X: 3, Y: 1, Z: 2}}

	pt, ok := CrossingPoint(wall, seg)
	if !ok {
		t.Fatal("expected a crossing")
	}
	if !approxEq(pt, v3.Vec{Y: 1, Z: 2}) {
		t.Errorf("crossing point = %v, want (0,1,2)", pt)
	}
}

func TestCrossingPointSkinCase(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)
	// Segment ends inside the wall: exactly one surface crossing.
	seg := Segment{A: v3.Vec{X: -3}, B: v3.Vec{X: 0}}

	pt, ok := CrossingPoint(wall, seg)
	if !ok {
		t.Fatal("expected a crossing")
	}
	if math.Abs(pt.X+0.5) > 1e-4 {
		t.Errorf("skin crossing at x=%g, want -0.5", pt.X)
	}
}

func TestCrossingPointMisses(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)
	seg := Segment{A: v3.Vec{X: -3, Y: 50}, B: v3.Vec{X: 3, Y: 50}}

	if _, ok := CrossingPoint(wall, seg); ok {
		t.Error("segment far outside the solid should not cross")
	}
}

func TestCrossingPointNilSolid(t *testing.T) {
	seg := Segment{A: v3.Vec{X: -3}, B: v3.Vec{X: 3}}
	if _, ok := CrossingPoint(nil, seg); ok {
		t.Error("nil solid must be treated as non-intersecting")
	}
}

func TestRayHit(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)

	pt, dist, ok := RayHit(wall, v3.Vec{X: -2}, v3.Vec{X: 1}, 5)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(dist-1.5) > 1e-4 || math.Abs(pt.X+0.5) > 1e-4 {
		t.Errorf("hit at x=%g dist=%g, want x=-0.5 dist=1.5", pt.X, dist)
	}
}

func TestRayHitRespectsCutoff(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)
	if _, _, ok := RayHit(wall, v3.Vec{X: -2}, v3.Vec{X: 1}, 1.0); ok {
		t.Error("hit beyond maxDist should be discarded")
	}
}

func TestRayHitFromInside(t *testing.T) {
	wall := centeredBox(t, 1, 10, 10)
	_, dist, ok := RayHit(wall, v3.Vec{}, v3.Vec{X: 1}, 5)
	if !ok || dist != 0 {
		t.Errorf("origin inside solid should hit at distance 0, got ok=%v dist=%g", ok, dist)
	}
}
