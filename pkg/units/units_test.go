package units

import (
	"math"
	"testing"
)

func TestNewRejectsNonPositive(t *testing.T) {
	for _, v := range []float64{0, -1, -304.8} {
		if _, err := New(v); err == nil {
			t.Errorf("New(%g) should fail", v)
		}
	}
	if _, err := New(25.4); err != nil {
		t.Errorf("New(25.4) failed: %v", err)
	}
}

func TestFeetRoundTrip(t *testing.T) {
	c := Feet()

	ft := c.ToInternal(304.8)
	if math.Abs(ft-1.0) > 1e-12 {
		t.Errorf("304.8mm = %g ft, want 1", ft)
	}
	back := c.ToMillimeters(ft)
	if math.Abs(back-304.8) > 1e-9 {
		t.Errorf("round trip = %gmm, want 304.8", back)
	}
}

func TestMillimetersIsIdentity(t *testing.T) {
	c := Millimeters()
	if got := c.ToInternal(42.5); got != 42.5 {
		t.Errorf("ToInternal(42.5) = %g", got)
	}
	if got := c.ToMillimeters(42.5); got != 42.5 {
		t.Errorf("ToMillimeters(42.5) = %g", got)
	}
}

func TestFromConverter(t *testing.T) {
	tol := FromConverter(Millimeters())

	if tol.IndividualSpacing != 10 {
		t.Errorf("IndividualSpacing = %g, want 10", tol.IndividualSpacing)
	}
	if tol.ClusterGap != 100 {
		t.Errorf("ClusterGap = %g, want 100", tol.ClusterGap)
	}
	if tol.LevelStep != 1 {
		t.Errorf("LevelStep = %g, want 1", tol.LevelStep)
	}
	if tol.MinMergedSize != 20 {
		t.Errorf("MinMergedSize = %g, want 20", tol.MinMergedSize)
	}
	if tol.ProbeCutoff != DefaultProbeCutoff {
		t.Errorf("ProbeCutoff = %g, want %g", tol.ProbeCutoff, DefaultProbeCutoff)
	}
}

func TestFromConverterFeet(t *testing.T) {
	tol := FromConverter(Feet())

	// 100mm cluster gap in feet.
	want := 100.0 / 304.8
	if math.Abs(tol.ClusterGap-want) > 1e-12 {
		t.Errorf("ClusterGap = %g, want %g", tol.ClusterGap, want)
	}
	// Probe cutoff stays unit-relative, not converted.
	if tol.ProbeCutoff != 0.5 {
		t.Errorf("ProbeCutoff = %g, want 0.5", tol.ProbeCutoff)
	}
}
