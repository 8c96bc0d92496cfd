// Package units converts between millimeters and the host document's
// internal linear unit.
//
// All geometric invariants of the engine are specified in millimeters
// (10mm individual spacing, 100mm cluster gap, 1mm elevation tolerance,
// 20mm minimum merged size). Host documents store geometry in their own
// unit - decimal feet for Revit-style documents - so every tolerance is
// converted exactly once, when a [Tolerances] set is built, and the rest
// of the engine works purely in internal units.
package units

import (
	"fmt"
)

// MillimetersPerFoot is the exact conversion factor for imperial documents.
const MillimetersPerFoot = 304.8

// Converter translates lengths between millimeters and internal units.
// The zero value is not usable - construct one with New, Feet, or Millimeters.
type Converter struct {
	mmPerUnit float64
}

// New creates a converter for a document whose internal unit equals
// mmPerUnit millimeters. Returns an error if mmPerUnit is not positive.
func New(mmPerUnit float64) (Converter, error) {
	if mmPerUnit <= 0 {
		return Converter{}, fmt.Errorf("mm per unit must be positive, got %g", mmPerUnit)
	}
	return Converter{mmPerUnit: mmPerUnit}, nil
}

// Feet returns a converter for documents measured in decimal feet.
func Feet() Converter { return Converter{mmPerUnit: MillimetersPerFoot} }

// Millimeters returns a converter for documents measured in millimeters.
// Conversion is the identity; useful for metric documents and for tests
// that want tolerance values to read literally.
func Millimeters() Converter { return Converter{mmPerUnit: 1} }

// ToInternal converts a length in millimeters to internal units.
func (c Converter) ToInternal(mm float64) float64 { return mm / c.mmPerUnit }

// ToMillimeters converts a length in internal units to millimeters.
func (c Converter) ToMillimeters(u float64) float64 { return u * c.mmPerUnit }

// Millimeter tolerance constants. These are the engine's consistency
// invariants and are fixed; per-document overrides go through a profile,
// not through these values.
const (
	// IndividualSpacingMM is the minimum center-to-center distance between
	// two individual openings of the same MEP category.
	IndividualSpacingMM = 10.0

	// ClusterGapMM is the maximum edge-to-edge gap for two individual
	// openings to be considered adjacent during cluster formation.
	ClusterGapMM = 100.0

	// LevelStepMM is the maximum elevation difference for two openings to
	// lie on the same level plane.
	LevelStepMM = 1.0

	// MinMergedSizeMM is the minimum merged width/height below which a
	// cluster is rejected as degenerate.
	MinMergedSizeMM = 20.0

	// BoxInclusionMM is the inclusion tolerance applied when testing
	// routing-line samples against a slab host's bounding box.
	BoxInclusionMM = 10.0
)

// DefaultProbeCutoff is the maximum first-hit distance, in internal units,
// for a ray probe to count as a wall crossing. Deliberately unit-relative:
// half of one internal length unit.
const DefaultProbeCutoff = 0.5

// Tolerances holds every engine tolerance expressed in internal units.
// Build one per run with FromConverter; never reuse across documents with
// different unit systems.
type Tolerances struct {
	IndividualSpacing float64 // center-to-center suppression radius
	ClusterGap        float64 // adjacency gap for cluster formation
	LevelStep         float64 // same-level elevation tolerance
	MinMergedSize     float64 // degenerate-cluster floor
	BoxInclusion      float64 // slab bbox inclusion tolerance
	ProbeCutoff       float64 // wall ray-probe first-hit cutoff
}

// FromConverter builds the default tolerance set in internal units.
func FromConverter(c Converter) Tolerances {
	return Tolerances{
		IndividualSpacing: c.ToInternal(IndividualSpacingMM),
		ClusterGap:        c.ToInternal(ClusterGapMM),
		LevelStep:         c.ToInternal(LevelStepMM),
		MinMergedSize:     c.ToInternal(MinMergedSizeMM),
		BoxInclusion:      c.ToInternal(BoxInclusionMM),
		ProbeCutoff:       DefaultProbeCutoff,
	}
}
