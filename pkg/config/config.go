// Package config loads run profiles: the document's unit system and the
// per-category clearance margins added around each routing element's
// cross-section when sizing its opening.
//
// Profiles are TOML files. All clearance values are in millimeters
// regardless of the document's unit system; the pipeline converts them
// once per run.
package config

import (
	"github.com/BurntSushi/toml"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/units"
)

// Unit system names accepted in a profile.
const (
	UnitsFeet        = "feet"
	UnitsMillimeters = "millimeters"
)

// Clearance holds the per-category margin, in millimeters, added on every
// side of a routing element's insulated cross-section.
type Clearance struct {
	Pipe      float64 `toml:"pipe"`
	Duct      float64 `toml:"duct"`
	CableTray float64 `toml:"cable_tray"`
	Damper    float64 `toml:"damper"`
}

// For returns the clearance for one category.
func (c Clearance) For(cat model.Category) float64 {
	switch cat {
	case model.CategoryPipe:
		return c.Pipe
	case model.CategoryDuct:
		return c.Duct
	case model.CategoryCableTray:
		return c.CableTray
	case model.CategoryDamper:
		return c.Damper
	}
	return 0
}

// Profile is one run's configuration.
type Profile struct {
	Units     string    `toml:"units"`
	Clearance Clearance `toml:"clearance"`
}

// Default returns the profile used when no file is given: an imperial
// document with commonly specified sleeve margins.
func Default() Profile {
	return Profile{
		Units: UnitsFeet,
		Clearance: Clearance{
			Pipe:      25,
			Duct:      50,
			CableTray: 50,
			Damper:    25,
		},
	}
}

// Load reads a TOML profile. Missing keys keep their defaults.
func Load(path string) (Profile, error) {
	p := Default()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Profile{}, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput,
			"load profile %s", path)
	}
	if _, err := p.Converter(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Converter returns the unit converter for the profile's unit system.
func (p Profile) Converter() (units.Converter, error) {
	switch p.Units {
	case UnitsFeet:
		return units.Feet(), nil
	case UnitsMillimeters:
		return units.Millimeters(), nil
	}
	return units.Converter{}, sleeverrors.New(sleeverrors.ErrCodeInvalidInput,
		"unknown unit system %q (must be %q or %q)", p.Units, UnitsFeet, UnitsMillimeters)
}
