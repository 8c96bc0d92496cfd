package config

import (
	"os"
	"path/filepath"
	"testing"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeProfile(t, `
units = "millimeters"

[clearance]
pipe = 30
duct = 75
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Units != UnitsMillimeters {
		t.Errorf("units = %q, want millimeters", p.Units)
	}
	if p.Clearance.Pipe != 30 || p.Clearance.Duct != 75 {
		t.Errorf("clearance = %+v, want pipe 30, duct 75", p.Clearance)
	}
	// Unspecified keys keep their defaults.
	if p.Clearance.CableTray != Default().Clearance.CableTray {
		t.Errorf("cable tray clearance = %g, want default %g",
			p.Clearance.CableTray, Default().Clearance.CableTray)
	}
}

func TestLoadRejectsUnknownUnits(t *testing.T) {
	path := writeProfile(t, `units = "cubits"`)
	_, err := Load(path)
	if sleeverrors.GetCode(err) != sleeverrors.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a missing profile")
	}
}

func TestClearanceFor(t *testing.T) {
	c := Clearance{Pipe: 1, Duct: 2, CableTray: 3, Damper: 4}
	tests := []struct {
		cat  model.Category
		want float64
	}{
		{model.CategoryPipe, 1},
		{model.CategoryDuct, 2},
		{model.CategoryCableTray, 3},
		{model.CategoryDamper, 4},
	}
	for _, tt := range tests {
		if got := c.For(tt.cat); got != tt.want {
			t.Errorf("For(%s) = %g, want %g", tt.cat, got, tt.want)
		}
	}
}

func TestDefaultConverter(t *testing.T) {
	conv, err := Default().Converter()
	if err != nil {
		t.Fatalf("Converter: %v", err)
	}
	if got := conv.ToMillimeters(1); got != 304.8 {
		t.Errorf("1 internal unit = %gmm, want 304.8", got)
	}
}
