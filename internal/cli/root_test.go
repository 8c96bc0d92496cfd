package cli

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")

	if version != "1.0.0" {
		t.Errorf("version = %q, want %q", version, "1.0.0")
	}
	if commit != "abc123" {
		t.Errorf("commit = %q, want %q", commit, "abc123")
	}
	if date != "2024-01-01" {
		t.Errorf("date = %q, want %q", date, "2024-01-01")
	}
}

func TestResolveCategories(t *testing.T) {
	cats, err := resolveCategories([]string{"pipe", " duct "}, false)
	if err != nil {
		t.Fatalf("resolveCategories() error = %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}

	if _, err := resolveCategories([]string{"conduit"}, false); err == nil {
		t.Error("unknown category should be rejected")
	}
}

func TestLoadProfileDefault(t *testing.T) {
	profile, err := loadProfile("")
	if err != nil {
		t.Fatalf("loadProfile() error = %v", err)
	}
	if profile.Units == "" {
		t.Error("default profile should carry a unit system")
	}
}
