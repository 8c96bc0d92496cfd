// Package pipeline provides the core placement pipeline for Sleever.
//
// This package implements the complete resolve → place → cluster run that
// can be used by the CLI or embedded by a host application. Centralizing
// it ensures both entry points behave identically.
//
// # Architecture
//
// A run consists of three stages inside one store transaction:
//
//  1. Resolve: find every crossing between routing elements and hosts
//  2. Place: size each crossing, check suppression, create individuals
//  3. Cluster: merge adjacent individuals into consolidated openings
//
// Per-element faults are counted and the run continues; only failure to
// open the transaction scope is fatal.
//
// # Usage
//
// Create a Runner and execute a run:
//
//	runner := pipeline.NewRunner(provider, openings, catalog, logger)
//	opts := pipeline.Options{
//	    Categories: []model.Category{model.CategoryPipe},
//	    Profile:    config.Default(),
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Placed)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/openmep/sleever/pkg/config"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/units"
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options contains all configuration for one placement run.
// This struct supports JSON serialization for report files.
type Options struct {
	// Categories limits the run to the given MEP categories.
	// Empty means all categories.
	Categories []model.Category `json:"categories,omitempty"`

	// Profile carries the unit system and clearance margins.
	// The zero value is replaced by config.Default().
	Profile config.Profile `json:"profile,omitempty"`

	// SkipClusters disables the cluster formation stage.
	SkipClusters bool `json:"skip_clusters,omitempty"`

	// ProbeCutoff overrides the wall ray-probe cutoff, in internal units.
	// Zero keeps the default.
	ProbeCutoff float64 `json:"probe_cutoff,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Categories) == 0 {
		o.Categories = model.Categories()
	}
	for _, c := range o.Categories {
		if _, err := model.ParseCategory(string(c)); err != nil {
			return err
		}
	}
	if o.Profile.Units == "" {
		o.Profile = config.Default()
	}
	if _, err := o.Profile.Converter(); err != nil {
		return err
	}
	if o.ProbeCutoff < 0 {
		return fmt.Errorf("probe cutoff must not be negative, got %g", o.ProbeCutoff)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Tolerances builds the run's tolerance set in internal units.
func (o *Options) Tolerances() (units.Tolerances, error) {
	conv, err := o.Profile.Converter()
	if err != nil {
		return units.Tolerances{}, err
	}
	tol := units.FromConverter(conv)
	if o.ProbeCutoff > 0 {
		tol.ProbeCutoff = o.ProbeCutoff
	}
	return tol, nil
}

// =============================================================================
// Result - Run Outputs
// =============================================================================

// Result contains the outputs of one placement run.
type Result struct {
	// Openings holds every opening created by the run, individuals and
	// merged clusters, in creation order. Individuals later replaced by
	// a cluster are not removed from this list; the report counts tell
	// the full story.
	Openings []model.Opening

	// Report contains the end-of-run counters and warnings.
	Report Report

	// Stats contains timing and size information.
	Stats Stats
}

// Report is the end-of-run accounting. A run always produces one, also
// when every element was skipped.
type Report struct {
	Placed     int      `json:"placed"`
	Suppressed int      `json:"suppressed"`
	Skipped    int      `json:"skipped"`
	Errored    int      `json:"errored"`
	Merged     int      `json:"merged"`
	Deleted    int      `json:"deleted"`
	Degenerate int      `json:"degenerate"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Warn appends a formatted warning.
func (r *Report) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Stats contains run execution statistics.
type Stats struct {
	ElementCount int
	HostCount    int
	ResolveTime  time.Duration
	ClusterTime  time.Duration
}
