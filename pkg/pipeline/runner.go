package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/openmep/sleever/pkg/clusterize"
	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/observability"
	"github.com/openmep/sleever/pkg/resolve"
	"github.com/openmep/sleever/pkg/store"
	"github.com/openmep/sleever/pkg/suppress"
	"github.com/openmep/sleever/pkg/units"
)

// Runner encapsulates one document's placement dependencies. It is
// stateless between runs - every Execute builds its suppression index and
// candidate collections fresh from the store, never from a previous run.
type Runner struct {
	Provider store.ElementProvider
	Store    store.OpeningStore
	Catalog  store.OpeningTypeCatalog
	Logger   *log.Logger
}

// NewRunner creates a runner.
// If catalog is nil, the default catalog is used.
// If logger is nil, log.Default() is used.
func NewRunner(provider store.ElementProvider, st store.OpeningStore, catalog store.OpeningTypeCatalog, logger *log.Logger) *Runner {
	if catalog == nil {
		catalog = store.DefaultCatalog()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Provider: provider,
		Store:    st,
		Catalog:  catalog,
		Logger:   logger,
	}
}

// Execute runs the complete resolve → place → cluster pipeline inside
// one store transaction. Per-element faults are counted in the report
// and the run continues; a returned error means the run failed as a
// whole and nothing was persisted.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	tol, err := opts.Tolerances()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Run().OnRunStart(ctx, categoryNames(opts.Categories))

	result := &Result{}
	err = r.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		return r.run(ctx, opts, tol, result)
	})
	observability.Run().OnRunComplete(ctx, result.Report.Placed, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("run complete",
		"placed", result.Report.Placed,
		"suppressed", result.Report.Suppressed,
		"skipped", result.Report.Skipped,
		"errored", result.Report.Errored,
		"merged", result.Report.Merged)
	return result, nil
}

// run executes both stages inside the transaction scope.
func (r *Runner) run(ctx context.Context, opts Options, tol units.Tolerances, result *Result) error {
	hosts, err := r.Provider.StructuralHosts(ctx)
	if err != nil {
		return fmt.Errorf("load hosts: %w", err)
	}
	result.Stats.HostCount = len(hosts)

	existing, err := r.Store.FindExisting(ctx, store.OpeningFilter{})
	if err != nil {
		return fmt.Errorf("load existing openings: %w", err)
	}
	supp, err := suppress.NewService(existing, tol, opts.Logger)
	if err != nil {
		return err
	}

	resolveStart := time.Now()
	resolver := resolve.New(tol, opts.Logger)
	for _, cat := range opts.Categories {
		if err := r.placeCategory(ctx, opts, resolver, supp, hosts, cat, result); err != nil {
			return err
		}
	}
	result.Stats.ResolveTime = time.Since(resolveStart)

	if opts.SkipClusters {
		return nil
	}
	clusterStart := time.Now()
	if err := r.formAndPlaceClusters(ctx, opts, tol, supp, hosts, result); err != nil {
		return err
	}
	result.Stats.ClusterTime = time.Since(clusterStart)
	return nil
}

// placeCategory resolves and places every element of one category.
func (r *Runner) placeCategory(ctx context.Context, opts Options, resolver *resolve.Resolver, supp *suppress.Service, hosts []model.StructuralHost, cat model.Category, result *Result) error {
	elements, err := r.Provider.RoutingElements(ctx, cat)
	if err != nil {
		return fmt.Errorf("load %s elements: %w", cat, err)
	}
	result.Stats.ElementCount += len(elements)

	catStart := time.Now()
	observability.Engine().OnResolveStart(ctx, string(cat), len(elements))
	candidates := 0
	for _, el := range elements {
		cands, err := resolver.Resolve(el, hosts)
		if err != nil {
			if !sleeverrors.IsElementFault(err) {
				return err
			}
			result.Report.Errored++
			result.Report.Warn("element %s: %s", el.ID, sleeverrors.UserMessage(err))
			opts.Logger.Warn("skipping element", "element", el.ID, "err", err)
			continue
		}
		candidates += len(cands)
		for _, cand := range cands {
			if err := r.placeIndividual(ctx, opts, supp, cand, result); err != nil {
				return err
			}
		}
	}
	observability.Engine().OnResolveComplete(ctx, string(cat), candidates, time.Since(catStart))
	return nil
}

// placeIndividual sizes and creates one individual opening, unless a
// template is missing or the suppression engine vetoes it.
func (r *Runner) placeIndividual(ctx context.Context, opts Options, supp *suppress.Service, cand resolve.Candidate, result *Result) error {
	el, host := cand.Element, cand.Host

	tpl, ok := r.Catalog.Lookup(host.Kind, el.Category)
	if !ok {
		result.Report.Skipped++
		result.Report.Warn("no opening template for (%s, %s); element %s skipped", host.Kind, el.Category, el.ID)
		return nil
	}

	if by, ok := supp.Suppresses(cand.Point, model.ClassIndividual, el.Category, host.Kind); ok {
		result.Report.Suppressed++
		observability.Store().OnSuppressed(ctx, string(model.ClassIndividual), string(el.Category))
		opts.Logger.Info("suppressed duplicate",
			"element", el.ID, "by", by.ID, "class", by.Class)
		return nil
	}

	opening := r.buildOpening(opts, tpl, cand)
	created, err := r.Store.Create(ctx, opening)
	if err != nil {
		if !sleeverrors.IsElementFault(err) {
			return err
		}
		result.Report.Errored++
		result.Report.Warn("element %s: creation failed: %s", el.ID, sleeverrors.UserMessage(err))
		opts.Logger.Error("opening creation failed", "element", el.ID, "err", err)
		return nil
	}
	if err := supp.Add(created); err != nil {
		return err
	}
	observability.Store().OnCreate(ctx, string(created.Class), string(created.Category))
	result.Report.Placed++
	result.Openings = append(result.Openings, created)
	return nil
}

// buildOpening derives the individual opening for a candidate: the
// element's insulated cross-section plus the per-category clearance on
// every side, oriented along the host.
func (r *Runner) buildOpening(opts Options, tpl store.OpeningTemplate, cand resolve.Candidate) model.Opening {
	el, host := cand.Element, cand.Host
	conv, _ := opts.Profile.Converter()

	w, h := el.CrossSection()
	margin := 2 * conv.ToInternal(opts.Profile.Clearance.For(el.Category))
	w += margin
	h += margin
	if tpl.Shape == store.ShapeRound {
		d := max(w, h)
		w, h = d, d
	}

	depth := host.Thickness
	axis := openingAxis(el, host)

	return model.Opening{
		Class:    model.ClassIndividual,
		Category: el.Category,
		HostKind: host.Kind,
		HostID:   host.ID,
		Position: cand.Point,
		Axis:     axis,
		Width:    w,
		Height:   h,
		Depth:    depth,
		Level:    host.Level,
	}
}

// openingAxis picks the width direction: along the wall for wall hosts,
// along the element's plan direction for slabs.
func openingAxis(el model.RoutingElement, host model.StructuralHost) v3.Vec {
	if axis, ok := host.AxisInHost(); ok {
		return axis
	}
	if seg, ok := el.SegmentInHost(); ok {
		if dir, ok := seg.Direction(); ok {
			plan := v3.Vec{X: dir.X, Y: dir.Y}
			if l := plan.Length(); l > 1e-9 {
				return plan.DivScalar(l)
			}
		}
	}
	return v3.Vec{X: 1}
}

// formAndPlaceClusters runs the consolidation stage: form clusters from
// the current individual inventory, then create each merged opening and
// tear down its members only after the creation is confirmed.
func (r *Runner) formAndPlaceClusters(ctx context.Context, opts Options, tol units.Tolerances, supp *suppress.Service, hosts []model.StructuralHost, result *Result) error {
	individuals, err := r.Store.FindExisting(ctx, store.OpeningFilter{
		Classes: []model.OpeningClass{model.ClassIndividual},
	})
	if err != nil {
		return fmt.Errorf("load individuals: %w", err)
	}

	observability.Engine().OnClusterStart(ctx, len(individuals))
	start := time.Now()
	engine := clusterize.New(tol, opts.Logger)
	clusters, degenerate := engine.FormClusters(individuals, hosts)
	result.Report.Degenerate += degenerate

	placed := 0
	for _, cl := range clusters {
		if err := r.placeCluster(ctx, opts, supp, cl, result, &placed); err != nil {
			return err
		}
	}
	observability.Engine().OnClusterComplete(ctx, placed, time.Since(start))
	return nil
}

func (r *Runner) placeCluster(ctx context.Context, opts Options, supp *suppress.Service, cl clusterize.Cluster, result *Result, placed *int) error {
	if _, ok := r.Catalog.Lookup(cl.Key.HostKind, cl.Key.Category); !ok {
		result.Report.Skipped++
		result.Report.Warn("no opening template for (%s, %s); cluster of %d skipped",
			cl.Key.HostKind, cl.Key.Category, len(cl.Members))
		return nil
	}

	if by, ok := supp.Suppresses(cl.Merged.Position, model.ClassCluster, cl.Key.Category, cl.Key.HostKind); ok {
		result.Report.Suppressed++
		observability.Store().OnSuppressed(ctx, string(model.ClassCluster), string(cl.Key.Category))
		opts.Logger.Info("suppressed duplicate cluster", "by", by.ID, "members", len(cl.Members))
		return nil
	}

	created, err := r.Store.Create(ctx, cl.Merged)
	if err != nil {
		if !sleeverrors.IsElementFault(err) {
			return err
		}
		// Members stay untouched: never delete before the replacement
		// is confirmed to exist.
		result.Report.Errored++
		result.Report.Warn("cluster creation failed, %d members kept: %s",
			len(cl.Members), sleeverrors.UserMessage(err))
		opts.Logger.Error("cluster creation failed", "members", len(cl.Members), "err", err)
		return nil
	}
	if err := supp.Add(created); err != nil {
		return err
	}
	observability.Store().OnCreate(ctx, string(created.Class), string(created.Category))
	result.Report.Merged++
	*placed++
	result.Openings = append(result.Openings, created)

	for _, m := range cl.Members {
		if err := r.Store.Delete(ctx, m.ID); err != nil {
			result.Report.Errored++
			result.Report.Warn("member %s not deleted: %s", m.ID, sleeverrors.UserMessage(err))
			opts.Logger.Error("member deletion failed", "opening", m.ID, "err", err)
			continue
		}
		observability.Store().OnDelete(ctx, m.ID)
		result.Report.Deleted++
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func categoryNames(cats []model.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}
