// Package store defines the persistence boundary of the placement engine:
// where routing elements and hosts come from, which opening templates are
// available, and how openings are created, deleted, and queried.
//
// The engine itself never talks to a backing document directly. It
// consumes the three interfaces below, so the same pipeline runs against
// an in-memory snapshot ([github.com/openmep/sleever/pkg/store/memstore]),
// a MongoDB-backed document
// ([github.com/openmep/sleever/pkg/store/mongodoc]), or any host
// application's own adapter.
package store

import (
	"context"

	"github.com/openmep/sleever/pkg/model"
)

// =============================================================================
// Interfaces
// =============================================================================

// ElementProvider supplies the routing elements and structural hosts of
// one document, including elements from externally referenced models with
// their coordinate transforms already attached.
type ElementProvider interface {
	// RoutingElements returns all elements of one MEP category.
	RoutingElements(ctx context.Context, category model.Category) ([]model.RoutingElement, error)

	// StructuralHosts returns every wall, floor, and framing host.
	StructuralHosts(ctx context.Context) ([]model.StructuralHost, error)
}

// OpeningTypeCatalog maps a (host kind, category) pair to the opening
// template used to instantiate sleeves there. A missing template is not
// an error at lookup time; the pipeline skips the item and reports it as
// an end-of-run warning.
type OpeningTypeCatalog interface {
	Lookup(hostKind model.HostKind, category model.Category) (OpeningTemplate, bool)
}

// OpeningStore persists openings. All mutations of one run happen inside
// a single RunInTransaction scope; if the callback returns an error no
// mutation survives.
type OpeningStore interface {
	// FindExisting returns the openings matching the filter.
	FindExisting(ctx context.Context, f OpeningFilter) ([]model.Opening, error)

	// Create persists the opening and returns it with its assigned ID.
	Create(ctx context.Context, o model.Opening) (model.Opening, error)

	// Delete removes one opening by ID.
	Delete(ctx context.Context, id string) error

	// RunInTransaction executes fn inside one all-or-nothing scope.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// =============================================================================
// Templates
// =============================================================================

// TemplateShape is the face shape of an opening template.
type TemplateShape string

// Template shapes.
const (
	ShapeRound       TemplateShape = "round"
	ShapeRectangular TemplateShape = "rectangular"
)

// OpeningTemplate describes one sleeve family registered for a
// (host kind, category) pair.
type OpeningTemplate struct {
	Name     string         `json:"name" bson:"name"`
	HostKind model.HostKind `json:"host_kind" bson:"host_kind"`
	Category model.Category `json:"category" bson:"category"`
	Shape    TemplateShape  `json:"shape" bson:"shape"`
}

// OpeningFilter restricts FindExisting queries. Nil slices match
// everything for their field.
type OpeningFilter struct {
	Classes    []model.OpeningClass
	Categories []model.Category
	HostKinds  []model.HostKind
}

// Matches reports whether the opening passes the filter.
func (f OpeningFilter) Matches(o model.Opening) bool {
	return matchClass(f.Classes, o.Class) &&
		matchCategory(f.Categories, o.Category) &&
		matchHostKind(f.HostKinds, o.HostKind)
}

func matchClass(cs []model.OpeningClass, c model.OpeningClass) bool {
	if len(cs) == 0 {
		return true
	}
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}

func matchCategory(cs []model.Category, c model.Category) bool {
	if len(cs) == 0 {
		return true
	}
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}

func matchHostKind(ks []model.HostKind, k model.HostKind) bool {
	if len(ks) == 0 {
		return true
	}
	for _, v := range ks {
		if v == k {
			return true
		}
	}
	return false
}

// =============================================================================
// Static Implementations
// =============================================================================

type catalogKey struct {
	kind model.HostKind
	cat  model.Category
}

// StaticCatalog is an OpeningTypeCatalog backed by a fixed map.
type StaticCatalog struct {
	templates map[catalogKey]OpeningTemplate
}

// NewStaticCatalog creates an empty catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{templates: make(map[catalogKey]OpeningTemplate)}
}

// Register adds or replaces the template for its (host kind, category) pair.
func (c *StaticCatalog) Register(t OpeningTemplate) {
	c.templates[catalogKey{t.HostKind, t.Category}] = t
}

// Lookup implements OpeningTypeCatalog.
func (c *StaticCatalog) Lookup(kind model.HostKind, cat model.Category) (OpeningTemplate, bool) {
	t, ok := c.templates[catalogKey{kind, cat}]
	return t, ok
}

// DefaultCatalog returns a catalog with a template registered for every
// (host kind, category) pair: round sleeves for pipes, rectangular for
// everything else.
func DefaultCatalog() *StaticCatalog {
	c := NewStaticCatalog()
	for _, kind := range []model.HostKind{model.HostWall, model.HostFloor, model.HostFraming} {
		for _, cat := range model.Categories() {
			shape := ShapeRectangular
			if cat == model.CategoryPipe {
				shape = ShapeRound
			}
			c.Register(OpeningTemplate{
				Name:     string(cat) + "-sleeve-" + string(kind),
				HostKind: kind,
				Category: cat,
				Shape:    shape,
			})
		}
	}
	return c
}

// StaticProvider is an ElementProvider over fixed slices; the snapshot
// loader and tests use it.
type StaticProvider struct {
	Elements []model.RoutingElement
	Hosts    []model.StructuralHost
}

// RoutingElements implements ElementProvider.
func (p *StaticProvider) RoutingElements(_ context.Context, category model.Category) ([]model.RoutingElement, error) {
	var out []model.RoutingElement
	for _, e := range p.Elements {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

// StructuralHosts implements ElementProvider.
func (p *StaticProvider) StructuralHosts(_ context.Context) ([]model.StructuralHost, error) {
	return p.Hosts, nil
}
