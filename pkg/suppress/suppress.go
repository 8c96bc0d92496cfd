// Package suppress decides whether a prospective opening duplicates one
// that already exists, so re-runs of the engine never double-place.
//
// Existing openings are indexed in a 3D R-tree
// (github.com/dhconnelly/rtreego) keyed by their bounding boxes, so each
// query touches only spatially nearby openings instead of the whole set.
//
// The rules are asymmetric between opening classes:
//
//   - An individual candidate is suppressed by a same-category individual
//     closer than the spacing tolerance, or by ANY cluster opening whose
//     bounding box contains it. The category is ignored for clusters: a
//     merged opening already voids the host there, whatever discipline
//     first created it.
//   - A cluster candidate is suppressed only by an existing cluster of
//     the same category and host kind whose bounding box contains its
//     centroid. Nearby individuals never suppress a cluster; the cluster
//     pass is expected to replace them.
package suppress

import (
	"github.com/charmbracelet/log"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/units"
)

// indexedOpening adapts an opening to the R-tree's Spatial interface.
type indexedOpening struct {
	opening model.Opening
	rect    rtreego.Rect
}

func (e *indexedOpening) Bounds() rtreego.Rect { return e.rect }

// Service answers duplicate queries against the set of existing openings.
// It is not safe for concurrent use; the engine runs single-threaded.
type Service struct {
	tree   *rtreego.Rtree
	tol    units.Tolerances
	logger *log.Logger
}

// NewService indexes the given openings. A nil logger defaults to
// log.Default().
func NewService(existing []model.Opening, tol units.Tolerances, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		tree:   rtreego.NewTree(3, 25, 50),
		tol:    tol,
		logger: logger,
	}
	for _, o := range existing {
		if err := s.Add(o); err != nil {
			return nil, err
		}
	}
	logger.Debug("suppression index built", "openings", len(existing))
	return s, nil
}

// Add indexes one more opening. The engine calls this for every opening
// it places, so later candidates in the same run see earlier placements.
func (s *Service) Add(o model.Opening) error {
	rect, err := rectFromBox(o.Box())
	if err != nil {
		return sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput,
			"opening %s has a degenerate bounding box", o.ID)
	}
	s.tree.Insert(&indexedOpening{opening: o, rect: rect})
	return nil
}

// Count returns the number of indexed openings.
func (s *Service) Count() int { return s.tree.Size() }

// Suppresses reports whether a candidate of the given class, category,
// and host kind at position p duplicates an indexed opening, returning
// the suppressing opening when it does.
func (s *Service) Suppresses(p v3.Vec, class model.OpeningClass, category model.Category, hostKind model.HostKind) (model.Opening, bool) {
	radius := s.tol.IndividualSpacing
	if s.tol.BoxInclusion > radius {
		radius = s.tol.BoxInclusion
	}
	query := rtreego.Point{p.X, p.Y, p.Z}.ToRect(radius)

	for _, hit := range s.tree.SearchIntersect(query) {
		o := hit.(*indexedOpening).opening
		if s.suppressedBy(p, class, category, hostKind, o) {
			return o, true
		}
	}
	return model.Opening{}, false
}

func (s *Service) suppressedBy(p v3.Vec, class model.OpeningClass, category model.Category, hostKind model.HostKind, o model.Opening) bool {
	switch class {
	case model.ClassIndividual:
		if o.Class == model.ClassIndividual {
			return o.Category == category && o.Position.Sub(p).Length() < s.tol.IndividualSpacing
		}
		return geom.ContainsExpanded(o.Box(), p, s.tol.BoxInclusion)
	case model.ClassCluster:
		return o.Class == model.ClassCluster &&
			o.Category == category && o.HostKind == hostKind &&
			geom.ContainsExpanded(o.Box(), p, s.tol.BoxInclusion)
	}
	return false
}

// rectFromBox converts a bounding box to an R-tree rectangle. The tree
// requires strictly positive extents, so flat boxes are padded by a hair.
func rectFromBox(b sdf.Box3) (rtreego.Rect, error) {
	const minExtent = 1e-9
	lengths := []float64{
		b.Max.X - b.Min.X,
		b.Max.Y - b.Min.Y,
		b.Max.Z - b.Min.Z,
	}
	for i := range lengths {
		if lengths[i] < minExtent {
			lengths[i] = minExtent
		}
	}
	return rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z}, lengths)
}
