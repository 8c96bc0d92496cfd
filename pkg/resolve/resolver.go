// Package resolve finds the crossing points between routing elements and
// structural hosts, both already expressed in the host document's
// coordinate space.
//
// Two resolution modes exist, chosen by host kind:
//
//   - Bounding-box mode (floors, framing): the routing line is sampled at
//     five parameters and each sample is tested against the host's
//     bounding box expanded by a small inclusion tolerance. Slabs are
//     horizontal, so a contained sample is a reliable crossing signal.
//   - Ray-probe mode (walls): walls may be hit at arbitrary angles, so
//     from each sample point probes are cast along the element's own
//     direction, its reverse, and both in-plane perpendiculars against
//     each wall's solid. Hits beyond a proximity cutoff are discarded as
//     irrelevant distant hosts.
//
// When several walls are hit for one element the thickest is selected;
// a thin partition grazed on the way to a load-bearing wall must not win.
// Deduplication across slab hosts is deferred to the suppression engine.
package resolve

import (
	"math"

	"github.com/charmbracelet/log"
	v3 "github.com/deadsy/sdfx/vec/v3"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/units"
)

// sampleTs are the centerline parameters probed in both modes.
var sampleTs = [5]float64{0, 0.25, 0.5, 0.75, 1}


// Candidate pairs a routing element with a host it crosses and the
// placement point for the opening. Candidates are ephemeral: produced by
// the resolver, consumed by placement, never persisted.
type Candidate struct {
	Element   model.RoutingElement
	Host      model.StructuralHost
	Point     v3.Vec
	Proximity float64 // first-hit distance for ray probes, 0 in bbox mode
}

// Resolver computes intersection candidates for one run. Construct a new
// one per run; it holds no state beyond tolerances and a logger.
type Resolver struct {
	tol    units.Tolerances
	logger *log.Logger
}

// New creates a resolver with the given tolerances.
// A nil logger defaults to log.Default().
func New(tol units.Tolerances, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{tol: tol, logger: logger}
}

// Resolve returns every (host, point) crossing for the routing element.
// Hosts and element must already share one coordinate space.
//
// A non-straight centerline is unsupported and returns a
// GEOMETRY_UNAVAILABLE error; the caller skips the element and continues.
// Finding no intersecting host is not an error: the result is simply
// empty.
func (r *Resolver) Resolve(el model.RoutingElement, hosts []model.StructuralHost) ([]Candidate, error) {
	seg, ok := el.SegmentInHost()
	if !ok {
		return nil, sleeverrors.New(sleeverrors.ErrCodeGeometryUnavailable,
			"element %s: centerline is not a straight segment", el.ID)
	}
	if el.Category == model.CategoryDamper {
		// Dampers are point equipment with a near-zero connector stub;
		// stretch the stub so its probe samples straddle the host wall.
		seg = extendSpan(seg, 2*r.tol.ProbeCutoff)
	}

	var out []Candidate
	out = append(out, r.slabCandidates(el, seg, hosts)...)
	if c, ok := r.wallCandidate(el, seg, hosts); ok {
		out = append(out, c)
	}

	if len(out) == 0 {
		r.logger.Debug("no intersecting host", "element", el.ID, "category", el.Category)
	}
	return out, nil
}

// slabCandidates runs bounding-box mode against every slab-kind host.
// The first sample contained in a host's expanded box becomes that host's
// placement point; later samples are not tested for the same host.
func (r *Resolver) slabCandidates(el model.RoutingElement, seg geom.Segment, hosts []model.StructuralHost) []Candidate {
	var out []Candidate
	for _, h := range hosts {
		if !h.Kind.IsSlab() {
			continue
		}
		box := h.BoxInHost()
		for _, t := range sampleTs {
			p := seg.PointAt(t)
			if geom.ContainsExpanded(box, p, r.tol.BoxInclusion) {
				out = append(out, Candidate{Element: el, Host: h, Point: p})
				break
			}
		}
	}
	return out
}

// wallHit records one successful ray probe against a wall host.
type wallHit struct {
	host  model.StructuralHost
	point v3.Vec
	dist  float64
}

// wallCandidate runs ray-probe mode against every wall-kind host and
// reduces the hits to at most one candidate: the thickest wall hit, with
// the placement point centered inside it.
func (r *Resolver) wallCandidate(el model.RoutingElement, seg geom.Segment, hosts []model.StructuralHost) (Candidate, bool) {
	dir, ok := seg.Direction()
	if !ok {
		return Candidate{}, false
	}

	probes := []v3.Vec{dir, dir.MulScalar(-1)}
	if perp, ok := geom.InPlanePerpendicular(dir); ok {
		probes = append(probes, perp, perp.MulScalar(-1))
	}

	var hits []wallHit
	for _, h := range hosts {
		if h.Kind != model.HostWall {
			continue
		}
		if sloped(h) {
			r.logger.Debug("skipping sloped wall", "host", h.ID, "element", el.ID)
			continue
		}
		solid := h.SolidInHost()
		if solid == nil {
			// Non-fatal: a wall without a retrievable solid is treated
			// as non-intersecting.
			r.logger.Debug("wall has no solid", "host", h.ID)
			continue
		}
		for _, t := range sampleTs {
			origin := seg.PointAt(t)
			for _, probe := range probes {
				if pt, dist, ok := geom.RayHit(solid, origin, probe, r.tol.ProbeCutoff); ok {
					hits = append(hits, wallHit{host: h, point: pt, dist: dist})
				}
			}
		}
	}
	if len(hits) == 0 {
		return Candidate{}, false
	}

	chosen := selectThickest(hits)
	best := nearestHit(hits, chosen.ID)
	pt := centerInWall(chosen, best.point)
	return Candidate{Element: el, Host: chosen, Point: pt, Proximity: best.dist}, true
}

// sloped reports whether a wall's centerline endpoints differ in
// elevation. Sloped and non-planar hosts are unsupported in ray-probe
// mode and are skipped rather than guessed at.
func sloped(h model.StructuralHost) bool {
	if len(h.Centerline) != 2 {
		return false
	}
	return math.Abs(h.Centerline[0].Z-h.Centerline[1].Z) > 1e-9
}

// selectThickest returns the hit host with the greatest thickness
// attribute. Ties keep the first hit's host, which is deterministic
// because hosts are probed in input order.
func selectThickest(hits []wallHit) model.StructuralHost {
	chosen := hits[0].host
	for _, h := range hits[1:] {
		if h.host.Thickness > chosen.Thickness {
			chosen = h.host
		}
	}
	return chosen
}

// nearestHit returns the smallest-distance hit belonging to hostID.
func nearestHit(hits []wallHit, hostID string) wallHit {
	best := wallHit{dist: math.Inf(1)}
	for _, h := range hits {
		if h.host.ID == hostID && h.dist < best.dist {
			best = h
		}
	}
	return best
}

// centerInWall moves a raw surface hit onto the wall's centerline in
// plan, preserving the hit elevation. Projecting onto the centerline is
// equivalent to projecting onto the near face and offsetting by half the
// wall thickness along the face normal: the opening ends up centered
// inside the host rather than on its skin.
func centerInWall(h model.StructuralHost, hit v3.Vec) v3.Vec {
	seg, ok := h.CenterlineInHost()
	if !ok {
		return hit
	}
	planar := geom.Segment{
		A: v3.Vec{X: seg.A.X, Y: seg.A.Y},
		B: v3.Vec{X: seg.B.X, Y: seg.B.Y},
	}
	p, _ := planar.ClampProject(v3.Vec{X: hit.X, Y: hit.Y})
	return v3.Vec{X: p.X, Y: p.Y, Z: hit.Z}
}

// extendSpan grows a segment symmetrically about its midpoint to at least
// minLen, preserving its direction.
func extendSpan(seg geom.Segment, minLen float64) geom.Segment {
	dir, ok := seg.Direction()
	if !ok || seg.Length() >= minLen {
		return seg
	}
	mid := seg.PointAt(0.5)
	half := dir.MulScalar(minLen / 2)
	return geom.Segment{A: mid.Sub(half), B: mid.Add(half)}
}
