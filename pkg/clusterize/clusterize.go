// Package clusterize groups nearby individual openings and proposes one
// merged opening per group, so a bank of pipes punches a single sleeve
// instead of a ragged row of small ones.
//
// Grouping is keyed by (host kind, category, orientation tag): openings
// in walls never merge with openings in floors, disciplines never merge
// across each other, and openings in perpendicular walls stay apart even
// when their centers are close. Within a group, adjacency is transitive:
// connected components are found by breadth-first search over a uniform
// spatial grid, so a long chain of pairwise-adjacent openings forms one
// cluster even when its ends are far apart.
package clusterize

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/units"
)

// Wall merged openings prefer one template orientation. Aspect ratios
// above aspectKeep keep width-by-height as computed; below aspectSwap the
// dimensions are swapped. The band in between is nearly square and swaps
// as well, matching the tall-template preference of the sleeve catalog.
const (
	aspectKeep = 1.5
	aspectSwap = 0.67
)

// GroupKey identifies a clustering partition. Openings may only merge
// with others sharing the exact key.
type GroupKey struct {
	HostKind    model.HostKind
	Category    model.Category
	Orientation string
}

// KeyFor returns the clustering partition of an opening.
func KeyFor(o model.Opening) GroupKey {
	return GroupKey{HostKind: o.HostKind, Category: o.Category, Orientation: o.OrientationTag()}
}

// Cluster is a proposed merge: the member openings it replaces and the
// merged opening to create in their place. The merged opening has no ID;
// the store assigns one on creation.
type Cluster struct {
	Key     GroupKey
	Members []model.Opening
	Merged  model.Opening
}

// Engine forms clusters for one run.
type Engine struct {
	tol    units.Tolerances
	logger *log.Logger
}

// New creates a clustering engine. A nil logger defaults to log.Default().
func New(tol units.Tolerances, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{tol: tol, logger: logger}
}

// Adjacent reports whether two openings are close enough to merge. The
// test is planar and per level: openings more than the level step apart
// in elevation never merge, and the gap allowance is measured from the
// openings' effective half-sizes rather than their centers, so two large
// ducts merge at a center distance that would keep two small pipes apart.
func Adjacent(a, b model.Opening, tol units.Tolerances) bool {
	if math.Abs(a.Position.Z-b.Position.Z) > tol.LevelStep {
		return false
	}
	effectiveHalf := (a.Width/2 + b.Width/2 + a.Height/2 + b.Height/2) / 2
	return geom.PlanarDistance(a.Position, b.Position)-effectiveHalf <= tol.ClusterGap
}

// FormClusters partitions the individual openings by group key, finds
// connected components under Adjacent, and proposes a merged opening for
// every component of two or more members. Components whose merged face
// would be degenerately small are dropped with a warning and their
// members stay as they are; the second return value counts them.
//
// hosts supplies thickness lookups so a merged opening runs the full
// depth of its host rather than the deepest member.
func (e *Engine) FormClusters(openings []model.Opening, hosts []model.StructuralHost) ([]Cluster, int) {
	hostByID := make(map[string]model.StructuralHost, len(hosts))
	for _, h := range hosts {
		hostByID[h.ID] = h
	}

	groups := make(map[GroupKey][]model.Opening)
	for _, o := range openings {
		if o.Class != model.ClassIndividual {
			continue
		}
		k := KeyFor(o)
		groups[k] = append(groups[k], o)
	}

	var out []Cluster
	degenerate := 0
	for key, members := range groups {
		for _, comp := range e.components(members) {
			if len(comp) < 2 {
				continue
			}
			merged := e.merge(key, comp, hostByID)
			if min(merged.Width, merged.Height) < e.tol.MinMergedSize {
				e.logger.Warn("dropping degenerate cluster",
					"category", key.Category, "host_kind", key.HostKind,
					"members", len(comp),
					"size", fmt.Sprintf("%.1fx%.1f", merged.Width, merged.Height))
				degenerate++
				continue
			}
			out = append(out, Cluster{Key: key, Members: comp, Merged: merged})
		}
	}
	return out, degenerate
}

// =============================================================================
// Connected Components
// =============================================================================

type gridCell [3]int

// components splits one group into connected components under Adjacent.
// Each opening is inserted into every grid cell its expanded reach box
// touches, so adjacency tests run only against candidates sharing a cell
// instead of the whole group. The reach half-extent is half the opening's
// effective half-size plus half the gap: two adjacent openings' reach
// boxes always overlap, so sharing a cell is guaranteed.
func (e *Engine) components(members []model.Opening) [][]model.Opening {
	cell := e.tol.ClusterGap
	if cell <= 0 {
		cell = 1
	}

	grid := make(map[gridCell][]int)
	cells := make([][]gridCell, len(members))
	for i, o := range members {
		cells[i] = reachCells(o, e.tol.ClusterGap, cell)
		for _, c := range cells[i] {
			grid[c] = append(grid[c], i)
		}
	}

	visited := make([]bool, len(members))
	var comps [][]model.Opening
	for i := range members {
		if visited[i] {
			continue
		}
		visited[i] = true
		queue := []int{i}
		comp := []model.Opening{members[i]}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, c := range cells[cur] {
				for _, j := range grid[c] {
					if visited[j] || !Adjacent(members[cur], members[j], e.tol) {
						continue
					}
					visited[j] = true
					queue = append(queue, j)
					comp = append(comp, members[j])
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// reachCells lists every grid cell touched by the opening's reach box.
func reachCells(o model.Opening, gap, cell float64) []gridCell {
	half := (o.Width+o.Height)/4 + gap/2
	lo := gridCell{
		int(math.Floor((o.Position.X - half) / cell)),
		int(math.Floor((o.Position.Y - half) / cell)),
		int(math.Floor((o.Position.Z - half) / cell)),
	}
	hi := gridCell{
		int(math.Floor((o.Position.X + half) / cell)),
		int(math.Floor((o.Position.Y + half) / cell)),
		int(math.Floor((o.Position.Z + half) / cell)),
	}
	var out []gridCell
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				out = append(out, gridCell{x, y, z})
			}
		}
	}
	return out
}

// =============================================================================
// Merging
// =============================================================================

// merge computes the merged opening covering every member's face extent
// on the host plane.
func (e *Engine) merge(key GroupKey, members []model.Opening, hostByID map[string]model.StructuralHost) model.Opening {
	axis := members[0].Axis
	if l := axis.Length(); l > 0 {
		axis = axis.DivScalar(l)
	} else {
		axis = v3.Vec{X: 1}
	}
	normal := v3.Vec{X: -axis.Y, Y: axis.X}
	origin := members[0].Position

	var minA, maxA, minB, maxB = math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	offN, depth := 0.0, 0.0
	level := members[0].Level
	for _, m := range members {
		rel := m.Position.Sub(origin)
		a := rel.Dot(axis)
		minA = math.Min(minA, a-m.Width/2)
		maxA = math.Max(maxA, a+m.Width/2)

		// Second face dimension: vertical in walls, across-axis in slabs.
		var b float64
		if key.HostKind == model.HostWall {
			b = rel.Z
		} else {
			b = rel.Dot(normal)
		}
		minB = math.Min(minB, b-m.Height/2)
		maxB = math.Max(maxB, b+m.Height/2)

		offN += rel.Dot(normal)
		depth = math.Max(depth, m.Depth)
		level = math.Min(level, m.Level)
	}
	offN /= float64(len(members))

	if t := hostThickness(members, hostByID); t > 0 {
		depth = t
	}

	width := maxA - minA
	height := maxB - minB
	centerA := (minA + maxA) / 2
	centerB := (minB + maxB) / 2

	var center v3.Vec
	if key.HostKind == model.HostWall {
		center = origin.Add(axis.MulScalar(centerA)).Add(normal.MulScalar(offN))
		center.Z = origin.Z + centerB
	} else {
		center = origin.Add(axis.MulScalar(centerA)).Add(normal.MulScalar(centerB))
	}

	merged := model.Opening{
		Class:    model.ClassCluster,
		Category: key.Category,
		HostKind: key.HostKind,
		HostID:   members[0].HostID,
		Position: center,
		Axis:     axis,
		Width:    width,
		Height:   height,
		Depth:    depth,
		Level:    level,
	}

	if key.HostKind == model.HostWall {
		ratio := width / height
		tall := ratio < aspectSwap
		nearlySquare := ratio >= aspectSwap && ratio <= aspectKeep
		if tall || nearlySquare {
			// The recorded pair reorients toward the tall template; the
			// geometry keeps the member-derived union so Box stays true
			// to the covered extent.
			extent := merged.Box()
			merged.Extent = &extent
			merged.Width, merged.Height = merged.Height, merged.Width
		}
	}
	return merged
}

// hostThickness returns the greatest thickness among the members' hosts,
// or 0 when none resolve.
func hostThickness(members []model.Opening, hostByID map[string]model.StructuralHost) float64 {
	t := 0.0
	for _, m := range members {
		if h, ok := hostByID[m.HostID]; ok {
			t = math.Max(t, h.Thickness)
		}
	}
	return t
}
