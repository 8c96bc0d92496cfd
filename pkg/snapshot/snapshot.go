// Package snapshot reads document snapshots: JSON files describing the
// routing elements and structural hosts of one document, used to run the
// engine offline against an exported model instead of a live one.
//
// Host solids are rebuilt from their bounding boxes as signed distance
// fields, and linked-model placements (offset plus rotation about Z) are
// rebuilt into affine transforms, so a loaded snapshot behaves exactly
// like a live provider.
package snapshot

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/store"
)

// Vec is a JSON-friendly 3-vector.
type Vec [3]float64

func (v Vec) vec() v3.Vec { return v3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// Placement positions a linked document inside the host document: a
// translation plus a rotation about the vertical axis. A nil placement
// means the element is native to the host document.
type Placement struct {
	Offset       Vec     `json:"offset"`
	RotationZDeg float64 `json:"rotation_z_deg"`
}

func (p *Placement) matrix() sdf.M44 {
	if p == nil {
		return geom.Identity()
	}
	rot := sdf.RotateZ(p.RotationZDeg * math.Pi / 180)
	return geom.Compose(sdf.Translate3d(p.Offset.vec()), rot)
}

// Element is one routing element record.
type Element struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	Centerline []Vec      `json:"centerline"`
	Width      float64    `json:"width,omitempty"`
	Height     float64    `json:"height,omitempty"`
	Diameter   float64    `json:"diameter,omitempty"`
	Insulation float64    `json:"insulation,omitempty"`
	SourceDoc  string     `json:"source_doc,omitempty"`
	Placement  *Placement `json:"placement,omitempty"`
}

// Host is one structural host record. Box holds the min and max corners
// in source-document coordinates.
type Host struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Thickness  float64    `json:"thickness"`
	Box        [2]Vec     `json:"box"`
	Centerline []Vec      `json:"centerline,omitempty"`
	Level      float64    `json:"level"`
	SourceDoc  string     `json:"source_doc,omitempty"`
	Placement  *Placement `json:"placement,omitempty"`
}

// Document is a full snapshot. Openings lists the openings that already
// exist in the document, so a run can suppress against them.
type Document struct {
	Elements []Element       `json:"elements"`
	Hosts    []Host          `json:"hosts"`
	Openings []model.Opening `json:"openings,omitempty"`
}

// Load reads a snapshot file and converts it to a provider the pipeline
// can run against.
func Load(path string) (*store.StaticProvider, error) {
	p, _, err := LoadDocument(path)
	return p, err
}

// LoadDocument reads a snapshot file, returning the provider and the
// document's pre-existing openings.
func LoadDocument(path string) (*store.StaticProvider, []model.Opening, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput, "open snapshot %s", path)
	}
	defer f.Close()
	return ReadDocument(f)
}

// Read decodes a snapshot from r.
func Read(r io.Reader) (*store.StaticProvider, error) {
	p, _, err := ReadDocument(r)
	return p, err
}

// ReadDocument decodes a snapshot from r, returning the provider and the
// document's pre-existing openings.
func ReadDocument(r io.Reader) (*store.StaticProvider, []model.Opening, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput, "decode snapshot")
	}

	p := &store.StaticProvider{}
	for _, e := range doc.Elements {
		el, err := e.toModel()
		if err != nil {
			return nil, nil, err
		}
		p.Elements = append(p.Elements, el)
	}
	for _, h := range doc.Hosts {
		host, err := h.toModel()
		if err != nil {
			return nil, nil, err
		}
		p.Hosts = append(p.Hosts, host)
	}
	return p, doc.Openings, nil
}

func (e Element) toModel() (model.RoutingElement, error) {
	cat, err := model.ParseCategory(e.Category)
	if err != nil {
		return model.RoutingElement{}, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidCategory,
			"element %s", e.ID)
	}
	out := model.RoutingElement{
		ID:         e.ID,
		Category:   cat,
		Width:      e.Width,
		Height:     e.Height,
		Diameter:   e.Diameter,
		Insulation: e.Insulation,
		SourceDoc:  e.SourceDoc,
		Transform:  e.Placement.matrix(),
	}
	for _, p := range e.Centerline {
		out.Centerline = append(out.Centerline, p.vec())
	}
	return out, nil
}

func (h Host) toModel() (model.StructuralHost, error) {
	kind, err := model.ParseHostKind(h.Kind)
	if err != nil {
		return model.StructuralHost{}, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidHostKind,
			"host %s", h.ID)
	}

	box := sdf.Box3{Min: h.Box[0].vec(), Max: h.Box[1].vec()}
	solid, err := boxSolid(box)
	if err != nil {
		return model.StructuralHost{}, sleeverrors.Wrap(err, sleeverrors.ErrCodeGeometryUnavailable,
			"host %s solid", h.ID)
	}

	out := model.StructuralHost{
		ID:        h.ID,
		Kind:      kind,
		Solid:     solid,
		Box:       box,
		Thickness: h.Thickness,
		Level:     h.Level,
		SourceDoc: h.SourceDoc,
		Transform: h.Placement.matrix(),
	}
	for _, p := range h.Centerline {
		out.Centerline = append(out.Centerline, p.vec())
	}
	return out, nil
}

// boxSolid builds a distance field filling the box.
func boxSolid(b sdf.Box3) (sdf.SDF3, error) {
	s, err := sdf.Box3D(geom.Size(b), 0)
	if err != nil {
		return nil, err
	}
	return sdf.Transform3D(s, sdf.Translate3d(geom.Center(b))), nil
}

// ExportOpenings writes the placed openings as indented JSON, for diffing
// runs and feeding downstream coordination tools.
func ExportOpenings(w io.Writer, openings []model.Opening) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(openings); err != nil {
		return sleeverrors.Wrap(err, sleeverrors.ErrCodeInternal, "encode openings")
	}
	return nil
}

// ReadOpenings decodes an opening list written by ExportOpenings.
func ReadOpenings(r io.Reader) ([]model.Opening, error) {
	var out []model.Opening
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput, "decode openings")
	}
	return out, nil
}

// LoadOpenings reads an opening list file.
func LoadOpenings(path string) ([]model.Opening, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInvalidInput, "open openings %s", path)
	}
	defer f.Close()
	return ReadOpenings(f)
}
