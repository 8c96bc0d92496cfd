package snapshot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
)

const sample = `{
  "elements": [
    {
      "id": "pipe-1",
      "category": "pipe",
      "centerline": [[-500, 0, 1500], [500, 0, 1500]],
      "diameter": 100,
      "insulation": 25
    },
    {
      "id": "duct-1",
      "category": "duct",
      "centerline": [[0, 0, 0], [0, 1000, 0]],
      "width": 400,
      "height": 200,
      "source_doc": "mech.rvt",
      "placement": {"offset": [100, 0, 0], "rotation_z_deg": 90}
    }
  ],
  "hosts": [
    {
      "id": "wall-1",
      "kind": "wall",
      "thickness": 200,
      "box": [[-100, -1000, 0], [100, 1000, 3000]],
      "centerline": [[0, -1000, 0], [0, 1000, 0]],
      "level": 0
    }
  ]
}`

func TestReadBuildsProvider(t *testing.T) {
	p, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	pipes, _ := p.RoutingElements(context.Background(), model.CategoryPipe)
	if len(pipes) != 1 || pipes[0].ID != "pipe-1" {
		t.Fatalf("pipes = %+v, want one pipe-1", pipes)
	}
	if pipes[0].Diameter != 100 || pipes[0].Insulation != 25 {
		t.Errorf("pipe dims = %+v", pipes[0])
	}

	hosts, _ := p.StructuralHosts(context.Background())
	if len(hosts) != 1 {
		t.Fatalf("hosts = %d, want 1", len(hosts))
	}
	h := hosts[0]
	if h.Kind != model.HostWall || h.Thickness != 200 {
		t.Errorf("host = %+v", h)
	}
	if h.Solid == nil {
		t.Fatal("host solid must be rebuilt from the box")
	}
	// A point in the middle of the wall is inside the solid.
	if d := h.Solid.Evaluate(v3.Vec{Z: 1500}); d >= 0 {
		t.Errorf("wall interior distance = %g, want negative", d)
	}
	if d := h.Solid.Evaluate(v3.Vec{X: 500, Z: 1500}); d <= 0 {
		t.Errorf("outside distance = %g, want positive", d)
	}
}

func TestReadAppliesPlacement(t *testing.T) {
	p, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	ducts, _ := p.RoutingElements(context.Background(), model.CategoryDuct)
	if len(ducts) != 1 {
		t.Fatalf("ducts = %d, want 1", len(ducts))
	}

	// Link placement rotates 90 degrees about Z then offsets by +100 X:
	// local (0, 1000, 0) lands at (-1000+100, 0, 0).
	seg, ok := ducts[0].SegmentInHost()
	if !ok {
		t.Fatal("expected straight segment")
	}
	want := v3.Vec{X: -900}
	if seg.B.Sub(want).Length() > 1e-6 {
		t.Errorf("transformed endpoint = %v, want %v", seg.B, want)
	}
	if seg.A.Sub(v3.Vec{X: 100}).Length() > 1e-6 {
		t.Errorf("transformed start = %v, want (100,0,0)", seg.A)
	}
}

func TestReadDocumentReturnsExistingOpenings(t *testing.T) {
	doc := `{
	  "hosts": [],
	  "elements": [],
	  "openings": [
	    {"id": "op-1", "class": "individual", "category": "pipe", "host_kind": "wall",
	     "position": {"X": 0, "Y": 0, "Z": 1500}, "axis": {"X": 0, "Y": 1, "Z": 0},
	     "width": 150, "height": 150, "depth": 200}
	  ]
	}`
	_, openings, err := ReadDocument(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if len(openings) != 1 || openings[0].ID != "op-1" {
		t.Fatalf("openings = %+v, want one op-1", openings)
	}
	if openings[0].Class != model.ClassIndividual {
		t.Errorf("class = %q", openings[0].Class)
	}
}

func TestReadRejectsUnknownCategory(t *testing.T) {
	_, err := Read(strings.NewReader(`{"elements": [{"id": "x", "category": "conduit"}]}`))
	if sleeverrors.GetCode(err) != sleeverrors.ErrCodeInvalidCategory {
		t.Errorf("error = %v, want INVALID_CATEGORY", err)
	}
}

func TestReadRejectsMalformedJSON(t *testing.T) {
	_, err := Read(strings.NewReader(`{"elements": [`))
	if sleeverrors.GetCode(err) != sleeverrors.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestExportOpeningsRoundTrips(t *testing.T) {
	openings := []model.Opening{{
		ID: "op-1", Class: model.ClassIndividual, Category: model.CategoryPipe,
		HostKind: model.HostWall, Position: v3.Vec{X: 1.5},
		Axis: v3.Vec{X: 1}, Width: 150, Height: 150, Depth: 200,
	}}

	var buf bytes.Buffer
	if err := ExportOpenings(&buf, openings); err != nil {
		t.Fatalf("ExportOpenings: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"op-1"`, `"individual"`, `"pipe"`, `"wall"`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %s:\n%s", want, out)
		}
	}
}
