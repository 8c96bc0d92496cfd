package render

import (
	"strings"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/openmep/sleever/pkg/geom"
	"github.com/openmep/sleever/pkg/model"
)

func testOpening(id string, class model.OpeningClass, x, y float64) model.Opening {
	return model.Opening{
		ID:       id,
		Class:    class,
		Category: model.CategoryPipe,
		HostKind: model.HostWall,
		Position: v3.Vec{X: x, Y: y, Z: 1500},
		Axis:     v3.Vec{Y: 1},
		Width:    150,
		Height:   150,
		Depth:    200,
	}
}

func TestRenderPlanSVGContainsOpenings(t *testing.T) {
	out := string(RenderPlanSVG([]model.Opening{
		testOpening("op-1", model.ClassIndividual, 0, 0),
		testOpening("op-2", model.ClassCluster, 500, 0),
	}))

	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Fatalf("output is not a complete svg document:\n%s", out)
	}
	if !strings.Contains(out, `id="opening-op-1"`) {
		t.Error("missing rect for op-1")
	}
	if !strings.Contains(out, `class="opening individual"`) {
		t.Error("missing individual class")
	}
	if !strings.Contains(out, `class="opening cluster"`) {
		t.Error("missing cluster class")
	}
}

func TestRenderPlanSVGDrawsHostsBehindOpenings(t *testing.T) {
	host := model.StructuralHost{
		ID:        "wall-1",
		Kind:      model.HostWall,
		Transform: geom.Identity(),
		Box: sdf.Box3{
			Min: v3.Vec{X: -100, Y: -1000},
			Max: v3.Vec{X: 100, Y: 1000, Z: 3000},
		},
	}

	out := string(RenderPlanSVG(
		[]model.Opening{testOpening("op-1", model.ClassIndividual, 0, 0)},
		WithHosts([]model.StructuralHost{host}),
		WithTitle("level 1"),
	))

	hostAt := strings.Index(out, `class="host"`)
	openingAt := strings.Index(out, `class="opening`)
	if hostAt == -1 || openingAt == -1 {
		t.Fatalf("missing host or opening rect:\n%s", out)
	}
	if hostAt > openingAt {
		t.Error("host must be drawn before openings")
	}
	if !strings.Contains(out, "level 1") {
		t.Error("missing title")
	}
}

func TestRenderPlanSVGEmptyInput(t *testing.T) {
	out := string(RenderPlanSVG(nil))
	if !strings.Contains(out, "<svg") {
		t.Fatalf("expected a valid svg shell, got:\n%s", out)
	}
}
