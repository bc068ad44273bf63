package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/horologe/pkg/escapement"
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/kernel"
	"github.com/chazu/horologe/pkg/kernel/sdfx"
	"github.com/chazu/horologe/pkg/tessellate"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New()
}

func deg(d float64) float64 { return d * math.Pi / 180 }

// makeTrain adds stages and their train node.
func makeTrain(g *graph.MovementGraph, role graph.TrainRole, stages ...graph.StageData) *graph.Node {
	var ids []graph.NodeID
	for i, s := range stages {
		s.Role = role
		s.Index = i
		n := graph.NewNode(graph.NodeStage, "", s)
		g.AddNode(n)
		ids = append(ids, n.ID)
	}
	train := graph.NewNode(graph.NodeTrain, "", graph.TrainData{Role: role}, ids...)
	g.AddNode(train)
	return train
}

// makeMovement builds a movement with a pendulum, escapement, two stage
// going train and one stage power train.
func makeMovement() *graph.MovementGraph {
	g := graph.New()
	pend := graph.NewNode(graph.NodePendulum, "", graph.PendulumData{Period: 2})
	esc := graph.NewNode(graph.NodeEscapement, "", graph.EscapementData{
		Family: "deadbeat", Teeth: 30, Diameter: 100, Lift: deg(4), Drop: deg(2), Lock: deg(2),
	})
	g.AddNode(pend)
	g.AddNode(esc)
	going := makeTrain(g, graph.RoleGoing,
		graph.StageData{WheelTeeth: 96, PinionTeeth: 10, Module: 1},
		graph.StageData{WheelTeeth: 75, PinionTeeth: 12, Module: 0.85},
	)
	power := makeTrain(g, graph.RolePower, graph.StageData{WheelTeeth: 25, PinionTeeth: 10, Module: 1})
	mv := graph.NewNode(graph.NodeMovement, "regulator", graph.MovementData{}, pend.ID, esc.ID, going.ID, power.ID)
	g.AddNode(mv)
	g.AddRoot(mv.ID)
	return g
}

func TestFlattenSquare(t *testing.T) {
	p := geom.Trace(geom.Vec{X: 0, Y: 0}, func(pen geom.Pen) {
		pen.LineTo(geom.Vec{X: 10, Y: 0})
		pen.LineTo(geom.Vec{X: 10, Y: 10})
		pen.LineTo(geom.Vec{X: 0, Y: 10})
	})
	pts := tessellate.Flatten(p, 0.01)
	if len(pts) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(pts), pts)
	}
}

func TestFlattenArcStaysWithinTolerance(t *testing.T) {
	const r, tol = 20.0, 0.05
	p := geom.Trace(geom.Vec{X: r, Y: 0}, func(pen geom.Pen) {
		pen.ArcAboutTo(geom.Origin, geom.Vec{X: -r, Y: 0}, false)
	})
	pts := tessellate.Flatten(p, tol)
	if len(pts) < 10 {
		t.Fatalf("half circle of radius %v flattened to only %d vertices", r, len(pts))
	}
	for i := range pts {
		if d := math.Hypot(pts[i].X, pts[i].Y); math.Abs(d-r) > 1e-9 {
			t.Errorf("vertex %d at radius %v, want %v", i, d, r)
		}
		j := (i + 1) % len(pts)
		mid := pts[i].Add(pts[j]).MulScalar(0.5)
		if j != 0 && r-math.Hypot(mid.X, mid.Y) > tol {
			t.Errorf("chord %d sags %v below the arc, tolerance %v", i, r-math.Hypot(mid.X, mid.Y), tol)
		}
	}
}

func TestOutlineGearProfile(t *testing.T) {
	prof, err := gearing.Build(60, 10, 1, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	o, err := tessellate.Outline(prof.Outline(), newKernel())
	if err != nil {
		t.Fatalf("Outline failed: %v", err)
	}
	if o.IsEmpty() {
		t.Fatal("outline should not be empty")
	}
	if o.VertexCount() < 5*prof.Teeth {
		t.Errorf("expected at least %d vertices, got %d", 5*prof.Teeth, o.VertexCount())
	}

	area := math.Abs(o.Area())
	lo := math.Pi * prof.MinRadius() * prof.MinRadius()
	hi := math.Pi * prof.MaxRadius() * prof.MaxRadius()
	if area <= lo || area >= hi {
		t.Errorf("area %.1f outside (%.1f, %.1f)", area, lo, hi)
	}
	if !o.Shape.Contains(geom.Origin) {
		t.Error("wheel shape should contain its arbour")
	}
	if o.Shape.Contains(geom.Vec{X: prof.MaxRadius() + 1, Y: 0}) {
		t.Error("wheel shape should end inside its addendum circle")
	}
}

func TestOutlineConsumedPath(t *testing.T) {
	prof, err := gearing.Build(60, 10, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	p := prof.Outline()
	geom.Collect(p)
	if _, err := tessellate.Outline(p, newKernel()); err == nil {
		t.Fatal("expected error for consumed path")
	}
}

func TestMovement(t *testing.T) {
	g := makeMovement()
	tess := tessellate.New(newKernel())
	outlines, err := tess.Movement(g)
	if err != nil {
		t.Fatalf("Movement failed: %v", err)
	}

	want := []string{
		"regulator/escapement/wheel",
		"regulator/escapement/anchor",
		"regulator/going/stage0/wheel",
		"regulator/going/stage0/pinion",
		"regulator/going/stage1/wheel",
		"regulator/going/stage1/pinion",
		"regulator/power/stage0/wheel",
		"regulator/power/stage0/pinion",
	}
	if len(outlines) != len(want) {
		names := make([]string, len(outlines))
		for i, o := range outlines {
			names[i] = o.PartName
		}
		t.Fatalf("got parts %v, want %v", names, want)
	}
	for i, o := range outlines {
		if o.PartName != want[i] {
			t.Errorf("part %d = %q, want %q", i, o.PartName, want[i])
		}
		if o.IsEmpty() {
			t.Errorf("part %q has no vertices", o.PartName)
		}
		// every part winds counter-clockwise
		if o.Area() <= 0 {
			t.Errorf("part %q: signed area %.1f, want positive", o.PartName, o.Area())
		}
	}
}

func TestMovementPlacesPinionOnNextArbour(t *testing.T) {
	outlines, err := tessellate.Movement(makeMovement(), newKernel())
	if err != nil {
		t.Fatalf("Movement failed: %v", err)
	}
	wheel, _ := gearing.Build(96, 10, 1, true)
	pinion, _ := gearing.Build(10, 96, 1, false)
	centre := geom.Vec{X: wheel.PitchRadius() + pinion.PitchRadius(), Y: 0}

	var found bool
	for _, o := range outlines {
		if o.PartName != "regulator/going/stage0/pinion" {
			continue
		}
		found = true
		if !o.Shape.Contains(centre) {
			t.Errorf("pinion shape should contain its arbour at %v", centre)
		}
		if o.Shape.Contains(geom.Origin) {
			t.Error("pinion shape should have moved off the wheel arbour")
		}
	}
	if !found {
		t.Fatal("no stage0 pinion outline")
	}
}

func TestMovementAnchorAroundPivot(t *testing.T) {
	outlines, err := tessellate.Movement(makeMovement(), newKernel())
	if err != nil {
		t.Fatalf("Movement failed: %v", err)
	}
	geo, err := escapement.New(escapement.Deadbeat(), 30, 100, deg(4), deg(2), deg(2))
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range outlines {
		if strings.HasSuffix(o.PartName, "/anchor") && !o.Shape.Contains(geo.AnchorCentre()) {
			t.Errorf("anchor should surround its pivot at %v", geo.AnchorCentre())
		}
		if o.PartName == "regulator/escapement/wheel" && !o.Shape.Contains(geom.Origin) {
			t.Error("escape wheel should contain its arbour")
		}
	}
}

func TestMovementReusesProfiles(t *testing.T) {
	g := graph.New()
	train := makeTrain(g, graph.RoleGoing,
		graph.StageData{WheelTeeth: 64, PinionTeeth: 8, Module: 1},
		graph.StageData{WheelTeeth: 64, PinionTeeth: 8, Module: 1},
	)
	g.AddRoot(train.ID)

	tess := tessellate.New(newKernel())
	if _, err := tess.Movement(g); err != nil {
		t.Fatalf("Movement failed: %v", err)
	}
	if tess.Cache().Len() != 2 {
		t.Errorf("cache holds %d profiles, want 2", tess.Cache().Len())
	}
	if tess.Cache().Hits() != 2 {
		t.Errorf("cache hits = %d, want 2", tess.Cache().Hits())
	}
}

func TestMovementNilAndBadNodes(t *testing.T) {
	outlines, err := tessellate.Movement(nil, newKernel())
	if err != nil || outlines != nil {
		t.Errorf("nil graph should give nil, nil; got %v, %v", outlines, err)
	}

	g := graph.New()
	esc := graph.NewNode(graph.NodeEscapement, "", graph.EscapementData{Family: "recoil", Teeth: 30, Diameter: 100})
	g.AddNode(esc)
	g.AddRoot(esc.ID)
	if _, err := tessellate.Movement(g, newKernel()); err == nil {
		t.Error("expected error for unsupported escapement family")
	}
}
