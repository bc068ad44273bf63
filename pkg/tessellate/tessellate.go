// Package tessellate flattens lazy part outlines into polygons and hands
// them to a shape kernel. Movement walks a movement graph and produces one
// outline per part: every stage wheel and pinion, the escape wheel and the
// anchor.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/horologe/pkg/escapement"
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/kernel"
)

// DefaultTolerance is the largest distance, in mm, a flattened arc may
// stray from the true arc.
const DefaultTolerance = 0.01

// minArcSteps keeps very flat arcs from collapsing to a single chord.
const minArcSteps = 2

// Flatten walks a path and returns its vertices. Arcs are split into chords
// no further than tol from the arc. The closing vertex is not repeated.
func Flatten(p *geom.Path, tol float64) []geom.Vec {
	if !(tol > 0) {
		tol = DefaultTolerance
	}
	var pts []geom.Vec
	add := func(v geom.Vec) {
		if n := len(pts); n > 0 && geom.Distance(pts[n-1], v) < 1e-9 {
			return
		}
		pts = append(pts, v)
	}
	for s := range p.Segments() {
		if len(pts) == 0 {
			add(s.Start)
		}
		if s.Kind == geom.SegmentArc {
			n := arcSteps(s.Radius, math.Abs(s.Sweep()), tol)
			for i := 1; i < n; i++ {
				add(s.PointAt(float64(i) / float64(n)))
			}
		}
		add(s.End)
	}
	if n := len(pts); n > 1 && geom.Distance(pts[0], pts[n-1]) < 1e-9 {
		pts = pts[:n-1]
	}
	return pts
}

// arcSteps returns how many chords keep the sagitta under tol.
func arcSteps(radius, sweep, tol float64) int {
	if radius <= tol {
		return minArcSteps
	}
	step := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(sweep / step))
	return max(n, minArcSteps)
}

// Outline flattens a path and builds the kernel shape for it.
func Outline(p *geom.Path, k kernel.Kernel) (*kernel.Outline, error) {
	return outline(p, k, DefaultTolerance)
}

func outline(p *geom.Path, k kernel.Kernel, tol float64) (*kernel.Outline, error) {
	if p.Consumed() {
		return nil, fmt.Errorf("tessellate: path already consumed")
	}
	pts := Flatten(p, tol)
	shape, err := k.Polygon(pts)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	verts := make([]float64, 0, 2*len(pts))
	for _, v := range pts {
		verts = append(verts, v.X, v.Y)
	}
	return &kernel.Outline{Vertices: verts, Shape: shape}, nil
}

// Tessellator turns movement graphs into part outlines. Profiles are built
// through a shared cache since trains often repeat pinions.
type Tessellator struct {
	kernel    kernel.Kernel
	cache     *gearing.Cache
	tolerance float64
}

// New returns a Tessellator using k.
func New(k kernel.Kernel) *Tessellator {
	return &Tessellator{kernel: k, cache: &gearing.Cache{}, tolerance: DefaultTolerance}
}

// WithTolerance sets the arc flattening tolerance in mm.
func (t *Tessellator) WithTolerance(tol float64) *Tessellator {
	t.tolerance = tol
	return t
}

// Cache exposes the profile cache, mainly for its hit count.
func (t *Tessellator) Cache() *gearing.Cache { return t.cache }

// Movement walks the movement graph with a fresh Tessellator.
func Movement(g *graph.MovementGraph, k kernel.Kernel) ([]*kernel.Outline, error) {
	return New(k).Movement(g)
}

// Movement walks the movement graph from its roots and produces one outline
// per part. The walk is read-only and never mutates the graph.
func (t *Tessellator) Movement(g *graph.MovementGraph) ([]*kernel.Outline, error) {
	if g == nil {
		return nil, nil
	}

	var outlines []*kernel.Outline
	seen := make(map[graph.NodeID]bool)
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := t.walkNode(g, root, "", seen)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		outlines = append(outlines, collected...)
	}

	return outlines, nil
}

// walkNode recursively traverses a node and its children. prefix is the
// slash-joined names of enclosing nodes.
func (t *Tessellator) walkNode(g *graph.MovementGraph, n *graph.Node, prefix string, seen map[graph.NodeID]bool) ([]*kernel.Outline, error) {
	if seen[n.ID] {
		return nil, nil
	}
	seen[n.ID] = true

	switch n.Kind {
	case graph.NodeMovement:
		return t.handleGroup(g, n, joinName(prefix, partName(n, "movement")), seen)

	case graph.NodeTrain:
		td, ok := n.Data.(graph.TrainData)
		if !ok {
			return nil, fmt.Errorf("train node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		return t.handleGroup(g, n, joinName(prefix, partName(n, td.Role.String())), seen)

	case graph.NodeStage:
		return t.handleStage(n, prefix)

	case graph.NodeEscapement:
		return t.handleEscapement(n, prefix)

	case graph.NodePendulum:
		// No outline: the pendulum is hung, not cut.
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handleGroup recurses into children.
func (t *Tessellator) handleGroup(g *graph.MovementGraph, n *graph.Node, prefix string, seen map[graph.NodeID]bool) ([]*kernel.Outline, error) {
	var outlines []*kernel.Outline
	for _, child := range g.Children(n) {
		collected, err := t.walkNode(g, child, prefix, seen)
		if err != nil {
			return nil, err
		}
		outlines = append(outlines, collected...)
	}
	return outlines, nil
}

// handleStage builds the wheel and the pinion it drives. The pinion sits on
// the next arbour, so the two outlines share the pitch point on the +x
// axis.
func (t *Tessellator) handleStage(n *graph.Node, prefix string) ([]*kernel.Outline, error) {
	sd, ok := n.Data.(graph.StageData)
	if !ok {
		return nil, fmt.Errorf("stage node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	wheel, err := t.cache.Build(sd.WheelTeeth, sd.PinionTeeth, sd.Module, true)
	if err != nil {
		return nil, fmt.Errorf("stage %s wheel: %w", n.ID.Short(), err)
	}
	pinion, err := t.cache.Build(sd.PinionTeeth, sd.WheelTeeth, sd.Module, false)
	if err != nil {
		return nil, fmt.Errorf("stage %s pinion: %w", n.ID.Short(), err)
	}

	base := joinName(prefix, fmt.Sprintf("stage%d", sd.Index))
	w, err := t.part(wheel.Outline(), base+"/wheel", geom.Origin)
	if err != nil {
		return nil, err
	}
	centre := geom.Vec{X: wheel.PitchRadius() + pinion.PitchRadius(), Y: 0}
	p, err := t.part(pinion.Outline(), base+"/pinion", centre)
	if err != nil {
		return nil, err
	}
	return []*kernel.Outline{w, p}, nil
}

// handleEscapement rebuilds the geometry and outlines the escape wheel and
// the anchor. The anchor is traced in the escape wheel's frame, pivot at
// AnchorCentre, so neither part is moved.
func (t *Tessellator) handleEscapement(n *graph.Node, prefix string) ([]*kernel.Outline, error) {
	ed, ok := n.Data.(graph.EscapementData)
	if !ok {
		return nil, fmt.Errorf("escapement node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	family, ok := escapement.ParseFamily(ed.Family)
	if !ok {
		return nil, fmt.Errorf("escapement node %s: unknown family %q", n.ID.Short(), ed.Family)
	}
	geo, err := escapement.New(family, ed.Teeth, ed.Diameter, ed.Lift, ed.Drop, ed.Lock)
	if err != nil {
		return nil, fmt.Errorf("escapement node %s: %w", n.ID.Short(), err)
	}

	base := joinName(prefix, partName(n, "escapement"))
	wheel, err := t.part(geo.WheelToothOutline(), base+"/wheel", geom.Origin)
	if err != nil {
		return nil, err
	}
	anchor, err := t.part(geo.AnchorOutline(), base+"/anchor", geom.Origin)
	if err != nil {
		return nil, err
	}
	return []*kernel.Outline{wheel, anchor}, nil
}

// part outlines a path and moves it to at. Vertices stay in the part's own
// frame; only the kernel shape is placed.
func (t *Tessellator) part(p *geom.Path, name string, at geom.Vec) (*kernel.Outline, error) {
	o, err := outline(p, t.kernel, t.tolerance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if at != geom.Origin {
		o.Shape = t.kernel.Translate(o.Shape, at)
	}
	o.PartName = name
	return o, nil
}

// partName prefers the node's Name, falling back to fallback.
func partName(n *graph.Node, fallback string) string {
	if n.Name != "" {
		return n.Name
	}
	return fallback
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
