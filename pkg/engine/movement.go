package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/escapement"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/timing"
	"github.com/chazu/horologe/pkg/train"
)

// goingSpec remembers what a going train was solved for so the movement
// that holds it can record its timing.
type goingSpec struct {
	escapementTime float64
	targetTime     float64
	tolerance      float64
}

// builder adds solver results to a movement graph. It is shared by the
// DSL builtins and manifest loading.
type builder struct {
	ctx   context.Context
	g     *graph.MovementGraph
	log   *slog.Logger
	going map[graph.NodeID]goingSpec

	// lastErr is the most recent builtin failure, kept so evaluation
	// errors still unwrap to the solver's fault.
	lastErr error
}

func newBuilder(ctx context.Context, g *graph.MovementGraph, log *slog.Logger) *builder {
	return &builder{ctx: ctx, g: g, log: log, going: make(map[graph.NodeID]goingSpec)}
}

func (b *builder) fail(err error) error {
	b.lastErr = err
	return err
}

func (b *builder) addPendulum(name string, period float64) (*graph.Node, error) {
	if !(period > 0) {
		return nil, fmt.Errorf("pendulum period must be positive, got %g", period)
	}
	n := graph.NewNode(graph.NodePendulum, name, graph.PendulumData{
		Period: period,
		Length: timing.PendulumLength(period),
	})
	b.g.AddNode(n)
	return n, nil
}

func (b *builder) addEscapement(name string, geo escapement.Geometry) *graph.Node {
	n := graph.NewNode(graph.NodeEscapement, name, graph.EscapementData{
		Family:   geo.Family().String(),
		Teeth:    geo.Teeth(),
		Diameter: geo.Diameter(),
		Lift:     geo.Lift(),
		Drop:     geo.Drop(),
		Lock:     geo.Lock(),
	})
	b.g.AddNode(n)
	return n
}

// addTrain adds one stage node per candidate stage and the train node
// above them.
func (b *builder) addTrain(name string, role graph.TrainRole, c train.Candidate) *graph.Node {
	ids := make([]graph.NodeID, len(c.Stages))
	for i, s := range c.Stages {
		n := graph.NewNode(graph.NodeStage, "", graph.StageData{
			Role:        role,
			Index:       i,
			WheelTeeth:  s.WheelTeeth,
			PinionTeeth: s.PinionTeeth,
			Module:      s.Module,
		})
		b.g.AddNode(n)
		ids[i] = n.ID
	}
	n := graph.NewNode(graph.NodeTrain, name, graph.TrainData{
		Role:         role,
		TotalRatio:   c.TotalRatio,
		Error:        c.Error,
		WeightedCost: c.WeightedCost,
	}, ids...)
	b.g.AddNode(n)
	return n
}

func pickCandidate(cands []train.Candidate, pick int) (train.Candidate, error) {
	if pick < 0 || pick >= len(cands) {
		return train.Candidate{}, fmt.Errorf("pick %d out of range, %d candidates", pick, len(cands))
	}
	return cands[pick], nil
}

// solveGoing runs the going train search and adds the pick'th best train.
func (b *builder) solveGoing(name string, opts train.GoingOptions, pick int) (*graph.Node, error) {
	opts.Logger = b.log
	cands, err := train.GoingTrain(opts).Solve(b.ctx)
	if err != nil {
		return nil, err
	}
	c, err := pickCandidate(cands, pick)
	if err != nil {
		return nil, err
	}
	n := b.addTrain(name, graph.RoleGoing, c)
	b.going[n.ID] = goingSpec{
		escapementTime: opts.EscapementTime,
		targetTime:     opts.TargetTime,
		tolerance:      opts.ErrorTolerance,
	}
	return n, nil
}

// solvePower runs the power train search and adds the pick'th best train.
func (b *builder) solvePower(name string, opts train.PowerOptions, pick int) (*graph.Node, error) {
	opts.Logger = b.log
	cands, err := train.PowerTrain(opts).Solve(b.ctx)
	if err != nil {
		return nil, err
	}
	c, err := pickCandidate(cands, pick)
	if err != nil {
		return nil, err
	}
	return b.addTrain(name, graph.RolePower, c), nil
}

// addMovement groups children under a new root. Timing is taken from the
// first going train among them.
func (b *builder) addMovement(name, description string, children []graph.NodeID) (*graph.Node, error) {
	md := graph.MovementData{Description: description}
	timed := false
	for _, id := range children {
		if b.g.Get(id) == nil {
			return nil, fmt.Errorf("movement %q: child %s does not exist", name, id.Short())
		}
		if gt, ok := b.going[id]; ok && !timed {
			md.EscapementTime = gt.escapementTime
			md.TargetTime = gt.targetTime
			md.Tolerance = gt.tolerance
			timed = true
		}
	}
	n := graph.NewNode(graph.NodeMovement, name, md, children...)
	b.g.AddNode(n)
	b.g.AddRoot(n.ID)
	return n, nil
}

// BuildManifest solves the trains a manifest describes and returns the
// movement graph: pendulum, escapement, going train and, when the
// manifest has a [power] table, the power train.
func BuildManifest(ctx context.Context, m config.Manifest) (*graph.MovementGraph, error) {
	cfg := m.Config(config.Default())
	b := newBuilder(ctx, graph.New(), slog.Default().With("component", "engine"))

	period, err := cfg.Pendulum.EffectivePeriod()
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", m.Movement.Name, err)
	}
	pend, err := b.addPendulum("", period)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", m.Movement.Name, err)
	}

	geo, err := cfg.Escapement.Geometry()
	if err != nil {
		return nil, fmt.Errorf("manifest %q: escapement: %w", m.Movement.Name, err)
	}
	esc := b.addEscapement("", geo)

	opts, err := cfg.GoingOptions()
	if err != nil {
		return nil, fmt.Errorf("manifest %q: going train: %w", m.Movement.Name, err)
	}
	going, err := b.solveGoing("", opts, 0)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: going train: %w", m.Movement.Name, err)
	}
	children := []graph.NodeID{pend.ID, esc.ID, going.ID}

	if m.HasPower {
		popts, err := cfg.Power.Options()
		if err != nil {
			return nil, fmt.Errorf("manifest %q: power train: %w", m.Movement.Name, err)
		}
		power, err := b.solvePower("", popts, 0)
		if err != nil {
			return nil, fmt.Errorf("manifest %q: power train: %w", m.Movement.Name, err)
		}
		children = append(children, power.ID)
	}

	if _, err := b.addMovement(m.Movement.Name, m.Movement.Description, children); err != nil {
		return nil, err
	}
	return b.g, nil
}
