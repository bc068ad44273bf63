package train

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"slices"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/gearing"
)

const (
	DefaultPowerModuleReduction = 1.1
	inaccurateTolerance         = 1.0
	toothRatioPenalty           = 100
	largeSecondWheelWeight      = 0.5
)

// PowerOptions configures the power train search.
type PowerOptions struct {
	Stages         int // 1 or 2
	Pinions        Range
	Wheels         Range
	DesiredRatio   float64
	ErrorTolerance float64
	// Inaccurate widens the tolerance to 1 so a smaller train can win.
	Inaccurate bool
	// PreferLargeSecondWheel favours a second wheel close in size to the
	// first, leaving room for a spring barrel.
	PreferLargeSecondWheel bool
	// ToothRatio, when positive, is the wanted first/second wheel teeth
	// ratio for two stage trains and overrides PreferLargeSecondWheel.
	ToothRatio      float64
	ModuleReduction float64
	Module          float64

	Logger *slog.Logger
}

// DefaultPowerOptions returns the usual one stage search for the given
// ratio.
func DefaultPowerOptions(desiredRatio float64) PowerOptions {
	return PowerOptions{
		Stages:                 1,
		Pinions:                Range{Min: 10, Max: 20},
		Wheels:                 Range{Min: 20, Max: 160},
		DesiredRatio:           desiredRatio,
		ErrorTolerance:         DefaultErrorTolerance,
		PreferLargeSecondWheel: true,
		ModuleReduction:        DefaultPowerModuleReduction,
		Module:                 DefaultModule,
	}
}

// Power searches power trains.
type Power struct {
	opts PowerOptions
	log  *slog.Logger
}

// PowerTrain prepares a power train search.
func PowerTrain(opts PowerOptions) *Power {
	if opts.ModuleReduction == 0 {
		opts.ModuleReduction = DefaultPowerModuleReduction
	}
	if opts.Module == 0 {
		opts.Module = DefaultModule
	}
	if opts.ErrorTolerance == 0 {
		opts.ErrorTolerance = DefaultErrorTolerance
	}
	if opts.Inaccurate {
		opts.ErrorTolerance = inaccurateTolerance
	}
	return &Power{opts: opts, log: logger(opts.Logger, "train.power")}
}

func (p *Power) validate() error {
	const op = "train.PowerTrain"
	o := p.opts
	if o.Stages != 1 && o.Stages != 2 {
		return fault.InvalidConstraint(op, "power trains have 1 or 2 stages, got %d", o.Stages)
	}
	if err := o.Pinions.validate(op, "pinion"); err != nil {
		return err
	}
	if err := o.Wheels.validate(op, "wheel"); err != nil {
		return err
	}
	if !(o.DesiredRatio > 0) {
		return fault.InvalidConstraint(op, "desired ratio must be positive, got %g", o.DesiredRatio)
	}
	if !(o.ErrorTolerance > 0) {
		return fault.InvalidConstraint(op, "error tolerance must be positive, got %g", o.ErrorTolerance)
	}
	return nil
}

// Candidates yields every valid power train in enumeration order. Stages
// are not pruned by size; only the weighted cost discourages large ones.
func (p *Power) Candidates(ctx context.Context) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		if err := p.validate(); err != nil {
			yield(Candidate{}, err)
			return
		}
		o := p.opts
		all := combos(o.Pinions, o.Wheels)
		levels := make([][]pair, o.Stages)
		for i := range levels {
			levels[i] = all
		}

		stopped := false
		w := &walker{
			ctx:    ctx,
			levels: levels,
			admit: func(_ int, pr pair, _ float64) (float64, bool) {
				return 0, !pr.integer()
			},
			emit: func(path []pair) bool {
				c, ok := p.score(path)
				if !ok {
					return true
				}
				if !yield(c, nil) {
					stopped = true
					return false
				}
				return true
			},
		}
		w.run()
		if w.err != nil && !stopped {
			yield(Candidate{}, fmt.Errorf("train.PowerTrain: %w", w.err))
		}
	}
}

func (p *Power) score(path []pair) (Candidate, bool) {
	o := p.opts
	stages := make([]gearing.Stage, len(path))
	ratio := 1.0
	cost := 0.0
	for i, pr := range path {
		scale := math.Pow(o.ModuleReduction, float64(i))
		stages[i] = gearing.Stage{WheelTeeth: pr.wheel, PinionTeeth: pr.pinion, Module: o.Module * scale}
		ratio *= float64(pr.wheel) / float64(pr.pinion)
		cost += scale * float64(pr.wheel)
	}
	if len(path) == 2 {
		w0, w1 := float64(path[0].wheel), float64(path[1].wheel)
		switch {
		case o.ToothRatio > 0:
			cost += math.Abs(o.ToothRatio-w0/w1) * toothRatioPenalty
		case o.PreferLargeSecondWheel:
			cost += (w0 - w1) * largeSecondWheelWeight
		default:
			cost += math.Abs(w0 - w1)
		}
	}
	c := Candidate{
		Stages:       stages,
		TotalRatio:   ratio,
		Error:        math.Abs(o.DesiredRatio - ratio),
		WeightedCost: cost,
	}
	if c.Error >= o.ErrorTolerance {
		return Candidate{}, false
	}
	return c, true
}

// Solve runs the whole search and returns the candidates ordered by
// weighted cost, cheapest first.
func (p *Power) Solve(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	for c, err := range p.Candidates(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fault.SearchExhausted("train.PowerTrain",
			"no %d stage power train within %g of ratio %g", p.opts.Stages, p.opts.ErrorTolerance, p.opts.DesiredRatio)
	}
	slices.SortStableFunc(out, byCost)
	p.log.Info("power train solved", "candidates", len(out), "best", out[0].String())
	return out, nil
}
