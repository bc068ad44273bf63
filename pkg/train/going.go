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
	"github.com/chazu/horologe/pkg/timing"
)

// Search defaults.
const (
	DefaultModuleReduction = 0.85
	DefaultErrorTolerance  = 0.1
	DefaultSizeMargin      = 0.9
	DefaultModule          = 1.0

	integerRatioPenalty = 100
	unfavouredSizeScale = 0.3
	progressEvery       = 50
)

// GoingOptions configures the going train search.
type GoingOptions struct {
	Stages         int     // meshing stages, one fewer than wheels
	Pinions        Range   // pinion leaves, half-open
	Wheels         Range   // wheel teeth, half-open
	TargetTime     float64 // seconds per minute wheel turn
	EscapementTime float64 // seconds per escape wheel turn
	ErrorTolerance float64

	// ModuleReduction shrinks the module of each successive stage. It
	// drives both the size prune and the module of returned stages.
	ModuleReduction float64
	// Module is the module of the first stage.
	Module float64
	// SizeMargin is how much smaller each stage must be than the last.
	SizeMargin float64

	AllowIntegerRatio bool
	FavourSmallest    bool

	// SecondsHand asks for the wheel before the escape wheel to turn once
	// a minute when the escape wheel itself does not.
	SecondsHand bool
	// PenultimateWheelMinRatio rejects trains whose last wheel has fewer
	// than this fraction of the previous wheel's teeth. Seconds hand mode
	// only.
	PenultimateWheelMinRatio float64

	// Accept, when set, is a final filter on otherwise valid candidates.
	Accept func(Candidate) bool

	Logger *slog.Logger
}

// DefaultGoingOptions returns the usual search for a three wheel train
// driven by a 30 tooth escape wheel on a one second pendulum.
func DefaultGoingOptions() GoingOptions {
	return GoingOptions{
		Stages:          2,
		Pinions:         Range{Min: 10, Max: 20},
		Wheels:          Range{Min: 50, Max: 100},
		TargetTime:      timing.TargetTime(1),
		EscapementTime:  timing.EscapementTime(2, 30),
		ErrorTolerance:  DefaultErrorTolerance,
		ModuleReduction: DefaultModuleReduction,
		Module:          DefaultModule,
		SizeMargin:      DefaultSizeMargin,
		FavourSmallest:  true,
	}
}

// Going searches going trains.
type Going struct {
	opts GoingOptions
	log  *slog.Logger
}

// GoingTrain prepares a going train search. Inputs are validated when the
// search runs.
func GoingTrain(opts GoingOptions) *Going {
	if opts.Module == 0 {
		opts.Module = DefaultModule
	}
	if opts.SizeMargin == 0 {
		opts.SizeMargin = DefaultSizeMargin
	}
	return &Going{opts: opts, log: logger(opts.Logger, "train.going")}
}

func (g *Going) validate() error {
	const op = "train.GoingTrain"
	o := g.opts
	if o.Stages < 1 {
		return fault.InvalidConstraint(op, "need at least one stage, got %d", o.Stages)
	}
	if err := o.Pinions.validate(op, "pinion"); err != nil {
		return err
	}
	if err := o.Wheels.validate(op, "wheel"); err != nil {
		return err
	}
	if !(o.ErrorTolerance > 0) {
		return fault.InvalidConstraint(op, "error tolerance must be positive, got %g", o.ErrorTolerance)
	}
	if !(o.EscapementTime > 0) {
		return fault.InvalidConstraint(op, "escapement time must be positive, got %g", o.EscapementTime)
	}
	if !(o.TargetTime > 0) {
		return fault.InvalidConstraint(op, "target time must be positive, got %g", o.TargetTime)
	}
	if !(o.ModuleReduction > 0) {
		return fault.InvalidConstraint(op, "module reduction must be positive, got %g", o.ModuleReduction)
	}
	return nil
}

// secondsMode reports whether the last stage must put a seconds hand on
// the wheel before the escape wheel.
func (g *Going) secondsMode() bool {
	return g.opts.SecondsHand && !timing.SecondsHandOnEscapeWheel(g.opts.EscapementTime)
}

// secondsCombos lists last-stage pairs that turn the penultimate wheel
// exactly once a minute. The ranges are widened since such stages are
// often small ratios.
func (g *Going) secondsCombos() []pair {
	o := g.opts
	var out []pair
	for p := o.Pinions.Min; p < o.Pinions.Max*3; p++ {
		for w := o.Pinions.Max; w < o.Wheels.Max*4; w++ {
			// exact equality: periods that only approximate a minute are skipped
			if o.EscapementTime/(float64(p)/float64(w)) == 60 {
				out = append(out, pair{wheel: w, pinion: p})
			}
		}
	}
	return out
}

func (g *Going) levels() [][]pair {
	o := g.opts
	all := combos(o.Pinions, o.Wheels)
	levels := make([][]pair, o.Stages)
	for i := range levels {
		levels[i] = all
	}
	if g.secondsMode() {
		levels[o.Stages-1] = g.secondsCombos()
	}
	return levels
}

// Candidates yields every valid train in enumeration order. A single
// error is yielded, and the sequence ends, when the options are invalid
// or ctx is cancelled.
func (g *Going) Candidates(ctx context.Context) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		if err := g.validate(); err != nil {
			yield(Candidate{}, err)
			return
		}
		o := g.opts
		seconds := g.secondsMode()

		stopped := false
		w := &walker{
			ctx:    ctx,
			levels: g.levels(),
			admit: func(level int, p pair, prevSize float64) (float64, bool) {
				if p.integer() && !o.AllowIntegerRatio {
					return 0, false
				}
				size := math.Pow(o.ModuleReduction, float64(level)) * float64(p.wheel)
				if level > 0 && size > prevSize*o.SizeMargin {
					return 0, false
				}
				return size, true
			},
			emit: func(path []pair) bool {
				c, ok := g.score(path, seconds)
				if !ok {
					return true
				}
				if !yield(c, nil) {
					stopped = true
					return false
				}
				return true
			},
			progress: func(done, total int) {
				if done%progressEvery == 0 {
					g.log.Debug("searching going trains",
						"percent", fmt.Sprintf("%.1f", 100*float64(done)/float64(total)))
				}
			},
		}
		w.run()
		if w.err != nil && !stopped {
			yield(Candidate{}, fmt.Errorf("train.GoingTrain: %w", w.err))
		}
	}
}

func (g *Going) score(path []pair, seconds bool) (Candidate, bool) {
	o := g.opts
	stages := make([]gearing.Stage, len(path))
	wheels := make([]int, len(path))
	ratio := 1.0
	cost := 0.0
	integer := false
	for i, p := range path {
		stages[i] = gearing.Stage{
			WheelTeeth:  p.wheel,
			PinionTeeth: p.pinion,
			Module:      o.Module * math.Pow(o.ModuleReduction, float64(i)),
		}
		wheels[i] = p.wheel
		ratio *= float64(p.wheel) / float64(p.pinion)
		integer = integer || p.integer()
		size := math.Pow(o.ModuleReduction, float64(i)) * float64(p.wheel)
		if o.FavourSmallest {
			cost += size
		} else {
			cost += size * unfavouredSizeScale
		}
	}
	cost += stddev(wheels)
	if integer {
		cost += integerRatioPenalty
	}

	if seconds && len(path) >= 2 {
		last, prev := path[len(path)-1], path[len(path)-2]
		if float64(last.wheel) < float64(prev.wheel)*o.PenultimateWheelMinRatio {
			return Candidate{}, false
		}
	}

	total := ratio * o.EscapementTime
	c := Candidate{
		Stages:       stages,
		TotalRatio:   ratio,
		TotalTime:    total,
		Error:        math.Abs(o.TargetTime - total),
		WeightedCost: cost,
		IntegerRatio: integer,
	}
	if c.Error >= o.ErrorTolerance {
		return Candidate{}, false
	}
	if o.Accept != nil && !o.Accept(c) {
		return Candidate{}, false
	}
	return c, true
}

// Solve runs the whole search and returns the candidates ordered by
// error, then weighted cost.
func (g *Going) Solve(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	for c, err := range g.Candidates(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fault.SearchExhausted("train.GoingTrain",
			"no %d stage train within %g s of %g s", g.opts.Stages, g.opts.ErrorTolerance, g.opts.TargetTime)
	}
	slices.SortStableFunc(out, byErrorThenCost)
	g.log.Info("going train solved", "candidates", len(out), "best", out[0].String())
	return out, nil
}
