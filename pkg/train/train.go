// Package train searches for wheel and pinion tooth counts. GoingTrain
// finds the stages between the escape wheel and the minute wheel;
// PowerTrain finds the one or two stages between the power source and the
// minute wheel.
//
// Both solvers expose a lazy candidate sequence so callers can stop early,
// and a Solve method that collects and ranks everything.
package train

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/gearing"
)

// Range is a half-open tooth count range [Min, Max).
type Range struct {
	Min int `mapstructure:"min" toml:"min"`
	Max int `mapstructure:"max" toml:"max"`
}

// Len returns the number of tooth counts in the range.
func (r Range) Len() int {
	if r.Max <= r.Min {
		return 0
	}
	return r.Max - r.Min
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Min, r.Max)
}

func (r Range) validate(op, name string) error {
	if r.Min < 1 {
		return fault.InvalidConstraint(op, "%s range %s must start at 1 or more", name, r)
	}
	if r.Min > r.Max {
		return fault.InvalidConstraint(op, "%s range %s has min above max", name, r)
	}
	return nil
}

// Candidate is one complete train.
type Candidate struct {
	Stages       []gearing.Stage
	TotalRatio   float64
	TotalTime    float64 // seconds per minute wheel turn; zero for power trains
	Error        float64
	WeightedCost float64
	IntegerRatio bool
}

func (c Candidate) String() string {
	parts := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s ratio=%.4f error=%.4g cost=%.2f",
		strings.Join(parts, " "), c.TotalRatio, c.Error, c.WeightedCost)
}

// WheelTeeth lists the wheel tooth counts in stage order.
func (c Candidate) WheelTeeth() []int {
	out := make([]int, len(c.Stages))
	for i, s := range c.Stages {
		out[i] = s.WheelTeeth
	}
	return out
}

type pair struct {
	wheel, pinion int
}

func (p pair) integer() bool {
	return p.wheel%p.pinion == 0
}

// combos lists every (wheel, pinion) pair, pinions in the outer loop.
func combos(pinions, wheels Range) []pair {
	out := make([]pair, 0, pinions.Len()*wheels.Len())
	for p := pinions.Min; p < pinions.Max; p++ {
		for w := wheels.Min; w < wheels.Max; w++ {
			out = append(out, pair{wheel: w, pinion: p})
		}
	}
	return out
}

// ctxCheckEvery is how many search nodes pass between context checks.
const ctxCheckEvery = 1024

// walker enumerates one pair per level depth first. admit decides whether
// a pair may extend the current branch; a rejected pair prunes everything
// below it. emit receives each complete branch and returns false to stop.
type walker struct {
	ctx      context.Context
	levels   [][]pair
	admit    func(level int, p pair, prevSize float64) (size float64, ok bool)
	emit     func(path []pair) bool
	progress func(done, total int)

	nodes int
	err   error
}

func (w *walker) run() {
	if len(w.levels) == 0 {
		return
	}
	if err := w.ctx.Err(); err != nil {
		w.err = err
		return
	}
	path := make([]pair, len(w.levels))
	w.walk(0, path, 0)
}

func (w *walker) walk(level int, path []pair, prevSize float64) bool {
	last := level == len(w.levels)-1
	for i, p := range w.levels[level] {
		if level == 0 && w.progress != nil {
			w.progress(i, len(w.levels[0]))
		}
		w.nodes++
		if w.nodes%ctxCheckEvery == 0 {
			if err := w.ctx.Err(); err != nil {
				w.err = err
				return false
			}
		}
		size, ok := w.admit(level, p, prevSize)
		if !ok {
			continue
		}
		path[level] = p
		if last {
			if !w.emit(path) {
				return false
			}
			continue
		}
		if !w.walk(level+1, path, size) {
			return false
		}
	}
	return true
}

// stddev is the population standard deviation.
func stddev(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += float64(x)
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := float64(x) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func byErrorThenCost(a, b Candidate) int {
	if c := cmp.Compare(a.Error, b.Error); c != 0 {
		return c
	}
	return cmp.Compare(a.WeightedCost, b.WeightedCost)
}

func byCost(a, b Candidate) int {
	return cmp.Compare(a.WeightedCost, b.WeightedCost)
}

func logger(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}
