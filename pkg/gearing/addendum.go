// Package gearing builds cycloidal tooth profiles for meshing wheel and
// pinion pairs. Wheel addendum factors come from a fixed-point solve of
// the epicycloid contact condition; pinion factors come from the BS 978
// ogival table.
package gearing

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
)

const (
	// MaxAddendumIterations caps the wheel addendum fixed-point solve.
	MaxAddendumIterations = 1000

	addendumTolerance = 1e-6
	addendumStart     = 1.0
)

// WheelAddendumFactor returns the addendum factor of a wheel with
// wheelTeeth driving a pinion with pinionTeeth leaves.
func WheelAddendumFactor(wheelTeeth, pinionTeeth int) (float64, error) {
	if pinionTeeth < 1 {
		return 0, fault.InvalidConstraint("gearing.WheelAddendumFactor",
			"pinion must have at least one leaf, got %d", pinionTeeth)
	}
	ratio := float64(wheelTeeth) / float64(pinionTeeth)
	return solveAddendum(ratio, pinionTeeth, MaxAddendumIterations)
}

func solveAddendum(ratio float64, pinionTeeth, maxIter int) (float64, error) {
	p := float64(pinionTeeth)
	k := 1 + 2*ratio
	theta := addendumStart
	converged := false
	for i := 0; i < maxIter; i++ {
		next := math.Pi/p + 2*ratio*math.Atan2(math.Sin(theta), k-math.Cos(theta))
		delta := math.Abs(next - theta)
		theta = next
		if delta < addendumTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, fault.NumericNonConvergence("gearing.WheelAddendumFactor",
			"addendum solve for ratio %.4f and %d leaves did not settle in %d iterations",
			ratio, pinionTeeth, maxIter)
	}
	return p / 4 * (1 - k + math.Sqrt(1+k*k-2*k*math.Cos(theta))), nil
}

// pinionFactors is the BS 978 pinion table: addendum factor and addendum
// radius factor keyed by leaf count.
func pinionFactors(leaves int) (addendum, radius float64) {
	switch leaves {
	case 6, 7: // high ogival
		return 0.855, 1.05
	case 8, 9: // medium ogival
		return 0.67, 0.7
	default: // round top
		return 0.625, 0.625
	}
}

func pinionToothFactor(leaves int) float64 {
	if leaves <= 10 {
		return 1.05
	}
	return 1.25
}
