// Package timing holds the clock arithmetic that ties the escapement,
// going train and power source together: pendulum period and length,
// per-rotation escape wheel time, seconds-hand checks and how many turns
// a weight cord or chain gives.
package timing

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/gearing"
)

// Gravity in m/s².
const Gravity = 9.81

// SecondsPerHour is the time the minute wheel takes for one turn at a
// minute wheel ratio of 1.
const SecondsPerHour = 3600.0

// PendulumLength returns the length in metres of a simple pendulum with
// the given period (a full swing there and back) in seconds.
func PendulumLength(period float64) float64 {
	return Gravity * period * period / (4 * math.Pi * math.Pi)
}

// PendulumPeriod returns the period in seconds of a simple pendulum of
// the given length in metres.
func PendulumPeriod(length float64) float64 {
	return 2 * math.Pi * math.Sqrt(length/Gravity)
}

// EscapementTime is the time for one turn of the escape wheel.
func EscapementTime(pendulumPeriod float64, escapementTeeth int) float64 {
	return pendulumPeriod * float64(escapementTeeth)
}

// TargetTime is the time for one turn of the minute wheel. A minute wheel
// ratio below one means the minute wheel turns less than once an hour.
func TargetTime(minuteWheelRatio float64) float64 {
	return SecondsPerHour / minuteWheelRatio
}

// SecondsHandOnEscapeWheel reports whether the escape wheel itself turns
// once a minute.
//
// The comparison is exact. Periods that only approximate 60s, such as
// 2.0000001·30, do not qualify.
func SecondsHandOnEscapeWheel(escapementTime float64) bool {
	return escapementTime == 60
}

// SecondsHandOnWheel reports whether the wheel driving the escape wheel
// pinion through last turns exactly once a minute. Exact comparison, see
// SecondsHandOnEscapeWheel.
func SecondsHandOnWheel(escapementTime float64, last gearing.Stage) bool {
	return escapementTime/(float64(last.PinionTeeth)/float64(last.WheelTeeth)) == 60
}

// TotalRatio multiplies the stage ratios of a train.
func TotalRatio(stages []gearing.Stage) float64 {
	r := 1.0
	for _, s := range stages {
		r *= s.Ratio()
	}
	return r
}

// RecalculatePendulumPeriod returns the pendulum period that makes a
// going train exact: one minute wheel turn an hour.
func RecalculatePendulumPeriod(stages []gearing.Stage, escapementTeeth int) (float64, error) {
	if len(stages) == 0 || escapementTeeth < 1 {
		return 0, fault.InvalidConstraint("timing.RecalculatePendulumPeriod",
			"need at least one stage and one escape wheel tooth, got %d stages and %d teeth",
			len(stages), escapementTeeth)
	}
	escapeWheelSeconds := SecondsPerHour / TotalRatio(stages)
	return escapeWheelSeconds / float64(escapementTeeth), nil
}

// TurnsPerHour is how fast the power source arbor must turn to last
// runtimeHours given turns available.
func TurnsPerHour(turns, runtimeHours, minuteWheelRatio float64) float64 {
	return turns / (runtimeHours * minuteWheelRatio)
}

// DesiredPowerRatio is the ratio the power train needs between the power
// source arbor and the minute wheel.
func DesiredPowerRatio(turns, runtimeHours, minuteWheelRatio float64) (float64, error) {
	if turns <= 0 || runtimeHours <= 0 || minuteWheelRatio <= 0 {
		return 0, fault.InvalidConstraint("timing.DesiredPowerRatio",
			"turns %g, runtime %g h and minute wheel ratio %g must all be positive",
			turns, runtimeHours, minuteWheelRatio)
	}
	return 1 / TurnsPerHour(turns, runtimeHours, minuteWheelRatio), nil
}

// CordUsage is how much cord a weight drop pulls off the wheel. A pulley
// on the weight doubles it.
func CordUsage(drop float64, pulley bool) float64 {
	if pulley {
		return 2 * drop
	}
	return drop
}

// CordTurns is how many turns a cord wheel of the given circumference
// makes while paying out cordUsage.
func CordTurns(cordUsage, circumference float64) float64 {
	return cordUsage / circumference
}

// ChainCircumference is the effective circumference of a pocketed chain
// wheel: every pocket takes two links.
func ChainCircumference(pockets int, linkInsideLength float64) float64 {
	return float64(pockets) * linkInsideLength * 2
}

// ChainTurns is how many turns a chain wheel makes while paying out
// chainUsage.
func ChainTurns(chainUsage float64, pockets int, linkInsideLength float64) float64 {
	return chainUsage / ChainCircumference(pockets, linkInsideLength)
}

// RunTime is how many hours a power source lasts when its arbor turns
// once per 1/minuteWheelRatio hours.
func RunTime(minuteWheelRatio, usage, circumference float64) float64 {
	return minuteWheelRatio * usage / circumference
}
