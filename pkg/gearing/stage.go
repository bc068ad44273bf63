package gearing

import "fmt"

// Stage is one wheel driving one pinion.
type Stage struct {
	WheelTeeth  int
	PinionTeeth int
	Module      float64
}

func (s Stage) String() string {
	return fmt.Sprintf("%d/%d", s.WheelTeeth, s.PinionTeeth)
}

// Ratio is the speed-up across the stage.
func (s Stage) Ratio() float64 {
	return float64(s.WheelTeeth) / float64(s.PinionTeeth)
}

// IntegerRatio reports whether the wheel teeth are an exact multiple of
// the pinion leaves, which wears the same teeth against each other.
func (s Stage) IntegerRatio() bool {
	return s.PinionTeeth > 0 && s.WheelTeeth%s.PinionTeeth == 0
}

// CentreDistance is module·(wheel+pinion)/2.
func (s Stage) CentreDistance() float64 {
	return s.Module * float64(s.WheelTeeth+s.PinionTeeth) / 2
}

// Pair cuts the stage's profiles.
func (s Stage) Pair(opts ...Option) (Pair, error) {
	return NewPair(s.WheelTeeth, s.PinionTeeth, s.Module, opts...)
}
