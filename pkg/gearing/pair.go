package gearing

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
)

type options struct {
	looseArbours   bool
	reducedJamming bool
}

// Option adjusts how a pair is cut.
type Option func(*options)

// WithLooseArbours lengthens the wheel addendum and uses the high ogival
// pinion form, for trains such as motion works that mesh with play.
func WithLooseArbours() Option {
	return func(o *options) { o.looseArbours = true }
}

// WithReducedJamming shortens the wheel addendum where depthing is likely
// to be inaccurate.
func WithReducedJamming() Option {
	return func(o *options) { o.reducedJamming = true }
}

func resolve(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Pair is a wheel cut to drive a specific pinion.
type Pair struct {
	Wheel  Profile
	Pinion Profile
	Module float64
}

// NewPair derives both profiles of a meshing pair.
func NewPair(wheelTeeth, pinionTeeth int, module float64, opts ...Option) (Pair, error) {
	return newPair(wheelTeeth, pinionTeeth, module, resolve(opts))
}

func newPair(wheelTeeth, pinionTeeth int, module float64, o options) (Pair, error) {
	af, err := WheelAddendumFactor(wheelTeeth, pinionTeeth)
	if err != nil {
		return Pair{}, err
	}
	if o.looseArbours {
		af *= 1.2
	}
	switch {
	case pinionTeeth > 22:
		af *= 0.4
	case pinionTeeth > 20 || o.reducedJamming:
		af *= 0.7
	}

	wheel := Profile{
		Kind:                 Wheel,
		Teeth:                wheelTeeth,
		Module:               module,
		AddendumFactor:       af,
		AddendumRadiusFactor: 1.4 * af,
		DedendumFactor:       math.Pi / 2,
		ToothAngleFactor:     math.Pi / 2,
	}

	// pinion root clears the practical wheel addendum
	dedendum := af*0.95 + 0.4
	if module < 0.9 {
		dedendum *= 1.1
	}
	pa, pr := pinionFactors(pinionTeeth)
	if o.looseArbours {
		pa, pr = pinionFactors(6)
	}
	pinion := Profile{
		Kind:                 Pinion,
		Teeth:                pinionTeeth,
		Module:               module,
		AddendumFactor:       pa,
		AddendumRadiusFactor: pr,
		DedendumFactor:       dedendum,
		ToothAngleFactor:     pinionToothFactor(pinionTeeth),
	}
	return Pair{Wheel: wheel, Pinion: pinion, Module: module}, nil
}

// Ratio is wheel teeth over pinion leaves.
func (p Pair) Ratio() float64 {
	return float64(p.Wheel.Teeth) / float64(p.Pinion.Teeth)
}

// CentreDistance is the sum of the pitch radii.
func (p Pair) CentreDistance() float64 {
	return p.Wheel.PitchRadius() + p.Pinion.PitchRadius()
}

// Stage returns the pair as a train stage.
func (p Pair) Stage() Stage {
	return Stage{WheelTeeth: p.Wheel.Teeth, PinionTeeth: p.Pinion.Teeth, Module: p.Module}
}

// Build returns the profile of one gear of a meshing pair. teeth is the
// gear being built and partner the gear it meshes with; when isWheel is
// false teeth are pinion leaves and partner is the driving wheel.
//
// Module and tooth counts are not range-checked beyond what the addendum
// solve needs: a non-positive module or very small tooth count yields a
// degenerate but well-defined outline.
func Build(teeth, partner int, module float64, isWheel bool, opts ...Option) (Profile, error) {
	if partner < 1 {
		return Profile{}, fault.InvalidConstraint("gearing.Build",
			"partner gear must have at least one tooth, got %d", partner)
	}
	if isWheel {
		pair, err := NewPair(teeth, partner, module, opts...)
		if err != nil {
			return Profile{}, err
		}
		return pair.Wheel, nil
	}
	pair, err := NewPair(partner, teeth, module, opts...)
	if err != nil {
		return Profile{}, err
	}
	return pair.Pinion, nil
}

// ModuleForCentreDistance returns the module that spaces a wheel and
// pinion the given distance apart.
func ModuleForCentreDistance(distance float64, wheelTeeth, pinionTeeth int) (float64, error) {
	if wheelTeeth+pinionTeeth < 1 {
		return 0, fault.InvalidConstraint("gearing.ModuleForCentreDistance",
			"no teeth to space: wheel %d, pinion %d", wheelTeeth, pinionTeeth)
	}
	return distance / (float64(wheelTeeth+pinionTeeth) / 2), nil
}

// ReplacementModule returns the module for a new wheel and pinion that
// keeps the centre distance of an existing pair.
func ReplacementModule(oldWheel, oldPinion int, oldModule float64, newWheel, newPinion int) (float64, error) {
	distance := Stage{WheelTeeth: oldWheel, PinionTeeth: oldPinion, Module: oldModule}.CentreDistance()
	return ModuleForCentreDistance(distance, newWheel, newPinion)
}
