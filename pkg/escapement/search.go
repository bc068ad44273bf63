package escapement

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/geom"
)

const (
	liftSearchMin   = 1.0 // degrees
	liftSearchMax   = 6.0
	liftSearchSteps = 100
)

// PalletError scores how far the pallets are from the ideal layout: entry
// face horizontal, exit face vertical, faces at right angles. The result
// is the mean deviation in degrees.
func (g Geometry) PalletError() float64 {
	entry, exit := g.PalletAngles()
	entryDeg, exitDeg := geom.RadToDeg(entry), geom.RadToDeg(exit)
	entryErr := math.Abs(entryDeg)
	exitErr := math.Abs(-90 - exitDeg)
	rightAngleErr := math.Abs(90 - (entryDeg - exitDeg))
	return (entryErr + exitErr + rightAngleErr) / 3
}

// With45DegPallets picks the lift that brings the pallets of a deadbeat
// anchor closest to 45° either side of the line of centres, for the given
// drop and lock. Lift is searched between 1° and 6°.
func With45DegPallets(teeth int, diameter, drop, lock float64, opts ...Option) (Geometry, error) {
	var best Geometry
	bestErr := math.Inf(1)
	found := false
	var lastErr error
	for i := 0; i < liftSearchSteps; i++ {
		liftDeg := liftSearchMin + (liftSearchMax-liftSearchMin)*float64(i)/float64(liftSearchSteps-1)
		g, err := New(Deadbeat(), teeth, diameter, geom.DegToRad(liftDeg), drop, lock, opts...)
		if err != nil {
			if fault.KindOf(err) == fault.KindInvalidConstraint {
				return Geometry{}, err
			}
			lastErr = err
			continue
		}
		if e := g.PalletError(); e < bestErr {
			best, bestErr, found = g, e, true
		}
	}
	if !found {
		return Geometry{}, fault.SearchExhausted("escapement.With45DegPallets",
			"no lift between %.0f° and %.0f° gives a valid anchor: %v", liftSearchMin, liftSearchMax, lastErr)
	}
	return best, nil
}
