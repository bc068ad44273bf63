package gearing

import (
	"fmt"
	"math"

	"github.com/chazu/horologe/pkg/geom"
)

// ProfileKind tags a cycloidal profile as the driving or driven gear.
type ProfileKind int

const (
	Wheel ProfileKind = iota
	Pinion
)

func (k ProfileKind) String() string {
	if k == Pinion {
		return "pinion"
	}
	return "wheel"
}

// ToothProfile is anything that can trace the 2D outline of a toothed
// part: cycloidal wheels and pinions here, escape wheels in package
// escapement.
type ToothProfile interface {
	TeethCount() int
	Outline() *geom.Path
	MaxRadius() float64
	MinRadius() float64
}

// Profile is the cycloidal tooth form of one gear.
type Profile struct {
	Kind                 ProfileKind
	Teeth                int
	Module               float64
	AddendumFactor       float64
	AddendumRadiusFactor float64
	DedendumFactor       float64
	ToothAngleFactor     float64
}

var _ ToothProfile = Profile{}

func (p Profile) String() string {
	return fmt.Sprintf("%s(%d teeth, m=%.3f)", p.Kind, p.Teeth, p.Module)
}

// TeethCount returns the number of teeth.
func (p Profile) TeethCount() int { return p.Teeth }

// PitchRadius is module·teeth/2.
func (p Profile) PitchRadius() float64 {
	return p.Module * float64(p.Teeth) / 2
}

// PitchDiameter is module·teeth.
func (p Profile) PitchDiameter() float64 {
	return p.Module * float64(p.Teeth)
}

// ToothAngle is the angle subtended by one tooth at the pitch circle.
func (p Profile) ToothAngle() float64 {
	return p.ToothAngleFactor / (float64(p.Teeth) / 2)
}

// GapAngle is the angle subtended by the gap between two teeth.
func (p Profile) GapAngle() float64 {
	return (math.Pi - p.ToothAngleFactor) / (float64(p.Teeth) / 2)
}

// MaxRadius encloses the theoretical tooth tips.
func (p Profile) MaxRadius() float64 {
	return p.PitchRadius() + p.AddendumFactor*p.Module
}

// MinRadius is the root circle; a hole of this radius clears the teeth.
func (p Profile) MinRadius() float64 {
	return p.PitchRadius() - p.DedendumFactor*p.Module
}

// OutlineRadius is the radius of the drawn tooth tips, using the
// practical addendum of 0.95·af.
func (p Profile) OutlineRadius() float64 {
	return p.PitchRadius() + 0.95*p.AddendumFactor*p.Module
}

// Outline traces one full revolution of teeth, counter-clockwise from
// (MinRadius, 0). Each tooth is five segments: the root arc across the
// gap, the rising flank, two addendum arcs meeting at the tip and the
// falling flank.
func (p Profile) Outline() *geom.Path {
	pitch := p.PitchRadius()
	inner := p.MinRadius()
	outer := p.OutlineRadius()
	addendumRadius := p.AddendumRadiusFactor * p.Module
	tooth, gap := p.ToothAngle(), p.GapAngle()

	return geom.Trace(geom.Vec{X: inner}, func(pen geom.Pen) {
		for t := 0; t < p.Teeth && !pen.Stopped(); t++ {
			start := (tooth+gap)*float64(t) + gap
			tip := start + tooth/2
			end := (tooth + gap) * float64(t+1)

			pen.ArcAboutTo(geom.Origin, geom.Polar(start, inner), false)
			pen.LineTo(geom.Polar(start, pitch))
			pen.ArcTo(geom.Polar(tip, outer), addendumRadius, false)
			pen.ArcTo(geom.Polar(end, pitch), addendumRadius, false)
			pen.LineTo(geom.Polar(end, inner))
		}
	})
}
