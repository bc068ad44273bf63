package escapement

import (
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/geom"
)

// AnchorOutline traces the anchor counter-clockwise: closing arc off the
// entry pallet, bottom of the top arm, arc down to the exit pallet, exit
// pallet face, arc at the exit radius, shoulders and apex of the top arm,
// locking arc at the entry radius and the entry pallet face.
func (g Geometry) AnchorOutline() *geom.Path {
	c := g.AnchorCentre()
	p, a := g.pallets, g.arms
	return geom.Trace(p.EntryEnd, func(pen geom.Pen) {
		pen.ArcAboutTo(c, a.InnerLeft, true)
		pen.LineTo(a.Bottom)
		pen.LineTo(a.InnerRight)
		pen.ArcAboutTo(c, p.ExitStart, true)
		pen.LineTo(p.ExitEnd)
		pen.ArcAboutTo(c, a.OuterRight, false)
		pen.LineTo(a.ShoulderRight)
		pen.LineTo(a.Top)
		pen.LineTo(a.ShoulderLeft)
		pen.LineTo(a.OuterLeft)
		pen.ArcAboutTo(c, p.EntryStart, false)
		pen.LineTo(p.EntryEnd)
	})
}

// WheelToothOutline traces the escape wheel counter-clockwise. Teeth lean
// back against the clockwise rotation, and the wheel is turned so the
// first tooth tip finishes on the positive x axis. Teeth are visited last
// to first since the wheel is laid out in the clockwise direction.
func (g Geometry) WheelToothOutline() *geom.Path {
	step := -g.toothAngle
	tip := -g.cfg.toothTipAngle
	base := -g.cfg.toothBaseAngle
	tipArc := -(g.cfg.toothTipWidth / g.diameter)
	turn := -tip - tipArc

	outer, inner := g.radius, g.innerRadius
	at := func(angle, r float64) geom.Vec { return geom.Polar(angle+turn, r) }

	return geom.Trace(at(0, inner), func(pen geom.Pen) {
		for i := g.teeth - 1; i >= 0 && !pen.Stopped(); i-- {
			angle := step * float64(i)
			pen.ArcAboutTo(geom.Origin, at(angle+base, inner), false)
			pen.LineTo(at(angle+tip+tipArc, outer))
			pen.LineTo(at(angle+tip, outer))
			pen.LineTo(at(angle, inner))
		}
	})
}

// WheelProfile is the escape wheel viewed as a toothed part.
type WheelProfile struct {
	g Geometry
}

var _ gearing.ToothProfile = WheelProfile{}

// WheelProfile returns the escape wheel tooth profile.
func (g Geometry) WheelProfile() WheelProfile { return WheelProfile{g: g} }

func (w WheelProfile) TeethCount() int     { return w.g.teeth }
func (w WheelProfile) Outline() *geom.Path { return w.g.WheelToothOutline() }
func (w WheelProfile) MaxRadius() float64  { return w.g.radius }
func (w WheelProfile) MinRadius() float64  { return w.g.innerRadius }
func (w WheelProfile) Geometry() Geometry  { return w.g }
