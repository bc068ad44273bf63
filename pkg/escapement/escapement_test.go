package escapement

import (
	"math"
	"testing"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func deg(d float64) float64 { return geom.DegToRad(d) }

// signedArea flattens a path and returns its shoelace area, positive for
// a counter-clockwise outline.
func signedArea(p *geom.Path) float64 {
	var pts []geom.Vec
	for _, seg := range geom.Collect(p) {
		n := 1
		if seg.Kind == geom.SegmentArc {
			n = 16
		}
		for i := 0; i < n; i++ {
			pts = append(pts, seg.PointAt(float64(i)/float64(n)))
		}
	}
	var a float64
	for i, v := range pts {
		w := pts[(i+1)%len(pts)]
		a += v.X*w.Y - w.X*v.Y
	}
	return a / 2
}

type DeadbeatSuite struct {
	suite.Suite
	g Geometry
}

func (s *DeadbeatSuite) SetupTest() {
	g, err := New(Deadbeat(), 30, 100, deg(4), deg(2), deg(2))
	s.Require().NoError(err)
	s.g = g
}

func (s *DeadbeatSuite) TestDerivedValues() {
	wheelAngle := 2 * math.Pi * (math.Floor(30.0/4) + 0.5) / 30
	s.InDelta(7.5, s.g.AnchorTeeth(), 1e-12)
	s.InDelta(wheelAngle, s.g.WheelAngle(), 1e-12)
	s.InDelta(50/math.Cos(wheelAngle/2), s.g.AnchorCentreDistance(), 1e-12)
	s.InDelta(70.71067811865474, s.g.AnchorCentreDistance(), 1e-9)
	s.InDelta(math.Pi-wheelAngle, s.g.AnchorAngle(), 1e-12)
	s.InDelta(40, s.g.InnerRadius(), 1e-12)
	s.InDelta(5, s.g.ArmThickness(), 1e-12)

	base, mid, top := s.g.TopThickness()
	above := s.g.AnchorCentreDistance() - 50
	s.InDelta(above*0.6, base, 1e-12)
	s.InDelta(above*0.1, mid, 1e-12)
	s.InDelta(above*0.75, top, 1e-12)
}

func (s *DeadbeatSuite) TestPalletCorners() {
	p := s.g.Pallets()
	s.InDelta(-37.251361444108575, p.EntryStart.X, 1e-9)
	s.InDelta(34.73745652579808, p.EntryStart.Y, 1e-9)
	s.InDelta(-32.3917939896107, p.EntryEnd.X, 1e-9)
	s.InDelta(34.695134285916346, p.ExitStart.X, 1e-9)
	s.InDelta(32.27344883670804, p.ExitEnd.Y, 1e-9)
}

func (s *DeadbeatSuite) TestPalletRadiiMatchVectorNorms() {
	p := s.g.Pallets()
	c := s.g.AnchorCentre()
	es, ee, xs, xe := s.g.PalletRadii()
	s.InDelta(math.Hypot(p.EntryStart.X-c.X, p.EntryStart.Y-c.Y), es, 1e-12)
	s.InDelta(math.Hypot(p.EntryEnd.X-c.X, p.EntryEnd.Y-c.Y), ee, 1e-12)
	s.InDelta(math.Hypot(p.ExitStart.X-c.X, p.ExitStart.Y-c.Y), xs, 1e-12)
	s.InDelta(math.Hypot(p.ExitEnd.X-c.X, p.ExitEnd.Y-c.Y), xe, 1e-12)
	s.InDelta(math.Max(es, xe), s.g.LargestAnchorRadius(), 1e-12)
	s.InDelta(51.78548639540221, s.g.LargestAnchorRadius(), 1e-9)
}

func (s *DeadbeatSuite) TestPalletAngles() {
	entry, exit := s.g.PalletAngles()
	s.InDelta(-0.01780559655517508, geom.RadToDeg(entry), 1e-9)
	s.InDelta(-91.0, geom.RadToDeg(exit), 1e-9)
}

func (s *DeadbeatSuite) TestIdempotent() {
	again, err := New(Deadbeat(), 30, 100, deg(4), deg(2), deg(2))
	s.Require().NoError(err)
	s.Equal(s.g, again)
}

func (s *DeadbeatSuite) TestWithDiameterRecomputesEverything() {
	bigger, err := s.g.WithDiameter(120)
	s.Require().NoError(err)
	fresh, err := New(Deadbeat(), 30, 120, deg(4), deg(2), deg(2))
	s.Require().NoError(err)
	s.Equal(fresh, bigger)
	s.InDelta(60/math.Cos(s.g.WheelAngle()/2), bigger.AnchorCentreDistance(), 1e-12)
	// original untouched
	s.InDelta(100, s.g.Diameter(), 0)
}

func (s *DeadbeatSuite) TestWithTiming() {
	g, err := s.g.WithTiming(deg(3), deg(1.5), deg(1))
	s.Require().NoError(err)
	fresh, err := New(Deadbeat(), 30, 100, deg(3), deg(1.5), deg(1))
	s.Require().NoError(err)
	s.Equal(fresh, g)
	s.NotEqual(s.g.Pallets(), g.Pallets())
}

func (s *DeadbeatSuite) TestAnchorOutlineClosed() {
	segs := geom.Collect(s.g.AnchorOutline())
	s.Require().Len(segs, 12)
	for i := 1; i < len(segs); i++ {
		s.InDelta(0, geom.Distance(segs[i-1].End, segs[i].Start), 1e-9, "gap before segment %d", i)
	}
	s.InDelta(0, geom.Distance(segs[len(segs)-1].End, segs[0].Start), 1e-9)

	c := s.g.AnchorCentre()
	for i, seg := range segs {
		if seg.Kind != geom.SegmentArc {
			continue
		}
		s.InDelta(0, geom.Distance(seg.Centre, c), 1e-12, "arc %d not about the pivot", i)
		s.InDelta(seg.Radius, geom.Distance(c, seg.End), 1e-9, "arc %d ends off its circle", i)
	}
}

func (s *DeadbeatSuite) TestWheelToothOutline() {
	segs := geom.Collect(s.g.WheelToothOutline())
	s.Require().Len(segs, 4*30)
	for i, seg := range segs {
		switch i % 4 {
		case 1, 2:
			s.InDelta(50, seg.End.Length(), 1e-9, "tip segment %d", i)
		case 0, 3:
			s.InDelta(40, seg.End.Length(), 1e-9, "base segment %d", i)
		}
	}
	s.InDelta(0, geom.Distance(segs[len(segs)-1].End, segs[0].Start), 1e-9)
	// the first tooth is traced last and its tip finishes on the x axis
	tip := segs[len(segs)-3].End
	s.InDelta(0, tip.Y, 1e-9)
	s.Greater(tip.X, 0.0)
}

func (s *DeadbeatSuite) TestOutlinesAreCounterClockwise() {
	anchor := signedArea(s.g.AnchorOutline())
	s.Greater(anchor, 0.0, "anchor area %v", anchor)

	wheel := signedArea(s.g.WheelToothOutline())
	s.Greater(wheel, 0.0, "wheel area %v", wheel)
	// between the root circle and the tip circle
	s.Greater(wheel, math.Pi*40*40)
	s.Less(wheel, math.Pi*50*50)
}

func (s *DeadbeatSuite) TestTopArm() {
	base, mid, top := s.g.TopThickness()
	c := s.g.AnchorCentreDistance()
	a := s.g.Arms()
	s.InDelta(c+top, a.Top.Y, 1e-12)
	s.InDelta(c-base, a.Bottom.Y, 1e-12)
	s.InDelta(c-mid, a.ShoulderLeft.Y, 1e-12)
	s.InDelta(c-mid, a.ShoulderRight.Y, 1e-12)
	s.InDelta(a.OuterLeft.X, a.ShoulderLeft.X, 0)
	s.InDelta(a.OuterRight.X, a.ShoulderRight.X, 0)
	// the inner edge stays clear of the wheel
	s.Greater(a.Bottom.Y, s.g.Radius())
}

func (s *DeadbeatSuite) TestTopArmFractions() {
	g, err := New(Deadbeat(), 30, 100, deg(4), deg(2), deg(2), WithTopArmFractions(0.5, 0.2, 1))
	s.Require().NoError(err)

	above := g.AnchorCentreDistance() - g.Radius()
	base, mid, top := g.TopThickness()
	s.InDelta(above*0.5, base, 1e-12)
	s.InDelta(above*0.2, mid, 1e-12)
	s.InDelta(above, top, 1e-12)

	s.Greater(g.Arms().Top.Y, s.g.Arms().Top.Y)
	s.Greater(g.Arms().Bottom.Y, s.g.Arms().Bottom.Y)
	s.Less(g.Arms().ShoulderLeft.Y, s.g.Arms().ShoulderLeft.Y)
	// pallets do not depend on the top arm
	s.Equal(s.g.Pallets(), g.Pallets())

	// options survive a rebuild
	wider, err := g.WithDiameter(120)
	s.Require().NoError(err)
	b2, _, _ := wider.TopThickness()
	s.InDelta((wider.AnchorCentreDistance()-wider.Radius())*0.5, b2, 1e-12)
}

func (s *DeadbeatSuite) TestWheelProfile() {
	w := s.g.WheelProfile()
	s.Equal(30, w.TeethCount())
	s.InDelta(50, w.MaxRadius(), 0)
	s.InDelta(40, w.MinRadius(), 0)
	s.Len(geom.Collect(w.Outline()), 120)
}

func TestDeadbeatSuite(t *testing.T) {
	suite.Run(t, new(DeadbeatSuite))
}

func TestUnsupportedFamilies(t *testing.T) {
	for _, f := range []Family{Recoil(), Brocot(), {}} {
		_, err := New(f, 30, 100, deg(4), deg(2), deg(2))
		assert.ErrorIs(t, err, fault.ErrInvalidConstraint, f.String())
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(Deadbeat(), 3, 100, deg(4), deg(2), deg(2))
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)
	_, err = New(Deadbeat(), 30, 0, deg(4), deg(2), deg(2))
	assert.ErrorIs(t, err, fault.ErrInvalidConstraint)

	for _, f := range [][3]float64{{1, 0.1, 0.75}, {0, 0.1, 0.75}, {0.6, -0.1, 0.75}, {0.6, 0.1, 0}} {
		_, err = New(Deadbeat(), 30, 100, deg(4), deg(2), deg(2), WithTopArmFractions(f[0], f[1], f[2]))
		assert.ErrorIs(t, err, fault.ErrInvalidConstraint, "fractions %v", f)
	}
}

func TestParallelRaysAreDegenerate(t *testing.T) {
	// Zero pallet thickness and a half-turn lift line the entry
	// pallet's anchor ray up with its wheel ray.
	_, err := New(Deadbeat(), 30, 100, math.Pi, math.Pi/30, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrGeometricDegeneracy)
	assert.Equal(t, fault.KindGeometricDegeneracy, fault.KindOf(err))
}

func TestWith45DegPallets(t *testing.T) {
	g, err := With45DegPallets(30, 100, deg(2), deg(2))
	require.NoError(t, err)
	assert.InDelta(t, 3.98, geom.RadToDeg(g.Lift()), 0.01)
	assert.Less(t, g.PalletError(), 1.0)

	other, err := New(Deadbeat(), 30, 100, deg(5), deg(2), deg(2))
	require.NoError(t, err)
	assert.Less(t, g.PalletError(), other.PalletError())
}

func TestParseFamily(t *testing.T) {
	f, ok := ParseFamily("deadbeat")
	assert.True(t, ok)
	assert.True(t, f.Supported())
	f, ok = ParseFamily("recoil")
	assert.True(t, ok)
	assert.False(t, f.Supported())
	_, ok = ParseFamily("grasshopper")
	assert.False(t, ok)
}
