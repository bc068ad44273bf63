// Package escapement synthesizes anchor escapement geometry: pallet
// corners, the anchor outline and the escape wheel tooth outline.
//
// The anchor pivots at (0, AnchorCentreDistance) above the escape wheel
// centre at the origin and spans AnchorTeeth teeth. The wheel turns
// clockwise. Angles are radians throughout.
package escapement

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/geom"
)

const (
	DefaultRun                 = 10 * math.Pi / 180
	DefaultToothHeightFraction = 0.2
	DefaultToothTipAngle       = 5 * math.Pi / 180
	DefaultToothBaseAngle      = 4 * math.Pi / 180
	DefaultToothTipWidth       = 1.0
	DefaultArmThickness        = 0.05
)

// Default top arm thicknesses as fractions of the gap between the wheel
// rim and the anchor pivot.
var DefaultTopArmFractions = [3]float64{0.6, 0.1, 0.75}

type config struct {
	run                 float64
	anchorTeeth         float64
	toothHeightFraction float64
	toothTipAngle       float64
	toothBaseAngle      float64
	toothTipWidth       float64
	armThickness        float64
	topFractions        [3]float64
}

func defaults() config {
	return config{
		run:                 DefaultRun,
		toothHeightFraction: DefaultToothHeightFraction,
		toothTipAngle:       DefaultToothTipAngle,
		toothBaseAngle:      DefaultToothBaseAngle,
		toothTipWidth:       DefaultToothTipWidth,
		armThickness:        DefaultArmThickness,
		topFractions:        DefaultTopArmFractions,
	}
}

// Option tunes the anchor or escape wheel.
type Option func(*config)

// WithRun sets how far the anchor may keep moving towards the wheel
// after locking.
func WithRun(run float64) Option { return func(c *config) { c.run = run } }

// WithAnchorTeeth overrides the number of teeth spanned by the anchor.
func WithAnchorTeeth(n float64) Option { return func(c *config) { c.anchorTeeth = n } }

// WithToothHeightFraction sets tooth height as a fraction of diameter.
func WithToothHeightFraction(f float64) Option {
	return func(c *config) { c.toothHeightFraction = f }
}

// WithToothTipAngle sets the lean of the tooth tip.
func WithToothTipAngle(a float64) Option { return func(c *config) { c.toothTipAngle = a } }

// WithToothBaseAngle sets the lean of the tooth base.
func WithToothBaseAngle(a float64) Option { return func(c *config) { c.toothBaseAngle = a } }

// WithToothTipWidth sets the flat width of each tooth tip in mm.
func WithToothTipWidth(w float64) Option { return func(c *config) { c.toothTipWidth = w } }

// WithArmThickness sets anchor arm thickness as a fraction of diameter.
func WithArmThickness(f float64) Option { return func(c *config) { c.armThickness = f } }

// WithTopArmFractions sizes the anchor top arm. Each value is a fraction
// of the gap between the wheel rim and the pivot: base sets how far below
// the pivot the inner edge sits, mid the height of the shoulders below the
// pivot and top the height of the apex above it.
func WithTopArmFractions(base, mid, top float64) Option {
	return func(c *config) { c.topFractions = [3]float64{base, mid, top} }
}

// Pallets holds the four pallet corners. Start and end follow the order
// a tooth meets each face.
type Pallets struct {
	EntryStart geom.Vec
	EntryEnd   geom.Vec
	ExitStart  geom.Vec
	ExitEnd    geom.Vec
}

// ArmPoints are the anchor body points joining the pallets to the pivot.
type ArmPoints struct {
	InnerLeft     geom.Vec
	OuterLeft     geom.Vec
	InnerRight    geom.Vec
	OuterRight    geom.Vec
	ShoulderLeft  geom.Vec
	ShoulderRight geom.Vec
	Top           geom.Vec
	Bottom        geom.Vec
}

// Geometry is a fully derived escapement. Values are immutable; use
// WithDiameter or WithTiming to derive a new one.
type Geometry struct {
	family   Family
	cfg      config
	teeth    int
	diameter float64
	lift     float64
	drop     float64
	lock     float64

	anchorTeeth  float64
	wheelAngle   float64
	toothAngle   float64
	anchorAngle  float64
	radius       float64
	innerRadius  float64
	centreDist   float64
	armThick     float64
	topThickness [3]float64

	pallets       Pallets
	arms          ArmPoints
	entryStartR   float64
	entryEndR     float64
	exitStartR    float64
	exitEndR      float64
	palletAngles  [2]float64
	largestRadius float64
}

// New derives the geometry of an escapement with the given escape wheel
// and timing angles.
func New(family Family, teeth int, diameter, lift, drop, lock float64, opts ...Option) (Geometry, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}
	return build(family, cfg, teeth, diameter, lift, drop, lock)
}

func build(family Family, cfg config, teeth int, diameter, lift, drop, lock float64) (Geometry, error) {
	const op = "escapement.New"
	if !family.Supported() {
		return Geometry{}, fault.InvalidConstraint(op, "unsupported escapement family %q", family)
	}
	if teeth < 4 {
		return Geometry{}, fault.InvalidConstraint(op, "escape wheel needs at least 4 teeth, got %d", teeth)
	}
	if !(diameter > 0) {
		return Geometry{}, fault.InvalidConstraint(op, "diameter must be positive, got %g", diameter)
	}
	// a base fraction of 1 or more would put the top arm into the wheel
	if f := cfg.topFractions; !(f[0] > 0 && f[0] < 1) || !(f[1] >= 0) || !(f[2] > 0) {
		return Geometry{}, fault.InvalidConstraint(op, "top arm fractions must have 0 < base < 1, mid >= 0, top > 0, got %v", f)
	}

	g := Geometry{
		family:   family,
		cfg:      cfg,
		teeth:    teeth,
		diameter: diameter,
		lift:     lift,
		drop:     drop,
		lock:     lock,
	}

	g.anchorTeeth = cfg.anchorTeeth
	if g.anchorTeeth <= 0 {
		g.anchorTeeth = math.Floor(float64(teeth)/4) + 0.5
	}
	g.wheelAngle = 2 * math.Pi * g.anchorTeeth / float64(teeth)
	g.toothAngle = 2 * math.Pi / float64(teeth)
	g.radius = diameter / 2
	g.innerRadius = diameter * (1 - cfg.toothHeightFraction) / 2

	// The pivot sits where the tangents at the two outermost spanned
	// teeth meet.
	g.centreDist = g.radius / math.Cos(g.wheelAngle/2)
	g.anchorAngle = math.Pi - g.wheelAngle
	above := g.centreDist - g.radius
	for i, f := range cfg.topFractions {
		g.topThickness[i] = above * f
	}
	g.armThick = diameter * cfg.armThickness

	if err := g.pallet(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

func (g *Geometry) pallet() error {
	anchor := g.AnchorCentre()
	wheel := geom.Origin

	palletLength := g.lift
	palletThick := g.toothAngle/2 - g.drop

	anchorEntry := 1.5*math.Pi - g.anchorAngle/2 + g.lock/2
	anchorExit := 1.5*math.Pi + g.anchorAngle/2 - g.lock/2
	wheelEntry := math.Pi/2 + g.wheelAngle/2
	wheelExit := math.Pi/2 - g.wheelAngle/2

	corner := func(anchorAngle, wheelAngle float64) (geom.Vec, error) {
		return geom.Intersect(geom.RayAt(anchor, anchorAngle), geom.RayAt(wheel, wheelAngle))
	}
	var err error
	var p Pallets
	if p.EntryStart, err = corner(anchorEntry-palletLength/2, wheelEntry+palletThick/2); err != nil {
		return err
	}
	if p.EntryEnd, err = corner(anchorEntry+palletLength/2, wheelEntry-palletThick/2); err != nil {
		return err
	}
	if p.ExitStart, err = corner(anchorExit+palletLength/2, wheelExit+palletThick/2); err != nil {
		return err
	}
	if p.ExitEnd, err = corner(anchorExit-palletLength/2, wheelExit-palletThick/2); err != nil {
		return err
	}
	g.pallets = p

	entry := p.EntryEnd.Sub(p.EntryStart)
	exit := p.ExitEnd.Sub(p.ExitStart)
	g.palletAngles = [2]float64{geom.Angle(entry), geom.Angle(exit)}

	g.entryEndR = geom.Distance(anchor, p.EntryEnd)
	g.entryStartR = geom.Distance(anchor, p.EntryStart)
	g.exitEndR = geom.Distance(anchor, p.ExitEnd)
	g.exitStartR = geom.Distance(anchor, p.ExitStart)

	run := g.cfg.run
	left := 1.5*math.Pi - g.anchorAngle/2 - palletLength/2 - run
	right := 1.5*math.Pi + g.anchorAngle/2 + palletLength/2 + run
	base, mid, top := g.TopThickness()
	outerLeft := anchor.Add(geom.Polar(left-g.armThick/g.entryEndR, g.entryStartR))
	outerRight := anchor.Add(geom.Polar(right+g.armThick/g.exitEndR, g.exitEndR))
	g.arms = ArmPoints{
		InnerLeft:     anchor.Add(geom.Polar(left, g.entryEndR)),
		OuterLeft:     outerLeft,
		InnerRight:    anchor.Add(geom.Polar(right, g.exitStartR)),
		OuterRight:    outerRight,
		ShoulderLeft:  geom.Vec{X: outerLeft.X, Y: g.centreDist - mid},
		ShoulderRight: geom.Vec{X: outerRight.X, Y: g.centreDist - mid},
		Top:           geom.Vec{X: 0, Y: g.centreDist + top},
		Bottom:        geom.Vec{X: 0, Y: g.centreDist - base},
	}

	g.largestRadius = math.Max(g.entryStartR, g.exitEndR)
	return nil
}

// WithDiameter rebuilds the geometry for a new escape wheel diameter.
func (g Geometry) WithDiameter(diameter float64) (Geometry, error) {
	return build(g.family, g.cfg, g.teeth, diameter, g.lift, g.drop, g.lock)
}

// WithTiming rebuilds the geometry for new lift, drop and lock angles.
func (g Geometry) WithTiming(lift, drop, lock float64) (Geometry, error) {
	return build(g.family, g.cfg, g.teeth, g.diameter, lift, drop, lock)
}

func (g Geometry) Family() Family    { return g.family }
func (g Geometry) Teeth() int        { return g.teeth }
func (g Geometry) Diameter() float64 { return g.diameter }
func (g Geometry) Lift() float64     { return g.lift }
func (g Geometry) Drop() float64     { return g.drop }
func (g Geometry) Lock() float64     { return g.lock }
func (g Geometry) Run() float64      { return g.cfg.run }

// AnchorTeeth is the number of teeth spanned between the pallets.
func (g Geometry) AnchorTeeth() float64 { return g.anchorTeeth }

// WheelAngle is the angle of the wheel spanned by the anchor.
func (g Geometry) WheelAngle() float64 { return g.wheelAngle }

// ToothAngle is the angular pitch of the escape wheel teeth.
func (g Geometry) ToothAngle() float64 { return g.toothAngle }

// AnchorAngle is the angle between the pallet arms at the pivot.
func (g Geometry) AnchorAngle() float64 { return g.anchorAngle }

// Radius is the escape wheel tip radius.
func (g Geometry) Radius() float64 { return g.radius }

// InnerRadius is the escape wheel root radius.
func (g Geometry) InnerRadius() float64 { return g.innerRadius }

// AnchorCentreDistance is the distance from wheel centre to anchor pivot.
func (g Geometry) AnchorCentreDistance() float64 { return g.centreDist }

// AnchorCentre is the anchor pivot point.
func (g Geometry) AnchorCentre() geom.Vec { return geom.Vec{X: 0, Y: g.centreDist} }

// ArmThickness is the anchor arm thickness in mm.
func (g Geometry) ArmThickness() float64 { return g.armThick }

// TopThickness returns the base, mid and top thicknesses of the anchor
// top arm.
func (g Geometry) TopThickness() (base, mid, top float64) {
	return g.topThickness[0], g.topThickness[1], g.topThickness[2]
}

// Pallets returns the pallet corners.
func (g Geometry) Pallets() Pallets { return g.pallets }

// Arms returns the anchor body points.
func (g Geometry) Arms() ArmPoints { return g.arms }

// PalletRadii returns the distance of each pallet corner from the pivot.
func (g Geometry) PalletRadii() (entryStart, entryEnd, exitStart, exitEnd float64) {
	return g.entryStartR, g.entryEndR, g.exitStartR, g.exitEndR
}

// PalletAngles returns the direction of the entry and exit pallet faces.
func (g Geometry) PalletAngles() (entry, exit float64) {
	return g.palletAngles[0], g.palletAngles[1]
}

// LargestAnchorRadius is the furthest the anchor reaches from its pivot.
func (g Geometry) LargestAnchorRadius() float64 { return g.largestRadius }
