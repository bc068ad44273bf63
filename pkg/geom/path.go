package geom

import (
	"iter"
	"math"
)

// SegmentKind distinguishes outline primitives.
type SegmentKind int

const (
	SegmentLine SegmentKind = iota // straight line from Start to End
	SegmentArc                     // circular arc about Centre from Start to End
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLine:
		return "line"
	case SegmentArc:
		return "arc"
	default:
		return "unknown"
	}
}

// Segment is one primitive of an outline. Arcs are never longer than a
// half turn; Clockwise picks the side of the chord the centre lies on.
type Segment struct {
	Kind      SegmentKind
	Start     Vec
	End       Vec
	Centre    Vec     // arcs only
	Radius    float64 // arcs only
	Clockwise bool    // arcs only
}

// Line returns a straight segment.
func Line(start, end Vec) Segment {
	return Segment{Kind: SegmentLine, Start: start, End: end}
}

// ArcAbout returns an arc about a known centre. The radius is taken from
// the start point.
func ArcAbout(centre, start, end Vec, clockwise bool) Segment {
	return Segment{
		Kind:      SegmentArc,
		Start:     start,
		End:       end,
		Centre:    centre,
		Radius:    Distance(centre, start),
		Clockwise: clockwise,
	}
}

// ArcThrough returns the minor arc of the given radius joining start and
// end. Counter-clockwise arcs keep their centre on the left of the chord.
// A chord longer than the diameter yields a half circle about the chord
// midpoint.
func ArcThrough(start, end Vec, radius float64, clockwise bool) Segment {
	chord := end.Sub(start)
	c := chord.Length()
	mid := start.Add(chord.MulScalar(0.5))
	h := 0.0
	if half := c / 2; radius > half {
		h = math.Sqrt(radius*radius - half*half)
	}
	var left Vec
	if c > 0 {
		left = Perp(chord.MulScalar(1 / c))
	}
	if clockwise {
		left = left.MulScalar(-1)
	}
	r := radius
	if h == 0 {
		r = c / 2
	}
	return Segment{
		Kind:      SegmentArc,
		Start:     start,
		End:       end,
		Centre:    mid.Add(left.MulScalar(h)),
		Radius:    r,
		Clockwise: clockwise,
	}
}

// Sweep returns the signed angle swept by an arc, positive for
// counter-clockwise. Lines sweep zero.
func (s Segment) Sweep() float64 {
	if s.Kind != SegmentArc {
		return 0
	}
	a0 := Angle(s.Start.Sub(s.Centre))
	a1 := Angle(s.End.Sub(s.Centre))
	d := a1 - a0
	if s.Clockwise {
		for d > 0 {
			d -= 2 * math.Pi
		}
	} else {
		for d < 0 {
			d += 2 * math.Pi
		}
	}
	return d
}

// PointAt returns the point at fraction t ∈ [0,1] along the segment.
func (s Segment) PointAt(t float64) Vec {
	if s.Kind != SegmentArc {
		return s.Start.Add(s.End.Sub(s.Start).MulScalar(t))
	}
	a0 := Angle(s.Start.Sub(s.Centre))
	return s.Centre.Add(Polar(a0+s.Sweep()*t, s.Radius))
}

// Path is a closed outline produced lazily, one segment at a time. A Path
// can be walked once; later walks yield nothing.
type Path struct {
	gen  iter.Seq[Segment]
	used bool
}

// NewPath wraps a segment generator.
func NewPath(gen iter.Seq[Segment]) *Path {
	return &Path{gen: gen}
}

// Segments returns the single-use segment sequence.
func (p *Path) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if p == nil || p.used || p.gen == nil {
			return
		}
		p.used = true
		p.gen(yield)
	}
}

// Consumed reports whether the path has already been walked.
func (p *Path) Consumed() bool {
	return p == nil || p.used
}

// Collect walks the path and returns its segments.
func Collect(p *Path) []Segment {
	var segs []Segment
	for s := range p.Segments() {
		segs = append(segs, s)
	}
	return segs
}

// builder accumulates segments with a moving pen, mirroring the
// moveTo/lineTo/arc style outlines are described in.
type builder struct {
	yield func(Segment) bool
	pen   Vec
	start Vec
	done  bool
}

// Pen drives a path generator. It is handed to the function passed to
// Trace and stops emitting once the consumer stops.
type Pen struct{ b *builder }

// Trace turns a drawing function into a lazy Path. The drawing function
// is not run until the path is walked, and the outline is closed back to
// the first point when it returns.
func Trace(from Vec, draw func(p Pen)) *Path {
	return NewPath(func(yield func(Segment) bool) {
		b := &builder{yield: yield, pen: from, start: from}
		draw(Pen{b: b})
		if !b.done && Distance(b.pen, b.start) > 1e-9 {
			b.emit(Line(b.pen, b.start))
		}
	})
}

func (b *builder) emit(s Segment) {
	if b.done {
		return
	}
	if !b.yield(s) {
		b.done = true
	}
	b.pen = s.End
}

// Stopped reports whether the consumer has stopped reading.
func (p Pen) Stopped() bool { return p.b.done }

// Position returns the current pen point.
func (p Pen) Position() Vec { return p.b.pen }

// LineTo draws a straight segment to end.
func (p Pen) LineTo(end Vec) { p.b.emit(Line(p.b.pen, end)) }

// ArcTo draws a minor arc of the given radius to end.
func (p Pen) ArcTo(end Vec, radius float64, clockwise bool) {
	p.b.emit(ArcThrough(p.b.pen, end, radius, clockwise))
}

// ArcAboutTo draws an arc about centre to end.
func (p Pen) ArcAboutTo(centre, end Vec, clockwise bool) {
	p.b.emit(ArcAbout(centre, p.b.pen, end, clockwise))
}
