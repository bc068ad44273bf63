package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/horologe/pkg/geom"
)

func square(size float64) []geom.Vec {
	return []geom.Vec{{X: 0, Y: 0}, {X: size, Y: 0}, {X: size, Y: size}, {X: 0, Y: size}}
}

func TestPolygon(t *testing.T) {
	k := New()
	s, err := k.Polygon(square(10))
	if err != nil {
		t.Fatalf("Polygon failed: %v", err)
	}
	if !s.Contains(geom.Vec{X: 5, Y: 5}) {
		t.Error("centre of square should be inside")
	}
	if s.Contains(geom.Vec{X: 15, Y: 5}) {
		t.Error("point right of square should be outside")
	}
	min, max := s.BoundingBox()
	if math.Abs(min.X) > 1e-9 || math.Abs(min.Y) > 1e-9 || math.Abs(max.X-10) > 1e-9 || math.Abs(max.Y-10) > 1e-9 {
		t.Errorf("bounding box = %v..%v, want (0,0)..(10,10)", min, max)
	}
}

func TestPolygonDropsClosingVertex(t *testing.T) {
	k := New()
	pts := append(square(10), geom.Vec{X: 0, Y: 0})
	s, err := k.Polygon(pts)
	if err != nil {
		t.Fatalf("Polygon failed: %v", err)
	}
	if !s.Contains(geom.Vec{X: 1, Y: 1}) {
		t.Error("closed polygon should still contain (1,1)")
	}
}

func TestPolygonTooFewVertices(t *testing.T) {
	k := New()
	if _, err := k.Polygon([]geom.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}}); err == nil {
		t.Fatal("expected error for two vertices")
	}
}

func TestCircle(t *testing.T) {
	k := New()
	c, err := k.Circle(5)
	if err != nil {
		t.Fatalf("Circle failed: %v", err)
	}
	if !c.Contains(geom.Vec{X: 4.9, Y: 0}) {
		t.Error("(4.9,0) should be inside radius 5")
	}
	if c.Contains(geom.Vec{X: 4, Y: 4}) {
		t.Error("(4,4) should be outside radius 5")
	}
}

func TestDifference(t *testing.T) {
	k := New()
	outer, err := k.Circle(10)
	if err != nil {
		t.Fatal(err)
	}
	hole, err := k.Circle(2)
	if err != nil {
		t.Fatal(err)
	}
	ring := k.Difference(outer, hole)
	if ring.Contains(geom.Vec{X: 0, Y: 0}) {
		t.Error("centre should be cut away")
	}
	if !ring.Contains(geom.Vec{X: 5, Y: 0}) {
		t.Error("(5,0) should remain")
	}
}

func TestUnionAndIntersection(t *testing.T) {
	k := New()
	a, _ := k.Circle(5)
	b, _ := k.Circle(5)
	b = k.Translate(b, geom.Vec{X: 8, Y: 0})

	u := k.Union(a, b)
	for _, p := range []geom.Vec{{X: -4, Y: 0}, {X: 12, Y: 0}} {
		if !u.Contains(p) {
			t.Errorf("union should contain %v", p)
		}
	}
	i := k.Intersection(a, b)
	if !i.Contains(geom.Vec{X: 4, Y: 0}) {
		t.Error("intersection should contain (4,0)")
	}
	if i.Contains(geom.Vec{X: -4, Y: 0}) {
		t.Error("intersection should not contain (-4,0)")
	}
}

func TestTranslateAndRotate(t *testing.T) {
	k := New()
	s, err := k.Polygon([]geom.Vec{{X: 10, Y: -1}, {X: 12, Y: -1}, {X: 12, Y: 1}, {X: 10, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	r := k.Rotate(s, 90)
	if !r.Contains(geom.Vec{X: 0, Y: 11}) {
		t.Error("rotating 90 degrees should move (11,0) to (0,11)")
	}
	m := k.Translate(s, geom.Vec{X: -11, Y: 0})
	if !m.Contains(geom.Vec{X: 0, Y: 0}) {
		t.Error("translated shape should contain the origin")
	}
}
