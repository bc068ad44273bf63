// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// sdfxShape wraps an sdf.SDF2 to implement kernel.Shape.
type sdfxShape struct {
	s sdf.SDF2
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxShape) BoundingBox() (min, max geom.Vec) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// Contains reports whether the distance field is non-positive at p.
func (s *sdfxShape) Contains(p geom.Vec) bool {
	return s.s.Evaluate(p) <= 0
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF2 from a kernel.Shape.
func unwrap(s kernel.Shape) sdf.SDF2 {
	return s.(*sdfxShape).s
}

// wrap creates a kernel.Shape from an sdf.SDF2.
func wrap(s sdf.SDF2) kernel.Shape {
	return &sdfxShape{s: s}
}

// Polygon creates a closed polygon. The closing edge is implied; a repeated
// final vertex is dropped since sdfx cannot evaluate zero length edges.
func (k *SdfxKernel) Polygon(vertices []geom.Vec) (kernel.Shape, error) {
	if n := len(vertices); n > 1 && vertices[0] == vertices[n-1] {
		vertices = vertices[:n-1]
	}
	if len(vertices) < 3 {
		return nil, fmt.Errorf("sdfx.Polygon2D: need at least 3 vertices, got %d", len(vertices))
	}
	pts := make([]v2.Vec, len(vertices))
	copy(pts, vertices)
	s, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	return wrap(s), nil
}

// Circle creates a circle centred on the origin.
func (k *SdfxKernel) Circle(radius float64) (kernel.Shape, error) {
	s, err := sdf.Circle2D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Circle2D: %w", err)
	}
	return wrap(s), nil
}

// Union returns the union of two shapes.
func (k *SdfxKernel) Union(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Union2D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Difference2D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two shapes.
func (k *SdfxKernel) Intersection(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Intersect2D(unwrap(a), unwrap(b)))
}

// Translate moves a shape by offset.
func (k *SdfxKernel) Translate(s kernel.Shape, offset geom.Vec) kernel.Shape {
	return wrap(sdf.Transform2D(unwrap(s), sdf.Translate2d(offset)))
}

// Rotate rotates a shape about the origin, counter-clockwise in degrees.
func (k *SdfxKernel) Rotate(s kernel.Shape, degrees float64) kernel.Shape {
	return wrap(sdf.Transform2D(unwrap(s), sdf.Rotate2d(geom.DegToRad(degrees))))
}
