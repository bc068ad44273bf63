// Package kernel defines the abstract 2D shape kernel that part outlines
// are handed to. Implementations (sdfx) provide polygons, circles and
// boolean operations behind this interface so the solid-modelling layer
// that extrudes them can swap backends without touching the solvers.
package kernel

import "github.com/chazu/horologe/pkg/geom"

// Shape is an opaque handle to a kernel shape.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec)
	// Contains reports whether p lies inside or on the boundary.
	Contains(p geom.Vec) bool
}

// Kernel is the abstract 2D shape kernel.
type Kernel interface {
	// Primitives
	Polygon(vertices []geom.Vec) (Shape, error)
	Circle(radius float64) (Shape, error)

	// Boolean operations
	Union(a, b Shape) Shape
	Difference(a, b Shape) Shape
	Intersection(a, b Shape) Shape

	// Transforms
	Translate(s Shape, offset geom.Vec) Shape
	Rotate(s Shape, degrees float64) Shape
}
