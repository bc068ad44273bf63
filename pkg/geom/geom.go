// Package geom holds the 2D analytic geometry used by the profile builder
// and the escapement synthesizer: polar points, rays, line–line
// intersection and outline segments. Points are sdfx v2.Vec values so
// outlines can be handed to the sdfx kernel without conversion.
package geom

import (
	"math"

	"github.com/chazu/horologe/pkg/fault"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Vec is a 2D point or direction.
type Vec = v2.Vec

// Origin is the point (0, 0).
var Origin = Vec{}

// Polar returns the point at angle (radians) and radius r from the origin.
func Polar(angle, r float64) Vec {
	return Vec{X: math.Cos(angle) * r, Y: math.Sin(angle) * r}
}

// Angle returns the direction of v in radians, in (-π, π].
func Angle(v Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return b.Sub(a).Length()
}

// Cross returns the z component of the 3D cross product a × b.
func Cross(a, b Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Perp returns v rotated a quarter turn counter-clockwise.
func Perp(v Vec) Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// Rotate returns v rotated by angle radians about the origin.
func Rotate(v Vec, angle float64) Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Ray is an infinite line through Origin with unit direction Dir.
type Ray struct {
	Origin Vec
	Dir    Vec
}

// RayAt returns the ray from origin at angle radians.
func RayAt(origin Vec, angle float64) Ray {
	return Ray{Origin: origin, Dir: Polar(angle, 1)}
}

// RayThrough returns the ray from a towards b. The direction is left
// unnormalized when a == b; Intersect reports that as degenerate.
func RayThrough(a, b Vec) Ray {
	d := b.Sub(a)
	if l := d.Length(); l > 0 {
		d = d.MulScalar(1 / l)
	}
	return Ray{Origin: a, Dir: d}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec {
	return r.Origin.Add(r.Dir.MulScalar(t))
}

// parallelTolerance bounds |sin| of the angle between unit directions
// below which two rays are treated as parallel.
const parallelTolerance = 1e-12

// Intersect solves a.Origin + s·a.Dir = b.Origin + t·b.Dir for the
// intersection point. Both rays are treated as full lines. Parallel or
// zero-length directions have no unique solution.
func Intersect(a, b Ray) (Vec, error) {
	den := Cross(a.Dir, b.Dir)
	if math.Abs(den) < parallelTolerance || math.IsNaN(den) {
		return Vec{}, fault.GeometricDegeneracy("geom.Intersect",
			"rays from (%.4f, %.4f) and (%.4f, %.4f) are parallel",
			a.Origin.X, a.Origin.Y, b.Origin.X, b.Origin.Y)
	}
	s := Cross(b.Origin.Sub(a.Origin), b.Dir) / den
	return a.At(s), nil
}
