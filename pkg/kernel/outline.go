package kernel

import "math"

// Outline is a flattened closed part outline. Vertices are flat x,y pairs
// with the closing edge implied.
type Outline struct {
	Vertices []float64 `json:"vertices"` // [x0,y0, x1,y1, ...]
	PartName string    `json:"partName"` // which movement graph part this came from
	Shape    Shape     `json:"-"`
}

// VertexCount returns the number of vertices.
func (o *Outline) VertexCount() int {
	return len(o.Vertices) / 2
}

// IsEmpty returns true if the outline has no geometry.
func (o *Outline) IsEmpty() bool {
	return len(o.Vertices) == 0
}

// Area returns the signed shoelace area, positive for counter-clockwise
// outlines.
func (o *Outline) Area() float64 {
	n := o.VertexCount()
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += o.Vertices[2*i]*o.Vertices[2*j+1] - o.Vertices[2*j]*o.Vertices[2*i+1]
	}
	return sum / 2
}

// Perimeter returns the length of the closed outline.
func (o *Outline) Perimeter() float64 {
	n := o.VertexCount()
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += math.Hypot(o.Vertices[2*j]-o.Vertices[2*i], o.Vertices[2*j+1]-o.Vertices[2*i+1])
	}
	return sum
}
