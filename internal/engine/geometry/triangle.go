package geometry

import "github.com/go-gl/mathgl/mgl32"

const intersectEpsilon = 1e-7

// Triangle is three points in counter-clockwise order.
type Triangle [3]mgl32.Vec3

// Transform returns the triangle with every vertex multiplied by m.
func (t Triangle) Transform(m mgl32.Mat4) Triangle {
	var out Triangle
	for i, v := range t {
		out[i] = m.Mul4x1(v.Vec4(1)).Vec3()
	}
	return out
}

// Normal returns the unit face normal, or zero for a degenerate triangle.
func (t Triangle) Normal() mgl32.Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// Intersection is the result of a successful ray test.
type Intersection struct {
	Point    mgl32.Vec3
	Distance float32
}

// IntersectTriangle runs the Moller-Trumbore test. Both faces are hit.
// Degenerate triangles and hits behind the origin report false.
func (r Ray) IntersectTriangle(t Triangle) (Intersection, bool) {
	edge1 := t[1].Sub(t[0])
	edge2 := t[2].Sub(t[0])

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if det > -intersectEpsilon && det < intersectEpsilon {
		return Intersection{}, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(t[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return Intersection{}, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return Intersection{}, false
	}

	dist := edge2.Dot(q) * invDet
	if dist < intersectEpsilon {
		return Intersection{}, false
	}

	return Intersection{Point: r.At(dist), Distance: dist}, true
}
