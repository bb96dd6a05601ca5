package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenToRayCenter(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	inv := proj.Mul4(view).Inv()

	ray := ScreenToRay(50, 50, 100, 100, inv)

	assert.InDelta(t, 0, ray.Direction.X(), 1e-4)
	assert.InDelta(t, 0, ray.Direction.Y(), 1e-4)
	assert.InDelta(t, -1, ray.Direction.Z(), 1e-4)
	assert.InDelta(t, 9.9, ray.Origin.Z(), 1e-3)
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{-1, -1, -1})

	tests := []struct {
		name string
		ray  Ray
		hit  bool
		dist float32
	}{
		{"front", NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}), true, 4},
		{"inside", NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}), true, 1},
		{"behind", NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}), false, 0},
		{"parallel outside", NewRay(mgl32.Vec3{0, 3, 5}, mgl32.Vec3{0, 0, -1}), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, hit := tt.ray.IntersectAABB(box)
			require.Equal(t, tt.hit, hit)
			if hit {
				assert.InDelta(t, tt.dist, dist, 1e-5)
			}
		})
	}
}

func TestAABBExtend(t *testing.T) {
	box := EmptyAABB()
	assert.True(t, box.Empty())

	box.Extend(mgl32.Vec3{1, 2, 3})
	box.Extend(mgl32.Vec3{-1, 0, 5})

	assert.False(t, box.Empty())
	assert.Equal(t, mgl32.Vec3{-1, 0, 3}, box.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 5}, box.Max)
	assert.True(t, box.Contains(mgl32.Vec3{0, 1, 4}))
	assert.Equal(t, mgl32.Vec3{0, 1, 4}, box.Center())
}

func TestIntersectTriangle(t *testing.T) {
	tri := Triangle{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}

	hit, ok := NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}).IntersectTriangle(tri)
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-5)
	assertVec3(t, mgl32.Vec3{}, hit.Point, 1e-5)

	// Back face is hit too.
	_, ok = NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}).IntersectTriangle(tri)
	assert.True(t, ok)

	_, ok = NewRay(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{0, 0, -1}).IntersectTriangle(tri)
	assert.False(t, ok)

	_, ok = NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}).IntersectTriangle(tri)
	assert.False(t, ok, "triangle behind the origin")

	degenerate := Triangle{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	_, ok = NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}).IntersectTriangle(degenerate)
	assert.False(t, ok)
}

func TestTriangleTransform(t *testing.T) {
	tri := Triangle{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	moved := tri.Transform(mgl32.Translate3D(0, 0, -2))

	assert.Equal(t, mgl32.Vec3{0, 0, -2}, moved[0])
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, moved[1])
	assertVec3(t, mgl32.Vec3{0, 0, 1}, moved.Normal(), 1e-5)
}

// assertVec3 compares component-wise with an absolute tolerance.
func assertVec3(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "want %v, got %v", want, got)
}
