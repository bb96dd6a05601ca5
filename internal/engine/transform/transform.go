// Package transform holds the translation/rotation/scale triple that node
// and keyframe matrices are composed from.
package transform

import "github.com/go-gl/mathgl/mgl32"

// Transform is a decomposed affine transform.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// New builds a transform from its components.
func New(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return Transform{Position: position, Rotation: rotation, Scale: scale}
}

// FromMatrix decomposes an affine matrix without shear into TRS.
// A negative determinant is folded into the X scale.
func FromMatrix(m mgl32.Mat4) Transform {
	sx, sy, sz := mgl32.Extract3DScale(m)
	if m.Mat3().Det() < 0 {
		sx = -sx
	}

	t := Transform{
		Position: m.Col(3).Vec3(),
		Scale:    mgl32.Vec3{sx, sy, sz},
		Rotation: mgl32.QuatIdent(),
	}

	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	rot := mgl32.Ident4()
	rot.SetCol(0, m.Col(0).Mul(1/sx))
	rot.SetCol(1, m.Col(1).Mul(1/sy))
	rot.SetCol(2, m.Col(2).Mul(1/sz))
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()

	return t
}

// Matrix composes the transform as T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Interpolate blends a towards b by alpha in [0, 1]. Position and scale
// are linear, rotation is spherical.
func Interpolate(a, b Transform, alpha float32) Transform {
	return Transform{
		Position: lerp(a.Position, b.Position, alpha),
		Rotation: mgl32.QuatSlerp(a.Rotation, b.Rotation, alpha),
		Scale:    lerp(a.Scale, b.Scale, alpha),
	}
}

// InterpolateMatrices decomposes both matrices and blends them.
func InterpolateMatrices(a, b mgl32.Mat4, alpha float32) mgl32.Mat4 {
	return Interpolate(FromMatrix(a), FromMatrix(b), alpha).Matrix()
}

func lerp(a, b mgl32.Vec3, alpha float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(alpha))
}
