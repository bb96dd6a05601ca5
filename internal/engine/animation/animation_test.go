package animation

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkTrack() *AnimationMap {
	return &AnimationMap{
		"walk": NewTrack(
			Keyframe{Tick: 10, Matrix: mgl32.Translate3D(2, 0, 0)},
			Keyframe{Tick: 0, Matrix: mgl32.Ident4()},
		),
	}
}

func newTestSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	anims := walkTrack()
	s := NewSkeleton("root", mgl32.Ident4(), anims)
	_, err := s.AddBone("root", "arm", mgl32.Translate3D(0, 1, 0), &AnimationMap{
		"walk": NewTrack(
			Keyframe{Tick: 0, Matrix: mgl32.Translate3D(0, 1, 0)},
			Keyframe{Tick: 10, Matrix: mgl32.Translate3D(0, 3, 0)},
		),
	})
	require.NoError(t, err)
	return s
}

func TestSetToAnimationExactKeyframe(t *testing.T) {
	odd := mgl32.Mat4{
		1.1, 0.2, 0.3, 0,
		0.4, 1.5, 0.6, 0,
		0.7, 0.8, 1.9, 0,
		3, 4, 5, 1,
	}
	s := NewSkeleton("root", mgl32.Ident4(), &AnimationMap{
		"idle": NewTrack(
			Keyframe{Tick: 0, Matrix: mgl32.Ident4()},
			Keyframe{Tick: 5, Matrix: odd},
			Keyframe{Tick: 10, Matrix: mgl32.Ident4()},
		),
	})

	require.NoError(t, s.SetToAnimation("idle", 5))

	root, err := s.Bone("root")
	require.NoError(t, err)
	assert.Equal(t, odd, root.Matrix)
}

func TestSetToAnimationMidpoint(t *testing.T) {
	s := newTestSkeleton(t)

	require.NoError(t, s.SetToAnimation("walk", 5))

	root, err := s.Bone("root")
	require.NoError(t, err)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, root.Matrix.Col(3).Vec3(), 1e-5)

	arm, err := s.Bone("arm")
	require.NoError(t, err)
	assertVec3(t, mgl32.Vec3{0, 2, 0}, arm.Matrix.Col(3).Vec3(), 1e-5)
}

func TestSetToAnimationClampsOutsideRange(t *testing.T) {
	s := newTestSkeleton(t)

	require.NoError(t, s.SetToAnimation("walk", 25))
	root, _ := s.Bone("root")
	assert.Equal(t, mgl32.Translate3D(2, 0, 0), root.Matrix)

	require.NoError(t, s.SetToAnimation("walk", -3))
	root, _ = s.Bone("root")
	assert.Equal(t, mgl32.Ident4(), root.Matrix)
}

func TestSetToAnimationNotFound(t *testing.T) {
	s := newTestSkeleton(t)
	err := s.SetToAnimation("run", 0)
	assert.True(t, errors.Is(err, ErrAnimationNotFound))

	bare := NewSkeleton("root", mgl32.Ident4(), nil)
	err = bare.SetToAnimation("walk", 0)
	assert.True(t, errors.Is(err, ErrAnimationNotFound))
}

func TestAnimationCopyLeavesTemplate(t *testing.T) {
	s := newTestSkeleton(t)

	pose, err := s.AnimationCopy("walk", 10)
	require.NoError(t, err)

	posed, _ := pose.Bone("root")
	assert.Equal(t, mgl32.Translate3D(2, 0, 0), posed.Matrix)

	template, _ := s.Bone("root")
	assert.Equal(t, mgl32.Ident4(), template.Matrix)

	// Keyframes are shared, not duplicated.
	assert.Same(t, template.Animations, posed.Animations)
}

func TestCopyIsIndependent(t *testing.T) {
	s := newTestSkeleton(t)
	c := s.Copy()

	_, err := c.AddBone("arm", "hand", mgl32.Ident4(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, c.Len())
	_, err = s.Bone("hand")
	assert.True(t, errors.Is(err, ErrBoneNotFound))
}

func TestMatrixByIDRootFirst(t *testing.T) {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(90))
	s := NewSkeleton("root", rot, nil)
	_, err := s.AddBone("root", "tip", mgl32.Translate3D(1, 0, 0), nil)
	require.NoError(t, err)

	m, err := s.MatrixByID("tip")
	require.NoError(t, err)

	// Rotating the parent swings the child's offset onto +Y.
	assertVec3(t, mgl32.Vec3{0, 1, 0}, m.Col(3).Vec3(), 1e-5)

	_, err = s.MatrixByID("missing")
	assert.True(t, errors.Is(err, ErrBoneNotFound))
}

func TestAddBoneUnknownParent(t *testing.T) {
	s := NewSkeleton("root", mgl32.Ident4(), nil)
	_, err := s.AddBone("nope", "child", mgl32.Ident4(), nil)
	assert.True(t, errors.Is(err, ErrBoneNotFound))
}

func TestAnimatorPlayback(t *testing.T) {
	s := newTestSkeleton(t)
	a := NewAnimator(s)

	assert.False(t, a.Updating())
	assert.Equal(t, mgl32.Ident4(), a.ComputedMatrices()["root"])

	require.Error(t, a.Play("run"))
	require.NoError(t, a.Play("walk"))
	a.SetSpeed(5)
	assert.True(t, a.Updating())

	require.NoError(t, a.Update()) // tick 0
	require.NoError(t, a.Update()) // tick 5

	root := a.ComputedMatrices()["root"]
	assertVec3(t, mgl32.Vec3{1, 0, 0}, root.Col(3).Vec3(), 1e-5)

	// Arm pose world (0,2,0)+(1,0,0) times inverse bind (0,-1,0).
	arm := a.ComputedMatrices()["arm"]
	assertVec3(t, mgl32.Vec3{1, 1, 0}, arm.Col(3).Vec3(), 1e-5)
}

func TestAnimatorStopsWithoutLoop(t *testing.T) {
	a := NewAnimator(newTestSkeleton(t))
	a.SetLoop(false)
	require.NoError(t, a.Play("walk"))
	a.SetSpeed(20)

	require.NoError(t, a.Update())
	assert.False(t, a.Updating())

	_, tick := a.Animation()
	assert.Equal(t, 10.0, tick)
}

func TestAnimatorCopyIndependentState(t *testing.T) {
	a := NewAnimator(newTestSkeleton(t))
	require.NoError(t, a.Play("walk"))

	b := a.Copy()
	b.Stop()

	assert.True(t, a.Updating())
	assert.False(t, b.Updating())
	assert.Same(t, a.Skeleton(), b.Skeleton())
}

// assertVec3 compares component-wise with an absolute tolerance.
func assertVec3(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "want %v, got %v", want, got)
}
