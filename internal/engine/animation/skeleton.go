// Package animation evaluates keyframed skeletal poses.
//
// Bones live in a flat arena. Parent and child links are indices into that
// arena, so copying a skeleton is a slice clone and never needs pointer
// fixup. Keyframe data is shared between copies.
package animation

import (
	"maps"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/bluebear/internal/engine/transform"
)

var (
	// ErrAnimationNotFound is returned when a bone has no keyframes for the
	// requested animation.
	ErrAnimationNotFound = errors.New("animation not found")

	// ErrBoneNotFound is returned when no bone carries the requested id.
	ErrBoneNotFound = errors.New("bone not found")
)

const noParent = -1

// Keyframe is a bone's local matrix at a tick.
type Keyframe struct {
	Tick   float64
	Matrix mgl32.Mat4
}

// Track is a tick-ordered list of keyframes.
type Track []Keyframe

// NewTrack builds a sorted track from unordered keyframes.
func NewTrack(frames ...Keyframe) Track {
	t := append(Track(nil), frames...)
	sort.Slice(t, func(i, j int) bool { return t[i].Tick < t[j].Tick })
	return t
}

// Duration is the tick of the last keyframe.
func (t Track) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Tick
}

// Sample returns the matrix at tick. An exact keyframe is returned as
// stored. Ticks outside the track clamp to the first or last keyframe.
func (t Track) Sample(tick float64) mgl32.Mat4 {
	if len(t) == 0 {
		return mgl32.Ident4()
	}

	// First keyframe strictly after tick
	next := sort.Search(len(t), func(i int) bool { return t[i].Tick > tick })
	if next > 0 && t[next-1].Tick == tick {
		return t[next-1].Matrix
	}
	if next == 0 {
		return t[0].Matrix
	}
	if next == len(t) {
		return t[len(t)-1].Matrix
	}

	prev := t[next-1]
	k1 := t[next]
	alpha := float32((tick - prev.Tick) / (k1.Tick - prev.Tick))
	return transform.InterpolateMatrices(prev.Matrix, k1.Matrix, alpha)
}

// AnimationMap holds one track per animation id for a single bone.
type AnimationMap map[string]Track

// Bone is one joint of a skeleton.
type Bone struct {
	ID         string
	Matrix     mgl32.Mat4
	Parent     int
	Children   []int
	Animations *AnimationMap
}

// Skeleton is an arena of bones rooted at index 0.
type Skeleton struct {
	bones []Bone
	index map[string]int
}

// NewSkeleton creates a skeleton with a single root bone.
func NewSkeleton(rootID string, matrix mgl32.Mat4, animations *AnimationMap) *Skeleton {
	s := &Skeleton{index: make(map[string]int)}
	s.push(noParent, rootID, matrix, animations)
	return s
}

// AddBone attaches a bone under parentID and returns its arena index.
func (s *Skeleton) AddBone(parentID, id string, matrix mgl32.Mat4, animations *AnimationMap) (int, error) {
	parent, ok := s.index[parentID]
	if !ok {
		return 0, errors.Wrapf(ErrBoneNotFound, "parent %q of bone %q", parentID, id)
	}
	idx := s.push(parent, id, matrix, animations)
	s.bones[parent].Children = append(s.bones[parent].Children, idx)
	return idx, nil
}

func (s *Skeleton) push(parent int, id string, matrix mgl32.Mat4, animations *AnimationMap) int {
	idx := len(s.bones)
	s.bones = append(s.bones, Bone{
		ID:         id,
		Matrix:     matrix,
		Parent:     parent,
		Animations: animations,
	})
	if _, exists := s.index[id]; !exists {
		s.index[id] = idx
	}
	return idx
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.bones)
}

// Bones returns the arena. Callers must not mutate it.
func (s *Skeleton) Bones() []Bone {
	return s.bones
}

// Bone returns the bone with the given id.
func (s *Skeleton) Bone(id string) (Bone, error) {
	idx, ok := s.index[id]
	if !ok {
		return Bone{}, errors.Wrapf(ErrBoneNotFound, "bone %q", id)
	}
	return s.bones[idx], nil
}

// Copy returns an independent skeleton. Animation maps stay shared.
func (s *Skeleton) Copy() *Skeleton {
	out := &Skeleton{
		bones: make([]Bone, len(s.bones)),
		index: maps.Clone(s.index),
	}
	copy(out.bones, s.bones)
	for i := range out.bones {
		out.bones[i].Children = append([]int(nil), s.bones[i].Children...)
	}
	return out
}

// SetToAnimation poses every bone at tick of the given animation.
func (s *Skeleton) SetToAnimation(animationID string, tick float64) error {
	if len(s.bones) == 0 {
		return nil
	}
	return s.setBoneToAnimation(0, animationID, tick)
}

func (s *Skeleton) setBoneToAnimation(idx int, animationID string, tick float64) error {
	bone := &s.bones[idx]
	if bone.Animations == nil {
		return errors.Wrapf(ErrAnimationNotFound, "bone %q has no animations", bone.ID)
	}
	track, ok := (*bone.Animations)[animationID]
	if !ok {
		return errors.Wrapf(ErrAnimationNotFound, "bone %q animation %q", bone.ID, animationID)
	}

	bone.Matrix = track.Sample(tick)

	for _, child := range bone.Children {
		if err := s.setBoneToAnimation(child, animationID, tick); err != nil {
			return err
		}
	}
	return nil
}

// AnimationCopy returns a copy of the skeleton posed at tick, leaving s
// untouched.
func (s *Skeleton) AnimationCopy(animationID string, tick float64) (*Skeleton, error) {
	pose := s.Copy()
	if err := pose.SetToAnimation(animationID, tick); err != nil {
		return nil, err
	}
	return pose, nil
}

// MatrixByID returns the world matrix of a bone: root * ... * bone.
func (s *Skeleton) MatrixByID(id string) (mgl32.Mat4, error) {
	idx, ok := s.index[id]
	if !ok {
		return mgl32.Ident4(), errors.Wrapf(ErrBoneNotFound, "bone %q", id)
	}
	return s.worldMatrix(idx), nil
}

func (s *Skeleton) worldMatrix(idx int) mgl32.Mat4 {
	m := s.bones[idx].Matrix
	for p := s.bones[idx].Parent; p != noParent; p = s.bones[p].Parent {
		m = s.bones[p].Matrix.Mul4(m)
	}
	return m
}

// Duration returns the longest track length of the animation across all
// bones.
func (s *Skeleton) Duration(animationID string) (float64, error) {
	found := false
	var duration float64
	for _, bone := range s.bones {
		if bone.Animations == nil {
			continue
		}
		track, ok := (*bone.Animations)[animationID]
		if !ok {
			continue
		}
		found = true
		if d := track.Duration(); d > duration {
			duration = d
		}
	}
	if !found {
		return 0, errors.Wrapf(ErrAnimationNotFound, "animation %q", animationID)
	}
	return duration, nil
}
