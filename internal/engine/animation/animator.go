package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BoneMatrices maps a bone id to its skinning matrix for the current frame.
type BoneMatrices map[string]mgl32.Mat4

// Animator plays one animation of a shared bind skeleton. The bind
// skeleton is never mutated; every frame evaluates a fresh pose copy.
type Animator struct {
	bind        *Skeleton
	inverseBind BoneMatrices

	animation string
	tick      float64
	duration  float64
	speed     float64
	loop      bool
	playing   bool

	computed BoneMatrices
}

// NewAnimator creates a stopped animator in bind pose.
func NewAnimator(bind *Skeleton) *Animator {
	a := &Animator{
		bind:        bind,
		inverseBind: make(BoneMatrices, bind.Len()),
		speed:       1,
		loop:        true,
	}
	for i, bone := range bind.bones {
		a.inverseBind[bone.ID] = bind.worldMatrix(i).Inv()
	}
	a.computed = a.restPose()
	return a
}

// Skeleton returns the bind skeleton.
func (a *Animator) Skeleton() *Skeleton {
	return a.bind
}

// Play starts animationID from tick zero.
func (a *Animator) Play(animationID string) error {
	duration, err := a.bind.Duration(animationID)
	if err != nil {
		return err
	}
	a.animation = animationID
	a.duration = duration
	a.tick = 0
	a.playing = true
	return nil
}

// Stop halts playback and keeps the last computed pose.
func (a *Animator) Stop() {
	a.playing = false
}

// SetSpeed sets how many ticks each Update advances.
func (a *Animator) SetSpeed(ticksPerFrame float64) {
	a.speed = ticksPerFrame
}

// SetLoop controls whether playback wraps at the end of the animation.
func (a *Animator) SetLoop(loop bool) {
	a.loop = loop
}

// SetTick moves the playhead.
func (a *Animator) SetTick(tick float64) {
	a.tick = tick
}

// Animation returns the current animation id and tick.
func (a *Animator) Animation() (string, float64) {
	return a.animation, a.tick
}

// Updating reports whether the next Update will change the pose.
func (a *Animator) Updating() bool {
	return a.playing
}

// Update evaluates the pose at the current tick and advances the
// playhead by one step.
func (a *Animator) Update() error {
	if !a.playing {
		return nil
	}

	pose, err := a.bind.AnimationCopy(a.animation, a.tick)
	if err != nil {
		a.playing = false
		return err
	}

	computed := make(BoneMatrices, pose.Len())
	for i, bone := range pose.bones {
		computed[bone.ID] = pose.worldMatrix(i).Mul4(a.inverseBind[bone.ID])
	}
	a.computed = computed

	a.tick += a.speed
	if a.tick > a.duration {
		if a.loop && a.duration > 0 {
			a.tick = math.Mod(a.tick, a.duration)
		} else {
			a.tick = a.duration
			a.playing = false
		}
	}
	return nil
}

// ComputedMatrices returns the skinning matrices from the last Update.
func (a *Animator) ComputedMatrices() BoneMatrices {
	return a.computed
}

// Copy returns an animator sharing the bind skeleton with independent
// playback state.
func (a *Animator) Copy() *Animator {
	out := *a
	out.computed = make(BoneMatrices, len(a.computed))
	for id, m := range a.computed {
		out.computed[id] = m
	}
	return &out
}

func (a *Animator) restPose() BoneMatrices {
	rest := make(BoneMatrices, a.bind.Len())
	for _, bone := range a.bind.bones {
		rest[bone.ID] = mgl32.Ident4()
	}
	return rest
}
