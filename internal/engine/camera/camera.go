// Package camera provides the orbit camera used to view and pick the world.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bluebear/internal/config"
	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// OrbitCamera orbits around a center point with a perspective projection.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// Projection
	FOV    float32 // degrees
	Near   float32
	Far    float32
	Width  int
	Height int
}

// New creates an orbit camera from config.
func New(cfg config.CameraConfig, width, height int) *OrbitCamera {
	c := &OrbitCamera{
		Distance:        cfg.Distance,
		RotationX:       0.5,
		MinDistance:     1.0,
		MaxDistance:     cfg.Far / 2,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: cfg.RotateSpeed / 100,
		ZoomSensitivity: cfg.ZoomSpeed / 10,
		FOV:             cfg.FOV,
		Near:            cfg.Near,
		Far:             cfg.Far,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the screen dimensions used for projection and
// picking.
func (c *OrbitCamera) SetViewport(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c.Width, c.Height = width, height
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	pitch := float64(c.RotationX)
	yaw := float64(c.RotationY)
	offset := mgl32.Vec3{
		c.Distance * float32(math.Cos(pitch)*math.Sin(yaw)),
		c.Distance * float32(math.Sin(pitch)),
		c.Distance * float32(math.Cos(pitch)*math.Cos(yaw)),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() mgl32.Mat4 {
	aspect := float32(c.Width) / float32(c.Height)
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Commit sends the view state to the device for this frame.
func (c *OrbitCamera) Commit(dev scenegraph.Device) {
	dev.SetCamera(c.ViewMatrix(), c.ProjectionMatrix(), c.Position())
}

// PickingRay returns the world-space ray under a cursor position given in
// window pixels.
func (c *OrbitCamera) PickingRay(mouseX, mouseY int) geometry.Ray {
	invViewProj := c.ProjectionMatrix().Mul4(c.ViewMatrix()).Inv()
	return geometry.ScreenToRay(float32(mouseX), float32(mouseY), float32(c.Width), float32(c.Height), invViewProj)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point relative to the current yaw.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	yaw := float64(c.RotationY)
	dir := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
	side := mgl32.Vec3{float32(math.Cos(yaw)), 0, float32(-math.Sin(yaw))}

	move := dir.Mul(-forward).Add(side.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	c.Center = c.Center.Add(move.Mul(speed))
}

// FitToBounds centers the camera on box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(box geometry.AABB) {
	if box.Empty() {
		return
	}
	c.Center = box.Center()
	radius := box.Max.Sub(box.Min).Len() / 2
	half := mgl32.DegToRad(c.FOV) / 2
	c.Distance = mgl32.Clamp(radius/float32(math.Sin(float64(half))), c.MinDistance, c.MaxDistance)
}
