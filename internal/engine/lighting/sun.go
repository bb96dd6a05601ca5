// Package lighting provides the directional light shared by scene shaders.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bluebear/internal/config"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// Uniform names read by the default shader.
const (
	DirectionUniformName = "light_dir"
	ColorUniformName     = "light_color"
	AmbientUniformName   = "ambient"
)

// SunDirection converts longitude/latitude angles in degrees to a light
// direction vector. Longitude is rotation around Y, latitude is elevation
// from the horizon. The result points towards the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(mgl32.DegToRad(longitude))
	latRad := float64(mgl32.DegToRad(latitude))

	// Spherical to Cartesian conversion
	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{x, y, z}
}

// Sun is a directional light sent as a node uniform. A single Sun may be
// attached to many nodes.
type Sun struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Ambient   float32
}

// NewSun builds a sun from the light config section.
func NewSun(cfg config.LightConfig) *Sun {
	return &Sun{
		Direction: SunDirection(cfg.Longitude, cfg.Latitude),
		Color:     mgl32.Vec3(cfg.Color),
		Ambient:   cfg.Ambient,
	}
}

// Update is a no-op, the light does not change per frame.
func (s *Sun) Update() {}

// Send uploads the light.
func (s *Sun) Send(dev scenegraph.Device, shader *scenegraph.Shader) {
	dev.SetVec3(shader, DirectionUniformName, s.Direction)
	dev.SetVec3(shader, ColorUniformName, s.Color)
	dev.SetFloat(shader, AmbientUniformName, s.Ambient)
}

// Clone returns an independent copy.
func (s *Sun) Clone() scenegraph.Uniform {
	c := *s
	return &c
}
