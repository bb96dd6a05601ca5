package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bluebear/internal/config"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph/scenegraphtest"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"horizon north", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"horizon east", 90, 0, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			assertVec3(t, tt.want, got, 1e-5)
			assert.InDelta(t, 1, got.Len(), 1e-5)
		})
	}
}

func TestSunSend(t *testing.T) {
	sun := NewSun(config.LightConfig{Latitude: 90, Color: [3]float32{1, 0.5, 0}, Ambient: 0.2})
	dev := scenegraphtest.NewDevice()
	s := &scenegraph.Shader{Name: "lit"}

	sun.Update()
	sun.Send(dev, s)

	dir := dev.Find("vec3", DirectionUniformName)
	require.Len(t, dir, 1)
	assertVec3(t, mgl32.Vec3{0, 1, 0}, dir[0].Value.(mgl32.Vec3), 1e-5)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, dev.Find("vec3", ColorUniformName)[0].Value)
	assert.Equal(t, float32(0.2), dev.Find("float", AmbientUniformName)[0].Value)
}

func TestSunClone(t *testing.T) {
	sun := NewSun(config.Default().Light)
	c := sun.Clone().(*Sun)
	c.Ambient = 1
	assert.NotEqual(t, sun.Ambient, c.Ambient)
}

// assertVec3 compares component-wise with an absolute tolerance.
func assertVec3(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "want %v, got %v", want, got)
}
