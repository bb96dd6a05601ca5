package scenegraph

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrExceededTextureUnits is returned when a material needs more texture
// units than are free.
var ErrExceededTextureUnits = errors.New("exceeded available texture units")

// TextureUnits is a bounded allocator over the GPU's texture units.
// Acquired units must be released before the next drawable claims them.
type TextureUnits struct {
	inUse []bool
}

// NewTextureUnits creates an allocator over max units.
func NewTextureUnits(max int) *TextureUnits {
	if max < 1 {
		max = 1
	}
	return &TextureUnits{inUse: make([]bool, max)}
}

// Acquire returns the lowest free unit.
func (u *TextureUnits) Acquire() (int, error) {
	for i, used := range u.inUse {
		if !used {
			u.inUse[i] = true
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrExceededTextureUnits, "all %d units in use", len(u.inUse))
}

// Release frees unit. Releasing a free or unknown unit is a no-op.
func (u *TextureUnits) Release(unit int) {
	if unit >= 0 && unit < len(u.inUse) {
		u.inUse[unit] = false
	}
}

// InUse returns the number of acquired units.
func (u *TextureUnits) InUse() int {
	n := 0
	for _, used := range u.inUse {
		if used {
			n++
		}
	}
	return n
}

// Capacity returns the total number of units.
func (u *TextureUnits) Capacity() int {
	return len(u.inUse)
}

// TexturedUniformName is the int flag telling the shader to sample
// material.diffuse0 instead of the flat diffuse color.
const TexturedUniformName = "textured"

// Material holds the lighting colors and texture lists of a drawable.
// Texture lists take precedence over the matching color.
type Material struct {
	Name             string
	Ambient          mgl32.Vec3
	UseAmbient       bool
	Diffuse          mgl32.Vec3
	Specular         mgl32.Vec3
	Shininess        float32
	DiffuseTextures  []*Texture
	SpecularTextures []*Texture

	locked []int
}

// NewMaterial returns a flat-colored material.
func NewMaterial(diffuse mgl32.Vec3) *Material {
	return &Material{
		Diffuse:   diffuse,
		Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
		Shininess: 32,
	}
}

// Send pushes the material uniforms to s and binds its textures. Every
// acquired unit stays locked until ReleaseTextureUnits. On failure all
// units acquired by this call are released again.
func (m *Material) Send(dev Device, s *Shader, units *TextureUnits) error {
	if m.UseAmbient {
		dev.SetVec3(s, "material.ambient", m.Ambient)
	}

	if len(m.DiffuseTextures) == 0 {
		dev.SetInt(s, TexturedUniformName, 0)
		dev.SetVec3(s, "material.diffuse", m.Diffuse)
	} else if err := m.bindTextures(dev, s, units, "material.diffuse", m.DiffuseTextures); err != nil {
		m.ReleaseTextureUnits(units)
		return err
	} else {
		dev.SetInt(s, TexturedUniformName, 1)
	}

	if len(m.SpecularTextures) == 0 {
		dev.SetVec3(s, "material.specular", m.Specular)
	} else if err := m.bindTextures(dev, s, units, "material.specular", m.SpecularTextures); err != nil {
		m.ReleaseTextureUnits(units)
		return err
	}

	dev.SetFloat(s, "material.shininess", m.Shininess)
	return nil
}

func (m *Material) bindTextures(dev Device, s *Shader, units *TextureUnits, prefix string, textures []*Texture) error {
	for i, tex := range textures {
		unit, err := units.Acquire()
		if err != nil {
			return errors.Wrapf(err, "material %q", m.Name)
		}
		m.locked = append(m.locked, unit)
		dev.BindTexture(unit, tex)
		dev.SetInt(s, prefix+strconv.Itoa(i), int32(unit))
	}
	return nil
}

// ReleaseTextureUnits frees the units locked by the last Send.
func (m *Material) ReleaseTextureUnits(units *TextureUnits) {
	for _, unit := range m.locked {
		units.Release(unit)
	}
	m.locked = m.locked[:0]
}

// SendDeferred uploads every texture of the material.
func (m *Material) SendDeferred(dev Device) error {
	for _, list := range [][]*Texture{m.DiffuseTextures, m.SpecularTextures} {
		for _, tex := range list {
			if err := tex.SendDeferred(dev); err != nil {
				return errors.Wrapf(err, "texture %q", tex.Name)
			}
		}
	}
	return nil
}
