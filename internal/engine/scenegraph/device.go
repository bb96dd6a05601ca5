// Package scenegraph holds the model tree and the leaf data drawn from it.
//
// Nothing in this package talks to OpenGL directly. All GPU work goes
// through Device, which the renderer package implements.
package scenegraph

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// TransformUniformName is the mat4 uniform that receives a node's
// cumulative transform.
const TransformUniformName = "model"

// Device is the rendering backend used to upload and draw scene data.
// All methods must be called from the thread that owns the GL context.
type Device interface {
	// UseShader makes s the active program, compiling it on first use.
	UseShader(s *Shader) error
	// SetCamera stores the view state applied to every program on use.
	SetCamera(view, projection mgl32.Mat4, eye mgl32.Vec3)

	SetMatrix(s *Shader, name string, m mgl32.Mat4)
	SetMatrices(s *Shader, name string, ms []mgl32.Mat4)
	SetVec3(s *Shader, name string, v mgl32.Vec3)
	SetVec4(s *Shader, name string, v mgl32.Vec4)
	SetFloat(s *Shader, name string, v float32)
	SetInt(s *Shader, name string, v int32)

	// BindTexture binds t to the given texture unit.
	BindTexture(unit int, t *Texture)

	UploadMesh(m *Mesh) error
	UploadTexture(t *Texture) error

	// DrawMesh issues the indexed draw call for m.
	DrawMesh(m *Mesh)
}

// Shader is a GLSL program description. Program is assigned by the
// device the first time the shader is used.
type Shader struct {
	Name     string
	Vertex   string
	Fragment string
	Program  uint32
}

// Texture is an RGBA image and its GPU handle.
type Texture struct {
	Name     string
	Image    *image.RGBA
	ID       uint32
	Uploaded bool
}

// SendDeferred uploads the texture if it has not been uploaded yet.
func (t *Texture) SendDeferred(dev Device) error {
	if t.Uploaded {
		return nil
	}
	if err := dev.UploadTexture(t); err != nil {
		return err
	}
	t.Uploaded = true
	return nil
}
