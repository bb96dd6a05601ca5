package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/shader"
	"github.com/Faultbox/bluebear/internal/logger"
)

// Camera uniform names applied to every program when it is bound.
const (
	ViewUniform       = "view"
	ProjectionUniform = "projection"
	CameraUniform     = "camera_pos"
)

// vertexSize is the byte size of scenegraph.Vertex:
// position(3) + normal(3) + uv(2) + joints(4) + weights(4) floats.
const vertexSize = 16 * 4

// GLDevice implements scenegraph.Device on top of OpenGL 4.1 core.
type GLDevice struct {
	programs *shader.Cache
	current  *scenegraph.Shader

	view, projection mgl32.Mat4
	eye              mgl32.Vec3

	meshes   []*scenegraph.Mesh
	textures []*scenegraph.Texture
}

var _ scenegraph.Device = (*GLDevice)(nil)

// NewGLDevice creates a device. A GL context must be current.
func NewGLDevice() *GLDevice {
	return &GLDevice{
		programs:   shader.NewCache(),
		view:       mgl32.Ident4(),
		projection: mgl32.Ident4(),
	}
}

// UseShader binds s, compiling it the first time it is seen, and applies
// the current camera state to it.
func (d *GLDevice) UseShader(s *scenegraph.Shader) error {
	if s == nil {
		return errors.New("nil shader")
	}
	if s.Program == 0 {
		p, err := d.programs.Program(s.Name, s.Vertex, s.Fragment)
		if err != nil {
			return err
		}
		s.Program = p
	}
	if d.current != s {
		gl.UseProgram(s.Program)
		d.current = s
	}
	d.SetMatrix(s, ViewUniform, d.view)
	d.SetMatrix(s, ProjectionUniform, d.projection)
	d.SetVec3(s, CameraUniform, d.eye)
	return nil
}

// SetCamera stores the camera state used by the next UseShader call.
func (d *GLDevice) SetCamera(view, projection mgl32.Mat4, eye mgl32.Vec3) {
	d.view = view
	d.projection = projection
	d.eye = eye
}

func (d *GLDevice) location(s *scenegraph.Shader, name string) int32 {
	if s == nil || s.Program == 0 {
		return -1
	}
	return d.programs.Uniform(s.Program, name)
}

func (d *GLDevice) SetMatrix(s *scenegraph.Shader, name string, m mgl32.Mat4) {
	if loc := d.location(s, name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func (d *GLDevice) SetMatrices(s *scenegraph.Shader, name string, ms []mgl32.Mat4) {
	if len(ms) == 0 {
		return
	}
	if loc := d.location(s, name); loc >= 0 {
		gl.UniformMatrix4fv(loc, int32(len(ms)), false, &ms[0][0])
	}
}

func (d *GLDevice) SetVec3(s *scenegraph.Shader, name string, v mgl32.Vec3) {
	if loc := d.location(s, name); loc >= 0 {
		gl.Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (d *GLDevice) SetVec4(s *scenegraph.Shader, name string, v mgl32.Vec4) {
	if loc := d.location(s, name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

func (d *GLDevice) SetFloat(s *scenegraph.Shader, name string, v float32) {
	if loc := d.location(s, name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

func (d *GLDevice) SetInt(s *scenegraph.Shader, name string, v int32) {
	if loc := d.location(s, name); loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

// BindTexture binds t to the given texture unit.
func (d *GLDevice) BindTexture(unit int, t *scenegraph.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if t == nil {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
}

// UploadMesh creates the VAO, VBO and EBO for m.
func (d *GLDevice) UploadMesh(m *scenegraph.Mesh) error {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return errors.Errorf("mesh %q has no geometry", m.Name)
	}

	var h scenegraph.MeshHandles
	gl.GenVertexArrays(1, &h.VAO)
	gl.BindVertexArray(h.VAO)

	gl.GenBuffers(1, &h.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexSize, 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexSize, 3*4)
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexSize, 6*4)
	gl.EnableVertexAttribArray(2)
	// Joints
	gl.VertexAttribPointerWithOffset(3, 4, gl.FLOAT, false, vertexSize, 8*4)
	gl.EnableVertexAttribArray(3)
	// Weights
	gl.VertexAttribPointerWithOffset(4, 4, gl.FLOAT, false, vertexSize, 12*4)
	gl.EnableVertexAttribArray(4)

	gl.GenBuffers(1, &h.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	h.Count = int32(len(m.Indices))
	m.GPU = h
	d.meshes = append(d.meshes, m)
	logger.Debug("mesh uploaded",
		zap.String("mesh", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int32("indices", h.Count),
	)
	return nil
}

// UploadTexture creates a mipmapped GL texture from t.Image.
func (d *GLDevice) UploadTexture(t *scenegraph.Texture) error {
	img := t.Image
	if img == nil || len(img.Pix) == 0 {
		return errors.Errorf("texture %q has no pixels", t.Name)
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	t.ID = texID
	d.textures = append(d.textures, t)
	return nil
}

// DrawMesh issues the indexed draw call for m.
func (d *GLDevice) DrawMesh(m *scenegraph.Mesh) {
	if !m.Uploaded || m.GPU.VAO == 0 {
		return
	}
	gl.BindVertexArray(m.GPU.VAO)
	gl.DrawElements(gl.TRIANGLES, m.GPU.Count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Close deletes every GPU object created through the device.
func (d *GLDevice) Close() {
	for _, m := range d.meshes {
		if m.GPU.VAO != 0 {
			gl.DeleteVertexArrays(1, &m.GPU.VAO)
		}
		if m.GPU.VBO != 0 {
			gl.DeleteBuffers(1, &m.GPU.VBO)
		}
		if m.GPU.EBO != 0 {
			gl.DeleteBuffers(1, &m.GPU.EBO)
		}
		m.GPU = scenegraph.MeshHandles{}
		m.Uploaded = false
	}
	for _, t := range d.textures {
		if t.ID != 0 {
			gl.DeleteTextures(1, &t.ID)
		}
		t.ID = 0
		t.Uploaded = false
	}
	d.meshes = nil
	d.textures = nil
	d.programs.Delete()
	d.current = nil
}
