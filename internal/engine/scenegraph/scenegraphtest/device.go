// Package scenegraphtest provides a recording Device for tests that draw
// without a GL context.
package scenegraphtest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// Call is one recorded device call.
type Call struct {
	Op     string
	Shader string
	Name   string
	Value  any
}

func (c Call) String() string {
	if c.Name == "" {
		return fmt.Sprintf("%s(%s)", c.Op, c.Shader)
	}
	return fmt.Sprintf("%s(%s, %s)", c.Op, c.Shader, c.Name)
}

// Device records every call it receives.
type Device struct {
	Calls []Call

	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3

	// UploadErr, when set, is returned by UploadMesh and UploadTexture.
	UploadErr error

	nextID uint32
}

// NewDevice returns an empty recorder.
func NewDevice() *Device {
	return &Device{}
}

var _ scenegraph.Device = (*Device)(nil)

func (d *Device) record(op string, s *scenegraph.Shader, name string, v any) {
	shader := ""
	if s != nil {
		shader = s.Name
	}
	d.Calls = append(d.Calls, Call{Op: op, Shader: shader, Name: name, Value: v})
}

func (d *Device) UseShader(s *scenegraph.Shader) error {
	if s.Program == 0 {
		d.nextID++
		s.Program = d.nextID
	}
	d.record("use", s, "", nil)
	return nil
}

func (d *Device) SetCamera(view, projection mgl32.Mat4, eye mgl32.Vec3) {
	d.View, d.Projection, d.Eye = view, projection, eye
	d.record("camera", nil, "", eye)
}

func (d *Device) SetMatrix(s *scenegraph.Shader, name string, m mgl32.Mat4) {
	d.record("matrix", s, name, m)
}

func (d *Device) SetMatrices(s *scenegraph.Shader, name string, ms []mgl32.Mat4) {
	d.record("matrices", s, name, append([]mgl32.Mat4(nil), ms...))
}

func (d *Device) SetVec3(s *scenegraph.Shader, name string, v mgl32.Vec3) {
	d.record("vec3", s, name, v)
}

func (d *Device) SetVec4(s *scenegraph.Shader, name string, v mgl32.Vec4) {
	d.record("vec4", s, name, v)
}

func (d *Device) SetFloat(s *scenegraph.Shader, name string, v float32) {
	d.record("float", s, name, v)
}

func (d *Device) SetInt(s *scenegraph.Shader, name string, v int32) {
	d.record("int", s, name, v)
}

func (d *Device) BindTexture(unit int, t *scenegraph.Texture) {
	d.record("texture", nil, t.Name, unit)
}

func (d *Device) UploadMesh(m *scenegraph.Mesh) error {
	if d.UploadErr != nil {
		return d.UploadErr
	}
	d.nextID++
	m.GPU = scenegraph.MeshHandles{VAO: d.nextID, Count: int32(len(m.Indices))}
	d.record("upload-mesh", nil, m.Name, nil)
	return nil
}

func (d *Device) UploadTexture(t *scenegraph.Texture) error {
	if d.UploadErr != nil {
		return d.UploadErr
	}
	d.nextID++
	t.ID = d.nextID
	d.record("upload-texture", nil, t.Name, nil)
	return nil
}

func (d *Device) DrawMesh(m *scenegraph.Mesh) {
	d.record("draw", nil, m.Name, nil)
}

// Ops returns the recorded operation names in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Find returns the recorded calls matching op and uniform name.
func (d *Device) Find(op, name string) []Call {
	var out []Call
	for _, c := range d.Calls {
		if c.Op == op && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log.
func (d *Device) Reset() {
	d.Calls = nil
}

// Quad returns a 1x1 square mesh in the XY plane centered on the origin.
func Quad(name string) *scenegraph.Mesh {
	return &scenegraph.Mesh{
		Name: name,
		Vertices: []scenegraph.Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}
