package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/bluebear/internal/engine/animation"
	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/engine/transform"
)

// Drawable is a mesh drawn with a material and shader. All three are
// shared between a template and its instances.
type Drawable struct {
	Mesh     *Mesh
	Material *Material
	Shader   *Shader
}

// Valid reports whether the drawable can be drawn.
func (d Drawable) Valid() bool {
	return d.Mesh != nil && d.Material != nil && d.Shader != nil
}

// Model is one node of a model tree. A node owns its children; Copy
// produces an independent tree that shares only immutable leaf data.
type Model struct {
	ID string

	local     transform.Transform
	drawables []Drawable
	children  []*Model
	parent    *Model
	animator  *animation.Animator
	uniforms  []Uniform

	bounds      geometry.AABB
	boundsValid bool
}

// NewModel creates an empty node with an identity transform.
func NewModel(id string) *Model {
	return &Model{ID: id, local: transform.Identity()}
}

// Local returns the node's local transform.
func (m *Model) Local() transform.Transform {
	return m.local
}

// SetLocal replaces the local transform and invalidates the bounding
// volumes of this node and its ancestors.
func (m *Model) SetLocal(t transform.Transform) {
	m.local = t
	m.InvalidateBoundingVolume()
}

// SetPosition moves the node.
func (m *Model) SetPosition(p mgl32.Vec3) {
	t := m.local
	t.Position = p
	m.SetLocal(t)
}

// SetRotation rotates the node.
func (m *Model) SetRotation(q mgl32.Quat) {
	t := m.local
	t.Rotation = q
	m.SetLocal(t)
}

// SetScale scales the node.
func (m *Model) SetScale(s mgl32.Vec3) {
	t := m.local
	t.Scale = s
	m.SetLocal(t)
}

// LocalMatrix returns the composed local transform.
func (m *Model) LocalMatrix() mgl32.Mat4 {
	return m.local.Matrix()
}

// AddDrawable appends a drawable to the node.
func (m *Model) AddDrawable(d Drawable) {
	m.drawables = append(m.drawables, d)
	m.InvalidateBoundingVolume()
}

// Drawables returns the node's drawables in draw order.
func (m *Model) Drawables() []Drawable {
	return m.drawables
}

// AddChild attaches child under m.
func (m *Model) AddChild(child *Model) {
	child.parent = m
	m.children = append(m.children, child)
	m.InvalidateBoundingVolume()
}

// Children returns the node's children in insertion order.
func (m *Model) Children() []*Model {
	return m.children
}

// Parent returns the owning node, or nil for a root.
func (m *Model) Parent() *Model {
	return m.parent
}

// FindChild returns the first descendant with the given id, depth first.
func (m *Model) FindChild(id string) *Model {
	for _, c := range m.children {
		if c.ID == id {
			return c
		}
		if found := c.FindChild(id); found != nil {
			return found
		}
	}
	return nil
}

// Animator returns the node's animator, or nil.
func (m *Model) Animator() *animation.Animator {
	return m.animator
}

// SetAnimator attaches an animator to the node.
func (m *Model) SetAnimator(a *animation.Animator) {
	m.animator = a
}

// AddUniform attaches per-node shader state.
func (m *Model) AddUniform(u Uniform) {
	m.uniforms = append(m.uniforms, u)
}

// Uniforms returns the node's uniforms.
func (m *Model) Uniforms() []Uniform {
	return m.uniforms
}

// Highlight returns the node's highlight uniform, or nil.
func (m *Model) Highlight() *HighlightUniform {
	for _, u := range m.uniforms {
		if h, ok := u.(*HighlightUniform); ok {
			return h
		}
	}
	return nil
}

// Copy deep-copies the tree rooted at m. The copy is a new root.
func (m *Model) Copy() *Model {
	out := &Model{
		ID:          m.ID,
		local:       m.local,
		drawables:   append([]Drawable(nil), m.drawables...),
		bounds:      m.bounds,
		boundsValid: m.boundsValid,
	}
	if m.animator != nil {
		out.animator = m.animator.Copy()
	}
	for _, u := range m.uniforms {
		out.uniforms = append(out.uniforms, u.Clone())
	}
	for _, child := range m.children {
		c := child.Copy()
		c.parent = out
		out.children = append(out.children, c)
	}
	return out
}

// Triangles flattens every drawable triangle in the tree, transformed by
// the cumulative transform of its node starting at m's local transform.
func (m *Model) Triangles() []geometry.Triangle {
	var out []geometry.Triangle
	m.collectTriangles(mgl32.Ident4(), &out)
	return out
}

func (m *Model) collectTriangles(parent mgl32.Mat4, out *[]geometry.Triangle) {
	level := parent.Mul4(m.LocalMatrix())
	for _, d := range m.drawables {
		if d.Mesh == nil {
			continue
		}
		for _, tri := range d.Mesh.Triangles() {
			*out = append(*out, tri.Transform(level))
		}
	}
	for _, child := range m.children {
		child.collectTriangles(level, out)
	}
}

// BoundingVolume returns the box around Triangles, computing it on first
// use after an invalidation.
func (m *Model) BoundingVolume() geometry.AABB {
	if m.boundsValid {
		return m.bounds
	}
	box := geometry.EmptyAABB()
	for _, tri := range m.Triangles() {
		for _, v := range tri {
			box.Extend(v)
		}
	}
	m.bounds = box
	m.boundsValid = true
	return box
}

// InvalidateBoundingVolume drops the cached box of m and its ancestors.
func (m *Model) InvalidateBoundingVolume() {
	for n := m; n != nil; n = n.parent {
		n.boundsValid = false
	}
}

// IntersectsBoundingVolume is the cheap broad-phase test for picking.
func (m *Model) IntersectsBoundingVolume(r geometry.Ray) bool {
	box := m.BoundingVolume()
	if box.Empty() {
		return false
	}
	_, hit := r.IntersectAABB(box)
	return hit
}

// SendDeferred uploads every mesh and texture in the tree. It must run on
// the thread owning the GL context.
func (m *Model) SendDeferred(dev Device) error {
	for _, d := range m.drawables {
		if d.Mesh != nil {
			if err := d.Mesh.SendDeferred(dev); err != nil {
				return errors.Wrapf(err, "node %q mesh %q", m.ID, d.Mesh.Name)
			}
		}
		if d.Material != nil {
			if err := d.Material.SendDeferred(dev); err != nil {
				return errors.Wrapf(err, "node %q material %q", m.ID, d.Material.Name)
			}
		}
	}
	for _, child := range m.children {
		if err := child.SendDeferred(dev); err != nil {
			return err
		}
	}
	return nil
}
