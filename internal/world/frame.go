package world

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/engine/animation"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// pushdown is the state handed from a node to its children during the
// draw walk. It is passed by value.
type pushdown struct {
	transform mgl32.Mat4
	bones     animation.BoneMatrices
}

// NextFrame runs one frame: pending tasks, camera navigation, animation
// and the draw walk of every instance.
func (w *WorldRenderer) NextFrame() {
	w.tasks.Update()
	w.navigator.UpdateCamera()
	w.camera.Commit(w.device)

	for _, reg := range w.registrations {
		root := reg.Instance
		push := pushdown{transform: mgl32.Ident4()}

		if a := root.Animator(); a != nil {
			if a.Updating() {
				if err := a.Update(); err != nil {
					w.log.Warn("animation update failed",
						zap.Stringer("id", reg.ID),
						zap.Error(err),
					)
				}
				root.InvalidateBoundingVolume()
			}
			push.bones = a.ComputedMatrices()
		}

		if err := w.drawTree(root, push); err != nil {
			w.log.Warn("draw failed",
				zap.String("template", reg.OriginalID),
				zap.Stringer("id", reg.ID),
				zap.Error(err),
			)
		}
	}
}

// drawTree draws node and its subtree. The world transform of a node is
// the pushed-down transform times its local transform, recomputed every
// frame. A failing drawable is skipped; the first error is returned.
func (w *WorldRenderer) drawTree(node *scenegraph.Model, push pushdown) error {
	push.transform = push.transform.Mul4(node.LocalMatrix())

	uniforms := node.Uniforms()
	for _, u := range uniforms {
		u.Update()
	}

	var firstErr error
	for _, d := range node.Drawables() {
		if !d.Valid() {
			continue
		}
		if err := w.drawOne(d, uniforms, push); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "node %q", node.ID)
		}
	}

	for _, child := range node.Children() {
		if err := w.drawTree(child, push); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *WorldRenderer) drawOne(d scenegraph.Drawable, uniforms []scenegraph.Uniform, push pushdown) error {
	if err := w.device.UseShader(d.Shader); err != nil {
		return err
	}
	for _, u := range uniforms {
		u.Send(w.device, d.Shader)
	}

	if bones := d.Mesh.Bones; bones != nil && push.bones != nil {
		bones.Configure(push.bones)
		bones.Send(w.device, d.Shader)
	} else {
		w.device.SetInt(d.Shader, scenegraph.SkinnedUniformName, 0)
	}

	w.device.SetMatrix(d.Shader, scenegraph.TransformUniformName, push.transform)

	if err := d.Material.Send(w.device, d.Shader, w.units); err != nil {
		return err
	}
	w.device.DrawMesh(d.Mesh)
	d.Material.ReleaseTextureUnits(w.units)
	return nil
}
