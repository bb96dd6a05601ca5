package world

import (
	"github.com/Faultbox/bluebear/internal/engine/async"
	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/engine/input"
)

// closestHit is shared by every triangle task of one picking batch. The
// tasks run on the Update caller, so no locking is needed.
type closestHit struct {
	reg      *ModelRegistration
	distance float32
}

func (h *closestHit) offer(reg *ModelRegistration, distance float32) {
	if h.reg == nil || distance < h.distance {
		h.reg = reg
		h.distance = distance
	}
}

// pick tests r against every live instance and calls done with the
// nearest hit, or nil, once the batch has drained through the task table.
// Instances removed while the batch was pending count as a miss.
func (w *WorldRenderer) pick(r geometry.Ray, done func(*ModelRegistration)) {
	hit := &closestHit{}
	var tasks []async.Task

	for _, reg := range w.registrations {
		if !reg.Instance.IntersectsBoundingVolume(r) {
			continue
		}
		for _, tri := range reg.Instance.Triangles() {
			tasks = append(tasks, triangleTask(r, tri, reg, hit))
		}
	}

	w.tasks.Enqueue(tasks, func() {
		winner := hit.reg
		if winner != nil && !w.live(winner) {
			winner = nil
		}
		done(winner)
	})
}

func triangleTask(r geometry.Ray, tri geometry.Triangle, reg *ModelRegistration, hit *closestHit) async.Task {
	return func() error {
		if in, ok := r.IntersectTriangle(tri); ok {
			hit.offer(reg, in.Distance)
		}
		return nil
	}
}

// BindInput registers the world's mouse handlers on d.
func (w *WorldRenderer) BindInput(d *input.Dispatcher) {
	w.UnbindInput()
	w.dispatcher = d
	for typ, cb := range map[input.EventType]input.Callback{
		input.EventMouseMove:    w.OnMouseMove,
		input.EventMouseDown:    w.OnMouseDown,
		input.EventMouseUp:      w.OnMouseUp,
		input.EventMouseWheel:   w.onMouseWheel,
		input.EventWindowResize: w.onResize,
	} {
		w.bound = append(w.bound, binding{typ: typ, slot: d.Register(typ, cb)})
	}
}

// UnbindInput removes the handlers added by BindInput.
func (w *WorldRenderer) UnbindInput() {
	if w.dispatcher == nil {
		return
	}
	for _, b := range w.bound {
		w.dispatcher.Unregister(b.typ, b.slot)
	}
	w.bound = nil
	w.dispatcher = nil
}

// OnMouseMove feeds the navigation gesture, or hover-picks when none is
// active. Only one hover pick is outstanding at a time.
func (w *WorldRenderer) OnMouseMove(meta input.Metadata) {
	if w.navigator.Active() {
		w.navigator.SetVector(meta.MouseX, meta.MouseY)
		return
	}
	if w.moveBusy {
		return
	}
	w.moveBusy = true

	w.pick(w.camera.PickingRay(meta.MouseX, meta.MouseY), func(reg *ModelRegistration) {
		w.moveBusy = false

		previous := w.hovered
		if previous != nil && !w.live(previous) {
			previous = nil
		}
		if reg == previous {
			w.hovered = reg
			return
		}
		w.hovered = reg
		if previous != nil {
			previous.fire(EventMouseOut, meta)
		}
		if reg != nil {
			reg.fire(EventMouseIn, meta)
		}
	})
}

// OnMouseDown starts camera navigation on the right button and picks for
// any other button.
func (w *WorldRenderer) OnMouseDown(meta input.Metadata) {
	if meta.Right {
		w.navigator.Start(meta.MouseX, meta.MouseY)
		return
	}
	w.pickAndFire(meta, EventMouseDown)
}

// OnMouseUp ends camera navigation or picks for the released button.
func (w *WorldRenderer) OnMouseUp(meta input.Metadata) {
	if meta.Right || w.navigator.Active() {
		w.navigator.Reset()
		return
	}
	w.pickAndFire(meta, EventMouseUp)
}

func (w *WorldRenderer) pickAndFire(meta input.Metadata, tag string) {
	w.pick(w.camera.PickingRay(meta.MouseX, meta.MouseY), func(reg *ModelRegistration) {
		if reg != nil {
			reg.fire(tag, meta)
		}
	})
}

func (w *WorldRenderer) onMouseWheel(meta input.Metadata) {
	w.camera.HandleZoom(float32(meta.Wheel))
}

func (w *WorldRenderer) onResize(meta input.Metadata) {
	w.camera.SetViewport(meta.Width, meta.Height)
}
