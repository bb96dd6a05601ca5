package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/engine/input"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// downZ passes through the interior of a quad placed on the Z axis, away
// from the diagonal shared by its two triangles.
var downZ = geometry.NewRay(mgl32.Vec3{0.2, -0.1, 10}, mgl32.Vec3{0, 0, -1})

// placeAt places a quad template instance at depth z.
func placeAt(t *testing.T, w *WorldRenderer, id string, z float32) *scenegraph.Model {
	t.Helper()
	if _, ok := w.Original(id); !ok {
		w.LoadDirect(id, quadTemplate(id))
	}
	m, err := w.PlaceObject(id)
	require.NoError(t, err)
	m.SetPosition(mgl32.Vec3{0, 0, z})
	return m
}

func pickOnce(t *testing.T, w *WorldRenderer, r geometry.Ray) (*ModelRegistration, int) {
	t.Helper()
	var winner *ModelRegistration
	calls := 0
	w.pick(r, func(reg *ModelRegistration) {
		winner = reg
		calls++
	})
	drain(t, w)
	return winner, calls
}

func TestPickNearestWinsRegardlessOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		depths []float32
	}{
		{"near placed last", []float32{-3, 0, 2}},
		{"near placed first", []float32{2, 0, -3}},
		{"near in the middle", []float32{0, 2, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A budget of one item per frame spreads the batch over
			// several Updates.
			w, _ := newTestWorld(t, WithTasksPerFrame(1))
			var nearest *scenegraph.Model
			for i, z := range tt.depths {
				m := placeAt(t, w, "quad", z)
				if tt.depths[i] == 2 {
					nearest = m
				}
			}

			winner, calls := pickOnce(t, w, downZ)
			assert.Equal(t, 1, calls)
			require.NotNil(t, winner)
			assert.Same(t, nearest, winner.Instance)
		})
	}
}

func TestPickMissAndEmptyWorld(t *testing.T) {
	w, _ := newTestWorld(t)

	winner, calls := pickOnce(t, w, downZ)
	assert.Equal(t, 1, calls, "an empty batch still completes")
	assert.Nil(t, winner)

	placeAt(t, w, "quad", 0)
	offAxis := geometry.NewRay(mgl32.Vec3{5, 5, 10}, mgl32.Vec3{0, 0, -1})
	winner, _ = pickOnce(t, w, offAxis)
	assert.Nil(t, winner)
}

func TestPickRemovedWinnerIsMiss(t *testing.T) {
	w, _ := newTestWorld(t)
	m := placeAt(t, w, "quad", 0)

	var winner *ModelRegistration
	done := false
	w.pick(downZ, func(reg *ModelRegistration) {
		winner = reg
		done = true
	})
	w.RemoveObject(m)
	drain(t, w)

	assert.True(t, done)
	assert.Nil(t, winner)
}

func TestMouseInOutOnlyOnChange(t *testing.T) {
	w, _ := newTestWorld(t)
	m := placeAt(t, w, "quad", 0)

	var events []string
	w.RegisterEvent(m, EventMouseIn, func(input.Metadata, *scenegraph.Model) { events = append(events, "in") })
	w.RegisterEvent(m, EventMouseOut, func(input.Metadata, *scenegraph.Model) { events = append(events, "out") })

	center := input.Metadata{Type: input.EventMouseMove, MouseX: pickX, MouseY: pickY}
	corner := input.Metadata{Type: input.EventMouseMove, MouseX: 0, MouseY: 0}

	w.OnMouseMove(center)
	drain(t, w)
	assert.Equal(t, []string{"in"}, events)
	assert.Same(t, m, w.Hovered())

	w.OnMouseMove(center)
	drain(t, w)
	assert.Equal(t, []string{"in"}, events, "reconfirming the target fires nothing")

	w.OnMouseMove(corner)
	drain(t, w)
	assert.Equal(t, []string{"in", "out"}, events)
	assert.Nil(t, w.Hovered())

	w.OnMouseMove(corner)
	drain(t, w)
	assert.Equal(t, []string{"in", "out"}, events)
}

func TestMouseMoveBusyGuard(t *testing.T) {
	w, _ := newTestWorld(t)
	placeAt(t, w, "quad", 0)

	center := input.Metadata{Type: input.EventMouseMove, MouseX: pickX, MouseY: pickY}
	w.OnMouseMove(center)
	w.OnMouseMove(center)
	w.OnMouseMove(center)

	// One quad is two triangles, so only one batch is queued.
	assert.Equal(t, 2, w.tasks.Pending())

	drain(t, w)
	w.OnMouseMove(center)
	assert.Equal(t, 2, w.tasks.Pending())
}

func TestRemovingHoveredClearsIt(t *testing.T) {
	w, _ := newTestWorld(t)
	m := placeAt(t, w, "quad", 0)

	outs := 0
	w.RegisterEvent(m, EventMouseOut, func(input.Metadata, *scenegraph.Model) { outs++ })

	w.OnMouseMove(input.Metadata{MouseX: pickX, MouseY: pickY})
	drain(t, w)
	require.Same(t, m, w.Hovered())

	w.RemoveObject(m)
	assert.Nil(t, w.Hovered())

	w.OnMouseMove(input.Metadata{MouseX: 0, MouseY: 0})
	drain(t, w)
	assert.Zero(t, outs, "removed instances receive no events")
}

func TestMouseDownFiresOnTarget(t *testing.T) {
	w, _ := newTestWorld(t)
	near := placeAt(t, w, "quad", 1)
	far := placeAt(t, w, "quad", -1)

	var hits []*scenegraph.Model
	record := func(_ input.Metadata, target *scenegraph.Model) { hits = append(hits, target) }
	w.RegisterEvent(near, EventMouseDown, record)
	w.RegisterEvent(far, EventMouseDown, record)
	w.RegisterEvent(near, EventMouseUp, record)

	w.OnMouseDown(input.Metadata{Type: input.EventMouseDown, Left: true, MouseX: pickX, MouseY: pickY})
	w.OnMouseUp(input.Metadata{Type: input.EventMouseUp, Left: true, MouseX: pickX, MouseY: pickY})
	drain(t, w)

	assert.Equal(t, []*scenegraph.Model{near, near}, hits)
}

func TestRightButtonNavigatesWithoutPicking(t *testing.T) {
	w, _ := newTestWorld(t)
	placeAt(t, w, "quad", 0)
	yaw := w.Camera().RotationY

	w.OnMouseDown(input.Metadata{Type: input.EventMouseDown, Right: true, MouseX: 100, MouseY: 100})
	assert.Zero(t, w.tasks.Pending())

	w.OnMouseMove(input.Metadata{Type: input.EventMouseMove, MouseX: 150, MouseY: 100})
	assert.Zero(t, w.tasks.Pending(), "moves during navigation do not pick")

	w.NextFrame()
	assert.NotEqual(t, yaw, w.Camera().RotationY)

	w.OnMouseUp(input.Metadata{Type: input.EventMouseUp, Right: true, MouseX: 150, MouseY: 100})
	assert.Zero(t, w.tasks.Pending())
	assert.False(t, w.navigator.Active())
}

func TestBindInputRoutesDispatcher(t *testing.T) {
	w, _ := newTestWorld(t)
	m := placeAt(t, w, "quad", 0)

	downs := 0
	w.RegisterEvent(m, EventMouseDown, func(input.Metadata, *scenegraph.Model) { downs++ })

	d := input.NewDispatcher()
	w.BindInput(d)
	d.Dispatch(input.Metadata{Type: input.EventMouseDown, Left: true, MouseX: pickX, MouseY: pickY})
	drain(t, w)
	assert.Equal(t, 1, downs)

	d.Dispatch(input.Metadata{Type: input.EventWindowResize, Width: 1024, Height: 768})
	assert.Equal(t, 1024, w.Camera().Width)

	w.UnbindInput()
	d.Dispatch(input.Metadata{Type: input.EventMouseDown, Left: true, MouseX: pickX, MouseY: pickY})
	assert.Zero(t, w.tasks.Pending())
}
