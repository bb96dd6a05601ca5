package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bluebear/internal/config"
	"github.com/Faultbox/bluebear/internal/engine/camera"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph/scenegraphtest"
)

const (
	viewportW = 800
	viewportH = 600

	// A cursor slightly right of the viewport center. It lands inside a
	// unit quad at the origin without touching the quad's diagonal.
	pickX = viewportW/2 + 10
	pickY = viewportH / 2
)

var testShader = &scenegraph.Shader{Name: "test"}

// newTestWorld returns a world whose camera sits at (0,0,10) looking down
// -Z, so the viewport center picks along the Z axis.
func newTestWorld(t *testing.T, options ...Option) (*WorldRenderer, *scenegraphtest.Device) {
	t.Helper()
	dev := scenegraphtest.NewDevice()
	cam := camera.New(config.Default().Camera, viewportW, viewportH)
	cam.RotationX, cam.RotationY = 0, 0
	cam.Distance = 10

	w := New(dev, cam, options...)
	t.Cleanup(w.Close)
	return w, dev
}

// quadTemplate is a one-node model holding a unit quad in the XY plane.
func quadTemplate(id string) *scenegraph.Model {
	m := scenegraph.NewModel(id)
	m.AddDrawable(scenegraph.Drawable{
		Mesh:     scenegraphtest.Quad(id + "-mesh"),
		Material: scenegraph.NewMaterial(mgl32.Vec3{1, 1, 1}),
		Shader:   testShader,
	})
	return m
}

// drain runs Update until the table is empty.
func drain(t *testing.T, w *WorldRenderer) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		w.tasks.Update()
		if w.tasks.Pending() == 0 {
			// One more call fires callbacks of batches whose last item
			// just ran.
			w.tasks.Update()
			return
		}
	}
	t.Fatal("task table did not drain")
}

type recordingListener struct {
	added   []*ModelRegistration
	removed []*ModelRegistration
}

func (l *recordingListener) ModelAdded(reg *ModelRegistration)   { l.added = append(l.added, reg) }
func (l *recordingListener) ModelRemoved(reg *ModelRegistration) { l.removed = append(l.removed, reg) }
