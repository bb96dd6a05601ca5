// Package world keeps the live instances of the scene, routes picking
// driven input to them and draws them every frame.
package world

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/engine/async"
	"github.com/Faultbox/bluebear/internal/engine/camera"
	"github.com/Faultbox/bluebear/internal/engine/input"
	"github.com/Faultbox/bluebear/internal/engine/loader"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/logger"
)

// ErrObjectIDNotRegistered is returned when a template id is unknown.
var ErrObjectIDNotRegistered = errors.New("object id not registered")

// Listener receives instance lifecycle notifications.
type Listener interface {
	ModelAdded(reg *ModelRegistration)
	ModelRemoved(reg *ModelRegistration)
}

type nopListener struct{}

func (nopListener) ModelAdded(*ModelRegistration)   {}
func (nopListener) ModelRemoved(*ModelRegistration) {}

// WorldRenderer owns the template store and the placed instances.
// Everything except the parallel load workers runs on the main thread.
type WorldRenderer struct {
	log *zap.Logger

	device    scenegraph.Device
	camera    *camera.OrbitCamera
	navigator *camera.MouseNavigator
	tasks     *async.Table
	units     *scenegraph.TextureUnits
	listener  Listener

	loaders  loader.Factory
	workers  int
	pool     worker.DynamicWorkerPool
	poolOpen bool

	originals     map[string]*scenegraph.Model
	registrations []*ModelRegistration

	hovered  *ModelRegistration
	moveBusy bool

	dispatcher *input.Dispatcher
	bound      []binding
}

type binding struct {
	typ  input.EventType
	slot int
}

// Option configures a WorldRenderer.
type Option func(*WorldRenderer)

// WithListener sets the sink for model added/removed notifications.
func WithListener(l Listener) Option {
	return func(w *WorldRenderer) {
		if l != nil {
			w.listener = l
		}
	}
}

// WithLoaderFactory sets how loaders are built for the Load* methods.
func WithLoaderFactory(f loader.Factory) Option {
	return func(w *WorldRenderer) {
		w.loaders = f
	}
}

// WithWorkers sets the parallel load worker count.
func WithWorkers(n int) Option {
	return func(w *WorldRenderer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithTasksPerFrame sets the async table budget.
func WithTasksPerFrame(n int) Option {
	return func(w *WorldRenderer) {
		w.tasks.SetAmountPerFrame(n)
	}
}

// WithTextureUnits sets how many texture units a draw may bind at once.
func WithTextureUnits(n int) Option {
	return func(w *WorldRenderer) {
		if n > 0 {
			w.units = scenegraph.NewTextureUnits(n)
		}
	}
}

// New creates an empty world drawing through dev and viewed by cam.
func New(dev scenegraph.Device, cam *camera.OrbitCamera, options ...Option) *WorldRenderer {
	w := &WorldRenderer{
		log:       logger.Named("world"),
		device:    dev,
		camera:    cam,
		navigator: camera.NewMouseNavigator(cam),
		tasks:     async.NewTable(async.DefaultAmountPerFrame),
		units:     scenegraph.NewTextureUnits(16),
		listener:  nopListener{},
		workers:   2,
		originals: make(map[string]*scenegraph.Model),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Camera returns the world camera.
func (w *WorldRenderer) Camera() *camera.OrbitCamera {
	return w.camera
}

// Tasks returns the per-frame task table drained by NextFrame.
func (w *WorldRenderer) Tasks() *async.Table {
	return w.tasks
}

// TextureUnits returns the unit allocator shared by all draws.
func (w *WorldRenderer) TextureUnits() *scenegraph.TextureUnits {
	return w.units
}

// PlaceObject instances the template registered under templateID, tags it
// with classes and adds it to the world.
func (w *WorldRenderer) PlaceObject(templateID string, classes ...string) (*scenegraph.Model, error) {
	original, ok := w.originals[templateID]
	if !ok {
		return nil, errors.Wrapf(ErrObjectIDNotRegistered, "place %q", templateID)
	}

	instance := original.Copy()
	reg := newRegistration(templateID, NewClassSet(classes...), instance)
	w.registrations = append(w.registrations, reg)

	w.log.Debug("object placed",
		zap.String("template", templateID),
		zap.Stringer("id", reg.ID),
		zap.Stringer("classes", reg.Classes),
	)
	w.listener.ModelAdded(reg)
	return instance, nil
}

// RemoveObject removes instance from the world. It reports false and does
// nothing when the instance is not registered.
func (w *WorldRenderer) RemoveObject(instance *scenegraph.Model) bool {
	idx := w.indexOf(instance)
	if idx < 0 {
		return false
	}
	reg := w.registrations[idx]
	if w.hovered == reg {
		w.hovered = nil
	}

	copy(w.registrations[idx:], w.registrations[idx+1:])
	w.registrations[len(w.registrations)-1] = nil
	w.registrations = w.registrations[:len(w.registrations)-1]

	w.log.Debug("object removed",
		zap.String("template", reg.OriginalID),
		zap.Stringer("id", reg.ID),
	)
	w.listener.ModelRemoved(reg)
	return true
}

// FindObjectsByType returns the live instances of templateID in placement
// order.
func (w *WorldRenderer) FindObjectsByType(templateID string) []*scenegraph.Model {
	var out []*scenegraph.Model
	for _, reg := range w.registrations {
		if reg.OriginalID == templateID {
			out = append(out, reg.Instance)
		}
	}
	return out
}

// FindObjectsByClass returns the instances whose class set equals classes
// exactly.
func (w *WorldRenderer) FindObjectsByClass(classes ...string) []*scenegraph.Model {
	want := NewClassSet(classes...)
	var out []*scenegraph.Model
	for _, reg := range w.registrations {
		if reg.Classes.Equal(want) {
			out = append(out, reg.Instance)
		}
	}
	return out
}

// RegisterEvent attaches cb to tag on instance and returns its slot. The
// second result is false when the instance is not in the world.
func (w *WorldRenderer) RegisterEvent(instance *scenegraph.Model, tag string, cb EventCallback) (int, bool) {
	reg := w.registration(instance)
	if reg == nil {
		w.log.Warn("register event on unknown instance", zap.String("event", tag))
		return 0, false
	}
	if cb == nil {
		w.log.Warn("register nil event callback", zap.String("event", tag))
		return 0, false
	}
	return reg.addEvent(tag, cb), true
}

// UnregisterEvent clears a slot returned by RegisterEvent.
func (w *WorldRenderer) UnregisterEvent(instance *scenegraph.Model, tag string, slot int) bool {
	reg := w.registration(instance)
	if reg == nil {
		return false
	}
	return reg.clearEvent(tag, slot)
}

// Instance resolves a registration handle.
func (w *WorldRenderer) Instance(id uuid.UUID) (*scenegraph.Model, bool) {
	for _, reg := range w.registrations {
		if reg.ID == id {
			return reg.Instance, true
		}
	}
	return nil, false
}

// Registration returns the registration owning instance, or nil.
func (w *WorldRenderer) Registration(instance *scenegraph.Model) *ModelRegistration {
	return w.registration(instance)
}

// Registrations returns a snapshot of the live registrations in placement
// order.
func (w *WorldRenderer) Registrations() []*ModelRegistration {
	return append([]*ModelRegistration(nil), w.registrations...)
}

// Hovered returns the instance currently under the cursor, or nil.
func (w *WorldRenderer) Hovered() *scenegraph.Model {
	if w.hovered == nil {
		return nil
	}
	return w.hovered.Instance
}

// Save serializes the world. Persistence is not implemented yet, so the
// result is always empty.
func (w *WorldRenderer) Save() ([]byte, error) {
	return nil, nil
}

// Load restores a world written by Save. It currently does nothing.
func (w *WorldRenderer) Load(data []byte) error {
	return nil
}

// Close stops the load workers and detaches from input.
func (w *WorldRenderer) Close() {
	if w.poolOpen {
		w.pool.Stop()
		w.poolOpen = false
	}
	w.UnbindInput()
}

func (w *WorldRenderer) indexOf(instance *scenegraph.Model) int {
	if instance == nil {
		return -1
	}
	for i, reg := range w.registrations {
		if reg.Instance == instance {
			return i
		}
	}
	return -1
}

func (w *WorldRenderer) registration(instance *scenegraph.Model) *ModelRegistration {
	if idx := w.indexOf(instance); idx >= 0 {
		return w.registrations[idx]
	}
	return nil
}

func (w *WorldRenderer) live(reg *ModelRegistration) bool {
	for _, r := range w.registrations {
		if r == reg {
			return true
		}
	}
	return false
}
