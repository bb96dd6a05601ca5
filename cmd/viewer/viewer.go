package main

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/config"
	"github.com/Faultbox/bluebear/internal/engine/camera"
	"github.com/Faultbox/bluebear/internal/engine/debug"
	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/engine/input"
	"github.com/Faultbox/bluebear/internal/engine/lighting"
	"github.com/Faultbox/bluebear/internal/engine/loader"
	"github.com/Faultbox/bluebear/internal/engine/renderer"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/window"
	"github.com/Faultbox/bluebear/internal/logger"
	"github.com/Faultbox/bluebear/internal/world"
)

var hoverColor = mgl32.Vec4{1, 0.85, 0.2, 0.35}

// viewer places one instance of every configured model in a row and
// highlights whatever is under the cursor.
type viewer struct {
	cfg *config.Config
	log *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	world    *world.WorldRenderer
	models   *world.ModelManager
	sun      *lighting.Sun
	shots    *debug.Screenshots

	running    bool
	screenshot bool
}

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{cfg: cfg, log: logger.Named("viewer"), sun: lighting.NewSun(cfg.Light)}
	v.shots = debug.NewScreenshots(cfg.Render.ScreenshotDir, "bluebear")

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(cfg.Window)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create window")
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := v.window.Size()
	v.renderer, err = renderer.New(cfg.Render, width, height)
	if err != nil {
		v.window.Close()
		return nil, errors.Wrap(err, "failed to create renderer")
	}

	dev := v.renderer.Device()
	shader := renderer.DefaultShader()
	cam := camera.New(cfg.Camera, width, height)

	v.world = world.New(dev, cam,
		world.WithTasksPerFrame(cfg.Render.TasksPerFrame),
		world.WithTextureUnits(v.renderer.MaxTextureUnits(cfg.Render.MaxTextureUnits)),
		world.WithWorkers(cfg.WorkerCount()),
		world.WithLoaderFactory(func(deferred bool) loader.FileLoader {
			return loader.NewGLTFLoader(dev, shader, deferred)
		}),
	)
	v.models = world.NewModelManager(v.world)

	d := input.NewDispatcher()
	v.input = input.New(d)
	d.Register(input.EventWindowResize, func(m input.Metadata) {
		v.renderer.Resize(m.Width, m.Height)
	})
	d.Register(input.EventKeyDown, v.onKey)
	v.world.BindInput(d)

	v.populate()
	return v, nil
}

// populate loads the configured templates and places one instance of each.
func (v *viewer) populate() {
	templates := v.cfg.Loading.Models

	start := time.Now()
	var loaded int
	if v.cfg.Loading.Parallel {
		loaded = v.world.LoadPathsParallel(templates)
	} else {
		loaded = v.world.LoadPaths(templates)
	}
	v.log.Info("templates loaded",
		zap.Int("requested", len(templates)),
		zap.Int("loaded", loaded),
		zap.Duration("elapsed", time.Since(start)),
	)

	bounds := geometry.EmptyAABB()
	offset := float32(0)
	for _, id := range v.world.Originals() {
		m, err := v.models.Place(id, "viewer")
		if err != nil {
			v.log.Warn("failed to place model", zap.String("id", id), zap.Error(err))
			continue
		}

		box := m.BoundingVolume()
		if !box.Empty() {
			width := box.Max.X() - box.Min.X()
			m.SetPosition(mgl32.Vec3{offset - box.Min.X(), 0, 0})
			offset += width * 1.25
			m.InvalidateBoundingVolume()
			box = m.BoundingVolume()
			bounds.Extend(box.Min)
			bounds.Extend(box.Max)
		}

		v.decorate(m)
		v.world.RegisterEvent(m, world.EventMouseIn, func(_ input.Metadata, target *scenegraph.Model) {
			setHighlight(target, true)
		})
		v.world.RegisterEvent(m, world.EventMouseOut, func(_ input.Metadata, target *scenegraph.Model) {
			setHighlight(target, false)
		})
		v.world.RegisterEvent(m, world.EventMouseDown, func(meta input.Metadata, target *scenegraph.Model) {
			if reg := v.world.Registration(target); reg != nil {
				v.log.Info("model clicked",
					zap.String("template", reg.OriginalID),
					zap.Stringer("id", reg.ID),
				)
			}
			meta.CancelAll()
		})
	}

	v.world.Camera().FitToBounds(bounds)
}

func (v *viewer) onKey(m input.Metadata) {
	switch m.Key {
	case "escape":
		v.running = false
	case "p":
		// Read back after the next frame is drawn.
		v.screenshot = true
	case "r":
		n := v.models.Drop()
		v.log.Info("models dropped", zap.Int("count", n))
		v.populate()
	}
}

// Run starts the frame loop.
func (v *viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}

		v.renderer.Begin()
		v.world.NextFrame()
		v.renderer.End()
		if v.screenshot {
			v.screenshot = false
			v.saveScreenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("%s - %d fps", v.cfg.Window.Title, frameCount))
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("pending", v.world.Tasks().Pending()),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *viewer) saveScreenshot() {
	width, height := v.renderer.Size()
	name, err := v.shots.Save(v.renderer.ReadPixels(), width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", name))
}

// Close releases the world before the GL context goes away.
func (v *viewer) Close() {
	v.log.Info("closing viewer")

	if v.world != nil {
		v.world.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// decorate gives every node of m the shared sun and its own highlight.
// Node uniforms only reach that node's drawables.
func (v *viewer) decorate(m *scenegraph.Model) {
	m.AddUniform(v.sun)
	if m.Highlight() == nil {
		m.AddUniform(scenegraph.NewHighlightUniform(hoverColor))
	}
	for _, c := range m.Children() {
		v.decorate(c)
	}
}

func setHighlight(m *scenegraph.Model, on bool) {
	if h := m.Highlight(); h != nil {
		h.Enabled = on
	}
	for _, c := range m.Children() {
		setHighlight(c, on)
	}
}
