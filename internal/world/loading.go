package world

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/assets"
	"github.com/Faultbox/bluebear/internal/engine/async"
	"github.com/Faultbox/bluebear/internal/engine/loader"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// loadQueueSize bounds the pending load tasks. SubmitTask blocks once it
// is full, which throttles the submitting goroutine.
const loadQueueSize = 256

// LoadDirect stores model as the template for id, replacing any previous
// template with that id.
func (w *WorldRenderer) LoadDirect(id string, model *scenegraph.Model) {
	if _, ok := w.originals[id]; ok {
		w.log.Warn("overwriting template", zap.String("template", id))
	}
	w.originals[id] = model
}

// Originals returns the registered template ids in sorted order.
func (w *WorldRenderer) Originals() []string {
	ids := make([]string, 0, len(w.originals))
	for id := range w.originals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Original returns the template registered under id.
func (w *WorldRenderer) Original(id string) (*scenegraph.Model, bool) {
	m, ok := w.originals[id]
	return m, ok
}

// sortedIDs returns the keys of templates in sorted order so loads run
// and log deterministically.
func sortedIDs(templates map[string]string) []string {
	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadPaths loads each template id -> path entry on the calling thread,
// uploading GPU data as it goes. Failures, including loader panics, are
// logged and skipped. It returns the number of templates loaded.
func (w *WorldRenderer) LoadPaths(templates map[string]string) int {
	if w.loaders == nil {
		w.log.Error("no loader factory configured")
		return 0
	}
	l := w.loaders(false)

	loaded := 0
	for _, id := range sortedIDs(templates) {
		path := templates[id]
		model, err := safeLoad(l, path)
		if err != nil {
			w.log.Warn("model load failed",
				zap.String("template", id),
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		w.LoadDirect(id, model)
		loaded++
	}
	w.log.Info("models loaded", zap.Int("loaded", loaded), zap.Int("requested", len(templates)))
	return loaded
}

// LoadPathsParallel loads template id -> path entries on the worker pool
// with deferred loaders taken from a shared pool. After all workers finish,
// GPU data is uploaded on the calling thread and the results are merged
// into the template store. Ids that are already loaded are skipped. It
// returns the number of templates added.
func (w *WorldRenderer) LoadPathsParallel(templates map[string]string) int {
	if w.loaders == nil {
		w.log.Error("no loader factory configured")
		return 0
	}
	w.ensureWorkers()

	loaders := async.NewPool(func() loader.FileLoader {
		return w.loaders(true)
	})
	results := assets.NewCache[*scenegraph.Model]()

	var wg sync.WaitGroup
	for i, id := range sortedIDs(templates) {
		id, path := id, templates[id]
		if _, ok := w.originals[id]; ok {
			w.log.Warn("template already loaded, skipping",
				zap.String("template", id),
				zap.String("path", path),
			)
			continue
		}

		wg.Add(1)
		w.pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				var model *scenegraph.Model
				var err error
				loaders.Acquire(func(l loader.FileLoader) {
					model, err = safeLoad(l, path)
				})
				if err != nil {
					w.log.Warn("model load failed",
						zap.String("template", id),
						zap.String("path", path),
						zap.Error(err),
					)
					return nil, err
				}
				results.Set(id, model)
				return model, nil
			},
		})
	}
	wg.Wait()

	added := 0
	for _, id := range results.Keys() {
		model, _ := results.Get(id)
		if err := model.SendDeferred(w.device); err != nil {
			w.log.Warn("model upload failed", zap.String("template", id), zap.Error(err))
			continue
		}
		w.originals[id] = model
		added++
	}
	w.log.Info("models loaded",
		zap.Int("loaded", added),
		zap.Int("requested", len(templates)),
		zap.Int("loaders", loaders.Created()),
	)
	return added
}

// safeLoad runs one load and turns a loader panic into an error, so a
// malformed file never aborts the rest of a batch.
func safeLoad(l loader.FileLoader, path string) (model *scenegraph.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model = nil
			err = errors.Errorf("loader panicked: %s", fmt.Sprint(r))
		}
	}()
	return l.Load(path)
}

func (w *WorldRenderer) ensureWorkers() {
	if w.poolOpen {
		return
	}
	w.pool = worker.NewDynamicWorkerPool(w.workers, loadQueueSize, time.Second)
	w.poolOpen = true
}
