// Package loader turns model files into scene graph templates.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// FileLoader builds a template model from a file on disk.
//
// Implementations are not safe for concurrent use. Parallel loading hands
// each worker its own loader from an async.Pool.
type FileLoader interface {
	Load(path string) (*scenegraph.Model, error)
}

// Factory creates a fresh loader. Deferred loaders build CPU-side data only
// and leave the GPU upload to a later SendDeferred on the render thread.
type Factory func(deferred bool) FileLoader

// TemplateID derives a default template id from a model path: the file
// name without its extension. Configured templates carry their own ids.
func TemplateID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
