package world

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bluebear/internal/engine/loader"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph/scenegraphtest"
)

// fakeLoaders builds quad templates named after the file. Paths containing
// "bad" fail and paths containing "panic" panic.
type fakeLoaders struct {
	mu       sync.Mutex
	deferred []bool
}

func (f *fakeLoaders) factory(deferred bool) loader.FileLoader {
	f.mu.Lock()
	f.deferred = append(f.deferred, deferred)
	f.mu.Unlock()
	return fakeLoader{}
}

type fakeLoader struct{}

func (fakeLoader) Load(path string) (*scenegraph.Model, error) {
	switch {
	case strings.Contains(path, "bad"):
		return nil, errors.New("corrupt file")
	case strings.Contains(path, "panic"):
		panic("loader exploded")
	}
	return quadTemplate(loader.TemplateID(path)), nil
}

func TestLoadPathsSequential(t *testing.T) {
	loaders := &fakeLoaders{}
	w, dev := newTestWorld(t, WithLoaderFactory(loaders.factory))

	n := w.LoadPaths(map[string]string{
		"chair":  "models/chair.gltf",
		"broken": "models/bad.gltf",
		"crash":  "models/panic.gltf",
		"table":  "models/table.glb",
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"chair", "table"}, w.Originals())
	assert.Equal(t, []bool{false}, loaders.deferred)
	// Uploads are the loader's job in non-deferred mode.
	assert.Empty(t, dev.Find("upload-mesh", "chair-mesh"))
}

func TestLoadPathsUsesConfiguredIDs(t *testing.T) {
	loaders := &fakeLoaders{}
	w, _ := newTestWorld(t, WithLoaderFactory(loaders.factory))

	// Two files sharing a base name register under their own ids.
	n := w.LoadPaths(map[string]string{
		"chair":        "assets/armchair.glb",
		"office-chair": "office/armchair.glb",
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"chair", "office-chair"}, w.Originals())

	_, ok := w.Original("armchair")
	assert.False(t, ok)
	m, err := w.PlaceObject("chair")
	require.NoError(t, err)
	assert.Len(t, w.FindObjectsByType("chair"), 1)
	assert.Same(t, m, w.FindObjectsByType("chair")[0])
}

func TestLoadPathsParallel(t *testing.T) {
	loaders := &fakeLoaders{}
	w, dev := newTestWorld(t, WithLoaderFactory(loaders.factory), WithWorkers(3))

	existing := quadTemplate("stool")
	w.LoadDirect("stool", existing)

	n := w.LoadPathsParallel(map[string]string{
		"chair":  "a/chair.gltf",
		"seat":   "b/chair.gltf", // same file name, different id
		"table":  "table.gltf",
		"broken": "bad.gltf",
		"crash":  "panic.gltf",
		"stool":  "stool.gltf", // already loaded
	})

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"chair", "seat", "stool", "table"}, w.Originals())

	got, ok := w.Original("stool")
	require.True(t, ok)
	assert.Same(t, existing, got)

	// Deferred results are uploaded on this goroutine after the join.
	assert.Len(t, dev.Find("upload-mesh", "chair-mesh"), 2)
	assert.Len(t, dev.Find("upload-mesh", "table-mesh"), 1)
	assert.Empty(t, dev.Find("upload-mesh", "stool-mesh"))

	loaders.mu.Lock()
	defer loaders.mu.Unlock()
	require.NotEmpty(t, loaders.deferred)
	assert.LessOrEqual(t, len(loaders.deferred), 5)
	for _, d := range loaders.deferred {
		assert.True(t, d)
	}

	chair, err := w.PlaceObject("seat")
	require.NoError(t, err)
	assert.NotNil(t, chair)
}

func TestLoadPathsParallelTwice(t *testing.T) {
	loaders := &fakeLoaders{}
	w, _ := newTestWorld(t, WithLoaderFactory(loaders.factory))

	assert.Equal(t, 1, w.LoadPathsParallel(map[string]string{"chair": "chair.gltf"}))
	assert.Equal(t, 1, w.LoadPathsParallel(map[string]string{"chair": "chair.gltf", "desk": "desk.gltf"}))
	assert.Equal(t, []string{"chair", "desk"}, w.Originals())
}

func TestLoadWithoutFactory(t *testing.T) {
	w, _ := newTestWorld(t)
	assert.Zero(t, w.LoadPaths(map[string]string{"chair": "chair.gltf"}))
	assert.Zero(t, w.LoadPathsParallel(map[string]string{"chair": "chair.gltf"}))
	assert.Empty(t, w.Originals())
}

// writeTriangleGLB writes a one-triangle binary glTF file.
func writeTriangleGLB(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       "tri",
		Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{"POSITION": pos}}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "tri", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	f, err := os.Create(path)
	require.NoError(t, err)
	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	require.NoError(t, f.Close())
}

func TestLoadPathsSkipsMalformedGLTF(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.gltf")
	require.NoError(t, os.WriteFile(bad, []byte(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 7}}]}]
}`), 0o644))
	good := filepath.Join(dir, "good.glb")
	writeTriangleGLB(t, good)

	templates := map[string]string{"aaa-broken": bad, "good": good}
	gltfLoaders := func(deferred bool) loader.FileLoader {
		return loader.NewGLTFLoader(scenegraphtest.NewDevice(), testShader, deferred)
	}

	t.Run("sequential", func(t *testing.T) {
		w, _ := newTestWorld(t, WithLoaderFactory(gltfLoaders))
		var n int
		require.NotPanics(t, func() { n = w.LoadPaths(templates) })
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"good"}, w.Originals())
	})

	t.Run("parallel", func(t *testing.T) {
		w, _ := newTestWorld(t, WithLoaderFactory(gltfLoaders))
		assert.Equal(t, 1, w.LoadPathsParallel(templates))
		assert.Equal(t, []string{"good"}, w.Originals())
	})
}
