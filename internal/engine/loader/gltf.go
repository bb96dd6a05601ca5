package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
	"github.com/Faultbox/bluebear/internal/engine/texture"
	"github.com/Faultbox/bluebear/internal/engine/transform"
	"github.com/Faultbox/bluebear/internal/logger"
)

// ErrNoScene is returned for documents without a scene to instantiate.
var ErrNoScene = errors.New("gltf document has no scene")

// GLTFLoader loads .gltf and .glb files.
type GLTFLoader struct {
	Device   scenegraph.Device
	Shader   *scenegraph.Shader
	Deferred bool

	log      *zap.Logger
	dir      string
	textures map[uint32]*scenegraph.Texture
}

var _ FileLoader = (*GLTFLoader)(nil)

// NewGLTFLoader creates a loader that assigns shader to every drawable.
func NewGLTFLoader(dev scenegraph.Device, shader *scenegraph.Shader, deferred bool) *GLTFLoader {
	return &GLTFLoader{
		Device:   dev,
		Shader:   shader,
		Deferred: deferred,
		log:      logger.Named("loader"),
	}
}

// Load decodes the file at path and builds its default scene. The root
// node is named after the file.
func (l *GLTFLoader) Load(path string) (*scenegraph.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(f).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	l.dir = filepath.Dir(path)
	model, err := l.Build(TemplateID(path), doc)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", path)
	}
	return model, nil
}

// Build converts doc into a model tree rooted at a node named id. Unless
// the loader is deferred, GPU objects are created before returning.
func (l *GLTFLoader) Build(id string, doc *gltf.Document) (*scenegraph.Model, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	scene := doc.Scenes[0]
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		scene = doc.Scenes[*doc.Scene]
	}
	l.textures = make(map[uint32]*scenegraph.Texture)

	root := scenegraph.NewModel(id)
	for _, idx := range scene.Nodes {
		child, err := l.buildNode(doc, idx, 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}

	if !l.Deferred {
		if err := root.SendDeferred(l.Device); err != nil {
			return nil, err
		}
	}

	l.log.Debug("model built",
		zap.String("id", id),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Bool("deferred", l.Deferred),
	)
	return root, nil
}

// maxNodeDepth guards against cyclic node references.
const maxNodeDepth = 64

func (l *GLTFLoader) buildNode(doc *gltf.Document, idx uint32, depth int) (*scenegraph.Model, error) {
	if int(idx) >= len(doc.Nodes) {
		return nil, errors.Errorf("node index %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return nil, errors.Errorf("node %d nested deeper than %d", idx, maxNodeDepth)
	}
	node := doc.Nodes[idx]

	name := node.Name
	if name == "" {
		name = fmt.Sprintf("node%d", idx)
	}
	m := scenegraph.NewModel(name)
	m.SetLocal(nodeTransform(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(doc.Meshes) {
			return nil, errors.Errorf("node %q: mesh index %d out of range", name, *node.Mesh)
		}
		if err := l.addMesh(doc, m, doc.Meshes[*node.Mesh]); err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
	}

	for _, c := range node.Children {
		child, err := l.buildNode(doc, c, depth+1)
		if err != nil {
			return nil, err
		}
		m.AddChild(child)
	}
	return m, nil
}

func nodeTransform(node *gltf.Node) transform.Transform {
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	local := transform.New(
		mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize(),
		mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	)
	mat := node.MatrixOrDefault()
	if !isIdentity(mat) {
		var m mgl32.Mat4
		for i := range m {
			m[i] = float32(mat[i])
		}
		local = transform.FromMatrix(m)
	}
	return local
}

func isIdentity[T float32 | float64](m [16]T) bool {
	for i, v := range m {
		want := T(0)
		if i%5 == 0 {
			want = 1
		}
		if v != want {
			return false
		}
	}
	return true
}

func (l *GLTFLoader) addMesh(doc *gltf.Document, m *scenegraph.Model, mesh *gltf.Mesh) error {
	for i, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			l.log.Warn("skipping non-triangle primitive",
				zap.String("mesh", mesh.Name),
				zap.Int("primitive", i),
			)
			continue
		}
		sm, err := readPrimitive(doc, prim)
		if err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", mesh.Name, i)
		}
		sm.Name = fmt.Sprintf("%s#%d", mesh.Name, i)

		mat, err := l.material(doc, prim)
		if err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", mesh.Name, i)
		}
		m.AddDrawable(scenegraph.Drawable{Mesh: sm, Material: mat, Shader: l.Shader})
	}
	return nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*scenegraph.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, errors.Wrap(err, "positions")
	}
	positions, err := modeler.ReadPosition(doc, acr, [][3]float32{})
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}

	vertices := make([]scenegraph.Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = mgl32.Vec3(p)
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = accessor(doc, *prim.Indices); err != nil {
			return nil, errors.Wrap(err, "indices")
		}
		indices, err = modeler.ReadIndices(doc, acr, []uint32{})
		if err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
		for _, idx := range indices {
			if int(idx) >= len(vertices) {
				return nil, errors.Errorf("index %d out of range for %d vertices", idx, len(vertices))
			}
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if uvIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		acr, err := accessor(doc, uvIdx)
		if err != nil {
			return nil, errors.Wrap(err, "texture coordinates")
		}
		uvs, err := modeler.ReadTextureCoord(doc, acr, [][2]float32{})
		if err != nil {
			return nil, errors.Wrap(err, "read texture coordinates")
		}
		for i := 0; i < len(uvs) && i < len(vertices); i++ {
			vertices[i].TexCoord = mgl32.Vec2(uvs[i])
		}
	}

	if nIdx, ok := prim.Attributes["NORMAL"]; ok {
		acr, err := accessor(doc, nIdx)
		if err != nil {
			return nil, errors.Wrap(err, "normals")
		}
		normals, err := modeler.ReadNormal(doc, acr, [][3]float32{})
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
		for i := 0; i < len(normals) && i < len(vertices); i++ {
			vertices[i].Normal = mgl32.Vec3(normals[i])
		}
	} else {
		scenegraph.ComputeNormals(vertices, indices)
		scenegraph.SmoothNormals(vertices)
	}

	return &scenegraph.Mesh{Vertices: vertices, Indices: indices}, nil
}

// accessor returns the accessor at idx. Indices come from the file and are
// not trusted.
func accessor(doc *gltf.Document, idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func (l *GLTFLoader) material(doc *gltf.Document, prim *gltf.Primitive) (*scenegraph.Material, error) {
	mat := scenegraph.NewMaterial(mgl32.Vec3{0.8, 0.8, 0.8})
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return mat, nil
	}
	src := doc.Materials[*prim.Material]
	mat.Name = src.Name

	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		return mat, nil
	}
	if c := pbr.BaseColorFactor; c != nil {
		mat.Diffuse = mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
	}
	if info := pbr.BaseColorTexture; info != nil {
		tex, err := l.texture(doc, info.Index)
		if err != nil {
			// A missing image falls back to the flat color.
			l.log.Warn("texture unavailable", zap.String("material", src.Name), zap.Error(err))
			return mat, nil
		}
		mat.DiffuseTextures = []*scenegraph.Texture{tex}
	}
	return mat, nil
}

// texture resolves a glTF texture to an RGBA image loaded from an external
// file next to the model. Textures are shared between primitives.
func (l *GLTFLoader) texture(doc *gltf.Document, idx uint32) (*scenegraph.Texture, error) {
	if tex, ok := l.textures[idx]; ok {
		return tex, nil
	}
	if int(idx) >= len(doc.Textures) || doc.Textures[idx].Source == nil {
		return nil, errors.Errorf("texture %d has no source", idx)
	}
	src := *doc.Textures[idx].Source
	if int(src) >= len(doc.Images) {
		return nil, errors.Errorf("image %d out of range", src)
	}
	img := doc.Images[src]
	if img.URI == "" || img.IsEmbeddedResource() {
		return nil, errors.Errorf("image %d is not an external file", src)
	}

	rgba, err := texture.Decode(filepath.Join(l.dir, img.URI))
	if err != nil {
		return nil, err
	}
	tex := &scenegraph.Texture{Name: img.URI, Image: rgba}
	l.textures[idx] = tex
	return tex, nil
}
