package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/engine/animation"
	"github.com/Faultbox/bluebear/internal/engine/geometry"
	"github.com/Faultbox/bluebear/internal/logger"
)

// BoneUniformName is the shader uniform array that receives skinning
// matrices.
const BoneUniformName = "bones"

// MaxBones is the size of the bone matrix array shaders declare. Slots
// past it are not sent.
const MaxBones = 64

// SkinnedUniformName is the int flag that enables skinning in the shader.
const SkinnedUniformName = "skinned"

// Vertex is the interleaved vertex layout uploaded to the GPU.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
	Joints   [4]float32 // bone slot indices
	Weights  [4]float32
}

// MeshHandles are the GPU objects backing a mesh.
type MeshHandles struct {
	VAO, VBO, EBO uint32
	Count         int32
}

// Mesh is indexed triangle geometry. Meshes are shared between a template
// and all of its instances.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Bones    *BoneUniform // nil for static meshes

	GPU      MeshHandles
	Uploaded bool
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangles returns the mesh triangles in mesh space. Triangles with an
// out-of-range index are skipped.
func (m *Mesh) Triangles() []geometry.Triangle {
	tris := make([]geometry.Triangle, 0, m.TriangleCount())
	n := uint32(len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if a >= n || b >= n || c >= n {
			continue
		}
		tris = append(tris, geometry.Triangle{
			m.Vertices[a].Position,
			m.Vertices[b].Position,
			m.Vertices[c].Position,
		})
	}
	return tris
}

// SendDeferred uploads the mesh if it has not been uploaded yet.
func (m *Mesh) SendDeferred(dev Device) error {
	if m.Uploaded {
		return nil
	}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil
	}
	if err := dev.UploadMesh(m); err != nil {
		return err
	}
	m.Uploaded = true
	return nil
}

// ComputeNormals assigns flat face normals. Degenerate faces leave their
// vertices untouched.
func ComputeNormals(vertices []Vertex, indices []uint32) {
	n := uint32(len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a >= n || b >= n || c >= n {
			continue
		}
		normal := geometry.Triangle{vertices[a].Position, vertices[b].Position, vertices[c].Position}.Normal()
		if normal.Len() == 0 {
			continue
		}
		vertices[a].Normal = normal
		vertices[b].Normal = normal
		vertices[c].Normal = normal
	}
}

// SmoothNormals averages normals of vertices sharing a position.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		p := vertices[i].Position
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}

		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(vertices[idx].Normal)
		}
		if sum.Len() < 0.0001 {
			continue
		}
		avg := sum.Normalize()

		for _, idx := range idxs {
			vertices[idx].Normal = avg
		}
	}
}

// BoneUniform maps shader bone slots to skeleton bone ids.
type BoneUniform struct {
	Slots    []string
	matrices []mgl32.Mat4
	warned   bool
}

// NewBoneUniform creates a bone uniform with one slot per bone id.
func NewBoneUniform(slots ...string) *BoneUniform {
	u := &BoneUniform{
		Slots:    slots,
		matrices: make([]mgl32.Mat4, len(slots)),
	}
	for i := range u.matrices {
		u.matrices[i] = mgl32.Ident4()
	}
	return u
}

// Configure copies the frame's matrices into slot order. Bones missing
// from bones get identity.
func (u *BoneUniform) Configure(bones animation.BoneMatrices) {
	for i, id := range u.Slots {
		if m, ok := bones[id]; ok {
			u.matrices[i] = m
		} else {
			u.matrices[i] = mgl32.Ident4()
		}
	}
}

// Matrices returns the configured matrices in slot order.
func (u *BoneUniform) Matrices() []mgl32.Mat4 {
	return u.matrices
}

// Send uploads the configured matrices to s, at most MaxBones of them.
func (u *BoneUniform) Send(dev Device, s *Shader) {
	if len(u.matrices) == 0 {
		return
	}
	matrices := u.matrices
	if len(matrices) > MaxBones {
		if !u.warned {
			logger.Named("scenegraph").Warn("bone slots exceed shader limit, truncating",
				zap.Int("slots", len(matrices)),
				zap.Int("max", MaxBones),
			)
			u.warned = true
		}
		matrices = matrices[:MaxBones]
	}
	dev.SetInt(s, SkinnedUniformName, 1)
	dev.SetMatrices(s, BoneUniformName, matrices)
}
