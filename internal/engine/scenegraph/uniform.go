package scenegraph

import "github.com/go-gl/mathgl/mgl32"

// HighlightUniformName is the vec4 uniform that tints highlighted nodes.
const HighlightUniformName = "highlight"

// Uniform is per-node shader state. Update runs once per node per frame,
// Send once for every shader bound at that node.
type Uniform interface {
	Update()
	Send(dev Device, s *Shader)
	Clone() Uniform
}

// HighlightUniform tints a node and its drawables, typically on hover.
type HighlightUniform struct {
	Color   mgl32.Vec4
	Enabled bool

	current mgl32.Vec4
}

// NewHighlightUniform creates a disabled highlight with the given color.
func NewHighlightUniform(color mgl32.Vec4) *HighlightUniform {
	return &HighlightUniform{Color: color}
}

// Update latches the color for this frame.
func (h *HighlightUniform) Update() {
	if h.Enabled {
		h.current = h.Color
	} else {
		h.current = mgl32.Vec4{}
	}
}

// Send uploads the latched color.
func (h *HighlightUniform) Send(dev Device, s *Shader) {
	dev.SetVec4(s, HighlightUniformName, h.current)
}

// Clone returns an independent copy.
func (h *HighlightUniform) Clone() Uniform {
	c := *h
	return &c
}
