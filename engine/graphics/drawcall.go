package graphics

import "github.com/kaisc/lemon-toolkit/common"

// MaxTextureSlots is the number of texture bindings one drawcall carries.
const MaxTextureSlots = 8

// DrawCall is one stateless draw submission. It names every resource it
// touches by handle and carries the ordering fields the frontend folds into
// its sort key at submit time.
type DrawCall struct {
	// Program is the shader program to draw with.
	Program common.Handle
	// VertexBuffer feeds the vertex attributes.
	VertexBuffer common.Handle
	// IndexBuffer, if live, drives indexed drawing over
	// [IndexFirst, IndexFirst+IndexCount).
	IndexBuffer common.Handle
	IndexFirst  uint32
	IndexCount  uint32
	// RenderState selects the fixed-function state block.
	RenderState common.Handle
	// Uniforms is a uniform buffer view allocated from the current frame.
	Uniforms common.Handle
	// Textures are the per-slot texture bindings; null handles are unbound.
	Textures [MaxTextureSlots]common.Handle

	// View is the render-target / view id, the highest-order sort criterion.
	View uint8
	// Layer is the translucency class.
	Layer TranslucencyLayer
	// Depth is the normalized view-space depth in [0, 1] used for bucketing.
	Depth float32
}

// SortedDraw pairs a recorded drawcall with its encoded key.
type SortedDraw struct {
	Key  SortKey
	Call DrawCall
}
