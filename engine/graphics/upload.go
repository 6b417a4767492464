package graphics

import (
	"unsafe"

	"github.com/kaisc/lemon-toolkit/common"
)

// CreateVertexBufferFrom uploads a typed vertex slice, viewing it as raw
// bytes for the frame's create command. The data is copied at record time, so
// the caller's slice is free to change afterwards.
//
// Parameters:
//   - f: the frontend to record into
//   - vertices: the typed vertex data
//   - layout: the finished vertex layout of one element
//   - usage: the buffer usage hint
//
// Returns:
//   - common.Handle: the buffer handle, or the null handle on exhaustion
func CreateVertexBufferFrom[T any](f Frontend, vertices []T, layout VertexLayout, usage BufferUsage) common.Handle {
	return f.CreateVertexBuffer(common.AsBytes(vertices), layout, usage)
}

// UpdateVertexBufferFrom records a typed rewrite of a dynamic vertex buffer
// range starting at the given vertex.
//
// Parameters:
//   - f: the frontend to record into
//   - h: the buffer handle
//   - start: the first vertex to rewrite
//   - vertices: the replacement data
func UpdateVertexBufferFrom[T any](f Frontend, h common.Handle, start uint32, vertices []T) {
	f.UpdateVertexBuffer(h, start, common.AsBytes(vertices))
}

// CreateIndexBufferFrom uploads a typed index slice, deriving the element
// format from the index width.
//
// Parameters:
//   - f: the frontend to record into
//   - indices: the index data, 16- or 32-bit
//   - usage: the buffer usage hint
//
// Returns:
//   - common.Handle: the buffer handle, or the null handle on exhaustion
func CreateIndexBufferFrom[T ~uint16 | ~uint32](f Frontend, indices []T, usage BufferUsage) common.Handle {
	var zero T
	format := IndexUint16
	if unsafe.Sizeof(zero) == 4 {
		format = IndexUint32
	}
	return f.CreateIndexBuffer(common.AsBytes(indices), format, usage)
}
