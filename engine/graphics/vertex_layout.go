package graphics

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// VertexAttribute names one vertex shader input slot.
type VertexAttribute uint8

const (
	AttributePosition VertexAttribute = iota
	AttributeNormal
	AttributeTangent
	AttributeBitangent
	AttributeColor0
	AttributeColor1
	AttributeIndices
	AttributeWeight
	AttributeTexcoord0
	AttributeTexcoord1
	AttributeTexcoord2
	AttributeTexcoord3
	attributeCount
)

// AttributeFormat is the component type of one vertex attribute.
type AttributeFormat uint8

const (
	FormatByte AttributeFormat = iota
	FormatUnsignedByte
	FormatShort
	FormatUnsignedShort
	FormatFloat
)

func (f AttributeFormat) byteSize() uint16 {
	switch f {
	case FormatByte, FormatUnsignedByte:
		return 1
	case FormatShort, FormatUnsignedShort:
		return 2
	default:
		return 4
	}
}

// AttributeData declares one attribute inside a vertex layout.
type AttributeData struct {
	// Attribute is the shader input slot this data feeds.
	Attribute VertexAttribute
	// Format is the component type of each element.
	Format AttributeFormat
	// Num is the number of components per vertex, 1 through 4.
	Num uint8
	// Normalize converts fixed-point data to [0, 1] or [-1, 1] on read.
	Normalize bool
}

const invalidOffset = ^uint16(0)

// VertexLayout describes how attributes are packed inside one vertex. Build it
// with the Append/Skip/End chain; a finished layout carries per-attribute
// offsets, the vertex stride and a hash identifying the layout for sort-key
// encoding and backend-side caching.
type VertexLayout struct {
	hash    uint64
	stride  uint16
	offsets [attributeCount]uint16
	attrs   [attributeCount]AttributeData
	present [attributeCount]bool
}

// NewVertexLayout starts an empty layout. An attribute's offset reads as
// invalid (0xffff) until that attribute is appended.
//
// Returns:
//   - VertexLayout: the empty layout builder
func NewVertexLayout() VertexLayout {
	l := VertexLayout{}
	for i := range l.offsets {
		l.offsets[i] = invalidOffset
	}
	return l
}

// Append adds an attribute at the current stride offset.
//
// Parameters:
//   - data: the attribute declaration
//
// Returns:
//   - VertexLayout: the extended layout
func (l VertexLayout) Append(data AttributeData) VertexLayout {
	if data.Num < 1 {
		data.Num = 1
	}
	if data.Num > 4 {
		data.Num = 4
	}
	l.offsets[data.Attribute] = l.stride
	l.attrs[data.Attribute] = data
	l.present[data.Attribute] = true
	l.stride += uint16(data.Num) * data.Format.byteSize()
	return l
}

// Skip advances the stride past unused bytes between attributes.
//
// Parameters:
//   - bytes: the gap width in bytes
//
// Returns:
//   - VertexLayout: the extended layout
func (l VertexLayout) Skip(bytes uint16) VertexLayout {
	l.stride += bytes
	return l
}

// End finalizes the layout and computes its hash.
//
// Returns:
//   - VertexLayout: the finished layout
func (l VertexLayout) End() VertexLayout {
	digest := xxhash.New()
	var scratch [8]byte
	for i := range l.attrs {
		if !l.present[i] {
			continue
		}
		binary.LittleEndian.PutUint16(scratch[0:], uint16(i))
		binary.LittleEndian.PutUint16(scratch[2:], l.offsets[i])
		scratch[4] = byte(l.attrs[i].Format)
		scratch[5] = l.attrs[i].Num
		scratch[6] = 0
		if l.attrs[i].Normalize {
			scratch[6] = 1
		}
		scratch[7] = 0
		_, _ = digest.Write(scratch[:])
	}
	binary.LittleEndian.PutUint16(scratch[:], l.stride)
	_, _ = digest.Write(scratch[:2])
	l.hash = digest.Sum64()
	return l
}

// Has reports whether the layout contains the attribute.
func (l VertexLayout) Has(a VertexAttribute) bool {
	return l.present[a]
}

// Offset returns the attribute's byte offset from the start of a vertex.
func (l VertexLayout) Offset(a VertexAttribute) uint16 {
	return l.offsets[a]
}

// Attribute returns the declaration stored for the given slot.
func (l VertexLayout) Attribute(a VertexAttribute) AttributeData {
	return l.attrs[a]
}

// Stride returns the size of one vertex in bytes.
func (l VertexLayout) Stride() uint16 {
	return l.stride
}

// Hash returns the layout's identity hash. Zero until End has run.
func (l VertexLayout) Hash() uint64 {
	return l.hash
}

// MakeVertexLayout builds a finished layout from attribute declarations in
// order, mirroring the common case of no gaps.
//
// Parameters:
//   - attrs: the attribute declarations in packing order
//
// Returns:
//   - VertexLayout: the finished layout
func MakeVertexLayout(attrs ...AttributeData) VertexLayout {
	l := NewVertexLayout()
	for _, a := range attrs {
		l = l.Append(a)
	}
	return l.End()
}
