package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVertexLayout_OffsetsAndStride(t *testing.T) {
	layout := NewVertexLayout().
		Append(AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3}).
		Skip(4).
		Append(AttributeData{Attribute: AttributeTexcoord0, Format: FormatFloat, Num: 2}).
		End()

	assert.True(t, layout.Has(AttributePosition))
	assert.True(t, layout.Has(AttributeTexcoord0))
	assert.False(t, layout.Has(AttributeNormal))

	assert.Equal(t, uint16(0), layout.Offset(AttributePosition))
	assert.Equal(t, uint16(16), layout.Offset(AttributeTexcoord0))
	assert.Equal(t, uint16(24), layout.Stride())
}

func TestVertexLayout_NormalizedByteAttributes(t *testing.T) {
	layout := MakeVertexLayout(
		AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3},
		AttributeData{Attribute: AttributeColor0, Format: FormatUnsignedByte, Num: 4, Normalize: true},
	)

	assert.Equal(t, uint16(12), layout.Offset(AttributeColor0))
	assert.Equal(t, uint16(16), layout.Stride())

	color := layout.Attribute(AttributeColor0)
	assert.True(t, color.Normalize)
	assert.Equal(t, uint8(4), color.Num)
}

func TestVertexLayout_HashIdentity(t *testing.T) {
	a := MakeVertexLayout(
		AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3},
		AttributeData{Attribute: AttributeNormal, Format: FormatFloat, Num: 3},
	)
	b := MakeVertexLayout(
		AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3},
		AttributeData{Attribute: AttributeNormal, Format: FormatFloat, Num: 3},
	)
	c := MakeVertexLayout(
		AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 4},
	)

	assert.NotZero(t, a.Hash())
	assert.Equal(t, a.Hash(), b.Hash(), "identical layouts hash identically")
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestVertexLayout_ComponentClamping(t *testing.T) {
	layout := NewVertexLayout().
		Append(AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 9}).
		End()
	assert.Equal(t, uint8(4), layout.Attribute(AttributePosition).Num)
}
