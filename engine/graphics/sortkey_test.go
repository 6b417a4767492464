package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortKey_FieldPrecedence(t *testing.T) {
	base := EncodeSortKey(0, LayerOpaque, 1, 0, 0.5, 0)

	higherView := EncodeSortKey(1, LayerOpaque, 0, 0, 0, 0)
	assert.Greater(t, higherView, base, "view dominates every other field")

	translucent := EncodeSortKey(0, LayerTranslucent, 0, 0, 1, 0)
	assert.Greater(t, translucent, base, "opaque sorts before translucent in one view")
}

func TestSortKey_OpaqueDepthFrontToBack(t *testing.T) {
	near := EncodeSortKey(0, LayerOpaque, 1, 0, 0.1, 0)
	far := EncodeSortKey(0, LayerOpaque, 1, 0, 0.9, 0)
	assert.Less(t, near, far)
}

func TestSortKey_TranslucentDepthBackToFront(t *testing.T) {
	near := EncodeSortKey(0, LayerTranslucent, 1, 0, 0.1, 0)
	far := EncodeSortKey(0, LayerTranslucent, 1, 0, 0.9, 0)
	assert.Less(t, far, near, "translucent buckets are inverted")
}

func TestSortKey_SequenceBreaksTies(t *testing.T) {
	first := EncodeSortKey(2, LayerOpaque, 7, 42, 0.5, 3)
	second := EncodeSortKey(2, LayerOpaque, 7, 42, 0.5, 4)
	assert.Less(t, first, second)
}

func TestSortKey_Extractors(t *testing.T) {
	key := EncodeSortKey(9, LayerTranslucent, 513, 0xabc, 0, 1234)
	assert.Equal(t, uint8(9), key.View())
	assert.Equal(t, LayerTranslucent, key.Layer())
	assert.Equal(t, uint16(513), key.Program())
	assert.Equal(t, uint16(1234), key.Sequence())
}

func TestSortKey_DepthClamping(t *testing.T) {
	under := EncodeSortKey(0, LayerOpaque, 0, 0, -2, 0)
	zero := EncodeSortKey(0, LayerOpaque, 0, 0, 0, 0)
	assert.Equal(t, zero, under)

	over := EncodeSortKey(0, LayerOpaque, 0, 0, 7, 0)
	one := EncodeSortKey(0, LayerOpaque, 0, 0, 1, 0)
	assert.Equal(t, one, over)
}
