package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsBytes_ViewsSliceMemory(t *testing.T) {
	data := []uint32{0xffffffff, 0xffffffff}

	raw := AsBytes(data)
	require.Len(t, raw, 8)
	for _, b := range raw {
		assert.Equal(t, byte(0xff), b)
	}

	// the view aliases the source
	data[0] = 0
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[:4])
}

func TestAsBytes_EmptyIsNil(t *testing.T) {
	assert.Nil(t, AsBytes([]float32(nil)))
	assert.Nil(t, AsBytes([]float32{}))
}

func TestAsBytes_StructElements(t *testing.T) {
	type vertex struct {
		X, Y, Z float32
	}
	raw := AsBytes([]vertex{{1, 2, 3}, {4, 5, 6}})
	assert.Len(t, raw, 24)
}
