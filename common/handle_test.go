package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Null(t *testing.T) {
	var h Handle
	assert.True(t, h.IsNil())
	assert.Equal(t, NilHandle, h)
	assert.Equal(t, uint32(0), h.Generation())
}

func TestHandlePool_Lifecycle(t *testing.T) {
	pool := NewHandlePool()

	h := pool.Create()
	require.False(t, h.IsNil())
	assert.True(t, pool.Alive(h))
	assert.Equal(t, 1, pool.Size())

	require.True(t, pool.Free(h))
	assert.False(t, pool.Alive(h))
	assert.Equal(t, 0, pool.Size())

	// reissuing the same index yields a strictly greater generation
	h2 := pool.Create()
	assert.Equal(t, h.Index(), h2.Index())
	assert.Equal(t, h.Generation()+1, h2.Generation())
	assert.True(t, pool.Alive(h2))
	assert.False(t, pool.Alive(h), "old handle stays dead after slot reuse")
}

func TestHandlePool_DoubleFreeIsNoOp(t *testing.T) {
	pool := NewHandlePool()
	h := pool.Create()

	require.True(t, pool.Free(h))
	assert.False(t, pool.Free(h))
	assert.False(t, pool.Free(NilHandle))
	assert.Equal(t, 0, pool.Size())
}

func TestHandlePool_LIFOReuse(t *testing.T) {
	pool := NewHandlePool()
	a := pool.Create()
	b := pool.Create()
	c := pool.Create()

	pool.Free(a)
	pool.Free(c)

	// most recently freed index comes back first
	next := pool.Create()
	assert.Equal(t, c.Index(), next.Index())
	next = pool.Create()
	assert.Equal(t, a.Index(), next.Index())
	assert.True(t, pool.Alive(b))
}

func TestHandlePool_At(t *testing.T) {
	pool := NewHandlePool()
	h := pool.Create()

	assert.Equal(t, h, pool.At(h.Index()))
	assert.True(t, pool.At(99).IsNil())

	pool.Free(h)
	assert.True(t, pool.At(h.Index()).IsNil())
}

func TestHandlePool_Clear(t *testing.T) {
	pool := NewHandlePool()
	h := pool.Create()
	pool.Create()

	pool.Clear()
	assert.Equal(t, 0, pool.Size())
	assert.False(t, pool.Alive(h))

	fresh := pool.Create()
	assert.Equal(t, uint32(0), fresh.Index())
	assert.Equal(t, uint32(1), fresh.Generation())
}

func TestHandleSet_ExhaustionReturnsNull(t *testing.T) {
	set := NewHandleSet(2)

	a := set.Create()
	b := set.Create()
	require.False(t, a.IsNil())
	require.False(t, b.IsNil())

	c := set.Create()
	assert.True(t, c.IsNil(), "create past capacity returns the null handle")

	set.Free(a)
	d := set.Create()
	assert.False(t, d.IsNil(), "freed slot becomes available again")
	assert.Equal(t, a.Index(), d.Index())
}

func TestHandleObjectSet_Values(t *testing.T) {
	set := NewHandleObjectSet[string](4)

	h := set.Create("quad")
	require.False(t, h.IsNil())

	v := set.Get(h)
	require.NotNil(t, v)
	assert.Equal(t, "quad", *v)

	*v = "cube"
	assert.Equal(t, "cube", *set.Get(h))

	require.True(t, set.Free(h))
	assert.Nil(t, set.Get(h))
	assert.False(t, set.Free(h))
}
