package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaisc/lemon-toolkit/engine/events"
	"github.com/kaisc/lemon-toolkit/engine/world"
)

const epsilon = 1e-5

func newSceneWorld(t *testing.T) *world.World {
	t.Helper()
	return world.New(events.NewDispatcher())
}

func attach(t *testing.T, w *world.World) (world.Entity, *Transform) {
	t.Helper()
	e := w.Spawn()
	tr, err := AttachTransform(w, e)
	require.NoError(t, err)
	return e, tr
}

func assertVec3Near(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), epsilon)
	assert.InDelta(t, want.Y(), got.Y(), epsilon)
	assert.InDelta(t, want.Z(), got.Z(), epsilon)
}

func TestTransform_PlainAddIsRejected(t *testing.T) {
	w := newSceneWorld(t)
	e := w.Spawn()

	// a Transform added without AttachTransform lacks its world reference
	_, err := world.Add[Transform](w, e)
	assert.ErrorIs(t, err, world.ErrComponentRejected)
	assert.False(t, world.Has[Transform](w, e))
}

func TestTransform_DefaultsToIdentityRoot(t *testing.T) {
	w := newSceneWorld(t)
	_, tr := attach(t, w)

	assert.True(t, tr.Parent().IsNil())
	assert.True(t, tr.FirstChild().IsNil())
	assertVec3Near(t, mgl32.Vec3{}, tr.Position())
	assertVec3Near(t, mgl32.Vec3{1, 1, 1}, tr.Scale())
}

func TestTransform_ParentChildWorldPose(t *testing.T) {
	w := newSceneWorld(t)
	parent, pt := attach(t, w)
	_, ct := attach(t, w)

	pt.SetPosition(mgl32.Vec3{10, 0, 0})
	require.NoError(t, ct.SetParent(parent, false))
	ct.SetPosition(mgl32.Vec3{0, 5, 0})

	assertVec3Near(t, mgl32.Vec3{10, 5, 0}, ct.WorldPosition())

	// moving the parent moves the child's world pose through the cache
	pt.SetPosition(mgl32.Vec3{20, 0, 0})
	assertVec3Near(t, mgl32.Vec3{20, 5, 0}, ct.WorldPosition())
}

func TestTransform_ScalePropagates(t *testing.T) {
	w := newSceneWorld(t)
	parent, pt := attach(t, w)
	_, ct := attach(t, w)

	pt.SetScale(mgl32.Vec3{2, 2, 2})
	require.NoError(t, ct.SetParent(parent, false))
	ct.SetPosition(mgl32.Vec3{1, 0, 0})

	assertVec3Near(t, mgl32.Vec3{2, 0, 0}, ct.WorldPosition())
	assertVec3Near(t, mgl32.Vec3{2, 2, 2}, ct.WorldScale())
}

func TestTransform_SetParentPreservesWorldPose(t *testing.T) {
	w := newSceneWorld(t)
	parent, pt := attach(t, w)
	_, ct := attach(t, w)

	pt.SetPosition(mgl32.Vec3{4, 0, 0})
	pt.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))
	ct.SetPosition(mgl32.Vec3{1, 2, 3})

	before := ct.WorldPosition()
	require.NoError(t, ct.SetParent(parent, true))
	assertVec3Near(t, before, ct.WorldPosition())

	// and detaching with preservation undone keeps the local pose as-is
	ct.RemoveFromParent()
	assertVec3Near(t, ct.Position(), ct.WorldPosition())
}

func TestTransform_CycleRejected(t *testing.T) {
	w := newSceneWorld(t)
	a, at := attach(t, w)
	b, bt := attach(t, w)
	c, ct := attach(t, w)

	require.NoError(t, bt.SetParent(a, false))
	require.NoError(t, ct.SetParent(b, false))

	assert.ErrorIs(t, at.SetParent(c, false), ErrCycle)
	assert.ErrorIs(t, at.SetParent(a, false), ErrCycle)
	_ = c
}

func TestTransform_SetParentRequiresTransform(t *testing.T) {
	w := newSceneWorld(t)
	_, ct := attach(t, w)
	bare := w.Spawn()

	assert.ErrorIs(t, ct.SetParent(bare, false), ErrNoTransform)
}

func TestTransform_ChildListMaintenance(t *testing.T) {
	w := newSceneWorld(t)
	parent, pt := attach(t, w)
	c1, t1 := attach(t, w)
	c2, t2 := attach(t, w)
	c3, t3 := attach(t, w)

	require.NoError(t, t1.SetParent(parent, false))
	require.NoError(t, t2.SetParent(parent, false))
	require.NoError(t, t3.SetParent(parent, false))

	children := pt.Children()
	assert.ElementsMatch(t, []world.Entity{c1, c2, c3}, children)

	// each child appears in exactly one list; unlinking the middle child
	// keeps the remaining two
	t2.RemoveFromParent()
	assert.ElementsMatch(t, []world.Entity{c1, c3}, pt.Children())
	assert.True(t, t2.Parent().IsNil())

	assert.True(t, pt.IsAncestorOf(c1))
	assert.False(t, pt.IsAncestorOf(c2))
}

func TestTransform_RecursiveVisitAndRoot(t *testing.T) {
	w := newSceneWorld(t)
	root, rt := attach(t, w)
	mid, mt := attach(t, w)
	leaf, lt := attach(t, w)

	require.NoError(t, mt.SetParent(root, false))
	require.NoError(t, lt.SetParent(mid, false))

	var visited []world.Entity
	rt.VisitChildren(true, func(tr *Transform) bool {
		visited = append(visited, tr.Owner())
		return true
	})
	assert.ElementsMatch(t, []world.Entity{mid, leaf}, visited)

	var direct []world.Entity
	rt.VisitChildren(false, func(tr *Transform) bool {
		direct = append(direct, tr.Owner())
		return true
	})
	assert.Equal(t, []world.Entity{mid}, direct)

	assert.Equal(t, root, lt.Root())

	var ancestors []world.Entity
	lt.VisitAncestors(func(tr *Transform) bool {
		ancestors = append(ancestors, tr.Owner())
		return true
	})
	assert.Equal(t, []world.Entity{mid, root}, ancestors)
}

func TestTransform_DisposePromotesChildren(t *testing.T) {
	w := newSceneWorld(t)
	parent, pt := attach(t, w)
	_, ct := attach(t, w)
	require.NoError(t, ct.SetParent(parent, false))

	w.Recycle(parent)
	assert.True(t, ct.Parent().IsNil(), "children of a recycled entity become roots")
	_ = pt
}

func TestScene_Roots(t *testing.T) {
	w := newSceneWorld(t)
	s := NewScene(w)

	rootA, _ := attach(t, w)
	rootB, bt := attach(t, w)
	child, ct := attach(t, w)
	require.NoError(t, ct.SetParent(rootB, false))

	roots := s.Roots()
	assert.ElementsMatch(t, []world.Entity{rootA, rootB}, roots)
	_ = child
	_ = bt
}

func TestScene_RefreshWorldPoses(t *testing.T) {
	w := newSceneWorld(t)
	s := NewScene(w, WithRefreshWorkers(2))

	const roots = 8
	leaves := make([]*Transform, 0, roots)
	for i := 0; i < roots; i++ {
		root, rt := attach(t, w)
		rt.SetPosition(mgl32.Vec3{float32(i), 0, 0})
		_, lt := attach(t, w)
		require.NoError(t, lt.SetParent(root, false))
		lt.SetPosition(mgl32.Vec3{0, 1, 0})
		leaves = append(leaves, lt)
	}

	s.RefreshWorldPoses()
	for i, lt := range leaves {
		assertVec3Near(t, mgl32.Vec3{float32(i), 1, 0}, lt.WorldPosition())
	}
}
