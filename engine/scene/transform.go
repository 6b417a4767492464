// Package scene layers a transform hierarchy over the entity world. The
// hierarchy is a forest of parent/first-child/next-sibling links carried by
// entity handles, with cached local and world-space poses.
package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kaisc/lemon-toolkit/common"
	"github.com/kaisc/lemon-toolkit/engine/world"
)

var (
	// ErrCycle is returned when a reparent would make an entity its own
	// ancestor.
	ErrCycle = errors.New("scene: reparenting would create a cycle")

	// ErrNoTransform is returned when a hierarchy operation references an
	// entity without a Transform.
	ErrNoTransform = errors.New("scene: entity has no transform")
)

// Transform attaches an entity to the scene forest. Create it with
// AttachTransform; a Transform added through the plain world API rejects its
// own Initialize hook because it lacks the world back-reference.
type Transform struct {
	world.BaseComponent

	w *world.World

	parent      world.Entity
	firstChild  world.Entity
	nextSibling world.Entity
	prevSibling world.Entity

	local      common.Pose
	worldPose  common.Pose
	worldDirty bool
}

// AttachTransform adds a Transform to the entity and wires it into the scene
// forest as a root.
//
// Parameters:
//   - w: the world owning the entity
//   - e: the target entity
//   - init: optional closures run before the component is announced
//
// Returns:
//   - *Transform: the attached transform
//   - error: the world's add error, if any
func AttachTransform(w *world.World, e world.Entity, init ...func(*Transform)) (*Transform, error) {
	setup := func(t *Transform) {
		t.w = w
		t.local = common.IdentityPose()
		t.worldDirty = true
	}
	return world.Add[Transform](w, e, append([]func(*Transform){setup}, init...)...)
}

// TransformOf returns the entity's transform, or nil.
//
// Parameters:
//   - w: the world owning the entity
//   - e: the entity to look up
//
// Returns:
//   - *Transform: the transform, or nil if absent
func TransformOf(w *world.World, e world.Entity) *Transform {
	return world.Get[Transform](w, e)
}

// Initialize rejects transforms that were not created via AttachTransform.
func (t *Transform) Initialize() bool {
	return t.w != nil
}

// Dispose unlinks the transform from its parent and promotes its children to
// roots. Runs on the world's destructor path.
func (t *Transform) Dispose() {
	t.detach()
	child := t.firstChild
	for !child.IsNil() {
		ct := TransformOf(t.w, child)
		next := ct.nextSibling
		ct.parent = world.Entity{}
		ct.prevSibling = world.Entity{}
		ct.nextSibling = world.Entity{}
		ct.markWorldDirty()
		child = next
	}
	t.firstChild = world.Entity{}
}

// Parent returns the parent entity, or the null handle for roots.
func (t *Transform) Parent() world.Entity {
	return t.parent
}

// FirstChild returns the head of the child list, or the null handle.
func (t *Transform) FirstChild() world.Entity {
	return t.firstChild
}

// NextSibling returns the next entity in the parent's child list.
func (t *Transform) NextSibling() world.Entity {
	return t.nextSibling
}

// SetParent links the transform under a new parent. With preserveWorld set the
// local pose is recomputed from the new parent's inverse world pose so the
// entity does not move in world space.
//
// Parameters:
//   - parent: the new parent entity, or the null handle to make this a root
//   - preserveWorld: keep the world-space pose across the reparent
//
// Returns:
//   - error: ErrNoTransform if parent lacks a transform, ErrCycle if the
//     reparent would close a loop
func (t *Transform) SetParent(parent world.Entity, preserveWorld bool) error {
	var pt *Transform
	if !parent.IsNil() {
		pt = TransformOf(t.w, parent)
		if pt == nil {
			return ErrNoTransform
		}
		if parent == t.Owner() || t.IsAncestorOf(parent) {
			return ErrCycle
		}
	}

	var keep common.Pose
	if preserveWorld {
		keep = t.WorldPose()
	}

	t.detach()
	t.parent = parent
	if pt != nil {
		t.nextSibling = pt.firstChild
		if !pt.firstChild.IsNil() {
			TransformOf(t.w, pt.firstChild).prevSibling = t.Owner()
		}
		pt.firstChild = t.Owner()
	}

	if preserveWorld {
		if pt != nil {
			t.local = pt.WorldPose().Relative(keep)
		} else {
			t.local = keep
		}
	}
	t.markWorldDirty()
	return nil
}

// RemoveFromParent makes the transform a root, keeping its local pose.
func (t *Transform) RemoveFromParent() {
	t.detach()
	t.markWorldDirty()
}

// IsAncestorOf reports whether the given entity sits below this transform.
//
// Parameters:
//   - e: the candidate descendant
//
// Returns:
//   - bool: true if e is a (transitive) child of this transform
func (t *Transform) IsAncestorOf(e world.Entity) bool {
	cursor := TransformOf(t.w, e)
	for cursor != nil {
		if cursor.parent == t.Owner() {
			return true
		}
		cursor = TransformOf(t.w, cursor.parent)
	}
	return false
}

// Root returns the top of the chain this transform hangs from.
//
// Returns:
//   - world.Entity: the root entity (itself for roots)
func (t *Transform) Root() world.Entity {
	cursor := t
	for !cursor.parent.IsNil() {
		next := TransformOf(t.w, cursor.parent)
		if next == nil {
			break
		}
		cursor = next
	}
	return cursor.Owner()
}

// Children returns the direct children in list order.
func (t *Transform) Children() []world.Entity {
	var out []world.Entity
	for child := t.firstChild; !child.IsNil(); child = TransformOf(t.w, child).nextSibling {
		out = append(out, child)
	}
	return out
}

// VisitAncestors walks the parent chain from the immediate parent upward.
//
// Parameters:
//   - fn: the visitor; returning false stops the walk
func (t *Transform) VisitAncestors(fn func(*Transform) bool) {
	cursor := TransformOf(t.w, t.parent)
	for cursor != nil {
		if !fn(cursor) {
			return
		}
		cursor = TransformOf(t.w, cursor.parent)
	}
}

// VisitChildren walks the subtree below this transform. With recursive set the
// walk is depth-first over all descendants, otherwise only direct children.
//
// Parameters:
//   - recursive: include grandchildren and deeper
//   - fn: the visitor; returning false stops the walk
func (t *Transform) VisitChildren(recursive bool, fn func(*Transform) bool) {
	for child := t.firstChild; !child.IsNil(); {
		ct := TransformOf(t.w, child)
		if !fn(ct) {
			return
		}
		if recursive {
			ct.VisitChildren(true, fn)
		}
		child = ct.nextSibling
	}
}

// detach unlinks the transform from its parent's child list.
func (t *Transform) detach() {
	if t.parent.IsNil() {
		return
	}
	pt := TransformOf(t.w, t.parent)
	if pt != nil && pt.firstChild == t.Owner() {
		pt.firstChild = t.nextSibling
	}
	if !t.prevSibling.IsNil() {
		TransformOf(t.w, t.prevSibling).nextSibling = t.nextSibling
	}
	if !t.nextSibling.IsNil() {
		TransformOf(t.w, t.nextSibling).prevSibling = t.prevSibling
	}
	t.parent = world.Entity{}
	t.prevSibling = world.Entity{}
	t.nextSibling = world.Entity{}
}

// --- pose accessors ---

// LocalPose returns the pose relative to the parent.
func (t *Transform) LocalPose() common.Pose {
	return t.local
}

// SetLocalPose replaces the pose relative to the parent.
func (t *Transform) SetLocalPose(p common.Pose) {
	t.local = p
	t.markWorldDirty()
}

// Position returns the local-space position.
func (t *Transform) Position() mgl32.Vec3 {
	return t.local.Position
}

// SetPosition moves the transform in local space.
func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.local.Position = p
	t.markWorldDirty()
}

// Rotation returns the local-space rotation.
func (t *Transform) Rotation() mgl32.Quat {
	return t.local.Rotation
}

// SetRotation rotates the transform in local space.
func (t *Transform) SetRotation(q mgl32.Quat) {
	t.local.Rotation = q
	t.markWorldDirty()
}

// Scale returns the local-space scale.
func (t *Transform) Scale() mgl32.Vec3 {
	return t.local.Scale
}

// SetScale scales the transform in local space.
func (t *Transform) SetScale(s mgl32.Vec3) {
	t.local.Scale = s
	t.markWorldDirty()
}

// WorldPose returns the pose composed down from the root. The result is
// cached until a local pose or the hierarchy above changes.
func (t *Transform) WorldPose() common.Pose {
	if !t.worldDirty {
		return t.worldPose
	}
	pt := TransformOf(t.w, t.parent)
	if pt == nil {
		t.worldPose = t.local
	} else {
		t.worldPose = pt.WorldPose().Compose(t.local)
	}
	t.worldDirty = false
	return t.worldPose
}

// SetWorldPose moves the transform so its world pose matches p, by
// recomputing the local pose against the parent.
func (t *Transform) SetWorldPose(p common.Pose) {
	pt := TransformOf(t.w, t.parent)
	if pt == nil {
		t.local = p
	} else {
		t.local = pt.WorldPose().Relative(p)
	}
	t.markWorldDirty()
}

// WorldPosition returns the world-space position.
func (t *Transform) WorldPosition() mgl32.Vec3 {
	return t.WorldPose().Position
}

// SetWorldPosition moves the transform to a world-space position, keeping its
// world rotation and scale.
func (t *Transform) SetWorldPosition(p mgl32.Vec3) {
	pose := t.WorldPose()
	pose.Position = p
	t.SetWorldPose(pose)
}

// WorldRotation returns the world-space rotation.
func (t *Transform) WorldRotation() mgl32.Quat {
	return t.WorldPose().Rotation
}

// WorldScale returns the world-space scale.
func (t *Transform) WorldScale() mgl32.Vec3 {
	return t.WorldPose().Scale
}

// Matrix returns the world-space transform matrix.
func (t *Transform) Matrix() mgl32.Mat4 {
	return t.WorldPose().Matrix()
}

// markWorldDirty invalidates the cached world pose of this transform and
// every descendant.
func (t *Transform) markWorldDirty() {
	t.worldDirty = true
	t.VisitChildren(true, func(child *Transform) bool {
		child.worldDirty = true
		return true
	})
}
