package common

import "github.com/go-gl/mathgl/mgl32"

// Pose is a translation/rotation/scale triple. It composes like an affine
// transform without shear: scale is applied first, then rotation, then
// translation.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// IdentityPose returns the pose that maps every point to itself.
//
// Returns:
//   - Pose: the identity pose
func IdentityPose() Pose {
	return Pose{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Compose applies the child pose in the parent's space.
// When the receiver's scale is uniform (or the child is unrotated), the result
// transforms points the same way as parent.Apply(child.Apply(p)). A
// non-uniform scale over a rotated child would need shear, which a Pose cannot
// hold, so in that case the result differs from the two-step application.
//
// Parameters:
//   - child: the pose expressed relative to the receiver
//
// Returns:
//   - Pose: the child pose expressed in the receiver's outer space
func (p Pose) Compose(child Pose) Pose {
	scaled := mulVec3(p.Scale, child.Position)
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(scaled)),
		Rotation: p.Rotation.Mul(child.Rotation).Normalize(),
		Scale:    mulVec3(p.Scale, child.Scale),
	}
}

// Relative computes the pose that, composed onto the receiver, yields world.
// Used to preserve a world-space pose while reparenting.
//
// Parameters:
//   - world: the target pose in the receiver's outer space
//
// Returns:
//   - Pose: the pose of world expressed relative to the receiver
func (p Pose) Relative(world Pose) Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: divVec3(inv.Rotate(world.Position.Sub(p.Position)), p.Scale),
		Rotation: inv.Mul(world.Rotation).Normalize(),
		Scale:    divVec3(world.Scale, p.Scale),
	}
}

// Apply transforms a point from the pose's local space to its outer space.
//
// Parameters:
//   - point: the point in local space
//
// Returns:
//   - mgl32.Vec3: the point in outer space
func (p Pose) Apply(point mgl32.Vec3) mgl32.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(mulVec3(p.Scale, point)))
}

// Matrix expands the pose into a column-major 4x4 transform matrix.
//
// Returns:
//   - mgl32.Mat4: the equivalent transform matrix
func (p Pose) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z())
	rotate := p.Rotation.Mat4()
	scale := mgl32.Scale3D(p.Scale.X(), p.Scale.Y(), p.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func divVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() / b.X(), a.Y() / b.Y(), a.Z() / b.Z()}
}
