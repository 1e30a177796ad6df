package math3d

// Vec4 represents a 4D vector. The tiler stores scale in XY and bias in ZW.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{v.X, v.Y}
}

// ZW returns the last two components.
func (v Vec4) ZW() Vec2 {
	return Vec2{v.Z, v.W}
}

// Quat is a unit rotation quaternion with W as the scalar part.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatAxisAngle returns the rotation of angle radians around axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	s, c := sincos(angle / 2)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, c}
}
