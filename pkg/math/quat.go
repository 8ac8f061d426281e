package math

import "github.com/chewxy/math32"

// Quat represents a rotation quaternion. Components are stored as
// X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// Normalize returns a unit quaternion; near-zero input falls back to
// identity.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Angle returns the rotation angle in radians, in [0, pi]. q and -q
// describe the same rotation, so the scalar part's sign is discarded.
func (q Quat) Angle() float32 {
	w := math32.Abs(q.Normalize().W)
	if w > 1 {
		w = 1
	}
	return 2 * math32.Acos(w)
}
