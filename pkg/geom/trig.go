// Package geom implements the closed-form silhouette and intersection solvers
// used to bound light volumes in tile space.
//
// Two-dimensional helpers work in a slice plane through the camera, with X the
// lateral axis and Y the depth away from the camera. Three-dimensional helpers
// work in view space with the camera at the origin looking down +Z.
package geom

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
)

// Epsilon is the tolerance below which a scale factor is treated as zero.
const Epsilon = 1e-9

// SolveTrig solves a·cos(θ) + b·sin(θ) = c for θ.
// It reports false when a and b are both zero or when |c| exceeds hypot(a, b).
func SolveTrig(a, b, c float64) (t0, t1 float64, ok bool) {
	rho := math.Hypot(a, b)
	if rho < Epsilon {
		return 0, 0, false
	}
	k := c / rho
	if math.Abs(k) > 1 {
		if math.Abs(k) > 1+Epsilon {
			return 0, 0, false
		}
		k = math.Copysign(1, k)
	}
	phi := math.Atan2(b, a)
	delta := math.Acos(k)
	return phi - delta, phi + delta, true
}

// CirclePoint returns center + radius·(cos(θ)·u + sin(θ)·v).
func CirclePoint(center, u, v math3d.Vec3, radius, theta float64) math3d.Vec3 {
	s, c := math.Sincos(theta)
	return center.Add(u.Scale(c * radius)).Add(v.Scale(s * radius))
}

// OrthonormalBasis returns unit vectors u and v perpendicular to the unit
// vector n such that u × v = n.
func OrthonormalBasis(n math3d.Vec3) (u, v math3d.Vec3) {
	sign := math.Copysign(1, n.Z)
	a := -1 / (sign + n.Z)
	b := n.X * n.Y * a
	u = math3d.V3(1+sign*n.X*n.X*a, sign*b, -sign*n.X)
	v = math3d.V3(b, sign+n.Y*n.Y*a, -n.Y)
	return u, v
}
