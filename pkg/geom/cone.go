package geom

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
)

// ConeSideTangents returns the two generators of a cone whose tangent planes
// contain the direction w. dir, u and v form a right-handed orthonormal frame
// of the cone axis; height and baseRadius size the cone. The generators are
// returned as vectors from the apex to the base rim.
//
// For a perspective view w is the apex position (the ray from the camera);
// for an orthographic view it is the view direction.
func ConeSideTangents(dir, u, v math3d.Vec3, height, baseRadius float64, w math3d.Vec3) (l0, l1 math3d.Vec3, ok bool) {
	t0, t1, ok := SolveTrig(height*u.Dot(w), height*v.Dot(w), baseRadius*dir.Dot(w))
	if !ok {
		return l0, l1, false
	}
	axis := dir.Scale(height)
	return CirclePoint(axis, u, v, baseRadius, t0), CirclePoint(axis, u, v, baseRadius, t1), true
}

// NearConicTangentTheta returns the angles of the generators whose crossings
// with a constant-depth plane are extremal along one screen axis. The vectors
// are slice-plane projections (lateral, depth) of the cone axis d and its
// frame u, v; r is the tangent of the half angle.
func NearConicTangentTheta(d, u, v math3d.Vec2, r float64) (t0, t1 float64, ok bool) {
	return SolveTrig(v.Cross(d), d.Cross(u), r*u.Cross(v))
}

// EvaluateNearConic returns where the generator at angle θ of the cone with
// apex o, axis d, frame u, v and half-angle tangent r crosses z = near.
func EvaluateNearConic(near float64, o, d math3d.Vec3, r float64, u, v math3d.Vec3, theta float64) (math3d.Vec3, bool) {
	g := CirclePoint(d, u, v, r, theta)
	if math.Abs(g.Z) < Epsilon {
		return math3d.Vec3{}, false
	}
	p := o.Add(g.Scale((near - o.Z) / g.Z))
	p.Z = near
	return p, true
}

// NearConicYTheta returns the angles of the generators that cross the plane
// z = near at height y.
func NearConicYTheta(near float64, o, d math3d.Vec3, r float64, u, v math3d.Vec3, y float64) (t0, t1 float64, ok bool) {
	h := near - o.Z
	k := y - o.Y
	return SolveTrig(r*(h*u.Y-k*u.Z), r*(h*v.Y-k*v.Z), k*d.Z-h*d.Y)
}
