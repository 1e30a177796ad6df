package geom

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
)

// CircleHorizon returns the points where rays from the origin touch the circle
// (center, radius), restricted to the part with depth >= near.
//
// lo has the smaller lateral/depth ratio. A tangent point closer than the near
// plane is replaced by the endpoint of the near-plane chord on the same side.
// When the origin lies inside the circle both chord endpoints are returned.
// ok is false when the circle lies entirely behind the near plane.
func CircleHorizon(center math3d.Vec2, radius, near float64) (lo, hi math3d.Vec2, ok bool) {
	r2 := radius * radius
	dz := near - center.Y
	clipSq := r2 - dz*dz
	if center.Y < near && clipSq < 0 {
		return lo, hi, false
	}

	var clip float64
	if clipSq > 0 {
		clip = math.Sqrt(clipSq)
	}
	clipLo := math3d.V2(center.X-clip, near)
	clipHi := math3d.V2(center.X+clip, near)

	d2 := center.LenSq()
	if d2 <= r2 {
		return clipLo, clipHi, true
	}

	d := math.Sqrt(d2)
	dir := center.Scale(1 / d)
	l2 := d2 - r2
	foot := dir.Scale(l2 / d)
	h := math.Sqrt(l2) * radius / d
	perp := dir.Perp()

	lo = foot.Add(perp.Scale(h))
	hi = foot.Sub(perp.Scale(h))
	if lo.Y < near {
		lo = clipLo
	}
	if hi.Y < near {
		hi = clipHi
	}
	return lo, hi, true
}

// CircleSpan returns the lateral extremes of the part of the circle with
// depth >= near, as seen by an orthographic projection.
func CircleSpan(center math3d.Vec2, radius, near float64) (lo, hi math3d.Vec2, ok bool) {
	if center.Y >= near {
		return math3d.V2(center.X-radius, center.Y), math3d.V2(center.X+radius, center.Y), true
	}
	return CircleNearPoints(center, radius, near)
}

// CircleNearPoints returns the endpoints of the chord where the circle crosses
// depth = near.
func CircleNearPoints(center math3d.Vec2, radius, near float64) (lo, hi math3d.Vec2, ok bool) {
	dz := near - center.Y
	clipSq := radius*radius - dz*dz
	if clipSq < 0 {
		return lo, hi, false
	}
	clip := math.Sqrt(clipSq)
	return math3d.V2(center.X-clip, near), math3d.V2(center.X+clip, near), true
}

// SphereYPlaneHorizon returns the horizon points of the sphere within the
// plane through the X axis that contains the points y = planeY·z. The points
// bound x/z inside that plane, clipped to z >= near.
func SphereYPlaneHorizon(center math3d.Vec3, radius, near, planeY float64) (p0, p1 math3d.Vec3, ok bool) {
	s := math.Sqrt(1 + planeY*planeY)
	n := math3d.V3(0, 1, -planeY).Scale(1 / s)
	dist := center.Dot(n)
	if math.Abs(dist) >= radius {
		return p0, p1, false
	}

	onPlane := center.Sub(n.Scale(dist))
	r := math.Sqrt(radius*radius - dist*dist)
	e2 := math3d.V3(0, planeY, 1).Scale(1 / s)

	lo, hi, ok := CircleHorizon(math3d.V2(onPlane.X, onPlane.Dot(e2)), r, near*s)
	if !ok {
		return p0, p1, false
	}
	lift := func(p math3d.Vec2) math3d.Vec3 {
		return math3d.V3(p.X, 0, 0).Add(e2.Scale(p.Y))
	}
	return lift(lo), lift(hi), true
}

// SphereNearPoints returns the two points of the sphere on the line z = near,
// y = y.
func SphereNearPoints(center math3d.Vec3, radius, near, y float64) (p0, p1 math3d.Vec3, ok bool) {
	dy := y - center.Y
	dz := near - center.Z
	sq := radius*radius - dy*dy - dz*dz
	if sq < 0 {
		return p0, p1, false
	}
	dx := math.Sqrt(sq)
	return math3d.V3(center.X-dx, y, near), math3d.V3(center.X+dx, y, near), true
}

// ProjectedCircleHorizon returns the angles of the points of the circle
// center + radius·(cos(θ)·u + sin(θ)·v) with extremal lateral/depth ratio.
// All vectors are slice-plane projections of the 3D circle.
func ProjectedCircleHorizon(center math3d.Vec2, radius float64, u, v math3d.Vec2) (t0, t1 float64, ok bool) {
	return SolveTrig(center.Cross(v), -center.Cross(u), -radius*u.Cross(v))
}

// CircleAxisExtents returns the points of the circle with minimal and maximal
// projection onto axis.
func CircleAxisExtents(center, u, v math3d.Vec3, radius float64, axis math3d.Vec3) (lo, hi math3d.Vec3) {
	theta := math.Atan2(v.Dot(axis), u.Dot(axis))
	hi = CirclePoint(center, u, v, radius, theta)
	lo = CirclePoint(center, u, v, radius, theta+math.Pi)
	return lo, hi
}

// CircleClipPoints returns where the circle with the given center, plane
// normal and radius crosses the plane z = near. ok is false when the circle is
// parallel to that plane or does not reach it.
func CircleClipPoints(center, normal math3d.Vec3, radius, near float64) (p0, p1 math3d.Vec3, ok bool) {
	l := normal.Cross(math3d.UnitZ())
	if l.LenSq() < Epsilon*Epsilon {
		return p0, p1, false
	}
	l = l.Normalize()
	w := l.Cross(normal)
	if math.Abs(w.Z) < Epsilon {
		return p0, p1, false
	}
	s := (near - center.Z) / w.Z
	sq := radius*radius - s*s
	if sq < 0 {
		return p0, p1, false
	}
	mid := center.Add(w.Scale(s))
	mid.Z = near
	t := math.Sqrt(sq)
	return mid.Sub(l.Scale(t)), mid.Add(l.Scale(t)), true
}

// IntersectCirclePlane returns where the circle center + radius·(cos(θ)·u +
// sin(θ)·v) crosses the plane n·p = d.
func IntersectCirclePlane(center, u, v math3d.Vec3, radius float64, n math3d.Vec3, d float64) (p0, p1 math3d.Vec3, ok bool) {
	t0, t1, ok := SolveTrig(radius*n.Dot(u), radius*n.Dot(v), d-n.Dot(center))
	if !ok {
		return p0, p1, false
	}
	return CirclePoint(center, u, v, radius, t0), CirclePoint(center, u, v, radius, t1), true
}
