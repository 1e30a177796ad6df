package tiling

import (
	"math"

	"github.com/taigrr/tilecull/pkg/geom"
	"github.com/taigrr/tilecull/pkg/math3d"
)

// lightVolume is a point or spot light in view space with depth along +Z.
type lightVolume struct {
	center math3d.Vec3
	radius float64
	spot   *spotCone
}

func (t *tiler) viewLight(l *Light) lightVolume {
	m := t.view.WorldToView
	vol := lightVolume{
		center: m.MulPoint(l.Position).FlipZ(),
		radius: l.Range,
	}
	// Spots at or past maxSpotHalfAngle are bounded by their range sphere.
	if l.Type == Spot && l.SpotAngle*math.Pi/360 < maxSpotHalfAngle {
		dir := m.MulDir(l.Direction).FlipZ().Normalize()
		vol.spot = newSpotCone(vol.center, dir, l.Range, l.SpotAngle)
	}
	return vol
}

// onSphere reports whether a point of the bounding sphere belongs to the
// light volume.
func (l *lightVolume) onSphere(p math3d.Vec3) bool {
	return l.spot == nil || l.spot.insideAngle(p)
}

func (t *tiler) expandSphereCandidate(l *lightVolume, p math3d.Vec3) {
	if l.onSphere(p) {
		t.expandVisible(p)
	}
}

// tileLight writes the ranges of a point or spot light.
func (t *tiler) tileLight(l *Light) {
	if l.Type == Directional || !(l.Range > 0) {
		return
	}
	vol := t.viewLight(l)
	if t.grid.Orthographic {
		t.tileLightOrthographic(&vol)
		return
	}
	t.tileLightPerspective(&vol)
}

func yz(v math3d.Vec3) math3d.Vec2 { return math3d.V2(v.Y, v.Z) }
func xz(v math3d.Vec3) math3d.Vec2 { return math3d.V2(v.X, v.Z) }

func (t *tiler) tileLightPerspective(l *lightVolume) {
	near := t.grid.Near
	c := l.center

	t.expandVisible(c)

	if lo, hi, ok := geom.CircleHorizon(yz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(c.X, lo.X, lo.Y))
		t.expandSphereCandidate(l, math3d.V3(c.X, hi.X, hi.Y))
	}
	if lo, hi, ok := geom.CircleHorizon(xz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(lo.X, c.Y, lo.Y))
		t.expandSphereCandidate(l, math3d.V3(hi.X, c.Y, hi.Y))
	}
	t.expandSphereNearChords(l)

	if l.spot != nil {
		t.expandSpotRim(l.spot, func(center, u, v math3d.Vec2) (float64, float64, bool) {
			return geom.ProjectedCircleHorizon(center, l.spot.radius, u, v)
		})
		t.expandNearConic(l.spot)
	}

	t.sweep(func(plane int) InclusiveRange {
		return t.perspectivePlaneColumns(l, t.grid.PlaneY(t.view, plane))
	})
}

// expandSphereNearChords adds the extremes of the disk where the sphere meets
// the near plane.
func (t *tiler) expandSphereNearChords(l *lightVolume) {
	near := t.grid.Near
	c := l.center
	if lo, hi, ok := geom.CircleNearPoints(yz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(c.X, lo.X, near))
		t.expandSphereCandidate(l, math3d.V3(c.X, hi.X, near))
	}
	if lo, hi, ok := geom.CircleNearPoints(xz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(lo.X, c.Y, near))
		t.expandSphereCandidate(l, math3d.V3(hi.X, c.Y, near))
	}
}

// expandSpotRim adds the rim points found by horizon in the YZ and XZ slices,
// plus the points where the rim crosses the near plane.
func (t *tiler) expandSpotRim(s *spotCone, horizon func(center, u, v math3d.Vec2) (float64, float64, bool)) {
	for _, slice := range []func(math3d.Vec3) math3d.Vec2{yz, xz} {
		t0, t1, ok := horizon(slice(s.base), slice(s.u), slice(s.v))
		if !ok {
			continue
		}
		t.expandVisible(geom.CirclePoint(s.base, s.u, s.v, s.radius, t0))
		t.expandVisible(geom.CirclePoint(s.base, s.u, s.v, s.radius, t1))
	}
	if p0, p1, ok := geom.CircleClipPoints(s.base, s.dir, s.radius, t.grid.Near); ok {
		t.expand(p0)
		t.expand(p1)
	}
}

// expandNearConic adds the vertical and horizontal extremes of the curve where
// the cone surface crosses the near plane.
func (t *tiler) expandNearConic(s *spotCone) {
	near := t.grid.Near
	if !s.clippedBy(near) {
		return
	}
	for _, slice := range []func(math3d.Vec3) math3d.Vec2{yz, xz} {
		t0, t1, ok := geom.NearConicTangentTheta(slice(s.dir), slice(s.u), slice(s.v), s.tanAngle)
		if !ok {
			continue
		}
		for _, theta := range []float64{t0, t1} {
			if p, ok := geom.EvaluateNearConic(near, s.apex, s.dir, s.tanAngle, s.u, s.v, theta); ok && s.onForwardNappe(p) {
				t.expand(p)
			}
		}
	}
}

// perspectivePlaneColumns returns the columns touched by the light within the
// plane through the camera containing the points y = planeY·z.
func (t *tiler) perspectivePlaneColumns(l *lightVolume, planeY float64) InclusiveRange {
	near := t.grid.Near
	cols := EmptyRange
	add := func(p math3d.Vec3) { t.expandColumn(&cols, p) }

	if p0, p1, ok := geom.SphereYPlaneHorizon(l.center, l.radius, near, planeY); ok {
		if l.onSphere(p0) {
			add(p0)
		}
		if l.onSphere(p1) {
			add(p1)
		}
	}
	if p0, p1, ok := geom.SphereNearPoints(l.center, l.radius, near, planeY*near); ok {
		if l.onSphere(p0) {
			add(p0)
		}
		if l.onSphere(p1) {
			add(p1)
		}
	}

	if s := l.spot; s != nil {
		n := math3d.V3(0, 1, -planeY)
		if l0, l1, ok := geom.ConeSideTangents(s.dir, s.u, s.v, s.height, s.radius, s.apex); ok {
			for _, side := range []math3d.Vec3{l0, l1} {
				if p, ok := lineHitsPlane(s.apex, side, n, 0); ok {
					add(p)
				}
			}
		}
		if p0, p1, ok := geom.IntersectCirclePlane(s.base, s.u, s.v, s.radius, n, 0); ok {
			add(p0)
			add(p1)
		}
		t.addNearConicRow(&cols, s, planeY*near)
	}
	return cols.Clamp(0, int16(t.grid.TileCountX-1))
}

// addNearConicRow adds the points where the near-plane conic reaches height y.
func (t *tiler) addNearConicRow(cols *InclusiveRange, s *spotCone, y float64) {
	near := t.grid.Near
	if !s.clippedBy(near) {
		return
	}
	t0, t1, ok := geom.NearConicYTheta(near, s.apex, s.dir, s.tanAngle, s.u, s.v, y)
	if !ok {
		return
	}
	for _, theta := range []float64{t0, t1} {
		if p, ok := geom.EvaluateNearConic(near, s.apex, s.dir, s.tanAngle, s.u, s.v, theta); ok && s.onForwardNappe(p) {
			t.expandColumn(cols, p)
		}
	}
}

// lineHitsPlane intersects the segment o + l·t, t in [0, 1], with n·p = d.
func lineHitsPlane(o, l, n math3d.Vec3, d float64) (math3d.Vec3, bool) {
	denom := n.Dot(l)
	if math.Abs(denom) < geom.Epsilon {
		return math3d.Vec3{}, false
	}
	tt := (d - n.Dot(o)) / denom
	if tt < 0 || tt > 1 {
		return math3d.Vec3{}, false
	}
	return o.Add(l.Scale(tt)), true
}
