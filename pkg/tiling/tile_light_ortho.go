package tiling

import (
	"math"

	"github.com/taigrr/tilecull/pkg/geom"
	"github.com/taigrr/tilecull/pkg/math3d"
)

var (
	unitX = math3d.V3(1, 0, 0)
	unitY = math3d.V3(0, 1, 0)
)

// tileLightOrthographic mirrors tileLightPerspective for parallel rays: rows
// are bounded by planes y = const and silhouettes are taken along +Z.
func (t *tiler) tileLightOrthographic(l *lightVolume) {
	near := t.grid.Near
	c := l.center

	t.expandVisible(c)

	if lo, hi, ok := geom.CircleSpan(yz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(c.X, lo.X, lo.Y))
		t.expandSphereCandidate(l, math3d.V3(c.X, hi.X, hi.Y))
	}
	if lo, hi, ok := geom.CircleSpan(xz(c), l.radius, near); ok {
		t.expandSphereCandidate(l, math3d.V3(lo.X, c.Y, lo.Y))
		t.expandSphereCandidate(l, math3d.V3(hi.X, c.Y, hi.Y))
	}
	t.expandSphereNearChords(l)

	if s := l.spot; s != nil {
		for _, axis := range []math3d.Vec3{unitY, unitX} {
			lo, hi := geom.CircleAxisExtents(s.base, s.u, s.v, s.radius, axis)
			t.expandVisible(lo)
			t.expandVisible(hi)
		}
		if p0, p1, ok := geom.CircleClipPoints(s.base, s.dir, s.radius, near); ok {
			t.expand(p0)
			t.expand(p1)
		}
		t.expandNearConic(s)
	}

	t.sweep(func(plane int) InclusiveRange {
		return t.orthographicPlaneColumns(l, t.grid.PlaneY(t.view, plane))
	})
}

// orthographicPlaneColumns returns the columns touched by the light within the
// plane y = planeY.
func (t *tiler) orthographicPlaneColumns(l *lightVolume, planeY float64) InclusiveRange {
	near := t.grid.Near
	c := l.center
	cols := EmptyRange
	add := func(p math3d.Vec3) { t.expandColumn(&cols, p) }
	addSphere := func(p math3d.Vec3) {
		if l.onSphere(p) {
			add(p)
		}
	}

	dy := planeY - c.Y
	if sq := l.radius*l.radius - dy*dy; sq >= 0 {
		if lo, hi, ok := geom.CircleSpan(xz(c), math.Sqrt(sq), near); ok {
			addSphere(math3d.V3(lo.X, planeY, lo.Y))
			addSphere(math3d.V3(hi.X, planeY, hi.Y))
		}
	}
	if p0, p1, ok := geom.SphereNearPoints(c, l.radius, near, planeY); ok {
		addSphere(p0)
		addSphere(p1)
	}

	if s := l.spot; s != nil {
		if l0, l1, ok := geom.ConeSideTangents(s.dir, s.u, s.v, s.height, s.radius, math3d.UnitZ()); ok {
			for _, side := range []math3d.Vec3{l0, l1} {
				if p, ok := lineHitsPlane(s.apex, side, unitY, planeY); ok {
					add(p)
				}
			}
		}
		if p0, p1, ok := geom.IntersectCirclePlane(s.base, s.u, s.v, s.radius, unitY, planeY); ok {
			add(p0)
			add(p1)
		}
		t.addNearConicRow(&cols, s, planeY)
	}
	return cols.Clamp(0, int16(t.grid.TileCountX-1))
}
