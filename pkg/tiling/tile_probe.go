package tiling

import (
	"github.com/taigrr/tilecull/pkg/geom"
	"github.com/taigrr/tilecull/pkg/math3d"
)

// spanningVertices are the even-parity box corners. Together with their three
// bit-flip neighbors they enumerate each of the 12 box edges once.
var spanningVertices = [4]int{0, 3, 5, 6}

// tileProbe writes the ranges of a reflection probe box.
func (t *tiler) tileProbe(p *Probe) {
	near := t.grid.Near
	m := t.view.WorldToView

	var corners [8]math3d.Vec3
	for i, c := range p.Corners() {
		corners[i] = m.MulPoint(c).FlipZ()
	}

	points := make([]math3d.Vec2, 0, 20)
	for _, c := range corners {
		if t.visible(c) {
			points = append(points, t.grid.ViewToTileSpace(t.view, c))
		}
	}
	for _, i := range spanningVertices {
		a := corners[i]
		for k := range 3 {
			b := corners[i^(1<<k)]
			if (a.Z < near) == (b.Z < near) {
				continue
			}
			x := a.Lerp(b, (near-a.Z)/(b.Z-a.Z))
			x.Z = near
			points = append(points, t.grid.ViewToTileSpace(t.view, x))
		}
	}
	if len(points) == 0 {
		return
	}

	hull := geom.ConvexHull(points)
	for _, v := range hull {
		t.expandTile(v)
	}

	t.sweep(func(plane int) InclusiveRange {
		return t.hullPlaneColumns(hull, float64(plane))
	})
}

// hullPlaneColumns returns the columns where the hull outline meets the
// tile-space line y = y.
func (t *tiler) hullPlaneColumns(hull []math3d.Vec2, y float64) InclusiveRange {
	cols := EmptyRange
	n := len(hull)
	for i := range n {
		a, b := hull[i], hull[(i+1)%n]
		if (a.Y < y && b.Y < y) || (a.Y > y && b.Y > y) {
			continue
		}
		if a.Y == b.Y {
			cols.Expand(clampTile(a.X, t.grid.TileCountX))
			cols.Expand(clampTile(b.X, t.grid.TileCountX))
			continue
		}
		x := a.X + (y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		cols.Expand(clampTile(x, t.grid.TileCountX))
	}
	return cols
}
