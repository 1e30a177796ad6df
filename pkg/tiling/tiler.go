package tiling

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
)

// nearEps absorbs rounding on points constructed exactly on the near plane.
const nearEps = 1e-9

// tiler accumulates the ranges of one work unit.
// out[0] is the row range, out[1+row] the column range of a tile row.
type tiler struct {
	grid *Grid
	view *View
	out  []InclusiveRange
}

func (t *tiler) rows() *InclusiveRange {
	return &t.out[0]
}

func (t *tiler) visible(p math3d.Vec3) bool {
	return p.Z >= t.grid.Near-nearEps
}

// clampTile converts a fractional tile coordinate to an index in [0, n-1].
func clampTile(v float64, n int) int16 {
	f := math.Floor(v)
	if f < 0 {
		return 0
	}
	if f > float64(n-1) {
		return int16(n - 1)
	}
	return int16(f)
}

// expandTile adds a tile-space point: its row joins the row range and, when
// the row is on screen, its column joins that row's column range.
func (t *tiler) expandTile(ts math3d.Vec2) {
	if ts.IsNaN() {
		return
	}
	ty := math.Floor(ts.Y)
	t.rows().Expand(clampTile(ts.Y, t.grid.TileCountY))
	if ty >= 0 && ty < float64(t.grid.TileCountY) {
		t.out[1+int(ty)].Expand(clampTile(ts.X, t.grid.TileCountX))
	}
}

// expand adds a view-space point. Callers have already checked visibility.
func (t *tiler) expand(p math3d.Vec3) {
	t.expandTile(t.grid.ViewToTileSpace(t.view, p))
}

// expandVisible adds p only when it lies on or beyond the near plane.
func (t *tiler) expandVisible(p math3d.Vec3) {
	if t.visible(p) {
		t.expand(p)
	}
}

// expandColumn adds the column of a view-space point to r.
func (t *tiler) expandColumn(r *InclusiveRange, p math3d.Vec3) {
	if !t.visible(p) {
		return
	}
	ts := t.grid.ViewToTileSpace(t.view, p)
	if ts.IsNaN() {
		return
	}
	r.Expand(clampTile(ts.X, t.grid.TileCountX))
}

// sweep visits every horizontal tile boundary of the row range, including the
// bottom of the first row and the top of the last, and merges the columns
// found on each boundary into the rows on both sides of it.
func (t *tiler) sweep(planeColumns func(planeIndex int) InclusiveRange) {
	rows := *t.rows()
	if rows.IsEmpty() {
		return
	}
	for plane := int(rows.Start); plane <= int(rows.End)+1; plane++ {
		cols := planeColumns(plane)
		if cols.IsEmpty() {
			continue
		}
		if plane <= int(rows.End) {
			t.out[1+plane] = Merge(t.out[1+plane], cols)
		}
		if plane-1 >= int(rows.Start) {
			t.out[plane] = Merge(t.out[plane], cols)
		}
	}
}
