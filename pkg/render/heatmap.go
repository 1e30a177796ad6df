package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/tilecull/pkg/tiling"
)

// Heatmap holds, for one view, the number of items whose ranges cover each
// tile. Row 0 is the bottom tile row, as in the tiling buffer.
type Heatmap struct {
	Cols   int
	Rows   int
	Counts []int // row-major
	Max    int
}

// NewHeatmap counts the coverage of view from a buffer filled by a job with
// itemsPerView items per view.
func NewHeatmap(grid *tiling.Grid, buf *tiling.Buffer, view, itemsPerView int) *Heatmap {
	h := &Heatmap{
		Cols:   grid.TileCountX,
		Rows:   grid.TileCountY,
		Counts: make([]int, grid.TileCountX*grid.TileCountY),
	}
	for i := range itemsPerView {
		item := view*itemsPerView + i
		rows := buf.RowRange(item).Clamp(0, int16(h.Rows-1))
		for row := int(rows.Start); row <= int(rows.End); row++ {
			cols := buf.ColumnRange(item, row).Clamp(0, int16(h.Cols-1))
			for col := int(cols.Start); col <= int(cols.End); col++ {
				h.Counts[row*h.Cols+col]++
			}
		}
	}
	for _, c := range h.Counts {
		h.Max = max(h.Max, c)
	}
	return h
}

// At returns the count of a tile, or 0 outside the grid.
func (h *Heatmap) At(col, row int) int {
	if col < 0 || col >= h.Cols || row < 0 || row >= h.Rows {
		return 0
	}
	return h.Counts[row*h.Cols+col]
}

// Draw scales the heatmap over the whole framebuffer, top tile row first.
// Tile borders are drawn when tiles are at least four pixels wide.
func (h *Heatmap) Draw(fb *Framebuffer) {
	if h.Cols == 0 || h.Rows == 0 {
		return
	}
	borders := fb.Width >= 4*h.Cols && fb.Height >= 4*h.Rows
	for row := range h.Rows {
		y0 := (h.Rows - 1 - row) * fb.Height / h.Rows
		y1 := (h.Rows - row) * fb.Height / h.Rows
		for col := range h.Cols {
			x0 := col * fb.Width / h.Cols
			x1 := (col + 1) * fb.Width / h.Cols
			fb.DrawRect(x0, y0, x1-x0, y1-y0, HeatColor(h.At(col, row), h.Max))
			if borders {
				fb.DrawRect(x0, y0, x1-x0, 1, ColorGrid)
				fb.DrawRect(x0, y0, 1, y1-y0, ColorGrid)
			}
		}
	}
}

// Colors used by the heatmap.
var (
	ColorBackground = color.RGBA{16, 16, 24, 255}
	ColorGrid       = color.RGBA{40, 40, 52, 255}
	ColorMarker     = color.RGBA{255, 255, 255, 255}
)

// HeatColor maps a tile count to a cold to hot ramp. Empty tiles use
// ColorBackground.
func HeatColor(count, maxCount int) color.RGBA {
	if count <= 0 || maxCount <= 0 {
		return ColorBackground
	}
	t := min(float64(count)/float64(maxCount), 1)
	r, g, b := colorful.Hsv(240*(1-t), 0.85, 0.45+0.55*t).RGB255()
	return color.RGBA{r, g, b, 255}
}
