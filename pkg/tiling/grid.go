package tiling

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
)

// Setup errors reported by NewGrid, Validate and NewJob.
var (
	ErrTileCount     = errors.New("tiling: tile count out of range")
	ErrViewCount     = errors.New("tiling: view count must be 1 or 2")
	ErrNearPlane     = errors.New("tiling: perspective near plane must be positive")
	ErrTileScale     = errors.New("tiling: invalid tile scale")
	ErrRangesPerItem = errors.New("tiling: ranges per item too small")
)

// View holds the per-eye camera data needed to map view space to tile space.
type View struct {
	// WorldToView maps world space into a right-handed view space looking down -Z.
	WorldToView math3d.Mat4

	// PlaneBottom and PlaneTop are the bottom-left and top-right corners of
	// the view window: at depth 1 for a perspective projection, in view units
	// for an orthographic one.
	PlaneBottom math3d.Vec2
	PlaneTop    math3d.Vec2

	// ScaleBias maps the view window to [0, 1]: XY is the scale, ZW the bias.
	ScaleBias math3d.Vec4
}

// NewView builds a View and derives its viewport scale and bias.
func NewView(worldToView math3d.Mat4, bottom, top math3d.Vec2) View {
	sx := 1 / (top.X - bottom.X)
	sy := 1 / (top.Y - bottom.Y)
	return View{
		WorldToView: worldToView,
		PlaneBottom: bottom,
		PlaneTop:    top,
		ScaleBias:   math3d.V4(sx, sy, -bottom.X*sx, -bottom.Y*sy),
	}
}

// ViewPlanesFromProjection returns the view window of a projection matrix
// built by math3d.Perspective or math3d.Orthographic.
func ViewPlanesFromProjection(proj math3d.Mat4, orthographic bool) (bottom, top math3d.Vec2) {
	if orthographic {
		return math3d.V2((-1-proj[12])/proj[0], (-1-proj[13])/proj[5]),
			math3d.V2((1-proj[12])/proj[0], (1-proj[13])/proj[5])
	}
	return math3d.V2((-1+proj[8])/proj[0], (-1+proj[9])/proj[5]),
		math3d.V2((1+proj[8])/proj[0], (1+proj[9])/proj[5])
}

// GridConfig describes the screen partition and the views observing it.
type GridConfig struct {
	ScreenWidth  int
	ScreenHeight int
	TileSize     int
	Near         float64
	Orthographic bool
	Views        []View
}

// Grid is the tile partition of the screen shared by every work unit.
type Grid struct {
	TileCountX   int
	TileCountY   int
	TileScale    math3d.Vec2 // screen size measured in tiles
	TileScaleInv math3d.Vec2
	Near         float64
	Orthographic bool
	Views        []View
}

// NewGrid partitions a screen into TileSize square tiles. The last column and
// row may be partial.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if cfg.TileSize <= 0 || cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d screen, %d pixel tiles", ErrTileScale, cfg.ScreenWidth, cfg.ScreenHeight, cfg.TileSize)
	}
	scale := math3d.V2(float64(cfg.ScreenWidth)/float64(cfg.TileSize), float64(cfg.ScreenHeight)/float64(cfg.TileSize))
	g := &Grid{
		TileCountX:   int(math.Ceil(scale.X)),
		TileCountY:   int(math.Ceil(scale.Y)),
		TileScale:    scale,
		TileScaleInv: math3d.V2(1/scale.X, 1/scale.Y),
		Near:         cfg.Near,
		Orthographic: cfg.Orthographic,
		Views:        cfg.Views,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grid preconditions assumed by the tilers.
func (g *Grid) Validate() error {
	if g.TileCountX <= 0 || g.TileCountY <= 0 || g.TileCountX > math.MaxInt16 || g.TileCountY > math.MaxInt16 {
		return fmt.Errorf("%w: %dx%d", ErrTileCount, g.TileCountX, g.TileCountY)
	}
	if len(g.Views) < 1 || len(g.Views) > 2 {
		return fmt.Errorf("%w: got %d", ErrViewCount, len(g.Views))
	}
	if !g.Orthographic && !(g.Near > 0) {
		return fmt.Errorf("%w: got %v", ErrNearPlane, g.Near)
	}
	if !(g.TileScale.X > 0) || !(g.TileScale.Y > 0) {
		return fmt.Errorf("%w: %v", ErrTileScale, g.TileScale)
	}
	for i, v := range g.Views {
		if !(v.PlaneTop.X > v.PlaneBottom.X) || !(v.PlaneTop.Y > v.PlaneBottom.Y) {
			return fmt.Errorf("%w: view %d window %v..%v", ErrTileScale, i, v.PlaneBottom, v.PlaneTop)
		}
	}
	return nil
}

// MinRangesPerItem is the smallest per-item stride holding a row range and
// one column range per tile row.
func (g *Grid) MinRangesPerItem() int {
	return 1 + g.TileCountY
}

// ViewToTileSpace maps a view-space point (depth along +Z) to fractional tile
// coordinates.
func (g *Grid) ViewToTileSpace(v *View, p math3d.Vec3) math3d.Vec2 {
	xy := p.XY()
	if !g.Orthographic {
		xy = xy.Scale(1 / p.Z)
	}
	return xy.Mul(v.ScaleBias.XY()).Add(v.ScaleBias.ZW()).Mul(g.TileScale)
}

// PlaneY returns the view-space height of the horizontal tile boundary with
// the given index: a slope y/z for perspective, a height for orthographic.
func (g *Grid) PlaneY(v *View, planeIndex int) float64 {
	t := float64(planeIndex) * g.TileScaleInv.Y
	return v.PlaneBottom.Y + (v.PlaneTop.Y-v.PlaneBottom.Y)*t
}
