package render

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/tiling"
)

// Camera represents a 3D camera with position and orientation.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around Z axis (tilt)

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Orthographic switches to a parallel projection OrthoHalfHeight units
	// tall above and below the view axis.
	Orthographic    bool
	OrthoHalfHeight float64

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// NewCamera creates a new camera with default settings.
func NewCamera() *Camera {
	return &Camera{
		Position:        math3d.V3(0, 0, 10),
		FOV:             math.Pi / 3, // 60 degrees
		AspectRatio:     16.0 / 9.0,
		Near:            0.1,
		Far:             1000,
		OrthoHalfHeight: 10,
		viewDirty:       true,
		projDirty:       true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch = pitch
	c.Yaw = yaw
	c.Roll = roll
	c.viewDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// SetOrthographic switches between perspective and parallel projection.
func (c *Camera) SetOrthographic(ortho bool, halfHeight float64) {
	c.Orthographic = ortho
	c.OrthoHalfHeight = halfHeight
	c.projDirty = true
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	// Forward is -Z in camera space, rotated by yaw and pitch
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(
		math.Cos(c.Yaw),
		0,
		-math.Sin(c.Yaw),
	)
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
		c.viewProjDirty = true
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.computeProjectionMatrix()
		c.projDirty = false
		c.viewProjDirty = true
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	proj, view := c.ProjectionMatrix(), c.ViewMatrix()
	if c.viewProjDirty {
		c.viewProjMatrix = proj.Mul(view)
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

func (c *Camera) computeViewMatrix() {
	// View = Rotation * Translation(-position)
	rot := math3d.RotateZ(-c.Roll).Mul(
		math3d.RotateX(-c.Pitch)).Mul(
		math3d.RotateY(-c.Yaw))

	trans := math3d.Translate(c.Position.Negate())

	c.viewMatrix = rot.Mul(trans)
}

func (c *Camera) computeProjectionMatrix() {
	if c.Orthographic {
		h := c.OrthoHalfHeight
		w := h * c.AspectRatio
		c.projMatrix = math3d.Orthographic(-w, w, -h, h, c.Near, c.Far)
		return
	}
	c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

// LookAt makes the camera look at a target point.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0

	c.viewDirty = true
}

// ViewPlanes returns the view window of the projection: the bottom-left and
// top-right extents at unit depth, or in view units when orthographic.
func (c *Camera) ViewPlanes() (bottom, top math3d.Vec2) {
	return tiling.ViewPlanesFromProjection(c.ProjectionMatrix(), c.Orthographic)
}

// StereoViewMatrices returns the view matrices of two eyes separated by
// separation along the camera's right axis, left eye first.
func (c *Camera) StereoViewMatrices(separation float64) (left, right math3d.Mat4) {
	view := c.ViewMatrix()
	half := separation / 2
	left = math3d.Translate(math3d.V3(half, 0, 0)).Mul(view)
	right = math3d.Translate(math3d.V3(-half, 0, 0)).Mul(view)
	return left, right
}

// TileGrid builds the tile grid for a width x height target. With stereo set
// the grid carries a left and a right view eyeSeparation apart.
func (c *Camera) TileGrid(width, height, tileSize int, stereo bool, eyeSeparation float64) (*tiling.Grid, error) {
	bottom, top := c.ViewPlanes()
	views := []tiling.View{tiling.NewView(c.ViewMatrix(), bottom, top)}
	if stereo {
		left, right := c.StereoViewMatrices(eyeSeparation)
		views = []tiling.View{
			tiling.NewView(left, bottom, top),
			tiling.NewView(right, bottom, top),
		}
	}
	return tiling.NewGrid(tiling.GridConfig{
		ScreenWidth:  width,
		ScreenHeight: height,
		TileSize:     tileSize,
		Near:         c.Near,
		Orthographic: c.Orthographic,
		Views:        views,
	})
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	m := c.ViewProjectionMatrix()
	clip := m.MulPoint(worldPos)
	w := m[3]*worldPos.X + m[7]*worldPos.Y + m[11]*worldPos.Z + m[15]

	// Check if behind camera
	if w <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.Scale(1 / w)
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	return x, y, ndc.Z, true
}
