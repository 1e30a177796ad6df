// Package render prepares camera data for light tiling and visualizes the
// resulting tile coverage.
package render

import (
	"math"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/tiling"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents the 6 planes of a view frustum.
// Planes are ordered: Left, Right, Bottom, Top, Near, Far.
// Each plane's normal points inward (toward the center of the frustum).
type Frustum struct {
	Planes [6]Plane
}

// FrustumPlane indices for clarity.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// Uses the Gribb/Hartmann method for extracting planes from the combined matrix.
// The resulting planes have normals pointing inward.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	var f Frustum

	// For column-major matrix m, row i element j is at m[i + j*4].
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	n3, d3 := row(3)
	for i := range 3 {
		n, d := row(i)
		f.Planes[2*i] = Plane{Normal: n3.Add(n), D: d3 + d}
		f.Planes[2*i+1] = Plane{Normal: n3.Sub(n), D: d3 - d}
	}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}

	return f
}

// Frustum returns the current view frustum of the camera.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// StereoFrustums returns the left and right eye frustums for the given eye
// separation.
func (c *Camera) StereoFrustums(separation float64) []Frustum {
	proj := c.ProjectionMatrix()
	left, right := c.StereoViewMatrices(separation)
	return []Frustum{
		NewFrustumFromMatrix(proj.Mul(left)),
		NewFrustumFromMatrix(proj.Mul(right)),
	}
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere tests if a sphere intersects the frustum.
// center is the sphere center, radius is the sphere radius.
func (f Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// IntersectsOrientedBox tests if a probe box intersects the frustum. Like the
// sphere test it may accept boxes near frustum corners that are outside.
func (f Frustum) IntersectsOrientedBox(p tiling.Probe) bool {
	for i := range f.Planes {
		plane := f.Planes[i]
		// Projected half extent of the box onto the plane normal.
		r := math.Abs(plane.Normal.Dot(p.Axes[0])) +
			math.Abs(plane.Normal.Dot(p.Axes[1])) +
			math.Abs(plane.Normal.Dot(p.Axes[2]))
		if plane.DistanceToPoint(p.Center) < -r {
			return false
		}
	}
	return true
}

// intersectsAny reports whether test accepts any of the frustums.
func intersectsAny(frustums []Frustum, test func(Frustum) bool) bool {
	for _, f := range frustums {
		if test(f) {
			return true
		}
	}
	return false
}

// CullLights returns the lights whose range sphere touches any of the
// frustums, with their indices into lights. Directional lights are dropped:
// they affect every tile and are shaded outside the tiled path.
func CullLights(lights []tiling.Light, frustums ...Frustum) (visible []tiling.Light, indices []int) {
	for i, l := range lights {
		if l.Type == tiling.Directional || !(l.Range > 0) {
			continue
		}
		if !intersectsAny(frustums, func(f Frustum) bool { return f.IntersectsSphere(l.Position, l.Range) }) {
			continue
		}
		visible = append(visible, l)
		indices = append(indices, i)
	}
	return visible, indices
}

// CullProbes returns the probes whose box touches any of the frustums, with
// their indices into probes.
func CullProbes(probes []tiling.Probe, frustums ...Frustum) (visible []tiling.Probe, indices []int) {
	for i, p := range probes {
		if !intersectsAny(frustums, func(f Frustum) bool { return f.IntersectsOrientedBox(p) }) {
			continue
		}
		visible = append(visible, p)
		indices = append(indices, i)
	}
	return visible, indices
}
