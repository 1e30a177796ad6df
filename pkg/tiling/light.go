// Package tiling bins punctual lights and reflection probes into screen tiles
// for Forward+ shading.
//
// Each visible light or probe is one work unit. A unit writes its row range
// and, per tile row, the range of tile columns its influence volume may touch.
// Results are conservative: a covered tile can be spurious, a touched tile is
// never missed. Units write disjoint slices of a shared Buffer so a Job can be
// dispatched on any Scheduler without locks.
package tiling

import (
	"math"

	"github.com/taigrr/tilecull/pkg/geom"
	"github.com/taigrr/tilecull/pkg/math3d"
)

// LightType distinguishes the supported punctual light shapes.
type LightType int

const (
	Directional LightType = iota
	Point
	Spot
)

func (t LightType) String() string {
	switch t {
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	default:
		return "unknown"
	}
}

// Light describes a punctual light in world space.
type Light struct {
	Type      LightType
	Position  math3d.Vec3
	Direction math3d.Vec3 // spot forward axis
	Range     float64
	SpotAngle float64 // full cone angle in degrees
}

// Probe is an oriented box influence volume. Axes hold the three half-extent
// vectors, so the box rotation is baked in.
type Probe struct {
	Center math3d.Vec3
	Axes   [3]math3d.Vec3
}

// NewBoxProbe returns an axis-aligned probe with the given half extents.
func NewBoxProbe(center, extents math3d.Vec3) Probe {
	return Probe{
		Center: center,
		Axes: [3]math3d.Vec3{
			math3d.V3(extents.X, 0, 0),
			math3d.V3(0, extents.Y, 0),
			math3d.V3(0, 0, extents.Z),
		},
	}
}

// NewOrientedProbe returns a probe whose box is rotated by rotation.
func NewOrientedProbe(center, extents math3d.Vec3, rotation math3d.Quat) Probe {
	r := math3d.FromQuat(rotation)
	return Probe{
		Center: center,
		Axes: [3]math3d.Vec3{
			r.Col(0).Scale(extents.X),
			r.Col(1).Scale(extents.Y),
			r.Col(2).Scale(extents.Z),
		},
	}
}

// Corners returns the eight box corners. Bit k of a corner's index selects
// the sign of axis k.
func (p Probe) Corners() [8]math3d.Vec3 {
	var out [8]math3d.Vec3
	for i := range out {
		c := p.Center
		for k := range 3 {
			if i&(1<<k) != 0 {
				c = c.Add(p.Axes[k])
			} else {
				c = c.Sub(p.Axes[k])
			}
		}
		out[i] = c
	}
	return out
}

// BoundingRadius returns the radius of the sphere enclosing the box.
func (p Probe) BoundingRadius() float64 {
	return p.Axes[0].Add(p.Axes[1]).Add(p.Axes[2]).Len()
}

const (
	maxSpotHalfAngle = 89.5 * math.Pi / 180
	minConeHeight    = 1e-6
)

// spotCone is a spot light in view space with depth along +Z.
type spotCone struct {
	apex     math3d.Vec3
	dir      math3d.Vec3
	u, v     math3d.Vec3
	cosAngle float64
	tanAngle float64
	height   float64
	radius   float64 // rim radius
	base     math3d.Vec3
}

func newSpotCone(apex, dir math3d.Vec3, rng, spotAngle float64) *spotCone {
	half := math.Min(spotAngle*math.Pi/360, maxSpotHalfAngle)
	half = math.Max(half, 0)
	s, c := math.Sincos(half)
	h := math.Max(rng*c, minConeHeight)
	u, v := geom.OrthonormalBasis(dir)
	return &spotCone{
		apex:     apex,
		dir:      dir,
		u:        u,
		v:        v,
		cosAngle: c,
		tanAngle: rng * s / h,
		height:   h,
		radius:   rng * s,
		base:     apex.Add(dir.Scale(h)),
	}
}

const validityEps = 1e-9

// insideAngle reports whether p lies within the cone half angle.
func (c *spotCone) insideAngle(p math3d.Vec3) bool {
	return p.Sub(c.apex).Normalize().Dot(c.dir) >= c.cosAngle-validityEps
}

// onForwardNappe reports whether the cone surface point p lies between the
// apex and the rim plane.
func (c *spotCone) onForwardNappe(p math3d.Vec3) bool {
	s := p.Sub(c.apex).Dot(c.dir)
	return s >= -validityEps && s <= c.height+validityEps
}

// clippedBy reports whether the plane z = near cuts the cone between apex and rim.
func (c *spotCone) clippedBy(near float64) bool {
	ext := c.radius * math.Sqrt(math.Max(0, 1-c.dir.Z*c.dir.Z))
	lo := math.Min(c.apex.Z, c.base.Z-ext)
	hi := math.Max(c.apex.Z, c.base.Z+ext)
	return near > lo && near < hi
}
