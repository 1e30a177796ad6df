package render

import (
	"math"
	"testing"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/tiling"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", plane.Normal.Len())
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	// D should be scaled too (10/5 = 2)
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func testFrustum() Frustum {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 1.0, 100.0)
	return NewFrustumFromMatrix(proj.Mul(math3d.Identity()))
}

func TestFrustumFromPerspective(t *testing.T) {
	frustum := testFrustum()
	for i, plane := range frustum.Planes {
		if math.Abs(plane.Normal.Len()-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, plane.Normal.Len())
		}
	}
	near := frustum.Planes[FrustumNear]
	if math.Abs(near.Normal.Z+1) > 1e-9 || math.Abs(near.D+1) > 1e-9 {
		t.Errorf("near plane = %+v, want normal (0, 0, -1), D -1", near)
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	frustum := testFrustum()

	tests := []struct {
		name     string
		center   math3d.Vec3
		radius   float64
		expected bool
	}{
		{"inside", math3d.V3(0, 0, -10), 1.0, true},
		{"partially visible", math3d.V3(0, 0, -0.5), 1.0, true},
		{"behind", math3d.V3(0, 0, 5), 1.0, false},
		{"far to the left", math3d.V3(-100, 0, -10), 2.0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectsSphere(tc.center, tc.radius); got != tc.expected {
				t.Errorf("IntersectsSphere(%v, %v) = %v, want %v", tc.center, tc.radius, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectsOrientedBox(t *testing.T) {
	frustum := testFrustum()
	tilted := math3d.QuatAxisAngle(math3d.V3(0, 1, 0), math.Pi/2)

	tests := []struct {
		name     string
		probe    tiling.Probe
		expected bool
	}{
		{"fully inside", tiling.NewBoxProbe(math3d.V3(0, 0, -8), math3d.V3(1, 1, 2)), true},
		{"crossing near plane", tiling.NewBoxProbe(math3d.V3(0, 0, 0), math3d.V3(1, 1, 2)), true},
		{"behind camera", tiling.NewBoxProbe(math3d.V3(0, 0, 8), math3d.V3(1, 1, 2)), false},
		{"beyond far plane", tiling.NewBoxProbe(math3d.V3(0, 0, -140), math3d.V3(1, 1, 10)), false},
		{"rotated into view", tiling.NewOrientedProbe(math3d.V3(0, 0, 2.5), math3d.V3(4, 1, 0.1), tilted), true},
		{"rotated, still behind", tiling.NewOrientedProbe(math3d.V3(0, 0, 6), math3d.V3(4, 1, 0.1), tilted), false},
		{"large box containing frustum", tiling.NewBoxProbe(math3d.Vec3{}, math3d.V3(200, 200, 200)), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectsOrientedBox(tc.probe); got != tc.expected {
				t.Errorf("IntersectsOrientedBox = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestCullLights(t *testing.T) {
	frustum := testFrustum()
	lights := []tiling.Light{
		{Type: tiling.Point, Position: math3d.V3(0, 0, -10), Range: 1},
		{Type: tiling.Directional, Direction: math3d.V3(0, -1, 0)},
		{Type: tiling.Point, Position: math3d.V3(0, 0, 20), Range: 1},
		{Type: tiling.Spot, Position: math3d.V3(0, 0, 1.5), Direction: math3d.V3(0, 0, -1), Range: 3, SpotAngle: 30},
		{Type: tiling.Point, Position: math3d.V3(0, 0, -10)},
	}

	visible, indices := CullLights(lights, frustum)
	if len(visible) != 2 || len(indices) != 2 {
		t.Fatalf("got %d visible lights %v, want 2", len(visible), indices)
	}
	if indices[0] != 0 || indices[1] != 3 {
		t.Errorf("indices = %v, want [0 3]", indices)
	}
	if visible[1].Type != tiling.Spot {
		t.Errorf("visible[1] = %+v, want the spot light", visible[1])
	}

	if v, _ := CullLights(lights); len(v) != 0 {
		t.Errorf("no frustums kept %d lights", len(v))
	}
}

func TestCullProbes(t *testing.T) {
	probes := []tiling.Probe{
		tiling.NewBoxProbe(math3d.V3(0, 0, 8), math3d.V3(1, 1, 1)),
		tiling.NewBoxProbe(math3d.V3(0, 0, -8), math3d.V3(1, 1, 1)),
	}
	cam := NewCamera()
	cam.SetPosition(math3d.Vec3{})
	cam.SetRotation(0, math.Pi, 0) // looking down +Z

	visible, indices := CullProbes(probes, cam.Frustum())
	if len(visible) != 1 || indices[0] != 0 {
		t.Fatalf("indices = %v, want [0]", indices)
	}
}

func TestFrustumWithRotatedCamera(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 1.0, 1.0, 100.0)
	view := math3d.LookAt(math3d.V3(0, 0, 0), math3d.V3(10, 0, 0), math3d.V3(0, 1, 0))
	frustum := NewFrustumFromMatrix(proj.Mul(view))

	if !frustum.ContainsPoint(math3d.V3(10, 0, 0)) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(math3d.V3(-10, 0, 0)) {
		t.Error("point behind rotated camera should not be visible")
	}
}

func BenchmarkFrustumIntersectsSphere(b *testing.B) {
	frustum := testFrustum()
	center := math3d.V3(0, 0, -10)
	radius := 2.0

	for b.Loop() {
		_ = frustum.IntersectsSphere(center, radius)
	}
}

func BenchmarkFrustumIntersectsOrientedBox(b *testing.B) {
	frustum := testFrustum()
	probe := tiling.NewOrientedProbe(math3d.V3(0, 0, -10), math3d.V3(1, 2, 3), math3d.QuatAxisAngle(math3d.V3(1, 1, 0), 0.7))

	for b.Loop() {
		_ = frustum.IntersectsOrientedBox(probe)
	}
}

func BenchmarkFrustumExtraction(b *testing.B) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000.0)
	view := math3d.LookAt(math3d.V3(0, 10, 20), math3d.V3(0, 0, 0), math3d.V3(0, 1, 0))
	viewProj := proj.Mul(view)

	for b.Loop() {
		_ = NewFrustumFromMatrix(viewProj)
	}
}
