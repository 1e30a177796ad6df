package geom

import "github.com/taigrr/tilecull/pkg/math3d"

// ConvexHull returns the convex hull of points in counter-clockwise order
// using gift wrapping. Collinear candidates resolve to the farther point, so
// the result holds no interior edge points. The input is not modified.
func ConvexHull(points []math3d.Vec2) []math3d.Vec2 {
	n := len(points)
	if n < 3 {
		return append([]math3d.Vec2(nil), points...)
	}

	start := 0
	for i, p := range points {
		s := points[start]
		if p.X < s.X || (p.X == s.X && p.Y < s.Y) {
			start = i
		}
	}

	hull := make([]math3d.Vec2, 0, n)
	current := start
	for range n {
		hull = append(hull, points[current])

		next := (current + 1) % n
		for i := range n {
			if i == current {
				continue
			}
			a := points[next].Sub(points[current])
			b := points[i].Sub(points[current])
			cross := a.Cross(b)
			if cross < 0 || (cross == 0 && b.LenSq() > a.LenSq()) {
				next = i
			}
		}

		if points[next] == points[start] || points[next] == points[current] {
			break
		}
		current = next
	}
	return hull
}
