package tiling

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/taigrr/tilecull/pkg/geom"
	"github.com/taigrr/tilecull/pkg/math3d"
)

// at converts a point given with depth along +Z into world space for an
// identity view, which looks down -Z.
func at(x, y, depth float64) math3d.Vec3 {
	return math3d.V3(x, y, -depth)
}

func perspectiveGrid(t testing.TB, tiles int) *Grid {
	t.Helper()
	g, err := NewGrid(GridConfig{
		ScreenWidth:  tiles * 16,
		ScreenHeight: tiles * 16,
		TileSize:     16,
		Near:         0.1,
		Views:        []View{unitView()},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func orthographicGrid(t testing.TB, tiles int) *Grid {
	t.Helper()
	g, err := NewGrid(GridConfig{
		ScreenWidth:  tiles * 16,
		ScreenHeight: tiles * 16,
		TileSize:     16,
		Near:         0.1,
		Orthographic: true,
		Views:        []View{NewView(math3d.Identity(), math3d.V2(-8, -8), math3d.V2(8, 8))},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func runJob(t testing.TB, g *Grid, lights []Light, probes []Probe) *Buffer {
	t.Helper()
	job, err := NewJob(g, lights, probes)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return job.Buffer()
}

// wantRows describes an expected item: the row range and the column range of
// every row inside it. Rows outside must be empty.
type wantRows struct {
	rows InclusiveRange
	cols map[int]InclusiveRange
}

func checkItem(t *testing.T, g *Grid, b *Buffer, item int, want wantRows) {
	t.Helper()
	if got := b.RowRange(item); got != want.rows {
		t.Fatalf("rows = %v, want %v", got, want.rows)
	}
	for row := range g.TileCountY {
		wantCols, ok := want.cols[row]
		if !ok {
			wantCols = EmptyRange
		}
		if got := b.ColumnRange(item, row); got != wantCols {
			t.Errorf("row %d columns = %v, want %v", row, got, wantCols)
		}
	}
}

func checkStructure(t *testing.T, g *Grid, b *Buffer, item int) {
	t.Helper()
	rows := b.RowRange(item)
	if !rows.IsEmpty() && (rows.Start < 0 || int(rows.End) >= g.TileCountY) {
		t.Fatalf("rows %v outside grid", rows)
	}
	for row := range g.TileCountY {
		cols := b.ColumnRange(item, row)
		if cols.IsEmpty() {
			continue
		}
		if !rows.Contains(int16(row)) {
			t.Fatalf("row %d has columns %v outside row range %v", row, cols, rows)
		}
		if cols.Start < 0 || int(cols.End) >= g.TileCountX {
			t.Fatalf("row %d columns %v outside grid", row, cols)
		}
	}
}

// checkCovered fails when a view-space point inside the volume lands on
// screen in a tile the item does not cover.
func checkCovered(t *testing.T, g *Grid, b *Buffer, item int, p math3d.Vec3) {
	t.Helper()
	if p.Z < g.Near {
		return
	}
	ts := g.ViewToTileSpace(&g.Views[0], p)
	if ts.X < 0 || ts.Y < 0 || ts.X >= float64(g.TileCountX) || ts.Y >= float64(g.TileCountY) {
		return
	}
	row, col := int16(ts.Y), int16(ts.X)
	if !b.RowRange(item).Contains(row) {
		t.Fatalf("item %d: point %v in row %d outside rows %v", item, p, row, b.RowRange(item))
	}
	if cols := b.ColumnRange(item, int(row)); !cols.Contains(col) {
		t.Fatalf("item %d: point %v in tile (%d, %d) outside columns %v", item, p, col, row, cols)
	}
}

func TestPointLightScenarios(t *testing.T) {
	g := perspectiveGrid(t, 4)
	full := wantRows{rows: NewRange(0, 3), cols: map[int]InclusiveRange{
		0: NewRange(0, 3), 1: NewRange(0, 3), 2: NewRange(0, 3), 3: NewRange(0, 3),
	}}

	tests := []struct {
		name  string
		light Light
		want  wantRows
	}{
		{
			"centered",
			Light{Type: Point, Position: at(0, 0, 5), Range: 2},
			wantRows{rows: NewRange(1, 2), cols: map[int]InclusiveRange{1: NewRange(1, 2), 2: NewRange(1, 2)}},
		},
		{
			"camera inside",
			Light{Type: Point, Position: at(0, 0, 0), Range: 100},
			full,
		},
		{
			"tiny",
			Light{Type: Point, Position: at(0.1, 0.1, 5), Range: 0.01},
			wantRows{rows: NewRange(2, 2), cols: map[int]InclusiveRange{2: NewRange(2, 2)}},
		},
		{
			"behind near plane",
			Light{Type: Point, Position: at(0, 0, -5), Range: 2},
			wantRows{rows: EmptyRange},
		},
		{
			"directional",
			Light{Type: Directional, Direction: math3d.V3(0, -1, 0), Range: 10},
			wantRows{rows: EmptyRange},
		},
		{
			"narrow spot",
			Light{Type: Spot, Position: at(0, 0, 1), Direction: math3d.V3(0, 0, -1), Range: 10, SpotAngle: 20},
			wantRows{rows: NewRange(1, 2), cols: map[int]InclusiveRange{1: NewRange(1, 2), 2: NewRange(1, 2)}},
		},
		{
			"spot behind near plane",
			Light{Type: Spot, Position: at(0, 0, 0.05), Direction: math3d.V3(0, 0, 1), Range: 0.5, SpotAngle: 40},
			wantRows{rows: EmptyRange},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := runJob(t, g, []Light{tc.light}, nil)
			checkItem(t, g, b, 0, tc.want)
		})
	}
}

func TestOrthographicPointLight(t *testing.T) {
	g := orthographicGrid(t, 4)
	b := runJob(t, g, []Light{{Type: Point, Position: at(0, 0, 5), Range: 2}}, nil)
	checkItem(t, g, b, 0, wantRows{rows: NewRange(1, 2), cols: map[int]InclusiveRange{1: NewRange(1, 2), 2: NewRange(1, 2)}})

	b = runJob(t, g, []Light{{Type: Point, Position: at(5, -5, 5), Range: 0.9}}, nil)
	checkItem(t, g, b, 0, wantRows{rows: NewRange(0, 0), cols: map[int]InclusiveRange{0: NewRange(3, 3)}})
}

func TestPerspectiveApproachesOrthographic(t *testing.T) {
	const depth = 1000
	persp, err := NewGrid(GridConfig{
		ScreenWidth:  128,
		ScreenHeight: 128,
		TileSize:     16,
		Near:         0.1,
		Views:        []View{NewView(math3d.Identity(), math3d.V2(-0.01, -0.01), math3d.V2(0.01, 0.01))},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	ortho, err := NewGrid(GridConfig{
		ScreenWidth:  128,
		ScreenHeight: 128,
		TileSize:     16,
		Near:         0.1,
		Orthographic: true,
		Views:        []View{NewView(math3d.Identity(), math3d.V2(-10, -10), math3d.V2(10, 10))},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	r := rand.New(rand.NewPCG(5, 5))
	lights := make([]Light, 60)
	for i := range lights {
		lights[i] = Light{Type: Point, Position: at(r.Float64()*16-8, r.Float64()*16-8, depth), Range: 0.5 + r.Float64()*2.5}
	}
	pb := runJob(t, persp, lights, nil)
	ob := runJob(t, ortho, lights, nil)

	near := func(a, b int16) bool { return a-b <= 1 && b-a <= 1 }
	for i := range lights {
		pr, or := pb.RowRange(i), ob.RowRange(i)
		if pr.IsEmpty() || or.IsEmpty() {
			t.Fatalf("light %d: rows %v / %v, want both covered", i, pr, or)
		}
		if !near(pr.Start, or.Start) || !near(pr.End, or.End) {
			t.Errorf("light %d: perspective rows %v, orthographic rows %v", i, pr, or)
		}
		for row := max(pr.Start, or.Start); row <= min(pr.End, or.End); row++ {
			pc, oc := pb.ColumnRange(i, int(row)), ob.ColumnRange(i, int(row))
			if pc.IsEmpty() || oc.IsEmpty() {
				t.Errorf("light %d row %d: columns %v / %v", i, row, pc, oc)
				continue
			}
			if !near(pc.Start, oc.Start) || !near(pc.End, oc.End) {
				t.Errorf("light %d row %d: perspective columns %v, orthographic columns %v", i, row, pc, oc)
			}
		}
	}
}

type sampledLight struct {
	light  Light
	center math3d.Vec3 // view space, depth along +Z
	dir    math3d.Vec3
	cosMax float64 // samples must satisfy dot(dir, p-center) >= cosMax
}

func randomUnit(r *rand.Rand) math3d.Vec3 {
	for {
		v := math3d.V3(r.Float64()*2-1, r.Float64()*2-1, r.Float64()*2-1)
		if l := v.LenSq(); l > 1e-4 && l <= 1 {
			return v.Normalize()
		}
	}
}

func randomLights(r *rand.Rand, n int) []sampledLight {
	out := make([]sampledLight, n)
	for i := range out {
		c := math3d.V3(r.Float64()*16-8, r.Float64()*16-8, r.Float64()*18-4)
		rng := 0.3 + r.Float64()*5.7
		s := sampledLight{center: c, cosMax: -1}
		s.light = Light{Type: Point, Position: at(c.X, c.Y, c.Z), Range: rng}
		if r.IntN(2) == 0 {
			dir := randomUnit(r)
			angle := 5 + r.Float64()*165
			s.light.Type = Spot
			s.light.Direction = dir.FlipZ()
			s.light.SpotAngle = angle
			s.dir = dir
			s.cosMax = math.Cos(angle * math.Pi / 360 * 0.995)
		}
		out[i] = s
	}
	return out
}

func (s sampledLight) sample(r *rand.Rand) math3d.Vec3 {
	for {
		d := math3d.V3(r.Float64()*2-1, r.Float64()*2-1, r.Float64()*2-1)
		if d.LenSq() > 1 || d.LenSq() < 1e-12 {
			continue
		}
		if s.light.Type == Spot && d.Normalize().Dot(s.dir) < s.cosMax {
			continue
		}
		return s.center.Add(d.Scale(s.light.Range * 0.999))
	}
}

func testLightsConservative(t *testing.T, g *Grid, seed uint64) {
	r := rand.New(rand.NewPCG(seed, 7))
	sampled := randomLights(r, 150)
	lights := make([]Light, len(sampled))
	for i, s := range sampled {
		lights[i] = s.light
	}
	b := runJob(t, g, lights, nil)

	for i, s := range sampled {
		checkStructure(t, g, b, i)
		for range 2000 {
			checkCovered(t, g, b, i, s.sample(r))
		}
	}
}

func TestLightsConservativePerspective(t *testing.T) {
	testLightsConservative(t, perspectiveGrid(t, 8), 1)
}

func TestLightsConservativeOrthographic(t *testing.T) {
	testLightsConservative(t, orthographicGrid(t, 8), 2)
}

func TestSpotLightsStraddlingNearPlane(t *testing.T) {
	g := perspectiveGrid(t, 8)
	r := rand.New(rand.NewPCG(3, 9))

	var sampled []sampledLight
	for range 100 {
		c := math3d.V3(r.Float64()*2-1, r.Float64()*2-1, r.Float64()*1.5-1)
		dir := randomUnit(r)
		if dir.Z < 0 {
			dir = dir.FlipZ()
		}
		angle := 10 + r.Float64()*150
		sampled = append(sampled, sampledLight{
			light:  Light{Type: Spot, Position: at(c.X, c.Y, c.Z), Direction: dir.FlipZ(), Range: 1 + r.Float64()*8, SpotAngle: angle},
			center: c,
			dir:    dir,
			cosMax: math.Cos(angle * math.Pi / 360 * 0.995),
		})
	}
	lights := make([]Light, len(sampled))
	for i, s := range sampled {
		lights[i] = s.light
	}
	b := runJob(t, g, lights, nil)

	for i, s := range sampled {
		checkStructure(t, g, b, i)
		for range 3000 {
			checkCovered(t, g, b, i, s.sample(r))
		}
	}
}

func TestWideSpotLightsCoverRim(t *testing.T) {
	g := perspectiveGrid(t, 64)
	r := rand.New(rand.NewPCG(6, 6))

	lights := make([]Light, 300)
	dirs := make([]math3d.Vec3, len(lights))
	centers := make([]math3d.Vec3, len(lights))
	for i := range lights {
		centers[i] = math3d.V3(r.Float64()*8-4, r.Float64()*8-4, r.Float64()*10-2)
		dirs[i] = randomUnit(r)
		lights[i] = Light{
			Type:      Spot,
			Position:  at(centers[i].X, centers[i].Y, centers[i].Z),
			Direction: dirs[i].FlipZ(),
			Range:     0.5 + r.Float64()*5,
			SpotAngle: 180,
		}
	}
	b := runJob(t, g, lights, nil)

	for i, l := range lights {
		checkStructure(t, g, b, i)
		u, v := geom.OrthonormalBasis(dirs[i])
		for range 400 {
			theta := (89.6 + r.Float64()*0.4) * math.Pi / 180
			phi := r.Float64() * 2 * math.Pi
			side := u.Scale(math.Cos(phi)).Add(v.Scale(math.Sin(phi)))
			d := dirs[i].Scale(math.Cos(theta)).Add(side.Scale(math.Sin(theta)))
			p := centers[i].Add(d.Scale(l.Range * (0.05 + r.Float64()*0.949)))
			checkCovered(t, g, b, i, p)
		}
	}
}

func BenchmarkTileLights(b *testing.B) {
	g := perspectiveGrid(b, 80)
	r := rand.New(rand.NewPCG(1, 1))
	sampled := randomLights(r, 256)
	lights := make([]Light, len(sampled))
	for i, s := range sampled {
		lights[i] = s.light
	}
	job, err := NewJob(g, lights, nil)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	for b.Loop() {
		_ = job.Run(ctx)
	}
}
