package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/scene"
	"github.com/taigrr/tilecull/pkg/tiling"
)

// randomScene scatters lights and probes over a 40x10x40 unit volume.
func randomScene(seed uint64, lights, probes int) *scene.Scene {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	point := func() math3d.Vec3 {
		return math3d.V3(r.Float64()*40-20, r.Float64()*10-5, r.Float64()*40-20)
	}
	dir := func() math3d.Vec3 {
		z := r.Float64()*2 - 1
		phi := r.Float64() * 2 * math.Pi
		s := math.Sqrt(1 - z*z)
		return math3d.V3(s*math.Cos(phi), s*math.Sin(phi), z)
	}

	s := &scene.Scene{}
	for i := range lights {
		l := tiling.Light{
			Type:     tiling.Point,
			Position: point(),
			Range:    0.5 + r.Float64()*4.5,
		}
		if r.IntN(3) == 0 {
			l.Type = tiling.Spot
			l.Direction = dir()
			l.SpotAngle = 10 + r.Float64()*110
			l.Range *= 2
		}
		s.Lights = append(s.Lights, l)
		s.LightNames = append(s.LightNames, fmt.Sprintf("%s %d", l.Type, i))
	}
	for i := range probes {
		axis := dir()
		rot := math3d.QuatAxisAngle(axis, r.Float64()*math.Pi)
		ext := math3d.V3(1+r.Float64()*3, 1+r.Float64()*2, 1+r.Float64()*3)
		s.Probes = append(s.Probes, tiling.NewOrientedProbe(point(), ext, rot))
		s.ProbeNames = append(s.ProbeNames, fmt.Sprintf("probe %d", i))
	}
	return s
}
