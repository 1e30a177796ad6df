// tilecull - Forward+ light tiling inspector
// Bins the punctual lights and reflection probes of a glTF scene into screen
// tiles and reports or visualizes the per-tile coverage.
//
// Without a scene file a seeded random scene is generated.
//
// Watch mode controls:
//
//	W/S/A/D     - Orbit pitch and yaw
//	+/-         - Zoom
//	O           - Toggle orthographic projection
//	Space       - Random spin
//	R           - Reset view
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/render"
	"github.com/taigrr/tilecull/pkg/scene"
	"github.com/taigrr/tilecull/pkg/tiling"
)

var (
	width      = flag.Int("width", 1920, "Render target width in pixels")
	height     = flag.Int("height", 1080, "Render target height in pixels")
	tileSize   = flag.Int("tile", 16, "Tile size in pixels")
	fovDeg     = flag.Float64("fov", 60, "Vertical field of view in degrees")
	nearPlane  = flag.Float64("near", 0.1, "Near plane distance")
	farPlane   = flag.Float64("far", 1000, "Far plane distance")
	ortho      = flag.Bool("ortho", false, "Use an orthographic projection")
	orthoSize  = flag.Float64("ortho-size", 10, "Orthographic half height in world units")
	stereo     = flag.Bool("stereo", false, "Tile a left and a right eye view")
	eyeSep     = flag.Float64("eye-sep", 0.064, "Stereo eye separation in world units")
	workers    = flag.Int("workers", runtime.NumCPU(), "Worker count for parallel schedulers")
	schedName  = flag.String("scheduler", "pool", "Work scheduler: seq, group or pool")
	pngPath    = flag.String("png", "", "Write the coverage heatmap of the first view to this PNG file")
	watch      = flag.Bool("watch", false, "Interactive orbit view in the terminal")
	targetFPS  = flag.Int("fps", 30, "Target FPS in watch mode")
	randLights = flag.Int("lights", 256, "Random lights when no scene is given")
	randProbes = flag.Int("probes", 16, "Random probes when no scene is given")
	seed       = flag.Uint64("seed", 1, "Random scene seed")
	defRange   = flag.Float64("default-range", 10, "Range for scene lights without one")
	verbose    = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tilecull - Forward+ light tiling inspector\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tilecull [options] [scene.gltf|scene.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nWatch mode controls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  +/-         - Zoom\n")
		fmt.Fprintf(os.Stderr, "  O           - Toggle orthographic\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tiling.SetLogger(logger)

	if err := run(logger, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newScheduler(name string, n int) (tiling.Scheduler, error) {
	switch name {
	case "seq":
		return tiling.Sequential{}, nil
	case "group":
		return tiling.GroupScheduler{Limit: n}, nil
	case "pool":
		return tiling.NewPoolScheduler(n), nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q (use seq, group or pool)", name)
	}
}

func loadScene(path string) (*scene.Scene, error) {
	if path == "" {
		return randomScene(*seed, *randLights, *randProbes), nil
	}
	loader := scene.NewLoader()
	loader.DefaultRange = *defRange
	s, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	return s, nil
}

// frame is the per-view state rebuilt whenever the camera moves.
type frame struct {
	grid   *tiling.Grid
	job    *tiling.Job
	lights []tiling.Light
	probes []tiling.Probe
}

// tiler culls and bins a scene for a camera, reusing one output buffer.
type tiler struct {
	scene     *scene.Scene
	scheduler tiling.Scheduler
	buffer    *tiling.Buffer
}

func (t *tiler) tile(ctx context.Context, cam *render.Camera) (*frame, error) {
	grid, err := cam.TileGrid(*width, *height, *tileSize, *stereo, *eyeSep)
	if err != nil {
		return nil, fmt.Errorf("build tile grid: %w", err)
	}
	frustums := []render.Frustum{cam.Frustum()}
	if *stereo {
		frustums = cam.StereoFrustums(*eyeSep)
	}
	lights, _ := render.CullLights(t.scene.Lights, frustums...)
	probes, _ := render.CullProbes(t.scene.Probes, frustums...)

	job, err := tiling.NewJob(grid, lights, probes, tiling.WithScheduler(t.scheduler), tiling.WithBuffer(t.buffer))
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := job.Run(ctx); err != nil {
		return nil, fmt.Errorf("run job: %w", err)
	}
	return &frame{grid: grid, job: job, lights: lights, probes: probes}, nil
}

func (f *frame) heatmap(view int) *render.Heatmap {
	return render.NewHeatmap(f.grid, f.job.Buffer(), view, f.job.ItemsPerView())
}

// sceneBounds returns the center and radius of the light and probe positions.
func sceneBounds(s *scene.Scene) (math3d.Vec3, float64) {
	var points []math3d.Vec3
	for _, l := range s.Lights {
		if l.Type != tiling.Directional {
			points = append(points, l.Position)
		}
	}
	for _, p := range s.Probes {
		points = append(points, p.Center)
	}
	if len(points) == 0 {
		return math3d.Vec3{}, 1
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo, hi = lo.Min(p), hi.Max(p)
	}
	return lo.Lerp(hi, 0.5), math.Max(hi.Sub(lo).Len()/2, 1)
}

func newCamera(center math3d.Vec3, radius float64) *render.Camera {
	cam := render.NewCamera()
	cam.FOV = *fovDeg * math.Pi / 180
	cam.SetAspectRatio(float64(*width) / float64(*height))
	cam.SetClipPlanes(*nearPlane, *farPlane)
	cam.SetOrthographic(*ortho, *orthoSize)
	cam.SetPosition(center.Add(math3d.V3(0, radius*0.5, radius*2.5)))
	cam.LookAt(center)
	return cam
}

func run(logger *slog.Logger, scenePath string) error {
	s, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	sched, err := newScheduler(*schedName, *workers)
	if err != nil {
		return err
	}
	if c, ok := sched.(io.Closer); ok {
		defer c.Close()
	}
	logger.Info("scene loaded", "lights", len(s.Lights), "probes", len(s.Probes))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	t := &tiler{scene: s, scheduler: sched, buffer: &tiling.Buffer{}}
	center, radius := sceneBounds(s)

	if *watch {
		return runWatch(ctx, t, center, radius)
	}

	cam := newCamera(center, radius)
	start := time.Now()
	f, err := t.tile(ctx, cam)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("grid %dx%d tiles, %d view(s)\n", f.grid.TileCountX, f.grid.TileCountY, len(f.grid.Views))
	fmt.Printf("visible: %d/%d lights, %d/%d probes\n", len(f.lights), len(s.Lights), len(f.probes), len(s.Probes))
	for v := range f.grid.Views {
		h := f.heatmap(v)
		var total, covered int
		for _, c := range h.Counts {
			total += c
			if c > 0 {
				covered++
			}
		}
		fmt.Printf("view %d: %d/%d tiles covered, %.2f items per tile, max %d\n",
			v, covered, len(h.Counts), float64(total)/float64(len(h.Counts)), h.Max)
	}
	fmt.Printf("tiled %d units in %v (%s scheduler)\n", f.job.Len(), elapsed, *schedName)

	if *pngPath != "" {
		h := f.heatmap(0)
		fb := render.NewFramebuffer(f.grid.TileCountX*4, f.grid.TileCountY*4)
		h.Draw(fb)
		if err := fb.SavePNG(*pngPath); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
		logger.Info("heatmap written", "path", *pngPath)
	}
	return nil
}
