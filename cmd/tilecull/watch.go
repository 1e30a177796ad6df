package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/render"
)

// OrbitAxis tracks position and velocity for one orbit angle with spring decay
type OrbitAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewOrbitAxis creates an axis with harmonica spring for smooth velocity decay
func NewOrbitAxis(fps int) OrbitAxis {
	return OrbitAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring
func (a *OrbitAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Orbit is a camera circling a target, with pitch and yaw in radians.
type Orbit struct {
	Pitch, Yaw OrbitAxis
	Distance   float64
	fps        int
}

// NewOrbit creates an orbit at the given distance, reset to its start angles.
func NewOrbit(fps int, distance float64) *Orbit {
	o := &Orbit{Distance: distance, fps: fps}
	o.Reset()
	return o
}

// Reset stops the motion and returns to the start angles.
func (o *Orbit) Reset() {
	o.Pitch = NewOrbitAxis(o.fps)
	o.Yaw = NewOrbitAxis(o.fps)
	o.Pitch.Position = 0.2
}

// Update advances one frame and keeps the pitch short of the poles.
func (o *Orbit) Update() {
	o.Pitch.Update()
	o.Yaw.Update()
	const maxPitch = math.Pi/2 - 0.05
	o.Pitch.Position = math.Max(-maxPitch, math.Min(maxPitch, o.Pitch.Position))
}

// ApplyImpulse adds angular velocity in radians per frame.
func (o *Orbit) ApplyImpulse(pitch, yaw float64) {
	o.Pitch.Velocity += pitch
	o.Yaw.Velocity += yaw
}

// Eye returns the camera position for the current angles.
func (o *Orbit) Eye(target math3d.Vec3) math3d.Vec3 {
	sp, cp := math.Sincos(o.Pitch.Position)
	sy, cy := math.Sincos(o.Yaw.Position)
	return target.Add(math3d.V3(sy*cp, sp, cy*cp).Scale(o.Distance))
}

// offer sends v unless ch is full, so the event loop never blocks on a
// frame loop that has stopped reading.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// status draws a one-line summary on the last terminal row.
func status(row int, f *frame, h *render.Heatmap, elapsed time.Duration, orthographic bool) {
	const (
		reset     = "\x1b[0m"
		bgBlack   = "\x1b[40m"
		fgGreen   = "\x1b[92m"
		clearLine = "\x1b[2K"
	)
	proj := "persp"
	if orthographic {
		proj = "ortho"
	}
	fmt.Printf("\x1b[%d;1H%s%s%s %s | %d lights %d probes | max %d/tile | %v %s",
		row, clearLine, bgBlack, fgGreen, proj, len(f.lights), len(f.probes), h.Max,
		elapsed.Round(time.Microsecond), reset)
}

func runWatch(ctx context.Context, t *tiler, target math3d.Vec3, radius float64) error {
	term := uv.DefaultTerminal()

	termWidth, termHeight, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(termWidth, termHeight)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cam := newCamera(target, radius)
	orbit := NewOrbit(*targetFPS, cam.Position.Sub(target).Len())
	fb := render.NewFramebuffer(termWidth, (termHeight-1)*2)

	resized := make(chan [2]int, 1)
	type keyInput struct{ pitch, yaw, zoom float64 }
	input := make(chan keyInput, 16)
	toggleOrtho := make(chan struct{}, 1)
	reset := make(chan struct{}, 1)

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				offer(resized, [2]int{ev.Width, ev.Height})
			case uv.KeyPressEvent:
				const step = 0.02
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					cancel()
					return
				case ev.MatchString("w", "up"):
					offer(input, keyInput{pitch: step})
				case ev.MatchString("s", "down"):
					offer(input, keyInput{pitch: -step})
				case ev.MatchString("a", "left"):
					offer(input, keyInput{yaw: -step})
				case ev.MatchString("d", "right"):
					offer(input, keyInput{yaw: step})
				case ev.MatchString("+", "="):
					offer(input, keyInput{zoom: 0.9})
				case ev.MatchString("-", "_"):
					offer(input, keyInput{zoom: 1.1})
				case ev.MatchString("space"):
					offer(input, keyInput{pitch: (rand.Float64() - 0.5) * 0.2, yaw: (rand.Float64() - 0.5) * 0.4})
				case ev.MatchString("o"):
					offer(toggleOrtho, struct{}{})
				case ev.MatchString("r"):
					offer(reset, struct{}{})
				}
			}
		}
	}()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	targetDuration := time.Second / time.Duration(max(*targetFPS, 1))
	for {
		now := time.Now()
		select {
		case <-ctx.Done():
			return nil
		case size := <-resized:
			termWidth, termHeight = size[0], size[1]
			term.Erase()
			term.Resize(termWidth, termHeight)
			fb.Resize(termWidth, max(termHeight-1, 1)*2)
		case in := <-input:
			orbit.ApplyImpulse(in.pitch, in.yaw)
			if in.zoom != 0 {
				orbit.Distance = math.Max(1, math.Min(*farPlane/2, orbit.Distance*in.zoom))
			}
		case <-toggleOrtho:
			cam.SetOrthographic(!cam.Orthographic, orbit.Distance*0.5)
		case <-reset:
			orbit.Reset()
		default:
		}

		orbit.Update()
		cam.SetPosition(orbit.Eye(target))
		cam.LookAt(target)
		if cam.Orthographic {
			cam.SetOrthographic(true, orbit.Distance*0.5)
		}

		start := time.Now()
		f, err := t.tile(ctx, cam)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		elapsed := time.Since(start)

		h := f.heatmap(0)
		fb.Clear(render.ColorBackground)
		h.Draw(fb)
		for _, l := range f.lights {
			x, y, _, ok := cam.WorldToScreen(l.Position, fb.Width, fb.Height)
			if ok {
				fb.SetPixel(int(x), int(y), render.ColorMarker)
			}
		}

		fb.Draw(term, uv.Rect(0, 0, termWidth, termHeight-1))
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		status(termHeight, f, h, elapsed, cam.Orthographic)
		os.Stdout.Sync()

		if d := time.Since(now); d < targetDuration {
			time.Sleep(targetDuration - d)
		}
	}
}
