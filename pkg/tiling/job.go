package tiling

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Option configures a Job.
type Option func(*Job)

// WithScheduler selects how work units are dispatched. The default is Sequential.
func WithScheduler(s Scheduler) Option {
	return func(j *Job) { j.scheduler = s }
}

// WithRangesPerItem sets the per-item stride of the output buffer. It must be
// at least 1 + TileCountY; the default is exactly that.
func WithRangesPerItem(n int) Option {
	return func(j *Job) { j.rangesPerItem = n }
}

// WithBuffer makes the job write into an existing buffer, resizing it as needed.
func WithBuffer(b *Buffer) Option {
	return func(j *Job) { j.buffer = b }
}

// Job bins a set of lights and probes for every view of a grid.
//
// Work unit jobIndex covers view jobIndex / ItemsPerView and item
// jobIndex % ItemsPerView, where lights come before probes.
type Job struct {
	grid          *Grid
	lights        []Light
	probes        []Probe
	buffer        *Buffer
	scheduler     Scheduler
	rangesPerItem int
}

// NewJob validates the grid and allocates the output buffer.
func NewJob(grid *Grid, lights []Light, probes []Probe, opts ...Option) (*Job, error) {
	if err := grid.Validate(); err != nil {
		Logger().Warn("tiling: invalid grid", "err", err)
		return nil, err
	}
	j := &Job{
		grid:          grid,
		scheduler:     Sequential{},
		rangesPerItem: grid.MinRangesPerItem(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.rangesPerItem < grid.MinRangesPerItem() {
		err := fmt.Errorf("%w: %d < %d", ErrRangesPerItem, j.rangesPerItem, grid.MinRangesPerItem())
		Logger().Warn("tiling: invalid job", "err", err)
		return nil, err
	}
	if j.buffer == nil {
		j.buffer = &Buffer{}
	}
	j.buffer.RangesPerItem = j.rangesPerItem
	j.Reset(lights, probes)
	return j, nil
}

// Reset replaces the inputs for the next frame and clears the buffer.
// The slices are read during Run and must not change until it returns.
func (j *Job) Reset(lights []Light, probes []Probe) {
	j.lights = lights
	j.probes = probes
	j.buffer.Resize(j.Len())
}

// ItemsPerView returns the number of lights plus probes.
func (j *Job) ItemsPerView() int {
	return len(j.lights) + len(j.probes)
}

// Len returns the number of work units.
func (j *Job) Len() int {
	return len(j.grid.Views) * j.ItemsPerView()
}

// Buffer returns the output buffer.
func (j *Job) Buffer() *Buffer {
	return j.buffer
}

// Grid returns the tile grid.
func (j *Job) Grid() *Grid {
	return j.grid
}

// Execute runs a single work unit. It writes only the buffer entries owned by
// jobIndex, so distinct indices may run concurrently.
func (j *Job) Execute(jobIndex int) {
	per := j.ItemsPerView()
	viewIndex := jobIndex / per
	index := jobIndex % per

	out := j.buffer.Item(jobIndex)
	for i := range out {
		out[i] = EmptyRange
	}

	t := tiler{
		grid: j.grid,
		view: &j.grid.Views[viewIndex],
		out:  out,
	}
	if index < len(j.lights) {
		t.tileLight(&j.lights[index])
		return
	}
	t.tileProbe(&j.probes[index-len(j.lights)])
}

// Run executes every work unit on the configured scheduler.
func (j *Job) Run(ctx context.Context) error {
	n := j.Len()
	start := time.Now()
	err := j.scheduler.ParallelFor(ctx, n, j.Execute)
	if log := Logger(); log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("tiling: job finished",
			"units", n,
			"lights", len(j.lights),
			"probes", len(j.probes),
			"views", len(j.grid.Views),
			"elapsed", time.Since(start),
			"err", err,
		)
	}
	return err
}
