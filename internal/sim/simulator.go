package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/massflow/internal/advect"
	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/flow"
	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/metrics"
	"github.com/san-kum/massflow/internal/noise"
	"github.com/san-kum/massflow/internal/render"
)

// Runner drives a full render: flow generation, advection and frame output.
type Runner struct {
	cfg       *config.Config
	dims      grid.Dims
	seed      int64
	policy    FlowPolicy
	gen       *flow.Generator
	field     grid.Vector
	advect    *advect.Simulator
	sink      render.Sink
	observers []Observer
	drift     *metrics.MassDrift
	baseline  metrics.FrameStats
	logger    *slog.Logger
}

// New validates cfg and initial before allocating any grid. The sink is
// not closed by the runner. Mass drift is measured against initial.
func New(cfg *config.Config, initial grid.Scalar, sink render.Sink) (*Runner, error) {
	if err := cfg.ValidateParams(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil frame sink", grid.ErrParameterBounds)
	}
	d := cfg.Dims()
	if err := initial.Check("initial density", d); err != nil {
		return nil, err
	}

	rng, seed := NewRand(cfg.Seed)
	sim, err := advect.New(d, initial)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		dims:     d,
		seed:     seed,
		policy:   PolicyFor(cfg, rng),
		gen:      flow.NewGenerator(noise.New(cfg.NoiseSeed), d),
		field:    grid.NewVector(d),
		advect:   sim,
		sink:     sink,
		drift:    metrics.NewMassDrift(),
		baseline: metrics.Density(initial),
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.logger = l
}

// SetSampler replaces the noise source used for flow generation.
func (r *Runner) SetSampler(s *noise.Sampler) {
	r.gen = flow.NewGenerator(s, r.dims)
}

func (r *Runner) Policy() FlowPolicy   { return r.policy }
func (r *Runner) Seed() int64          { return r.seed }
func (r *Runner) Frames() int          { return r.cfg.FramesNumber }
func (r *Runner) Dims() grid.Dims      { return r.dims }
func (r *Runner) Density() grid.Scalar { return r.advect.Density() }

// Run renders every frame in order. Cancellation is checked between
// frames; the partial result is returned alongside ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	frames := r.cfg.FramesNumber
	factor := r.cfg.SimulationFactor

	res := &Result{
		Seed:    r.seed,
		Policy:  r.policy.Name(),
		Offsets: r.policy.Offsets(),
		Stats:   make([]metrics.FrameStats, 0, frames),
	}
	r.drift.Reset()
	r.drift.Observe(r.baseline)

	r.logger.Info("run started",
		"frames", frames,
		"simulation_factor", factor,
		"steps", r.cfg.TotalSteps(),
		"grid", r.dims.String(),
		"policy", res.Policy,
		"seed", r.seed,
		"offsets", res.Offsets.Array(),
	)

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		res.MassDrift = r.drift.Final()
		res.PeakMassDrift = r.drift.Value()
	}()

	if !r.policy.Regenerates() {
		if err := r.generate(0, res); err != nil {
			return res, err
		}
	}

	for frame := 0; frame < frames; frame++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		for step := 0; step < factor; step++ {
			if r.policy.Regenerates() {
				if err := r.generate(frame*factor+step, res); err != nil {
					return res, err
				}
			}
			if err := r.advect.Step(r.field); err != nil {
				return res, fmt.Errorf("advection step %d: %w", res.Steps, err)
			}
			res.Steps++
		}

		density := r.advect.Density()
		if !density.IsValid() {
			res.NonFiniteFrames++
			r.logger.Warn("density holds NaN or infinite cells", "frame", frame, "step", res.Steps)
		}
		if err := r.sink.WriteFrame(frame, density); err != nil {
			return res, fmt.Errorf("writing frame %d: %w", frame, err)
		}
		res.Frames++

		elapsed := time.Since(start)
		stats := metrics.Density(density)
		stats.Frame = frame
		stats.Step = res.Steps
		stats.ElapsedMS = float64(elapsed.Microseconds()) / 1000
		res.Stats = append(res.Stats, stats)
		r.drift.Observe(stats)

		r.logger.Debug("frame written", "stats", stats)

		ev := FrameEvent{Frame: frame, Frames: frames, Stats: stats, Elapsed: elapsed}
		for _, o := range r.observers {
			if err := o.OnFrame(ev); err != nil {
				return res, fmt.Errorf("frame %d observer: %w", frame, err)
			}
		}
	}

	r.logger.Info("run finished",
		"frames", res.Frames,
		"steps", res.Steps,
		"elapsed", time.Since(start).Round(time.Millisecond),
		r.drift.Name(), r.drift.Final(),
		"peak_"+r.drift.Name(), r.drift.Value(),
		"non_finite_frames", res.NonFiniteFrames,
	)
	return res, nil
}

// generate rebuilds the flow field for global sub-step n.
func (r *Runner) generate(n int, res *Result) error {
	off := r.policy.Offsets()
	p := noise.Params{
		Scale:   r.cfg.FlowFieldScale,
		OffsetX: off.X,
		OffsetY: off.Y,
		OffsetZ: r.policy.TimeOffset(n),
	}
	max, err := r.gen.Generate(r.field, p)
	if err != nil {
		return fmt.Errorf("generating flow field: %w", err)
	}
	res.FlowGenerations++
	if max == 0 {
		res.DegenerateFlow++
		r.logger.Warn("degenerate flow field, normalization skipped", "step", n, "z", p.OffsetZ)
	}
	return nil
}
