package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/metrics"
	"github.com/san-kum/massflow/internal/noise"
)

type recordingSink struct {
	indices []int
	frames  []grid.Scalar
	failAt  int
	closed  bool
}

func newRecordingSink() *recordingSink { return &recordingSink{failAt: -1} }

func (s *recordingSink) WriteFrame(index int, d grid.Scalar) error {
	if index == s.failAt {
		return errors.New("disk full")
	}
	s.indices = append(s.indices, index)
	s.frames = append(s.frames, d.Clone())
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

type flatNoise struct{}

func (flatNoise) Eval3(x, y, z float64) float64 { return 0.25 }

type nanNoise struct{}

func (nanNoise) Eval3(x, y, z float64) float64 { return math.NaN() }

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TargetResolution = 480
	cfg.FramesNumber = 3
	cfg.SimulationFactor = 2
	cfg.Seed = 11
	return cfg
}

// blob puts a square of mass in the middle of the grid.
func blob(d grid.Dims) grid.Scalar {
	s := grid.NewScalar(d)
	for y := d.H/2 - 20; y < d.H/2+20; y++ {
		for x := d.W/2 - 20; x < d.W/2+20; x++ {
			s[d.Index(x, y)] = 1
		}
	}
	return s
}

var _ = Describe("PolicyFor", func() {
	It("uses zero offsets and a static field by default", func() {
		rng, _ := NewRand(1)
		p := PolicyFor(config.DefaultConfig(), rng)

		Expect(p).To(BeAssignableToTypeOf(Static{}))
		Expect(p.Offsets()).To(Equal(Offsets{}))
		Expect(p.Regenerates()).To(BeFalse())
		Expect(p.TimeOffset(100)).To(BeZero())
	})

	It("draws randomized offsets once within [-5, 5)", func() {
		cfg := config.DefaultConfig()
		cfg.RandomizeFlowField = true

		for seed := int64(1); seed <= 50; seed++ {
			rng, _ := NewRand(seed)
			off := PolicyFor(cfg, rng).Offsets()
			for _, v := range off.Array() {
				Expect(v).To(BeNumerically(">=", -5))
				Expect(v).To(BeNumerically("<", 5))
			}
		}
	})

	It("is deterministic for a fixed seed", func() {
		cfg := config.DefaultConfig()
		cfg.RandomizeFlowField = true

		a, _ := NewRand(99)
		b, _ := NewRand(99)
		Expect(PolicyFor(cfg, a).Offsets()).To(Equal(PolicyFor(cfg, b).Offsets()))
	})

	It("advances the time offset per sub-step when dynamized", func() {
		cfg := config.DefaultConfig()
		cfg.DynamizeFlowField = true
		cfg.FlowTimeStep = 0.5

		rng, _ := NewRand(1)
		p := PolicyFor(cfg, rng)

		Expect(p).To(Equal(Dynamic{StepScale: 0.5}))
		Expect(p.Regenerates()).To(BeTrue())
		Expect(p.TimeOffset(0)).To(BeZero())
		Expect(p.TimeOffset(7)).To(BeNumerically("~", 3.5, 1e-12))

		d := Dynamic{Off: Offsets{Z: 2}, StepScale: 0.25}
		Expect(d.TimeOffset(4)).To(BeNumerically("~", 3, 1e-12))
	})

	It("replaces a zero seed with a time-based one", func() {
		_, seed := NewRand(0)
		Expect(seed).NotTo(BeZero())

		_, seed = NewRand(5)
		Expect(seed).To(Equal(int64(5)))
	})
})

var _ = Describe("Runner", func() {
	var (
		cfg  *config.Config
		sink *recordingSink
	)

	BeforeEach(func() {
		cfg = smallConfig()
		sink = newRecordingSink()
	})

	Describe("New", func() {
		It("rejects a zero simulation factor before allocating", func() {
			cfg.SimulationFactor = 0
			_, err := New(cfg, nil, sink)
			Expect(err).To(MatchError(config.ErrInvalid))
		})

		It("rejects an unsupported resolution before allocating", func() {
			cfg.TargetResolution = 999
			_, err := New(cfg, nil, sink)
			Expect(err).To(MatchError(config.ErrInvalid))
		})

		It("rejects an initial density of the wrong size", func() {
			_, err := New(cfg, grid.NewScalar(grid.Dims{W: 10, H: 10}), sink)
			Expect(err).To(MatchError(grid.ErrDimensionMismatch))
		})

		It("rejects a nil sink", func() {
			_, err := New(cfg, blob(cfg.Dims()), nil)
			Expect(err).To(MatchError(grid.ErrParameterBounds))
		})

		It("does not alias the initial density", func() {
			initial := blob(cfg.Dims())
			r, err := New(cfg, initial, sink)
			Expect(err).NotTo(HaveOccurred())

			initial.Fill(0)
			Expect(r.Density()[cfg.Dims().Index(320, 230)]).To(Equal(float32(1)))
		})
	})

	Describe("Run", func() {
		It("generates a static field once and writes frames in order", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			var events []FrameEvent
			r.AddObserver(ObserverFunc(func(ev FrameEvent) error {
				events = append(events, ev)
				return nil
			}))

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Policy).To(Equal("static"))
			Expect(res.FlowGenerations).To(Equal(1))
			Expect(res.Frames).To(Equal(3))
			Expect(res.Steps).To(Equal(6))
			Expect(res.Seed).To(Equal(int64(11)))
			Expect(res.DegenerateFlow).To(BeZero())
			Expect(sink.indices).To(Equal([]int{0, 1, 2}))
			Expect(sink.closed).To(BeFalse())

			Expect(events).To(HaveLen(3))
			for i, ev := range events {
				Expect(ev.Frame).To(Equal(i))
				Expect(ev.Frames).To(Equal(3))
				Expect(ev.Stats.Step).To(Equal(2 * (i + 1)))
			}
			Expect(res.Stats).To(HaveLen(3))
			Expect(res.Stats[2].TotalMass).To(BeNumerically(">", 0))
		})

		It("moves mass between frames", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			_, err = r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.frames[0]).NotTo(Equal(sink.frames[2]))
		})

		It("regenerates a dynamic field before every sub-step", func() {
			cfg.DynamizeFlowField = true
			cfg.RandomizeFlowField = true

			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())
			offsets := r.Policy().Offsets()

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Policy).To(Equal("dynamic"))
			Expect(res.FlowGenerations).To(Equal(6))
			Expect(res.Offsets).To(Equal(offsets))
		})

		It("is reproducible for a fixed seed", func() {
			cfg.DynamizeFlowField = true
			cfg.RandomizeFlowField = true

			run := func() []grid.Scalar {
				s := newRecordingSink()
				r, err := New(cfg, blob(cfg.Dims()), s)
				Expect(err).NotTo(HaveOccurred())
				_, err = r.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
				return s.frames
			}
			Expect(run()).To(Equal(run()))
		})

		It("counts degenerate fields and leaves density unchanged", func() {
			cfg.DynamizeFlowField = true
			initial := blob(cfg.Dims())

			r, err := New(cfg, initial, sink)
			Expect(err).NotTo(HaveOccurred())
			r.SetSampler(noise.NewWith(flatNoise{}))

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DegenerateFlow).To(Equal(6))
			Expect(sink.frames[2]).To(Equal(initial))
			Expect(res.MassDrift).To(BeZero())
		})

		It("measures mass drift from the initial density", func() {
			cfg.FramesNumber = 1
			initial := blob(cfg.Dims())

			r, err := New(cfg, initial, sink)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stats).To(HaveLen(1))

			want := metrics.Drift(metrics.Density(initial), res.Stats[0])
			Expect(want).NotTo(BeZero())
			Expect(res.MassDrift).To(BeNumerically("~", want, 1e-12))
			Expect(res.PeakMassDrift).To(BeNumerically("~", math.Abs(want), 1e-12))
		})

		It("reports the peak drift across frames", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			first := metrics.Density(blob(cfg.Dims()))
			peak := 0.0
			for _, s := range res.Stats {
				peak = math.Max(peak, math.Abs(metrics.Drift(first, s)))
			}
			Expect(res.PeakMassDrift).To(BeNumerically("~", peak, 1e-12))
			Expect(res.PeakMassDrift).To(BeNumerically(">=", math.Abs(res.MassDrift)))
		})

		It("flags frames whose density is not finite", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())
			r.SetSampler(noise.NewWith(nanNoise{}))

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.NonFiniteFrames).To(Equal(3))
			Expect(res.Frames).To(Equal(3))
		})

		It("reports finite frames as clean", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.NonFiniteFrames).To(BeZero())
		})

		It("stops between frames when cancelled", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			r.AddObserver(ObserverFunc(func(ev FrameEvent) error {
				if ev.Frame == 0 {
					cancel()
				}
				return nil
			}))

			res, err := r.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Frames).To(Equal(1))
			Expect(sink.indices).To(Equal([]int{0}))
		})

		It("aborts on the first sink error", func() {
			sink.failAt = 1
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Run(context.Background())
			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(res.Frames).To(Equal(1))
		})

		It("aborts on an observer error", func() {
			r, err := New(cfg, blob(cfg.Dims()), sink)
			Expect(err).NotTo(HaveOccurred())

			boom := errors.New("boom")
			r.AddObserver(ObserverFunc(func(FrameEvent) error { return boom }))

			_, err = r.Run(context.Background())
			Expect(err).To(MatchError(boom))
			Expect(sink.indices).To(Equal([]int{0}))
		})
	})
})
