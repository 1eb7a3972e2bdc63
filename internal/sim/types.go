package sim

import (
	"time"

	"github.com/san-kum/massflow/internal/metrics"
)

// Offsets shift the noise sampling window. X and Y are in grid cells; Z is
// the base time offset.
type Offsets struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Array returns the offsets as [X, Y, Z].
func (o Offsets) Array() [3]float64 {
	return [3]float64{o.X, o.Y, o.Z}
}

// FlowPolicy decides when the flow field is generated and which time
// offset each generation uses. The only implementations are Static and
// Dynamic.
type FlowPolicy interface {
	// Offsets returns the offsets held for the whole run.
	Offsets() Offsets
	// TimeOffset returns the z offset for global sub-step n.
	TimeOffset(n int) float64
	// Regenerates reports whether the field is rebuilt before every
	// sub-step.
	Regenerates() bool
	// Name is "static" or "dynamic".
	Name() string

	flowPolicy()
}

// Static generates the field once before the first frame.
type Static struct {
	Off Offsets
}

func (p Static) Offsets() Offsets       { return p.Off }
func (p Static) TimeOffset(int) float64 { return p.Off.Z }
func (p Static) Regenerates() bool      { return false }
func (p Static) Name() string           { return "static" }
func (Static) flowPolicy()              {}

// Dynamic regenerates the field before every sub-step, advancing the time
// offset by StepScale each time.
type Dynamic struct {
	Off       Offsets
	StepScale float64
}

func (p Dynamic) Offsets() Offsets { return p.Off }
func (p Dynamic) TimeOffset(n int) float64 {
	return p.Off.Z + float64(n)*p.StepScale
}
func (p Dynamic) Regenerates() bool { return true }
func (p Dynamic) Name() string      { return "dynamic" }
func (Dynamic) flowPolicy()         {}

// FrameEvent is delivered to observers after a frame has been written.
type FrameEvent struct {
	Frame   int
	Frames  int
	Stats   metrics.FrameStats
	Elapsed time.Duration
}

type Observer interface {
	OnFrame(ev FrameEvent) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev FrameEvent) error

func (f ObserverFunc) OnFrame(ev FrameEvent) error { return f(ev) }

type Result struct {
	Frames          int
	Steps           int
	FlowGenerations int
	Seed            int64
	Policy          string
	Offsets         Offsets
	Elapsed         time.Duration
	Stats           []metrics.FrameStats
	// DegenerateFlow counts generations whose field had no positive
	// length, so normalization was skipped.
	DegenerateFlow  int
	// NonFiniteFrames counts frames whose density held NaN or Inf.
	NonFiniteFrames int
	// MassDrift is the signed drift of the last frame and PeakMassDrift the
	// largest absolute drift of any frame, both relative to the initial
	// density.
	MassDrift       float64
	PeakMassDrift   float64
}
