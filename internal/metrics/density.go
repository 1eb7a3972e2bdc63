package metrics

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/massflow/internal/grid"
)

// FrameStats summarizes the density grid after a frame.
type FrameStats struct {
	Frame     int     `csv:"frame" json:"frame"`
	Step      int     `csv:"step" json:"step"`
	TotalMass float64 `csv:"total_mass" json:"total_mass"`
	Min       float64 `csv:"min" json:"min"`
	Max       float64 `csv:"max" json:"max"`
	Mean      float64 `csv:"mean" json:"mean"`
	ElapsedMS float64 `csv:"elapsed_ms" json:"elapsed_ms"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Int("step", s.Step),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("elapsed_ms", s.ElapsedMS),
	)
}

// chunkSize bounds the float64 staging buffer used by Density.
const chunkSize = 4096

// Density computes mass statistics over every cell of d. Frame, Step and
// ElapsedMS are left for the caller. Cells are widened to float64 one chunk
// at a time, so the grid is never copied whole.
func Density(d grid.Scalar) FrameStats {
	if len(d) == 0 {
		return FrameStats{}
	}
	var buf [chunkSize]float64
	total := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for start := 0; start < len(d); start += chunkSize {
		src := d[start:min(start+chunkSize, len(d))]
		v := buf[:len(src)]
		for i, x := range src {
			v[i] = float64(x)
		}
		total += floats.Sum(v)
		lo = math.Min(lo, floats.Min(v))
		hi = math.Max(hi, floats.Max(v))
	}
	return FrameStats{
		TotalMass: total,
		Min:       lo,
		Max:       hi,
		Mean:      total / float64(len(d)),
	}
}

// Drift returns the relative change in total mass from first to last.
// A run that starts massless reports zero.
func Drift(first, last FrameStats) float64 {
	if first.TotalMass == 0 {
		return 0
	}
	return (last.TotalMass - first.TotalMass) / math.Abs(first.TotalMass)
}
