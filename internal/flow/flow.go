// Package flow derives a swirling advection field from coherent noise.
//
// The field is the central-difference gradient of the noise rotated by 90
// degrees, which keeps its divergence close to zero. After every generation
// the whole field is divided by its largest vector length so that the peak
// magnitude is exactly 1 while relative magnitudes are preserved.
package flow

import (
	"math"

	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/noise"
)

// Generator turns noise samples into flow fields. It owns the noise scratch
// buffer, so repeated calls do not allocate. A Generator must not be used
// from more than one goroutine at a time.
type Generator struct {
	sampler *noise.Sampler
	dims    grid.Dims
	scratch grid.Scalar
}

func NewGenerator(s *noise.Sampler, d grid.Dims) *Generator {
	return &Generator{
		sampler: s,
		dims:    d,
		scratch: grid.NewScalar(d),
	}
}

// Generate samples noise with p and writes the normalized field into dst.
// Boundary cells of dst are never written.
//
// The returned value is the maximum vector length found before
// normalization. When it is not positive (no interior cells, or perfectly
// flat noise) the division is skipped and dst is left as computed.
func (g *Generator) Generate(dst grid.Vector, p noise.Params) (float32, error) {
	if err := dst.Check("flow field", g.dims); err != nil {
		return 0, err
	}
	if err := g.sampler.Sample(g.scratch, g.dims, p); err != nil {
		return 0, err
	}

	Derive(dst, g.scratch, g.dims)

	max := dst.MaxLength()
	if !(max > 0) {
		return 0, nil
	}
	Normalize(dst, max)
	return max, nil
}

// Derive writes the rotated central-difference gradient of n into every
// interior cell of dst.
func Derive(dst grid.Vector, n grid.Scalar, d grid.Dims) {
	if !d.Interior() {
		return
	}
	w := d.W
	grid.ParallelRows(d.H-2, func(r0, r1 int) {
		for y := r0 + 1; y < r1+1; y++ {
			for x := 1; x < w-1; x++ {
				dst[y*w+x] = grid.Vec2D{
					X: n[(y+1)*w+x] - n[(y-1)*w+x],
					Y: -(n[y*w+x+1] - n[y*w+x-1]),
				}
			}
		}
	})
}

// Normalize divides every vector of f by max.
func Normalize(f grid.Vector, max float32) {
	grid.ParallelFor(len(f), 4096, func(start, end int) {
		for i := start; i < end; i++ {
			f[i] = f[i].Div(max)
		}
	})
}

// Uniform fills the interior of f with v and zeroes the boundary. It builds
// synthetic fields for previews and tests.
func Uniform(f grid.Vector, d grid.Dims, v grid.Vec2D) {
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			if d.OnBoundary(x, y) {
				f[d.Index(x, y)] = grid.Vec2D{}
			} else {
				f[d.Index(x, y)] = v
			}
		}
	}
}

// Divergence returns the mean absolute central-difference divergence over
// the cells two steps away from the boundary.
func Divergence(f grid.Vector, d grid.Dims) float64 {
	if d.W < 5 || d.H < 5 {
		return 0
	}
	sum := 0.0
	n := 0
	for y := 2; y < d.H-2; y++ {
		for x := 2; x < d.W-2; x++ {
			dx := f[d.Index(x+1, y)].X - f[d.Index(x-1, y)].X
			dy := f[d.Index(x, y+1)].Y - f[d.Index(x, y-1)].Y
			sum += math.Abs(float64(dx + dy))
			n++
		}
	}
	return sum / float64(n)
}
