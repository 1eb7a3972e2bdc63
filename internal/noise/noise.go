// Package noise samples a 3D coherent noise function onto a grid.
package noise

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"

	"github.com/san-kum/massflow/internal/grid"
)

// Func is a smooth deterministic scalar function of three coordinates
// returning values in roughly [-1, 1].
type Func interface {
	Eval3(x, y, z float64) float64
}

// Params places the grid inside noise space. Cell (x, y) samples
// ((x-OffsetX)/Scale, (y-OffsetY)/Scale, OffsetZ/Scale).
type Params struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	OffsetZ float64
}

func (p Params) Validate() error {
	if !(p.Scale > 0) {
		return fmt.Errorf("%w: noise scale must be positive, got %g", grid.ErrParameterBounds, p.Scale)
	}
	return nil
}

// Sampler evaluates a noise function over whole grids. It holds no mutable
// state and is safe for concurrent use.
type Sampler struct {
	fn Func
}

// New returns a sampler backed by OpenSimplex noise seeded with seed.
func New(seed int64) *Sampler {
	return &Sampler{fn: opensimplex.New(seed)}
}

// NewWith returns a sampler backed by fn.
func NewWith(fn Func) *Sampler {
	return &Sampler{fn: fn}
}

// At returns the noise value for a single cell.
func (s *Sampler) At(x, y int, p Params) float32 {
	return float32(s.fn.Eval3(
		(float64(x)-p.OffsetX)/p.Scale,
		(float64(y)-p.OffsetY)/p.Scale,
		p.OffsetZ/p.Scale,
	))
}

// Sample fills dst with one noise value per cell. Rows are evaluated
// concurrently; every cell is independent of its neighbours.
func (s *Sampler) Sample(dst grid.Scalar, d grid.Dims, p Params) error {
	if err := dst.Check("noise buffer", d); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	grid.ParallelRows(d.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst[y*d.W : (y+1)*d.W]
			for x := range row {
				row[x] = s.At(x, y, p)
			}
		}
	})
	return nil
}
