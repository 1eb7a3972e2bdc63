// Package advect transports a density field through a flow field with a
// first-order upwind finite-difference scheme.
package advect

import (
	"github.com/san-kum/massflow/internal/grid"
)

// TimeCoefficient is the fixed explicit Euler step. It stays stable as long
// as flow magnitudes are at most 1 on a unit-spaced grid.
const TimeCoefficient = 0.5

// Simulator owns the two density buffers. After every Step the current
// buffer holds the newest result and the other one is scratch.
type Simulator struct {
	dims    grid.Dims
	cur     grid.Scalar
	scratch grid.Scalar
	steps   int
}

// New copies initial into both buffers. Seeding them identically keeps
// boundary cells, which Step never writes, stable across swaps.
func New(d grid.Dims, initial grid.Scalar) (*Simulator, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := initial.Check("initial density", d); err != nil {
		return nil, err
	}
	return &Simulator{
		dims:    d,
		cur:     initial.Clone(),
		scratch: initial.Clone(),
	}, nil
}

func (s *Simulator) Dims() grid.Dims { return s.dims }

// Density returns the current buffer. Callers must not write to it.
func (s *Simulator) Density() grid.Scalar { return s.cur }

// Steps returns how many steps have been taken.
func (s *Simulator) Steps() int { return s.steps }

// Step advances the density by one upwind step along f and swaps buffers.
func (s *Simulator) Step(f grid.Vector) error {
	if err := f.Check("flow field", s.dims); err != nil {
		return err
	}
	Upwind(s.scratch, s.cur, f, s.dims)
	s.cur, s.scratch = s.scratch, s.cur
	s.steps++
	return nil
}

// Upwind writes one advection step of src into the interior of dst. The
// gradient on each axis is taken from the side the flow comes from. dst
// and src must not alias.
func Upwind(dst, src grid.Scalar, f grid.Vector, d grid.Dims) {
	if !d.Interior() {
		return
	}
	w := d.W
	grid.ParallelRows(d.H-2, func(r0, r1 int) {
		var gx, gy float32
		for y := r0 + 1; y < r1+1; y++ {
			for x := 1; x < w-1; x++ {
				i := y*w + x
				v := f[i]
				c := src[i]

				if v.X < 0 {
					gx = src[i+1] - c
				} else {
					gx = c - src[i-1]
				}
				if v.Y < 0 {
					gy = src[i+w] - c
				} else {
					gy = c - src[i-w]
				}

				dst[i] = c - TimeCoefficient*(v.X*gx+v.Y*gy)
			}
		}
	})
}
