package grid

import (
	"fmt"
	"math"
)

// Vec2D is a 2-component vector stored per flow field cell.
type Vec2D struct {
	X, Y float32
}

// Length returns sqrt(x²+y²).
func (v Vec2D) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// Div returns v with both components divided by d.
func (v Vec2D) Div(d float32) Vec2D {
	return Vec2D{X: v.X / d, Y: v.Y / d}
}

// Dims is the width and height of a rectangular grid.
type Dims struct {
	W, H int
}

// Len returns the number of cells.
func (d Dims) Len() int { return d.W * d.H }

// Index returns the row-major offset of (x, y).
func (d Dims) Index(x, y int) int { return y*d.W + x }

// Interior reports whether at least one cell lies off the boundary.
func (d Dims) Interior() bool { return d.W > 2 && d.H > 2 }

// OnBoundary reports whether (x, y) is in the first or last row or column.
func (d Dims) OnBoundary(x, y int) bool {
	return x == 0 || y == 0 || x == d.W-1 || y == d.H-1
}

func (d Dims) Validate() error {
	if d.W <= 0 || d.H <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrEmptyGrid, d.W, d.H)
	}
	return nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.W, d.H)
}

// Scalar is a row-major grid of float32 values.
type Scalar []float32

func NewScalar(d Dims) Scalar {
	return make(Scalar, d.Len())
}

func (s Scalar) Clone() Scalar {
	c := make(Scalar, len(s))
	copy(c, s)
	return c
}

// Fill sets every cell to v.
func (s Scalar) Fill(v float32) {
	for i := range s {
		s[i] = v
	}
}

// IsValid reports whether every cell is finite.
func (s Scalar) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// Check returns a *SizeError when s does not hold exactly d.Len() cells.
func (s Scalar) Check(name string, d Dims) error {
	if len(s) != d.Len() {
		return &SizeError{Name: name, Got: len(s), Want: d.Len()}
	}
	return nil
}

// Vector is a row-major grid of Vec2D values.
type Vector []Vec2D

func NewVector(d Dims) Vector {
	return make(Vector, d.Len())
}

// Fill sets every cell to v.
func (f Vector) Fill(v Vec2D) {
	for i := range f {
		f[i] = v
	}
}

// MaxLength returns the largest Length over all cells, or -math.MaxFloat32
// for an empty grid.
func (f Vector) MaxLength() float32 {
	m := float32(-math.MaxFloat32)
	for _, v := range f {
		if l := v.Length(); l > m {
			m = l
		}
	}
	return m
}

func (f Vector) Check(name string, d Dims) error {
	if len(f) != d.Len() {
		return &SizeError{Name: name, Got: len(f), Want: d.Len()}
	}
	return nil
}
