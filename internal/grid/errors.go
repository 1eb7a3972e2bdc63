package grid

import (
	"errors"
	"fmt"
)

// Domain errors for grid operations.
var (
	// ErrDimensionMismatch indicates a buffer whose length does not match the grid.
	ErrDimensionMismatch = errors.New("grid: dimension mismatch between buffer and grid")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("grid: parameter out of valid bounds")

	// ErrEmptyGrid indicates a grid with a non-positive width or height.
	ErrEmptyGrid = errors.New("grid: width and height must be positive")
)

// SizeError reports a buffer that does not fit the grid it is used with.
type SizeError struct {
	Name string
	Got  int
	Want int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("grid: %s has %d cells, want %d", e.Name, e.Got, e.Want)
}

func (e *SizeError) Unwrap() error {
	return ErrDimensionMismatch
}
