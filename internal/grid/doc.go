// Package grid provides the flat row-major buffers shared by every stage of
// the mass transport pipeline.
//
// The package defines:
//
//   - [Vec2D]: a 2-component float32 vector
//   - [Dims]: grid width and height with row-major indexing
//   - [Scalar]: one float32 per cell (noise samples, density)
//   - [Vector]: one [Vec2D] per cell (flow field)
//   - [ParallelRows]: row-chunk fan-out used by the numerical kernels
//
// # Example
//
//	d := grid.Dims{W: 1280, H: 720}
//	density := grid.NewScalar(d)
//	flowField := grid.NewVector(d)
//	grid.ParallelRows(d.H, func(y0, y1 int) { ... })
//
// # Thread Safety
//
// Buffers are plain slices. A kernel running under [ParallelRows] may write
// only the rows it was handed and must treat every other buffer as read-only
// for the duration of the pass.
package grid
