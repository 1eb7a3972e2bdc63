package viz

import (
	"strings"

	"github.com/san-kum/massflow/internal/grid"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Density plots d by lighting every sub-pixel whose sampled cell exceeds
// threshold. The grid is sampled with nearest-neighbour lookups.
func (c *Canvas) Density(d grid.Scalar, dims grid.Dims, threshold float32) {
	c.Clear()
	sw, sh := c.Width*2, c.Height*4
	if sw == 0 || sh == 0 || len(d) != dims.Len() {
		return
	}
	for sy := 0; sy < sh; sy++ {
		y := sy * dims.H / sh
		for sx := 0; sx < sw; sx++ {
			x := sx * dims.W / sw
			if d[dims.Index(x, y)] > threshold {
				c.Set(sx, sy)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Preview renders a w×h character density preview of d.
func Preview(d grid.Scalar, dims grid.Dims, w, h int, threshold float32) string {
	c := NewCanvas(w, h)
	c.Density(d, dims, threshold)
	return c.String()
}
