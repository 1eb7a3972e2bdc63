// Package render turns density grids into 8-bit rasters and writes them out
// as PNG frame sequences or MJPEG video.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/san-kum/massflow/internal/grid"
)

// Tone is a logistic contrast curve over density scaled to [0, 255].
type Tone struct {
	Midpoint float32 `yaml:"midpoint" json:"midpoint"`
	Slope    float32 `yaml:"slope" json:"slope"`
}

// DefaultTone matches the look of the reference renders.
var DefaultTone = Tone{Midpoint: 170, Slope: 0.03}

// Map converts one density value to a luma byte:
// round(255 / (1 + exp(-slope*(v*255 - midpoint)))).
// Extreme inputs saturate at 0 or 255; NaN maps to 0.
func (t Tone) Map(v float32) uint8 {
	raw := float64(v) * 255
	out := math.Round(255 / (1 + math.Exp(-float64(t.Slope)*(raw-float64(t.Midpoint)))))
	switch {
	case math.IsNaN(out) || out <= 0:
		return 0
	case out >= 255:
		return 255
	}
	return uint8(out)
}

// Luma renders d as a single-channel image.
func Luma(d grid.Scalar, dims grid.Dims, t Tone) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, dims.W, dims.H))
	fill(img.Pix, img.Stride, d, dims, t)
	return img
}

// Paletted renders d with the luma value used as an index into pal, which
// must hold 256 colors.
func Paletted(d grid.Scalar, dims grid.Dims, t Tone, pal color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, dims.W, dims.H), pal)
	fill(img.Pix, img.Stride, d, dims, t)
	return img
}

// Image renders d in grayscale when pal is nil and paletted otherwise.
func Image(d grid.Scalar, dims grid.Dims, t Tone, pal color.Palette) image.Image {
	if pal == nil {
		return Luma(d, dims, t)
	}
	return Paletted(d, dims, t, pal)
}

func fill(pix []uint8, stride int, d grid.Scalar, dims grid.Dims, t Tone) {
	grid.ParallelRows(dims.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := pix[y*stride : y*stride+dims.W]
			src := d[y*dims.W : (y+1)*dims.W]
			for x, v := range src {
				row[x] = t.Map(v)
			}
		}
	})
}
