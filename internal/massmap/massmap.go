// Package massmap loads the initial mass distribution from an image.
//
// Each pixel is reduced to its 8-bit Rec. 709 luma with alpha ignored, the
// image is centered on the target grid with zero padding around it, and
// values are scaled from [0, 255] to [0, 1].
package massmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/san-kum/massflow/internal/grid"
)

// ErrTooLarge indicates a source image wider or taller than the target grid.
var ErrTooLarge = errors.New("massmap: image resolution exceeds target resolution")

// Load decodes the image at path and places it on a grid of size d.
func Load(path string, d grid.Dims) (grid.Scalar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mass distribution: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding mass distribution %s: %w", path, err)
	}
	out, err := FromImage(img, d)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", path, format, err)
	}
	return out, nil
}

// FromImage converts img to a centered density grid of size d.
func FromImage(img image.Image, d grid.Dims) (grid.Scalar, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > d.W || h > d.H {
		return nil, fmt.Errorf("%w: %dx%d > %s", ErrTooLarge, w, h, d)
	}

	padX, padY := Offset(w, h, d)

	out := grid.NewScalar(d)
	for y := 0; y < h; y++ {
		dst := out[(padY+y)*d.W+padX:]
		for x := 0; x < w; x++ {
			dst[x] = float32(Luma(img.At(b.Min.X+x, b.Min.Y+y))) / 255
		}
	}
	return out, nil
}

// Luma reduces c to integer Rec. 709 luma. Color channels are taken
// unpremultiplied so a transparent pixel keeps its color.
func Luma(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint8((2126*uint32(n.R) + 7152*uint32(n.G) + 722*uint32(n.B)) / 10000)
}

// Offset returns the top-left cell where an image of size w×h lands.
func Offset(w, h int, d grid.Dims) (int, int) {
	return (d.W - w) / 2, (d.H - h) / 2
}
