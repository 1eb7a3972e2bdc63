package render

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/icza/mjpeg"

	"github.com/san-kum/massflow/internal/grid"
)

// SaveFrame tone-maps d and writes it to path as a single-channel PNG.
func SaveFrame(path string, d grid.Scalar, dims grid.Dims, t Tone) error {
	return savePNG(path, Luma(d, dims, t))
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding frame %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing frame %s: %w", path, err)
	}
	return f.Close()
}

// Sink receives every rendered frame of a run in order.
type Sink interface {
	WriteFrame(index int, d grid.Scalar) error
	Close() error
}

// FramePattern is the file name of frame i inside the output directory.
const FramePattern = "frame_%d.png"

// PNGSequence writes one PNG per frame into Dir.
type PNGSequence struct {
	Dir     string
	Dims    grid.Dims
	Tone    Tone
	Palette color.Palette
}

func NewPNGSequence(dir string, dims grid.Dims, t Tone, pal color.Palette) *PNGSequence {
	return &PNGSequence{Dir: dir, Dims: dims, Tone: t, Palette: pal}
}

// FramePath returns the file written for frame index.
func (s *PNGSequence) FramePath(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(FramePattern, index))
}

func (s *PNGSequence) WriteFrame(index int, d grid.Scalar) error {
	if s.Palette == nil {
		return SaveFrame(s.FramePath(index), d, s.Dims, s.Tone)
	}
	return savePNG(s.FramePath(index), Paletted(d, s.Dims, s.Tone, s.Palette))
}

func (s *PNGSequence) Close() error { return nil }

// Video appends every frame to an MJPEG AVI file.
type Video struct {
	dims    grid.Dims
	tone    Tone
	palette color.Palette
	opts    jpeg.Options
	aw      mjpeg.AviWriter
	buf     bytes.Buffer
}

// NewVideo creates the AVI file at path. quality is the JPEG quality, 1..100.
func NewVideo(path string, dims grid.Dims, fps, quality int, t Tone, pal color.Palette) (*Video, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: video fps must be positive, got %d", grid.ErrParameterBounds, fps)
	}
	aw, err := mjpeg.New(path, int32(dims.W), int32(dims.H), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("creating video %s: %w", path, err)
	}
	return &Video{
		dims:    dims,
		tone:    t,
		palette: pal,
		opts:    jpeg.Options{Quality: quality},
		aw:      aw,
	}, nil
}

func (v *Video) WriteFrame(index int, d grid.Scalar) error {
	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, Image(d, v.dims, v.tone, v.palette), &v.opts); err != nil {
		return fmt.Errorf("encoding video frame %d: %w", index, err)
	}
	if err := v.aw.AddFrame(v.buf.Bytes()); err != nil {
		return fmt.Errorf("writing video frame %d: %w", index, err)
	}
	return nil
}

func (v *Video) Close() error {
	if err := v.aw.Close(); err != nil {
		return fmt.Errorf("closing video: %w", err)
	}
	return nil
}

// MultiSink forwards each frame to every sink in order and stops at the
// first error.
type MultiSink []Sink

func (m MultiSink) WriteFrame(index int, d grid.Scalar) error {
	for _, s := range m {
		if err := s.WriteFrame(index, d); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
