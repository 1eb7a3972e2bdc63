package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/massflow/internal/render"
)

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("config: invalid configuration")

// Error names the offending field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every field and returns the first violation. It touches
// the filesystem only to stat the configured paths.
func (c *Config) Validate() error {
	if err := c.ValidateParams(); err != nil {
		return err
	}
	return c.ValidatePaths()
}

// ValidateParams checks the numeric and enumerated fields.
func (c *Config) ValidateParams() error {
	if c.FramesNumber <= 0 {
		return invalid("frames_number", "must be greater than 0, got %d", c.FramesNumber)
	}
	if c.SimulationFactor <= 0 {
		return invalid("simulation_factor", "must be greater than 0, got %d", c.SimulationFactor)
	}
	if _, ok := Dims(c.TargetResolution); !ok {
		return invalid("target_resolution", "must be one of %v, got %d", Resolutions(), c.TargetResolution)
	}
	if math.IsNaN(c.FlowFieldScale) || c.FlowFieldScale < 1.0 {
		return invalid("flow_field_scale", "must not be less than 1.0, got %g", c.FlowFieldScale)
	}
	if math.IsInf(c.FlowFieldScale, 0) {
		return invalid("flow_field_scale", "must be finite")
	}
	if !(c.FlowTimeStep > 0) {
		return invalid("flow_time_step", "must be greater than 0, got %g", c.FlowTimeStep)
	}
	if !(c.Tone.Slope > 0) {
		return invalid("tone.slope", "must be greater than 0, got %g", c.Tone.Slope)
	}
	if _, err := render.Palette(c.Palette); err != nil {
		return invalid("palette", "%v", err)
	}
	if c.Video.Path != "" {
		if c.Video.FPS <= 0 {
			return invalid("video.fps", "must be greater than 0, got %d", c.Video.FPS)
		}
		if c.Video.Quality < 1 || c.Video.Quality > 100 {
			return invalid("video.quality", "must be within [1,100], got %d", c.Video.Quality)
		}
	}
	return nil
}

// ValidatePaths checks that the input file and output directory exist.
func (c *Config) ValidatePaths() error {
	if c.MassDistrFilePath == "" {
		return invalid("mass_distr_file_path", "must not be empty")
	}
	if info, err := os.Stat(c.MassDistrFilePath); err != nil || !info.Mode().IsRegular() {
		return invalid("mass_distr_file_path", "file %q does not exist", c.MassDistrFilePath)
	}
	if c.OutputDirectoryPath == "" {
		return invalid("output_directory_path", "must not be empty")
	}
	if info, err := os.Stat(c.OutputDirectoryPath); err != nil || !info.IsDir() {
		return invalid("output_directory_path", "directory %q does not exist", c.OutputDirectoryPath)
	}
	if c.Video.Path != "" {
		dir := filepath.Dir(c.Video.Path)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return invalid("video.path", "directory %q does not exist", dir)
		}
	}
	return nil
}
