package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/render"
)

const (
	DefaultFrames       = 100
	DefaultFactor       = 1
	DefaultResolution   = 720
	DefaultFlowScale    = 200.0
	DefaultFlowTimeStep = 0.3
	DefaultVideoFPS     = 30
	DefaultVideoQuality = 90

	// RandomOffsetRange bounds the offsets drawn by randomize_flow_field:
	// each is uniform in [-RandomOffsetRange, RandomOffsetRange).
	RandomOffsetRange = 5.0
)

// resolutions maps target_resolution to grid dimensions.
var resolutions = map[int]grid.Dims{
	480:  {W: 640, H: 460},
	720:  {W: 1280, H: 720},
	1080: {W: 1920, H: 1080},
	1440: {W: 2560, H: 1440},
	2160: {W: 3840, H: 2160},
}

type Config struct {
	MassDistrFilePath   string      `yaml:"mass_distr_file_path" json:"mass_distr_file_path"`
	OutputDirectoryPath string      `yaml:"output_directory_path" json:"output_directory_path"`
	FramesNumber        int         `yaml:"frames_number" json:"frames_number"`
	SimulationFactor    int         `yaml:"simulation_factor" json:"simulation_factor"`
	TargetResolution    int         `yaml:"target_resolution" json:"target_resolution"`
	FlowFieldScale      float64     `yaml:"flow_field_scale" json:"flow_field_scale"`
	DynamizeFlowField   bool        `yaml:"dynamize_flow_field" json:"dynamize_flow_field"`
	RandomizeFlowField  bool        `yaml:"randomize_flow_field" json:"randomize_flow_field"`
	FlowTimeStep        float64     `yaml:"flow_time_step" json:"flow_time_step"`
	Seed                int64       `yaml:"seed" json:"seed"`
	NoiseSeed           int64       `yaml:"noise_seed" json:"noise_seed"`
	Tone                render.Tone `yaml:"tone" json:"tone"`
	Palette             string      `yaml:"palette,omitempty" json:"palette,omitempty"`
	Video               VideoConfig `yaml:"video,omitempty" json:"video,omitempty"`
}

type VideoConfig struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	FPS     int    `yaml:"fps,omitempty" json:"fps,omitempty"`
	Quality int    `yaml:"quality,omitempty" json:"quality,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		FramesNumber:     DefaultFrames,
		SimulationFactor: DefaultFactor,
		TargetResolution: DefaultResolution,
		FlowFieldScale:   DefaultFlowScale,
		FlowTimeStep:     DefaultFlowTimeStep,
		Tone:             render.DefaultTone,
		Video: VideoConfig{
			FPS:     DefaultVideoFPS,
			Quality: DefaultVideoQuality,
		},
	}
}

// Load reads a YAML or JSON config file on top of DefaultConfig. Keys
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Dims returns the grid size for a supported target resolution.
func Dims(resolution int) (grid.Dims, bool) {
	d, ok := resolutions[resolution]
	return d, ok
}

// Resolutions lists the supported target resolutions in ascending order.
func Resolutions() []int {
	res := make([]int, 0, len(resolutions))
	for r := range resolutions {
		res = append(res, r)
	}
	sort.Ints(res)
	return res
}

// Dims returns the grid size of c. It is only meaningful after Validate.
func (c *Config) Dims() grid.Dims {
	return resolutions[c.TargetResolution]
}

// TotalSteps is the number of advection steps in the whole run.
func (c *Config) TotalSteps() int {
	return c.FramesNumber * c.SimulationFactor
}
