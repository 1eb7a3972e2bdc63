package config

import (
	"sort"

	"github.com/san-kum/massflow/internal/render"
)

// Presets hold the motion and look of a run. Paths are left empty and must
// come from the user.
var Presets = map[string]*Config{
	"calm": {
		FramesNumber: 300, SimulationFactor: 2, TargetResolution: 1080,
		FlowFieldScale: 400, FlowTimeStep: DefaultFlowTimeStep,
		Tone: render.DefaultTone,
	},
	"storm": {
		FramesNumber: 240, SimulationFactor: 4, TargetResolution: 1080,
		FlowFieldScale: 120, FlowTimeStep: 0.5,
		DynamizeFlowField: true, RandomizeFlowField: true,
		Tone: render.Tone{Midpoint: 150, Slope: 0.04},
	},
	"drift": {
		FramesNumber: 600, SimulationFactor: 1, TargetResolution: 720,
		FlowFieldScale: 250, FlowTimeStep: 0.25,
		DynamizeFlowField: true,
		Tone:              render.DefaultTone,
		Palette:           "inferno",
	},
	"preview": {
		FramesNumber: 30, SimulationFactor: 1, TargetResolution: 480,
		FlowFieldScale: DefaultFlowScale, FlowTimeStep: DefaultFlowTimeStep,
		Tone: render.DefaultTone,
	},
}

// GetPreset returns a copy of the named preset with video defaults filled
// in, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	if cfg.Video.FPS == 0 {
		cfg.Video.FPS = DefaultVideoFPS
	}
	if cfg.Video.Quality == 0 {
		cfg.Video.Quality = DefaultVideoQuality
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's motion and look onto c, keeping c's paths and
// seeds.
func (c *Config) Apply(p *Config) {
	c.FramesNumber = p.FramesNumber
	c.SimulationFactor = p.SimulationFactor
	c.TargetResolution = p.TargetResolution
	c.FlowFieldScale = p.FlowFieldScale
	c.FlowTimeStep = p.FlowTimeStep
	c.DynamizeFlowField = p.DynamizeFlowField
	c.RandomizeFlowField = p.RandomizeFlowField
	c.Tone = p.Tone
	c.Palette = p.Palette
}
