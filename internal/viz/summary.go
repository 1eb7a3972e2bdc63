package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/metrics"
)

// Summary renders the run parameters as a boxed panel.
func Summary(cfg *config.Config, policy string, seed int64, offsets [3]float64) string {
	palette := cfg.Palette
	if palette == "" {
		palette = "grayscale"
	}

	rows := []string{
		Title.Render("massflow"),
		"",
		Row("input", cfg.MassDistrFilePath),
		Row("output", cfg.OutputDirectoryPath),
		Row("resolution", fmt.Sprintf("%dp (%s)", cfg.TargetResolution, cfg.Dims())),
		Row("frames", fmt.Sprintf("%d × %d steps", cfg.FramesNumber, cfg.SimulationFactor)),
		Row("flow", fmt.Sprintf("%s, scale %g", policy, cfg.FlowFieldScale)),
		Row("offsets", fmt.Sprintf("%.3f, %.3f, %.3f", offsets[0], offsets[1], offsets[2])),
		Row("seed", fmt.Sprintf("%d", seed)),
		Row("tone", fmt.Sprintf("midpoint %g, slope %g", cfg.Tone.Midpoint, cfg.Tone.Slope)),
		Row("palette", palette),
	}
	if cfg.Video.Path != "" {
		rows = append(rows, Row("video", fmt.Sprintf("%s @ %d fps", cfg.Video.Path, cfg.Video.FPS)))
	}
	return Panel.Render(strings.Join(rows, "\n"))
}

// MassPlot charts total mass per frame.
func MassPlot(stats []metrics.FrameStats, width, height int) string {
	if len(stats) == 0 {
		return Subtle.Render("no frames recorded")
	}
	data := make([]float64, len(stats))
	for i, s := range stats {
		data[i] = s.TotalMass
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("total mass per frame"),
	)
}
