package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/metrics"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{1.7, 20},
		{-0.3, 0},
	}

	for _, tt := range tests {
		bar := ProgressBar(tt.percent, 20)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("percent %.1f: expected %d filled, got %d", tt.percent, tt.filled, got)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 20 {
			t.Errorf("percent %.1f: expected width 20, got %d", tt.percent, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	line := Sparkline(values, 4)
	if !strings.Contains(line, "▁▃▅█") {
		t.Errorf("expected last four values scaled, got %q", line)
	}

	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("expected placeholder, got %q", got)
	}
	if got := Sparkline([]float64{3, 3}, 5); !strings.Contains(got, "▁▁") {
		t.Errorf("flat series should sit at the bottom, got %q", got)
	}
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8, got %U", c.Grid[0][1])
	}

	c.Clear()
	if c.String() != "⠀⠀\n" {
		t.Errorf("expected blank canvas, got %q", c.String())
	}
}

func TestPreview(t *testing.T) {
	d := grid.Dims{W: 8, H: 8}
	s := grid.NewScalar(d)
	// left half full
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W/2; x++ {
			s[d.Index(x, y)] = 1
		}
	}

	out := Preview(s, d, 2, 2, 0.5)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		r := []rune(line)
		if r[0] != 0x28FF {
			t.Errorf("expected full cell, got %U", r[0])
		}
		if r[1] != brailleBlank {
			t.Errorf("expected empty cell, got %U", r[1])
		}
	}
}

func TestPreviewMismatch(t *testing.T) {
	out := Preview(grid.NewScalar(grid.Dims{W: 2, H: 2}), grid.Dims{W: 4, H: 4}, 1, 1, 0)
	if out != "⠀\n" {
		t.Errorf("expected blank preview, got %q", out)
	}
}

func TestMassPlot(t *testing.T) {
	if got := MassPlot(nil, 40, 5); !strings.Contains(got, "no frames") {
		t.Errorf("unexpected empty plot %q", got)
	}

	stats := []metrics.FrameStats{{TotalMass: 10}, {TotalMass: 10.5}, {TotalMass: 9.8}}
	if got := MassPlot(stats, 40, 5); !strings.Contains(got, "total mass per frame") {
		t.Errorf("expected caption in %q", got)
	}
}

func TestSummary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MassDistrFilePath = "mass.png"
	cfg.OutputDirectoryPath = "frames"
	cfg.Video.Path = "out.avi"

	out := Summary(cfg, "dynamic", 42, [3]float64{1, -2, 0.5})
	for _, want := range []string{"mass.png", "frames", "1280x720", "dynamic", "42", "grayscale", "out.avi"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestMessages(t *testing.T) {
	if got := Error(errors.New("boom")); !strings.Contains(got, "boom") {
		t.Errorf("unexpected error line %q", got)
	}
	if got := Success("done"); !strings.Contains(got, "done") {
		t.Errorf("unexpected success line %q", got)
	}
	if got := Warn("careful"); !strings.Contains(got, "careful") {
		t.Errorf("unexpected warning line %q", got)
	}
}
