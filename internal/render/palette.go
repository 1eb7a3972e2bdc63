package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/mazznoer/colorgrad"
)

var gradients = map[string]func() colorgrad.Gradient{
	"viridis": colorgrad.Viridis,
	"inferno": colorgrad.Inferno,
	"magma":   colorgrad.Magma,
	"plasma":  colorgrad.Plasma,
	"turbo":   colorgrad.Turbo,
	"cividis": colorgrad.Cividis,
	"warm":    colorgrad.Warm,
	"cool":    colorgrad.Cool,
}

// Palette returns a 256-entry palette for the named gradient. The empty
// name selects grayscale and returns a nil palette.
func Palette(name string) (color.Palette, error) {
	if name == "" {
		return nil, nil
	}
	g, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (available: %v)", name, Palettes())
	}
	pal := make(color.Palette, 0, 256)
	for _, c := range g().Colors(256) {
		pal = append(pal, color.RGBAModel.Convert(c))
	}
	return pal, nil
}

// Palettes lists the supported palette names in order.
func Palettes() []string {
	names := make([]string, 0, len(gradients))
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
