package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mcerdsim/internal/physics"
)

// PlotProfile draws the concentration of a recoil element against depth.
func PlotProfile(r *physics.RecoilElement, width, height int) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no recoil element")
	}
	if width < 2 {
		width = 80
	}
	if height < 1 {
		height = 12
	}
	data := r.Sample(width)
	if data == nil {
		return "", fmt.Errorf("recoil %q has no profile points", r.Name)
	}
	caption := fmt.Sprintf("%s %s: concentration vs depth 0-%.1f nm", r.Prefix(), r.Name, r.MaxDepth())
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
