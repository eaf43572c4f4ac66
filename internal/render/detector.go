package render

import (
	"fmt"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
)

const foilSeparator = "=========="

func detector(d *physics.Detector, p paths.Paths) string {
	lines := []string{
		"Detector type: " + d.Type,
		"Detector angle: " + num(d.Angle),
		fmt.Sprintf("Virtual detector size: %0.1f %0.1f", d.VirtualSize[0], d.VirtualSize[1]),
		fmt.Sprintf("Timing detector numbers: %0.0f %0.0f", float64(d.TimingFoils[0]), float64(d.TimingFoils[1])),
		"Description file for the detector foils: " + p.Foils,
	}
	for _, f := range d.Foils {
		lines = append(lines, foilSeparator, "Foil type: "+f.Type)
		switch f.Type {
		case physics.FoilCircular:
			lines = append(lines, "Foil diameter: "+num(f.Diameter))
		case physics.FoilRectangular:
			lines = append(lines, fmt.Sprintf("Foil size: %s %s", num(f.Size[0]), num(f.Size[1])))
		}
		lines = append(lines, "Foil distance: "+num(f.Distance))
	}
	return join(lines)
}
