package render

import (
	"fmt"
	"strconv"

	"github.com/san-kum/mcerdsim/internal/physics"
)

// layers renders a stack of layers in MCERD's target format: a table of
// distinct elements followed by one block per layer that refers to the
// table by index.
func layers(stack []physics.Layer) string {
	type key struct {
		symbol  string
		isotope int
	}
	index := map[key]int{}
	var table []string
	for _, l := range stack {
		for _, e := range l.Elements {
			k := key{e.Symbol, e.Isotope}
			if _, ok := index[k]; ok {
				continue
			}
			index[k] = len(table)
			mass, _ := e.Mass()
			table = append(table, fmt.Sprintf("%0.2f %s", mass, e.Symbol))
		}
	}

	lines := append(table, "", "ZBL", "ZBL", "")
	for i, l := range stack {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			num(l.Thickness)+" nm",
			"ZBL",
			"ZBL",
			num(l.Density)+" g/cm3",
		)
		for _, e := range l.Elements {
			lines = append(lines, strconv.Itoa(index[key{e.Symbol, e.Isotope}])+" "+num(e.Amount))
		}
	}
	return join(lines)
}

func foils(d *physics.Detector) string {
	var stack []physics.Layer
	for _, f := range d.Foils {
		stack = append(stack, f.Layers...)
	}
	return layers(stack)
}
