package render

import (
	"fmt"
	"strings"

	"github.com/san-kum/mcerdsim/internal/physics"
)

func recoil(r *physics.RecoilElement) string {
	var b strings.Builder
	for _, p := range r.Points {
		fmt.Fprintf(&b, "%0.2f %0.4f\n", p.Depth, p.Concentration)
	}
	return b.String()
}
