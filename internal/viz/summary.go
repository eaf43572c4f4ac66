package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mcerdsim/internal/config"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/storage"
)

func field(label, value string) string {
	return Label.Render(label) + Value.Render(value)
}

func layers(ls []physics.Layer) []string {
	var out []string
	for _, l := range ls {
		var els []string
		for _, e := range l.Elements {
			els = append(els, fmt.Sprintf("%s %.3g", e.Prefix(), e.Amount))
		}
		out = append(out, fmt.Sprintf("  %-10s %8.2f nm %6.3f g/cm3  %s",
			l.Name, l.Thickness, l.Density, strings.Join(els, ", ")))
	}
	return out
}

// Setup summarizes a simulation file: beam, target, detector and the runs
// it expands to.
func Setup(cfg *config.Config) string {
	var lines []string
	lines = append(lines, Title.Render(cfg.Name), "")
	lines = append(lines,
		field("directory", cfg.Directory),
		field("executable", cfg.Executable),
		field("seeds", fmt.Sprintf("%d from %d", max(cfg.Seeds, 1), cfg.Seed)),
		field("prefix rule", cfg.PrefixRule),
	)

	phys := cfg.Physics
	if b := phys.Beam; b != nil {
		lines = append(lines, "", HeaderStyle.Render("beam"),
			field("ion", b.Ion.Prefix()),
			field("energy", fmt.Sprintf("%g MeV", b.Energy)),
		)
	}
	if r := phys.Run; r != nil {
		lines = append(lines,
			field("type", fmt.Sprintf("%s (%s)", r.SimulationType, r.Mode)),
			field("ions", fmt.Sprintf("%d (pre %d)", r.NumberOfIons, r.NumberOfPreIons)),
		)
	}
	if t := phys.Target; t != nil {
		lines = append(lines, "", HeaderStyle.Render("target "+t.Name),
			field("angle", fmt.Sprintf("%g°", t.Angle)))
		lines = append(lines, layers(t.Layers)...)
	}
	if d := phys.Detector; d != nil {
		lines = append(lines, "", HeaderStyle.Render("detector "+d.Name),
			field("type", d.Type),
			field("angle", fmt.Sprintf("%g°", d.Angle)),
			field("tof length", fmt.Sprintf("%.4f m", d.ToFLength())),
		)
		for i, f := range d.Foils {
			lines = append(lines, fmt.Sprintf("  %d %-10s %-11s %8.2f mm", i, f.Name, f.Type, f.Distance))
		}
	}

	recoils := cfg.RecoilElements()
	if len(recoils) > 0 {
		lines = append(lines, "", HeaderStyle.Render("recoils"))
		for _, r := range recoils {
			lines = append(lines, fmt.Sprintf("  %-6s %-10s %d points to %.1f nm",
				r.Prefix(), r.Name, len(r.Points), r.MaxDepth()))
		}
	}
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Runs lists ledger entries, one per line.
func Runs(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no runs recorded")
	}
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-8s  %-28s %-10s %5s %10s  %s",
		"id", "run", "status", "exit", "duration", "started")))
	b.WriteString("\n")
	for i := range runs {
		r := &runs[i]
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		dur := "-"
		if d := r.Duration(); d > 0 {
			dur = d.Round(time.Millisecond).String()
		}
		fmt.Fprintf(&b, "%-8s  %-28s %s %5d %10s  %s\n",
			id,
			r.Identity().String(),
			statusStyle(r.Status).Render(fmt.Sprintf("%-10s", r.Status)),
			r.ExitCode,
			dur,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return b.String()
}
