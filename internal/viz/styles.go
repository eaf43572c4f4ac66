package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mcerdsim/internal/sim"
	"github.com/san-kum/mcerdsim/internal/storage"
)

var (
	Panel       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	Title       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	Subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	Label       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(14)
	Value       = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	KeyHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("#444466"))

	StatusQueued    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	StatusRunning   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffcc00"))
	StatusCompleted = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusFailed    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	StatusCancelled = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8800"))

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func stateStyle(s sim.State) lipgloss.Style {
	switch s {
	case sim.StateRunning:
		return StatusRunning
	case sim.StateCompleted:
		return StatusCompleted
	case sim.StateFailed:
		return StatusFailed
	case sim.StateCancelled:
		return StatusCancelled
	}
	return StatusQueued
}

func statusStyle(s storage.Status) lipgloss.Style {
	switch s {
	case storage.StatusRunning:
		return StatusRunning
	case storage.StatusCompleted:
		return StatusCompleted
	case storage.StatusFailed:
		return StatusFailed
	case storage.StatusCancelled:
		return StatusCancelled
	}
	return StatusQueued
}

func Spinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if percent > 0.8 {
		return barHigh.Render(bar)
	} else if percent > 0.4 {
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
