package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a fixed-width bar followed by the percentage, like
// "▰▰▰▱▱▱ 50%". Percentages outside [0, 100] are clamped.
func ProgressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	suffix := fmt.Sprintf(" %3d%%", percent)
	if width < 1 {
		return strings.TrimSpace(suffix)
	}

	filled := percent * width / 100
	done := strings.Repeat("▰", filled)
	todo := strings.Repeat("▱", width-filled)
	if ColorsEnabled() {
		done = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(done)
		todo = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(todo)
	}
	return done + todo + suffix
}
