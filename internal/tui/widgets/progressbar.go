// ABOUTME: Minimal horizontal bar for showing a share of a whole
// ABOUTME: Used by count tiles to show a role's share of all users

package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// EmptyBarColor fills the unused part of a bar
var EmptyBarColor = lipgloss.Color("#374151")

// ShareBar renders percent of width cells filled. Percent is clamped to 0..100.
func ShareBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(EmptyBarColor).Render(strings.Repeat("░", width-filled))
}
