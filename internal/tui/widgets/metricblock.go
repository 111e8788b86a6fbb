// ABOUTME: Compact count tile widget for the dashboard stats row
// ABOUTME: Combines icon, count, share bar and label in a bordered block

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/trainer-admin/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       20,
		BorderColor: lipgloss.Color("#6B7280"), // Muted gray
		TitleColor:  lipgloss.Color("#7C3AED"), // Purple
		ValueColor:  lipgloss.Color("#F9FAFB"), // Light
	}
}

// CountBlock renders a count with its share of total as a bar.
// A zero total draws an empty bar.
func CountBlock(icon icons.Icon, title string, count, total int, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	innerWidth := config.Width - 4

	titleStr := truncate(fmt.Sprintf("%s %s", icon.String(), title), innerWidth-2)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	topBorder := "┌─ " + titleStyle.Render(titleStr) + " " +
		strings.Repeat("─", max(0, innerWidth-lipgloss.Width(titleStr)-1)) + "┐"

	value := fmt.Sprintf("%d", count)
	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	valueLine := "│  " + valueStyle.Render(value) + strings.Repeat(" ", max(0, innerWidth-len(value))) + "│"

	percent := 0.0
	if total > 0 {
		percent = float64(count) / float64(total) * 100
	}
	label := fmt.Sprintf(" %3.0f%%", percent)
	barWidth := max(1, innerWidth-len(label))
	barLine := "│  " + ShareBar(percent, barWidth, config.TitleColor) + label + "│"

	bottomBorder := "└" + strings.Repeat("─", config.Width-2) + "┘"

	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)
	return strings.Join([]string{
		borderStyle.Render(topBorder),
		borderStyle.Render(valueLine),
		borderStyle.Render(barLine),
		borderStyle.Render(bottomBorder),
	}, "\n")
}

// truncate shortens a string to maxLen runes with ellipsis if needed
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(0, maxLen)])
	}
	return string(r[:maxLen-3]) + "..."
}
