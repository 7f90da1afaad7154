package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ScreenWidth is the inner width of the ATM display panel
const ScreenWidth = 44

// Screen renders ATM display text inside a fixed-width panel.
// Lines longer than the panel wrap.
func (u *UI) Screen(text string) string {
	if !u.shouldStyle() {
		border := "+" + strings.Repeat("-", ScreenWidth+2) + "+"
		var sb strings.Builder
		sb.WriteString(border + "\n")
		for _, line := range wrap(text, ScreenWidth) {
			sb.WriteString(fmt.Sprintf("| %-*s |\n", ScreenWidth, line))
		}
		sb.WriteString(border)
		return sb.String()
	}

	return StyleScreen.Width(ScreenWidth + 4).Render(text)
}

// Gauge renders a static bar for current out of total, e.g. PIN attempts used.
func (u *UI) Gauge(label string, current, total int64) string {
	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total)
	}
	if pct > 1 {
		pct = 1
	}

	if !u.shouldStyle() {
		return fmt.Sprintf("%s: %d/%d", label, current, total)
	}

	bar := progress.New(
		progress.WithGradient("#3FB950", "#F85149"),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)

	labelStyle := lipgloss.NewStyle().Width(14).Foreground(ColorMuted)
	countStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	return labelStyle.Render(label) + " " + bar.ViewAs(pct) + " " +
		countStyle.Render(fmt.Sprintf("%d/%d", current, total))
}

// wrap splits text into lines of at most width runes, breaking on spaces
// where possible.
func wrap(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			cut := width
			for i := width; i > 0; i-- {
				if runes[i] == ' ' {
					cut = i
					break
				}
			}
			out = append(out, string(runes[:cut]))
			runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
		}
		out = append(out, string(runes))
	}
	return out
}
