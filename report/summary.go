package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nickyhof/CatalogRunner/equiv"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02D98E"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FFA500"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF5F56", Dark: "#FF6B6B"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().Width(28)
)

func statusStyle(status equiv.Status) lipgloss.Style {
	switch status {
	case equiv.Match:
		return lipgloss.NewStyle().Foreground(successColor)
	case equiv.Mismatch:
		return lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	case equiv.Failed:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(mutedColor)
	}
}

// Summary renders a compact terminal view of the run
func Summary(run *Run) string {
	lines := []string{
		titleStyle.Render("Catalog run " + run.ID),
		fmt.Sprintf("backends: %s", strings.Join(run.Backends, ", ")),
		"",
	}

	if run.LoadError != nil {
		lines = append(lines, statusStyle(equiv.Failed).Render("load failed: "+run.LoadError.Error()))
	}

	for _, result := range run.Results {
		line := nameStyle.Render(result.Operation) + statusStyle(result.Status).Render(result.Status.String())
		if n := len(result.Mismatches); n > 0 {
			line += fmt.Sprintf("  (%s)", result.Mismatches[0].Backend)
		}
		if len(result.Skipped) > 0 {
			line += lipgloss.NewStyle().Foreground(mutedColor).
				Render("  skipped " + strings.Join(result.Skipped, ", "))
		}
		lines = append(lines, line)
	}

	counts := run.Counts()
	lines = append(lines, "",
		fmt.Sprintf("%d matched, %d mismatched, %d failed, %d not run in %s",
			counts[equiv.Match], counts[equiv.Mismatch], counts[equiv.Failed], counts[equiv.NotRun],
			run.Duration().Round(time.Millisecond)))

	verdict := statusStyle(equiv.Match).Bold(true).Render("PASS")
	if !run.Passed() {
		verdict = statusStyle(equiv.Failed).Render("FAIL")
	}
	lines = append(lines, verdict)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
