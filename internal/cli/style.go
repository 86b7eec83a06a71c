package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/couchcryptid/climate-risk-service/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	bandStyles = map[domain.Band]lipgloss.Style{
		domain.BandLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
		domain.BandMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#eab308")),
		domain.BandHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444")),
	}
)

func bandText(b domain.Band) string {
	return bandStyles[b].Render(b.Label())
}

func resultLine(r domain.VulnerabilityResult) string {
	return fmt.Sprintf("IRID %s  %s", titleStyle.Render(domain.FormatIndex(r.Index)), bandText(r.Band))
}

func printCard(w io.Writer, title string, lines ...string) {
	body := titleStyle.Render(title)
	for _, l := range lines {
		body += "\n" + l
	}
	fmt.Fprintln(w, cardStyle.Render(body))
}
