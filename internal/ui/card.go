package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"malpha/internal/media"
)

// Palette.
var (
	BaseColor    = lipgloss.Color("#1e1e2e")
	TextColor    = lipgloss.Color("#cdd6f4")
	FaintColor   = lipgloss.Color("#6c7086")
	AccentColor  = lipgloss.Color("#cba6f7")
	SuccessColor = lipgloss.Color("#a6e3a1")
	WarningColor = lipgloss.Color("#f9e2af")
	ErrorColor   = lipgloss.Color("#f38ba8")
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AccentColor).
			Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(FaintColor).Width(10)
	kindStyle   = lipgloss.NewStyle().Foreground(BaseColor).Background(AccentColor).Padding(0, 1).Bold(true)
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(TextColor)
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
	faintStyle  = lipgloss.NewStyle().Foreground(FaintColor)
)

// maxCaption is the rune width captions are cut to inside a card.
const maxCaption = 72

// Card renders a descriptor as a bordered summary block.
func Card(d *media.Descriptor) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", kindStyle.Render(strings.ToUpper(d.Kind.String())), authorStyle.Render(d.Author))
	b.WriteString(faintStyle.Render(truncate(d.Caption, maxCaption)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render(label), value)
	}
	row("platform", d.Platform)
	row("thumbnail", linkStyle.Render(d.ThumbnailURL))
	for i, s := range d.Sources {
		label := ""
		if i == 0 {
			label = "sources"
		}
		row(label, fmt.Sprintf("%d. %s  %s", i+1, s.Label, linkStyle.Render(s.URI)))
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// SourceLabels formats sources for the picker.
func SourceLabels(d *media.Descriptor) []string {
	labels := make([]string, len(d.Sources))
	for i, s := range d.Sources {
		labels[i] = fmt.Sprintf("%s  (%s)", s.Label, truncate(s.URI, 60))
	}
	return labels
}

// Status renders a short colored marker for table output.
func Status(ok bool, text string) string {
	if ok {
		return lipgloss.NewStyle().Foreground(SuccessColor).Render("✓ " + text)
	}
	return lipgloss.NewStyle().Foreground(ErrorColor).Render("✗ " + text)
}

// Warn renders text in the warning color.
func Warn(text string) string {
	return lipgloss.NewStyle().Foreground(WarningColor).Render(text)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
