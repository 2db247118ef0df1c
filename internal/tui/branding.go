package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/kiroku/internal/config"
)

const AppName = "kiroku"

// LogoLines is the block-letter logo shown on the home view and banner.
var LogoLines = []string{
	"█  █ █ ████  ████ █  █ █  █",
	"█ █  █ █   █ █  █ █ █  █  █",
	"██   █ ████  █  █ ██   █  █",
	"█ █  █ █  █  █  █ █ █  █  █",
	"█  █ █ █   █ ████ █  █ ████",
}

const CompactLogo = `記録 kiroku ›`

// Theme holds the styles derived from the configured colors.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color

	Logo      lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Help      lipgloss.Style
	MutedText lipgloss.Style
	Selected  lipgloss.Style
	Highlight lipgloss.Style
	Popup     lipgloss.Style
	StatusBar lipgloss.Style
	Separator lipgloss.Style

	StatusInfo    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarn    lipgloss.Style
	StatusError   lipgloss.Style
}

// NewTheme builds the styles for c. Empty colors fall back to the defaults.
func NewTheme(c config.UIColors) Theme {
	d := config.DefaultColors()
	pick := func(v, fallback string) lipgloss.Color {
		if v == "" {
			return lipgloss.Color(fallback)
		}
		return lipgloss.Color(v)
	}

	t := Theme{
		Primary:   pick(c.Primary, d.Primary),
		Secondary: pick(c.Secondary, d.Secondary),
		Accent:    pick(c.Accent, d.Accent),
		Text:      pick(c.Text, d.Text),
		Muted:     pick(c.Muted, d.Muted),
		Error:     pick(c.Error, d.Error),
		Success:   pick(c.Success, d.Success),
	}

	t.Logo = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Title = lipgloss.NewStyle().Foreground(t.Text).Background(t.Primary).Bold(true).Padding(0, 2)
	t.Header = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Help = lipgloss.NewStyle().Foreground(t.Muted).Italic(true)
	t.MutedText = lipgloss.NewStyle().Foreground(t.Muted)
	t.Selected = lipgloss.NewStyle().Foreground(t.Primary).Background(t.Accent).Bold(true).Padding(0, 1)
	t.Highlight = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	t.Popup = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(1, 3)
	t.StatusBar = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)
	t.Separator = lipgloss.NewStyle().Foreground(t.Muted)

	t.StatusInfo = lipgloss.NewStyle().Foreground(t.Muted)
	t.StatusSuccess = lipgloss.NewStyle().Foreground(t.Success)
	t.StatusWarn = lipgloss.NewStyle().Foreground(t.Accent)
	t.StatusError = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	return t
}

// Status picks the style for a status message of kind k.
func (t Theme) Status(k StatusKind) lipgloss.Style {
	switch k {
	case StatusSuccess:
		return t.StatusSuccess
	case StatusWarn:
		return t.StatusWarn
	case StatusError:
		return t.StatusError
	}
	return t.StatusInfo
}

// Banner renders the logo above message.
func (t Theme) Banner(message string) string {
	lines := make([]string, 0, len(LogoLines))
	for _, line := range LogoLines {
		lines = append(lines, t.Logo.Render(line))
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...),
		"",
		t.Help.Render(message),
	)
}

// BannerString is the framed banner printed by the version command.
func BannerString(version string) string {
	t := NewTheme(config.DefaultColors())

	lines := append([]string{}, LogoLines...)
	lines = append(lines, "")
	tagline := "    MyAnimeList in your terminal"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, tagline)

	gradient := []lipgloss.Color{t.Primary, t.Secondary, t.Accent, t.Secondary, t.Primary}
	colored := make([]string, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(gradient[i%len(gradient)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}
	framed := lipgloss.NewStyle().
		Border(border).
		BorderForeground(t.Secondary).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))

	return lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(framed)
}

// ShowBanner prints the banner to stdout.
func ShowBanner(version string) {
	fmt.Println(BannerString(version))
}
