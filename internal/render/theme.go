package render

import (
	"strings"

	"charm.land/lipgloss/v2"
	catppuccin "github.com/catppuccin/go"
)

type Theme struct {
	Name        string
	Header      lipgloss.Style
	Status      lipgloss.Style
	Prompt      lipgloss.Style
	Command     lipgloss.Style
	Body        lipgloss.Style
	Info        lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Pre         lipgloss.Style
	Banner      lipgloss.Style
	Muted       lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style
	Plain       bool
}

const (
	VariantModernArcade  = "modern_arcade"
	VariantRetroTerminal = "retro_terminal"
	VariantCatppuccin    = "catppuccin"
	VariantPlain         = "plain"
)

func DefaultTheme() Theme {
	return ThemeForVariant(VariantModernArcade)
}

// NormalizeVariant maps unknown names to the default variant.
func NormalizeVariant(v string) string {
	switch s := strings.TrimSpace(strings.ToLower(v)); s {
	case VariantModernArcade, VariantRetroTerminal, VariantCatppuccin, VariantPlain:
		return s
	default:
		return VariantModernArcade
	}
}

func ThemeForVariant(variant string) Theme {
	switch NormalizeVariant(variant) {
	case VariantRetroTerminal:
		return retroTerminalTheme()
	case VariantCatppuccin:
		return catppuccinTheme()
	case VariantPlain:
		return plainTheme()
	default:
		return modernArcadeTheme()
	}
}

func modernArcadeTheme() Theme {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Name: VariantModernArcade,
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(powder).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(powder).
			Padding(0, 1),
		Prompt: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		Command: lipgloss.NewStyle().
			Foreground(amber),
		Body:    lipgloss.NewStyle().Foreground(powder),
		Info:    lipgloss.NewStyle().Foreground(blue),
		Success: lipgloss.NewStyle().Foreground(mint).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pre:     lipgloss.NewStyle().Foreground(powder),
		// The banner flag is meant to be nearly invisible on a dark background.
		Banner:      lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		TableHeader: lipgloss.NewStyle().Foreground(blue).Bold(true).Padding(0, 1),
		TableCell:   lipgloss.NewStyle().Foreground(powder).Padding(0, 1),
		TableBorder: lipgloss.NewStyle().Foreground(border),
	}
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Name:        VariantRetroTerminal,
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		Prompt:      lipgloss.NewStyle().Foreground(lime).Bold(true),
		Command:     lipgloss.NewStyle().Foreground(amber),
		Body:        lipgloss.NewStyle().Foreground(glow),
		Info:        lipgloss.NewStyle().Foreground(amber),
		Success:     lipgloss.NewStyle().Foreground(lime).Bold(true),
		Error:       lipgloss.NewStyle().Foreground(red).Bold(true),
		Pre:         lipgloss.NewStyle().Foreground(glow),
		Banner:      lipgloss.NewStyle().Foreground(deep),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		TableHeader: lipgloss.NewStyle().Foreground(amber).Bold(true).Padding(0, 1),
		TableCell:   lipgloss.NewStyle().Foreground(glow).Padding(0, 1),
		TableBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F5C2F")),
	}
}

func catppuccinTheme() Theme {
	flavor := catppuccin.Mocha
	c := func(col catppuccin.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(col.Hex))
	}

	return Theme{
		Name: VariantCatppuccin,
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(flavor.Mantle().Hex)).
			Foreground(lipgloss.Color(flavor.Text().Hex)).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color(flavor.Surface0().Hex)).
			Foreground(lipgloss.Color(flavor.Subtext1().Hex)).
			Padding(0, 1),
		Prompt:      c(flavor.Green()).Bold(true),
		Command:     c(flavor.Peach()),
		Body:        c(flavor.Text()),
		Info:        c(flavor.Sapphire()),
		Success:     c(flavor.Green()).Bold(true),
		Error:       c(flavor.Red()).Bold(true),
		Pre:         c(flavor.Text()),
		Banner:      c(flavor.Base()),
		Muted:       c(flavor.Overlay1()),
		TableHeader: c(flavor.Mauve()).Bold(true).Padding(0, 1),
		TableCell:   c(flavor.Text()).Padding(0, 1),
		TableBorder: c(flavor.Surface2()),
	}
}

// plainTheme carries no colour. It is used when output is not a terminal.
func plainTheme() Theme {
	none := lipgloss.NewStyle()
	return Theme{
		Name:        VariantPlain,
		Header:      none,
		Status:      none,
		Prompt:      none,
		Command:     none,
		Body:        none,
		Info:        none,
		Success:     none,
		Error:       none,
		Pre:         none,
		Banner:      none,
		Muted:       none,
		TableHeader: none.Padding(0, 1),
		TableCell:   none.Padding(0, 1),
		TableBorder: none,
		Plain:       true,
	}
}
