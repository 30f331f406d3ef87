package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
)

const defaultWrap = 78

type FormatterOptions struct {
	Theme Theme
	// Width wraps long lines; zero disables wrapping.
	Width    int
	Markdown bool
}

// Formatter turns blocks into styled strings.
type Formatter struct {
	theme    Theme
	width    int
	markdown *glamour.TermRenderer
}

func NewFormatter(opts FormatterOptions) *Formatter {
	f := &Formatter{theme: opts.Theme, width: opts.Width}
	if opts.Markdown {
		style := "dark"
		if opts.Theme.Plain {
			style = "notty"
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(defaultWrap),
		)
		if err == nil {
			f.markdown = renderer
		}
	}
	return f
}

func (f *Formatter) Theme() Theme { return f.theme }

func (f *Formatter) SetWidth(width int) {
	if width < 0 {
		width = 0
	}
	f.width = width
}

// Format renders one block. The result never ends in a newline.
func (f *Formatter) Format(b Block) string {
	switch b.Kind {
	case KindEcho:
		label := b.Label
		if label == "" {
			label = DefaultPrompt
		}
		return f.theme.Prompt.Render(label) + " " + f.theme.Command.Render(b.Text)
	case KindPre:
		return f.formatPre(b)
	case KindTable:
		return f.formatTable(b)
	default:
		return f.formatLine(b)
	}
}

// FormatAll joins rendered blocks with newlines.
func (f *Formatter) FormatAll(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, f.Format(b))
	}
	return strings.Join(parts, "\n")
}

func (f *Formatter) formatLine(b Block) string {
	if b.Text == "" {
		return ""
	}
	return renderLines(f.styleFor(b.Style), f.wrap(b.Text))
}

func (f *Formatter) formatPre(b Block) string {
	if b.Markdown && f.markdown != nil {
		if out, err := f.markdown.Render(b.Text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	if b.Style == StyleBanner {
		return renderLines(f.theme.Banner, b.Text)
	}
	return renderLines(f.theme.Pre, f.wrap(b.Text))
}

// renderLines styles each line on its own so multi-line blocks are not
// padded out to a common width.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) formatTable(b Block) string {
	theme := f.theme
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		}).
		Headers(b.Headers...).
		Rows(b.Rows...)
	return t.String()
}

func (f *Formatter) styleFor(s Style) lipgloss.Style {
	switch s {
	case StyleInfo:
		return f.theme.Info
	case StyleSuccess:
		return f.theme.Success
	case StyleError:
		return f.theme.Error
	default:
		return f.theme.Body
	}
}

func (f *Formatter) wrap(s string) string {
	if f.width <= 0 {
		return s
	}
	return wordwrap.String(s, f.width)
}

// FormatDuration renders milliseconds as HH:MM:SS. Hours are not capped.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatClock pads an already split duration the same way.
func FormatClock(hours, minutes, seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// StripANSI removes styling so plain consumers and tests see bare text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}
