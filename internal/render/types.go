// Package render turns output blocks into themed terminal text.
package render

// DefaultPrompt is the idle prompt label.
const DefaultPrompt = "root@ctf:~$"

type Kind int

const (
	KindLine Kind = iota
	KindEcho
	KindPre
	KindTable
)

type Style string

const (
	StyleNone    Style = ""
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleError   Style = "error"
	// StyleBanner is only meaningful on preformatted blocks.
	StyleBanner Style = "banner"
)

type Block struct {
	Kind  Kind
	Style Style
	Text  string
	// Label prefixes echo blocks; empty means DefaultPrompt.
	Label string
	// Markdown marks preformatted text that may be rendered as Markdown.
	Markdown bool
	Headers  []string
	Rows     [][]string
}

// Output is anything that can show blocks.
type Output interface {
	Append(Block)
	Clear()
}

func Line(style Style, text string) Block {
	return Block{Kind: KindLine, Style: style, Text: text}
}

func Text(text string) Block { return Line(StyleNone, text) }

func Info(text string) Block { return Line(StyleInfo, text) }

func Success(text string) Block { return Line(StyleSuccess, text) }

func Error(text string) Block { return Line(StyleError, text) }

func Blank() Block { return Line(StyleNone, "") }

func Echo(label, text string) Block {
	return Block{Kind: KindEcho, Label: label, Text: text}
}

func Pre(text string) Block {
	return Block{Kind: KindPre, Text: text}
}

func Banner(text string) Block {
	return Block{Kind: KindPre, Style: StyleBanner, Text: text}
}

func Markdown(text string) Block {
	return Block{Kind: KindPre, Text: text, Markdown: true}
}

func Table(headers []string, rows [][]string) Block {
	return Block{Kind: KindTable, Headers: headers, Rows: rows}
}
