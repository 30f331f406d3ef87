// Package term runs the interpreter on a plain, line-oriented terminal for
// pipes, dumb terminals and screen readers.
package term

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	xterm "golang.org/x/term"

	"ctfterm/internal/render"
	"ctfterm/internal/shell"
)

type Options struct {
	In       io.Reader
	Out      io.Writer
	Theme    render.Theme
	Markdown bool
	// Width wraps output; zero leaves lines alone.
	Width int
}

// Console implements shell.Terminal over a reader and a writer. When the
// input is a terminal the user's own typing already shows the command, so
// echo blocks are skipped and the prompt label is printed instead.
type Console struct {
	out    io.Writer
	reader *bufio.Reader
	fd     int
	tty    bool
	format *render.Formatter

	readPassword func(fd int) ([]byte, error)

	mu     sync.Mutex
	prompt shell.Prompt
	busy   bool

	ready chan struct{}
}

func New(opts Options) *Console {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	theme := opts.Theme
	if theme.Name == "" {
		theme = render.ThemeForVariant(render.VariantPlain)
	}
	c := &Console{
		out:          out,
		reader:       bufio.NewReader(in),
		fd:           -1,
		format:       render.NewFormatter(render.FormatterOptions{Theme: theme, Width: opts.Width, Markdown: opts.Markdown}),
		readPassword: xterm.ReadPassword,
		prompt:       shell.Prompt{Label: render.DefaultPrompt},
		ready:        make(chan struct{}, 1),
	}
	if f, ok := in.(*os.File); ok {
		c.fd = int(f.Fd())
		c.tty = IsTerminal(f)
	}
	return c
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) Append(b render.Block) {
	if c.tty && b.Kind == render.KindEcho {
		return
	}
	c.write(c.format.Format(b) + "\n")
}

func (c *Console) Clear() {
	if c.tty {
		c.write(ansi.EraseEntireScreen + ansi.CursorHomePosition)
	}
}

func (c *Console) SetPrompt(p shell.Prompt) {
	if p.Label == "" {
		p.Label = render.DefaultPrompt
	}
	c.mu.Lock()
	c.prompt = p
	c.mu.Unlock()
}

func (c *Console) AwaitInput() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

func (c *Console) SetBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
}

func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Serve reads one line each time input is requested and passes it to submit.
// It returns nil at end of input or when ctx is done.
func (c *Console) Serve(ctx context.Context, submit func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.ready:
		}

		c.mu.Lock()
		p := c.prompt
		c.mu.Unlock()
		if c.tty {
			c.write(c.format.Theme().Prompt.Render(p.Label) + " ")
		}

		line, err := c.readLine(p.Masked)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		submit(line)
	}
}

func (c *Console) readLine(masked bool) (string, error) {
	if masked && c.tty && c.fd >= 0 {
		b, err := c.readPassword(c.fd)
		c.write("\n")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	s, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

var _ shell.Terminal = (*Console)(nil)
