package app

import (
	"context"
	"io"
	"os"

	"ctfterm/internal/term"
	"ctfterm/internal/ui"
)

// Streams are the process's standard files. Tests swap in buffers.
type Streams struct {
	In  io.Reader
	Out io.Writer
}

func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout}
}

func (s Streams) ttys() (in, out bool) {
	if f, ok := s.In.(*os.File); ok {
		in = term.IsTerminal(f)
	}
	if f, ok := s.Out.(*os.File); ok {
		out = term.IsTerminal(f)
	}
	return in, out
}

type tuiFrontend struct {
	*ui.Root
	onQuit func()
}

type controller struct {
	submit func(string)
	quit   func()
}

func (c controller) OnSubmitLine(line string) { c.submit(line) }
func (c controller) OnQuit()                  { c.quit() }

func (t *tuiFrontend) Run(ctx context.Context, submit func(string)) error {
	t.SetController(controller{submit: submit, quit: t.onQuit})
	return t.Root.Run(ctx)
}

type consoleFrontend struct {
	*term.Console
}

func (c consoleFrontend) Run(ctx context.Context, submit func(string)) error {
	return c.Serve(ctx, submit)
}

// Stop is a no-op; a pending read ends with the process.
func (c consoleFrontend) Stop() {}

var (
	_ Frontend = (*tuiFrontend)(nil)
	_ Frontend = consoleFrontend{}
)
