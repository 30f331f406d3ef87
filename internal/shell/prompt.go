package shell

import (
	"context"

	"ctfterm/internal/render"
)

var defaultPrompt = Prompt{Label: render.DefaultPrompt}

// prompt suspends the current handler until one line arrives. Only one prompt
// may be outstanding. The default label is back in place when it returns.
func (in *Interpreter) prompt(ctx context.Context, label string, masked bool) (string, error) {
	in.mu.Lock()
	if in.pending {
		in.mu.Unlock()
		return "", ErrPromptPending
	}
	in.pending = true
	in.mu.Unlock()

	defer func() {
		in.mu.Lock()
		in.pending = false
		in.mu.Unlock()
		in.term.SetPrompt(defaultPrompt)
	}()

	in.term.SetPrompt(Prompt{Label: label, Masked: masked})
	in.term.AwaitInput()

	var line string
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-in.lines:
		if !ok {
			return "", ErrInputClosed
		}
		line = l
	}
	if !masked {
		in.out(render.Echo(label, line))
	}
	return line, nil
}
