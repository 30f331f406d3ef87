package ui

import (
	"context"

	"ctfterm/internal/shell"
)

// Controller receives what the user does in the view. Calls happen on the
// UI goroutine and must not block.
type Controller interface {
	OnSubmitLine(line string)
	OnQuit()
}

type View interface {
	shell.Terminal
	Run(ctx context.Context) error
	Stop()
	SetController(Controller)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutCompact:
		return "compact"
	default:
		return "too-small"
	}
}
