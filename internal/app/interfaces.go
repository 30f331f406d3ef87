package app

import (
	"context"

	"ctfterm/internal/shell"
)

// Frontend is where command lines come from and output goes to.
type Frontend interface {
	shell.Terminal
	// Run blocks until the user quits or input ends. submit must not block.
	Run(ctx context.Context, submit func(string)) error
	Stop()
}
