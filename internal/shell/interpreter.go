// Package shell turns input lines into commands against the CTF service.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	shlex "github.com/anmitsu/go-shlex"

	"ctfterm/internal/api"
	"ctfterm/internal/history"
	"ctfterm/internal/render"
	"ctfterm/internal/session"
	"ctfterm/internal/state"
	"ctfterm/internal/telemetry"
)

var (
	ErrPromptPending = errors.New("a prompt is already waiting for input")
	ErrInputClosed   = errors.New("input closed")
)

type Options struct {
	Session  *session.Session
	History  *history.Buffer
	API      API
	Terminal Terminal
	Store    state.Store
	Logger   *telemetry.Logger
	Now      func() time.Time
	// Markdown renders story and question text as Markdown.
	Markdown bool
}

type command struct {
	name        string
	description string
	hidden      bool
	run         func(ctx context.Context, args []string)
}

// Interpreter owns the session. All of its methods run on the goroutine
// that called Run.
type Interpreter struct {
	sess     *session.Session
	hist     *history.Buffer
	api      API
	term     Terminal
	store    state.Store
	logger   *telemetry.Logger
	now      func() time.Time
	markdown bool

	lines <-chan string

	mu      sync.Mutex
	pending bool

	commands map[string]command
	order    []string
}

func New(opts Options) *Interpreter {
	in := &Interpreter{
		sess:     opts.Session,
		hist:     opts.History,
		api:      opts.API,
		term:     opts.Terminal,
		store:    opts.Store,
		logger:   opts.Logger,
		now:      opts.Now,
		markdown: opts.Markdown,
	}
	if in.sess == nil {
		in.sess = session.New()
	}
	if in.hist == nil {
		in.hist = history.New()
	}
	if in.now == nil {
		in.now = time.Now
	}
	in.register()
	return in
}

func (in *Interpreter) Session() *session.Session { return in.sess }

// Run performs startup and then processes lines until the channel closes or
// ctx is cancelled. Prompts read from the same channel, so a line is always
// handled to completion before the next one is consumed.
func (in *Interpreter) Run(ctx context.Context, lines <-chan string) error {
	in.lines = lines
	in.Startup(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		in.term.AwaitInput()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			in.Handle(ctx, line)
		}
	}
}

// Startup shows the banner and re-validates a persisted token once.
func (in *Interpreter) Startup(ctx context.Context) {
	in.showBanner()

	token, err := state.LoadToken(ctx, in.store)
	if err != nil {
		in.logger.Warn("session.restore", map[string]any{"error": err.Error()})
	}
	if token == "" {
		in.clearPersisted(ctx)
		in.out(render.Info("Type 'login' to begin"), render.Blank())
		return
	}

	in.out(render.Text("Authenticating..."))
	res, err := busy(in, func() (*api.DetailsResponse, error) { return in.api.Details(ctx, token) })
	if err == nil && res.OK() {
		_ = in.sess.Restore(token, profileFrom(res.User), progressFrom(res.CTFProgress))
		in.out(render.Success("Logged in as " + res.User.EmailID))
		entries, herr := state.LoadHistory(ctx, in.store)
		if herr != nil {
			in.logger.Warn("session.restore_history", map[string]any{"error": herr.Error()})
		}
		in.hist.Restore(entries)
		in.logger.Info("session.restore", map[string]any{"outcome": "authenticated", "history": in.hist.Len()})
		return
	}

	fields := map[string]any{"outcome": "failed"}
	if err != nil {
		fields["error"] = err.Error()
		in.out(render.Error("Error: " + describe(err)))
	} else {
		fields["message"] = res.Message
	}
	in.logger.Warn("session.restore", fields)
	in.logout(ctx)
	in.out(
		render.Error("Something went wrong while authenticating :("),
		render.Info("Type 'login' to authenticate"),
		render.Blank(),
	)
}

// Handle processes one command line.
func (in *Interpreter) Handle(ctx context.Context, raw string) {
	line := strings.TrimSpace(raw)
	in.out(render.Echo(render.DefaultPrompt, line))

	name, args := splitLine(line)
	if name == "" {
		return
	}
	in.hist.Record(line)
	// Rewritten on every command so a logout-cleared store catches up.
	if err := state.SaveHistory(ctx, in.store, in.hist.Persisted()); err != nil {
		in.warnPersist("history", err)
	}
	cmd, ok := in.commands[strings.ToLower(name)]
	if !ok {
		in.logger.Debug("shell.unknown_command", map[string]any{"command": name})
		hint := "Type help for available commands."
		if s := in.suggest(name); s != "" {
			hint += " Did you mean " + s + "?"
		}
		in.out(render.Error("Command not found: "+name), render.Info(hint), render.Blank())
		return
	}

	start := in.now()
	cmd.run(ctx, args)
	in.logger.Info("shell.dispatch", map[string]any{
		"command":     cmd.name,
		"args":        len(args),
		"phase":       string(in.sess.Phase()),
		"duration_ms": in.now().Sub(start).Milliseconds(),
	})
}

// Commands lists the visible commands in help order.
func (in *Interpreter) Commands() []string {
	out := make([]string, 0, len(in.order))
	for _, name := range in.order {
		if !in.commands[name].hidden {
			out = append(out, name)
		}
	}
	return out
}

func (in *Interpreter) out(blocks ...render.Block) {
	for _, b := range blocks {
		in.term.Append(b)
	}
}

// busy marks the terminal busy for the duration of fn.
func busy[T any](in *Interpreter, fn func() (T, error)) (T, error) {
	in.term.SetBusy(true)
	defer in.term.SetBusy(false)
	return fn()
}

func (in *Interpreter) logout(ctx context.Context) {
	in.sess.Logout()
	in.clearPersisted(ctx)
}

func (in *Interpreter) clearPersisted(ctx context.Context) {
	if err := state.ClearSession(ctx, in.store); err != nil {
		in.warnPersist("session", err)
	}
}

func (in *Interpreter) warnPersist(what string, err error) {
	in.logger.Error("state.write", map[string]any{"what": what, "error": err.Error()})
	in.out(render.Info("warning: could not update saved " + what + ": " + err.Error()))
}

func (in *Interpreter) suggest(name string) string {
	name = strings.ToLower(name)
	best, bestDist := "", 3
	for _, candidate := range in.Commands() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// splitLine takes the command name as the first whitespace-separated word,
// exactly as typed. Arguments follow shell quoting rules and fall back to
// plain whitespace splitting when they do not parse.
func splitLine(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), name))
	args, err := shlex.Split(rest, true)
	if err != nil {
		args = fields[1:]
	}
	if args == nil {
		args = []string{}
	}
	return name, args
}
