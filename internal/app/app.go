package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctfterm/internal/api"
	"ctfterm/internal/history"
	"ctfterm/internal/render"
	"ctfterm/internal/shell"
	"ctfterm/internal/state"
	"ctfterm/internal/telemetry"
	"ctfterm/internal/term"
	"ctfterm/internal/ui"
)

type App struct {
	cfg Config

	logger *telemetry.Logger
	store  *state.SQLiteStore
	client *api.Client
	hist   *history.Buffer
	interp *shell.Interpreter
	front  Frontend
	mode   DisplayMode

	sessionID string
	lines     chan string

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(cfg Config, streams Streams) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	logger = logger.With(map[string]any{"session": sessionID})

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("prepare state store: %w", err)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		hist:      history.New(),
		sessionID: sessionID,
		lines:     make(chan string, 1),
	}
	a.client = api.New(api.Options{
		BaseURL: cfg.APIBase,
		Timeout: cfg.Timeout,
		Version: cfg.Version,
		Logger:  logger,
	})

	inTTY, outTTY := streams.ttys()
	mode, _ := parseDisplayMode(cfg.Display)
	a.mode = ResolveDisplayMode(mode, inTTY, outTTY)
	theme := render.ThemeForVariant(cfg.UI.StyleVariant)

	if a.mode == DisplayTUI {
		a.front = &tuiFrontend{
			Root: ui.New(ui.Options{
				Theme:    theme,
				Markdown: cfg.UI.Markdown,
				History:  a.hist,
				Title:    "CTF Terminal | " + shell.Product,
				Debug:    cfg.UI.DebugLayout,
				Logger:   logger,
			}),
			onQuit: a.OnQuit,
		}
	} else {
		if !outTTY {
			theme = render.ThemeForVariant(render.VariantPlain)
		}
		a.front = consoleFrontend{Console: term.New(term.Options{
			In:       streams.In,
			Out:      streams.Out,
			Theme:    theme,
			Markdown: cfg.UI.Markdown,
		})}
	}

	a.interp = shell.New(shell.Options{
		History:  a.hist,
		API:      a.client,
		Terminal: a.front,
		Store:    store,
		Logger:   logger,
		Markdown: cfg.UI.Markdown,
	})
	return a, nil
}

func (a *App) Mode() DisplayMode { return a.mode }

// Run drives the interpreter until the user quits, input ends or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("app.start", map[string]any{
		"mode":     string(a.mode),
		"api_base": a.client.BaseURL(),
		"version":  a.cfg.Version,
	})

	interpDone := make(chan error, 1)
	go func() { interpDone <- a.interp.Run(ctx, a.lines) }()
	frontDone := make(chan error, 1)
	go func() { frontDone <- a.front.Run(ctx, a.submit) }()

	var frontErr, interpErr error
	select {
	case frontErr = <-frontDone:
		// nothing submits after the frontend returns
		close(a.lines)
		interpErr = <-interpDone
	case interpErr = <-interpDone:
		cancel()
		a.front.Stop()
		select {
		case frontErr = <-frontDone:
		case <-time.After(time.Second):
		}
	}

	a.logger.Info("app.stop", map[string]any{"history": a.hist.Len()})
	return errors.Join(frontErr, interpErr)
}

func (a *App) submit(line string) {
	select {
	case a.lines <- line:
	default:
		a.logger.Warn("input.dropped", nil)
	}
}

// OnQuit aborts any in-flight request and ends the run.
func (a *App) OnQuit() {
	a.logger.Info("app.quit", nil)
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *App) Close() {
	_ = a.store.Close()
	_ = a.logger.Close()
}
