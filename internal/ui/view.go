package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"ctfterm/internal/history"
	"ctfterm/internal/render"
	"ctfterm/internal/shell"
	"ctfterm/internal/telemetry"
)

type applyMsg struct {
	fn func(*Root)
}

type keyMap struct {
	Submit   key.Binding
	Recall   key.Binding
	Forward  key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Recall, k.PageUp, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Recall, k.Forward}, {k.PageUp, k.PageDown, k.Quit}}
}

var defaultPrompt = shell.Prompt{Label: render.DefaultPrompt}

type Options struct {
	Theme    render.Theme
	Markdown bool
	// History backs up/down recall. It is shared with the interpreter.
	History         *history.Buffer
	Title           string
	Debug           bool
	Logger          *telemetry.Logger
	TranscriptLimit int
}

// Root is the full-screen terminal. The interpreter drives it through the
// shell.Terminal methods from its own goroutine; those calls are forwarded
// into the Bubble Tea loop while the program runs.
type Root struct {
	theme  render.Theme
	format *render.Formatter
	hist   *history.Buffer
	ctrl   Controller
	logger *telemetry.Logger
	title  string
	debug  bool

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	transcript *render.Transcript
	rendered   []string

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	help     help.Model
	keymap   keyMap

	prompt    shell.Prompt
	accepting bool
	busy      bool

	statusFlash    string
	lastInputEvent string
}

func New(opts Options) *Root {
	theme := opts.Theme
	if theme.Name == "" {
		theme = render.DefaultTheme()
	}
	hist := opts.History
	if hist == nil {
		hist = history.New()
	}
	limit := opts.TranscriptLimit
	if limit <= 0 {
		limit = render.DefaultTranscriptLimit
	}
	title := opts.Title
	if title == "" {
		title = "CTF Terminal"
	}

	input := textinput.New()
	input.Prompt = ""
	input.Focus()

	vp := viewport.New()
	vp.MouseWheelEnabled = true

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	r := &Root{
		theme:      theme,
		format:     render.NewFormatter(render.FormatterOptions{Theme: theme, Markdown: opts.Markdown}),
		hist:       hist,
		logger:     opts.Logger,
		title:      title,
		debug:      opts.Debug,
		transcript: render.NewTranscript(limit),
		input:      input,
		viewport:   vp,
		spin:       spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Info)),
		help:       h,
		prompt:     defaultPrompt,
	}
	r.keymap = keyMap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "run")),
		Recall:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "history")),
		Forward:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "newer")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp/PgDn", "scroll")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "scroll down")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("Ctrl+C", "quit")),
	}
	r.resize(100, 30)
	return r
}

func (r *Root) Init() tea.Cmd {
	return r.spin.Tick
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.resize(msg.Width, msg.Height)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, nil
	case spinner.TickMsg:
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.MouseWheelMsg:
		r.viewport, cmd = r.viewport.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Error.Render(trimForWidth(msg, max(1, r.cols-1))))
		}
	}()

	v := tea.NewView(r.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.WindowTitle = r.title
	return v
}

func (r *Root) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r, tea.WithContext(ctx))
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) Append(b render.Block) {
	r.apply(func(r *Root) {
		r.transcript.Append(b)
		r.rendered = append(r.rendered, r.format.Format(b))
		if extra := len(r.rendered) - r.transcript.Len(); extra > 0 {
			r.rendered = append([]string(nil), r.rendered[extra:]...)
		}
		r.refresh()
	})
}

func (r *Root) Clear() {
	r.apply(func(r *Root) {
		r.transcript.Clear()
		r.rendered = nil
		r.refresh()
	})
}

func (r *Root) SetPrompt(p shell.Prompt) {
	r.apply(func(r *Root) { r.setPrompt(p) })
}

func (r *Root) AwaitInput() {
	r.apply(func(r *Root) { r.accepting = true })
}

func (r *Root) SetBusy(busy bool) {
	r.apply(func(r *Root) { r.busy = busy })
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	fn(r.ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.lastInputEvent = trimForWidth(msg.String(), 80)

	switch {
	case key.Matches(msg, r.keymap.Quit):
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, tea.Quit
	case key.Matches(msg, r.keymap.Submit):
		r.submit()
		return r, nil
	case key.Matches(msg, r.keymap.Recall):
		if !r.prompt.Masked {
			if prev, ok := r.hist.Prev(); ok {
				r.input.SetValue(prev)
				r.input.CursorEnd()
			}
		}
		return r, nil
	case key.Matches(msg, r.keymap.Forward):
		if !r.prompt.Masked {
			r.input.SetValue(r.hist.Next())
			r.input.CursorEnd()
		}
		return r, nil
	case key.Matches(msg, r.keymap.PageUp):
		r.viewport.PageUp()
		return r, nil
	case key.Matches(msg, r.keymap.PageDown):
		r.viewport.PageDown()
		return r, nil
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

// submit hands the current line to the controller. Lines typed while a
// command is still running stay in the input until it finishes.
func (r *Root) submit() {
	if !r.accepting {
		r.statusFlash = "still working, wait for the current command"
		return
	}
	line := r.input.Value()
	r.input.Reset()
	r.accepting = false
	r.statusFlash = ""
	r.setPrompt(defaultPrompt)
	r.viewport.GotoBottom()
	r.dispatchController(func(c Controller) { c.OnSubmitLine(line) })
}

func (r *Root) setPrompt(p shell.Prompt) {
	if p.Label == "" {
		p.Label = render.DefaultPrompt
	}
	r.prompt = p
	if p.Masked {
		r.input.EchoMode = textinput.EchoPassword
	} else {
		r.input.EchoMode = textinput.EchoNormal
	}
	r.setInputWidth()
}

func (r *Root) resize(cols, rows int) {
	r.cols, r.rows = max(1, cols), max(1, rows)
	r.layout = DetermineLayoutMode(r.cols, r.rows)
	r.viewport.SetWidth(r.cols)
	r.viewport.SetHeight(max(1, r.rows-chromeRows(r.layout)))
	r.help.SetWidth(r.cols)
	r.format.SetWidth(max(20, r.cols-1))
	r.setInputWidth()

	blocks := r.transcript.Blocks()
	r.rendered = make([]string, 0, len(blocks))
	for _, b := range blocks {
		r.rendered = append(r.rendered, r.format.Format(b))
	}
	r.refresh()
}

func (r *Root) setInputWidth() {
	r.input.SetWidth(max(1, r.cols-ansi.StringWidth(r.prompt.Label)-2))
}

func (r *Root) refresh() {
	r.viewport.SetContent(strings.Join(r.rendered, "\n"))
	r.viewport.GotoBottom()
}

func (r *Root) render() string {
	if r.layout == LayoutTooSmall {
		msg := strings.Join([]string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", r.cols, r.rows),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
		}, "\n")
		return lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, msg)
	}
	parts := make([]string, 0, 4)
	if r.layout == LayoutWide {
		parts = append(parts, r.headerText())
	}
	parts = append(parts, r.viewport.View(), r.inputLine(), r.statusText())
	return strings.Join(parts, "\n")
}

func (r *Root) headerText() string {
	txt := r.title
	if !r.viewport.AtBottom() {
		txt += fmt.Sprintf(" | scrolled %d%%", int(r.viewport.ScrollPercent()*100))
	}
	if r.debug {
		txt += fmt.Sprintf(" | %dx%d %v | %d blocks", r.cols, r.rows, r.layout, r.transcript.Len())
	}
	return r.theme.Header.Width(r.cols).Render(trimForWidth(txt, max(1, r.cols-1)))
}

func (r *Root) inputLine() string {
	return r.theme.Prompt.Render(r.prompt.Label) + " " + r.input.View()
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if r.busy {
		keys = r.spin.View() + " Working... | " + keys
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	return r.theme.Status.Width(r.cols).Render(trimForWidth(keys, max(1, r.cols-1)))
}

func trimForWidth(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered", map[string]any{
		"where":       where,
		"panic":       fmt.Sprintf("%v", recovered),
		"messageType": msgType,
		"layout":      r.layout.String(),
		"cols":        r.cols,
		"rows":        r.rows,
		"last_input":  r.lastInputEvent,
		"stack":       string(debug.Stack()),
	})
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
