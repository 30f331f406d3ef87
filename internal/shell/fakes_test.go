package shell

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ctfterm/internal/api"
	"ctfterm/internal/history"
	"ctfterm/internal/render"
	"ctfterm/internal/session"
	"ctfterm/internal/state"
)

type fakeTerminal struct {
	mu        sync.Mutex
	blocks    []render.Block
	prompts   []Prompt
	busy      bool
	busyCalls int
	awaits    chan struct{}
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{awaits: make(chan struct{}, 256)}
}

func (f *fakeTerminal) Append(b render.Block) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, b)
}

func (f *fakeTerminal) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = nil
}

func (f *fakeTerminal) SetPrompt(p Prompt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
}

func (f *fakeTerminal) AwaitInput() {
	f.awaits <- struct{}{}
}

func (f *fakeTerminal) SetBusy(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = b
	if b {
		f.busyCalls++
	}
}

func (f *fakeTerminal) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.blocks))
	for _, b := range f.blocks {
		switch b.Kind {
		case render.KindEcho:
			out = append(out, b.Label+" "+b.Text)
		default:
			out = append(out, b.Text)
		}
	}
	return out
}

func (f *fakeTerminal) count(substr string) int {
	n := 0
	for _, s := range f.texts() {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func (f *fakeTerminal) has(substr string) bool { return f.count(substr) > 0 }

func (f *fakeTerminal) tables() []render.Block {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []render.Block
	for _, b := range f.blocks {
		if b.Kind == render.KindTable {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeTerminal) lastPrompt() Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return Prompt{}
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeTerminal) promptLabels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.prompts))
	for _, p := range f.prompts {
		out = append(out, p.Label)
	}
	return out
}

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	lastEmail    string
	lastPassword string
	lastFlag     string
	lastToken    string

	details     func() (*api.DetailsResponse, error)
	login       func() (*api.LoginResponse, error)
	question    func() (*api.QuestionResponse, error)
	hint        func() (*api.HintResponse, error)
	checkFlag   func() (*api.CheckFlagResponse, error)
	leaderboard func() (*api.LeaderboardResponse, error)
}

var errUnexpectedCall = errors.New("unexpected call")

func (f *fakeAPI) record(name, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	f.lastToken = token
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) Details(_ context.Context, token string) (*api.DetailsResponse, error) {
	f.record("details", token)
	if f.details == nil {
		return nil, errUnexpectedCall
	}
	return f.details()
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*api.LoginResponse, error) {
	f.record("login", "")
	f.mu.Lock()
	f.lastEmail, f.lastPassword = email, password
	f.mu.Unlock()
	if f.login == nil {
		return nil, errUnexpectedCall
	}
	return f.login()
}

func (f *fakeAPI) Question(_ context.Context, token string) (*api.QuestionResponse, error) {
	f.record("question", token)
	if f.question == nil {
		return nil, errUnexpectedCall
	}
	return f.question()
}

func (f *fakeAPI) Hint(_ context.Context, token string) (*api.HintResponse, error) {
	f.record("hint", token)
	if f.hint == nil {
		return nil, errUnexpectedCall
	}
	return f.hint()
}

func (f *fakeAPI) CheckFlag(_ context.Context, token, flag string) (*api.CheckFlagResponse, error) {
	f.record("check-flag", token)
	f.mu.Lock()
	f.lastFlag = flag
	f.mu.Unlock()
	if f.checkFlag == nil {
		return nil, errUnexpectedCall
	}
	return f.checkFlag()
}

func (f *fakeAPI) Leaderboard(context.Context) (*api.LeaderboardResponse, error) {
	f.record("leaderboard", "")
	if f.leaderboard == nil {
		return nil, errUnexpectedCall
	}
	return f.leaderboard()
}

func envelope(ok bool, msg string) api.Envelope {
	return api.Envelope{Success: &ok, Message: msg}
}

func testUser() *api.User {
	return &api.User{ID: "u1", Name: "Ada", EmailID: "ada@example.com", Branch: "CSE", Year: "3"}
}

func validDetails() (*api.DetailsResponse, error) {
	return &api.DetailsResponse{
		Envelope:    envelope(true, ""),
		User:        testUser(),
		CTFProgress: &api.Progress{CurrLevel: 2, TotalTimeTaken: 3723000, AvailableHints: 2},
	}, nil
}

type harness struct {
	t      *testing.T
	in     *Interpreter
	term   *fakeTerminal
	api    *fakeAPI
	store  *state.SQLiteStore
	hist   *history.Buffer
	lines  chan string
	cancel context.CancelFunc
	done   chan error

	finished bool
}

type harnessOption func(*harness)

func withToken(token string) harnessOption {
	return func(h *harness) {
		if err := state.SaveToken(context.Background(), h.store, token); err != nil {
			h.t.Fatalf("seed token: %v", err)
		}
	}
}

func withSetting(key, value string) harnessOption {
	return func(h *harness) {
		if err := h.store.SaveSettings(context.Background(), map[string]string{key: value}); err != nil {
			h.t.Fatalf("seed setting: %v", err)
		}
	}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, fake *fakeAPI, opts ...harnessOption) *harness {
	t.Helper()
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	h := &harness{
		t:     t,
		term:  newFakeTerminal(),
		api:   fake,
		store: store,
		hist:  history.New(),
		lines: make(chan string),
		done:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.in = New(Options{
		Session:  session.New(),
		History:  h.hist,
		API:      fake,
		Terminal: h.term,
		Store:    store,
		Now:      func() time.Time { return fixedNow },
	})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.in.Run(ctx, h.lines) }()
	h.waitAwait()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) waitAwait() {
	h.t.Helper()
	select {
	case <-h.term.awaits:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("interpreter did not ask for input")
	}
}

// send delivers one line and waits until the interpreter asks for the next.
func (h *harness) send(line string) {
	h.t.Helper()
	select {
	case h.lines <- line:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("interpreter did not accept %q", line)
	}
	h.waitAwait()
}

func (h *harness) stop() {
	h.cancel()
	if h.finished {
		return
	}
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		h.t.Errorf("interpreter did not stop")
	}
}

func (h *harness) storedToken() string {
	tok, err := state.LoadToken(context.Background(), h.store)
	if err != nil {
		h.t.Fatalf("load token: %v", err)
	}
	return tok
}

func (h *harness) storedHistory() []string {
	entries, err := state.LoadHistory(context.Background(), h.store)
	if err != nil {
		h.t.Fatalf("load history: %v", err)
	}
	return entries
}
