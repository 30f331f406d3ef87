package shell

import (
	"context"

	"ctfterm/internal/api"
	"ctfterm/internal/render"
)

// Prompt describes the visible input label.
type Prompt struct {
	Label  string
	Masked bool
}

// Terminal is the surface the interpreter draws on and reads from.
type Terminal interface {
	render.Output
	// SetPrompt changes the label and echo mode of the input line.
	SetPrompt(Prompt)
	// AwaitInput announces that exactly one line may now be submitted.
	AwaitInput()
	// SetBusy shows or hides the in-flight indicator.
	SetBusy(bool)
}

type API interface {
	Details(ctx context.Context, token string) (*api.DetailsResponse, error)
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Question(ctx context.Context, token string) (*api.QuestionResponse, error)
	Hint(ctx context.Context, token string) (*api.HintResponse, error)
	CheckFlag(ctx context.Context, token, flag string) (*api.CheckFlagResponse, error)
	Leaderboard(ctx context.Context) (*api.LeaderboardResponse, error)
}

var _ API = (*api.Client)(nil)
