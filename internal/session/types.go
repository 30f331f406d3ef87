package session

import "time"

type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
)

// UserProfile is a read-only snapshot from the server.
type UserProfile struct {
	ID     string
	Name   string
	Email  string
	Branch string
	Year   string
}

type ChallengeProgress struct {
	CurrentLevel     int
	TotalTimeTakenMs int64
	AvailableHints   int
	HintsUsed        []int
	// CurrentQuestionStartTime is non-nil while a task is open.
	CurrentQuestionStartTime *time.Time
}

// MaxHints is the per-player hint allowance shown by progress.
const MaxHints = 3
