// Package session holds the authenticated state of one interactive run.
package session

import (
	"errors"
	"time"
)

var (
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	ErrNotAuthenticating    = errors.New("no login in progress")
	ErrEmptyToken           = errors.New("empty session token")
)

// Session is owned by the interpreter goroutine and is not safe for
// concurrent use.
type Session struct {
	phase    Phase
	token    string
	user     *UserProfile
	progress *ChallengeProgress
}

func New() *Session {
	return &Session{phase: PhaseAnonymous}
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Token() string { return s.token }

func (s *Session) LoggedIn() bool {
	return s.phase == PhaseAuthenticated && s.token != ""
}

// User returns a copy of the cached profile, or nil.
func (s *Session) User() *UserProfile {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Progress returns the live progress record. Callers mutate the open-task
// flag through MarkTaskOpen / MarkTaskClosed.
func (s *Session) Progress() *ChallengeProgress {
	return s.progress
}

// BeginLogin moves an anonymous session into the authenticating phase.
func (s *Session) BeginLogin() error {
	if s.phase != PhaseAnonymous {
		return ErrAlreadyAuthenticated
	}
	s.phase = PhaseAuthenticating
	return nil
}

// CompleteLogin finishes a login with the server's token and profile.
// Progress starts as a zero value until the next refresh.
func (s *Session) CompleteLogin(token string, user UserProfile) error {
	if s.phase != PhaseAuthenticating {
		return ErrNotAuthenticating
	}
	if token == "" {
		return ErrEmptyToken
	}
	s.token = token
	s.user = &user
	s.progress = &ChallengeProgress{}
	s.phase = PhaseAuthenticated
	return nil
}

// AbortLogin returns to anonymous without touching anything else.
func (s *Session) AbortLogin() {
	if s.phase == PhaseAuthenticating {
		s.phase = PhaseAnonymous
	}
}

// Restore installs a persisted token that the server just validated.
func (s *Session) Restore(token string, user UserProfile, progress ChallengeProgress) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.token = token
	s.user = &user
	s.progress = &progress
	s.phase = PhaseAuthenticated
	return nil
}

// SetProgress replaces progress wholesale after a details fetch.
func (s *Session) SetProgress(p ChallengeProgress) {
	if !s.LoggedIn() {
		return
	}
	s.progress = &p
}

// SetUser replaces the cached profile after a details fetch.
func (s *Session) SetUser(u UserProfile) {
	if !s.LoggedIn() {
		return
	}
	s.user = &u
}

func (s *Session) SetAvailableHints(n int) {
	if s.progress == nil {
		return
	}
	s.progress.AvailableHints = n
}

// Logout clears all in-memory state.
func (s *Session) Logout() {
	s.token = ""
	s.user = nil
	s.progress = nil
	s.phase = PhaseAnonymous
}

func (s *Session) MarkTaskOpen(now time.Time) {
	if s.progress == nil {
		return
	}
	t := now
	s.progress.CurrentQuestionStartTime = &t
}

func (s *Session) MarkTaskClosed() {
	if s.progress == nil {
		return
	}
	s.progress.CurrentQuestionStartTime = nil
}

func (s *Session) TaskOpen() bool {
	return s.progress != nil && s.progress.CurrentQuestionStartTime != nil
}
