package shell

import (
	"context"
	"errors"

	"ctfterm/internal/api"
	"ctfterm/internal/session"
)

func profileFrom(u *api.User) session.UserProfile {
	if u == nil {
		return session.UserProfile{}
	}
	return session.UserProfile{
		ID:     u.ID.String(),
		Name:   u.Name,
		Email:  u.EmailID,
		Branch: u.Branch.String(),
		Year:   u.Year.String(),
	}
}

func progressFrom(p *api.Progress) session.ChallengeProgress {
	if p == nil {
		return session.ChallengeProgress{}
	}
	out := session.ChallengeProgress{
		CurrentLevel:     p.CurrLevel,
		TotalTimeTakenMs: p.TotalTimeTaken,
		AvailableHints:   p.AvailableHints,
		HintsUsed:        append([]int(nil), p.HintsUsed...),
	}
	if p.CurrentQuestionStartTime != nil {
		t := *p.CurrentQuestionStartTime
		out.CurrentQuestionStartTime = &t
	}
	return out
}

// describe turns client errors into a short reason for the user. The full
// error goes to the log.
func describe(err error) string {
	var te *api.TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.As(err, &te) && te.Timeout():
		return "request timed out"
	case errors.As(err, &te):
		return "could not reach the server"
	case errors.Is(err, api.ErrMalformedResponse):
		return "unexpected response from server"
	default:
		return err.Error()
	}
}
