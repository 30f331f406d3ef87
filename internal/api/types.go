package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope carries the fields every endpoint returns.
type Envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// OK is true only for an explicit success:true.
func (e Envelope) OK() bool {
	return e.Success != nil && *e.Success
}

func (e *Envelope) envelope() *Envelope { return e }

// Text decodes a JSON string or number into a string. The server is not
// consistent about how it encodes year and id fields.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	return fmt.Errorf("expected string or number, got %s", b)
}

func (t Text) String() string { return string(t) }

type User struct {
	ID      Text   `json:"id"`
	Name    string `json:"name"`
	EmailID string `json:"emailID"`
	Branch  Text   `json:"branch"`
	Year    Text   `json:"year"`
}

type Progress struct {
	CurrLevel                int        `json:"currLevel"`
	TotalTimeTaken           int64      `json:"totalTimeTaken"`
	AvailableHints           int        `json:"availableHints"`
	HintsUsed                []int      `json:"hintsUsed"`
	CurrentQuestionStartTime *time.Time `json:"currentQuestionStartTime"`
}

type DetailsResponse struct {
	Envelope
	User        *User     `json:"user"`
	CTFProgress *Progress `json:"ctfProgress"`
}

func (r *DetailsResponse) validate() string {
	switch {
	case r.User == nil:
		return "missing user"
	case r.CTFProgress == nil:
		return "missing ctfProgress"
	}
	return ""
}

type loginRequest struct {
	EmailID  string `json:"emailID"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Envelope
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (r *LoginResponse) validate() string {
	switch {
	case r.Token == "":
		return "missing token"
	case r.User == nil:
		return "missing user"
	}
	return ""
}

type QuestionResponse struct {
	Envelope
	Completed      bool   `json:"completed"`
	Level          int    `json:"level"`
	Story          string `json:"story"`
	Question       string `json:"question"`
	Link           string `json:"link"`
	IsFinalStory   bool   `json:"isFinalStory"`
	TotalLevels    int    `json:"totalLevels"`
	TotalTimeTaken int64  `json:"totalTimeTaken"`
}

func (r *QuestionResponse) validate() string { return "" }

type HintResponse struct {
	Envelope
	Completed      bool   `json:"completed"`
	Hint           string `json:"hint"`
	AvailableHints int    `json:"availableHints"`
}

func (r *HintResponse) validate() string { return "" }

type checkFlagRequest struct {
	Flag string `json:"flag"`
}

type CheckFlagResponse struct {
	Envelope
	Completed  bool `json:"completed"`
	IsLastFlag bool `json:"isLastFlag"`
}

func (r *CheckFlagResponse) validate() string { return "" }

// Clock is the leaderboard's preformatted duration.
type Clock struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type LeaderboardEntry struct {
	Rank                    int    `json:"rank"`
	Name                    string `json:"name"`
	Department              Text   `json:"department"`
	Year                    Text   `json:"year"`
	NumberOfLevelsCompleted int    `json:"numberOfLevelsCompleted"`
	TimeTakenFormatted      *Clock `json:"timeTakenFormatted"`
}

type LeaderboardResponse struct {
	Envelope
	Data []LeaderboardEntry `json:"data"`
}

func (r *LeaderboardResponse) validate() string {
	if r.Data == nil {
		return "missing data"
	}
	return ""
}

// response is implemented by every *XxxResponse.
type response interface {
	envelope() *Envelope
	validate() string
}
