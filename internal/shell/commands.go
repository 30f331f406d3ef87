package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang-jwt/jwt/v5"

	"ctfterm/internal/api"
	"ctfterm/internal/render"
	"ctfterm/internal/session"
	"ctfterm/internal/state"
)

const (
	BannerText = "CC{H1DD3N_1N_9LA1N_51GH7}"
	Product    = "BitBlitz OS v1.729"

	// notSolvingMessage is the server's hint reply when no task is open.
	notSolvingMessage = "You are not currently solving a task."
	loginRequired     = "✗ Please login first using the login command."
)

var helpRule = strings.Repeat("─", 60)

func (in *Interpreter) register() {
	cmds := []command{
		{name: "help", description: "Show available commands and their descriptions", run: in.cmdHelp},
		{name: "login", description: "Login with your Coding Club account", run: in.cmdLogin},
		{name: "whoami", description: "Display current user information", run: in.cmdWhoami},
		{name: "task", description: "Get the current question (requires login)", run: in.cmdTask},
		{name: "hint", description: "Get a hint for the current task (There is a 10m penalty!)", run: in.cmdHint},
		{name: "submit", description: "Submit a flag (requires login)", run: in.cmdSubmit},
		{name: "progress", description: "Your current progress", run: in.cmdProgress},
		{name: "leaderboard", description: "Display the CTF leaderboard", run: in.cmdLeaderboard},
		{name: "banner", description: "Display the CTF banner", run: in.cmdBanner},
		{name: "clear", description: "Clear the terminal screen", run: in.cmdClear},
		{name: "exit", description: "Logout from the current session", run: in.cmdExit},
		{name: "about", description: "Show version and credits", hidden: true, run: in.cmdAbout},
	}
	in.commands = make(map[string]command, len(cmds))
	in.order = make([]string, 0, len(cmds))
	for _, c := range cmds {
		in.commands[c.name] = c
		in.order = append(in.order, c.name)
	}
}

func (in *Interpreter) showBanner() {
	in.out(render.Banner(BannerText), render.Info("Welcome to CTF Terminal!"))
}

func (in *Interpreter) requireLogin() bool {
	if in.sess.LoggedIn() {
		return true
	}
	in.out(render.Error(loginRequired), render.Blank())
	return false
}

func (in *Interpreter) cmdHelp(context.Context, []string) {
	in.out(render.Blank(), render.Info("Available Commands:"), render.Text(helpRule))
	for _, name := range in.Commands() {
		in.out(render.Text(fmt.Sprintf("  %-15s - %s", name, in.commands[name].description)))
	}
	in.out(render.Text(helpRule), render.Blank())
}

func (in *Interpreter) cmdLogin(ctx context.Context, _ []string) {
	if err := in.sess.BeginLogin(); err != nil {
		in.out(render.Error("Already logged in, please logout first using exit command"))
		return
	}
	completed := false
	defer func() {
		if !completed {
			in.sess.AbortLogin()
		}
	}()

	in.out(render.Info("Login with your Coding Club account:"))
	email, err := in.prompt(ctx, "Email:", false)
	if err != nil {
		in.logger.Info("session.login", map[string]any{"outcome": "aborted", "error": err.Error()})
		return
	}
	password, err := in.prompt(ctx, "Password:", true)
	if err != nil {
		in.logger.Info("session.login", map[string]any{"outcome": "aborted", "error": err.Error()})
		return
	}

	in.out(render.Info("Validating credentials..."), render.Blank())
	res, err := busy(in, func() (*api.LoginResponse, error) {
		return in.api.Login(ctx, strings.TrimSpace(email), password)
	})
	if err != nil {
		in.out(render.Error("✗ Login failed: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error("✗ "+res.Message), render.Blank())
		return
	}
	if err := in.sess.CompleteLogin(res.Token, profileFrom(res.User)); err != nil {
		in.out(render.Error("✗ Login failed: "+err.Error()), render.Blank())
		return
	}
	completed = true
	if err := state.SaveToken(ctx, in.store, res.Token); err != nil {
		in.warnPersist("token", err)
	}
	in.logger.Info("session.login", map[string]any{"outcome": "authenticated"})
	in.out(
		render.Success("✓ AUTHENTICATED"),
		render.Info(`Type "help" to view available commands`),
		render.Blank(),
	)
}

func (in *Interpreter) cmdWhoami(context.Context, []string) {
	if !in.sess.LoggedIn() {
		in.out(render.Error("✗ Not logged in. Use login command."), render.Blank())
		return
	}
	u := in.sess.User()
	if u == nil {
		u = &session.UserProfile{}
	}
	in.out(
		render.Info("Name: "+u.Name),
		render.Info("Email: "+u.Email),
		render.Info("Branch: "+u.Branch),
		render.Info("Year: "+u.Year),
	)
	if exp, ok := tokenExpiry(in.sess.Token()); ok {
		in.out(render.Info(fmt.Sprintf("Session expires: %s (%s)",
			exp.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(exp, in.now(), "ago", "from now"))))
	}
	in.out(render.Blank())
}

func (in *Interpreter) cmdTask(ctx context.Context, _ []string) {
	if !in.requireLogin() {
		return
	}
	in.out(render.Info("Fetching task from server..."), render.Blank())
	res, err := busy(in, func() (*api.QuestionResponse, error) { return in.api.Question(ctx, in.sess.Token()) })
	if err != nil {
		in.out(render.Error("✗ Failed to fetch question: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error("✗ "+res.Message), render.Blank())
		return
	}

	if res.Completed {
		in.sess.MarkTaskClosed()
		in.out(
			render.Blank(),
			render.Success("🎉 "+res.Message),
			render.Info("Total Levels: "+strconv.Itoa(res.TotalLevels)),
			render.Info("Time: "+render.FormatDuration(res.TotalTimeTaken)),
			render.Blank(),
		)
		return
	}

	in.sess.MarkTaskOpen(in.now())
	in.out(render.Info(fmt.Sprintf("[Question %d]", res.Level)))
	if res.Story != "" {
		in.out(in.content(res.Story))
	}
	if res.Question != "" {
		in.out(in.content(res.Question))
	}
	if res.Link != "" {
		in.out(render.Text("Download: " + res.Link))
	}
	if res.IsFinalStory {
		in.out(
			render.Blank(),
			render.Success("Congratulations! You've completed all challenges!"),
			render.Info("Time taken: "+render.FormatDuration(res.TotalTimeTaken)),
		)
	}
	in.out(render.Blank())
}

func (in *Interpreter) cmdHint(ctx context.Context, _ []string) {
	if !in.requireLogin() {
		return
	}
	res, err := busy(in, func() (*api.HintResponse, error) { return in.api.Hint(ctx, in.sess.Token()) })
	if err != nil {
		in.out(render.Error("✗ Failed to fetch hint: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error(res.Message))
		if res.Message == notSolvingMessage {
			in.sess.MarkTaskClosed()
		}
		return
	}
	if res.Completed {
		in.sess.MarkTaskClosed()
		in.out(render.Success(res.Message))
		return
	}

	in.sess.MarkTaskOpen(in.now())
	in.sess.SetAvailableHints(res.AvailableHints)
	in.out(render.Success(res.Message))
	if res.Hint != "" {
		in.out(render.Info("Hint for the current question:"), in.content(res.Hint), render.Blank())
	}
	if res.AvailableHints > 0 {
		in.out(render.Info(fmt.Sprintf("You have %d more hints.", res.AvailableHints)))
	} else {
		in.out(render.Error("You have no more hints left!"))
	}
}

func (in *Interpreter) cmdSubmit(ctx context.Context, _ []string) {
	if !in.requireLogin() {
		return
	}
	if !in.sess.TaskOpen() {
		in.out(render.Error("You are not currently solving a task"))
		return
	}
	flag, err := in.prompt(ctx, "Submit flag:", false)
	if err != nil {
		in.logger.Info("ctf.submit", map[string]any{"outcome": "aborted", "error": err.Error()})
		return
	}
	flag = strings.TrimSpace(flag)
	if flag == "" {
		in.out(render.Error("✗ Flag cannot be empty"), render.Blank())
		return
	}

	res, err := busy(in, func() (*api.CheckFlagResponse, error) {
		return in.api.CheckFlag(ctx, in.sess.Token(), flag)
	})
	if err != nil {
		in.out(render.Error("✗ Failed to submit flag: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error("✗ "+res.Message), render.Blank())
		return
	}
	in.sess.MarkTaskClosed()
	in.out(render.Success("✓ Correct flag!"), render.Blank())
	switch {
	case res.IsLastFlag:
		in.out(render.Info("Type task to see the final story!"), render.Blank())
	case !res.Completed:
		in.out(render.Info("Type task for next task!"), render.Blank())
	}
}

func (in *Interpreter) cmdProgress(ctx context.Context, _ []string) {
	if !in.requireLogin() {
		return
	}
	res, err := busy(in, func() (*api.DetailsResponse, error) { return in.api.Details(ctx, in.sess.Token()) })
	if err != nil {
		in.out(render.Error("✗ Failed to fetch progress: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error(res.Message))
		return
	}
	p := progressFrom(res.CTFProgress)
	in.sess.SetUser(profileFrom(res.User))
	in.sess.SetProgress(p)
	in.out(
		render.Text(fmt.Sprintf("Current level: %d", p.CurrentLevel)),
		render.Text("Total time taken: "+render.FormatDuration(p.TotalTimeTakenMs)),
		render.Text(fmt.Sprintf("Available hints: %d / %d", p.AvailableHints, session.MaxHints)),
	)
	if p.CurrentQuestionStartTime != nil {
		in.out(render.Info("Current task opened " + humanize.RelTime(*p.CurrentQuestionStartTime, in.now(), "ago", "from now")))
	}
}

func (in *Interpreter) cmdLeaderboard(ctx context.Context, _ []string) {
	res, err := busy(in, func() (*api.LeaderboardResponse, error) { return in.api.Leaderboard(ctx) })
	if err != nil {
		in.out(render.Error("✗ Failed to fetch leaderboard: "+describe(err)), render.Blank())
		return
	}
	if !res.OK() {
		in.out(render.Error("✗ "+res.Message), render.Blank())
		return
	}
	in.out(render.Blank(), render.Info("═══ CTF Leaderboard ═══"))
	if len(res.Data) == 0 {
		in.out(render.Info("No participants yet."), render.Blank())
		return
	}
	rows := make([][]string, 0, len(res.Data))
	for _, e := range res.Data {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Name,
			e.Department.String(),
			e.Year.String(),
			strconv.Itoa(e.NumberOfLevelsCompleted),
			clockCell(e.TimeTakenFormatted),
		})
	}
	in.out(
		render.Table([]string{"Rank", "Name", "Branch", "Year", "Questions Solved", "Time Taken"}, rows),
		render.Blank(),
	)
}

func (in *Interpreter) cmdBanner(context.Context, []string) {
	in.showBanner()
}

func (in *Interpreter) cmdClear(context.Context, []string) {
	in.term.Clear()
}

func (in *Interpreter) cmdExit(ctx context.Context, _ []string) {
	if !in.sess.LoggedIn() {
		in.out(render.Error("✗ Not logged in."), render.Blank())
		return
	}
	in.logout(ctx)
	in.term.Clear()
	in.logger.Info("session.logout", nil)
	in.out(render.Success("✓ Logged out successfully."), render.Blank())
}

func (in *Interpreter) cmdAbout(context.Context, []string) {
	in.out(
		render.Info(Product),
		render.Text("Credits: Claude, ChatGPT, Alan Saji, Swassy, Aswan and Dunks!"),
	)
}

func (in *Interpreter) content(text string) render.Block {
	if in.markdown {
		return render.Markdown(text)
	}
	return render.Pre(text)
}

func clockCell(c *api.Clock) string {
	if c == nil {
		return "N/A"
	}
	return render.FormatClock(c.Hours, c.Minutes, c.Seconds)
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (t time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return t, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return t, false
	}
	return exp.Time, true
}
