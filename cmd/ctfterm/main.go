package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"

	"ctfterm/internal/app"
)

var version = "dev"

type options struct {
	configPath string
	apiBase    string
	dataDir    string
	logFile    string
	theme      string
	timeout    time.Duration
	plain      bool
	tui        bool
	markdown   bool
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ctfterm: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ctfterm",
		Short: "Play the Coding Club CTF from your terminal",
		Long: `ctfterm is a terminal client for the Coding Club capture-the-flag event.

Log in, fetch your current task, ask for hints, submit flags and check the
leaderboard. Type "help" once it starts for the list of commands.

Settings are read from config.yaml in the data directory, then from
CTFTERM_* environment variables, then from flags.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runApp(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default is config.yaml in the data directory)")
	f.StringVar(&opts.apiBase, "api-base", "", "CTF server base URL")
	f.StringVar(&opts.dataDir, "data-dir", "", "directory for the saved session and history")
	f.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")
	f.StringVar(&opts.theme, "theme", "", "colour theme: modern_arcade, retro_terminal, catppuccin or plain")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout")
	f.BoolVar(&opts.plain, "plain", false, "use the line-by-line console instead of the full-screen view")
	f.BoolVar(&opts.tui, "tui", false, "force the full-screen view")
	f.BoolVar(&opts.markdown, "markdown", false, "render task text as Markdown")
	f.BoolVar(&opts.debug, "debug", false, "verbose logging and layout details")
	cmd.MarkFlagsMutuallyExclusive("plain", "tui")

	cmd.AddCommand(newManCmd(cmd))
	return cmd
}

// runApp is swapped out in tests.
var runApp = func(cmd *cobra.Command, cfg app.Config) error {
	a, err := app.New(cfg, app.StdStreams())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command, opts options) (app.Config, error) {
	cfg := app.DefaultConfig()
	cfg.Version = version

	path, required, err := configPath(cmd, opts)
	if err != nil {
		return cfg, err
	}
	if err := cfg.LoadFile(path, required); err != nil {
		return cfg, err
	}
	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("api-base") {
		cfg.APIBase = opts.apiBase
	}
	if changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if changed("log-file") {
		cfg.LogPath = opts.logFile
	}
	if changed("theme") {
		cfg.UI.StyleVariant = opts.theme
	}
	if changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if changed("markdown") {
		cfg.UI.Markdown = opts.markdown
	}
	if changed("debug") {
		cfg.Debug = opts.debug
		cfg.UI.DebugLayout = opts.debug
	}
	switch {
	case opts.plain:
		cfg.Display = string(app.DisplayPlain)
	case opts.tui:
		cfg.Display = string(app.DisplayTUI)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// configPath finds the config file before the data directory is final, so it
// looks at the flag and the environment directly.
func configPath(cmd *cobra.Command, opts options) (string, bool, error) {
	if cmd.Flags().Changed("config") {
		return opts.configPath, true, nil
	}
	dir := opts.dataDir
	if !cmd.Flags().Changed("data-dir") {
		dir = os.Getenv("CTFTERM_DATA_DIR")
	}
	if dir == "" {
		d, err := app.DefaultDataDir()
		if err != nil {
			return "", false, err
		}
		dir = d
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", false, err
	}
	return app.ConfigFilePath(dir), false, nil
}

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Print the man page",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := mcobra.NewManPage(1, root)
			if err != nil {
				return err
			}
			page = page.WithSection("Environment",
				"CTFTERM_API_BASE, CTFTERM_TIMEOUT, CTFTERM_DATA_DIR, CTFTERM_LOG_FILE, CTFTERM_DEBUG, "+
					"CTFTERM_MODE, CTFTERM_UI_STYLE, CTFTERM_UI_MARKDOWN and CTFTERM_UI_DEBUG_LAYOUT "+
					"override the config file.")
			_, err = fmt.Fprint(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
			return err
		},
	}
}
