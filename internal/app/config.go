package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"ctfterm/internal/api"
	"ctfterm/internal/render"
)

const (
	appName        = "ctfterm"
	envPrefix      = "CTFTERM_"
	configFileName = "config.yaml"
)

// Config controls runtime behavior for the client.
type Config struct {
	APIBase string        `yaml:"api_base" env:"API_BASE"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	DataDir string        `yaml:"data_dir" env:"DATA_DIR"`
	LogPath string        `yaml:"log_file" env:"LOG_FILE"`
	Debug   bool          `yaml:"debug" env:"DEBUG"`
	// Display is auto, tui or plain.
	Display string   `yaml:"display" env:"MODE"`
	UI      UIConfig `yaml:"ui" envPrefix:"UI_"`

	Version string `yaml:"-"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style" env:"STYLE"`
	Markdown     bool   `yaml:"markdown" env:"MARKDOWN"`
	DebugLayout  bool   `yaml:"debug_layout" env:"DEBUG_LAYOUT"`
}

func DefaultConfig() Config {
	return Config{
		APIBase: api.DefaultBaseURL,
		Timeout: api.DefaultTimeout,
		Display: string(DisplayAuto),
		UI: UIConfig{
			StyleVariant: render.VariantModernArcade,
		},
	}
}

// DefaultDataDir is the per-user data directory.
func DefaultDataDir() (string, error) {
	dirs, err := gap.NewScope(gap.User, appName).DataDirs()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", errors.New("cannot resolve user data directory")
	}
	return dirs[0], nil
}

// LoadFile overlays a YAML file onto c. A missing file is only an error when
// required is set.
func (c *Config) LoadFile(path string, required bool) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays CTFTERM_* environment variables onto c.
func (c *Config) LoadEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// ConfigFilePath is where the optional config file lives for dataDir.
func ConfigFilePath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

func (c *Config) Validate() error {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		c.APIBase = api.DefaultBaseURL
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base %q", c.APIBase)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	if c.Timeout == 0 {
		c.Timeout = api.DefaultTimeout
	}

	mode, ok := parseDisplayMode(c.Display)
	if !ok {
		return fmt.Errorf("invalid display mode %q", c.Display)
	}
	c.Display = string(mode)

	switch c.UI.StyleVariant {
	case "", render.VariantModernArcade, render.VariantRetroTerminal, render.VariantCatppuccin, render.VariantPlain:
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = render.VariantModernArcade
	}

	if c.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if c.DataDir, err = homedir.Expand(c.DataDir); err != nil {
		return fmt.Errorf("expand data dir: %w", err)
	}
	if c.LogPath != "" {
		if c.LogPath, err = homedir.Expand(c.LogPath); err != nil {
			return fmt.Errorf("expand log file: %w", err)
		}
	}
	return nil
}
