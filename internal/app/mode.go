package app

import "strings"

type DisplayMode string

const (
	DisplayAuto  DisplayMode = "auto"
	DisplayTUI   DisplayMode = "tui"
	DisplayPlain DisplayMode = "plain"
)

func parseDisplayMode(raw string) (DisplayMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DisplayAuto):
		return DisplayAuto, true
	case string(DisplayTUI), "fullscreen":
		return DisplayTUI, true
	case string(DisplayPlain), "line":
		return DisplayPlain, true
	default:
		return DisplayAuto, false
	}
}

// ResolveDisplayMode picks the full-screen view only when both ends are a
// terminal, unless the user forced a mode.
func ResolveDisplayMode(mode DisplayMode, stdinTTY, stdoutTTY bool) DisplayMode {
	switch mode {
	case DisplayTUI, DisplayPlain:
		return mode
	}
	if stdinTTY && stdoutTTY {
		return DisplayTUI
	}
	return DisplayPlain
}
