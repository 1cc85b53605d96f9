package action

import (
	"log/slog"
	"strings"

	"github.com/soocke/reticle-bot/domain/capture"
)

// FocusGate reports whether the target window currently has keyboard focus.
// Injected keys go to the foreground window, so firing while another window
// is focused would type into it.
type FocusGate struct {
	Logger     *slog.Logger
	Foreground func() (string, error)
	Match      string // case-insensitive substring of the target title
	lastTitle  string // last foreground title seen (normalized)
}

// NewFocusGate constructs a gate. A nil fg uses the platform foreground
// window query.
func NewFocusGate(match string, fg func() (string, error), logger *slog.Logger) *FocusGate {
	if fg == nil {
		fg = capture.ForegroundWindowTitle
	}
	return &FocusGate{Logger: logger, Foreground: fg, Match: strings.ToLower(strings.TrimSpace(match))}
}

// Focused reports whether the foreground title contains Match. A nil gate
// always passes. An empty Match or a failed query never does.
func (g *FocusGate) Focused() bool {
	if g == nil {
		return true
	}
	if g.Match == "" {
		return false
	}
	title, err := g.Foreground()
	if err != nil {
		if g.Logger != nil {
			g.Logger.Debug("foreground title error", "error", err)
		}
		return false
	}
	current := strings.ToLower(strings.TrimSpace(title))
	if current != g.lastTitle { // only log on change
		g.lastTitle = current
		if g.Logger != nil {
			g.Logger.Debug("foreground changed", "window", title, "focused", strings.Contains(current, g.Match))
		}
	}
	return current != "" && strings.Contains(current, g.Match)
}
