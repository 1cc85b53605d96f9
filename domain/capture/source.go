package capture

import (
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// WindowSource locates the target window by name and captures its pixels.
// The window list is re-enumerated on every call: the target may appear,
// move or close between captures, so no handle is trusted across calls.
type WindowSource struct {
	match   string
	lister  WindowLister
	grabber Grabber
	logger  *slog.Logger

	captures     atomic.Uint64
	skipped      atomic.Uint64
	notFound     atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
}

// NewWindowSource constructs a source for windows whose title or application
// name contains match (case-insensitive). Nil lister/grabber select the
// platform defaults.
func NewWindowSource(match string, lister WindowLister, grabber Grabber, logger *slog.Logger) *WindowSource {
	if lister == nil {
		lister = NewPlatformLister()
	}
	if grabber == nil {
		grabber = ScreenGrabber{}
	}
	return &WindowSource{match: match, lister: lister, grabber: grabber, logger: logger}
}

// Match returns the configured window name substring.
func (s *WindowSource) Match() string { return s.match }

// FindWindow returns the first visible window matching the configured name.
func (s *WindowSource) FindWindow() (Window, error) {
	windows, err := s.lister.ListWindows()
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("window enumeration failed", "error", err)
		}
		return Window{}, errors.Join(ErrWindowNotFound, err)
	}
	if w, ok := FindMatch(windows, s.match); ok {
		return w, nil
	}
	return Window{}, ErrWindowNotFound
}

// FindMatch returns the first window whose title or app name contains match,
// ignoring case. Windows with empty bounds are skipped. An empty match
// selects nothing.
func FindMatch(windows []Window, match string) (Window, bool) {
	needle := strings.ToLower(strings.TrimSpace(match))
	if needle == "" {
		return Window{}, false
	}
	for _, w := range windows {
		if w.Bounds.Empty() {
			continue
		}
		if strings.Contains(strings.ToLower(w.Title), needle) || strings.Contains(strings.ToLower(w.AppName), needle) {
			return w, true
		}
	}
	return Window{}, false
}

// CaptureFull captures the current contents of the target window. It fails
// with ErrWindowNotFound when no window matches and with a *CaptureError
// (ErrCaptureFailed) when the grab errors or yields a malformed buffer.
func (s *WindowSource) CaptureFull() (*image.RGBA, error) {
	start := time.Now()
	win, err := s.FindWindow()
	if err != nil {
		s.notFound.Add(1)
		s.skipped.Add(1)
		return nil, err
	}
	img, err := s.grabber.Grab(win.Bounds)
	if err == nil {
		img, err = validateFrame(img)
	}
	if err != nil {
		s.skipped.Add(1)
		return nil, &CaptureError{Window: win.Title, Err: err}
	}
	now := time.Now()
	s.captureNanos.Add(uint64(now.Sub(start).Nanoseconds()))
	s.captures.Add(1)
	s.lastCapture.Store(now.UnixNano())
	return img, nil
}

// Stats returns capture counters. Safe for concurrent use.
func (s *WindowSource) Stats() CaptureStats {
	captures := s.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(s.captureNanos.Load() / captures)
	}
	var last time.Time
	if ns := s.lastCapture.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Captures:    captures,
		Skipped:     s.skipped.Load(),
		NotFound:    s.notFound.Load(),
		AvgCapture:  avg,
		LastCapture: last,
	}
}
