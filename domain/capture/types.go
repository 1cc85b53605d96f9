package capture

import (
	"errors"
	"fmt"
	"image"
	"time"
)

var (
	// ErrWindowNotFound reports that no visible window matched the configured name.
	ErrWindowNotFound = errors.New("capture: window not found")
	// ErrCaptureFailed reports a platform capture error or a malformed pixel buffer.
	ErrCaptureFailed = errors.New("capture: capture failed")
)

// CaptureError carries the window and the underlying cause of a failed capture.
// It matches ErrCaptureFailed with errors.Is.
type CaptureError struct {
	Window string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: window %q: %v", e.Window, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

func (e *CaptureError) Is(target error) bool { return target == ErrCaptureFailed }

// Window describes one visible top-level window in screen coordinates.
type Window struct {
	Title   string
	AppName string
	Bounds  image.Rectangle
}

// WindowLister enumerates visible windows. Implementations must not cache
// handles between calls.
type WindowLister interface {
	ListWindows() ([]Window, error)
}

// Grabber copies the screen pixels inside r into a new RGBA image.
type Grabber interface {
	Grab(r image.Rectangle) (*image.RGBA, error)
}

// GrabberFunc adapts a function to the Grabber interface.
type GrabberFunc func(image.Rectangle) (*image.RGBA, error)

func (f GrabberFunc) Grab(r image.Rectangle) (*image.RGBA, error) { return f(r) }

// Region is a sub-rectangle of a frame. X and Y may be negative; the region
// is clamped to the frame before use.
type Region struct {
	X, Y          int
	Width, Height uint
}

// Empty reports whether the region selects no pixels.
func (r Region) Empty() bool { return r.Width == 0 || r.Height == 0 }

// CaptureStats summarises capture behaviour for instrumentation.
type CaptureStats struct {
	Captures    uint64
	Skipped     uint64
	NotFound    uint64
	AvgCapture  time.Duration
	LastCapture time.Time
}

var errNoForeground = errors.New("capture: no foreground window")
