//go:build !windows

package capture

import (
	"image"
	"strings"

	"github.com/go-vgo/robotgo"
)

type robotgoLister struct{}

// NewPlatformLister returns a lister backed by robotgo process and window queries.
func NewPlatformLister() WindowLister { return robotgoLister{} }

// ListWindows returns processes that own a titled window with non-empty bounds.
func (robotgoLister) ListWindows() ([]Window, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return nil, err
	}
	var out []Window
	for _, p := range procs {
		title := strings.TrimSpace(robotgo.GetTitle(p.Pid))
		if title == "" {
			continue
		}
		x, y, w, h := robotgo.GetBounds(p.Pid)
		if w <= 0 || h <= 0 {
			continue
		}
		out = append(out, Window{
			Title:   title,
			AppName: p.Name,
			Bounds:  image.Rect(x, y, x+w, y+h),
		})
	}
	return out, nil
}

// ForegroundWindowTitle returns the title of the active window.
func ForegroundWindowTitle() (string, error) {
	title := strings.TrimSpace(robotgo.GetTitle())
	if title == "" {
		return "", errNoForeground
	}
	return title, nil
}
