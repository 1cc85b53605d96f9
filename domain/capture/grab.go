package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// ScreenGrabber captures screen rectangles through the screenshot library.
type ScreenGrabber struct{}

// Grab returns a capture of r in screen coordinates.
func (ScreenGrabber) Grab(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("capture: empty rect %v", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// validateFrame checks that img is a well-formed RGBA buffer and rebases it
// so that its bounds start at (0,0).
func validateFrame(img *image.RGBA) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("capture: nil image")
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid image size w=%d h=%d", w, h)
	}
	if img.Stride < w*4 {
		return nil, fmt.Errorf("capture: stride %d shorter than row length %d", img.Stride, w*4)
	}
	if need := img.Stride*(h-1) + w*4; len(img.Pix) < need {
		return nil, fmt.Errorf("capture: pixel buffer %d bytes, need %d for %dx%d", len(img.Pix), need, w, h)
	}
	if img.Rect.Min != (image.Point{}) {
		// Pix starts at Rect.Min, so rebasing only moves the coordinate space.
		img = &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: image.Rect(0, 0, w, h)}
	}
	return img, nil
}
