package capture

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func gradientFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestExtractRegion_CopiesInterior(t *testing.T) {
	frame := gradientFrame(100, 100)
	out := ExtractRegion(frame, Region{X: 30, Y: 40, Width: 20, Height: 10})
	if out.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("expected 20x10 at origin, got %v", out.Bounds())
	}
	if c := out.RGBAAt(0, 0); c.R != 30 || c.G != 40 {
		t.Fatalf("unexpected origin pixel %+v", c)
	}
	if c := out.RGBAAt(19, 9); c.R != 49 || c.G != 49 {
		t.Fatalf("unexpected far pixel %+v", c)
	}
}

func TestExtractRegion_IsIndependentCopy(t *testing.T) {
	frame := gradientFrame(10, 10)
	out := ExtractRegion(frame, Region{X: 0, Y: 0, Width: 5, Height: 5})
	out.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
	if frame.RGBAAt(0, 0).R != 0 {
		t.Fatalf("source frame mutated through extracted region")
	}
}

func TestExtractRegion_ClampsNearEdge(t *testing.T) {
	frame := gradientFrame(20, 20)
	out := ExtractRegion(frame, Region{X: 15, Y: 18, Width: 10, Height: 10})
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 2 {
		t.Fatalf("expected 5x2 got %v", out.Bounds())
	}
	if c := out.RGBAAt(0, 0); c.R != 15 || c.G != 18 {
		t.Fatalf("unexpected origin pixel %+v", c)
	}
}

func TestExtractRegion_NegativeOriginFloored(t *testing.T) {
	frame := gradientFrame(20, 20)
	out := ExtractRegion(frame, Region{X: -5, Y: -3, Width: 8, Height: 4})
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 4 {
		t.Fatalf("expected 8x4 got %v", out.Bounds())
	}
	if c := out.RGBAAt(0, 0); c.R != 0 || c.G != 0 {
		t.Fatalf("expected origin clamped to 0,0 got %+v", c)
	}
}

func TestExtractRegion_OutsideYieldsEmpty(t *testing.T) {
	frame := gradientFrame(10, 10)
	out := ExtractRegion(frame, Region{X: 50, Y: 50, Width: 5, Height: 5})
	if !out.Bounds().Empty() {
		t.Fatalf("expected empty frame got %v", out.Bounds())
	}
}

// Property: for any region the result never exceeds the source dimensions.
func TestExtractRegion_NeverExceedsSource(t *testing.T) {
	frame := gradientFrame(17, 11)
	coords := []int{math.MinInt32, -100, -1, 0, 5, 10, 16, 17, 40}
	sizes := []uint{0, 1, 6, 11, 17, 1000, math.MaxUint32}
	for _, x := range coords {
		for _, y := range coords {
			for _, w := range sizes {
				for _, h := range sizes {
					r := Region{X: x, Y: y, Width: w, Height: h}
					out := ExtractRegion(frame, r)
					b := out.Bounds()
					if b.Dx() > 17 || b.Dy() > 11 || b.Dx() < 0 || b.Dy() < 0 {
						t.Fatalf("region %+v produced %v", r, b)
					}
					c := ClampRegion(frame.Bounds(), r)
					if c.Min.X < 0 || c.Min.Y < 0 || c.Min.X > 17 || c.Min.Y > 11 {
						t.Fatalf("region %+v clamped origin out of range: %v", r, c)
					}
				}
			}
		}
	}
}

func TestExtractRegion_OffsetSourceBounds(t *testing.T) {
	frame := gradientFrame(40, 40).SubImage(image.Rect(10, 10, 30, 30)).(*image.RGBA)
	out := ExtractRegion(frame, Region{X: 0, Y: 0, Width: 4, Height: 4})
	if c := out.RGBAAt(0, 0); c.R != 10 || c.G != 10 {
		t.Fatalf("region must be relative to frame bounds, got %+v", c)
	}
}
