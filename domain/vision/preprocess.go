package vision

import (
	"image"

	"github.com/disintegration/imaging"
)

// PreprocessConfig configures the edge pipeline. BlurSigma <= 0 disables the
// Gaussian stage. The value is immutable once handed to a Preprocessor.
type PreprocessConfig struct {
	BlurSigma float64
	CannyLow  float64
	CannyHigh float64
}

// Intermediates exposes every stage of one Process run for diagnostics.
type Intermediates struct {
	Gray    *image.Gray
	Blurred *image.Gray
	Edges   *image.Gray
}

// Preprocessor turns captured frames into binary edge maps:
// grayscale, optional Gaussian blur, Canny. It holds no mutable state and
// may be shared.
type Preprocessor struct {
	cfg PreprocessConfig
}

func NewPreprocessor(cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

func (p *Preprocessor) Config() PreprocessConfig { return p.cfg }

// Process runs the full pipeline and returns the edge map.
func (p *Preprocessor) Process(frame *image.RGBA) *image.Gray {
	return p.ProcessWithIntermediates(frame).Edges
}

// ProcessWithIntermediates runs the pipeline and keeps the grayscale and
// blurred stages alongside the edge map.
func (p *Preprocessor) ProcessWithIntermediates(frame *image.RGBA) Intermediates {
	gray := Grayscale(frame)
	blurred := Blur(gray, p.cfg.BlurSigma)
	return Intermediates{
		Gray:    gray,
		Blurred: blurred,
		Edges:   Canny(blurred, p.cfg.CannyLow, p.cfg.CannyHigh),
	}
}

// ProcessGray runs blur and edge detection on an already grayscale image.
func (p *Preprocessor) ProcessGray(gray *image.Gray) *image.Gray {
	return Canny(Blur(gray, p.cfg.BlurSigma), p.cfg.CannyLow, p.cfg.CannyHigh)
}

// Grayscale converts frame to 8-bit luminance using
// L = 0.299R + 0.587G + 0.114B rounded to nearest. The result has origin (0,0).
func Grayscale(frame *image.RGBA) *image.Gray {
	if frame == nil {
		return image.NewGray(image.Rectangle{})
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := frame.Pix[frame.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := 0; x < w; x++ {
			i := x * 4
			dst[x] = Luminance(row[i], row[i+1], row[i+2])
		}
	}
	return out
}

// Luminance returns the weighted 8-bit luminance of one pixel.
func Luminance(r, g, b uint8) uint8 {
	v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Blur applies a Gaussian blur with the given sigma. A sigma <= 0 returns an
// unmodified copy.
func Blur(src *image.Gray, sigma float64) *image.Gray {
	b := src.Bounds()
	if sigma <= 0 || b.Empty() {
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	return grayFromNRGBA(imaging.Blur(src, sigma))
}

// grayFromNRGBA takes the first channel of an imaging result built from a
// gray source, where R, G and B are equal.
func grayFromNRGBA(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srow := src.Pix[y*src.Stride:]
		drow := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x := range drow {
			drow[x] = srow[x*4]
		}
	}
	return g
}
