package vision

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ErrTemplateLoad reports an explicitly configured template that could not be read.
var ErrTemplateLoad = errors.New("vision: template load failed")

// LoadTemplate reads an image file and converts it into an edge template
// using the same pipeline as live frames, so scores compare like with like.
// When preprocessed is true the file is taken to be an edge map already and
// only converted to grayscale. An empty path returns (nil, nil): a missing
// template disables the capability that needs it.
func LoadTemplate(path string, pre *Preprocessor, preprocessed bool) (*image.Gray, error) {
	gray, err := openGray(path)
	if gray == nil || err != nil {
		return nil, err
	}
	if preprocessed || pre == nil {
		return gray, nil
	}
	return pre.ProcessGray(gray), nil
}

// LoadScaledTemplate is LoadTemplate for several scale factors. Source
// images are resized before edge detection (ScaleSourceTemplate); files that
// are already edge maps are rescaled edge-wise (ScaleTemplate).
func LoadScaledTemplate(path string, pre *Preprocessor, preprocessed bool, factors []float64) ([]ScaledTemplate, error) {
	gray, err := openGray(path)
	if gray == nil || err != nil {
		return nil, err
	}
	if preprocessed || pre == nil {
		return ScaleTemplate(gray, factors), nil
	}
	return ScaleSourceTemplate(gray, factors, pre), nil
}

func openGray(path string) (*image.Gray, error) {
	if path == "" {
		return nil, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateLoad, path, err)
	}
	gray := Grayscale(toRGBA(img))
	if gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", ErrTemplateLoad, path)
	}
	return gray, nil
}

// toRGBA returns img as an *image.RGBA with origin (0,0).
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
