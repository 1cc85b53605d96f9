package vision

import (
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

// ScaledTemplate is a template resized by Factor.
type ScaledTemplate struct {
	Factor float64
	Gray   *image.Gray
}

// MultiScaleResult is the best match found across scales.
type MultiScaleResult struct {
	MatchResult
	Factor          float64
	ScalesEvaluated int
}

// ScaleTemplate resizes an edge template by each factor. Linear resampling
// would smear one pixel edges into gray bands that no live edge map ever
// contains, so edge pixels are remapped instead and joined to their
// neighbours with straight lines, keeping the result binary and one pixel
// thin. Non-positive factors and results smaller than 1x1 are dropped; a
// factor of 1 reuses tmpl.
func ScaleTemplate(tmpl *image.Gray, factors []float64) []ScaledTemplate {
	return scaleEach(tmpl, factors, scaleEdges)
}

// ScaleSourceTemplate resizes the grayscale source of a template with
// linear filtering and runs each size through pre, so every scale gets
// freshly detected edges. A factor of 1 yields pre.ProcessGray(gray).
func ScaleSourceTemplate(gray *image.Gray, factors []float64, pre *Preprocessor) []ScaledTemplate {
	if pre == nil {
		return ScaleTemplate(gray, factors)
	}
	return scaleEach(gray, factors, func(src *image.Gray, w, h int) *image.Gray {
		if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
			return pre.ProcessGray(src)
		}
		return pre.ProcessGray(grayFromNRGBA(imaging.Resize(src, w, h, imaging.Linear)))
	})
}

func scaleEach(tmpl *image.Gray, factors []float64, resize func(*image.Gray, int, int) *image.Gray) []ScaledTemplate {
	if tmpl == nil {
		return nil
	}
	b := tmpl.Bounds()
	out := make([]ScaledTemplate, 0, len(factors))
	for _, f := range factors {
		if f <= 0 {
			continue
		}
		w := int(math.Round(float64(b.Dx()) * f))
		h := int(math.Round(float64(b.Dy()) * f))
		if w < 1 || h < 1 {
			continue
		}
		out = append(out, ScaledTemplate{Factor: f, Gray: resize(tmpl, w, h)})
	}
	return out
}

// scaleEdges maps every edge pixel of src into a w x h image and draws a
// line to each edge neighbour, so outlines stay closed when enlarged.
func scaleEdges(src *image.Gray, w, h int) *image.Gray {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == w && sh == h {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	on := func(x, y int) bool {
		if x < 0 || y < 0 || x >= sw || y >= sh {
			return false
		}
		return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
	}
	mapX := remap(sw, w)
	mapY := remap(sh, h)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if !on(x, y) {
				continue
			}
			px, py := mapX(x), mapY(y)
			dst.Pix[py*dst.Stride+px] = 255
			if on(x+1, y) {
				drawLine(dst, px, py, mapX(x+1), py)
			}
			if on(x, y+1) {
				drawLine(dst, px, py, px, mapY(y+1))
			}
			// diagonals only where no 4-connected path exists, or corners thicken
			if on(x+1, y+1) && !on(x+1, y) && !on(x, y+1) {
				drawLine(dst, px, py, mapX(x+1), mapY(y+1))
			}
			if on(x-1, y+1) && !on(x-1, y) && !on(x, y+1) {
				drawLine(dst, px, py, mapX(x-1), mapY(y+1))
			}
		}
	}
	return dst
}

// remap returns a function mapping [0,from) onto [0,to) with both ends pinned.
func remap(from, to int) func(int) int {
	if from <= 1 || to <= 1 {
		return func(int) int { return 0 }
	}
	k := float64(to-1) / float64(from-1)
	return func(v int) int { return int(math.Round(float64(v) * k)) }
}

// drawLine sets every pixel on the Bresenham line between the two points.
func drawLine(dst *image.Gray, x0, y0, x1, y1 int) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y1-y0, 1
	if dy < 0 {
		dy, sy = -dy, -1
	}
	err := dx - dy
	for {
		dst.Pix[y0*dst.Stride+x0] = 255
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// MatchMultiScale matches every scaled template against search in parallel
// and returns the best result. The search image is precomputed once. When
// stopOnScore is positive, remaining scales are skipped as soon as one
// reaches it. ok is false when no template fits inside search.
func MatchMultiScale(search *image.Gray, tmpls []ScaledTemplate, stopOnScore float64) (MultiScaleResult, bool) {
	if search == nil || len(tmpls) == 0 {
		return MultiScaleResult{}, false
	}
	sb := search.Bounds()
	pre := buildGrayPrecomp(search)

	var (
		earlyStop atomic.Bool
		evaluated atomic.Int64
		wg        sync.WaitGroup
		mu        sync.Mutex
		best      = MultiScaleResult{MatchResult: MatchResult{Score: math.Inf(-1)}}
		found     bool
	)
	sem := make(chan struct{}, runtime.NumCPU())
	for _, st := range tmpls {
		if st.Gray == nil {
			continue
		}
		tb := st.Gray.Bounds()
		if tb.Dx() == 0 || tb.Dy() == 0 || tb.Dx() > sb.Dx() || tb.Dy() > sb.Dy() {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(st ScaledTemplate) {
			defer wg.Done()
			defer func() { <-sem }()
			if earlyStop.Load() {
				return
			}
			res := matchPre(pre, buildTemplatePrecomp(st.Gray))
			evaluated.Add(1)
			if stopOnScore > 0 && res.Score >= stopOnScore {
				earlyStop.Store(true)
			}
			mu.Lock()
			if !found || res.Score > best.Score {
				best = MultiScaleResult{MatchResult: res, Factor: st.Factor}
				found = true
			}
			mu.Unlock()
		}(st)
	}
	wg.Wait()
	if !found {
		return MultiScaleResult{}, false
	}
	best.ScalesEvaluated = int(evaluated.Load())
	return best, true
}
