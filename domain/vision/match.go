package vision

import (
	"image"
	"math"
)

// MatchResult is the best alignment of a template over a search image.
// X and Y are the template's top-left offset; Score is the normalized
// cross-correlation in [-1, 1].
type MatchResult struct {
	X, Y  int
	Score float64
}

// MatchFunc matches tmpl against search. It is the seam puzzle handlers use
// so that tests can substitute fixed confidences.
type MatchFunc func(search, tmpl *image.Gray) (MatchResult, bool)

// grayPrecomp stores per-image intensities and their summed-area tables
// (integral images). The integrals allow O(1) window sum and variance queries.
type grayPrecomp struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
}

// templatePrecomp caches template intensities and summary statistics.
type templatePrecomp struct {
	gray  []float64
	W, H  int
	meanT float64
	stdT  float64
}

// Match slides tmpl over search and returns the offset with the globally
// highest normalized cross-correlation. It returns false without matching
// when the template is empty or larger than search in either axis. Windows
// or templates without variance score 0. No acceptance threshold is applied.
func Match(search, tmpl *image.Gray) (MatchResult, bool) {
	if search == nil || tmpl == nil {
		return MatchResult{}, false
	}
	sb, tb := search.Bounds(), tmpl.Bounds()
	if tb.Dx() == 0 || tb.Dy() == 0 || tb.Dx() > sb.Dx() || tb.Dy() > sb.Dy() {
		return MatchResult{}, false
	}
	return matchPre(buildGrayPrecomp(search), buildTemplatePrecomp(tmpl)), true
}

func matchPre(pre *grayPrecomp, pc *templatePrecomp) MatchResult {
	W, H := pre.W, pre.H
	w, h := pc.W, pc.H
	n := float64(w * h)
	best := MatchResult{Score: math.Inf(-1)}
	for y := 0; y <= H-h; y++ {
		for x := 0; x <= W-w; x++ {
			score := 0.0
			if pc.stdT > 1e-9 {
				sumF := integralSum(pre.integral, W, x, y, x+w-1, y+h-1)
				sumF2 := integralSum(pre.integralSq, W, x, y, x+w-1, y+h-1)
				meanF := sumF / n
				varF := (sumF2 - sumF*sumF/n) / n
				if varF > 1e-9 {
					var sumFT float64
					for ty := 0; ty < h; ty++ {
						frow := pre.gray[(y+ty)*W+x : (y+ty)*W+x+w]
						trow := pc.gray[ty*w : ty*w+w]
						for tx, tv := range trow {
							sumFT += frow[tx] * tv
						}
					}
					score = (sumFT - n*meanF*pc.meanT) / (n * math.Sqrt(varF) * pc.stdT)
				}
			}
			if score > best.Score {
				best = MatchResult{X: x, Y: y, Score: score}
			}
		}
	}
	// Guard against rounding drift past the theoretical bounds.
	best.Score = math.Max(-1, math.Min(1, best.Score))
	return best
}

// buildGrayPrecomp computes intensities and summed-area tables for img.
func buildGrayPrecomp(img *image.Gray) *grayPrecomp {
	b := img.Bounds()
	W, H := b.Dx(), b.Dy()
	need := W * H
	p := &grayPrecomp{
		gray:       make([]float64, need),
		integral:   make([]float64, need),
		integralSq: make([]float64, need),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		var rowSum, rowSum2 float64
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < W; x++ {
			g := float64(row[x])
			off := y*W + x
			p.gray[off] = g
			rowSum += g
			rowSum2 += g * g
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[off-W] + rowSum
				p.integralSq[off] = p.integralSq[off-W] + rowSum2
			}
		}
	}
	return p
}

func buildTemplatePrecomp(tmpl *image.Gray) *templatePrecomp {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)
	var sumT, sumT2 float64
	for y := 0; y < h; y++ {
		row := tmpl.Pix[tmpl.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			g := float64(row[x])
			gray[y*w+x] = g
			sumT += g
			sumT2 += g * g
		}
	}
	n := float64(w * h)
	meanT := sumT / n
	varT := (sumT2 - sumT*sumT/n) / n
	stdT := 0.0
	if varT > 0 {
		stdT = math.Sqrt(varT)
	}
	return &templatePrecomp{gray: gray, W: w, H: h, meanT: meanT, stdT: stdT}
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}
