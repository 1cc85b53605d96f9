package vision

import (
	"image"
	"math"
)

const edgeOn = 255

// Canny detects edges in src with Sobel gradients, non-maximum suppression
// and hysteresis between low and high magnitude thresholds. The output is a
// binary (0/255) image of the same size; the one-pixel border is always 0.
func Canny(src *image.Gray, low, high float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return out
	}
	if high < low {
		low, high = high, low
	}

	px := func(x, y int) float64 { return float64(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]) }
	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl, tc, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			ml, mr := px(x-1, y), px(x+1, y)
			bl, bc, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)
			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			i := y*w + x
			mag[i] = math.Hypot(gx, gy)
			dir[i] = quantizeDirection(gx, gy)
		}
	}

	// Non-maximum suppression; state 2 = strong, 1 = weak, 0 = none.
	state := make([]uint8, w*h)
	stack := make([]int, 0, 64)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m < low || m == 0 {
				continue
			}
			var n1, n2 float64
			switch dir[i] {
			case 0:
				n1, n2 = mag[i-1], mag[i+1]
			case 1:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			case 2:
				n1, n2 = mag[i-w], mag[i+w]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}
			if m <= n1 || m < n2 {
				continue
			}
			if m >= high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	// Hysteresis: grow strong edges through 8-connected weak pixels.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = edgeOn
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 1 || ny < 1 || nx >= w-1 || ny >= h-1 {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// quantizeDirection maps a gradient to one of four neighbour axes:
// 0 horizontal, 1 diagonal down-right, 2 vertical, 3 diagonal down-left.
func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}
