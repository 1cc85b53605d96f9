package capture

import (
	"image"
	"sync"
)

// framePool recycles RGBA buffers by frame size. A run alternates between
// two sizes at most (the window capture and the region crop), so buckets
// keep a window-sized buffer from being handed out for every small crop.
type framePool struct {
	mu      sync.Mutex
	buckets map[image.Point]*sync.Pool
}

var frames = &framePool{buckets: make(map[image.Point]*sync.Pool)}

func (p *framePool) bucket(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[size]
	if !ok {
		b = &sync.Pool{}
		p.buckets[size] = b
	}
	return b
}

func (p *framePool) get(rect image.Rectangle) *image.RGBA {
	size := rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return &image.RGBA{Rect: rect}
	}
	if img, ok := p.bucket(size).Get().(*image.RGBA); ok {
		img.Rect = rect
		return img
	}
	return &image.RGBA{Pix: make([]byte, 4*size.X*size.Y), Stride: 4 * size.X, Rect: rect}
}

func (p *framePool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	size := img.Rect.Size()
	// Only tightly packed frames are reusable as-is by get.
	if size.X <= 0 || size.Y <= 0 || img.Stride != 4*size.X || len(img.Pix) != img.Stride*size.Y {
		return
	}
	p.bucket(size).Put(img)
}

// acquireFrame returns a tightly packed RGBA frame covering rect. Pixel
// contents are undefined; callers overwrite every row.
func acquireFrame(rect image.Rectangle) *image.RGBA { return frames.get(rect) }

// RecycleFrame hands img back for reuse by later crops of the same size.
// The caller must not touch img afterwards. Nil, empty and sub-images are
// ignored.
func RecycleFrame(img *image.RGBA) { frames.put(img) }
