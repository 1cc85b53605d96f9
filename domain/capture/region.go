package capture

import "image"

// ClampRegion fits r inside bounds and returns the resulting rectangle in
// the coordinate space of bounds. x and y are floored at the origin and capped
// at the bounds size; width and height are then reduced to fit. The result
// may be empty.
func ClampRegion(bounds image.Rectangle, r Region) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	x0 := min(max(r.X, 0), w)
	y0 := min(max(r.Y, 0), h)
	rw := int(min(uint64(r.Width), uint64(w-x0)))
	rh := int(min(uint64(r.Height), uint64(h-y0)))
	return image.Rect(x0, y0, x0+rw, y0+rh).Add(bounds.Min)
}

// ExtractRegion copies the clamped region of frame into a new, independently
// owned RGBA image with origin (0,0). It never fails: a region entirely
// outside the frame yields a zero-sized image. The result may be handed back
// with RecycleFrame once it is no longer used.
func ExtractRegion(frame *image.RGBA, r Region) *image.RGBA {
	if frame == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	src := ClampRegion(frame.Bounds(), r)
	w, h := src.Dx(), src.Dy()
	out := acquireFrame(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	rowLen := w * 4
	for y := 0; y < h; y++ {
		so := frame.PixOffset(src.Min.X, src.Min.Y+y)
		do := y * out.Stride
		copy(out.Pix[do:do+rowLen], frame.Pix[so:so+rowLen])
	}
	return out
}
