// Package display hosts a running engine: an ebiten window that paces
// ticks, forwards input and shows the presented frames, and a headless
// runner for tests and batch runs.
package display

import (
	"image"
	"image/color"
	"sync"
)

// Canvas is the display backend the engine presents into. It keeps an RGBA
// copy of the frame that the window draws from.
type Canvas struct {
	mu       sync.Mutex
	palette  [256]color.RGBA
	rgba     *image.RGBA
	presents int
	dirty    bool
}

// NewCanvas creates a canvas for a virtual screen of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{rgba: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the virtual screen size.
func (c *Canvas) Size() (int, int) {
	b := c.rgba.Rect
	return b.Dx(), b.Dy()
}

// SetPalette is called before the rects that use the new colours.
func (c *Canvas) SetPalette(pal [256]color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.palette = pal
}

// PresentDirtyRects converts the changed parts of frame to RGBA.
func (c *Canvas) PresentDirtyRects(frame *image.Paletted, rects []image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rects {
		r = r.Intersect(frame.Rect).Intersect(c.rgba.Rect)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			src := frame.Pix[frame.PixOffset(r.Min.X, y):frame.PixOffset(r.Max.X, y)]
			dst := c.rgba.Pix[c.rgba.PixOffset(r.Min.X, y):]
			for i, idx := range src {
				p := c.palette[idx]
				dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = p.R, p.G, p.B, 0xFF
			}
		}
	}
	c.presents++
	c.dirty = true
}

// Presents returns how many frames have been presented.
func (c *Canvas) Presents() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presents
}

// At returns the presented colour at x, y.
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rgba.RGBAAt(x, y)
}

// copyIfDirty calls fn with the pixels when they changed since the last call.
func (c *Canvas) copyIfDirty(fn func(pix []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}
	fn(c.rgba.Pix)
	c.dirty = false
}
