package console

import (
	"image/color"

	"ember/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay is the pixel target the terminal renders into. It snapshots the
// framebuffer geometry once and does all addressing through index, which
// folds in the scroll origin the way a panel's scroll start address would.
type fbDisplay struct {
	fb     hal.Framebuffer
	buf    []byte
	w, h   int
	stride int
	origin int // first visible row
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	d := &fbDisplay{fb: fb}
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 {
		return d
	}
	d.buf = fb.Buffer()
	d.w = fb.Width()
	d.h = fb.Height()
	d.stride = fb.StrideBytes()
	return d
}

func (d *fbDisplay) ready() bool {
	return d.buf != nil && d.w > 0 && d.h > 0
}

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.w), int16(d.h)
}

// index maps a visible coordinate to its byte offset, or reports false when
// the coordinate or the backing store cannot hold the pixel.
func (d *fbDisplay) index(x, y int) (int, bool) {
	if x < 0 || x >= d.w || y < 0 || y >= d.h {
		return 0, false
	}
	row := y + d.origin
	if row >= d.h {
		row -= d.h
	}
	off := row*d.stride + x*2
	if off < 0 || off+2 > len(d.buf) {
		return 0, false
	}
	return off, true
}

func (d *fbDisplay) put565(off int, p uint16) {
	d.buf[off] = byte(p)
	d.buf[off+1] = byte(p >> 8)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if !d.ready() {
		return
	}
	if off, ok := d.index(int(x), int(y)); ok {
		d.put565(off, rgb565From888(c.R, c.G, c.B))
	}
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// ScrollUp moves the visible content up by the given number of pixel rows
// and paints the exposed bottom rows with bg. Rows move one at a time so a
// non-zero scroll origin stays consistent.
func (d *fbDisplay) ScrollUp(lines int16, bg color.RGBA) error {
	if !d.ready() || lines <= 0 {
		return nil
	}
	n := int(lines)
	if n >= d.h {
		return d.FillRectangle(0, 0, int16(d.w), int16(d.h), bg)
	}

	rowBytes := d.w * 2
	if rowBytes > d.stride {
		rowBytes = d.stride
	}
	for y := 0; y < d.h-n; y++ {
		dst, okDst := d.index(0, y)
		src, okSrc := d.index(0, y+n)
		if !okDst || !okSrc || dst+rowBytes > len(d.buf) || src+rowBytes > len(d.buf) {
			continue
		}
		copy(d.buf[dst:dst+rowBytes], d.buf[src:src+rowBytes])
	}
	return d.FillRectangle(0, int16(d.h-n), int16(d.w), int16(n), bg)
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.ready() {
		return nil
	}
	x0, x1 := clipSpan(int(x), int(width), d.w)
	y0, y1 := clipSpan(int(y), int(height), d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	p := rgb565From888(c.R, c.G, c.B)
	for py := y0; py < y1; py++ {
		base, ok := d.index(x0, py)
		if !ok {
			continue
		}
		for px := 0; px < x1-x0; px++ {
			off := base + px*2
			if off+2 > len(d.buf) {
				break
			}
			d.put565(off, p)
		}
	}
	return nil
}

// SetScroll sets the row shown at the top of the screen. The origin starts
// at zero; NewTerminal configures tinyterm for software scrolling, which
// never calls SetScroll.
func (d *fbDisplay) SetScroll(line int16) {
	if d.h <= 0 {
		return
	}
	n := int(line) % d.h
	if n < 0 {
		n += d.h
	}
	d.origin = n
}

// SetRotation accepts only the native orientation. The monitor renders
// into a fixed-layout framebuffer; the window and the panel driver own
// orientation.
func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3
}

// clipSpan clamps [start, start+length) to [0, max).
func clipSpan(start, length, max int) (int, int) {
	end := start + length
	if start < 0 {
		start = 0
	}
	if end > max {
		end = max
	}
	return start, end
}
