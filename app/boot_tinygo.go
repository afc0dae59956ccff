//go:build tinygo

package app

import (
	"image/color"

	"ember/hal"
	"ember/internal/buildinfo"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// BootScreen paints a short banner before the monitor starts, so a board
// with a dead UART still shows signs of life.
func BootScreen(h hal.HAL) {
	if h == nil {
		return
	}
	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil || fb.Buffer() == nil {
		return
	}

	fb.ClearRGB(0, 0, 0)

	d := panicDisplay{fb: fb}
	font := &proggy.TinySZ8pt7b
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(d, font, 0, 12, "ember "+buildinfo.Short(), fg)
	_ = fb.Present()
}
