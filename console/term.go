package console

import (
	"ember/hal"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// NewTerminal builds a terminal sink over a framebuffer. The returned writer
// redraws the panel after every write, so guest prints show up immediately.
//
// Returns nil when the framebuffer has no backing store (headless target
// without a panel); callers fall back to the plain logger sink.
func NewTerminal(fb hal.Framebuffer) *Terminal {
	if fb == nil || fb.Buffer() == nil {
		return nil
	}

	d := newFBDisplay(fb)
	t := tinyterm.NewTerminal(d)
	t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})
	fb.ClearRGB(0, 0, 0)
	_ = fb.Present()

	return &Terminal{t: t}
}

// Terminal is an io.Writer that renders text onto the panel.
type Terminal struct {
	t *tinyterm.Terminal
}

func (t *Terminal) Write(p []byte) (int, error) {
	n, err := t.t.Write(p)
	t.t.Display()
	return n, err
}
