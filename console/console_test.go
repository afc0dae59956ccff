package console

import (
	"image/color"
	"testing"

	"ember/hal"
)

type fakeLogger struct {
	lines []string
}

func (l *fakeLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *fakeLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

func TestLoggerWriterBuffersLines(t *testing.T) {
	l := &fakeLogger{}
	w := NewWriter(NewLoggerWriter(l))

	w.Printf("hello %s", "world")
	if len(l.lines) != 0 {
		t.Fatalf("flushed before newline: %v", l.lines)
	}
	w.Printf("\nsecond\n")

	if len(l.lines) != 2 || l.lines[0] != "hello world" || l.lines[1] != "second" {
		t.Fatalf("lines %v", l.lines)
	}
}

func TestWriterNilSinkDiscards(t *testing.T) {
	w := NewWriter(nil)
	w.Printf("dropped %d\n", 1)
	w.Println("also dropped")
}

type testFB struct {
	w, h      int
	buf       []byte
	presented int
}

func newTestFB(w, h int) *testFB {
	return &testFB{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }
func (f *testFB) Present() error          { f.presented++; return nil }

func (f *testFB) ClearRGB(r, g, b uint8) {
	for i := range f.buf {
		f.buf[i] = 0
	}
}

func (f *testFB) pixel(x, y int) uint16 {
	off := y*f.StrideBytes() + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

func TestFBDisplaySetPixel(t *testing.T) {
	fb := newTestFB(8, 4)
	d := newFBDisplay(fb)

	d.SetPixel(2, 1, color.RGBA{R: 255, A: 255})
	if got, want := fb.pixel(2, 1), rgb565From888(255, 0, 0); got != want {
		t.Fatalf("pixel %04x want %04x", got, want)
	}

	// Out of bounds writes are dropped.
	d.SetPixel(-1, 0, color.RGBA{R: 255})
	d.SetPixel(8, 0, color.RGBA{R: 255})
	d.SetPixel(0, 4, color.RGBA{R: 255})
}

func TestFBDisplayFillRectangleClips(t *testing.T) {
	fb := newTestFB(8, 4)
	d := newFBDisplay(fb)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if err := d.FillRectangle(6, 2, 10, 10, white); err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := rgb565From888(255, 255, 255)
	if fb.pixel(6, 2) != want || fb.pixel(7, 3) != want {
		t.Fatal("clipped fill missed in-bounds pixels")
	}
	if fb.pixel(5, 2) != 0 || fb.pixel(6, 1) != 0 {
		t.Fatal("fill leaked outside the rectangle")
	}
}

func TestFBDisplayScrollUp(t *testing.T) {
	fb := newTestFB(4, 4)
	d := newFBDisplay(fb)

	red := color.RGBA{R: 255, A: 255}
	if err := d.FillRectangle(0, 2, 4, 1, red); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if err := d.ScrollUp(1, color.RGBA{A: 255}); err != nil {
		t.Fatalf("scroll: %v", err)
	}

	want := rgb565From888(255, 0, 0)
	if fb.pixel(0, 1) != want {
		t.Fatal("row did not move up")
	}
	if fb.pixel(0, 2) != 0 {
		t.Fatal("old row not overwritten")
	}
	if fb.pixel(0, 3) != 0 {
		t.Fatal("exposed bottom row not cleared")
	}
}

func TestNewTerminalNeedsBackingStore(t *testing.T) {
	if term := NewTerminal(nil); term != nil {
		t.Fatal("terminal over nil framebuffer")
	}

	fb := newTestFB(64, 32)
	term := NewTerminal(fb)
	if term == nil {
		t.Fatal("no terminal over a real framebuffer")
	}
	if fb.presented == 0 {
		t.Fatal("initial clear not presented")
	}

	if _, err := term.Write([]byte("hi\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
}
