package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides the base tick stream.
//
// One tick is nominally 1ms; the monitor's tick handler is driven from it.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the monitor and the outside
// world: a log sink, an optional display, the tick source, and the
// interrupt-mask primitives the scheduler brackets its critical sections with.
//
// On hosted builds DisableIRQ/EnableIRQ are emulated with a mutex shared
// with the tick pump; on bare metal they mask the timer interrupt.
type HAL interface {
	Logger() Logger
	Display() Display
	Time() Time

	DisableIRQ()
	EnableIRQ()
	IdleCPU()
}
