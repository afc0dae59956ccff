//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	t      *hostTime

	// irq emulates the interrupt mask: the tick pump takes the same lock
	// before calling into the scheduler, so DisableIRQ really does keep the
	// "interrupt context" out of the queues.
	irq sync.Mutex
}

// New returns a host HAL implementation.
func New() HAL {
	return &hostHAL{
		logger: &hostLogger{w: os.Stdout},
		fb:     newHostFramebuffer(480, 320),
		t:      newHostTime(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }

func (h *hostHAL) DisableIRQ() { h.irq.Lock() }
func (h *hostHAL) EnableIRQ()  { h.irq.Unlock() }

func (h *hostHAL) IdleCPU() {
	// Nothing runnable; let the tick pump make progress.
	runtime.Gosched()
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
