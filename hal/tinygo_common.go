//go:build tinygo && baremetal

package hal

import (
	"machine"
	"runtime"
	"runtime/interrupt"
	"time"
)

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for _, c := range b {
		l.uart.WriteByte(c)
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type irqMask struct {
	state interrupt.State
}

func (m *irqMask) disable() { m.state = interrupt.Disable() }
func (m *irqMask) enable()  { interrupt.Restore(m.state) }

func idle() {
	// Let the tick goroutine run; WFE is not portable across targets.
	runtime.Gosched()
}
