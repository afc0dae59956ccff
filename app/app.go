// Package app assembles the monitor: HAL, scheduler, guest machines with
// their host bindings, and the console sink.
package app

import (
	"io"

	"ember/console"
	"ember/hal"
	"ember/kernel"
	"ember/vm"
)

type Config struct {
	// Demo selects the guest program set; see demo.go. Empty means "sleep".
	Demo string

	// Polled runs the dispatcher without a tick source: every machine step
	// counts as one tick.
	Polled bool

	// Dump prints the task queues after the monitor drains.
	Dump bool
}

type system struct {
	h     hal.HAL
	sched *kernel.Scheduler
	cons  *console.Writer
}

// New assembles the monitor on h with default config and returns its
// blocking entry.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{})
}

func NewWithConfig(h hal.HAL, cfg Config) func() error {
	sys := newSystem(h, cfg)
	return func() error { return sys.run(cfg) }
}

// Run starts the monitor and halts when it drains (hardware entrypoint).
func Run(h hal.HAL) {
	_ = New(h)()
	select {}
}

func newSystem(h hal.HAL, cfg Config) *system {
	var sink io.Writer
	if term := console.NewTerminal(h.Display().Framebuffer()); term != nil {
		sink = term
	} else {
		sink = console.NewLoggerWriter(h.Logger())
	}

	sys := &system{h: h, cons: console.NewWriter(sink)}

	mux := kernel.NewMutex()
	sys.sched = kernel.New(kernel.Config{
		Port:    h,
		Console: sys.cons,
		Open: func() vm.Machine {
			m := vm.Open()
			installBindings(m, sys, mux)
			return m
		},
	})

	if !cfg.Polled {
		if ht := h.Time(); ht != nil {
			if ch := ht.Ticks(); ch != nil {
				go func() {
					for range ch {
						sys.sched.Tick()
					}
				}()
			}
		}
	}

	loadDemo(sys.sched, sys.cons, cfg.Demo)
	return sys
}

func (sys *system) run(cfg Config) error {
	defer func() {
		if v := recover(); v != nil {
			reportPanic(sys.h, v)
			panic(v)
		}
	}()

	if cfg.Polled {
		sys.sched.RunPolled()
	} else {
		sys.sched.Run()
	}
	if cfg.Dump {
		sys.sched.DumpQueues()
	}
	return nil
}
