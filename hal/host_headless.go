//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int    // tick rate; 0 means the nominal 1kHz
	Ticks   uint64 // stop after N ticks (0 = run until the monitor drains)
	NoTimer bool   // no tick source; the dispatcher simulates ticks itself
}

// RunHeadless runs the monitor without opening a window.
//
// newApp receives the HAL and returns the blocking monitor entry; RunHeadless
// drives the tick source until that entry returns or the context is done.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 1000
	}

	h := New().(*hostHAL)
	run := newApp(h)

	done := make(chan error, 1)
	go func() { done <- run() }()

	if cfg.NoTimer {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		}
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case <-t.C:
			h.t.stepN(1)
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
