package app

import (
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"ember/hal"
)

type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *memLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *memLogger) text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

type stubDisplay struct{}

func (stubDisplay) Framebuffer() hal.Framebuffer { return nil }

// testHAL routes console output to memory and has no tick source; tests run
// the monitor in polled mode.
type testHAL struct {
	log *memLogger
	irq sync.Mutex
}

func (h *testHAL) Logger() hal.Logger   { return h.log }
func (h *testHAL) Display() hal.Display { return stubDisplay{} }
func (h *testHAL) Time() hal.Time       { return nil }
func (h *testHAL) DisableIRQ()          { h.irq.Lock() }
func (h *testHAL) EnableIRQ()           { h.irq.Unlock() }
func (h *testHAL) IdleCPU()             { runtime.Gosched() }

func runDemo(t *testing.T, demo string) string {
	t.Helper()
	h := &testHAL{log: &memLogger{}}
	entry := NewWithConfig(h, Config{Demo: demo, Polled: true})

	done := make(chan error, 1)
	go func() { done <- entry() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("monitor: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("demo %q did not drain", demo)
	}
	return h.log.text()
}

func TestRoundRobinDemoDrains(t *testing.T) {
	out := runDemo(t, "rr")

	for _, want := range []string{"A 1", "B 1", "C 1", "A 10", "B 10", "C 10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// Equal priority: the first rounds interleave instead of one task
	// monopolizing the monitor.
	a2 := strings.Index(out, "A 2")
	b1 := strings.Index(out, "B 1")
	if a2 < 0 || b1 < 0 || a2 < b1 {
		t.Fatalf("no rotation before a task's second round:\n%s", out)
	}
}

func TestMutexDemoDrains(t *testing.T) {
	out := runDemo(t, "mutex")

	for _, want := range []string{"high holds the lock 5", "low holds the lock 5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSleepDemoDrains(t *testing.T) {
	out := runDemo(t, "sleep")

	for _, want := range []string{"fast 20", "slow 5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnknownDemoReports(t *testing.T) {
	h := &testHAL{log: &memLogger{}}
	_ = NewWithConfig(h, Config{Demo: "nope", Polled: true})

	if !strings.Contains(h.log.text(), `unknown demo "nope"`) {
		t.Fatalf("log: %s", h.log.text())
	}
}
