package vm

import (
	"fmt"
	"sync/atomic"

	"github.com/dop251/goja"
)

// Script is the goja-backed Machine.
//
// A guest is a JavaScript source that defines a global step() function.
// Begin runs the top level once; each Run invokes step() and maps its return
// value to the scheduler result: a negative number terminates the task, any
// other value (or none) keeps it alive. Long-running steps poll the built-in
// preempted() and return early.
type Script struct {
	rt   *goja.Runtime
	prog *goja.Program
	step goja.Callable
	flag atomic.Bool
	err  error
}

// Open returns a fresh guest machine with the preempted() built-in installed.
func Open() *Script {
	m := &Script{rt: goja.New()}
	_ = m.rt.Set("preempted", func() bool { return m.flag.Load() })
	return m
}

// Define installs a host binding into the guest global scope.
func (m *Script) Define(name string, fn any) error {
	return m.rt.Set(name, fn)
}

// Load compiles the guest source.
func (m *Script) Load(src string) error {
	prog, err := goja.Compile("guest", src, true)
	if err != nil {
		return fmt.Errorf("vm: compile: %w", err)
	}
	m.prog = prog
	return nil
}

// Begin runs the guest top level and resolves the step function.
func (m *Script) Begin() error {
	if m.prog == nil {
		return ErrNotLoaded
	}
	if _, err := m.rt.RunProgram(m.prog); err != nil {
		return fmt.Errorf("vm: begin: %w", err)
	}
	step, ok := goja.AssertFunction(m.rt.Get("step"))
	if !ok {
		return ErrNoStep
	}
	m.step = step
	return nil
}

// Run advances the guest by one step.
//
// A guest exception terminates the task; the error is kept for Err.
func (m *Script) Run() int {
	v, err := m.step(goja.Undefined())
	if err != nil {
		m.err = err
		return -1
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	return int(v.ToInteger())
}

// Err reports the guest exception that ended the last Run, if any.
func (m *Script) Err() error { return m.err }

// End finishes the execution state.
func (m *Script) End() {
	m.step = nil
}

// Close releases the runtime.
func (m *Script) Close() {
	m.rt = nil
	m.prog = nil
	m.step = nil
}

func (m *Script) Preempt()        { m.flag.Store(true) }
func (m *Script) ClearPreempt()   { m.flag.Store(false) }
func (m *Script) Preempted() bool { return m.flag.Load() }
