// Package vm provides the guest execution seam for the monitor: a Machine is
// one guest script instance that advances in discrete steps under the
// scheduler's control.
package vm

import "errors"

var (
	// ErrNotLoaded is returned by Begin when no program has been loaded.
	ErrNotLoaded = errors.New("vm: no program loaded")

	// ErrNoStep is returned by Begin when the guest defines no step function.
	ErrNoStep = errors.New("vm: guest defines no step() function")
)

// Machine is one guest execution instance.
//
// The scheduler drives it through the Load/Begin/Run/End/Close lifecycle.
// Run advances the guest by one step and returns its result; a negative
// result terminates the task. A step is expected to return promptly once the
// preemption flag is raised or the guest invokes a blocking call.
//
// The preemption flag is written from the tick interrupt and read from task
// context, so the implementations keep it atomic.
type Machine interface {
	Load(src string) error
	Begin() error
	Run() int
	End()
	Close()

	Preempt()
	ClearPreempt()
	Preempted() bool
}
