package app

import (
	"ember/kernel"
	"ember/vm"
)

// installBindings wires the monitor calls into the guest global scope. Each
// machine gets closures keyed on itself; the scheduler resolves the task and
// silently ignores machines whose task is gone.
//
// mux is the shared guest mutex: one lock all guests contend on.
func installBindings(m *vm.Script, sys *system, mux *kernel.Mutex) {
	_ = m.Define("print", func(args ...any) {
		sys.cons.Println(args...)
	})

	_ = m.Define("sleep_ms", func(ms int) { sys.sched.SleepVM(m, ms) })
	_ = m.Define("sleep", func(sec float64) { sys.sched.SleepSecondsVM(m, sec) })
	_ = m.Define("relinquish", func() { sys.sched.RelinquishVM(m) })
	_ = m.Define("change_priority", func(pri int) { sys.sched.ChangePriorityVM(m, pri) })
	_ = m.Define("suspend_task", func() { sys.sched.SuspendVM(m) })
	_ = m.Define("suspend_id", func(id int) { sys.sched.SuspendID(id) })
	_ = m.Define("resume_task", func(id int) { sys.sched.ResumeID(id) })
	_ = m.Define("task_id", func() int { return sys.sched.TaskIDVM(m) })

	_ = m.Define("mutex_lock", func() { sys.sched.LockVM(m, mux) })
	_ = m.Define("mutex_unlock", func() { sys.sched.UnlockVM(m, mux) })
	_ = m.Define("mutex_trylock", func() bool { return sys.sched.TryLockVM(m, mux) })
	_ = m.Define("mutex_held", func() bool { return sys.sched.HeldVM(m, mux) })
}
