package kernel

// Blocking operations. Each has a public form that takes the interrupt mask
// and a locked form shared with the guest bindings, which resolve the task
// and apply the operation inside a single critical section.
//
// All public forms no-op on a nil task.

// SleepMS parks t in the waiting queue until ms milliseconds of ticks have
// elapsed, then raises its preemption flag so the machine yields.
func (s *Scheduler) SleepMS(t *Task, ms int) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.sleepLocked(t, ms)
	s.port.EnableIRQ()
}

func (s *Scheduler) sleepLocked(t *Task, ms int) {
	s.deleteTask(t)
	t.state = StateWaiting
	t.reason = ReasonSleep
	t.wakeupTick = s.tick + uint32(ms)
	s.insertTask(t)
	if t.vm != nil {
		t.vm.Preempt()
	}
}

// Relinquish gives up the rest of t's slice. The dispatcher rotates it to
// the tail of its priority group on the next requeue.
func (s *Scheduler) Relinquish(t *Task) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.relinquishLocked(t)
	s.port.EnableIRQ()
}

func (s *Scheduler) relinquishLocked(t *Task) {
	t.timeslice = 0
	if t.vm != nil {
		t.vm.Preempt()
	}
}

// ChangePriority moves t to priority pri and requeues it so the sort
// invariant holds immediately, not at the next dispatch.
func (s *Scheduler) ChangePriority(t *Task, pri int) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.changePriorityLocked(t, pri)
	s.port.EnableIRQ()
}

func (s *Scheduler) changePriorityLocked(t *Task, pri int) {
	s.deleteTask(t)
	t.priority = uint8(pri)
	t.priorityPreempt = uint8(pri)
	t.timeslice = 0
	s.insertTask(t)
	if t.vm != nil {
		t.vm.Preempt()
	}
}

// SuspendTask moves t to the suspended queue regardless of its state.
func (s *Scheduler) SuspendTask(t *Task) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.suspendLocked(t)
	s.port.EnableIRQ()
}

func (s *Scheduler) suspendLocked(t *Task) {
	s.deleteTask(t)
	t.state = StateSuspended
	t.reason = ReasonNone
	s.insertTask(t)
	if t.vm != nil {
		t.vm.Preempt()
	}
}

// ResumeTask returns a suspended task to the ready queue. The running task
// is asked to yield so a higher-priority resumee is dispatched next.
func (s *Scheduler) ResumeTask(t *Task) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.resumeLocked(t)
	s.port.EnableIRQ()
}

func (s *Scheduler) resumeLocked(t *Task) {
	s.deleteTask(t)
	t.state = StateReady
	t.reason = ReasonNone
	s.insertTask(t)
	s.preemptRunning()
}
