package kernel

import "ember/vm"

// Guest-facing entry points. Guests identify themselves by their machine;
// the wrapper resolves the task and applies the operation inside one
// critical section. An unknown machine or task id is a silent no-op: the
// task may already have terminated.

// taskByVMLocked finds the task bound to m. Only ready-queue tasks can be
// executing guest code, so the scan stays there.
func (s *Scheduler) taskByVMLocked(m vm.Machine) *Task {
	for t := s.ready; t != nil; t = t.next {
		if t.vm == m {
			return t
		}
	}
	return nil
}

// taskByIDLocked finds a task by creation id across all queues.
func (s *Scheduler) taskByIDLocked(id int) *Task {
	for _, q := range []*Task{s.ready, s.waiting, s.suspended, s.dormant} {
		for t := q; t != nil; t = t.next {
			if t.id == id {
				return t
			}
		}
	}
	return nil
}

// SleepVM puts the calling guest to sleep for ms milliseconds.
func (s *Scheduler) SleepVM(m vm.Machine, ms int) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.sleepLocked(t, ms)
	}
	s.port.EnableIRQ()
}

// SleepSecondsVM puts the calling guest to sleep for sec seconds, which may
// be fractional.
func (s *Scheduler) SleepSecondsVM(m vm.Machine, sec float64) {
	s.SleepVM(m, int(sec*1000))
}

// RelinquishVM gives up the calling guest's remaining slice.
func (s *Scheduler) RelinquishVM(m vm.Machine) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.relinquishLocked(t)
	}
	s.port.EnableIRQ()
}

// ChangePriorityVM reprioritizes the calling guest.
func (s *Scheduler) ChangePriorityVM(m vm.Machine, pri int) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.changePriorityLocked(t, pri)
	}
	s.port.EnableIRQ()
}

// SuspendVM suspends the calling guest.
func (s *Scheduler) SuspendVM(m vm.Machine) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.suspendLocked(t)
	}
	s.port.EnableIRQ()
}

// ResumeID resumes the task with the given creation id.
func (s *Scheduler) ResumeID(id int) {
	s.port.DisableIRQ()
	if t := s.taskByIDLocked(id); t != nil && t.state == StateSuspended {
		s.resumeLocked(t)
	}
	s.port.EnableIRQ()
}

// SuspendID suspends the task with the given creation id.
func (s *Scheduler) SuspendID(id int) {
	s.port.DisableIRQ()
	if t := s.taskByIDLocked(id); t != nil && t.state != StateDormant {
		s.suspendLocked(t)
	}
	s.port.EnableIRQ()
}

// TaskIDVM reports the calling guest's task id, 0 when unknown.
func (s *Scheduler) TaskIDVM(m vm.Machine) int {
	s.port.DisableIRQ()
	defer s.port.EnableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		return t.id
	}
	return 0
}

// LockVM acquires mx on behalf of the calling guest.
func (s *Scheduler) LockVM(m vm.Machine, mx *Mutex) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.lockLocked(mx, t)
	}
	s.port.EnableIRQ()
}

// TryLockVM tries to acquire mx for the calling guest without blocking.
func (s *Scheduler) TryLockVM(m vm.Machine, mx *Mutex) bool {
	s.port.DisableIRQ()
	defer s.port.EnableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		return s.tryLockLocked(mx, t)
	}
	return false
}

// HeldVM reports whether the calling guest owns mx. Guests check it after a
// blocking lock parked them: re-dispatch means ownership was handed over.
func (s *Scheduler) HeldVM(m vm.Machine, mx *Mutex) bool {
	s.port.DisableIRQ()
	defer s.port.EnableIRQ()
	t := s.taskByVMLocked(m)
	return t != nil && mx.owner == t
}

// UnlockVM releases mx held by the calling guest.
func (s *Scheduler) UnlockVM(m vm.Machine, mx *Mutex) {
	s.port.DisableIRQ()
	if t := s.taskByVMLocked(m); t != nil {
		s.unlockLocked(mx, t)
	}
	s.port.EnableIRQ()
}
