package kernel

// Mutex is a task-level lock with direct ownership handoff. Waiters are not
// stored here; they sit in the waiting queue marked reason=mutex, so the
// queue's priority sort is also the wakeup order.
type Mutex struct {
	locked bool
	owner  *Task
}

// NewMutex returns an unlocked mutex.
func NewMutex() *Mutex { return &Mutex{} }

// Locked reports whether the mutex is held.
func (mx *Mutex) Locked() bool { return mx.locked }

// Owner is the holding task, nil when unlocked.
func (mx *Mutex) Owner() *Task { return mx.owner }

// Lock acquires mx for t, or parks t in the waiting queue until ownership is
// handed to it. Acquisition is implicit in the task running again.
func (s *Scheduler) Lock(mx *Mutex, t *Task) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.lockLocked(mx, t)
	s.port.EnableIRQ()
}

func (s *Scheduler) lockLocked(mx *Mutex, t *Task) {
	if !mx.locked {
		mx.locked = true
		mx.owner = t
		return
	}
	s.deleteTask(t)
	t.state = StateWaiting
	t.reason = ReasonMutex
	t.mux = mx
	s.insertTask(t)
	if t.vm != nil {
		t.vm.Preempt()
	}
}

// TryLock acquires mx for t without blocking. Reports whether it did.
func (s *Scheduler) TryLock(mx *Mutex, t *Task) bool {
	if t == nil {
		return false
	}
	s.port.DisableIRQ()
	ok := s.tryLockLocked(mx, t)
	s.port.EnableIRQ()
	return ok
}

func (s *Scheduler) tryLockLocked(mx *Mutex, t *Task) bool {
	if mx.locked {
		return false
	}
	mx.locked = true
	mx.owner = t
	return true
}

// Unlock releases mx. If a task is waiting, ownership transfers to the
// highest-priority waiter directly: the mutex never appears unlocked in
// between, so no other lock can steal it. Unlocking a mutex t does not own
// is a programmer error and panics.
func (s *Scheduler) Unlock(mx *Mutex, t *Task) {
	if t == nil {
		return
	}
	s.port.DisableIRQ()
	s.unlockLocked(mx, t)
	s.port.EnableIRQ()
}

func (s *Scheduler) unlockLocked(mx *Mutex, t *Task) {
	if !mx.locked || mx.owner != t {
		panic("kernel: mutex unlock by non-owner")
	}

	// The waiting queue is priority-sorted, so the first match is the
	// highest-priority waiter, FIFO among equals.
	for w := s.waiting; w != nil; w = w.next {
		if w.reason != ReasonMutex || w.mux != mx {
			continue
		}
		mx.owner = w
		s.deleteTask(w)
		w.state = StateReady
		w.reason = ReasonNone
		w.mux = nil
		s.insertTask(w)
		s.preemptRunning()
		return
	}

	mx.locked = false
	mx.owner = nil
}
