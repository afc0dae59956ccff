package kernel

import "fmt"

// queueFor maps a task state to its queue head. Ready and running tasks share
// one queue: the running task is always its head.
//
// Callers hold the interrupt mask.
func (s *Scheduler) queueFor(state TaskState) **Task {
	switch state {
	case StateDormant:
		return &s.dormant
	case StateReady, StateRunning:
		return &s.ready
	case StateWaiting:
		return &s.waiting
	case StateSuspended:
		return &s.suspended
	default:
		panic(fmt.Sprintf("kernel: invalid task state %d", state))
	}
}

// insertTask links t into the queue selected by its state, sorted ascending
// by effective priority, after all entries of equal priority.
func (s *Scheduler) insertTask(t *Task) {
	q := s.queueFor(t.state)
	for *q != nil && (*q).priorityPreempt <= t.priorityPreempt {
		q = &(*q).next
	}
	t.next = *q
	*q = t
}

// deleteTask unlinks t by identity from the queue selected by its state.
// A task that is not on the queue is left alone.
func (s *Scheduler) deleteTask(t *Task) {
	q := s.queueFor(t.state)
	for *q != nil {
		if *q == t {
			*q = t.next
			t.next = nil
			return
		}
		q = &(*q).next
	}
}
