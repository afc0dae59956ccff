// Package kernel is a realtime cooperative multitask monitor. It multiplexes
// guest machines over one hardware thread: four intrusive task queues keyed
// by state, priority-preemptive dispatch with fixed time slices, timed sleep,
// suspend/resume, and a direct-handoff mutex.
//
// Two contexts touch the queues: the dispatcher (task context) and the tick
// handler (timer context). Every queue mutation outside Tick runs under the
// port's interrupt mask; on hosted builds the mask is a mutex shared with the
// tick pump.
package kernel

import "ember/vm"

const (
	// TimesliceTicks is the default slice length in tick units.
	TimesliceTicks = 10

	// TickHz is the nominal tick rate. Sleep durations are converted to
	// ticks assuming one tick per millisecond.
	TickHz = 1000
)

// Port is the hardware seam the scheduler runs on. hal.HAL satisfies it.
type Port interface {
	DisableIRQ()
	EnableIRQ()
	IdleCPU()
}

// Console is the debug print sink.
type Console interface {
	Printf(format string, args ...any)
}

// Config carries the scheduler's collaborators.
type Config struct {
	Port Port

	// Open returns a fresh guest machine for CreateTask, with any host
	// bindings already installed.
	Open func() vm.Machine

	// Console receives load errors and queue dumps. Optional.
	Console Console

	// Timeslice overrides TimesliceTicks when nonzero.
	Timeslice uint8
}

// Scheduler owns the task queues and the global tick counter.
type Scheduler struct {
	port    Port
	open    func() vm.Machine
	console Console

	timeslice uint8

	dormant   *Task
	ready     *Task
	waiting   *Task
	suspended *Task

	tick   uint32
	nextID int
}

// New builds a scheduler. Config.Port and Config.Open must be set.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		port:      cfg.Port,
		open:      cfg.Open,
		console:   cfg.Console,
		timeslice: cfg.Timeslice,
	}
	if s.timeslice == 0 {
		s.timeslice = TimesliceTicks
	}
	if s.console == nil {
		s.console = nopConsole{}
	}
	return s
}

type nopConsole struct{}

func (nopConsole) Printf(string, ...any) {}

// CreateTask loads src into a fresh machine and enqueues the task.
//
// A nil t allocates a ready task at the default priority. A caller-provided
// dormant task is enqueued without a machine. Returns nil when the machine
// cannot load or begin the source; the error is printed to the console.
func (s *Scheduler) CreateTask(src string, t *Task) *Task {
	if t == nil {
		t = NewTask(DefaultPriority)
	}
	t.timeslice = s.timeslice
	t.priorityPreempt = t.priority

	if t.state != StateDormant {
		m := s.open()
		if err := m.Load(src); err != nil {
			s.console.Printf("task load: %v\n", err)
			m.Close()
			return nil
		}
		if err := m.Begin(); err != nil {
			s.console.Printf("task begin: %v\n", err)
			m.Close()
			return nil
		}
		t.vm = m
	}

	s.port.DisableIRQ()
	s.nextID++
	t.id = s.nextID
	s.insertTask(t)
	s.port.EnableIRQ()
	return t
}

// Run dispatches tasks until the ready, waiting, and suspended queues all
// drain. Ticks arrive from the port's timer; the caller pumps them into Tick.
func (s *Scheduler) Run() { s.run(false) }

// RunPolled is the no-timer variant: the dispatcher advances the clock
// itself, one tick per machine step, instead of batching ticks at slice
// exhaustion. Slices charge at step granularity and sleep deadlines are
// re-checked after every step. Used when no tick source is attached.
func (s *Scheduler) RunPolled() { s.run(true) }

func (s *Scheduler) run(polled bool) {
	for {
		s.port.DisableIRQ()
		t := s.ready
		if t == nil {
			drained := s.waiting == nil && s.suspended == nil
			if polled && !drained {
				s.tickLocked()
			}
			s.port.EnableIRQ()
			if drained {
				return
			}
			if !polled {
				s.port.IdleCPU()
			}
			continue
		}
		t.state = StateRunning
		s.port.EnableIRQ()

		t.vm.ClearPreempt()
		res := t.vm.Run()

		if res < 0 {
			if ec, ok := t.vm.(interface{ Err() error }); ok && ec.Err() != nil {
				s.console.Printf("task %d: %v\n", t.id, ec.Err())
			}
			s.port.DisableIRQ()
			s.deleteTask(t)
			t.state = StateDormant
			t.reason = ReasonNone
			s.insertTask(t)
			s.port.EnableIRQ()
			t.vm.End()
			t.vm.Close()
			t.vm = nil
			continue
		}

		s.port.DisableIRQ()
		if polled {
			// The task is still RUNNING here, so the tick charges
			// this step against its slice.
			s.tickLocked()
		}
		if t.state == StateRunning {
			t.state = StateReady
			if t.timeslice == 0 {
				// Slice exhausted: rotate to the tail of its
				// priority group.
				s.deleteTask(t)
				t.timeslice = s.timeslice
				s.insertTask(t)
			}
		}
		s.port.EnableIRQ()
	}
}

// Tick advances scheduler time by one tick: charge the running task's slice,
// wake overdue sleepers, and request a reschedule when anything woke.
//
// Called once per timer period from the tick pump.
func (s *Scheduler) Tick() {
	s.port.DisableIRQ()
	s.tickLocked()
	s.port.EnableIRQ()
}

func (s *Scheduler) tickLocked() {
	s.tick++

	if t := s.ready; t != nil && t.state == StateRunning && t.timeslice > 0 {
		t.timeslice--
		if t.timeslice == 0 {
			t.vm.Preempt()
		}
	}

	// Signed difference tolerates wraparound and wakes sleepers whose tick
	// was missed while the dispatcher was busy.
	woke := false
	var next *Task
	for t := s.waiting; t != nil; t = next {
		next = t.next
		if t.reason == ReasonSleep && int32(s.tick-t.wakeupTick) >= 0 {
			s.deleteTask(t)
			t.state = StateReady
			t.reason = ReasonNone
			t.timeslice = s.timeslice
			s.insertTask(t)
			woke = true
		}
	}
	if woke {
		s.preemptRunning()
	}
}

// preemptRunning raises the preemption flag on the running task, if any.
// The whole queue is scanned: a freshly woken higher-priority task may
// already sit in front of the running one. Callers hold the mask.
func (s *Scheduler) preemptRunning() {
	for t := s.ready; t != nil; t = t.next {
		if t.state == StateRunning && t.vm != nil {
			t.vm.Preempt()
		}
	}
}

// NowTick reports the current tick count.
func (s *Scheduler) NowTick() uint32 {
	s.port.DisableIRQ()
	tick := s.tick
	s.port.EnableIRQ()
	return tick
}
