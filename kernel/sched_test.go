package kernel

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ember/vm"
)

// fakeMachine is a scripted stand-in for a guest machine. Each Run pops the
// next step; running past the script terminates the task.
type fakeMachine struct {
	steps []func() int
	i     int

	flag atomic.Bool

	loadErr  error
	beginErr error
	began    bool
	ended    bool
	closed   bool
}

func (m *fakeMachine) Load(src string) error { return m.loadErr }

func (m *fakeMachine) Begin() error {
	if m.beginErr != nil {
		return m.beginErr
	}
	m.began = true
	return nil
}

func (m *fakeMachine) Run() int {
	if m.i >= len(m.steps) {
		return -1
	}
	f := m.steps[m.i]
	m.i++
	return f()
}

func (m *fakeMachine) End()            { m.ended = true }
func (m *fakeMachine) Close()          { m.closed = true }
func (m *fakeMachine) Preempt()        { m.flag.Store(true) }
func (m *fakeMachine) ClearPreempt()   { m.flag.Store(false) }
func (m *fakeMachine) Preempted() bool { return m.flag.Load() }

type fakePort struct {
	mu   sync.Mutex
	idle func()
}

func (p *fakePort) DisableIRQ() { p.mu.Lock() }
func (p *fakePort) EnableIRQ()  { p.mu.Unlock() }
func (p *fakePort) IdleCPU() {
	if p.idle != nil {
		p.idle()
	}
}

type recordConsole struct {
	mu sync.Mutex
	b  strings.Builder
}

func (c *recordConsole) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(&c.b, format, args...)
}

func (c *recordConsole) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b.String()
}

type testEnv struct {
	s    *Scheduler
	port *fakePort
	cons *recordConsole

	opens []vm.Machine
}

func newEnv() *testEnv {
	e := &testEnv{port: &fakePort{}, cons: &recordConsole{}}
	e.s = New(Config{
		Port:    e.port,
		Console: e.cons,
		Open: func() vm.Machine {
			m := e.opens[0]
			e.opens = e.opens[1:]
			return m
		},
	})
	return e
}

func (e *testEnv) create(pri uint8, m *fakeMachine) *Task {
	e.opens = append(e.opens, m)
	return e.s.CreateTask("", NewTask(pri))
}

func runDrain(t *testing.T, run func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not drain")
	}
}

// checkSorted walks every queue and fails on a sort violation.
func checkSorted(t *testing.T, s *Scheduler) {
	t.Helper()
	for _, q := range []*Task{s.dormant, s.ready, s.waiting, s.suspended} {
		prev := -1
		for n := q; n != nil; n = n.next {
			if int(n.priorityPreempt) < prev {
				t.Fatalf("queue out of order: %d after %d", n.priorityPreempt, prev)
			}
			prev = int(n.priorityPreempt)
		}
	}
}

// queueCount reports how many queues hold tk.
func queueCount(s *Scheduler, tk *Task) int {
	n := 0
	for _, q := range []*Task{s.dormant, s.ready, s.waiting, s.suspended} {
		for t := q; t != nil; t = t.next {
			if t == tk {
				n++
			}
		}
	}
	return n
}

func TestRoundRobinWithinPriority(t *testing.T) {
	e := newEnv()

	var log []string
	var tasks [3]*Task
	names := []string{"A", "B", "C"}
	for i, name := range names {
		i, name := i, name
		m := &fakeMachine{}
		for n := 0; n < 3; n++ {
			m.steps = append(m.steps, func() int {
				log = append(log, name)
				e.s.Relinquish(tasks[i])
				return 0
			})
		}
		tasks[i] = e.create(100, m)
		if tasks[i] == nil {
			t.Fatal("create failed")
		}
	}

	runDrain(t, e.s.Run)

	want := []string{"A", "B", "C", "A", "B", "C", "A", "B", "C"}
	if len(log) != len(want) {
		t.Fatalf("got %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("step %d: got %q want %q (full: %v)", i, log[i], want[i], log)
		}
	}
}

func TestPriorityPreemptionOnResume(t *testing.T) {
	e := newEnv()

	var log []string
	var low, high *Task
	var ml *fakeMachine
	preempted := false

	mh := &fakeMachine{steps: []func() int{
		func() int {
			log = append(log, "H")
			preempted = ml.flag.Load()
			return -1
		},
	}}
	ml = &fakeMachine{steps: []func() int{
		func() int {
			log = append(log, "L1")
			e.s.ResumeTask(high)
			return 0
		},
		func() int { log = append(log, "L2"); return -1 },
	}}

	high = e.create(50, mh)
	low = e.create(200, ml)
	e.s.SuspendTask(high)

	if low.State() != StateReady {
		t.Fatalf("low state %v", low.State())
	}

	runDrain(t, e.s.Run)

	// The resumed high-priority task runs before low's next step.
	want := []string{"L1", "H", "L2"}
	for i := range want {
		if i >= len(log) || log[i] != want[i] {
			t.Fatalf("got %v want %v", log, want)
		}
	}
	if !preempted {
		t.Fatal("running task was not asked to yield on resume")
	}
}

func TestSleepWakeup(t *testing.T) {
	e := newEnv()
	e.port.idle = func() { e.s.Tick() }

	var start, wake uint32
	var tk *Task
	m := &fakeMachine{steps: []func() int{
		func() int {
			start = e.s.NowTick()
			e.s.SleepMS(tk, 5)
			return 0
		},
		func() int {
			wake = e.s.NowTick()
			return -1
		},
	}}
	tk = e.create(100, m)

	runDrain(t, e.s.Run)

	if wake < start+5 {
		t.Fatalf("woke at tick %d, slept at %d", wake, start)
	}
}

func TestSleepWakeupPolled(t *testing.T) {
	e := newEnv()

	var start, wake uint32
	var tk *Task
	m := &fakeMachine{steps: []func() int{
		func() int {
			start = e.s.NowTick()
			e.s.SleepMS(tk, 5)
			return 0
		},
		func() int {
			wake = e.s.NowTick()
			return -1
		},
	}}
	tk = e.create(100, m)

	runDrain(t, e.s.RunPolled)

	if wake < start+5 {
		t.Fatalf("woke at tick %d, slept at %d", wake, start)
	}
}

func TestTimesliceRotationPolled(t *testing.T) {
	e := newEnv()
	e.s.timeslice = 2

	var log []string
	var tasks [2]*Task
	for i, name := range []string{"A", "B"} {
		i, name := i, name
		m := &fakeMachine{}
		for n := 0; n < 4; n++ {
			m.steps = append(m.steps, func() int {
				log = append(log, name)
				return 0
			})
		}
		tasks[i] = e.create(100, m)
	}
	_ = tasks

	runDrain(t, e.s.RunPolled)

	// Slice of two: two steps per turn.
	want := []string{"A", "A", "B", "B", "A", "A", "B", "B"}
	for i := range want {
		if i >= len(log) || log[i] != want[i] {
			t.Fatalf("got %v want %v", log, want)
		}
	}
}

func TestTerminateDrains(t *testing.T) {
	e := newEnv()

	m := &fakeMachine{steps: []func() int{
		func() int { return -1 },
	}}
	tk := e.create(100, m)

	runDrain(t, e.s.Run)

	if tk.State() != StateDormant {
		t.Fatalf("state %v", tk.State())
	}
	if !m.ended || !m.closed {
		t.Fatal("machine not ended and closed")
	}
	if tk.vm != nil {
		t.Fatal("machine still attached")
	}
	if queueCount(e.s, tk) != 1 {
		t.Fatal("task not on exactly one queue")
	}
}

func TestSuspendResumeRoundTrip(t *testing.T) {
	e := newEnv()

	tk := e.create(77, &fakeMachine{})
	e.s.SuspendTask(tk)
	if tk.State() != StateSuspended {
		t.Fatalf("state %v", tk.State())
	}
	if queueCount(e.s, tk) != 1 {
		t.Fatal("task not on exactly one queue")
	}

	e.s.ResumeTask(tk)
	if tk.State() != StateReady {
		t.Fatalf("state %v", tk.State())
	}
	if tk.Priority() != 77 {
		t.Fatalf("priority changed to %d", tk.Priority())
	}
	checkSorted(t, e.s)
}

func TestChangePriorityResorts(t *testing.T) {
	e := newEnv()

	a := e.create(100, &fakeMachine{})
	b := e.create(100, &fakeMachine{})
	c := e.create(100, &fakeMachine{})
	_ = a
	_ = b

	e.s.ChangePriority(c, 10)
	checkSorted(t, e.s)
	if e.s.ready != c {
		t.Fatal("repriorized task is not the ready head")
	}
	if c.timeslice != 0 {
		t.Fatal("slice not cleared")
	}

	e.s.ChangePriority(c, 200)
	checkSorted(t, e.s)
	if e.s.ready == c {
		t.Fatal("demoted task still at the head")
	}
}

func TestQueueSortStableFIFO(t *testing.T) {
	e := newEnv()

	a := e.create(100, &fakeMachine{})
	b := e.create(50, &fakeMachine{})
	c := e.create(100, &fakeMachine{})
	d := e.create(100, &fakeMachine{})

	checkSorted(t, e.s)

	got := []*Task{}
	for n := e.s.ready; n != nil; n = n.next {
		got = append(got, n)
	}
	want := []*Task{b, a, c, d}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("order %v, want b,a,c,d by id", ids(got))
		}
	}
}

func ids(ts []*Task) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = t.id
	}
	return out
}

func TestOverdueSleeperStillWakes(t *testing.T) {
	e := newEnv()
	tk := e.create(100, &fakeMachine{})

	e.s.SleepMS(tk, 3)
	// Burn past the wakeup tick in one go, as if ticks were missed.
	for i := 0; i < 10; i++ {
		e.s.tick++
	}
	e.s.Tick()

	if tk.State() != StateReady {
		t.Fatalf("state %v", tk.State())
	}
}

func TestSleepWakeupAcrossTickWrap(t *testing.T) {
	e := newEnv()
	tk := e.create(100, &fakeMachine{})

	e.s.tick = ^uint32(0) - 1
	e.s.SleepMS(tk, 4)
	for i := 0; i < 6; i++ {
		e.s.Tick()
	}

	if tk.State() != StateReady {
		t.Fatalf("state %v after wraparound", tk.State())
	}
}

func TestTickChargesRunningSlice(t *testing.T) {
	e := newEnv()
	m := &fakeMachine{}
	tk := e.create(100, m)

	tk.state = StateRunning
	tk.timeslice = 2

	e.s.Tick()
	if tk.timeslice != 1 || m.flag.Load() {
		t.Fatalf("slice %d preempt %v after one tick", tk.timeslice, m.flag.Load())
	}
	e.s.Tick()
	if tk.timeslice != 0 || !m.flag.Load() {
		t.Fatalf("slice %d preempt %v after two ticks", tk.timeslice, m.flag.Load())
	}
}

func TestCreateTaskLoadFailure(t *testing.T) {
	e := newEnv()
	m := &fakeMachine{loadErr: fmt.Errorf("bad script")}
	e.opens = append(e.opens, m)

	if tk := e.s.CreateTask("nonsense", nil); tk != nil {
		t.Fatal("expected nil task")
	}
	if !m.closed {
		t.Fatal("machine leaked")
	}
	if !strings.Contains(e.cons.String(), "bad script") {
		t.Fatalf("console: %q", e.cons.String())
	}
}

func TestCreateDormantTaskHasNoMachine(t *testing.T) {
	e := newEnv()

	tk := e.s.CreateTask("", NewDormantTask(100))
	if tk == nil {
		t.Fatal("create failed")
	}
	if tk.State() != StateDormant || tk.vm != nil {
		t.Fatalf("state %v vm %v", tk.State(), tk.vm)
	}
	if queueCount(e.s, tk) != 1 {
		t.Fatal("task not on exactly one queue")
	}
}

func TestGuestOpsUnknownMachineNoop(t *testing.T) {
	e := newEnv()
	e.create(100, &fakeMachine{})

	stranger := &fakeMachine{}
	e.s.SleepVM(stranger, 10)
	e.s.RelinquishVM(stranger)
	e.s.ChangePriorityVM(stranger, 5)
	e.s.SuspendVM(stranger)
	e.s.ResumeID(99)
	if got := e.s.TaskIDVM(stranger); got != 0 {
		t.Fatalf("id %d for unknown machine", got)
	}
	checkSorted(t, e.s)
}

func TestDumpQueues(t *testing.T) {
	e := newEnv()
	a := e.create(100, &fakeMachine{})
	b := e.create(50, &fakeMachine{})
	e.s.SleepMS(b, 10)
	_ = a

	e.s.DumpQueues()

	out := e.cons.String()
	for _, want := range []string{"ready:", "waiting:", "task 1", "task 2", "sleep", "wakeup=10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}
