package kernel

// DumpQueues prints one row per task to the console sink. Rows are gathered
// under the mask and printed after, so the sink never runs with interrupts
// off.
func (s *Scheduler) DumpQueues() {
	type row struct {
		id     int
		pri    uint8
		pre    uint8
		state  TaskState
		reason WaitReason
		slice  uint8
		wakeup uint32
	}
	type group struct {
		name string
		rows []row
	}

	s.port.DisableIRQ()
	tick := s.tick
	groups := []group{
		{name: "ready"},
		{name: "waiting"},
		{name: "suspended"},
		{name: "dormant"},
	}
	for i, q := range []*Task{s.ready, s.waiting, s.suspended, s.dormant} {
		for t := q; t != nil; t = t.next {
			groups[i].rows = append(groups[i].rows, row{
				id:     t.id,
				pri:    t.priority,
				pre:    t.priorityPreempt,
				state:  t.state,
				reason: t.reason,
				slice:  t.timeslice,
				wakeup: t.wakeupTick,
			})
		}
	}
	s.port.EnableIRQ()

	s.console.Printf("tick=%d\n", tick)
	for _, g := range groups {
		s.console.Printf("%s:\n", g.name)
		for _, r := range g.rows {
			if r.reason == ReasonSleep {
				s.console.Printf("  task %d pri=%d/%d %s(%s) slice=%d wakeup=%d\n",
					r.id, r.pri, r.pre, r.state, r.reason, r.slice, r.wakeup)
				continue
			}
			s.console.Printf("  task %d pri=%d/%d %s slice=%d\n",
				r.id, r.pri, r.pre, r.state, r.slice)
		}
	}
}
