package app

import (
	"fmt"

	"ember/console"
	"ember/kernel"
)

// Demo guest programs. Each guest defines a global step(); a negative return
// ends the task. A blocking call parks the task and step() runs again from
// the top at the next dispatch, so guests keep their progress in globals.

type taskSpec struct {
	priority uint8
	src      string
}

func printLoop(name string, pri uint8, ms, rounds int) taskSpec {
	return taskSpec{
		priority: pri,
		src: fmt.Sprintf(`
var n = 0;
function step() {
	n++;
	print(%q, n);
	if (n >= %d) return -1;
	sleep_ms(%d);
}
`, name, rounds, ms),
	}
}

func spinLoop(name string, pri uint8, rounds int) taskSpec {
	return taskSpec{
		priority: pri,
		src: fmt.Sprintf(`
var n = 0;
function step() {
	n++;
	print(%q, n);
	if (n >= %d) return -1;
	relinquish();
}
`, name, rounds),
	}
}

func mutexLoop(name string, pri uint8, ms, rounds int) taskSpec {
	return taskSpec{
		priority: pri,
		src: fmt.Sprintf(`
var n = 0;
function step() {
	if (!mutex_held()) {
		mutex_lock();
		if (!mutex_held()) return;
	}
	n++;
	print(%q, "holds the lock", n);
	mutex_unlock();
	if (n >= %d) return -1;
	sleep_ms(%d);
}
`, name, rounds, ms),
	}
}

var demos = map[string][]taskSpec{
	// Two sleepers at different periods and priorities.
	"sleep": {
		printLoop("fast", 100, 100, 20),
		printLoop("slow", 120, 500, 5),
	},

	// Three equal-priority spinners; slice exhaustion and relinquish
	// rotate them round-robin.
	"rr": {
		spinLoop("A", 100, 10),
		spinLoop("B", 100, 10),
		spinLoop("C", 100, 10),
	},

	// Contenders on the shared mutex; the higher-priority waiter is handed
	// the lock first.
	"mutex": {
		mutexLoop("low", 100, 30, 5),
		mutexLoop("high", 50, 30, 5),
	},
}

func loadDemo(s *kernel.Scheduler, cons *console.Writer, name string) {
	if name == "" {
		name = "sleep"
	}
	specs, ok := demos[name]
	if !ok {
		cons.Printf("unknown demo %q\n", name)
		return
	}
	for _, sp := range specs {
		if s.CreateTask(sp.src, kernel.NewTask(sp.priority)) == nil {
			cons.Printf("demo %s: task rejected\n", name)
		}
	}
}
