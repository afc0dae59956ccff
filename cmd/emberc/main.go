// Command emberc compile-checks guest scripts before they go on a board.
//
// It compiles each file with the same engine the monitor runs, and with
// -begin also executes the top level against stub bindings and verifies the
// script defines step().
package main

import (
	"flag"
	"fmt"
	"os"

	"ember/internal/buildinfo"
	"ember/vm"
)

// bindingNames mirrors the host functions the monitor installs; the stubs
// keep a -begin run from tripping over an unresolved global.
var bindingNames = []string{
	"print",
	"sleep_ms",
	"sleep",
	"relinquish",
	"change_priority",
	"suspend_task",
	"suspend_id",
	"resume_task",
	"task_id",
	"mutex_lock",
	"mutex_unlock",
	"mutex_trylock",
	"mutex_held",
}

func main() {
	begin := flag.Bool("begin", false, "Run the top level and require a step() function.")
	version := flag.Bool("version", false, "Print version and exit.")
	flag.Parse()

	if *version {
		fmt.Println("emberc", buildinfo.Short())
		return
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: emberc [-begin] script.js ...")
		os.Exit(2)
	}

	status := 0
	for _, path := range flag.Args() {
		if err := check(path, *begin); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			status = 1
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	os.Exit(status)
}

func check(path string, begin bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	m := vm.Open()
	defer m.Close()
	if begin {
		for _, name := range bindingNames {
			_ = m.Define(name, func(args ...any) {})
		}
	}
	if err := m.Load(string(src)); err != nil {
		return err
	}
	if begin {
		if err := m.Begin(); err != nil {
			return err
		}
	}
	return nil
}
