//go:build tinygo

package main

import (
	"ember/app"
	"ember/hal"
)

func main() {
	h := hal.New()
	app.BootScreen(h)
	app.Run(h)
}
