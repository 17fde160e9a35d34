// Package debug implements the WAYLAND_DEBUG-gated wire dump that
// Wayland developers expect: set WAYLAND_DEBUG=1 and every message in
// and out gets logged.
package debug

import (
	"log"
	"os"
	"strconv"
)

var enabled bool

func init() {
	level, err := strconv.Atoi(os.Getenv("WAYLAND_DEBUG"))
	enabled = err == nil && level > 0
}

func Enabled() bool { return enabled }

func Printf(format string, args ...any) {
	if enabled {
		log.Printf(format, args...)
	}
}
