// +build !darwin
// +build !windows

package rlimit

import (
	"log"
	"syscall"
)

// Raise sets RLIMIT_NOFILE to its max value. The engine can hold a resident
// layer file descriptor open per candidate under consideration across many
// tenants; the default per-process limit on most distros is too low for a
// busy storage node.
func Raise() {
	var limits syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limits)
	if err != nil {
		log.Println("Failed to find rlimit from getrlimit:", err)
		return
	}

	log.Printf("Initial RLIMIT_NOFILE cur: %d max: %d", limits.Cur, limits.Max)

	limits.Cur = limits.Max

	log.Printf("Setting RLIMIT_NOFILE cur: %d max: %d", limits.Cur, limits.Max)

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &limits)
	if err != nil {
		log.Println("Failed to set rlimit:", err)
		return
	}
}
