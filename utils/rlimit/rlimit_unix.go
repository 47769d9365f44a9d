//go:build !windows

// Package rlimit raises the process's open-file limit. A disk cache can
// easily hold one open file descriptor per in-flight Put/Get plus the
// journal handle, so the default per-process limit on many systems is
// worth raising at startup rather than failing cache operations under load.
package rlimit

import (
	"log"
	"syscall"
)

// Raise sets RLIMIT_NOFILE's soft limit to its hard limit.
func Raise() {
	var limits syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limits); err != nil {
		log.Println("rlimit: failed to read RLIMIT_NOFILE:", err)
		return
	}

	log.Printf("rlimit: RLIMIT_NOFILE cur: %d max: %d", limits.Cur, limits.Max)

	limits.Cur = limits.Max

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &limits); err != nil {
		log.Println("rlimit: failed to raise RLIMIT_NOFILE:", err)
	}
}
