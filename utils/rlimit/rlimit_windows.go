//go:build windows

package rlimit

// Raise is a no-op on windows; there is no RLIMIT_NOFILE equivalent to set.
func Raise() {
}
