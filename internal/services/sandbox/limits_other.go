//go:build !linux

package sandbox

import "os"

// Resource limits are only applied on Linux.
func applyLimits(pid int, limits Limits) error { return nil }

func cpuExceeded(state *os.ProcessState) bool { return false }
