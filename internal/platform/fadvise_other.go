//go:build unix && !linux

package platform

// adviseSequential is a no-op where posix_fadvise is not exposed.
func adviseSequential(_ int) {}
