//go:build linux

package platform

import "golang.org/x/sys/unix"

var sysFadvise = unix.Fadvise

// adviseSequential hints that fd will be read once, front to back, soon.
// Failures are ignored; the hint never affects the outcome.
func adviseSequential(fd int) {
	for _, advice := range []int{unix.FADV_SEQUENTIAL, unix.FADV_NOREUSE, unix.FADV_WILLNEED} {
		_ = sysFadvise(fd, 0, 0, advice) //nolint:errcheck // advisory
	}
}
