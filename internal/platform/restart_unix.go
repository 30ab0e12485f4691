//go:build unix

package platform

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// Syscall seam, replaced in tests to inject EINTR, EAGAIN and short writes.
var (
	sysRead  = unix.Read
	sysWrite = unix.Write
)

// ignoringEINTR repeats fn for as long as it reports EINTR.
func ignoringEINTR(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if !errors.Is(err, unix.EINTR) {
			return n, err
		}
	}
}

// errnoOf extracts the OS error code, defaulting to EIO for errors that do
// not carry one.
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}

func failed(res Result, op string, err error) Result {
	res.Status = Failed
	res.Op = op
	res.Errno = errnoOf(err)
	return res
}

func cancelled(res Result) Result {
	res.Status = Cancelled
	res.Errno = unix.ECANCELED
	return res
}
