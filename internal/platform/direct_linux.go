//go:build linux

package platform

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	// DefaultChunkSize bounds a single offload call while a CancelFlag is
	// attached, so the flag is polled at least once per MiB.
	DefaultChunkSize = 1 << 20
	// maxOffloadChunk is the most sendfile(2) transfers in one call.
	maxOffloadChunk = 0x7ffff000
)

var (
	sysSendfile = func(dst, src, count int) (int, error) {
		return unix.Sendfile(dst, src, nil, count)
	}
	sysCopyFileRange = func(dst, src, count int) (int, error) {
		return unix.CopyFileRange(src, nil, dst, nil, count, 0)
	}
)

// DirectCopy transfers everything remaining in p.Src to p.Dst inside the
// kernel. NULL offsets are passed, so both descriptors' positions advance
// and a WouldBlock or fallback result can be resumed from where it stopped.
func DirectCopy(p CopyParams) Result {
	method := p.Facility
	offload := sysSendfile
	switch method {
	case CopyFileRange:
		offload = sysCopyFileRange
	case ReadWrite: // zero value
		method = Sendfile
	case Sendfile:
	default:
		return Result{Status: UnsupportedCombination, Method: method}
	}

	count := maxOffloadChunk
	if p.Cancel != nil {
		count = p.ChunkSize
		if count <= 0 || count > maxOffloadChunk {
			count = DefaultChunkSize
		}
	}

	res := Result{Method: method}
	for {
		n, err := ignoringEINTR(func() (int, error) {
			return offload(p.Dst, p.Src, count)
		})
		if err != nil {
			switch {
			case errors.Is(err, unix.EAGAIN):
				res.Status = WouldBlock
				return res
			case isUnsupportedErr(method, err):
				res.Status = UnsupportedCombination
				res.Op = method.String()
				res.Errno = errnoOf(err)
				return res
			}
			return failed(res, method.String(), err)
		}

		res.BytesWritten += int64(n)
		if n > 0 && p.OnChunk != nil {
			p.OnChunk(n)
		}
		if p.Cancel.Cancelled() {
			return cancelled(res)
		}
		if n == 0 {
			res.Status = Success
			return res
		}
	}
}

// isUnsupportedErr reports whether err means "this primitive cannot serve
// these descriptors" rather than an I/O failure.
func isUnsupportedErr(method CopyMethod, err error) bool {
	switch {
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS):
		return true
	case method == CopyFileRange:
		return errors.Is(err, unix.EXDEV) || errors.Is(err, unix.EOPNOTSUPP)
	}
	return false
}

var detect = sync.OnceValue(func() Capabilities {
	caps := Capabilities{Direct: true, Facilities: []CopyMethod{Sendfile}}
	// Bad descriptors make a present copy_file_range fail with EBADF;
	// kernels older than 4.5 answer ENOSYS.
	if _, err := unix.CopyFileRange(-1, nil, -1, nil, 1, 0); !errors.Is(err, unix.ENOSYS) {
		caps.Facilities = append(caps.Facilities, CopyFileRange)
	}
	return caps
})

// Detect reports offload support. Detection runs once per process.
func Detect() Capabilities {
	return detect()
}
