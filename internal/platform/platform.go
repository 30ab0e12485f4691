// Package platform moves bytes between two open file descriptors, either
// inside the kernel (DirectCopy) or through a caller-supplied buffer
// (BufferedCopy). Neither strategy opens, closes or repositions descriptors.
package platform

import (
	"errors"
	"fmt"
	"syscall"
)

// CopyMethod identifies which primitive moved the bytes.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	Sendfile                 // Linux sendfile(2)
	CopyFileRange            // Linux copy_file_range(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case Sendfile:
		return "sendfile"
	case CopyFileRange:
		return "copy_file_range"
	default:
		return "unknown"
	}
}

// ParseCopyMethod maps a facility name back to its CopyMethod.
func ParseCopyMethod(s string) (CopyMethod, error) {
	switch s {
	case "read_write":
		return ReadWrite, nil
	case "sendfile", "":
		return Sendfile, nil
	case "copy_file_range":
		return CopyFileRange, nil
	default:
		return 0, fmt.Errorf("unknown copy method %q", s)
	}
}

// Status is the outcome category of a copy call.
type Status int

const (
	Success Status = iota
	// WouldBlock means the descriptor is non-blocking and not ready. The
	// call may be repeated with the same arguments.
	WouldBlock
	// UnsupportedCombination means the offload primitive rejected these
	// descriptors or arguments. Use BufferedCopy instead.
	UnsupportedCombination
	// Unsupported means there is no offload primitive on this platform.
	Unsupported
	// Cancelled means the CancelFlag was observed set between chunks.
	Cancelled
	// Failed carries the OS error in Result.Errno.
	Failed
)

var statusNames = [...]string{
	Success:                "success",
	WouldBlock:             "would_block",
	UnsupportedCombination: "unsupported_combination",
	Unsupported:            "unsupported",
	Cancelled:              "cancelled",
	Failed:                 "failed",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

var (
	ErrCancelled   = errors.New("copy cancelled")
	ErrWouldBlock  = errors.New("copy would block")
	ErrUnsupported = fmt.Errorf("copy strategy not applicable: %w", errors.ErrUnsupported)
)

// OpError reports the primitive that failed and its errno, unmodified.
type OpError struct {
	Op    string
	Errno syscall.Errno
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Errno.Error()
}

func (e *OpError) Unwrap() error { return e.Errno }

// Result reports the outcome of one DirectCopy or BufferedCopy call.
type Result struct {
	Status       Status
	Errno        syscall.Errno
	Op           string
	BytesWritten int64
	Method       CopyMethod
}

// Fallback reports whether the caller should retry with BufferedCopy.
func (r Result) Fallback() bool {
	return r.Status == UnsupportedCombination || r.Status == Unsupported
}

// Err converts the outcome into an error value. It returns nil on Success.
func (r Result) Err() error {
	switch r.Status {
	case Success:
		return nil
	case WouldBlock:
		return ErrWouldBlock
	case UnsupportedCombination, Unsupported:
		return ErrUnsupported
	case Cancelled:
		return fmt.Errorf("%w: %w", ErrCancelled, r.Errno)
	default:
		return &OpError{Op: r.Op, Errno: r.Errno}
	}
}

// CopyParams describes one copy call. Buf is only used by BufferedCopy;
// Facility and ChunkSize only by DirectCopy.
type CopyParams struct {
	Cancel *CancelFlag
	// OnChunk, when set, runs on the calling goroutine after every chunk
	// that moved bytes and before the cancellation check.
	OnChunk   func(n int)
	Buf       []byte
	Dst       int
	Src       int
	ChunkSize int
	Facility  CopyMethod
}

// Capabilities describes the offload support detected at first use.
type Capabilities struct {
	Facilities []CopyMethod
	Direct     bool
}

// Supports reports whether m is usable as a DirectCopy facility.
func (c Capabilities) Supports(m CopyMethod) bool {
	for _, f := range c.Facilities {
		if f == m {
			return true
		}
	}
	return false
}
