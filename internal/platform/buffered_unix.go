//go:build unix

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// BufferedCopy copies everything remaining in p.Src to p.Dst through p.Buf,
// len(p.Buf) bytes at a time. The buffer is reused, never retained.
func BufferedCopy(p CopyParams) Result {
	res := Result{Method: ReadWrite}
	if len(p.Buf) == 0 {
		return failed(res, "read", unix.EINVAL)
	}

	adviseSequential(p.Src)

	for {
		n, err := ignoringEINTR(func() (int, error) {
			return sysRead(p.Src, p.Buf)
		})
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				res.Status = WouldBlock
				return res
			}
			return failed(res, "read", err)
		}
		if n == 0 {
			res.Status = Success
			return res
		}
		if p.Cancel.Cancelled() {
			return cancelled(res)
		}

		written, err := writeFull(p.Dst, p.Buf[:n])
		res.BytesWritten += int64(written)
		if err != nil {
			return failed(res, "write", err)
		}
		if p.OnChunk != nil {
			p.OnChunk(n)
		}
	}
}

// writeFull writes all of b, repeating short writes. The first error aborts
// and the unwritten tail is dropped.
func writeFull(fd int, b []byte) (int, error) {
	var pos int
	for pos < len(b) {
		n, err := ignoringEINTR(func() (int, error) {
			return sysWrite(fd, b[pos:])
		})
		if err != nil {
			return pos, err
		}
		if n <= 0 {
			return pos, unix.EIO
		}
		pos += n
	}
	return pos, nil
}
