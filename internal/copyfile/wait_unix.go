//go:build unix

package copyfile

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const pollIntervalMs = 100

// waitDirect blocks until src is readable and dst is writable.
func waitDirect(ctx context.Context, src, dst int) error {
	return waitReady(ctx,
		unix.PollFd{Fd: int32(src), Events: unix.POLLIN},
		unix.PollFd{Fd: int32(dst), Events: unix.POLLOUT},
	)
}

func waitReadable(ctx context.Context, fd int) error {
	return waitReady(ctx, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
}

// waitReady polls until every descriptor has reported an event (including
// hang-up or error, which the next copy call turns into an outcome) or ctx
// is done.
func waitReady(ctx context.Context, fds ...unix.PollFd) error {
	for len(fds) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.Poll(fds, pollIntervalMs)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			continue
		}
		pending := fds[:0]
		for _, fd := range fds {
			if fd.Revents == 0 {
				pending = append(pending, fd)
			}
		}
		fds = pending
	}
	return nil
}
