// Package copyfile copies between open files and paths on top of the
// platform copy strategies: it bridges contexts to cancel flags, falls back
// from the kernel offload to a buffered copy, waits out non-blocking
// descriptors and feeds progress to stats, events and the bandwidth limiter.
package copyfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/bamsammich/fdcopy/internal/event"
	"github.com/bamsammich/fdcopy/internal/platform"
	"github.com/bamsammich/fdcopy/internal/stats"
)

// DefaultBufferSize is the transfer buffer used by the buffered strategy.
const DefaultBufferSize = 1 << 20

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, DefaultBufferSize)
		return &b
	},
}

// Options controls a Copier.
type Options struct {
	Strategy   Strategy
	Facility   platform.CopyMethod
	BufferSize int // 0 means DefaultBufferSize
	ChunkSize  int // 0 means platform.DefaultChunkSize
	Limiter    *rate.Limiter
	Stats      *stats.Collector
	Events     chan<- event.Event
}

// Copier composes the direct and buffered strategies for one descriptor
// pair at a time. It is safe for concurrent use on distinct pairs.
type Copier struct {
	opts Options
}

// NewCopier returns a Copier. A nil Stats gets a private collector.
func NewCopier(opts Options) *Copier {
	if opts.Stats == nil {
		opts.Stats = stats.NewCollector()
	}
	return &Copier{opts: opts}
}

// Copy moves everything from src's current position to dst's current
// position. Cancelling ctx stops the copy at the next chunk boundary; the
// bytes already written stay in dst. The returned Result accumulates bytes
// across would-block retries and a strategy fallback.
func (c *Copier) Copy(ctx context.Context, dst, src *os.File) (platform.Result, error) {
	if err := ctx.Err(); err != nil {
		res := platform.Result{Status: platform.Cancelled, Errno: syscall.ECANCELED}
		return res, fmt.Errorf("%w: %w", platform.ErrCancelled, err)
	}

	var (
		res  platform.Result
		cerr error
	)
	err := withFDs(dst, src, func(dfd, sfd int) {
		res, cerr = c.copyFDs(ctx, dst.Name(), dfd, sfd)
	})
	if err != nil {
		return platform.Result{Status: platform.Failed, Errno: syscall.EBADF}, err
	}
	return res, cerr
}

func (c *Copier) copyFDs(ctx context.Context, name string, dfd, sfd int) (platform.Result, error) {
	flag := &platform.CancelFlag{}
	stop := context.AfterFunc(ctx, flag.Cancel)
	defer stop()

	onChunk := func(n int) {
		c.opts.Stats.AddBytesCopied(int64(n))
		event.Emit(c.opts.Events, event.Event{Type: event.ChunkCopied, Path: name, Size: int64(n)})
		if c.opts.Limiter == nil {
			return
		}
		if err := pace(ctx, c.opts.Limiter, n); err != nil {
			// AfterFunc may not have run yet.
			flag.Cancel()
		}
	}

	strategy := c.opts.Strategy
	if strategy == Auto && !platform.Detect().Direct {
		strategy = Buffered
	}

	var total int64
	if strategy != Buffered {
		res := c.drive(ctx, name, flag, func() platform.Result {
			return platform.DirectCopy(platform.CopyParams{
				Dst:       dfd,
				Src:       sfd,
				Cancel:    flag,
				Facility:  c.opts.Facility,
				ChunkSize: c.opts.ChunkSize,
				OnChunk:   onChunk,
			})
		}, func() error { return waitDirect(ctx, sfd, dfd) })
		total = res.BytesWritten

		if !res.Fallback() {
			return c.finish(res)
		}
		if strategy == Direct {
			return res, fmt.Errorf("%s: %w", res.Method, platform.ErrUnsupported)
		}

		slog.Debug("offload not applicable, continuing with buffered copy",
			"path", name, "method", res.Method.String(), "status", res.Status.String(), "copied", total)
		c.opts.Stats.AddFallbacks(1)
		event.Emit(c.opts.Events, event.Event{
			Type:   event.StrategyFallback,
			Path:   name,
			Method: platform.ReadWrite.String(),
			Size:   total,
		})
	}

	buf, release := c.buffer()
	defer release()

	res := c.drive(ctx, name, flag, func() platform.Result {
		return platform.BufferedCopy(platform.CopyParams{
			Dst:     dfd,
			Src:     sfd,
			Buf:     buf,
			Cancel:  flag,
			OnChunk: onChunk,
		})
	}, func() error { return waitReadable(ctx, sfd) })
	res.BytesWritten += total
	return c.finish(res)
}

// drive re-invokes copyFn after every WouldBlock once wait reports the
// descriptors ready. Bytes are summed across invocations.
func (c *Copier) drive(
	ctx context.Context,
	name string,
	flag *platform.CancelFlag,
	copyFn func() platform.Result,
	wait func() error,
) platform.Result {
	var total int64
	for {
		res := copyFn()
		total += res.BytesWritten
		res.BytesWritten = total
		if res.Status != platform.WouldBlock {
			return res
		}

		c.opts.Stats.AddWouldBlockWaits(1)
		event.Emit(c.opts.Events, event.Event{Type: event.WouldBlockWait, Path: name, Size: total})

		if err := wait(); err != nil {
			if ctx.Err() != nil || flag.Cancelled() {
				return platform.Result{Status: platform.Cancelled, Errno: syscall.ECANCELED, BytesWritten: total, Method: res.Method}
			}
			var errno syscall.Errno
			if !errors.As(err, &errno) {
				errno = syscall.EIO
			}
			return platform.Result{Status: platform.Failed, Errno: errno, Op: "poll", BytesWritten: total, Method: res.Method}
		}
	}
}

func (c *Copier) finish(res platform.Result) (platform.Result, error) {
	if res.Status == platform.Success {
		if res.Method == platform.ReadWrite {
			c.opts.Stats.AddBufferedCopies(1)
		} else {
			c.opts.Stats.AddDirectCopies(1)
		}
	}
	return res, res.Err()
}

func (c *Copier) buffer() ([]byte, func()) {
	size := c.opts.BufferSize
	if size <= 0 || size == DefaultBufferSize {
		bp := bufPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
		return *bp, func() { bufPool.Put(bp) }
	}
	return make([]byte, size), func() {}
}

// withFDs runs fn with both raw descriptors held open. It does not change
// the descriptors' blocking mode, unlike (*os.File).Fd.
func withFDs(dst, src *os.File, fn func(dfd, sfd int)) error {
	sc, err := src.SyscallConn()
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name(), err)
	}
	dc, err := dst.SyscallConn()
	if err != nil {
		return fmt.Errorf("destination %s: %w", dst.Name(), err)
	}

	var inner error
	err = sc.Control(func(s uintptr) {
		inner = dc.Control(func(d uintptr) {
			fn(int(d), int(s))
		})
	})
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name(), err)
	}
	if inner != nil {
		return fmt.Errorf("destination %s: %w", dst.Name(), inner)
	}
	return nil
}
