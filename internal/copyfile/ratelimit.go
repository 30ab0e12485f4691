package copyfile

import (
	"context"

	"golang.org/x/time/rate"
)

// NewBWLimiter returns a limiter capping aggregate throughput to
// bytesPerSec, or nil when bytesPerSec is not positive. The burst is one
// transfer buffer so a full chunk is admitted in a single wait.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(min(bytesPerSec, DefaultBufferSize))
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// pace blocks until the limiter admits n bytes. WaitN rejects requests
// larger than the burst, so n is admitted in burst-sized pieces.
func pace(ctx context.Context, lim *rate.Limiter, n int) error {
	burst := lim.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := lim.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
