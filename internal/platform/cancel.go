package platform

import "sync/atomic"

// CancelFlag is written by any goroutine and polled by the copy loop between
// chunks. A nil *CancelFlag is never cancelled.
type CancelFlag struct {
	set atomic.Bool
}

// Cancel requests that the copy stop at the next chunk boundary.
func (f *CancelFlag) Cancel() {
	f.set.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (f *CancelFlag) Cancelled() bool {
	return f != nil && f.set.Load()
}
