package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Reader is the read side used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
	ETA() time.Duration
}

// ReadTicker is a Reader that also owns the 1/sec sampling tick.
type ReadTicker interface {
	Reader
	Tick()
}

// Collector tracks copy statistics using lock-free atomic counters.
type Collector struct {
	startTime time.Time

	filesCopied     atomic.Int64
	filesFailed     atomic.Int64
	filesCancelled  atomic.Int64
	bytesCopied     atomic.Int64
	bytesTotal      atomic.Int64
	directCopies    atomic.Int64
	bufferedCopies  atomic.Int64
	fallbacks       atomic.Int64
	wouldBlockWaits atomic.Int64
	filesVerified   atomic.Int64
	verifyFailed    atomic.Int64

	// Ring buffer, written only by Tick.
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int // samples written, capped at ringSize
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied     int64
	FilesFailed     int64
	FilesCancelled  int64
	BytesCopied     int64
	BytesTotal      int64
	DirectCopies    int64
	BufferedCopies  int64
	Fallbacks       int64
	WouldBlockWaits int64
	FilesVerified   int64
	VerifyFailed    int64
	Elapsed         time.Duration
}

func (c *Collector) AddFilesCopied(n int64)     { c.filesCopied.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddFilesCancelled(n int64)  { c.filesCancelled.Add(n) }
func (c *Collector) AddBytesCopied(n int64)     { c.bytesCopied.Add(n) }
func (c *Collector) AddBytesTotal(n int64)      { c.bytesTotal.Add(n) }
func (c *Collector) AddDirectCopies(n int64)    { c.directCopies.Add(n) }
func (c *Collector) AddBufferedCopies(n int64)  { c.bufferedCopies.Add(n) }
func (c *Collector) AddFallbacks(n int64)       { c.fallbacks.Add(n) }
func (c *Collector) AddWouldBlockWaits(n int64) { c.wouldBlockWaits.Add(n) }
func (c *Collector) AddFilesVerified(n int64)   { c.filesVerified.Add(n) }
func (c *Collector) AddVerifyFailed(n int64)    { c.verifyFailed.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:     c.filesCopied.Load(),
		FilesFailed:     c.filesFailed.Load(),
		FilesCancelled:  c.filesCancelled.Load(),
		BytesCopied:     c.bytesCopied.Load(),
		BytesTotal:      c.bytesTotal.Load(),
		DirectCopies:    c.directCopies.Load(),
		BufferedCopies:  c.bufferedCopies.Load(),
		Fallbacks:       c.fallbacks.Load(),
		WouldBlockWaits: c.wouldBlockWaits.Load(),
		FilesVerified:   c.filesVerified.Load(),
		VerifyFailed:    c.verifyFailed.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesCopied.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d failed=%d cancelled=%d bytes=%d direct=%d buffered=%d fallbacks=%d",
		s.FilesCopied, s.FilesFailed, s.FilesCancelled, s.BytesCopied,
		s.DirectCopies, s.BufferedCopies, s.Fallbacks,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
