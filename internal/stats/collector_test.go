package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_ConcurrentAdds(t *testing.T) {
	c := NewCollector()
	const workers, rounds = 32, 500

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range rounds {
				c.AddBytesCopied(1 << 10)
				c.AddFilesCopied(1)
				c.AddFallbacks(1)
				c.AddWouldBlockWaits(2)
				c.AddFilesVerified(1)
			}
		})
	}
	wg.Wait()

	snap := c.Snapshot()
	n := int64(workers * rounds)
	assert.Equal(t, n<<10, snap.BytesCopied)
	assert.Equal(t, n, snap.FilesCopied)
	assert.Equal(t, n, snap.Fallbacks)
	assert.Equal(t, 2*n, snap.WouldBlockWaits)
	assert.Equal(t, n, snap.FilesVerified)
	assert.Zero(t, snap.FilesFailed)
}

func TestSnapshot_CoversEveryCounter(t *testing.T) {
	c := NewCollector()
	c.AddFilesCopied(1)
	c.AddFilesFailed(2)
	c.AddFilesCancelled(3)
	c.AddBytesCopied(4)
	c.AddBytesTotal(5)
	c.AddDirectCopies(6)
	c.AddBufferedCopies(7)
	c.AddFallbacks(8)
	c.AddWouldBlockWaits(9)
	c.AddFilesVerified(10)
	c.AddVerifyFailed(11)
	time.Sleep(time.Millisecond)

	snap := c.Snapshot()
	elapsed := snap.Elapsed
	assert.Positive(t, elapsed)
	snap.Elapsed = 0
	assert.Equal(t, Snapshot{
		FilesCopied:     1,
		FilesFailed:     2,
		FilesCancelled:  3,
		BytesCopied:     4,
		BytesTotal:      5,
		DirectCopies:    6,
		BufferedCopies:  7,
		Fallbacks:       8,
		WouldBlockWaits: 9,
		FilesVerified:   10,
		VerifyFailed:    11,
	}, snap)
	assert.Equal(t, "copied=1 failed=2 cancelled=3 bytes=4 direct=6 buffered=7 fallbacks=8", snap.String())
}

func TestCollector_RollingSpeed(t *testing.T) {
	tests := []struct {
		name    string
		samples []int64 // bytes added before each tick
		window  int
		want    float64
	}{
		{"no samples", nil, 5, 0},
		{"steady", []int64{1000, 1000, 1000, 1000}, 4, 1000},
		{"window shorter than history", []int64{100, 100, 4000, 6000}, 2, 5000},
		{"window longer than history", []int64{300, 700}, 10, 500},
		{"zero window", []int64{300}, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCollector()
			for _, b := range tc.samples {
				c.AddBytesCopied(b)
				c.Tick()
			}
			assert.InDelta(t, tc.want, c.RollingSpeed(tc.window), 0.01)
		})
	}
}

func TestCollector_RingWraps(t *testing.T) {
	c := NewCollector()
	for i := range ringSize * 2 {
		// The first lap is slow; only the second should count.
		if i < ringSize {
			c.AddBytesCopied(10)
		} else {
			c.AddBytesCopied(90)
		}
		c.Tick()
	}
	assert.Equal(t, ringSize, c.ringCount)
	assert.InDelta(t, 90.0, c.RollingSpeed(ringSize*3), 0.01)
}

func TestCollector_ETA(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.ETA(), "no total, no speed")

	c.AddBytesTotal(8 << 20)
	assert.Zero(t, c.ETA(), "no speed yet")

	for range 4 {
		c.AddBytesCopied(1 << 20)
		c.Tick()
	}
	assert.InDelta(t, 4.0, c.ETA().Seconds(), 1.0)

	c.AddBytesCopied(4 << 20)
	assert.Zero(t, c.ETA(), "nothing remaining")
}

func TestFormatBytes(t *testing.T) {
	for in, want := range map[int64]string{
		0:         "0 B",
		1023:      "1023 B",
		1 << 10:   "1.0 KiB",
		3 << 19:   "1.5 MiB",
		10 << 30:  "10.0 GiB",
		1<<40 + 1: "1.0 TiB",
	} {
		assert.Equal(t, want, FormatBytes(in), "FormatBytes(%d)", in)
	}
}
