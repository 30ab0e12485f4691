package copyfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bamsammich/fdcopy/internal/platform"
	"github.com/bamsammich/fdcopy/internal/stats"
)

// DefaultBenchSize is the scratch file size used by RunBenchmark.
const DefaultBenchSize = 64 << 20

// BenchmarkResult holds the throughput of each strategy on one scratch file.
type BenchmarkResult struct {
	DirectBytesPerSec   float64 // 0 when the offload is unavailable
	BufferedBytesPerSec float64
	DirectMethod        platform.CopyMethod
	Suggested           Strategy
}

// RunBenchmark writes a size-byte scratch file in dir and copies it once
// with each strategy. The scratch files are removed before returning.
func RunBenchmark(ctx context.Context, dir string, size int64) (BenchmarkResult, error) {
	var result BenchmarkResult
	if size <= 0 {
		size = DefaultBenchSize
	}

	srcPath, err := writeScratch(ctx, dir, size)
	if err != nil {
		return result, fmt.Errorf("write scratch file: %w", err)
	}
	defer os.Remove(srcPath)

	direct, method, err := benchCopy(ctx, dir, srcPath, Direct)
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		direct = 0
	case err != nil:
		return result, fmt.Errorf("direct copy benchmark: %w", err)
	}
	result.DirectBytesPerSec = direct
	result.DirectMethod = method

	buffered, _, err := benchCopy(ctx, dir, srcPath, Buffered)
	if err != nil {
		return result, fmt.Errorf("buffered copy benchmark: %w", err)
	}
	result.BufferedBytesPerSec = buffered

	result.Suggested = suggestStrategy(direct, buffered)
	return result, nil
}

func writeScratch(ctx context.Context, dir string, size int64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".fdcopy-bench-src-*")
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, DefaultBufferSize)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	for written := int64(0); written < size; {
		if err := ctx.Err(); err != nil {
			os.Remove(f.Name())
			return "", err
		}
		n, err := f.Write(buf[:min(int64(len(buf)), size-written)])
		written += int64(n)
		if err != nil {
			os.Remove(f.Name())
			return "", err
		}
	}
	if err := f.Sync(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// benchCopy copies srcPath into a fresh file in dir, fsyncs it and returns
// bytes per second.
func benchCopy(ctx context.Context, dir, srcPath string, s Strategy) (float64, platform.CopyMethod, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, ".fdcopy-bench-dst-*")
	if err != nil {
		return 0, 0, err
	}
	defer os.Remove(dst.Name())
	defer dst.Close()

	copier := NewCopier(Options{Strategy: s})
	start := time.Now()
	res, err := copier.Copy(ctx, dst, src)
	if err != nil {
		return 0, res.Method, err
	}
	if err := dst.Sync(); err != nil {
		return 0, res.Method, err
	}
	elapsed := time.Since(start)
	if elapsed == 0 {
		elapsed = time.Microsecond
	}
	return float64(res.BytesWritten) / elapsed.Seconds(), res.Method, nil
}

// suggestStrategy prefers the offload unless the buffered copy was clearly
// faster on this filesystem.
func suggestStrategy(directBPS, bufferedBPS float64) Strategy {
	if directBPS == 0 || bufferedBPS > directBPS*1.1 {
		return Buffered
	}
	return Auto
}

// FormatBenchmark formats a BenchmarkResult for display.
func FormatBenchmark(r BenchmarkResult) string {
	direct := "unavailable"
	if r.DirectBytesPerSec > 0 {
		direct = fmt.Sprintf("%s/s (%s)", stats.FormatBytes(int64(r.DirectBytesPerSec)), r.DirectMethod)
	}
	return fmt.Sprintf("benchmark: direct %s  buffered %s/s  suggested strategy %s",
		direct, stats.FormatBytes(int64(r.BufferedBytesPerSec)), r.Suggested)
}
