package copyfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bamsammich/fdcopy/internal/event"
	"github.com/bamsammich/fdcopy/internal/platform"
	"github.com/bamsammich/fdcopy/internal/stats"
)

// Stdio is the path that stands for stdin as a source and stdout as a
// destination.
const Stdio = "-"

const defaultMode fs.FileMode = 0o644

var (
	ErrSameFile       = errors.New("source and destination are the same file")
	ErrVerifyMismatch = errors.New("verification failed: digests differ")
	ErrStdio          = errors.New("option needs a file path, not stdin/stdout")
)

// Config describes one file-level copy.
type Config struct {
	Src        string
	Dst        string
	Strategy   Strategy
	Facility   platform.CopyMethod
	BufferSize int
	ChunkSize  int
	BWLimit    int64       // bytes per second, 0 for unlimited
	Mode       fs.FileMode // permission of a created destination, 0 for the source's
	Atomic     bool
	Verify     bool
	Stats      *stats.Collector
	Events     chan<- event.Event
}

// Result is the outcome of Run.
type Result struct {
	Stats  stats.Snapshot
	Dst    string // final destination path
	Bytes  int64
	Method platform.CopyMethod
	Status platform.Status
	Err    error
}

// Run copies cfg.Src to cfg.Dst, blocking until done or ctx is cancelled.
// Both files are closed before it returns; stdin and stdout are left open.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	result := func(r Result) Result {
		r.Stats = collector.Snapshot()
		return r
	}

	if err := validate(cfg); err != nil {
		return result(Result{Status: platform.Failed, Err: err})
	}

	src, srcInfo, err := openSource(cfg.Src)
	if err != nil {
		collector.AddFilesFailed(1)
		return result(Result{Status: platform.Failed, Err: err})
	}
	if src != os.Stdin {
		defer src.Close()
	}

	dstPath := resolveDst(cfg.Src, cfg.Dst)
	if err := checkSameFile(srcInfo, dstPath); err != nil {
		collector.AddFilesFailed(1)
		return result(Result{Dst: dstPath, Status: platform.Failed, Err: err})
	}
	mode := cfg.Mode.Perm()
	if mode == 0 {
		mode = defaultMode
		if srcInfo != nil {
			mode = srcInfo.Mode().Perm()
		}
	}

	var total int64
	if srcInfo != nil && srcInfo.Mode().IsRegular() {
		total = srcInfo.Size()
		collector.AddBytesTotal(total)
	}
	event.Emit(cfg.Events, event.Event{Type: event.CopyStarted, Path: dstPath, Total: total})

	copier := NewCopier(Options{
		Strategy:   cfg.Strategy,
		Facility:   cfg.Facility,
		BufferSize: cfg.BufferSize,
		ChunkSize:  cfg.ChunkSize,
		Limiter:    NewBWLimiter(cfg.BWLimit),
		Stats:      collector,
		Events:     cfg.Events,
	})

	var res platform.Result
	if cfg.Atomic {
		res, err = copyAtomic(ctx, copier, src, dstPath, mode)
	} else {
		res, err = copyInPlace(ctx, copier, src, dstPath, mode)
	}

	out := Result{Dst: dstPath, Bytes: res.BytesWritten, Method: res.Method, Status: res.Status}
	switch {
	case err == nil:
		collector.AddFilesCopied(1)
		event.Emit(cfg.Events, event.Event{
			Type:   event.CopyCompleted,
			Path:   dstPath,
			Size:   res.BytesWritten,
			Method: res.Method.String(),
		})
	case errors.Is(err, platform.ErrCancelled):
		slog.Info("copy cancelled", "src", cfg.Src, "dst", dstPath, "copied", res.BytesWritten)
		collector.AddFilesCancelled(1)
		event.Emit(cfg.Events, event.Event{Type: event.CopyCancelled, Path: dstPath, Size: res.BytesWritten})
		out.Status = platform.Cancelled
		out.Err = fmt.Errorf("copy %s: %w", dstPath, err)
		return result(out)
	default:
		slog.Error("copy failed", "src", cfg.Src, "dst", dstPath, "copied", res.BytesWritten, "error", err)
		collector.AddFilesFailed(1)
		event.Emit(cfg.Events, event.Event{Type: event.CopyFailed, Path: dstPath, Size: res.BytesWritten, Error: err})
		if out.Status == platform.Success {
			out.Status = platform.Failed
		}
		out.Err = fmt.Errorf("copy %s: %w", dstPath, err)
		return result(out)
	}

	if cfg.Verify {
		if err := verify(ctx, cfg, dstPath, collector); err != nil {
			out.Status = platform.Failed
			if errors.Is(err, platform.ErrCancelled) {
				out.Status = platform.Cancelled
			}
			out.Err = err
		}
	}
	return result(out)
}

func validate(cfg Config) error {
	if cfg.Src == "" || cfg.Dst == "" {
		return errors.New("source and destination are required")
	}
	if cfg.Atomic && cfg.Dst == Stdio {
		return fmt.Errorf("atomic: %w", ErrStdio)
	}
	if cfg.Verify && (cfg.Src == Stdio || cfg.Dst == Stdio) {
		return fmt.Errorf("verify: %w", ErrStdio)
	}
	return nil
}

// openSource opens path read-only. The returned FileInfo is nil for stdin.
func openSource(path string) (*os.File, fs.FileInfo, error) {
	if path == Stdio {
		return os.Stdin, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("source %s is a directory", path)
	}
	return f, info, nil
}

// checkSameFile refuses a destination that is the source itself (same
// path, hard link or symlink), which truncation would empty before the copy.
func checkSameFile(srcInfo fs.FileInfo, dstPath string) error {
	if srcInfo == nil || dstPath == Stdio {
		return nil
	}
	dstInfo, err := os.Stat(dstPath)
	if err != nil {
		return nil //nolint:nilerr // a missing destination is created later
	}
	if os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("%s: %w", dstPath, ErrSameFile)
	}
	return nil
}

// resolveDst copies into dst when it names an existing directory.
func resolveDst(src, dst string) string {
	if dst == Stdio || src == Stdio {
		return dst
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

func copyInPlace(
	ctx context.Context,
	copier *Copier,
	src *os.File,
	dstPath string,
	mode fs.FileMode,
) (platform.Result, error) {
	if dstPath == Stdio {
		return copier.Copy(ctx, os.Stdout, src)
	}

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return platform.Result{Status: platform.Failed}, fmt.Errorf("destination: %w", err)
	}

	res, err := copier.Copy(ctx, dst, src)
	if cerr := dst.Close(); cerr != nil && err == nil {
		res.Status = platform.Failed
		err = fmt.Errorf("close %s: %w", dstPath, cerr)
	}
	return res, err
}

// copyAtomic writes to a hidden temporary file beside dstPath and renames
// it into place only after a successful copy and fsync.
func copyAtomic(
	ctx context.Context,
	copier *Copier,
	src *os.File,
	dstPath string,
	mode fs.FileMode,
) (platform.Result, error) {
	dir, base := filepath.Split(dstPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.fdcopy-tmp", base, uuid.New().String()[:8]))

	tmpFiles.add(tmpPath)
	defer func() {
		tmpFiles.remove(tmpPath)
		_ = os.Remove(tmpPath) // no-op after rename
	}()

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return platform.Result{Status: platform.Failed}, fmt.Errorf("create tmp: %w", err)
	}

	res, err := copier.Copy(ctx, tmp, src)
	if err != nil {
		tmp.Close()
		return res, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		res.Status = platform.Failed
		return res, fmt.Errorf("fsync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		res.Status = platform.Failed
		return res, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		res.Status = platform.Failed
		return res, fmt.Errorf("rename %s -> %s: %w", tmpPath, dstPath, err)
	}
	return res, nil
}

func verify(ctx context.Context, cfg Config, dstPath string, collector *stats.Collector) error {
	event.Emit(cfg.Events, event.Event{Type: event.VerifyStarted, Path: dstPath})

	srcSum, err := HashFile(ctx, cfg.Src)
	if err != nil {
		return verifyErr(err)
	}
	dstSum, err := HashFile(ctx, dstPath)
	if err != nil {
		return verifyErr(err)
	}

	if srcSum != dstSum {
		slog.Error("verification failed", "src", cfg.Src, "dst", dstPath, "src_blake3", srcSum, "dst_blake3", dstSum)
		collector.AddVerifyFailed(1)
		event.Emit(cfg.Events, event.Event{Type: event.VerifyFailed, Path: dstPath})
		return fmt.Errorf("%s: %w", dstPath, ErrVerifyMismatch)
	}

	slog.Debug("verified", "dst", dstPath, "blake3", srcSum)
	collector.AddFilesVerified(1)
	event.Emit(cfg.Events, event.Event{Type: event.VerifyOK, Path: dstPath})
	return nil
}

func verifyErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("verify: %w: %w", platform.ErrCancelled, err)
	}
	return fmt.Errorf("verify: %w", err)
}
