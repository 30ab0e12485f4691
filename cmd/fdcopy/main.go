package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fdcopy/internal/config"
	"github.com/bamsammich/fdcopy/internal/copyfile"
	"github.com/bamsammich/fdcopy/internal/event"
	"github.com/bamsammich/fdcopy/internal/platform"
	"github.com/bamsammich/fdcopy/internal/stats"
	"github.com/bamsammich/fdcopy/internal/ui"
)

var version = "dev"

const (
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	os.Exit(run())
}

// options holds the raw flag values of the root command.
type options struct {
	strategy    string
	facility    string
	bufferSize  string
	chunkSize   string
	bwLimit     string
	mode        string
	logFile     string
	atomic      bool
	verify      bool
	verbose     bool
	quiet       bool
	noProgress  bool
	showVersion bool
}

//nolint:revive // cognitive-complexity: CLI entry point wires logging, presenter and copy
func run() int {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "fdcopy [flags] <source> <destination>",
		Short: "Copy a file with kernel offload, falling back to a buffered copy",
		Long: `fdcopy copies one file to another using sendfile(2) or copy_file_range(2)
where the kernel supports the pair of files, and a read/write loop otherwise.
Use "-" for stdin as the source or stdout as the destination.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(os.Stdout, "fdcopy %s\n", version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "path", config.Path(), "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &opts)

			copyCfg, err := buildCopyConfig(opts, args[0], args[1])
			if err != nil {
				return err
			}

			closeLog, err := setupLogging(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer copyfile.CleanupTmpFiles()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)
			copyCfg.Stats = collector
			copyCfg.Events = events

			presenterEvents := (<-chan event.Event)(events)
			if opts.logFile != "" {
				presenterEvents = teeEvents(events)
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:     os.Stderr,
				ErrWriter:  os.Stderr,
				Stats:      collector,
				IsTTY:      ui.IsTTY(os.Stderr.Fd()),
				Quiet:      opts.quiet,
				Verbose:    opts.verbose,
				NoProgress: opts.noProgress,
			})

			slog.Debug("starting copy",
				"src", copyCfg.Src,
				"dst", copyCfg.Dst,
				"strategy", copyCfg.Strategy.String(),
				"facility", copyCfg.Facility.String(),
				"atomic", copyCfg.Atomic,
				"verify", copyCfg.Verify,
			)

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			result := copyfile.Run(ctx, copyCfg)
			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if !opts.quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if code := exitCodeFor(result.Err); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	f.StringVar(&opts.strategy, "strategy", "auto", "copy strategy: auto, direct or buffered")
	f.StringVar(&opts.facility, "facility", "sendfile", "kernel offload: sendfile or copy_file_range")
	f.StringVar(&opts.bufferSize, "buffer-size", "1M", "buffered copy transfer size (e.g. 64K, 1M)")
	f.StringVar(&opts.chunkSize, "chunk-size", "1M", "offload chunk between cancellation checks")
	f.StringVar(&opts.bwLimit, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	f.StringVar(&opts.mode, "mode", "", "octal permission of a created destination (default: source's)")
	f.BoolVar(&opts.atomic, "atomic", false, "write to a temporary file and rename into place")
	f.BoolVar(&opts.verify, "verify", false, "verify checksums after copy (BLAKE3)")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable progress display")

	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) {
	setString := func(flag string, dst *string, val *string) {
		if !cmd.Flags().Changed(flag) && val != nil {
			*dst = *val
		}
	}
	setBool := func(flag string, dst *bool, val *bool) {
		if !cmd.Flags().Changed(flag) && val != nil {
			*dst = *val
		}
	}

	setString("strategy", &opts.strategy, defaults.Strategy)
	setString("facility", &opts.facility, defaults.Facility)
	setString("buffer-size", &opts.bufferSize, defaults.BufferSize)
	setString("chunk-size", &opts.chunkSize, defaults.ChunkSize)
	setString("bwlimit", &opts.bwLimit, defaults.BWLimit)
	setBool("atomic", &opts.atomic, defaults.Atomic)
	setBool("verify", &opts.verify, defaults.Verify)
}

// buildCopyConfig validates flag values and converts them for copyfile.Run.
func buildCopyConfig(opts options, src, dst string) (copyfile.Config, error) {
	cfg := copyfile.Config{
		Src:    src,
		Dst:    dst,
		Atomic: opts.atomic,
		Verify: opts.verify,
	}

	var err error
	if cfg.Strategy, err = copyfile.ParseStrategy(opts.strategy); err != nil {
		return cfg, fmt.Errorf("invalid --strategy: %w", err)
	}
	if cfg.Facility, err = platform.ParseCopyMethod(opts.facility); err != nil {
		return cfg, fmt.Errorf("invalid --facility: %w", err)
	}
	if cfg.Facility == platform.ReadWrite {
		return cfg, errors.New("invalid --facility: read_write is not a kernel offload (use --strategy buffered)")
	}

	sizes := []struct {
		flag string
		val  string
		dst  *int
	}{
		{"buffer-size", opts.bufferSize, &cfg.BufferSize},
		{"chunk-size", opts.chunkSize, &cfg.ChunkSize},
	}
	for _, s := range sizes {
		if s.val == "" {
			continue
		}
		n, err := config.ParseSize(s.val)
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s: %w", s.flag, err)
		}
		if n <= 0 || n > 1<<30 {
			return cfg, fmt.Errorf("invalid --%s: %s out of range (1B..1G)", s.flag, s.val)
		}
		*s.dst = int(n)
	}

	if opts.bwLimit != "" {
		if cfg.BWLimit, err = config.ParseSize(opts.bwLimit); err != nil {
			return cfg, fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	if opts.mode != "" {
		m, err := strconv.ParseUint(opts.mode, 8, 32)
		if err != nil || m > 0o777 {
			return cfg, fmt.Errorf("invalid --mode %q: want octal permission bits like 0644", opts.mode)
		}
		cfg.Mode = fs.FileMode(m)
	}

	if cfg.Atomic && dst == copyfile.Stdio {
		return cfg, errors.New("--atomic needs a destination file, not stdout")
	}
	if cfg.Verify && (src == copyfile.Stdio || dst == copyfile.Stdio) {
		return cfg, errors.New("--verify needs file paths on both sides")
	}
	return cfg, nil
}

// setupLogging installs the default slog logger: text on stderr and, with
// --log, JSON records of everything at debug level.
func setupLogging(opts options) (func(), error) {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})

	var logHandler slog.Handler = textHandler
	closeLog := func() {}
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closeLog = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return closeLog, nil
}

// teeEvents writes a structured record for every event except per-chunk
// progress before forwarding it to the presenter.
func teeEvents(events <-chan event.Event) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		defer close(teed)
		for ev := range events {
			if ev.Type != event.ChunkCopied {
				attrs := []slog.Attr{
					slog.String("type", ev.Type.String()),
					slog.String("path", ev.Path),
					slog.Int64("size", ev.Size),
				}
				if ev.Method != "" {
					attrs = append(attrs, slog.String("method", ev.Method))
				}
				if ev.Error != nil {
					attrs = append(attrs, slog.String("error", ev.Error.Error()))
				}
				slog.LogAttrs(context.Background(), slog.LevelDebug, "fdcopy.event", attrs...)
			}
			teed <- ev
		}
	}()
	return teed
}

// exitCodeFor maps a copy error to the process exit status.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, platform.ErrCancelled):
		return exitCancelled
	default:
		return exitFailure
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
