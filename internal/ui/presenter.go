package ui

import (
	"io"

	"github.com/bamsammich/fdcopy/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer     io.Writer
	ErrWriter  io.Writer
	Stats      stats.ReadTicker
	IsTTY      bool
	Quiet      bool
	Verbose    bool
	NoProgress bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // callers only need the interface
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	return &plainPresenter{
		w:          cfg.Writer,
		errW:       cfg.ErrWriter,
		stats:      cfg.Stats,
		verbose:    cfg.Verbose,
		noProgress: cfg.NoProgress || !cfg.IsTTY,
	}
}
