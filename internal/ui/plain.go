package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/fdcopy/internal/stats"
)

const progressEvery = 5 // ticks between progress lines

// plainPresenter writes one line per finished copy to w and, on a TTY,
// periodic progress to errW.
type plainPresenter struct {
	w          io.Writer
	errW       io.Writer
	stats      stats.ReadTicker
	verbose    bool
	noProgress bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var ticks int
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			ticks++
			if !p.noProgress && ticks%progressEvery == 0 {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case CopyCompleted:
		fmt.Fprintf(p.w, "%s  %s  %s\n", ev.Path, FormatBytes(ev.Size), ev.Method)
	case CopyFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s  %s\n", ev.Path, FormatBytes(ev.Size), errMsg)
	case CopyCancelled:
		fmt.Fprintf(p.w, "%s  cancelled after %s\n", ev.Path, FormatBytes(ev.Size))
	case StrategyFallback:
		if p.verbose {
			fmt.Fprintf(p.errW, "%s  offload not applicable, using %s\n", ev.Path, ev.Method)
		}
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case CopyStarted, ChunkCopied, WouldBlockWait, VerifyOK:
		// counted by the collector; nothing to print
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	speed := p.stats.RollingSpeed(10)
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesCopied) / float64(snap.BytesTotal)
		fmt.Fprintf(p.errW, "progress: %s %.0f%% %s/%s %s eta %s\n",
			ProgressBar(pct, 20),
			pct*100,
			FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal),
			FormatRate(speed),
			FormatETA(p.stats.ETA()),
		)
		return
	}
	fmt.Fprintf(p.errW, "progress: %s copied %s\n",
		FormatBytes(snap.BytesCopied),
		FormatRate(speed),
	)
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}
