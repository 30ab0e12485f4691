package ui

import (
	"fmt"

	"github.com/bamsammich/fdcopy/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 1  size 2.1 GiB  avg 641 MB/s  time 3s  direct 1  fallbacks 0  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	switch {
	case snap.FilesFailed > 0 || snap.VerifyFailed > 0:
		icon = "✗"
	case snap.FilesCancelled > 0:
		icon = "cancelled"
	}

	base := fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s  direct %d  buffered %d  fallbacks %d",
		icon,
		FormatCount(snap.FilesCopied),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
		snap.DirectCopies,
		snap.BufferedCopies,
		snap.Fallbacks,
	)

	if snap.FilesVerified > 0 || snap.VerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.FilesVerified))
	}

	return base + fmt.Sprintf("  errors %d", snap.FilesFailed+snap.VerifyFailed)
}
