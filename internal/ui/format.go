package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/fdcopy/internal/stats"
)

var rateUnits = [...]string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s", "PB/s"}

// FormatRate formats a bytes-per-second rate with three significant digits.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	val := bytesPerSec
	unit := 0
	for val >= 1024 && unit < len(rateUnits)-1 {
		val /= 1024
		unit++
	}
	switch {
	case val < 10 && unit > 0:
		return fmt.Sprintf("%.2f %s", val, rateUnits[unit])
	case val < 100 && unit > 0:
		return fmt.Sprintf("%.1f %s", val, rateUnits[unit])
	default:
		return fmt.Sprintf("%.0f %s", val, rateUnits[unit])
	}
}

// FormatETA formats a remaining-time estimate; unknown or elapsed is "--".
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return FormatDuration(d)
}

// FormatDuration formats a duration as "1h 02m 03s", "3m 17s" or "42s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ProgressBar renders frac (clamped to [0,1]) as a bar of width cells.
func ProgressBar(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	frac = min(max(frac, 0), 1)
	filled := min(int(frac*float64(width)), width)
	return strings.Repeat("▪", filled) + strings.Repeat("□", width-filled)
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}
