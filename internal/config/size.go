package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	// Longest first so "KiB" wins over "B".
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30}, {"TIB", 1 << 40},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40},
	{"B", 1},
}

// ParseSize parses a human-readable size such as 64K, 1.5G or 4MiB into
// bytes. Units are powers of 1024.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)
	multiplier := int64(1)
	numStr := s
	for _, u := range sizeSuffixes {
		if strings.HasSuffix(upper, u.suffix) {
			multiplier = u.mult
			numStr = strings.TrimSpace(s[:len(s)-len(u.suffix)])
			break
		}
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		if n > math.MaxInt64/multiplier {
			return 0, fmt.Errorf("size too large: %q", s)
		}
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	// float64(MaxInt64) rounds up to 2^63, so equality already overflows.
	bytes := f * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %q", s)
	}
	return int64(bytes), nil
}
