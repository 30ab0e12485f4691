package copyfile

import "fmt"

// Strategy selects which copy primitives a Copier may use.
type Strategy int

const (
	// Auto tries the kernel offload first and falls back to a buffered
	// copy when the offload cannot serve the descriptor pair.
	Auto Strategy = iota
	// Direct uses the kernel offload only.
	Direct
	// Buffered moves bytes through a user-space buffer only.
	Buffered
)

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case Direct:
		return "direct"
	case Buffered:
		return "buffered"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "auto", "direct" or "buffered". Empty means Auto.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "direct":
		return Direct, nil
	case "buffered":
		return Buffered, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want auto, direct or buffered)", s)
	}
}
