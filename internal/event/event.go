package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	CopyStarted Type = iota + 1
	ChunkCopied
	StrategyFallback
	WouldBlockWait
	CopyCompleted
	CopyFailed
	CopyCancelled
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	CopyStarted:      "CopyStarted",
	ChunkCopied:      "ChunkCopied",
	StrategyFallback: "StrategyFallback",
	WouldBlockWait:   "WouldBlockWait",
	CopyCompleted:    "CopyCompleted",
	CopyFailed:       "CopyFailed",
	CopyCancelled:    "CopyCancelled",
	VerifyStarted:    "VerifyStarted",
	VerifyOK:         "VerifyOK",
	VerifyFailed:     "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from a copy.
type Event struct {
	Type      Type
	Timestamp time.Time
	Error     error
	Path      string // destination path
	Method    string // copy method that produced the bytes
	Size      int64  // chunk size or bytes-so-far
	Total     int64  // expected total bytes (CopyStarted), 0 if unknown
}

// Emit sends ev without blocking; events are dropped when ch is full or nil.
func Emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case ch <- ev:
	default:
	}
}
