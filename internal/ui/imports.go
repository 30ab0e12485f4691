package ui

import "github.com/bamsammich/fdcopy/internal/event"

// Event is re-exported for presenter signatures.
type Event = event.Event

// Re-export event types for convenience.
const (
	CopyStarted      = event.CopyStarted
	ChunkCopied      = event.ChunkCopied
	StrategyFallback = event.StrategyFallback
	WouldBlockWait   = event.WouldBlockWait
	CopyCompleted    = event.CopyCompleted
	CopyFailed       = event.CopyFailed
	CopyCancelled    = event.CopyCancelled
	VerifyStarted    = event.VerifyStarted
	VerifyOK         = event.VerifyOK
	VerifyFailed     = event.VerifyFailed
)
