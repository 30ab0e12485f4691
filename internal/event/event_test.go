package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "CopyStarted", typ: CopyStarted},
		{want: "ChunkCopied", typ: ChunkCopied},
		{want: "StrategyFallback", typ: StrategyFallback},
		{want: "WouldBlockWait", typ: WouldBlockWait},
		{want: "CopyCompleted", typ: CopyCompleted},
		{want: "CopyFailed", typ: CopyFailed},
		{want: "CopyCancelled", typ: CopyCancelled},
		{want: "VerifyStarted", typ: VerifyStarted},
		{want: "VerifyOK", typ: VerifyOK},
		{want: "VerifyFailed", typ: VerifyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Empty(t, e.Method)
	assert.Zero(t, e.Size)
	assert.Zero(t, e.Total)
	require.NoError(t, e.Error)
}

func TestEmit(t *testing.T) {
	t.Run("stamps and delivers", func(t *testing.T) {
		ch := make(chan Event, 1)
		Emit(ch, Event{Type: CopyFailed, Path: "out.bin", Error: errors.New("boom")})

		ev := <-ch
		assert.Equal(t, CopyFailed, ev.Type)
		assert.Equal(t, "out.bin", ev.Path)
		assert.False(t, ev.Timestamp.IsZero())
	})

	t.Run("keeps caller timestamp", func(t *testing.T) {
		ch := make(chan Event, 1)
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		Emit(ch, Event{Type: ChunkCopied, Timestamp: ts})
		assert.Equal(t, ts, (<-ch).Timestamp)
	})

	t.Run("drops when full", func(t *testing.T) {
		ch := make(chan Event, 1)
		Emit(ch, Event{Type: ChunkCopied, Size: 1})
		Emit(ch, Event{Type: ChunkCopied, Size: 2})
		assert.Len(t, ch, 1)
		assert.Equal(t, int64(1), (<-ch).Size)
	})

	t.Run("nil channel", func(t *testing.T) {
		assert.NotPanics(t, func() { Emit(nil, Event{Type: CopyStarted}) })
	})
}
