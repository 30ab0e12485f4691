package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fdcopy/internal/ui"
)

// newLogPair mirrors the CLI setup: warn-level text for the terminal and a
// debug-level JSON log file.
func newLogPair() (*slog.Logger, *bytes.Buffer, *bytes.Buffer) {
	var text, js bytes.Buffer
	h := ui.NewMultiHandler(
		slog.NewTextHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return slog.New(h), &text, &js
}

func jsonRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var recs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestMultiHandler_RoutesByLevel(t *testing.T) {
	t.Parallel()
	logger, text, js := newLogPair()

	logger.Debug("offload not applicable", "method", "sendfile")
	logger.Warn("failed to load config", "path", "/tmp/x.toml")

	assert.NotContains(t, text.String(), "offload not applicable")
	assert.Contains(t, text.String(), "path=/tmp/x.toml")

	recs := jsonRecords(t, js)
	require.Len(t, recs, 2)
	assert.Equal(t, "offload not applicable", recs[0]["msg"])
	assert.Equal(t, "sendfile", recs[0]["method"])
	assert.Equal(t, "WARN", recs[1]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	for level, want := range map[slog.Level]bool{
		slog.LevelDebug: false,
		slog.LevelInfo:  true,
		slog.LevelError: true,
	} {
		assert.Equal(t, want, m.Enabled(ctx, level), level.String())
	}

	assert.False(t, ui.NewMultiHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()
	logger, text, js := newLogPair()

	logger.With("src", "a.bin").WithGroup("copy").Error("copy failed", "errno", "EIO")

	assert.Contains(t, text.String(), "src=a.bin")
	assert.Contains(t, text.String(), "copy.errno=EIO")

	recs := jsonRecords(t, js)
	require.Len(t, recs, 1)
	assert.Equal(t, "a.bin", recs[0]["src"])
	group, ok := recs[0]["copy"].(map[string]any)
	require.True(t, ok, "group rendered as a nested object")
	assert.Equal(t, "EIO", group["errno"])
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	m := ui.NewMultiHandler(failingHandler{ok}, ok)

	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "msg", 0)
	err := m.Handle(context.Background(), r)
	require.ErrorContains(t, err, "disk full")
	assert.Contains(t, buf.String(), "msg", "later handlers still run")
}
