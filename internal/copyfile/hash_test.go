package copyfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	h1, err := HashFile(ctx, write("a", "hello world"))
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, err := HashFile(ctx, write("b", "hello world"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := HashFile(ctx, write("c", "different content"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	// BLAKE3 of the empty input.
	h4, err := HashFile(ctx, write("empty", ""))
	require.NoError(t, err)
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", h4)
}

func TestHashFileErrors(t *testing.T) {
	_, err := HashFile(context.Background(), "/nonexistent/file")
	require.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = HashFile(ctx, p)
	require.ErrorIs(t, err, context.Canceled)
}
