//go:build unix

package copyfile

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fdcopy/internal/event"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// openPair opens a source holding data and an empty destination.
func openPair(t *testing.T, data []byte, dstFlag int) (src, dst *os.File) {
	t.Helper()
	dir := t.TempDir()

	var err error
	src, err = os.Open(writeFile(t, dir, "src", data))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	dst, err = os.OpenFile(filepath.Join(dir, "dst"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC|dstFlag, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { dst.Close() })
	return src, dst
}

func readBack(t *testing.T, f *os.File) []byte {
	t.Helper()
	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return got
}

func drain(ch chan event.Event) []event.Type {
	close(ch)
	var types []event.Type
	for ev := range ch {
		types = append(types, ev.Type)
	}
	return types
}
