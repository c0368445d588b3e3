package fileswap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world\n"), 0o600))

	err := Rewrite(context.Background(), path, func(ctx context.Context, r io.Reader, w io.Writer) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, err = w.Write(append([]byte("transformed: "), data...))
		return err
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "transformed: hello world\n", string(got))

	// Only the rewritten file remains; no temp artifacts.
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRewrite_ProcessFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	original := []byte("line one\nline two\n")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	err := Rewrite(context.Background(), path, func(ctx context.Context, r io.Reader, w io.Writer) error {
		// Simulate a mid-file failure after partial output.
		if _, err := w.Write([]byte("partial")); err != nil {
			return err
		}
		return errors.New("write failed mid-file")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed mid-file")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got, "original must stay byte-identical")
	assert.Equal(t, []string{"input.txt"}, listDir(t, dir), "no temp artifact may remain")
}

func TestRewrite_MissingFile(t *testing.T) {
	dir := t.TempDir()

	err := Rewrite(context.Background(), filepath.Join(dir, "nope.txt"), func(ctx context.Context, r io.Reader, w io.Writer) error {
		t.Fatal("process must not run when the file cannot be opened")
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening")
	assert.Empty(t, listDir(t, dir))
}
