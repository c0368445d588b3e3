// Package fileswap rewrites files in place through a temporary file in the
// same directory, renamed over the original only on full success.
package fileswap

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ProcessFunc transforms everything read from r and writes the result to w.
// Rewrite calls it exactly once per file.
type ProcessFunc func(ctx context.Context, r io.Reader, w io.Writer) error

// Rewrite runs process with the named file as input and a temporary file in
// the same directory as output, then renames the temporary file over the
// original. On any failure the temporary file is removed and the original
// is left untouched. The original's permission bits carry over.
func Rewrite(ctx context.Context, path string, process ProcessFunc) error {
	logger := zerolog.Ctx(ctx)

	in, err := os.Open(path)
	if err != nil {
		return errors.Errorf("opening %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("stating %s: %w", path, err)
	}

	// The temp file lives next to the original so the final rename stays
	// on one filesystem and is atomic.
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".replace-*")
	if err != nil {
		return errors.Errorf("creating temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn().Err(rmErr).Str("path", tmpPath).Msg("leaving temporary file behind")
		}
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		cleanup()
		return errors.Errorf("setting mode on temporary file: %w", err)
	}

	if err := process(ctx, in, tmp); err != nil {
		cleanup()
		return errors.Errorf("processing %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.Errorf("renaming %s over %s: %w", tmpPath, path, err)
	}

	logger.Debug().Str("path", path).Msg("file rewritten in place")
	return nil
}
