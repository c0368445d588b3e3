// Package runner orchestrates substitution over standard input or a list of
// files, sequentially or in parallel.
package runner

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/replware/replace/pkg/config"
	"github.com/replware/replace/pkg/engine"
	"github.com/replware/replace/pkg/fileswap"
	"github.com/replware/replace/pkg/pattern"
	"github.com/replware/replace/pkg/stream"
	"github.com/replware/replace/pkg/userlog"
)

// ErrFilesFailed is returned when at least one file could not be processed.
// Files that did process stay converted; the caller maps this to exit code 2.
var ErrFilesFailed = errors.Base("one or more files failed")

// ErrStreamFailed is returned when the stdin→stdout stream fails mid-run.
// It gets the same exit code as a failed file.
var ErrStreamFailed = errors.Base("stream processing failed")

// 🔧 Options configures a run.
type Options struct {
	// Rules is the combined rule set (positional pairs plus rules file)
	Rules *config.Config

	// Files are the paths to rewrite in place; empty means stdin → stdout
	Files []string

	// Jobs is the number of files processed concurrently; 0 and 1 both
	// mean sequential
	Jobs int

	// Stdin and Stdout are the streams used when Files is empty
	Stdin  io.Reader
	Stdout io.Writer

	// UserLog receives per-file status lines
	UserLog *userlog.Logger
}

// 🏃 Runner executes one substitution run.
type Runner struct {
	opts Options
}

// 🏭 New creates a runner, validating its options.
func New(opts Options) (*Runner, error) {
	if opts.Rules == nil || len(opts.Rules.Rules) == 0 {
		return nil, errors.New("at least one replacement rule is required")
	}
	if opts.UserLog == nil {
		return nil, errors.New("user logger is required")
	}
	if len(opts.Files) == 0 && (opts.Stdin == nil || opts.Stdout == nil) {
		return nil, errors.New("stdin and stdout are required when no files are given")
	}
	return &Runner{opts: opts}, nil
}

// 🏃 Run performs the substitution. With files it rewrites each in place and
// keeps going past per-file failures; the aggregate error reports whether
// any file failed. Without files it processes stdin to stdout.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.opts.Files) == 0 {
		return r.runStdin(ctx)
	}
	if r.opts.Jobs > 1 {
		return r.runParallel(ctx)
	}
	return r.runSequential(ctx)
}

// streamOptions builds the processor options from the rule set.
func (r *Runner) streamOptions() stream.Options {
	return stream.Options{
		Verbose: r.opts.Rules.Verbose,
	}
}

// tableFor compiles the pattern table for one target path. The shared table
// is reused unless some rule carries a file glob.
func (r *Runner) tableFor(path string, shared *pattern.Table) *pattern.Table {
	if !r.opts.Rules.Filtered() {
		return shared
	}
	return pattern.FromPairs(config.Pairs(r.opts.Rules.RulesFor(path)))
}

// 🔄 runStdin processes standard input to standard output as one stream.
func (r *Runner) runStdin(ctx context.Context) error {
	table := pattern.FromPairs(config.Pairs(r.opts.Rules.Rules))
	proc := stream.New(engine.New(table), r.streamOptions())

	stats, err := proc.Run(ctx, r.opts.Stdin, r.opts.Stdout)
	if err != nil {
		return errors.Errorf("processing standard input: %w", errors.Join(ErrStreamFailed, err))
	}

	zerolog.Ctx(ctx).Debug().Int("lines", stats.Lines).Int("changed", stats.Changed).Msg("stdin processed")
	return nil
}

// processFile rewrites a single file in place and reports its result.
func (r *Runner) processFile(ctx context.Context, path string, shared *pattern.Table) error {
	table := r.tableFor(path, shared)
	if table.Len() == 0 {
		r.opts.UserLog.LogFileResult(userlog.FileResult{Path: path, Skipped: true})
		return nil
	}

	proc := stream.New(engine.New(table), r.streamOptions())

	var stats stream.Stats
	err := fileswap.Rewrite(ctx, path, func(ctx context.Context, in io.Reader, out io.Writer) error {
		var perr error
		stats, perr = proc.Run(ctx, in, out)
		return perr
	})

	r.opts.UserLog.LogFileResult(userlog.FileResult{
		Path:    path,
		Lines:   stats.Lines,
		Changed: stats.Changed,
		Err:     err,
	})
	return err
}

// 🔄 runSequential processes the files one at a time.
func (r *Runner) runSequential(ctx context.Context) error {
	shared := pattern.FromPairs(config.Pairs(r.opts.Rules.Rules))

	failed := 0
	for _, path := range r.opts.Files {
		if err := r.processFile(ctx, path, shared); err != nil {
			failed++
		}
	}

	return r.finish(len(r.opts.Files)-failed, failed)
}

// ⚡ runParallel processes files concurrently. Every worker shares the same
// immutable pattern table; each file gets its own processor and streams.
func (r *Runner) runParallel(ctx context.Context) error {
	shared := pattern.FromPairs(config.Pairs(r.opts.Rules.Rules))

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for _, path := range r.opts.Files {
		path := path
		g.Go(func() error {
			if err := r.processFile(gctx, path, shared); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			// Per-file failures are recorded, not propagated, so the
			// remaining files keep processing.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Errorf("waiting for workers: %w", err)
	}

	return r.finish(len(r.opts.Files)-failed, failed)
}

// finish emits the summary and converts the failure count to the aggregate
// run error.
func (r *Runner) finish(converted, failed int) error {
	r.opts.UserLog.Summary(converted, failed)
	if failed > 0 {
		return errors.WithDetails(ErrFilesFailed, "failed", failed)
	}
	return nil
}
