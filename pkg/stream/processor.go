// Package stream drives the substitution engine over line-oriented streams.
package stream

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/replware/replace/pkg/engine"
)

// Options are the cross-cutting processing flags. The engine itself never
// sees them; they only affect diagnostics.
type Options struct {
	// Verbose emits a diagnostic for every changed line
	Verbose bool
}

// Stats summarizes one processed stream.
type Stats struct {
	// Lines is the total number of lines read
	Lines int

	// Changed is the number of lines where at least one substitution fired
	Changed int
}

// WriteError wraps a failure to write to the output sink. Processing of the
// stream stops at the first one; output already written stays written.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "writing output: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Processor pulls lines from a reader, runs each through the engine, and
// writes the results to a writer. One Processor may be shared across
// streams; Run carries no state between calls.
type Processor struct {
	engine *engine.Engine
	opts   Options
}

// New creates a Processor backed by the given engine.
func New(eng *engine.Engine, opts Options) *Processor {
	return &Processor{engine: eng, opts: opts}
}

// Run processes r to w until end of stream. Each line is stripped of its
// trailing terminator ("\n" or "\r\n"), substituted, and written back with
// the same terminator. A final line without a terminator stays without one.
// Diagnostics go to the context logger, never to w.
func (p *Processor) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	logger := zerolog.Ctx(ctx)

	var stats Stats
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		raw, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return stats, errors.Errorf("reading input: %w", err)
		}
		if raw == "" && err == io.EOF {
			break
		}

		line, term := splitTerminator(raw)
		stats.Lines++

		result, changed := p.engine.Apply(line)
		if changed {
			stats.Changed++
			if p.opts.Verbose {
				logger.Info().Int("line", stats.Lines).Str("result", result).Msg("replaced in line")
			}
		}

		if _, werr := bw.WriteString(result); werr != nil {
			return stats, errors.WithStack(&WriteError{Err: werr})
		}
		if _, werr := bw.WriteString(term); werr != nil {
			return stats, errors.WithStack(&WriteError{Err: werr})
		}

		if err == io.EOF {
			break
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, errors.WithStack(&WriteError{Err: err})
	}
	return stats, nil
}

// splitTerminator strips exactly one trailing line terminator, returning
// the bare line and the terminator that was removed (possibly empty).
func splitTerminator(raw string) (line, term string) {
	if strings.HasSuffix(raw, "\r\n") {
		return raw[:len(raw)-2], "\r\n"
	}
	if strings.HasSuffix(raw, "\n") {
		return raw[:len(raw)-1], "\n"
	}
	return raw, ""
}
