// Package userlog prints human-facing status lines for processed files,
// mirrored into zerolog for machine-readable logs.
package userlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	nameWidth  = 35 // base width for the file path column
	countWidth = 6  // width for numeric columns
)

// 🎯 FileResult represents the outcome of processing one file
type FileResult struct {
	Path    string // file path, or "-" for standard input
	Lines   int    // lines processed
	Changed int    // lines with at least one substitution
	Err     error  // non-nil when the file failed
	Skipped bool   // true when no rule applied to the file
}

// 🎯 Logger writes user-facing status to a console stream. Error output is
// always emitted; everything else honors silent mode.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	silent  bool
	mu      sync.Mutex
}

// 🏭 New creates a user logger writing to console.
func New(console io.Writer, zlog zerolog.Logger, silent bool) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		silent:  silent,
	}
}

// 📝 formatResult formats one file result line.
func (l *Logger) formatResult(res FileResult) string {
	var symbol string
	switch {
	case res.Err != nil:
		symbol = color.New(color.FgRed).Sprint("✗")
	case res.Skipped:
		symbol = color.New(color.FgYellow).Sprint("-")
	case res.Changed > 0:
		symbol = color.New(color.FgGreen).Sprint("✓")
	default:
		symbol = color.New(color.FgCyan).Sprint("•")
	}

	status := "converted"
	switch {
	case res.Err != nil:
		status = "failed"
	case res.Skipped:
		status = "skipped"
	case res.Changed == 0:
		status = "unchanged"
	}

	return fmt.Sprintf("%s %s %s %s",
		symbol,
		fmt.Sprintf("%-*s", nameWidth, res.Path),
		fmt.Sprintf("%*d lines", countWidth, res.Lines),
		status)
}

// 📝 LogFileResult logs the outcome of one processed file.
func (l *Logger) LogFileResult(res FileResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res.Err != nil {
		pterm.Error.WithWriter(l.console).Printfln("%s: %v", res.Path, res.Err)
		l.zlog.Error().Err(res.Err).Str("file", res.Path).Msg("file failed")
		return
	}

	if !l.silent {
		fmt.Fprintln(l.console, l.formatResult(res))
	}

	l.zlog.Info().
		Str("file", res.Path).
		Int("lines", res.Lines).
		Int("changed", res.Changed).
		Bool("skipped", res.Skipped).
		Msg("file processed")
}

// 📝 Summary prints the end-of-run summary.
func (l *Logger) Summary(converted, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if failed > 0 {
		pterm.Warning.WithWriter(l.console).Printfln("%d of %d files failed", failed, converted+failed)
	} else if !l.silent {
		pterm.Success.WithWriter(l.console).Printfln("%d files converted", converted)
	}

	l.zlog.Info().Int("converted", converted).Int("failed", failed).Msg("run complete")
}

// 📝 Error prints an error message, regardless of silent mode.
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pterm.Error.WithWriter(l.console).Println(msg)
	l.zlog.Error().Msg(msg)
}
