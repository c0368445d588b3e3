// Package engine implements longest-match-first literal substitution over
// single lines of text.
package engine

import (
	"strings"

	"github.com/replware/replace/pkg/pattern"
)

// Engine applies a compiled pattern table to lines of text. It holds no
// mutable state and is safe for concurrent use by multiple goroutines.
type Engine struct {
	table *pattern.Table
}

// New creates an Engine bound to the given table.
func New(table *pattern.Table) *Engine {
	return &Engine{table: table}
}

// Apply replaces every match in line and reports whether anything changed.
//
// The line is scanned left to right. At each position the table is scanned
// in order; the table is sorted by descending From length, so the first
// pair whose From is a prefix of the remaining input is a longest match at
// that position. Ties between equal-length patterns go to the pair that
// appeared first in the original input. A matched region is consumed
// entirely, so replacements never overlap and the output of one pair is
// never rescanned by another.
func (e *Engine) Apply(line string) (string, bool) {
	var out strings.Builder
	changed := false

	i := 0
	for i < len(line) {
		rest := line[i:]
		matched := false
		for _, p := range e.table.Pairs() {
			// An empty From would match everywhere without consuming
			// input; it must never be applied.
			if p.From == "" {
				continue
			}
			if strings.HasPrefix(rest, p.From) {
				if !changed {
					// First match: copy everything scanned so far.
					out.Grow(len(line))
					out.WriteString(line[:i])
				}
				out.WriteString(p.To)
				i += len(p.From)
				changed = true
				matched = true
				break
			}
		}
		if !matched {
			if changed {
				out.WriteByte(line[i])
			}
			i++
		}
	}

	if !changed {
		// Nothing matched anywhere; hand back the input unchanged
		// without having copied it.
		return line, false
	}
	return out.String(), true
}
