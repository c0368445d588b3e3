// Package pattern holds the compiled table of from/to replacement pairs.
package pattern

import (
	"sort"

	"gitlab.com/tozd/go/errors"
)

// Pair is a single literal replacement: every occurrence of From becomes To.
type Pair struct {
	// From is the literal text to search for
	From string

	// To is the literal text substituted in its place
	To string
}

// Table is an immutable, ordered set of replacement pairs, sorted by
// non-increasing length of From. Because of that ordering, the first pair
// that matches at a position during a linear scan is a longest match.
// A Table has no mutators after Compile and is safe for concurrent use.
type Table struct {
	pairs []Pair
}

// Compile builds a Table from a flat token list: from1 to1 from2 to2 ...
// Pairs with equal From length keep their original order, so the earlier
// pair wins when two patterns of the same length match at the same position.
func Compile(tokens []string) (*Table, error) {
	if len(tokens) == 0 {
		return nil, errors.New("no replacement pairs given")
	}
	if len(tokens)%2 != 0 {
		return nil, errors.Errorf("replacement strings must come in from/to pairs, got %d tokens", len(tokens))
	}

	pairs := make([]Pair, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		pairs = append(pairs, Pair{From: tokens[i], To: tokens[i+1]})
	}
	return FromPairs(pairs), nil
}

// FromPairs builds a Table from already-assembled pairs, preserving input
// order among pairs of equal From length.
func FromPairs(pairs []Pair) *Table {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].From) > len(sorted[j].From)
	})
	return &Table{pairs: sorted}
}

// Pairs returns the pairs in match-priority order. Callers must not modify
// the returned slice.
func (t *Table) Pairs() []Pair {
	return t.pairs
}

// Len returns the number of pairs in the table.
func (t *Table) Len() int {
	return len(t.pairs)
}

// MaxFromLen returns the length of the longest From in the table.
func (t *Table) MaxFromLen() int {
	if len(t.pairs) == 0 {
		return 0
	}
	return len(t.pairs[0].From)
}
