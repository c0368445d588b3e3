// Package config loads replacement rules from a rules file. Rules files are
// an alternative to positional from/to tokens and support per-rule file
// filters.
package config

import (
	"context"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/replware/replace/pkg/pattern"
)

// Parser is the interface for rules-file parsers.
type Parser interface {
	// Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

// parsers is the list of registered parsers
var parsers []Parser

// Register registers a parser.
func Register(p Parser) {
	parsers = append(parsers, p)
}

// parserFor returns a parser that can handle the given file, or nil.
func parserFor(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Rule is a single replacement with an optional file filter.
type Rule struct {
	From string // literal text to search for
	To   string // literal replacement text

	// Files restricts the rule to paths matching this doublestar glob.
	// Empty means the rule applies everywhere. Standard input always
	// receives every rule.
	Files string
}

// Config is a parsed rules file.
type Config struct {
	Rules   []Rule
	Silent  bool
	Verbose bool
	Jobs    int
}

// Load reads and parses the rules file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading rules file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading rules file: %w", err)
	}

	p := parserFor(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for rules file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing rules file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating rules file: %w", err)
	}

	return cfg, nil
}

// Validate checks that every rule is usable.
func (c *Config) Validate() error {
	if len(c.Rules) == 0 {
		return errors.New("rules file defines no rules")
	}
	for i, r := range c.Rules {
		if r.From == "" {
			return errors.Errorf("rule %d: from is required", i)
		}
		if r.Files != "" && !doublestar.ValidatePattern(r.Files) {
			return errors.Errorf("rule %d: invalid file glob %q", i, r.Files)
		}
	}
	if c.Jobs < 0 {
		return errors.Errorf("jobs must be >= 0, got %d", c.Jobs)
	}
	return nil
}

// RulesFor returns the rules applicable to one target path, filtered by each
// rule's glob. An empty path (standard input) gets every rule.
func (c *Config) RulesFor(path string) []Rule {
	if path == "" {
		return c.Rules
	}
	matched := make([]Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.Files == "" {
			matched = append(matched, r)
			continue
		}
		ok, err := doublestar.Match(r.Files, path)
		if err != nil {
			// Globs were validated at load time; treat a failure here
			// as a non-match.
			continue
		}
		if ok {
			matched = append(matched, r)
		}
	}
	return matched
}

// Filtered reports whether any rule carries a file glob, meaning tables
// must be compiled per target file.
func (c *Config) Filtered() bool {
	for _, r := range c.Rules {
		if r.Files != "" {
			return true
		}
	}
	return false
}

// Pairs converts rules to pattern pairs, preserving order.
func Pairs(rules []Rule) []pattern.Pair {
	pairs := make([]pattern.Pair, 0, len(rules))
	for _, r := range rules {
		pairs = append(pairs, pattern.Pair{From: r.From, To: r.To})
	}
	return pairs
}
