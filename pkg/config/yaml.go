package config

import (
	"bytes"
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(&YAMLParser{})
}

// YAMLParser implements the Parser interface for YAML rules files.
type YAMLParser struct{}

// CanParse checks if this parser can handle the given file.
func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

// Parse parses the config from YAML.
func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	// YAML schema
	type yamlRule struct {
		From  string `yaml:"from"`
		To    string `yaml:"to"`
		Files string `yaml:"files,omitempty"`
	}
	type yamlConfig struct {
		Rules   []yamlRule `yaml:"rules"`
		Silent  bool       `yaml:"silent,omitempty"`
		Verbose bool       `yaml:"verbose,omitempty"`
		Jobs    int        `yaml:"jobs,omitempty"`
	}

	var yamlCfg yamlConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&yamlCfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	cfg := &Config{
		Silent:  yamlCfg.Silent,
		Verbose: yamlCfg.Verbose,
		Jobs:    yamlCfg.Jobs,
	}
	for _, r := range yamlCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{
			From:  r.From,
			To:    r.To,
			Files: r.Files,
		})
	}

	return cfg, nil
}
