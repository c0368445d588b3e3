package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// HCLParser implements the Parser interface for HCL rules files.
type HCLParser struct{}

// CanParse checks if this parser can handle the given file.
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// Parse parses the config from HCL.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "rules.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// HCL schema
	type hclRule struct {
		From  string `hcl:"from"`
		To    string `hcl:"to"`
		Files string `hcl:"files,optional"`
	}
	type hclConfig struct {
		Rules   []hclRule `hcl:"rule,block"`
		Silent  bool      `hcl:"silent,optional"`
		Verbose bool      `hcl:"verbose,optional"`
		Jobs    int       `hcl:"jobs,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Silent:  hclCfg.Silent,
		Verbose: hclCfg.Verbose,
		Jobs:    hclCfg.Jobs,
	}
	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{
			From:  r.From,
			To:    r.To,
			Files: r.Files,
		})
	}

	return cfg, nil
}
