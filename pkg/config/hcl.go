// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return hasExt(filename, ".hcl")
}

// 📝 Parse parses the config from HCL. Rules are labeled blocks:
//
//	rule "Ligne acompte" {
//	  pattern     = "Acompte : 10%"
//	  replacement = "Frais de dossier : 10 000 FCFA"
//	}
//
// The variable env.HOME is available to expressions.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	home, _ := os.UserHomeDir()
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(map[string]cty.Value{
				"HOME": cty.StringVal(home),
			}),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Target  string   `hcl:"target"`
		Include []string `hcl:"include,optional"`
		Ignore  []string `hcl:"ignore,optional"`
		Flags   []string `hcl:"flags,optional"`
		Workers int      `hcl:"workers,optional"`
		Backup  bool     `hcl:"backup,optional"`
		Rules   []struct {
			Label       string `hcl:"label,label"`
			Pattern     string `hcl:"pattern"`
			Replacement string `hcl:"replacement"`
		} `hcl:"rule,block"`
		Versioning *struct {
			Suffix            string   `hcl:"suffix"`
			VersionedSuffixes []string `hcl:"versioned_suffixes,optional"`
			Tags              []string `hcl:"tags,optional"`
		} `hcl:"versioning,block"`
		Report *struct {
			Prefix     string   `hcl:"prefix,optional"`
			Title      string   `hcl:"title,optional"`
			Changes    []string `hcl:"changes,optional"`
			Before     []string `hcl:"before,optional"`
			After      []string `hcl:"after,optional"`
			References []string `hcl:"references,optional"`
			Footer     string   `hcl:"footer,optional"`
		} `hcl:"report,block"`
		Generated *struct {
			Source    string   `hcl:"source,optional"`
			Documents []string `hcl:"documents,optional"`
		} `hcl:"generated,block"`
		Generators []struct {
			Name    string   `hcl:"name,label"`
			Program string   `hcl:"program"`
			Args    []string `hcl:"args,optional"`
			Script  string   `hcl:"script,optional"`
			Dir     string   `hcl:"dir,optional"`
		} `hcl:"generator,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Target:  hclCfg.Target,
		Include: hclCfg.Include,
		Ignore:  hclCfg.Ignore,
		Flags:   hclCfg.Flags,
		Workers: hclCfg.Workers,
		Backup:  hclCfg.Backup,
	}

	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{Pattern: r.Pattern, Replacement: r.Replacement, Label: r.Label})
	}
	if v := hclCfg.Versioning; v != nil {
		cfg.Versioning = Versioning{Suffix: v.Suffix, VersionedSuffixes: v.VersionedSuffixes, Tags: v.Tags}
	}
	if r := hclCfg.Report; r != nil {
		cfg.Report = ReportArgs{
			Prefix:     r.Prefix,
			Title:      r.Title,
			Changes:    r.Changes,
			Before:     r.Before,
			After:      r.After,
			References: r.References,
			Footer:     r.Footer,
		}
	}
	if g := hclCfg.Generated; g != nil {
		cfg.Generated = Generated{Source: g.Source, Documents: g.Documents}
	}
	for _, g := range hclCfg.Generators {
		cfg.Generators = append(cfg.Generators, Generator{
			Name:    g.Name,
			Program: g.Program,
			Args:    g.Args,
			Script:  g.Script,
			Dir:     g.Dir,
		})
	}

	return cfg, nil
}
