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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/regen"
	"github.com/walteh/docmigrate/pkg/report"
	"github.com/walteh/docmigrate/pkg/rules"
	"github.com/walteh/docmigrate/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// 📌 Defaults filled in by Validate
const (
	DefaultFileName     = ".docmigrate.yaml"
	DefaultSuffix       = "_MisAJour"
	DefaultReportPrefix = "RAPPORT_MiseAJour"
	DefaultReportTitle  = "RAPPORT DE MISE À JOUR DES DOCUMENTS"
	DefaultWorkers      = 1
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// hasExt reports whether filename ends with one of exts, ignoring case.
func hasExt(filename string, exts ...string) bool {
	lower := strings.ToLower(strings.TrimSpace(filename))
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// 🔄 Rule is one substitution as written in the config
type Rule struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"` // Defaults to Pattern
}

// 🏷️ Versioning names migrated copies
type Versioning struct {
	Suffix            string   `json:"suffix" yaml:"suffix"`
	VersionedSuffixes []string `json:"versioned_suffixes,omitempty" yaml:"versioned_suffixes,omitempty"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// 📋 ReportArgs is the fixed part of the audit report
type ReportArgs struct {
	Prefix     string   `json:"prefix" yaml:"prefix"`
	Title      string   `json:"title" yaml:"title"`
	Changes    []string `json:"changes,omitempty" yaml:"changes,omitempty"`
	Before     []string `json:"before,omitempty" yaml:"before,omitempty"`
	After      []string `json:"after,omitempty" yaml:"after,omitempty"`
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
	Footer     string   `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// 🆕 Generated lists the fresh documents produced by the generators
type Generated struct {
	Source    string   `json:"source,omitempty" yaml:"source,omitempty"` // Where generators write, copied into the target
	Documents []string `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// 🏭 Generator runs an external program producing fresh documents
type Generator struct {
	Name    string   `json:"name" yaml:"name"`
	Program string   `json:"program" yaml:"program"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	Script  string   `json:"script,omitempty" yaml:"script,omitempty"`
	Dir     string   `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Target     string      `json:"target" yaml:"target"`
	Include    []string    `json:"include,omitempty" yaml:"include,omitempty"`
	Ignore     []string    `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Rules      []Rule      `json:"rules,omitempty" yaml:"rules,omitempty"`
	Flags      []string    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Versioning Versioning  `json:"versioning" yaml:"versioning"`
	Report     ReportArgs  `json:"report" yaml:"report"`
	Generated  Generated   `json:"generated" yaml:"generated"`
	Generators []Generator `json:"generators,omitempty" yaml:"generators,omitempty"`
	Workers    int         `json:"workers,omitempty" yaml:"workers,omitempty"`
	Backup     bool        `json:"backup,omitempty" yaml:"backup,omitempty"`

	location string
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("target", cfg.Target).Int("rules", len(cfg.Rules)).Int("flags", len(cfg.Flags)).Msg("configuration loaded")
	return cfg, nil
}

// Location returns the absolute path the config was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Target) == "" {
		return errors.Errorf("target is required")
	}
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", cfg.Workers)
	}

	// Set defaults
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Versioning.Suffix == "" {
		cfg.Versioning.Suffix = DefaultSuffix
	}
	if cfg.Report.Prefix == "" {
		cfg.Report.Prefix = DefaultReportPrefix
	}
	if cfg.Report.Title == "" {
		cfg.Report.Title = DefaultReportTitle
	}
	for i := range cfg.Rules {
		if cfg.Rules[i].Label == "" {
			cfg.Rules[i].Label = cfg.Rules[i].Pattern
		}
	}

	// Clean up paths
	var err error
	if cfg.Target, err = cfg.resolve(cfg.Target); err != nil {
		return errors.Errorf("resolving target: %w", err)
	}
	if cfg.Generated.Source != "" {
		if cfg.Generated.Source, err = cfg.resolve(cfg.Generated.Source); err != nil {
			return errors.Errorf("resolving generated.source: %w", err)
		}
	}
	for i, g := range cfg.Generators {
		if g.Program == "" {
			return errors.Errorf("generators[%d].program is required", i)
		}
		if g.Script != "" {
			if cfg.Generators[i].Script, err = cfg.resolve(g.Script); err != nil {
				return errors.Errorf("resolving generators[%d].script: %w", i, err)
			}
		}
		if g.Dir != "" {
			if cfg.Generators[i].Dir, err = cfg.resolve(g.Dir); err != nil {
				return errors.Errorf("resolving generators[%d].dir: %w", i, err)
			}
		}
	}

	if err := cfg.Policy().Validate(); err != nil {
		return errors.Errorf("validating versioning: %w", err)
	}
	if _, err := cfg.RuleSet(); err != nil {
		return errors.Errorf("validating rules: %w", err)
	}

	return nil
}

// resolve expands "~/" and anchors relative paths at the config's directory.
func (cfg *Config) resolve(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("finding home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) && cfg.location != "" {
		path = filepath.Join(filepath.Dir(cfg.location), path)
	}
	return filepath.Clean(path), nil
}

// 📚 RuleSet builds the immutable rule table
func (cfg *Config) RuleSet() (*rules.Set, error) {
	subs := make([]rules.Substitution, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		label := r.Label
		if label == "" {
			label = r.Pattern
		}
		subs = append(subs, rules.Substitution{Pattern: r.Pattern, Replacement: r.Replacement, Label: label})
	}
	flags := make([]rules.Flag, 0, len(cfg.Flags))
	for _, f := range cfg.Flags {
		flags = append(flags, rules.Flag{Pattern: f})
	}
	return rules.NewSet(subs, flags)
}

// 🏷️ Policy returns the versioning policy
func (cfg *Config) Policy() version.Policy {
	return version.Policy{
		Suffix:            cfg.Versioning.Suffix,
		VersionedSuffixes: append([]string(nil), cfg.Versioning.VersionedSuffixes...),
		Tags:              append([]string(nil), cfg.Versioning.Tags...),
	}
}

// 📋 ReportSummary returns the fixed description of the policy change
func (cfg *Config) ReportSummary() report.Summary {
	return report.Summary{
		Title:      cfg.Report.Title,
		Changes:    append([]string(nil), cfg.Report.Changes...),
		Before:     append([]string(nil), cfg.Report.Before...),
		After:      append([]string(nil), cfg.Report.After...),
		References: append([]string(nil), cfg.Report.References...),
		Footer:     cfg.Report.Footer,
	}
}

// 🏭 Regenerators returns one subprocess regenerator per configured generator
func (cfg *Config) Regenerators() []regen.Regenerator {
	out := make([]regen.Regenerator, 0, len(cfg.Generators))
	for _, g := range cfg.Generators {
		out = append(out, &regen.Command{
			Label:   g.Name,
			Program: g.Program,
			Args:    append([]string(nil), g.Args...),
			Script:  g.Script,
			Dir:     g.Dir,
		})
	}
	return out
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%d rules, %d flags -> %s (suffix %s)", len(cfg.Rules), len(cfg.Flags), cfg.Target, cfg.Versioning.Suffix)
}
