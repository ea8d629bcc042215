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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/docmigrate/pkg/regen"
	"github.com/walteh/docmigrate/pkg/rules"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, dir string, cfg *Config)
	}{
		{
			name: "valid_config",
			config: `
target: corpus
include: ["**/*.docx"]
ignore: ["brouillons/**"]
rules:
  - pattern: "Acompte : 10%"
    replacement: "Frais de dossier : 10 000 FCFA"
    label: Ligne acompte
  - pattern: paiement mensuel
    replacement: paiement mensuel ou journalier
flags: ["10%", acompte]
versioning:
  suffix: _MisAJour_Fev2026
  versioned_suffixes: [_v2]
  tags: [Fev2026]
report:
  prefix: RAPPORT_TEST
  title: Rapport
  before: [Acompte 10%]
  after: [Frais de dossier]
generated:
  source: gen
  documents: [CGV.docx]
generators:
  - name: word
    program: node
    args: [generate_docs.js]
    script: generate_docs.js
workers: 3
backup: true
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, filepath.Join(dir, "corpus"), cfg.Target, "relative target resolves against the config dir")
				assert.Equal(t, []string{"**/*.docx"}, cfg.Include)
				assert.Equal(t, []string{"brouillons/**"}, cfg.Ignore)
				require.Len(t, cfg.Rules, 2)
				assert.Equal(t, "Ligne acompte", cfg.Rules[0].Label)
				assert.Equal(t, "paiement mensuel", cfg.Rules[1].Label, "label defaults to the pattern")
				assert.Equal(t, []string{"10%", "acompte"}, cfg.Flags)
				assert.Equal(t, "_MisAJour_Fev2026", cfg.Versioning.Suffix)
				assert.Equal(t, "RAPPORT_TEST", cfg.Report.Prefix)
				assert.Equal(t, filepath.Join(dir, "gen"), cfg.Generated.Source)
				assert.Equal(t, []string{"CGV.docx"}, cfg.Generated.Documents)
				require.Len(t, cfg.Generators, 1)
				assert.Equal(t, filepath.Join(dir, "generate_docs.js"), cfg.Generators[0].Script)
				assert.Equal(t, 3, cfg.Workers)
				assert.True(t, cfg.Backup)
			},
		},
		{
			name: "minimal_config",
			config: `
target: /srv/corpus
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, "/srv/corpus", cfg.Target)
				assert.Equal(t, DefaultWorkers, cfg.Workers, "workers should have default value")
				assert.Equal(t, DefaultSuffix, cfg.Versioning.Suffix)
				assert.Equal(t, DefaultReportPrefix, cfg.Report.Prefix)
				assert.Equal(t, DefaultReportTitle, cfg.Report.Title)
				assert.False(t, cfg.Backup)
				assert.Empty(t, cfg.Rules)
			},
		},
		{
			name:        "missing_required_target",
			config:      `workers: 2`,
			wantErr:     true,
			errContains: "target is required",
		},
		{
			name: "unknown_field",
			config: `
target: corpus
destination: elsewhere
`,
			wantErr:     true,
			errContains: "field destination not found",
		},
		{
			name: "empty_pattern",
			config: `
target: corpus
rules:
  - pattern: ""
    replacement: x
`,
			wantErr:     true,
			errContains: "validating rules",
		},
		{
			name: "negative_workers",
			config: `
target: corpus
workers: -1
`,
			wantErr:     true,
			errContains: "workers must not be negative",
		},
		{
			name: "generator_without_program",
			config: `
target: corpus
generators:
  - name: word
`,
			wantErr:     true,
			errContains: "generators[0].program is required",
		},
		{
			name: "empty_versioned_suffix",
			config: `
target: corpus
versioning:
  suffix: _MisAJour
  versioned_suffixes: [""]
`,
			wantErr:     true,
			errContains: "validating versioning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temporary config file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, DefaultFileName)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			// Load config
			cfg, err := Load(testContext(t), configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, configPath, cfg.Location())
			if tt.check != nil {
				tt.check(t, tmpDir, cfg)
			}
		})
	}
}

func TestLoad_HCL(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("testdata", "minimal.hcl"))
	require.NoError(t, err)

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "corpus"), cfg.Target)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Backup)
	assert.Equal(t, []Rule{
		{Pattern: "Acompte : 10%", Replacement: "Frais de dossier : 10 000 FCFA", Label: "Ligne acompte"},
		{Pattern: "paiement mensuel", Replacement: "paiement mensuel ou journalier", Label: "Mode paiement"},
	}, cfg.Rules)
	assert.Equal(t, []string{"10%", "acompte"}, cfg.Flags)
	assert.Equal(t, Versioning{Suffix: "_MisAJour_Fev2026", VersionedSuffixes: []string{"_v2"}, Tags: []string{"Fev2026"}}, cfg.Versioning)
	assert.Equal(t, "RAPPORT_TEST", cfg.Report.Prefix)
	assert.Equal(t, DefaultReportTitle, cfg.Report.Title)
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.Generated.Source)
	require.Len(t, cfg.Generators, 1)
	assert.Equal(t, "word", cfg.Generators[0].Name)
	assert.Equal(t, filepath.Join(dir, "generate_docs.js"), cfg.Generators[0].Script)
}

func TestLoad_JSON(t *testing.T) {
	cfg, err := Load(testContext(t), filepath.Join("testdata", "minimal.json"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/corpus", cfg.Target)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "Acompte : 10%", cfg.Rules[0].Label)
}

func TestLoad_JSONUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target": "x", "destination": "y"}`), 0o644))

	_, err := Load(testContext(t), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestLoad_JSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			name:    "trailing_object",
			data:    "{\"target\": \"x\"}\n{\"target\": \"y\"}",
			wantMsg: "at 2:1: trailing content",
		},
		{
			name:    "syntax_error",
			data:    "{\n  \"target\": \"x\",\n  \"workers\": 2,,\n}",
			wantMsg: "parsing JSON at 3:",
		},
		{
			name:    "wrong_type",
			data:    "{\n  \"workers\": \"deux\"\n}",
			wantMsg: "parsing JSON at 2:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONParser{}).Parse(testContext(t), []byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLineCol(t *testing.T) {
	data := []byte("ab\ncd\nef")
	assert.Equal(t, "1:1", lineCol(data, 0))
	assert.Equal(t, "2:2", lineCol(data, 4))
	assert.Equal(t, "3:3", lineCol(data, 100))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(testContext(t), filepath.Join(t.TempDir(), DefaultFileName))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("unsupported_extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("target = 'x'"), 0o644))
		_, err := Load(testContext(t), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no parser found")
	})
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("target: ~/Documents/corpus\n"), 0o644))

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Documents", "corpus"), cfg.Target)
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(testContext(t), filepath.Join("..", "..", "examples", "terrasocial.yaml"))
	require.NoError(t, err)

	set, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Len(t, set.Substitutions(), 10)
	assert.Len(t, set.Flags(), 5)
	assert.True(t, cfg.Policy().IsVersioned("CGV_TERRASOCIAL_Fev2026.docx"))
	assert.Len(t, cfg.Generated.Documents, 5)
	assert.Len(t, cfg.Regenerators(), 2)
	assert.Equal(t, "RAPPORT_MiseAJour_TERRASOCIAL", cfg.Report.Prefix)
}

func TestConfig_DomainValues(t *testing.T) {
	cfg := &Config{
		Target: "/srv/corpus",
		Rules: []Rule{
			{Pattern: "Acompte : 10%", Replacement: "Frais de dossier : 10 000 FCFA", Label: "Ligne acompte"},
		},
		Flags:      []string{"10%", "10%"},
		Versioning: Versioning{Suffix: "_MisAJour_Fev2026", VersionedSuffixes: []string{"_v2"}},
		Report:     ReportArgs{Title: "Rapport", Changes: []string{"a"}, Footer: "fin"},
		Generators: []Generator{{Name: "word", Program: "node", Args: []string{"gen.js"}}},
	}
	require.NoError(t, cfg.Validate())

	set, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []rules.Flag{{Pattern: "10%"}}, set.Flags(), "flags are deduplicated")

	policy := cfg.Policy()
	assert.Equal(t, "/srv/corpus/Contrat_MisAJour_Fev2026.docx", policy.OutputPath("/srv/corpus/Contrat.docx"))

	summary := cfg.ReportSummary()
	assert.Equal(t, "Rapport", summary.Title)
	assert.Equal(t, "fin", summary.Footer)

	gens := cfg.Regenerators()
	require.Len(t, gens, 1)
	cmd, ok := gens[0].(*regen.Command)
	require.True(t, ok)
	assert.Equal(t, "word", cmd.Name())
	assert.Equal(t, []string{"gen.js"}, cmd.Args)

	assert.Equal(t, "1 rules, 2 flags -> /srv/corpus (suffix _MisAJour_Fev2026)", cfg.String())
}
