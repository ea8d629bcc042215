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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/docmigrate/pkg/document/docxtest"
	"github.com/walteh/docmigrate/pkg/state"
)

const testConfig = `
target: corpus
backup: true
rules:
  - { pattern: "Acompte : 10%", replacement: "Frais de dossier : 10 000 FCFA", label: "Ligne acompte" }
  - { pattern: "acompte", replacement: "frais de dossier", label: "Terme acompte" }
  - { pattern: "Acompte obligatoire", replacement: "Frais d'ouverture de dossier", label: "Acompte obligatoire" }
flags: ["10%"]
versioning:
  suffix: _MisAJour_Fev2026
  versioned_suffixes: [_v2]
  tags: [Fev2026]
report:
  prefix: RAPPORT_TEST
`

func setup(t *testing.T) (configPath, corpus string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, ".docmigrate.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))

	corpus = filepath.Join(dir, "corpus")
	require.NoError(t, os.MkdirAll(corpus, 0o755))
	docxtest.Write(t, corpus, "Contrat.docx", docxtest.Para("Acompte : 10%"))
	docxtest.Write(t, corpus, "Fiche.docx", docxtest.Para("Remise de 10% possible"))
	return configPath, corpus
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd(out, &bytes.Buffer{})
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	configPath, corpus := setup(t)

	out, err := execute(t, "run", "--config", configPath, "--no-regen")
	require.NoError(t, err)
	assert.Contains(t, out, "Contrat.docx")
	assert.Contains(t, out, "RAPPORT_TEST_")

	assert.FileExists(t, filepath.Join(corpus, "Contrat_MisAJour_Fev2026.docx"))
	assert.FileExists(t, filepath.Join(corpus, state.FileName))
	reports, err := filepath.Glob(filepath.Join(corpus, "RAPPORT_TEST_*.txt"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	out, err = execute(t, "status", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 run(s) recorded")

	out, err = execute(t, "revert", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "reverted run")
	assert.NoFileExists(t, filepath.Join(corpus, "Contrat_MisAJour_Fev2026.docx"))
}

func TestRunCommand_DryRunTargetOverride(t *testing.T) {
	configPath, _ := setup(t)
	other := t.TempDir()
	docxtest.Write(t, other, "Contrat.docx", docxtest.Para("Acompte : 10%"))

	_, err := execute(t, "run", "--config", configPath, "--target", other, "--no-regen", "--dry-run", "--workers", "2")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(other, "Contrat_MisAJour_Fev2026.docx"))
	assert.NoFileExists(t, filepath.Join(other, state.FileName))
	reports, err := filepath.Glob(filepath.Join(other, "RAPPORT_TEST_*.txt"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestRulesCommand(t *testing.T) {
	configPath, _ := setup(t)

	out, err := execute(t, "rules", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Ligne acompte")
	assert.Contains(t, out, "Frais d'ouverture de dossier")
	assert.Contains(t, out, `flag "10%"`)
	assert.Contains(t, out, "rule 2 (Terme acompte) may rewrite text rule 3 (Acompte obligatoire) targets")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".docmigrate.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("rules: []\n"), 0o644))

	_, err := execute(t, "status", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is required")

	_, err = execute(t, "status", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
