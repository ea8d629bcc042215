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

package migrate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/docmigrate/pkg/document"
	"github.com/walteh/docmigrate/pkg/document/docxtest"
	"github.com/walteh/docmigrate/pkg/version"
	"gitlab.com/tozd/go/errors"
)

func fileOptions() FileOptions {
	return FileOptions{
		Policy: version.Policy{
			Suffix:            "_MisAJour_Fev2026",
			VersionedSuffixes: []string{"_v2"},
			Tags:              []string{"Fev2026"},
		},
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestMigrateFile_WritesVersionedCopy(t *testing.T) {
	dir := t.TempDir()
	path := docxtest.Write(t, dir, "Contrat.docx", docxtest.Para("Acompte : 10%"))
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

	require.NoError(t, out.Err)
	assert.Equal(t, StatusMigrated, out.Status)
	assert.Equal(t, "Contrat.docx", out.Filename)
	assert.Equal(t, filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"), out.OutputPath)
	assert.False(t, out.InPlace)
	assert.Equal(t, []string{"Contrat.docx", "Contrat_MisAJour_Fev2026.docx"}, listDir(t, dir))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after, "the original is never overwritten")

	migrated, err := document.Load(out.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "Frais de dossier : 10 000 FCFA", migrated.Paragraphs[0].Text())
}

func TestMigrateFile_VersionedSavedInPlace(t *testing.T) {
	dir := t.TempDir()
	path := docxtest.Write(t, dir, "CGV_v2.docx", docxtest.Para("paiement mensuel"))

	var backedUp string
	opts := fileOptions()
	opts.BeforeSave = func(_ context.Context, output string) error {
		backedUp = output
		return nil
	}

	out := MigrateFile(testContext(t), path, terrasocial(), opts)

	assert.Equal(t, StatusMigrated, out.Status)
	assert.True(t, out.InPlace)
	assert.Equal(t, path, out.OutputPath)
	assert.Equal(t, path, backedUp)
	assert.Equal(t, []string{"CGV_v2.docx"}, listDir(t, dir))
}

func TestMigrateFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := docxtest.Write(t, dir, "Contrat.docx",
		docxtest.Para("Acompte : 10%"),
		docxtest.Para("paiement mensuel recommandé"),
	)

	first := MigrateFile(testContext(t), path, terrasocial(), fileOptions())
	require.Equal(t, StatusMigrated, first.Status)
	firstBytes, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)

	second := MigrateFile(testContext(t), first.OutputPath, terrasocial(), fileOptions())
	assert.Equal(t, StatusUnchanged, second.Status)
	assert.Empty(t, second.AppliedLabels)
	assert.Empty(t, second.OutputPath)

	rerun := MigrateFile(testContext(t), path, terrasocial(), fileOptions())
	assert.Equal(t, first.AppliedLabels, rerun.AppliedLabels)
	assert.Equal(t, first.OutputPath, rerun.OutputPath, "latest migration overwrites the same copy")

	rerunBytes, err := os.ReadFile(rerun.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, rerunBytes)
	assert.Equal(t, []string{"Contrat.docx", "Contrat_MisAJour_Fev2026.docx"}, listDir(t, dir))
}

func TestMigrateFile_UnchangedAndFlaggedWriteNothing(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus Status
		wantFlags  []string
	}{
		{name: "unchanged", body: docxtest.Para("Prix du lot : 500 000 FCFA"), wantStatus: StatusUnchanged},
		{name: "flagged", body: docxtest.Para("Remise de 10% au parrain"), wantStatus: StatusFlagged, wantFlags: []string{"10%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := docxtest.Write(t, dir, "Offre.docx", tt.body)
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantFlags, out.FlaggedPatterns)
			assert.Empty(t, out.OutputPath)
			assert.Equal(t, []string{"Offre.docx"}, listDir(t, dir))

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestMigrateFile_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := docxtest.Write(t, dir, "Contrat.docx", docxtest.Para("Acompte : 10%"))

	opts := fileOptions()
	opts.DryRun = true
	out := MigrateFile(testContext(t), path, terrasocial(), opts)

	assert.Equal(t, StatusMigrated, out.Status)
	assert.Equal(t, filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"), out.OutputPath)
	assert.Equal(t, []string{"Contrat.docx"}, listDir(t, dir))
}

func TestMigrateFile_Failures(t *testing.T) {
	t.Run("corrupt_document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Corrompu.docx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

		out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

		assert.Equal(t, StatusFailed, out.Status)
		var loadErr *LoadError
		require.True(t, errors.As(out.Err, &loadErr))
		assert.Equal(t, path, loadErr.Path)
		assert.Equal(t, "Corrompu.docx", out.Filename)
	})

	t.Run("mismatched_nesting", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "Imbrique.docx")
		data := docxtest.Build(t, docxtest.Document(`<w:p><w:r><w:t>Acompte : 10%</w:p></w:t></w:r>`))
		require.NoError(t, os.WriteFile(path, data, 0o644))

		out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

		assert.Equal(t, StatusFailed, out.Status)
		var loadErr *LoadError
		require.True(t, errors.As(out.Err, &loadErr))
		assert.Equal(t, []string{"Imbrique.docx"}, listDir(t, dir))
	})

	t.Run("decoder_panic", func(t *testing.T) {
		document.Register(panickingFormat{})
		path := filepath.Join(t.TempDir(), "Piege.boom")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

		assert.Equal(t, StatusFailed, out.Status)
		var loadErr *LoadError
		require.True(t, errors.As(out.Err, &loadErr))
		assert.Contains(t, out.Err.Error(), "decoder panic")
	})

	t.Run("missing_document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Absent.docx")
		out := MigrateFile(testContext(t), path, terrasocial(), fileOptions())

		assert.Equal(t, StatusFailed, out.Status)
		assert.True(t, errors.Is(out.Err, os.ErrNotExist))
	})

	t.Run("backup_refused", func(t *testing.T) {
		dir := t.TempDir()
		path := docxtest.Write(t, dir, "Contrat.docx", docxtest.Para("Acompte : 10%"))

		opts := fileOptions()
		opts.BeforeSave = func(context.Context, string) error { return assert.AnError }
		out := MigrateFile(testContext(t), path, terrasocial(), opts)

		assert.Equal(t, StatusFailed, out.Status)
		var saveErr *SaveError
		require.True(t, errors.As(out.Err, &saveErr))
		assert.True(t, errors.Is(out.Err, assert.AnError))
		assert.Empty(t, out.AppliedLabels)
		assert.Equal(t, []string{"Contrat.docx"}, listDir(t, dir))
	})
}

type panickingFormat struct{}

func (panickingFormat) CanLoad(filename string) bool { return filepath.Ext(filename) == ".boom" }

func (panickingFormat) Decode([]byte) (*document.Document, error) {
	panic("index out of range")
}
