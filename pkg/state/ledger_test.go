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

package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func hashOf(t *testing.T, path string) string {
	t.Helper()
	h, err := Hash(path)
	require.NoError(t, err)
	return h
}

func TestLoadAndSave(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("load_nonexistent_creates_empty", func(t *testing.T) {
		dir := t.TempDir()
		l, err := Load(ctx, dir)
		require.NoError(t, err)
		assert.Empty(t, l.Runs)
		assert.Equal(t, filepath.Join(dir, FileName), l.Path())

		_, ok := l.Last()
		assert.False(t, ok)
	})

	t.Run("save_and_load", func(t *testing.T) {
		dir := t.TempDir()
		l, err := Load(ctx, dir)
		require.NoError(t, err)

		started := time.Date(2026, time.February, 3, 14, 5, 0, 0, time.UTC)
		run := NewRun("Fev2026", started)
		run.Entries = []Entry{{
			Source: filepath.Join(dir, "Contrat.docx"),
			Output: filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"),
			Status: "migrated",
			Labels: []string{"Ligne acompte"},
		}}
		l.Append(run)
		require.NoError(t, l.Save(ctx))

		l2, err := Load(ctx, dir)
		require.NoError(t, err)
		require.Len(t, l2.Runs, 1)
		assert.Equal(t, run.ID, l2.Runs[0].ID)
		assert.True(t, started.Equal(l2.LastUpdated))
		assert.Equal(t, run.Entries, l2.Runs[0].Entries)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp file left behind")
	})

	t.Run("invalid_json_returns_error", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "{invalid json}")

		_, err := Load(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing ledger file")
	})
}

func TestNewRun(t *testing.T) {
	a := NewRun("Fev2026", time.Now())
	b := NewRun("Fev2026", time.Now())

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Fev2026", a.Tag)
}

func TestCheck(t *testing.T) {
	ctx := setupTestLogger(t)
	dir := t.TempDir()

	kept := writeFile(t, filepath.Join(dir, "a_MisAJour.docx"), "a")
	edited := writeFile(t, filepath.Join(dir, "b_MisAJour.docx"), "b")
	deleted := writeFile(t, filepath.Join(dir, "c_MisAJour.docx"), "c")

	l, err := Load(ctx, dir)
	require.NoError(t, err)
	run := NewRun("", time.Now())
	for _, p := range []string{kept, edited, deleted} {
		run.Entries = append(run.Entries, Entry{Output: p, OutputHash: hashOf(t, p), Status: "migrated"})
	}
	run.Entries = append(run.Entries, Entry{Source: filepath.Join(dir, "d.docx"), Status: "unchanged"})
	l.Append(run)

	writeFile(t, edited, "edited by hand")
	require.NoError(t, os.Remove(deleted))

	drifts, err := l.Check(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 2)

	assert.Equal(t, edited, drifts[0].Path)
	assert.False(t, drifts[0].Missing)
	assert.Equal(t, hashOf(t, edited), drifts[0].Got)

	assert.Equal(t, deleted, drifts[1].Path)
	assert.True(t, drifts[1].Missing)
}

func TestCheck_NoRuns(t *testing.T) {
	l, err := Load(setupTestLogger(t), t.TempDir())
	require.NoError(t, err)

	_, err = l.Check(setupTestLogger(t))
	assert.True(t, errors.Is(err, ErrNoRuns))
}

func TestRevert(t *testing.T) {
	ctx := setupTestLogger(t)
	dir := t.TempDir()

	source := writeFile(t, filepath.Join(dir, "Contrat.docx"), "original")
	copyPath := writeFile(t, filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"), "migrated")

	inPlace := writeFile(t, filepath.Join(dir, "CGV_v2.docx"), "before")
	backup, err := Backup(ctx, inPlace)
	require.NoError(t, err)
	assert.Equal(t, inPlace+BackupSuffix, backup)
	writeFile(t, inPlace, "after")

	l, err := Load(ctx, dir)
	require.NoError(t, err)

	first := NewRun("", time.Now())
	l.Append(first)

	second := NewRun("", time.Now())
	second.Entries = []Entry{
		{Source: source, Output: copyPath, Status: "migrated"},
		{Source: inPlace, Output: inPlace, InPlace: true, Backup: backup, Status: "migrated"},
		{Source: filepath.Join(dir, "Offre.docx"), Status: "flagged"},
	}
	l.Append(second)

	reverted, err := l.Revert(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, reverted.ID)

	require.Len(t, l.Runs, 1)
	assert.Equal(t, first.ID, l.Runs[0].ID)

	assert.NoFileExists(t, copyPath)
	assert.Equal(t, "original", readFile(t, source))
	assert.Equal(t, "before", readFile(t, inPlace))
	assert.NoFileExists(t, backup)
}

func TestRevert_KeepsReplacedOutputWithoutBackup(t *testing.T) {
	ctx := setupTestLogger(t)
	dir := t.TempDir()
	source := writeFile(t, filepath.Join(dir, "Contrat.docx"), "original")
	copyPath := writeFile(t, filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"), "migrated twice")

	l, err := Load(ctx, dir)
	require.NoError(t, err)
	run := NewRun("", time.Now())
	run.Entries = []Entry{{Source: source, Output: copyPath, Replaced: true, Status: "migrated"}}
	l.Append(run)

	_, err = l.Revert(ctx)
	require.NoError(t, err)
	assert.Equal(t, "migrated twice", readFile(t, copyPath))
	assert.Empty(t, l.Runs)
}

func TestRevert_DryRunTouchesNothing(t *testing.T) {
	ctx := setupTestLogger(t)
	dir := t.TempDir()
	existing := writeFile(t, filepath.Join(dir, "Contrat_MisAJour_Fev2026.docx"), "from an earlier run")

	l, err := Load(ctx, dir)
	require.NoError(t, err)
	run := NewRun("", time.Now())
	run.DryRun = true
	run.Entries = []Entry{{Output: existing, Status: "migrated"}}
	l.Append(run)

	_, err = l.Revert(ctx)
	require.NoError(t, err)
	assert.FileExists(t, existing)
	assert.Empty(t, l.Runs)
}

func TestRevert_NoRuns(t *testing.T) {
	l, err := Load(setupTestLogger(t), t.TempDir())
	require.NoError(t, err)

	_, err = l.Revert(setupTestLogger(t))
	assert.True(t, errors.Is(err, ErrNoRuns))
}

func TestBackup(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("missing_file_is_not_backed_up", func(t *testing.T) {
		path, err := Backup(ctx, filepath.Join(t.TempDir(), "absent.docx"))
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("restore_without_backup_fails", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, filepath.Join(dir, "a.docx"), "a")
		err := Restore(ctx, path, path+BackupSuffix)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backup file does not exist")
	})
}

func TestHash(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "a.txt"), "abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hashOf(t, path))

	_, err := Hash(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
