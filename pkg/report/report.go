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

// Package report renders the plain-text audit report of a migration run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/walteh/docmigrate/pkg/migrate"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Layout
const (
	ruleWidth    = 70
	sectionWidth = 40
	dateLayout   = "02/01/2006 15:04"
)

// 📋 Summary is the fixed description of the policy change
type Summary struct {
	Title      string   // First header line
	Changes    []string // What the policy change does
	Before     []string // Old model, one line per point
	After      []string // New model, one line per point
	References []string // Reference documents for the new model
	Footer     string   // Last line of the report
}

// 📄 Report is everything needed to render one run
type Report struct {
	RunID     string
	Time      time.Time
	Root      string
	DryRun    bool
	Generated []string          // Freshly generated documents, never migrated
	Outcomes  []migrate.Outcome // In discovery order
	Warnings  []string          // Non-fatal problems, e.g. regeneration failures
	Summary   Summary
}

// 🧮 Totals counts outcomes per status
type Totals struct {
	Migrated  int
	Flagged   int
	Unchanged int
	Failed    int
}

func (t Totals) Total() int {
	return t.Migrated + t.Flagged + t.Unchanged + t.Failed
}

// Count tallies outcomes by status.
func Count(outcomes []migrate.Outcome) Totals {
	var t Totals
	for _, o := range outcomes {
		switch o.Status {
		case migrate.StatusMigrated:
			t.Migrated++
		case migrate.StatusFlagged:
			t.Flagged++
		case migrate.StatusUnchanged:
			t.Unchanged++
		case migrate.StatusFailed:
			t.Failed++
		}
	}
	return t
}

// 📝 Render composes the report. The result depends only on r.
func Render(r Report) string {
	var b builder

	b.rule('=')
	b.line(r.Summary.Title)
	b.line("Date: " + r.Time.Format(dateLayout))
	if r.RunID != "" {
		b.line("Run: " + r.RunID)
	}
	if r.Root != "" {
		b.line("Root: " + r.Root)
	}
	if r.DryRun {
		b.line("Mode: dry run, no document was written")
	}
	b.rule('=')

	b.section("POLICY CHANGES")
	b.bullets("  • ", r.Summary.Changes, "  (none)")

	b.section("FRESH DOCUMENTS (never migrated)")
	b.bullets("  ✅ ", r.Generated, "  No fresh document.")

	b.section("DOCUMENTS")
	if len(r.Outcomes) == 0 {
		b.line("  No document found.")
	}
	for _, o := range r.Outcomes {
		writeOutcome(&b, r.Root, o)
	}

	t := Count(r.Outcomes)
	b.section("TOTALS")
	b.line(fmt.Sprintf("  migrated: %d  flagged: %d  unchanged: %d  failed: %d  total: %d",
		t.Migrated, t.Flagged, t.Unchanged, t.Failed, t.Total()))

	if len(r.Warnings) > 0 {
		b.section("WARNINGS")
		b.bullets("  ⚠️  ", r.Warnings, "")
	}

	b.section("POLICY SUMMARY")
	b.line("")
	b.line("  BEFORE:")
	b.bullets("    - ", r.Summary.Before, "    (none)")
	b.line("")
	b.line("  AFTER:")
	b.bullets("    - ", r.Summary.After, "    (none)")

	if len(r.Summary.References) > 0 {
		b.section("REFERENCE DOCUMENTS")
		b.bullets("  • ", r.Summary.References, "")
	}

	b.line("")
	b.rule('=')
	if r.Summary.Footer != "" {
		b.line(r.Summary.Footer)
		b.rule('=')
	}

	return b.String()
}

func writeOutcome(b *builder, root string, o migrate.Outcome) {
	name := relative(root, o.Path, o.Filename)

	switch o.Status {
	case migrate.StatusMigrated:
		target := relative(root, o.OutputPath, filepath.Base(o.OutputPath))
		if o.InPlace {
			b.line(fmt.Sprintf("  ✅ [MIGRATED] %s (updated in place)", name))
		} else {
			b.line(fmt.Sprintf("  ✅ [MIGRATED] %s → %s", name, target))
		}
	case migrate.StatusFlagged:
		b.line(fmt.Sprintf("  ⚠️  [FLAGGED] %s", name))
	case migrate.StatusUnchanged:
		b.line(fmt.Sprintf("  ℹ️  [UNCHANGED] %s", name))
	case migrate.StatusFailed:
		b.line(fmt.Sprintf("  ❌ [FAILED] %s", name))
	}

	for _, label := range o.AppliedLabels {
		b.line("      • " + label)
	}
	for _, p := range o.FlaggedPatterns {
		b.line(fmt.Sprintf("      ! term %q found (manual review advised)", p))
	}
	for _, c := range o.Changes {
		b.line(fmt.Sprintf("      ~ %s: %s", c.Location, InlineDiff(c.Before, c.After)))
	}
	if o.Err != nil {
		b.line("      error: " + o.Err.Error())
	}
}

func relative(root, path, fallback string) string {
	if root == "" || path == "" {
		return fallback
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fallback
	}
	return filepath.ToSlash(rel)
}

// 📛 FileName returns <prefix>_<YYYYMMDD>.txt
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.txt", prefix, t.Format("20060102"))
}

// 💾 Write stores text at dir/name through a temp file and rename
func Write(dir, name, text string) (string, error) {
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", errors.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("closing report: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("setting report permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("renaming report: %w", err)
	}
	return path, nil
}

type builder struct {
	strings.Builder
}

func (b *builder) line(s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

func (b *builder) rule(c byte) {
	b.line(strings.Repeat(string(c), ruleWidth))
}

func (b *builder) section(title string) {
	b.line("")
	b.line(title)
	b.line(strings.Repeat("-", sectionWidth))
}

func (b *builder) bullets(prefix string, items []string, empty string) {
	if len(items) == 0 {
		if empty != "" {
			b.line(empty)
		}
		return
	}
	for _, it := range items {
		b.line(prefix + it)
	}
}
