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

package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/corpus"
	"github.com/walteh/docmigrate/pkg/log"
	"github.com/walteh/docmigrate/pkg/migrate"
	"github.com/walteh/docmigrate/pkg/regen"
	"github.com/walteh/docmigrate/pkg/report"
	"github.com/walteh/docmigrate/pkg/rules"
	"github.com/walteh/docmigrate/pkg/state"
	"github.com/walteh/docmigrate/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// DefaultReportPrefix names the report when Options.ReportPrefix is empty
const DefaultReportPrefix = "RAPPORT_MiseAJour"

// 🔧 Options contains everything one run needs
type Options struct {
	Root    string         // Corpus root, created when missing
	Set     *rules.Set     // Substitution and flag rules
	Policy  version.Policy // Output naming
	Include []string       // Discovery include globs, default **/*.docx
	Ignore  []string       // Discovery ignore globs

	Generated       []string            // Names of fresh documents, never migrated
	GeneratedSource string              // Where the generators write them, empty when already in Root
	Regenerators    []regen.Regenerator // Run before discovery unless SkipRegenerate
	SkipRegenerate  bool                // Use the fresh documents already present
	SkipMigrate     bool                // Only regenerate and report
	Workers         int                 // Concurrent families, default 1
	DryRun          bool                // Migrate in memory, write only the report
	Backup          bool                // Keep a .bak of every file a save replaces
	Summary         report.Summary      // Fixed report text
	ReportPrefix    string              // Report file name prefix
	Now             func() time.Time    // Clock, default time.Now
}

// 📊 Result is what a run did
type Result struct {
	RunID      string
	Root       string
	Outcomes   []migrate.Outcome // Discovery order
	Generated  []string          // Fresh documents present in Root
	Warnings   []string          // Non-fatal problems
	Totals     report.Totals
	ReportPath string
	Report     string
}

// 🧱 EnvironmentError means the corpus root is unusable; nothing ran
type EnvironmentError struct {
	Root string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("corpus root %s is not usable: %v", e.Root, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// 🏃 Run executes one migration run. Only an unusable root or invalid options
// return an error before any work; per-document failures end up in the
// outcomes and generator failures in the warnings.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	if opts.Set == nil {
		return nil, errors.Errorf("rule set is required")
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, errors.Errorf("validating versioning policy: %w", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReportPrefix == "" {
		opts.ReportPrefix = DefaultReportPrefix
	}

	root, err := ensureRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root

	now := opts.Now()
	run := state.NewRun(opts.Policy.Suffix, now)
	run.DryRun = opts.DryRun
	res := &Result{RunID: run.ID, Root: root}

	console.StartRun(ctx, log.RunOperation{Root: root, Tag: opts.Policy.Suffix, DryRun: opts.DryRun})
	defer console.EndRun(ctx)

	// 1. fresh documents
	if opts.SkipRegenerate {
		res.Generated, _ = regen.Publish(ctx, "", root, opts.Generated)
	} else {
		out, warnings := regen.RunAll(ctx, opts.Regenerators)
		for _, line := range out {
			console.Success(line)
		}
		res.Warnings = append(res.Warnings, warnings...)

		present, warnings := regen.Publish(ctx, opts.GeneratedSource, root, opts.Generated)
		res.Generated = present
		res.Warnings = append(res.Warnings, warnings...)
	}
	for _, w := range res.Warnings {
		console.Warning(w)
	}

	// 2. migration
	var (
		backups, sourceHashes []string
		replaced              []bool
	)
	if !opts.SkipMigrate {
		paths := corpus.Collect(corpus.Discover(ctx, root, corpus.Options{
			Include: opts.Include,
			Ignore:  opts.Ignore,
			Exclude: opts.Generated,
		}))
		logger.Debug().Int("documents", len(paths)).Msg("discovered corpus")

		b, err := migrateAll(ctx, paths, opts)
		if err != nil {
			return nil, errors.Errorf("migrating corpus: %w", err)
		}
		res.Outcomes, backups, replaced, sourceHashes = b.outcomes, b.backups, b.replaced, b.sourceHashes
	}
	res.Totals = report.Count(res.Outcomes)

	// 3. report, always
	res.Report = report.Render(report.Report{
		RunID:     run.ID,
		Time:      now,
		Root:      root,
		DryRun:    opts.DryRun,
		Generated: res.Generated,
		Outcomes:  res.Outcomes,
		Warnings:  res.Warnings,
		Summary:   opts.Summary,
	})
	res.ReportPath, err = report.Write(root, report.FileName(opts.ReportPrefix, now), res.Report)
	if err != nil {
		return res, errors.Errorf("writing report: %w", err)
	}
	console.Successf("report written: %s", filepath.Base(res.ReportPath))

	// 4. ledger, only for runs that wrote something
	if opts.DryRun {
		return res, nil
	}
	run.Report = res.ReportPath
	run.Entries = entries(res.Outcomes, backups, replaced, sourceHashes)
	if err := appendRun(ctx, root, run); err != nil {
		logger.Warn().Err(err).Msg("recording run in ledger")
		res.Warnings = append(res.Warnings, fmt.Sprintf("run not recorded in ledger: %v", err))
		console.Warning(res.Warnings[len(res.Warnings)-1])
	}

	return res, nil
}

func ensureRoot(root string) (string, error) {
	if root == "" {
		return "", &EnvironmentError{Root: root, Err: errors.New("no root given")}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &EnvironmentError{Root: root, Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", &EnvironmentError{Root: abs, Err: err}
	}
	if _, err := os.ReadDir(abs); err != nil {
		return "", &EnvironmentError{Root: abs, Err: err}
	}
	return abs, nil
}

func entries(outcomes []migrate.Outcome, backups []string, replaced []bool, sourceHashes []string) []state.Entry {
	out := make([]state.Entry, 0, len(outcomes))
	for i, o := range outcomes {
		e := state.Entry{
			Source:     o.Path,
			Output:     o.OutputPath,
			InPlace:    o.InPlace,
			Replaced:   replaced[i],
			Status:     o.Status.String(),
			Labels:     o.AppliedLabels,
			Flags:      o.FlaggedPatterns,
			SourceHash: sourceHashes[i],
			Backup:     backups[i],
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		if o.Status == migrate.StatusMigrated {
			if h, err := state.Hash(o.OutputPath); err == nil {
				e.OutputHash = h
			}
		}
		out = append(out, e)
	}
	return out
}

func appendRun(ctx context.Context, root string, run state.Run) error {
	ledger, err := state.Load(ctx, root)
	if err != nil {
		return errors.Errorf("loading ledger: %w", err)
	}
	ledger.Append(run)
	if err := ledger.Save(ctx); err != nil {
		return errors.Errorf("saving ledger: %w", err)
	}
	return nil
}
