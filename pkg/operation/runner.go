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
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/log"
	"github.com/walteh/docmigrate/pkg/migrate"
	"github.com/walteh/docmigrate/pkg/state"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📦 batch holds per-document results at their discovery index
type batch struct {
	outcomes     []migrate.Outcome
	backups      []string
	replaced     []bool // output existed before the save
	sourceHashes []string
}

// 👪 families groups discovery indexes by the output path they decide, in
// order of first appearance. Members keep discovery order.
func families(paths []string, opts Options) [][]int {
	index := make(map[string]int)
	var out [][]int
	for i, p := range paths {
		key := opts.Policy.Decide(p, nil)
		f, ok := index[key]
		if !ok {
			f = len(out)
			index[key] = f
			out = append(out, nil)
		}
		out[f] = append(out[f], i)
	}
	return out
}

// 🏃 migrateAll migrates every path on a pool of opts.Workers goroutines.
// A document failure never stops the others.
func migrateAll(ctx context.Context, paths []string, opts Options) (*batch, error) {
	b := &batch{
		outcomes:     make([]migrate.Outcome, len(paths)),
		backups:      make([]string, len(paths)),
		replaced:     make([]bool, len(paths)),
		sourceHashes: make([]string, len(paths)),
	}

	fams := families(paths, opts)
	zerolog.Ctx(ctx).Debug().Int("documents", len(paths)).Int("families", len(fams)).Int("workers", opts.Workers).Msg("migrating corpus")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, fam := range fams {
		g.Go(func() error {
			for _, i := range fam {
				migrateOne(gctx, b, i, paths[i], opts)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("waiting for workers: %w", err)
	}
	return b, nil
}

// migrateOne writes only index i of b.
func migrateOne(ctx context.Context, b *batch, i int, path string, opts Options) {
	if err := ctx.Err(); err != nil {
		b.outcomes[i] = migrate.Outcome{
			Path:     path,
			Filename: filepath.Base(path),
			Status:   migrate.StatusFailed,
			Err:      errors.Errorf("run cancelled: %w", err),
		}
		logOutcome(ctx, opts.Root, b.outcomes[i])
		return
	}

	if !opts.DryRun {
		if h, err := state.Hash(path); err == nil {
			b.sourceHashes[i] = h
		}
	}

	fileOpts := migrate.FileOptions{
		Policy: opts.Policy,
		DryRun: opts.DryRun,
		BeforeSave: func(ctx context.Context, output string) error {
			if _, err := os.Stat(output); err == nil {
				b.replaced[i] = true
			} else if !errors.Is(err, os.ErrNotExist) {
				return errors.Errorf("checking output: %w", err)
			}
			if !opts.Backup {
				return nil
			}
			backup, err := state.Backup(ctx, output)
			if err != nil {
				return err
			}
			b.backups[i] = backup
			return nil
		},
	}

	b.outcomes[i] = migrate.MigrateFile(ctx, path, opts.Set, fileOpts)
	logOutcome(ctx, opts.Root, b.outcomes[i])
}

func logOutcome(ctx context.Context, root string, o migrate.Outcome) {
	name := o.Filename
	if rel, err := filepath.Rel(root, o.Path); err == nil {
		name = filepath.ToSlash(rel)
	}
	log.FromContext(ctx).LogDocumentOperation(ctx, log.DocumentOperation{
		Path:    name,
		Status:  o.Status.String(),
		Output:  filepath.Base(o.OutputPath),
		InPlace: o.InPlace,
		Labels:  o.AppliedLabels,
		Flags:   o.FlaggedPatterns,
		Err:     o.Err,
	})
}
