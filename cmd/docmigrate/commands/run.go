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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/docmigrate/cmd/docmigrate/opts"
	"github.com/walteh/docmigrate/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	var (
		noRegen          bool
		noUpdateExisting bool
		workers          int
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Regenerate fresh documents and migrate the corpus",
		Long: `Run propagates the configured policy change across the corpus.
It will:
1. Run the generators and publish the fresh documents
2. Migrate every previously issued document
3. Write the audit report into the corpus root
4. Record the run in the ledger (not on a dry run)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := o.Config

			set, err := cfg.RuleSet()
			if err != nil {
				return errors.Errorf("building rule set: %w", err)
			}

			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}

			res, err := operation.Run(ctx, operation.Options{
				Root:            cfg.Target,
				Set:             set,
				Policy:          cfg.Policy(),
				Include:         cfg.Include,
				Ignore:          cfg.Ignore,
				Generated:       cfg.Generated.Documents,
				GeneratedSource: cfg.Generated.Source,
				Regenerators:    cfg.Regenerators(),
				SkipRegenerate:  noRegen,
				SkipMigrate:     noUpdateExisting,
				Workers:         workers,
				DryRun:          dryRun,
				Backup:          cfg.Backup,
				Summary:         cfg.ReportSummary(),
				ReportPrefix:    cfg.Report.Prefix,
			})
			if err != nil {
				return errors.Errorf("running migration: %w", err)
			}

			return o.Feedback.LogRunSummary(res)
		},
	}

	cmd.Flags().BoolVar(&noRegen, "no-regen", false, "use the fresh documents already in place")
	cmd.Flags().BoolVar(&noUpdateExisting, "no-update-existing", false, "skip migrating previously issued documents")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "documents families migrated concurrently (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "migrate in memory and write only the report")

	return cmd
}
