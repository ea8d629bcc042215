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

// NewStatusCmd creates a new status command
func NewStatusCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the outputs of the latest run were changed",
		Long: `Status reads the ledger in the corpus root and checks the outputs
of the latest run against the hashes recorded when they were written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := operation.Status(cmd.Context(), o.Config.Target)
			if err != nil {
				return errors.Errorf("checking status: %w", err)
			}

			o.Feedback.LogStatus(st)
			return nil
		},
	}

	return cmd
}
