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

// NewRevertCmd creates a new revert command
func NewRevertCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Undo the latest recorded run",
		Long: `Revert undoes the latest run recorded in the ledger.
Migrated copies are removed and documents updated in place are restored
from their .bak backup when one was taken. The run is then forgotten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := operation.Revert(cmd.Context(), o.Config.Target)
			if err != nil {
				return errors.Errorf("reverting: %w", err)
			}

			o.Feedback.LogValidation(true, "reverted run "+run.ID, nil)
			return nil
		},
	}

	return cmd
}
