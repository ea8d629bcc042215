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

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// 📋 StatusResult describes the latest recorded run and its drift
type StatusResult struct {
	Run    *state.Run    // Nil when nothing was ever recorded
	Runs   int           // Recorded runs
	Drifts []state.Drift // Outputs changed or removed since the run
}

// Consistent reports whether every output of the latest run is untouched.
func (s *StatusResult) Consistent() bool {
	return len(s.Drifts) == 0
}

// 🔍 Status checks the outputs of the latest run recorded under root
func Status(ctx context.Context, root string) (*StatusResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("root", root).Msg("checking status")

	ledger, err := state.Load(ctx, root)
	if err != nil {
		return nil, errors.Errorf("loading ledger: %w", err)
	}

	res := &StatusResult{Runs: len(ledger.Runs)}
	run, ok := ledger.Last()
	if !ok {
		logger.Debug().Msg("no run recorded")
		return res, nil
	}
	res.Run = run

	res.Drifts, err = ledger.Check(ctx)
	if err != nil {
		return nil, errors.Errorf("checking ledger: %w", err)
	}

	logger.Debug().Str("run", run.ID).Int("drifts", len(res.Drifts)).Msg("status checked")
	return res, nil
}

// ⏪ Revert undoes the latest run recorded under root and forgets it
func Revert(ctx context.Context, root string) (*state.Run, error) {
	ledger, err := state.Load(ctx, root)
	if err != nil {
		return nil, errors.Errorf("loading ledger: %w", err)
	}

	run, err := ledger.Revert(ctx)
	if err != nil {
		return nil, errors.Errorf("reverting run: %w", err)
	}

	if err := ledger.Save(ctx); err != nil {
		return nil, errors.Errorf("saving ledger: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("run", run.ID).Int("documents", len(run.Entries)).Msg("run reverted")
	return run, nil
}
