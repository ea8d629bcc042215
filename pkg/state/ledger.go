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

// Package state keeps the ledger of migration runs so a run can be checked and
// reverted.
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// FileName is the ledger's name inside the corpus root
const FileName = ".docmigrate.json"

// ErrNoRuns is returned when the ledger has nothing to check or revert.
var ErrNoRuns = errors.Base("ledger has no runs")

// 📒 Ledger is the top-level record of every run against a corpus root
type Ledger struct {
	LastUpdated time.Time `json:"last_updated"`
	Runs        []Run     `json:"runs"`

	path string
}

// 🏃 Run records one migration run
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Tag       string    `json:"tag,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Report    string    `json:"report,omitempty"`
	Entries   []Entry   `json:"entries"`
}

// 📄 Entry records what a run did to one document
type Entry struct {
	Source     string   `json:"source"`
	Output     string   `json:"output,omitempty"`
	InPlace    bool     `json:"in_place,omitempty"`
	Replaced   bool     `json:"replaced,omitempty"` // Output existed before the save
	Status     string   `json:"status"`
	Labels     []string `json:"labels,omitempty"`
	Flags      []string `json:"flags,omitempty"`
	SourceHash string   `json:"source_hash,omitempty"`
	OutputHash string   `json:"output_hash,omitempty"`
	Backup     string   `json:"backup,omitempty"` // Copy of the file Output replaced
	Error      string   `json:"error,omitempty"`
}

// NewRun starts a run with a fresh id.
func NewRun(tag string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Tag:       tag,
	}
}

// 🏭 Load reads the ledger of root. A missing ledger is an empty one.
func Load(ctx context.Context, root string) (*Ledger, error) {
	path := filepath.Join(root, FileName)
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading ledger")

	l := &Ledger{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading ledger: %w", err)
	}

	if err := json.Unmarshal(data, l); err != nil {
		return nil, errors.Errorf("parsing ledger file: %w", err)
	}
	return l, nil
}

// Path returns where the ledger is stored.
func (l *Ledger) Path() string { return l.path }

// 💾 Save writes the ledger through a temp file and rename
func (l *Ledger) Save(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Str("path", l.path).Int("runs", len(l.Runs)).Msg("saving ledger")

	data, err := json.MarshalIndent(l, "", "\t")
	if err != nil {
		return errors.Errorf("marshaling ledger: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(l.path, data); err != nil {
		return errors.Errorf("writing ledger: %w", err)
	}
	return nil
}

// Append records run as the latest run.
func (l *Ledger) Append(run Run) {
	l.Runs = append(l.Runs, run)
	if run.StartedAt.After(l.LastUpdated) {
		l.LastUpdated = run.StartedAt
	}
}

// Last returns the latest run.
func (l *Ledger) Last() (*Run, bool) {
	if len(l.Runs) == 0 {
		return nil, false
	}
	return &l.Runs[len(l.Runs)-1], true
}

// 🔎 Drift describes a recorded output that no longer matches the ledger
type Drift struct {
	Path    string
	Want    string
	Got     string // Empty when the file is missing
	Missing bool
}

// 🔍 Check recomputes the hashes of every output written by the latest run
func (l *Ledger) Check(ctx context.Context) ([]Drift, error) {
	run, ok := l.Last()
	if !ok {
		return nil, ErrNoRuns
	}

	var drifts []Drift
	for _, e := range run.Entries {
		if e.Output == "" || e.OutputHash == "" {
			continue
		}
		got, err := Hash(e.Output)
		if errors.Is(err, os.ErrNotExist) {
			drifts = append(drifts, Drift{Path: e.Output, Want: e.OutputHash, Missing: true})
			continue
		}
		if err != nil {
			return nil, errors.Errorf("hashing %s: %w", e.Output, err)
		}
		if got != e.OutputHash {
			drifts = append(drifts, Drift{Path: e.Output, Want: e.OutputHash, Got: got})
		}
	}

	zerolog.Ctx(ctx).Debug().Str("run", run.ID).Int("drifts", len(drifts)).Msg("checked ledger")
	return drifts, nil
}

// ⏪ Revert undoes the latest run and drops it from the ledger. Outputs that
// replaced an existing file are restored from their backup, or left in place
// when no backup was taken; outputs the run created are removed. The ledger
// is not saved.
func (l *Ledger) Revert(ctx context.Context) (*Run, error) {
	logger := zerolog.Ctx(ctx)

	run, ok := l.Last()
	if !ok {
		return nil, ErrNoRuns
	}
	reverted := *run

	for i := len(run.Entries) - 1; i >= 0; i-- {
		e := run.Entries[i]
		if e.Output == "" || run.DryRun {
			continue
		}

		switch {
		case e.Backup != "":
			if err := Restore(ctx, e.Output, e.Backup); err != nil {
				return nil, errors.Errorf("restoring %s: %w", e.Output, err)
			}
			logger.Info().Str("path", e.Output).Msg("restored from backup")
		case e.InPlace:
			logger.Warn().Str("path", e.Output).Msg("no backup recorded, leaving in-place update")
		case e.Replaced:
			logger.Warn().Str("path", e.Output).Msg("no backup recorded, leaving output that existed before the run")
		default:
			if err := os.Remove(e.Output); err != nil && !os.IsNotExist(err) {
				return nil, errors.Errorf("removing %s: %w", e.Output, err)
			}
			logger.Info().Str("path", e.Output).Msg("removed migrated copy")
		}
	}

	l.Runs = l.Runs[:len(l.Runs)-1]
	return &reverted, nil
}
