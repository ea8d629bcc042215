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
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/document"
	"github.com/walteh/docmigrate/pkg/rules"
	"github.com/walteh/docmigrate/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// 🔧 FileOptions controls how a migrated document is written back
type FileOptions struct {
	// Policy picks the output path of a migrated document
	Policy version.Policy
	// DryRun migrates in memory and decides the output path without writing
	DryRun bool
	// BeforeSave runs just before the document is written to output, e.g. to
	// back up a file about to be overwritten. An error fails the document.
	BeforeSave func(ctx context.Context, output string) error
}

// 📂 MigrateFile loads, migrates and, when a rule fired, saves one document.
// Load and save failures are returned as a Failed outcome, never as a panic
// or an error, so one bad document cannot stop a run.
func MigrateFile(ctx context.Context, path string, set *rules.Set, opts FileOptions) Outcome {
	filename := filepath.Base(path)
	logger := zerolog.Ctx(ctx).With().Str("document", filename).Logger()
	ctx = logger.WithContext(ctx)

	doc, err := load(path)
	if err != nil {
		logger.Debug().Err(err).Msg("document could not be loaded")
		return failed(path, filename, &LoadError{Path: path, Err: err})
	}

	out := Migrate(ctx, doc, set)
	out.Path = path
	out.Filename = filename

	if out.Status != StatusMigrated {
		return out
	}

	output := opts.Policy.Decide(path, nil)
	out.OutputPath = output
	out.InPlace = output == path

	if opts.DryRun {
		logger.Debug().Str("output", output).Msg("dry run, not saving")
		return out
	}

	if opts.BeforeSave != nil {
		if err := opts.BeforeSave(ctx, output); err != nil {
			return failed(path, filename, &SaveError{Path: output, Err: err})
		}
	}

	if err := document.SaveFile(doc, output); err != nil {
		logger.Debug().Err(err).Str("output", output).Msg("document could not be saved")
		return failed(path, filename, &SaveError{Path: output, Err: err})
	}

	logger.Debug().Str("output", output).Bool("in_place", out.InPlace).Msg("document saved")
	return out
}

// load turns a decoder panic into an error.
func load(path string) (doc *document.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, errors.Errorf("decoder panic: %v", r)
		}
	}()
	return document.Load(path)
}
