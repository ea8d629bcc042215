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

// Package corpus enumerates the documents a run should consider.
package corpus

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// DefaultInclude matches every Word document below the root.
var DefaultInclude = []string{"**/*.docx"}

// DefaultIgnore skips Office lock files.
var DefaultIgnore = []string{"**/~$*"}

// 🔧 Options filters the walk
type Options struct {
	Include []string // doublestar globs on the slash-separated path relative to root
	Ignore  []string // doublestar globs, checked after Include
	Exclude []string // exact base names never yielded, e.g. freshly generated documents
}

// 🔍 Discover returns a lazy sequence of absolute document paths below root,
// in lexical walk order. Each range walks the tree again; nothing is cached.
// Unreadable directories are skipped with a warning.
func Discover(ctx context.Context, root string, opts Options) iter.Seq[string] {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	ignore := append(append([]string(nil), DefaultIgnore...), opts.Ignore...)
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[name] = struct{}{}
	}

	return func(yield func(string) bool) {
		logger := zerolog.Ctx(ctx)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			logger.Warn().Err(err).Str("root", root).Msg("resolving corpus root")
			return
		}

		seen := make(map[string]struct{})
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if err != nil {
				if d != nil && d.IsDir() && path != absRoot {
					logger.Warn().Err(err).Str("dir", path).Msg("skipping unreadable directory")
					return fs.SkipDir
				}
				logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if !matchAny(ctx, include, rel) || matchAny(ctx, ignore, rel) {
				return nil
			}
			if _, ok := exclude[d.Name()]; ok {
				logger.Debug().Str("path", rel).Msg("excluded freshly generated document")
				return nil
			}
			if _, ok := seen[path]; ok {
				return nil
			}
			seen[path] = struct{}{}

			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("root", absRoot).Msg("walking corpus")
		}
	}
}

// 📋 Collect drains a sequence into a slice
func Collect(seq iter.Seq[string]) []string {
	var out []string
	for p := range seq {
		out = append(out, p)
	}
	return out
}

func matchAny(ctx context.Context, patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
