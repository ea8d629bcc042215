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

package regen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📦 Publish copies the named generated documents from src into dst and
// returns the names now present in dst. Missing documents become warnings.
// When src and dst are the same directory nothing is copied.
func Publish(ctx context.Context, src, dst string, names []string) (present []string, warnings []string) {
	logger := zerolog.Ctx(ctx)

	same := sameDir(src, dst)
	for _, name := range names {
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)

		if src == "" || same {
			if _, err := os.Stat(to); err != nil {
				warnings = append(warnings, fmt.Sprintf("generated document %s not found", name))
				continue
			}
			present = append(present, name)
			continue
		}

		if err := copyPreservingMode(from, to); err != nil {
			logger.Warn().Err(err).Str("document", name).Msg("publishing generated document")
			warnings = append(warnings, fmt.Sprintf("generated document %s not copied: %v", name, err))
			continue
		}
		logger.Info().Str("document", name).Str("target", dst).Msg("published generated document")
		present = append(present, name)
	}
	return present, warnings
}

func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyPreservingMode(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return errors.Errorf("checking source: %w", err)
	}
	content, err := os.ReadFile(from)
	if err != nil {
		return errors.Errorf("reading source: %w", err)
	}
	if err := os.WriteFile(to, content, info.Mode().Perm()); err != nil {
		return errors.Errorf("writing copy: %w", err)
	}
	if err := os.Chtimes(to, info.ModTime(), info.ModTime()); err != nil {
		return errors.Errorf("preserving modification time: %w", err)
	}
	return nil
}
