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

// Package version decides where a migrated document is written.
package version

import (
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Policy names migrated copies and recognizes already versioned files
type Policy struct {
	Suffix            string   // Appended to the stem of migrated copies, e.g. "_MisAJour_Fev2026"
	VersionedSuffixes []string // Stem suffixes marking a versioned artifact, e.g. "_v2"
	Tags              []string // Stem substrings marking a versioned artifact, e.g. "Fev2026"
}

// 🔍 Validate checks the policy can produce distinct output names
func (p Policy) Validate() error {
	if p.Suffix == "" {
		return errors.Errorf("versioning suffix is required")
	}
	for i, s := range p.VersionedSuffixes {
		if s == "" {
			return errors.Errorf("versioned suffix %d is empty", i)
		}
	}
	for i, t := range p.Tags {
		if t == "" {
			return errors.Errorf("tag %d is empty", i)
		}
	}
	return nil
}

// 🔍 IsVersioned reports whether the file name already marks a dated or
// migrated artifact. Files produced by OutputPath always qualify.
func (p Policy) IsVersioned(name string) bool {
	stem := stem(filepath.Base(name))
	if p.Suffix != "" && strings.HasSuffix(stem, p.Suffix) {
		return true
	}
	for _, s := range p.VersionedSuffixes {
		if strings.HasSuffix(stem, s) {
			return true
		}
	}
	for _, t := range p.Tags {
		if strings.Contains(stem, t) {
			return true
		}
	}
	return false
}

// 📝 OutputPath returns dir/<stem><Suffix><ext>
func (p Policy) OutputPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, stem(base)+p.Suffix+ext)
}

// 🎯 Decide returns path itself when versioned reports the file name as
// already versioned, and OutputPath otherwise. A nil predicate uses
// IsVersioned. An existing file at the returned path is overwritten by the
// caller: the latest migration wins.
func (p Policy) Decide(path string, versioned func(name string) bool) string {
	if versioned == nil {
		versioned = p.IsVersioned
	}
	if versioned(filepath.Base(path)) {
		return path
	}
	return p.OutputPath(path)
}

func stem(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}
