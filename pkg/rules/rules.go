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

// Package rules holds the approved substitutions and the residual-language
// flags of a policy change.
package rules

import (
	"gitlab.com/tozd/go/errors"
)

var (
	ErrEmptyPattern = errors.Base("pattern is required")
	ErrEmptyLabel   = errors.Base("label is required")
)

// 🔄 Substitution is one approved rewrite of old policy text
type Substitution struct {
	Pattern     string // Text to find, case-insensitive
	Replacement string // Text written in place of each match, as authored
	Label       string // Stable name used in reports
}

// 🔄 Apply rewrites every occurrence of the pattern in text
func (s Substitution) Apply(text string) (string, int) {
	return Replace(text, s.Pattern, s.Replacement)
}

// 🪞 SelfReferential reports whether the pattern survives inside its own replacement
func (s Substitution) SelfReferential() bool {
	return Contains(s.Replacement, s.Pattern)
}

// 🚩 Flag marks text that may still carry the old policy
type Flag struct {
	Pattern string
}

// 📚 Set is an immutable, ordered rule table
type Set struct {
	substitutions []Substitution
	flags         []Flag
}

// 🏭 NewSet validates and copies the given rules. Substitution order is kept
// as given; flags are deduplicated on their exact pattern.
func NewSet(substitutions []Substitution, flags []Flag) (*Set, error) {
	set := &Set{
		substitutions: make([]Substitution, 0, len(substitutions)),
		flags:         make([]Flag, 0, len(flags)),
	}

	for i, s := range substitutions {
		if s.Pattern == "" {
			return nil, errors.Errorf("substitution %d: %w", i, ErrEmptyPattern)
		}
		if s.Label == "" {
			return nil, errors.Errorf("substitution %d (%q): %w", i, s.Pattern, ErrEmptyLabel)
		}
		set.substitutions = append(set.substitutions, s)
	}

	seen := make(map[string]struct{}, len(flags))
	for i, f := range flags {
		if f.Pattern == "" {
			return nil, errors.Errorf("flag %d: %w", i, ErrEmptyPattern)
		}
		if _, ok := seen[f.Pattern]; ok {
			continue
		}
		seen[f.Pattern] = struct{}{}
		set.flags = append(set.flags, f)
	}

	return set, nil
}

// MustNewSet is NewSet for static tables.
func MustNewSet(substitutions []Substitution, flags []Flag) *Set {
	set, err := NewSet(substitutions, flags)
	if err != nil {
		panic(err)
	}
	return set
}

func (s *Set) Substitutions() []Substitution {
	return append([]Substitution(nil), s.substitutions...)
}

func (s *Set) Flags() []Flag {
	return append([]Flag(nil), s.flags...)
}

// 🔍 Lookup returns the first substitution carrying the given label
func (s *Set) Lookup(label string) (Substitution, bool) {
	for _, sub := range s.substitutions {
		if sub.Label == label {
			return sub, true
		}
	}
	return Substitution{}, false
}

// ⚠️ Shadowed lists pairs (i, j), i < j, where substitution i's pattern occurs
// inside substitution j's pattern. Rule i runs first and may consume text rule
// j was written for. Rules are never reordered; this only surfaces the risk.
func (s *Set) Shadowed() [][2]int {
	var out [][2]int
	for i := range s.substitutions {
		for j := i + 1; j < len(s.substitutions); j++ {
			if Contains(s.substitutions[j].Pattern, s.substitutions[i].Pattern) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
